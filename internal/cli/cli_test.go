package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/memory"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/search"
)

type console struct {
	svc *application.Service
}

func newConsole() *console {
	store := memory.NewStore()
	return &console{svc: application.NewService(store, search.NewScanIndex(store), nil, nil)}
}

func (c *console) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context, *logrus.Logger) (*application.Service, func(), error) {
		return c.svc, func() {}, nil
	}
	var out, errOut bytes.Buffer
	root := NewRootCmd(open, &out, &errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func (c *console) must(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	require.NoError(t, err, args)
	return out
}

func (c *console) seed(t *testing.T) {
	t.Helper()
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		c.must(t, "user", "create", u, "--name", u+" name", "--email", u+"@example.com", "--password", "pw")
	}
	for _, e := range [][2]string{{"alice", "bob"}, {"bob", "carol"}, {"bob", "dave"}, {"carol", "dave"}} {
		c.must(t, "follow", e[0], e[1])
	}
}

func TestParseN(t *testing.T) {
	cases := map[string]int{"": 10, "abc": 10, "0": 10, "-1": 10, "3": 3, "25": 25}
	for in, want := range cases {
		assert.Equal(t, want, parseN(in), in)
	}
}

func TestUserLifecycle(t *testing.T) {
	c := newConsole()

	out := c.must(t, "user", "create", "alice", "--name", "Alice", "--email", "a@example.com", "--password", "s3cret")
	assert.Contains(t, out, "created user alice")

	_, err := c.run(t, "user", "create", "alice", "--password", "x")
	assert.True(t, errors.Is(err, domain.ErrConflict))

	_, err = c.run(t, "user", "create", "bob")
	assert.Error(t, err, "password flag is required")

	out = c.must(t, "user", "update", "alice", "--bio", "hello")
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "Alice")

	out = c.must(t, "user", "show", "alice")
	assert.Contains(t, out, "a@example.com")
	assert.NotContains(t, out, "s3cret")

	out = c.must(t, "user", "login", "alice", "--password", "s3cret")
	assert.Contains(t, out, "authenticated as alice")
	_, err = c.run(t, "user", "login", "alice", "--password", "nope")
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))

	c.must(t, "user", "delete", "alice")
	_, err = c.run(t, "user", "show", "alice")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGraphCommands(t *testing.T) {
	c := newConsole()
	c.seed(t)

	out := c.must(t, "follow", "alice", "bob")
	assert.Contains(t, out, "alice already follows bob")

	out = c.must(t, "followers", "dave")
	assert.Contains(t, out, "bob")
	assert.Contains(t, out, "carol")
	assert.NotContains(t, out, "alice")

	out = c.must(t, "mutuals", "bob", "carol")
	assert.Contains(t, out, "dave")

	out = c.must(t, "also-followed-by", "bob", "dave")
	assert.Contains(t, out, "carol")

	out = c.must(t, "relationship", "bob", "carol")
	assert.Contains(t, out, "bob -> carol")

	out = c.must(t, "top", "-n", "1")
	assert.Contains(t, out, "dave")
	assert.NotContains(t, out, "carol")

	out = c.must(t, "recommend", "alice", "-n", "2")
	assert.Contains(t, out, "carol")
	assert.Contains(t, out, "dave")

	_, err := c.run(t, "recommend", "dave")
	assert.True(t, errors.Is(err, domain.ErrNoCandidates))

	out = c.must(t, "unfollow", "alice", "bob")
	assert.Contains(t, out, "alice no longer follows bob")
	out = c.must(t, "unfollow", "alice", "bob")
	assert.Contains(t, out, "alice was not following bob")
}

func TestTop_BadNFallsBack(t *testing.T) {
	c := newConsole()
	c.seed(t)
	out := c.must(t, "top", "-n", "zero")
	for _, u := range []string{"alice", "bob", "carol", "dave"} {
		assert.Contains(t, out, u)
	}
}

func TestSearch(t *testing.T) {
	c := newConsole()
	for _, u := range []string{"alice", "carol", "dave"} {
		c.must(t, "user", "create", u, "--password", "pw")
	}
	out := c.must(t, "search", "ar")
	assert.Contains(t, out, "carol")
	assert.NotContains(t, out, "alice")
	assert.NotContains(t, out, "dave")

	out = c.must(t, "search", "zzz")
	assert.Contains(t, out, "(none)")
}

func TestSnapshot(t *testing.T) {
	c := newConsole()
	c.seed(t)

	out := c.must(t, "snapshot")
	var snap application.Snapshot
	require.NoError(t, json.Unmarshal([]byte(out), &snap))
	assert.Len(t, snap.Users, 4)
	assert.Len(t, snap.Edges, 4)

	path := filepath.Join(t.TempDir(), "graph.json")
	out = c.must(t, "snapshot", "-o", path)
	assert.Contains(t, out, path)
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"follower": "alice"`)
}

func TestReindex(t *testing.T) {
	c := newConsole()
	c.seed(t)
	assert.Contains(t, c.must(t, "reindex"), "indexed 4 users")
}
