package helpers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/pkg/events"
	mailtpl "github.com/oksasatya/go-social-graph/pkg/mailer/templates"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, CompareHashAndPassword(hash, "s3cret"))
	assert.False(t, CompareHashAndPassword(hash, "S3cret"))
	assert.False(t, CompareHashAndPassword(hash, "s3cret "))

	_, err = HashPassword(strings.Repeat("a", MaxPasswordBytes+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestJWT_RoundTrip(t *testing.T) {
	m := NewJWTManager("access", "refresh", time.Minute, time.Hour)

	access, exp, err := m.GenerateAccessToken("alice", "sid-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(access)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "sid-1", claims.SessionID)

	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err, "access token must not validate with the refresh secret")
}

func TestJWT_Expired(t *testing.T) {
	m := NewJWTManager("access", "refresh", -time.Minute, time.Hour)
	tok, _, err := m.GenerateAccessToken("alice", "sid")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(tok)
	assert.Error(t, err)
}

func TestJobForEvent(t *testing.T) {
	cfg := &config.Config{AppName: "Graph"}

	job, ok := JobForEvent(cfg, events.New(events.FollowCreated, "bob", "dave", map[string]string{
		"followed_email": "dave@example.com",
		"followed_name":  "Dave",
		"follower_name":  "Bob",
	}))
	require.True(t, ok)
	assert.Equal(t, "dave@example.com", job.To)
	assert.Equal(t, mailtpl.NewFollower, job.Template)
	assert.Equal(t, "bob", job.Data["ActorUsername"])

	job, ok = JobForEvent(cfg, events.New(events.UserCreated, "alice", "", map[string]string{
		"email": "alice@example.com", "name": "Alice",
	}))
	require.True(t, ok)
	assert.Equal(t, mailtpl.Welcome, job.Template)

	_, ok = JobForEvent(cfg, events.New(events.FollowCreated, "bob", "bob", map[string]string{"followed_email": "b@example.com"}))
	assert.False(t, ok, "self-follow does not notify")

	_, ok = JobForEvent(cfg, events.New(events.FollowDeleted, "bob", "dave", nil))
	assert.False(t, ok)

	_, ok = JobForEvent(cfg, events.New(events.UserCreated, "alice", "", nil))
	assert.False(t, ok, "no address, no email")
}

func TestSnapshotObjectPath(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	assert.Equal(t, "snapshots/20260102T030405Z.json", SnapshotObjectPath(at))
}

func TestPingES(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(int(status.Load()))
	}))
	defer srv.Close()

	es, err := NewESClient([]string{srv.URL}, "", "")
	require.NoError(t, err)
	assert.NoError(t, PingES(context.Background(), es))

	status.Store(http.StatusInternalServerError)
	assert.Error(t, PingES(context.Background(), es))
}
