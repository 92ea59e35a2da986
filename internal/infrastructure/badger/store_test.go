package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/storetest"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStoreConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return openInMemory(t)
	})
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(DefaultConfig(dir))
	require.NoError(t, err)
	storetest.Seed(t, s, []string{"alice", "bob"}, [][2]string{{"alice", "bob"}})
	require.NoError(t, s.Close())

	s, err = Open(DefaultConfig(dir))
	require.NoError(t, err)
	defer s.Close()

	u, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice name", u.Name)

	has, err := s.HasEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, has)

	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.False(t, edges[0].CreatedAt.IsZero())
}

func TestStore_RejectsNULInUsername(t *testing.T) {
	s := openInMemory(t)
	err := s.Create(context.Background(), &entity.User{Username: "a\x00b", Name: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestStore_ClosedBackendIsUnavailable(t *testing.T) {
	s, err := Open(InMemoryConfig())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.List(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}
