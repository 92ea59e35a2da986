// Package storetest holds the behavioural suite every entity store adapter
// must pass. Adapter tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
)

// Factory returns an empty store. Cleanup is the caller's job via t.Cleanup.
type Factory func(t *testing.T) repository.Store

// Run executes the whole suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, newStore(t)) })
	t.Run("CreateConflict", func(t *testing.T) { testCreateConflict(t, newStore(t)) })
	t.Run("UpdateAppliesNonEmptyFields", func(t *testing.T) { testUpdate(t, newStore(t)) })
	t.Run("ListOrdered", func(t *testing.T) { testList(t, newStore(t)) })
	t.Run("GetMany", func(t *testing.T) { testGetMany(t, newStore(t)) })
	t.Run("EdgeIdempotence", func(t *testing.T) { testEdgeIdempotence(t, newStore(t)) })
	t.Run("EdgeMissingEndpoint", func(t *testing.T) { testEdgeMissingEndpoint(t, newStore(t)) })
	t.Run("Adjacency", func(t *testing.T) { testAdjacency(t, newStore(t)) })
	t.Run("SelfFollow", func(t *testing.T) { testSelfFollow(t, newStore(t)) })
	t.Run("DeleteCascades", func(t *testing.T) { testDeleteCascades(t, newStore(t)) })
	t.Run("UsersWithInDegrees", func(t *testing.T) { testUsersWithInDegrees(t, newStore(t)) })
	t.Run("UsersWithInDegreesUnderWrites", func(t *testing.T) { testUsersWithInDegreesUnderWrites(t, newStore(t)) })
	t.Run("ConcurrentAddEdge", func(t *testing.T) { testConcurrentAddEdge(t, newStore(t)) })
	t.Run("ConcurrentCreate", func(t *testing.T) { testConcurrentCreate(t, newStore(t)) })
}

// Seed creates users with name "<username> name" and the given edges.
func Seed(t *testing.T, s repository.Store, usernames []string, edges [][2]string) {
	t.Helper()
	ctx := context.Background()
	for _, u := range usernames {
		require.NoError(t, s.Create(ctx, &entity.User{
			Username: u,
			Name:     u + " name",
			Email:    u + "@example.com",
			Password: "hash-" + u,
		}))
	}
	for _, e := range edges {
		_, err := s.AddEdge(ctx, e[0], e[1])
		require.NoError(t, err)
	}
}

func testCreateAndGet(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := &entity.User{Username: "alice", Name: "Alice", Email: "alice@example.com", Password: "h", Bio: "hi"}
	require.NoError(t, s.Create(ctx, u))
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "h", got.Password)
	assert.Equal(t, "hi", got.Bio)

	_, err = s.GetByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testCreateConflict(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &entity.User{Username: "alice", Name: "First"}))

	err := s.Create(ctx, &entity.User{Username: "alice", Name: "Second"})
	require.ErrorIs(t, err, domain.ErrConflict)

	got, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "First", got.Name, "store must be unchanged after a conflicting create")

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func testUpdate(t *testing.T, s repository.Store) {
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, &entity.User{Username: "alice", Name: "Alice", Email: "a@x.io", Bio: "old"}))

	got, err := s.Update(ctx, "alice", entity.UserPatch{Name: entity.StringPtr("Alice B"), Email: entity.StringPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", got.Name)
	assert.Equal(t, "a@x.io", got.Email, "empty patch field must not clear the value")
	assert.Equal(t, "old", got.Bio)

	got, err = s.Update(ctx, "alice", entity.UserPatch{Bio: entity.StringPtr("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", got.Bio)
	assert.Equal(t, "Alice B", got.Name)

	reread, err := s.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, got.Name, reread.Name)
	assert.Equal(t, got.Bio, reread.Bio)

	_, err = s.Update(ctx, "ghost", entity.UserPatch{Name: entity.StringPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testList(t *testing.T, s repository.Store) {
	Seed(t, s, []string{"dave", "alice", "carol", "bob"}, nil)
	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "dave"}, usernames(all))
}

func testGetMany(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob", "carol"}, nil)

	got, err := s.GetMany(ctx, []string{"carol", "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"carol", "alice"}, usernames(got))

	got, err = s.GetMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.GetMany(ctx, []string{"alice", "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testEdgeIdempotence(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob"}, nil)

	created, err := s.AddEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = s.AddEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, created)

	following, err := s.Following(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)
	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)

	removed, err := s.RemoveEdge(ctx, "bob", "alice")
	require.NoError(t, err)
	assert.False(t, removed, "removing a missing edge is a no-op")
	has, err := s.HasEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, has)

	removed, err = s.RemoveEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.RemoveEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, removed)
	has, err = s.HasEdge(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.False(t, has)
}

func testEdgeMissingEndpoint(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice"}, nil)

	_, err := s.AddEdge(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.AddEdge(ctx, "ghost", "alice")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.RemoveEdge(ctx, "alice", "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Following(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.Followers(ctx, "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func testAdjacency(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob", "carol", "dave"}, [][2]string{
		{"alice", "bob"}, {"bob", "carol"}, {"bob", "dave"}, {"carol", "dave"},
	})

	followers, err := s.Followers(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, followers)

	following, err := s.Following(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, following)

	following, err = s.Following(ctx, "dave")
	require.NoError(t, err)
	assert.Empty(t, following)

	deg, err := s.InDegrees(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deg["dave"])
	assert.Equal(t, 1, deg["bob"])
	assert.Equal(t, 1, deg["carol"])
	assert.Equal(t, 0, deg["alice"])
}

func testSelfFollow(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice"}, nil)

	created, err := s.AddEdge(ctx, "alice", "alice")
	require.NoError(t, err)
	assert.True(t, created)

	followers, err := s.Followers(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)

	require.NoError(t, s.Delete(ctx, "alice"))
	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func testDeleteCascades(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob", "carol"}, [][2]string{
		{"alice", "bob"}, {"bob", "alice"}, {"carol", "bob"}, {"alice", "carol"},
	})

	require.NoError(t, s.Delete(ctx, "bob"))

	_, err := s.GetByUsername(ctx, "bob")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	following, err := s.Following(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, following)

	followers, err := s.Followers(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, followers)

	following, err = s.Following(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, following)

	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "alice", edges[0].Follower)
	assert.Equal(t, "carol", edges[0].Followed)

	deg, err := s.InDegrees(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, deg["bob"])

	assert.ErrorIs(t, s.Delete(ctx, "bob"), domain.ErrNotFound)
}

func testConcurrentAddEdge(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"alice", "bob"}, nil)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.AddEdge(ctx, "alice", "bob")
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created, "exactly one writer creates the edge")
	edges, err := s.Edges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	followers, err := s.Followers(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, followers)
}

func testConcurrentCreate(t *testing.T, s repository.Store) {
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok, taken int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Create(ctx, &entity.User{Username: "alice", Name: fmt.Sprintf("n%d", i)})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case assert.ErrorIs(t, err, domain.ErrConflict):
				taken++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, taken)
}

func usernames(us []*entity.User) []string {
	out := make([]string, 0, len(us))
	for _, u := range us {
		out = append(out, u.Username)
	}
	return out
}

func testUsersWithInDegrees(t *testing.T, s repository.Store) {
	ctx := context.Background()
	Seed(t, s, []string{"carol", "alice", "bob"}, [][2]string{
		{"alice", "carol"}, {"bob", "carol"}, {"carol", "alice"},
	})

	users, degrees, err := s.UsersWithInDegrees(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.Equal(t, []string{"alice", "bob", "carol"}, names)
	assert.Equal(t, 1, degrees["alice"])
	assert.Equal(t, 0, degrees["bob"])
	assert.Equal(t, 2, degrees["carol"])

	require.NoError(t, s.Delete(ctx, "bob"))
	users, degrees, err = s.UsersWithInDegrees(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, degrees["carol"])
}

// Followers are added and users deleted while snapshots are read. Every
// snapshot must count only followers of users it lists.
func testUsersWithInDegreesUnderWrites(t *testing.T, s repository.Store) {
	ctx := context.Background()
	const n = 20
	names := make([]string, 0, n+1)
	names = append(names, "hub")
	for i := 0; i < n; i++ {
		names = append(names, fmt.Sprintf("fan%02d", i))
	}
	Seed(t, s, names, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			fan := fmt.Sprintf("fan%02d", i)
			_, _ = s.AddEdge(ctx, fan, "hub")
			if i%2 == 0 {
				_ = s.Delete(ctx, fan)
			}
		}
	}()

	for i := 0; i < n; i++ {
		users, degrees, err := s.UsersWithInDegrees(ctx)
		require.NoError(t, err)
		listed := make(map[string]bool, len(users))
		for _, u := range users {
			listed[u.Username] = true
		}
		for name := range degrees {
			assert.True(t, listed[name], "degree for unlisted user %s", name)
		}
		followers := 0
		for name := range listed {
			if name != "hub" {
				followers++
			}
		}
		assert.LessOrEqual(t, degrees["hub"], followers)
	}
	wg.Wait()

	_, degrees, err := s.UsersWithInDegrees(ctx)
	require.NoError(t, err)
	assert.Equal(t, n/2, degrees["hub"])
}
