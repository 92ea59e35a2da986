// Package memory is an in-process entity store. Users live in an ordered map
// and follow edges in two ordered adjacency sets per user (forward and
// reverse), kept in step on every mutation under a single RWMutex.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/btree"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
)

type Store struct {
	mu sync.RWMutex

	users btree.Map[string, *entity.User]
	// out[a] holds every b with a -> b; in[b] holds every a with a -> b.
	out map[string]*btree.Set[string]
	in  map[string]*btree.Set[string]

	created map[edgeKey]time.Time
	now     func() time.Time
}

type edgeKey struct{ from, to string }

func NewStore() *Store {
	return &Store{
		out:     make(map[string]*btree.Set[string]),
		in:      make(map[string]*btree.Set[string]),
		created: make(map[edgeKey]time.Time),
		now:     time.Now,
	}
}

func notFound(username string) error {
	return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func (s *Store) Create(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users.Get(u.Username); ok {
		return fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
	}
	now := s.now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	s.users.Set(u.Username, u.Clone())
	s.out[u.Username] = new(btree.Set[string])
	s.in[u.Username] = new(btree.Set[string])
	return nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users.Get(username)
	if !ok {
		return nil, notFound(username)
	}
	return u.Clone(), nil
}

func (s *Store) GetMany(_ context.Context, usernames []string) ([]*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entity.User, 0, len(usernames))
	for _, name := range usernames {
		u, ok := s.users.Get(name)
		if !ok {
			return nil, notFound(name)
		}
		out = append(out, u.Clone())
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, username string, patch entity.UserPatch) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users.Get(username)
	if !ok {
		return nil, notFound(username)
	}
	next := u.Clone()
	if patch.Apply(next) {
		next.UpdatedAt = s.now().UTC()
		s.users.Set(username, next)
	}
	return next.Clone(), nil
}

func (s *Store) Delete(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users.Get(username); !ok {
		return notFound(username)
	}
	s.out[username].Scan(func(to string) bool {
		s.in[to].Delete(username)
		delete(s.created, edgeKey{username, to})
		return true
	})
	s.in[username].Scan(func(from string) bool {
		s.out[from].Delete(username)
		delete(s.created, edgeKey{from, username})
		return true
	})
	delete(s.out, username)
	delete(s.in, username)
	s.users.Delete(username)
	return nil
}

func (s *Store) List(_ context.Context) ([]*entity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(), nil
}

func (s *Store) listLocked() []*entity.User {
	out := make([]*entity.User, 0, s.users.Len())
	s.users.Scan(func(_ string, u *entity.User) bool {
		out = append(out, u.Clone())
		return true
	})
	return out
}

func (s *Store) AddEdge(_ context.Context, follower, followed string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fwd, ok := s.out[follower]
	if !ok {
		return false, notFound(follower)
	}
	rev, ok := s.in[followed]
	if !ok {
		return false, notFound(followed)
	}
	if fwd.Contains(followed) {
		return false, nil
	}
	fwd.Insert(followed)
	rev.Insert(follower)
	s.created[edgeKey{follower, followed}] = s.now().UTC()
	return true, nil
}

func (s *Store) RemoveEdge(_ context.Context, follower, followed string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fwd, ok := s.out[follower]
	if !ok {
		return false, notFound(follower)
	}
	rev, ok := s.in[followed]
	if !ok {
		return false, notFound(followed)
	}
	if !fwd.Contains(followed) {
		return false, nil
	}
	fwd.Delete(followed)
	rev.Delete(follower)
	delete(s.created, edgeKey{follower, followed})
	return true, nil
}

func (s *Store) HasEdge(_ context.Context, follower, followed string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fwd, ok := s.out[follower]
	if !ok {
		return false, notFound(follower)
	}
	if _, ok := s.in[followed]; !ok {
		return false, notFound(followed)
	}
	return fwd.Contains(followed), nil
}

func (s *Store) Following(_ context.Context, username string) ([]string, error) {
	return s.neighbours(s.out, username)
}

func (s *Store) Followers(_ context.Context, username string) ([]string, error) {
	return s.neighbours(s.in, username)
}

func (s *Store) neighbours(adj map[string]*btree.Set[string], username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	set, ok := adj[username]
	if !ok {
		return nil, notFound(username)
	}
	return set.Keys(), nil
}

func (s *Store) InDegrees(_ context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inDegreesLocked(), nil
}

func (s *Store) inDegreesLocked() map[string]int {
	out := make(map[string]int, len(s.in))
	for name, set := range s.in {
		if n := set.Len(); n > 0 {
			out[name] = n
		}
	}
	return out
}

func (s *Store) UsersWithInDegrees(_ context.Context) ([]*entity.User, map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listLocked(), s.inDegreesLocked(), nil
}

func (s *Store) Edges(_ context.Context) ([]entity.Follow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []entity.Follow
	s.users.Scan(func(from string, _ *entity.User) bool {
		s.out[from].Scan(func(to string) bool {
			out = append(out, entity.Follow{Follower: from, Followed: to, CreatedAt: s.created[edgeKey{from, to}]})
			return true
		})
		return true
	})
	return out, nil
}

func (s *Store) Close() error { return nil }

var _ repository.Store = (*Store)(nil)
