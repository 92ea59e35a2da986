package application

import (
	"context"
	"errors"
	"time"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/metrics"
)

// Followers returns the users following username, ordered by username.
func (s *Service) Followers(ctx context.Context, username string) (out []*entity.User, err error) {
	defer metrics.ObserveOperation("followers", time.Now(), &err)

	names, err := s.Store.Followers(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, names)
}

// Following returns the users username follows, ordered by username.
func (s *Service) Following(ctx context.Context, username string) (out []*entity.User, err error) {
	defer metrics.ObserveOperation("following", time.Now(), &err)

	names, err := s.Store.Following(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, names)
}

// Mutuals returns the users both a and b follow. Mutuals(a, b) == Mutuals(b, a).
func (s *Service) Mutuals(ctx context.Context, a, b string) (out []*entity.User, err error) {
	defer metrics.ObserveOperation("mutuals", time.Now(), &err)

	fa, err := s.Store.Following(ctx, a)
	if err != nil {
		return nil, err
	}
	fb, err := s.Store.Following(ctx, b)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, intersect(fa, fb))
}

// AlsoFollowedBy returns every X with a -> X and X -> b: the people a follows
// who in turn follow b.
func (s *Service) AlsoFollowedBy(ctx context.Context, a, b string) (out []*entity.User, err error) {
	defer metrics.ObserveOperation("also_followed_by", time.Now(), &err)

	fa, err := s.Store.Following(ctx, a)
	if err != nil {
		return nil, err
	}
	fb, err := s.Store.Followers(ctx, b)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, intersect(fa, fb))
}

// intersect returns the names present in both ascending lists, ascending.
// It probes the larger list with the smaller one.
func intersect(x, y []string) []string {
	small, large := x, y
	if len(small) > len(large) {
		small, large = large, small
	}
	set := make(map[string]struct{}, len(large))
	for _, name := range large {
		set[name] = struct{}{}
	}
	out := make([]string, 0)
	for _, name := range small {
		if _, ok := set[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

// resolve loads users by name keeping the given order. A user deleted between
// the adjacency read and this lookup is dropped rather than failing the call.
func (s *Service) resolve(ctx context.Context, names []string) ([]*entity.User, error) {
	if len(names) == 0 {
		return []*entity.User{}, nil
	}
	users, err := s.Store.GetMany(ctx, names)
	if err == nil {
		return users, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	out := make([]*entity.User, 0, len(names))
	for _, name := range names {
		u, err := s.Store.GetByUsername(ctx, name)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}
