package application

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/metrics"
)

// Recommendation walks start this deep and may grow to MaxRecommendDepth when
// too few candidates turn up.
const (
	MinRecommendDepth = 2
	MaxRecommendDepth = 4
)

type RankedUser struct {
	User          *entity.User `json:"user"`
	FollowerCount int          `json:"follower_count"`
}

type Recommendation struct {
	User  *entity.User `json:"user"`
	Score int64        `json:"score"`
}

// TopByFollowerCount returns the n users with the most followers. Ties go to
// the lexicographically smaller username. Users with no followers still rank.
func (s *Service) TopByFollowerCount(ctx context.Context, n int) (out []RankedUser, err error) {
	defer metrics.ObserveOperation("top_by_follower_count", time.Now(), &err)

	if n < 1 {
		return nil, fmt.Errorf("n must be at least 1, got %d: %w", n, domain.ErrInvalidArgument)
	}
	users, degrees, err := s.Store.UsersWithInDegrees(ctx)
	if err != nil {
		return nil, err
	}

	ranked := make([]RankedUser, 0, len(users))
	for _, u := range users {
		ranked = append(ranked, RankedUser{User: u, FollowerCount: degrees[u.Username]})
	}
	slices.SortFunc(ranked, func(a, b RankedUser) int {
		if c := cmp.Compare(b.FollowerCount, a.FollowerCount); c != 0 {
			return c
		}
		return cmp.Compare(a.User.Username, b.User.Username)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// Recommend suggests up to n users for username to follow.
//
// A candidate's score is the number of directed walks of length 1..D from
// username that end at it; username itself and anyone it already follows are
// excluded. D starts at MinRecommendDepth and grows by one, recomputing from
// scratch, while fewer than n candidates are found and D < MaxRecommendDepth.
// Finding no candidate at all is terminal and reported as ErrNoCandidates.
func (s *Service) Recommend(ctx context.Context, username string, n int) (out []Recommendation, err error) {
	defer metrics.ObserveOperation("recommend", time.Now(), &err)

	if n < 1 {
		return nil, fmt.Errorf("n must be at least 1, got %d: %w", n, domain.ErrInvalidArgument)
	}
	adj := newAdjacency(s, username)
	direct, err := adj.following(ctx, username)
	if err != nil {
		return nil, err
	}

	var scores map[string]int64
	depth := MinRecommendDepth
	for {
		scores, err = walkScores(ctx, adj, username, depth)
		if err != nil {
			return nil, err
		}
		delete(scores, username)
		for _, name := range direct {
			delete(scores, name)
		}
		if len(scores) == 0 {
			return nil, fmt.Errorf("user %q at depth %d: %w", username, depth, domain.ErrNoCandidates)
		}
		if len(scores) >= n || depth >= MaxRecommendDepth {
			break
		}
		depth++
	}
	metrics.ObserveRecommendDepth(depth)

	type scored struct {
		name  string
		score int64
	}
	ranked := make([]scored, 0, len(scores))
	for name, score := range scores {
		ranked = append(ranked, scored{name, score})
	}
	slices.SortFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}
		return cmp.Compare(a.name, b.name)
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}

	out = make([]Recommendation, 0, len(ranked))
	for _, r := range ranked {
		u, err := s.Store.GetByUsername(ctx, r.name)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, Recommendation{User: u, Score: r.score})
	}
	s.Logger.WithField("username", username).WithField("depth", depth).Debugf("recommended %d users", len(out))
	return out, nil
}

// adjacency memoises forward lists for one recommendation so every depth
// iteration walks the same snapshot.
type adjacency struct {
	svc   *Service
	root  string
	cache map[string][]string
}

func newAdjacency(s *Service, root string) *adjacency {
	return &adjacency{svc: s, root: root, cache: make(map[string][]string)}
}

func (a *adjacency) following(ctx context.Context, username string) ([]string, error) {
	if out, ok := a.cache[username]; ok {
		return out, nil
	}
	out, err := a.svc.Store.Following(ctx, username)
	// A neighbour deleted mid-walk has no out edges; only the root must exist.
	if errors.Is(err, domain.ErrNotFound) && username != a.root {
		out, err = nil, nil
	}
	if err != nil {
		return nil, err
	}
	a.cache[username] = out
	return out, nil
}

// walkScores counts, for every node, the directed walks of length 1..depth
// from start that end there. Walks may revisit nodes and edges.
func walkScores(ctx context.Context, adj *adjacency, start string, depth int) (map[string]int64, error) {
	total := make(map[string]int64)
	frontier := map[string]int64{start: 1}
	for step := 1; step <= depth; step++ {
		next := make(map[string]int64)
		for node, walks := range frontier {
			out, err := adj.following(ctx, node)
			if err != nil {
				return nil, err
			}
			for _, to := range out {
				next[to] += walks
			}
		}
		for node, walks := range next {
			total[node] += walks
		}
		frontier = next
	}
	return total, nil
}
