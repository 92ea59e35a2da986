package application

import (
	"context"
	"time"

	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/metrics"
)

// Search returns users whose username or name contains query (case-sensitive),
// ordered by username. No match yields an empty slice.
func (s *Service) Search(ctx context.Context, query string) (out []*entity.User, err error) {
	defer metrics.ObserveOperation("search", time.Now(), &err)

	names, err := s.Index.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, names)
}
