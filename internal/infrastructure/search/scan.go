// Package search answers user lookups by scanning the entity store directly.
package search

import (
	"context"
	"strings"

	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
)

// ScanIndex has no state of its own. Index and Remove are no-ops and every
// Search walks the full user list, so results can never be stale.
type ScanIndex struct {
	users repository.UserRepository
}

func NewScanIndex(users repository.UserRepository) *ScanIndex {
	return &ScanIndex{users: users}
}

func (s *ScanIndex) Index(context.Context, *entity.User) error { return nil }

func (s *ScanIndex) Remove(context.Context, string) error { return nil }

// Search matches query as a case-sensitive substring of username or name.
func (s *ScanIndex) Search(ctx context.Context, query string) ([]string, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0)
	for _, u := range users {
		if strings.Contains(u.Username, query) || strings.Contains(u.Name, query) {
			out = append(out, u.Username)
		}
	}
	return out, nil
}

var _ repository.SearchIndex = (*ScanIndex)(nil)
