package repository

import (
	"context"

	"github.com/oksasatya/go-social-graph/internal/domain/entity"
)

// UserRepository defines user record persistence.
// Implementations return domain.ErrNotFound / domain.ErrConflict (wrapped) and
// wrap backend I/O failures with domain.ErrStoreUnavailable.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
	// GetMany returns users in the order requested.
	GetMany(ctx context.Context, usernames []string) ([]*entity.User, error)
	Update(ctx context.Context, username string, patch entity.UserPatch) (*entity.User, error)
	// Delete removes the user and every edge touching it.
	Delete(ctx context.Context, username string) error
	// List returns every user ordered by username.
	List(ctx context.Context) ([]*entity.User, error)
}

// FollowRepository defines the directed edge table and its adjacency index.
type FollowRepository interface {
	// AddEdge is a no-op success when the edge exists. The bool reports
	// whether a new edge was written.
	AddEdge(ctx context.Context, follower, followed string) (bool, error)
	// RemoveEdge is a no-op success when the edge is absent. The bool reports
	// whether an edge was deleted.
	RemoveEdge(ctx context.Context, follower, followed string) (bool, error)
	HasEdge(ctx context.Context, follower, followed string) (bool, error)
	// Following returns the usernames username follows, ascending.
	Following(ctx context.Context, username string) ([]string, error)
	// Followers returns the usernames following username, ascending.
	Followers(ctx context.Context, username string) ([]string, error)
	// InDegrees maps username to incoming edge count. Zero entries may be omitted.
	InDegrees(ctx context.Context) (map[string]int, error)
	// UsersWithInDegrees returns List and InDegrees read from one snapshot,
	// so every counted follower belongs to a listed user.
	UsersWithInDegrees(ctx context.Context) ([]*entity.User, map[string]int, error)
	Edges(ctx context.Context) ([]entity.Follow, error)
}

// Store is the entity store: users plus follow edges behind one backend.
type Store interface {
	UserRepository
	FollowRepository
	Close() error
}

// SearchIndex answers case-sensitive substring lookups over username and name.
// Search returns matching usernames ordered ascending.
type SearchIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Remove(ctx context.Context, username string) error
	Search(ctx context.Context, query string) ([]string, error)
}
