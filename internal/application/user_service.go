package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	repo "github.com/oksasatya/go-social-graph/internal/domain/repository"
	"github.com/oksasatya/go-social-graph/internal/metrics"
	"github.com/oksasatya/go-social-graph/pkg/events"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// Publisher receives graph change events. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev events.Event) error
}

// Service is the graph engine: entity store operations plus traversal,
// ranking, recommendation and search on top of them.
type Service struct {
	Store  repo.Store
	Index  repo.SearchIndex
	Events Publisher
	Logger *logrus.Logger
}

// NewService wires the engine. events may be nil; logger may be nil.
func NewService(store repo.Store, index repo.SearchIndex, events Publisher, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = helpers.NewDiscardLogger()
	}
	return &Service{Store: store, Index: index, Events: events, Logger: logger}
}

type CreateUserInput struct {
	Username string
	Name     string
	Email    string
	Password string
	Bio      string
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrInvalidArgument)
}

func validateUsername(username string) error {
	if username == "" {
		return invalid("username is required")
	}
	if strings.ContainsAny(username, "\x00/") {
		return invalid("username %q contains a reserved character", username)
	}
	return nil
}

// CreateUser registers a new user. The password is stored as a bcrypt hash.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (u *entity.User, err error) {
	defer metrics.ObserveOperation("create_user", time.Now(), &err)

	if err := validateUsername(in.Username); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, invalid("password is required")
	}
	hash, err := helpers.HashPassword(in.Password)
	if errors.Is(err, helpers.ErrPasswordTooLong) {
		return nil, invalid("password exceeds %d bytes", helpers.MaxPasswordBytes)
	}
	if err != nil {
		return nil, err
	}

	u = &entity.User{Username: in.Username, Name: in.Name, Email: in.Email, Password: hash, Bio: in.Bio}
	if err := s.Store.Create(ctx, u); err != nil {
		return nil, err
	}
	s.Logger.WithField("username", u.Username).Info("user created")

	s.indexUser(ctx, u)
	s.publish(ctx, events.New(events.UserCreated, u.Username, "", map[string]string{
		"name":  u.Name,
		"email": u.Email,
	}))
	return u, nil
}

func (s *Service) FindByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.Store.GetByUsername(ctx, username)
}

// Authenticate checks an exact username/password match. Unknown users and
// wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Store.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

// UpdateFields applies the non-empty fields of patch.
func (s *Service) UpdateFields(ctx context.Context, username string, patch entity.UserPatch) (u *entity.User, err error) {
	defer metrics.ObserveOperation("update_user", time.Now(), &err)

	u, err = s.Store.Update(ctx, username, patch)
	if err != nil {
		return nil, err
	}
	if patch.IsEmpty() {
		return u, nil
	}
	s.indexUser(ctx, u)
	s.publish(ctx, events.New(events.UserUpdated, u.Username, "", map[string]string{
		"name":  u.Name,
		"email": u.Email,
	}))
	return u, nil
}

// DeleteUser removes the user and every follow edge touching it.
func (s *Service) DeleteUser(ctx context.Context, username string) (err error) {
	defer metrics.ObserveOperation("delete_user", time.Now(), &err)

	if err := s.Store.Delete(ctx, username); err != nil {
		return err
	}
	s.Logger.WithField("username", username).Info("user deleted")
	if s.Index != nil {
		if iErr := s.Index.Remove(ctx, username); iErr != nil {
			s.Logger.WithError(iErr).WithField("username", username).Warn("search index remove failed")
		}
	}
	s.publish(ctx, events.New(events.UserDeleted, username, "", nil))
	return nil
}

// Follow adds follower -> followed. Repeating it is a no-op; the bool reports
// whether a new edge was created.
func (s *Service) Follow(ctx context.Context, follower, followed string) (created bool, err error) {
	defer metrics.ObserveOperation("follow", time.Now(), &err)

	created, err = s.Store.AddEdge(ctx, follower, followed)
	if err != nil || !created {
		return created, err
	}
	data := map[string]string{}
	if s.Events != nil {
		if users, gErr := s.Store.GetMany(ctx, []string{follower, followed}); gErr == nil {
			data["follower_name"] = users[0].Name
			data["followed_name"] = users[1].Name
			data["followed_email"] = users[1].Email
		}
	}
	s.publish(ctx, events.New(events.FollowCreated, follower, followed, data))
	return true, nil
}

// Unfollow removes follower -> followed. Removing an absent edge is a no-op.
func (s *Service) Unfollow(ctx context.Context, follower, followed string) (removed bool, err error) {
	defer metrics.ObserveOperation("unfollow", time.Now(), &err)

	removed, err = s.Store.RemoveEdge(ctx, follower, followed)
	if err != nil || !removed {
		return removed, err
	}
	s.publish(ctx, events.New(events.FollowDeleted, follower, followed, nil))
	return true, nil
}

// RemoveFollower drops follower -> username on username's behalf.
func (s *Service) RemoveFollower(ctx context.Context, username, follower string) (bool, error) {
	return s.Unfollow(ctx, follower, username)
}

func (s *Service) HasEdge(ctx context.Context, follower, followed string) (bool, error) {
	return s.Store.HasEdge(ctx, follower, followed)
}

// Relationship reports both directed edges between a and b.
func (s *Service) Relationship(ctx context.Context, a, b string) (entity.Relationship, error) {
	following, err := s.Store.HasEdge(ctx, a, b)
	if err != nil {
		return entity.Relationship{}, err
	}
	followedBy, err := s.Store.HasEdge(ctx, b, a)
	if err != nil {
		return entity.Relationship{}, err
	}
	return entity.Relationship{Following: following, FollowedBy: followedBy}, nil
}

type snapshotUser struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type snapshotEdge struct {
	Follower  string    `json:"follower"`
	Followed  string    `json:"followed"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is the exported form of the whole graph. Credentials are never included.
type Snapshot struct {
	TakenAt time.Time      `json:"taken_at"`
	Users   []snapshotUser `json:"users"`
	Edges   []snapshotEdge `json:"edges"`
}

// ExportSnapshot writes every user and edge to w as JSON.
func (s *Service) ExportSnapshot(ctx context.Context, w io.Writer) (err error) {
	defer metrics.ObserveOperation("export_snapshot", time.Now(), &err)

	users, err := s.Store.List(ctx)
	if err != nil {
		return err
	}
	edges, err := s.Store.Edges(ctx)
	if err != nil {
		return err
	}

	snap := Snapshot{
		TakenAt: time.Now().UTC(),
		Users:   make([]snapshotUser, 0, len(users)),
		Edges:   make([]snapshotEdge, 0, len(edges)),
	}
	for _, u := range users {
		snap.Users = append(snap.Users, snapshotUser{
			Username: u.Username, Name: u.Name, Email: u.Email, Bio: u.Bio,
			CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
		})
	}
	for _, e := range edges {
		snap.Edges = append(snap.Edges, snapshotEdge{Follower: e.Follower, Followed: e.Followed, CreatedAt: e.CreatedAt})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, u); err != nil {
		s.Logger.WithError(err).WithField("username", u.Username).Warn("search index update failed")
	}
}

// ReindexAll pushes every stored user into the search index.
func (s *Service) ReindexAll(ctx context.Context) (int, error) {
	if s.Index == nil {
		return 0, nil
	}
	users, err := s.Store.List(ctx)
	if err != nil {
		return 0, err
	}
	for i, u := range users {
		if err := s.Index.Index(ctx, u); err != nil {
			return i, err
		}
	}
	return len(users), nil
}

func (s *Service) publish(ctx context.Context, ev events.Event) {
	if s.Events == nil {
		return
	}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	err := s.Events.Publish(c, ev)
	metrics.IncEventsPublished(string(ev.Type), err)
	if err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"type":  ev.Type,
			"actor": ev.Actor,
		}).Warn("event publish failed")
	}
}
