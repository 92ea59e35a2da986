package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

const userColumns = `username, name, email, password_hash, bio, created_at, updated_at`

// Store keeps users and follow edges in two tables. Edge rows cascade on user delete.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close is a no-op: the pool is owned by whoever created it.
func (s *Store) Close() error { return nil }

func notFound(username string) error {
	return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrConflict) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	if err := row.Scan(&u.Username, &u.Name, &u.Email, &u.Password, &u.Bio, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
	return u, nil
}

func (s *Store) Create(ctx context.Context, u *entity.User) error {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (username, name, email, password_hash, bio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, u.Username, u.Name, u.Email, u.Password, u.Bio)

	var created, updated time.Time
	if err := row.Scan(&created, &updated); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
		}
		return storeErr(err)
	}
	u.CreatedAt, u.UpdatedAt = created.UTC(), updated.UTC()
	return nil
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(username)
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return u, nil
}

func (s *Store) GetMany(ctx context.Context, usernames []string) ([]*entity.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE username = ANY($1)`, usernames)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	byName := make(map[string]*entity.User, len(usernames))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		byName[u.Username] = u
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	out := make([]*entity.User, 0, len(usernames))
	for _, name := range usernames {
		u, ok := byName[name]
		if !ok {
			return nil, notFound(name)
		}
		out = append(out, u.Clone())
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, username string, patch entity.UserPatch) (*entity.User, error) {
	var out *entity.User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		u, err := scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1 FOR UPDATE`, username))
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(username)
		}
		if err != nil {
			return err
		}
		if patch.Apply(u) {
			if err := tx.QueryRow(ctx, `
				UPDATE users SET name = $2, email = $3, bio = $4, updated_at = now()
				WHERE username = $1
				RETURNING updated_at
			`, username, u.Name, u.Email, u.Bio).Scan(&u.UpdatedAt); err != nil {
				return err
			}
			u.UpdatedAt = u.UpdatedAt.UTC()
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, username string) error {
	res, err := s.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return storeErr(err)
	}
	if res.RowsAffected() == 0 {
		return notFound(username)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]*entity.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username COLLATE "C"`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []*entity.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr(err)
		}
		out = append(out, u)
	}
	return out, storeErr(rows.Err())
}

var _ repository.Store = (*Store)(nil)
