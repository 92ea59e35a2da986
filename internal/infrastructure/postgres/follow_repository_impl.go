package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/go-social-graph/internal/domain/entity"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// requireUsers reports the first of usernames that has no row.
func requireUsers(ctx context.Context, q querier, usernames ...string) error {
	rows, err := q.Query(ctx, `SELECT username FROM users WHERE username = ANY($1)`, usernames)
	if err != nil {
		return err
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return err
	}
	present := make(map[string]bool, len(found))
	for _, name := range found {
		present[name] = true
	}
	for _, name := range usernames {
		if !present[name] {
			return notFound(name)
		}
	}
	return nil
}

func (s *Store) AddEdge(ctx context.Context, follower, followed string) (bool, error) {
	res, err := s.pool.Exec(ctx, `
		INSERT INTO follows (follower, followed) VALUES ($1, $2)
		ON CONFLICT (follower, followed) DO NOTHING
	`, follower, followed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return false, storeErr(requireUsers(ctx, s.pool, follower, followed))
		}
		return false, storeErr(err)
	}
	return res.RowsAffected() == 1, nil
}

func (s *Store) RemoveEdge(ctx context.Context, follower, followed string) (bool, error) {
	var removed bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := requireUsers(ctx, tx, follower, followed); err != nil {
			return err
		}
		res, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower = $1 AND followed = $2`, follower, followed)
		if err != nil {
			return err
		}
		removed = res.RowsAffected() == 1
		return nil
	})
	return removed, storeErr(err)
}

func (s *Store) HasEdge(ctx context.Context, follower, followed string) (bool, error) {
	if err := requireUsers(ctx, s.pool, follower, followed); err != nil {
		return false, storeErr(err)
	}
	var has bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower = $1 AND followed = $2)`,
		follower, followed,
	).Scan(&has)
	return has, storeErr(err)
}

func (s *Store) Following(ctx context.Context, username string) ([]string, error) {
	return s.neighbours(ctx, username,
		`SELECT followed FROM follows WHERE follower = $1 ORDER BY followed COLLATE "C"`)
}

func (s *Store) Followers(ctx context.Context, username string) ([]string, error) {
	return s.neighbours(ctx, username,
		`SELECT follower FROM follows WHERE followed = $1 ORDER BY follower COLLATE "C"`)
}

func (s *Store) neighbours(ctx context.Context, username, query string) ([]string, error) {
	var out []string
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if err := requireUsers(ctx, tx, username); err != nil {
			return err
		}
		rows, err := tx.Query(ctx, query, username)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, storeErr(err)
	}
	return out, nil
}

func (s *Store) InDegrees(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT followed, count(*) FROM follows GROUP BY followed`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, storeErr(err)
		}
		out[name] = n
	}
	return out, storeErr(rows.Err())
}

// UsersWithInDegrees counts followers in the same statement that lists users,
// so both come from one snapshot.
func (s *Store) UsersWithInDegrees(ctx context.Context) ([]*entity.User, map[string]int, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+`,
		(SELECT count(*) FROM follows WHERE follows.followed = users.username)
		FROM users ORDER BY username COLLATE "C"`)
	if err != nil {
		return nil, nil, storeErr(err)
	}
	defer rows.Close()

	var users []*entity.User
	degrees := make(map[string]int)
	for rows.Next() {
		u := &entity.User{}
		var n int
		if err := rows.Scan(&u.Username, &u.Name, &u.Email, &u.Password, &u.Bio, &u.CreatedAt, &u.UpdatedAt, &n); err != nil {
			return nil, nil, storeErr(err)
		}
		u.CreatedAt, u.UpdatedAt = u.CreatedAt.UTC(), u.UpdatedAt.UTC()
		users = append(users, u)
		if n > 0 {
			degrees[u.Username] = n
		}
	}
	if err := rows.Err(); err != nil {
		return nil, nil, storeErr(err)
	}
	return users, degrees, nil
}

func (s *Store) Edges(ctx context.Context) ([]entity.Follow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT follower, followed, created_at FROM follows
		ORDER BY follower COLLATE "C", followed COLLATE "C"
	`)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var out []entity.Follow
	for rows.Next() {
		var f entity.Follow
		if err := rows.Scan(&f.Follower, &f.Followed, &f.CreatedAt); err != nil {
			return nil, storeErr(err)
		}
		f.CreatedAt = f.CreatedAt.UTC()
		out = append(out, f)
	}
	return out, storeErr(rows.Err())
}
