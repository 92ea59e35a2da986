package badger

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
)

const (
	userPrefix = "u/"
	fwdPrefix  = "f/"
	revPrefix  = "r/"
	sep        = "\x00"

	// maxTxnAttempts bounds retries of a transaction that lost an SSI conflict.
	maxTxnAttempts = 16
)

type Store struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) a store with the given configuration.
func Open(cfg Config) (*Store, error) {
	db, err := open(cfg)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) Close() error { return s.db.Close() }

type userRecord struct {
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Bio       string    `json:"bio,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toRecord(u *entity.User) userRecord {
	return userRecord{
		Username: u.Username, Name: u.Name, Email: u.Email, Password: u.Password, Bio: u.Bio,
		CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt,
	}
}

func (r userRecord) toEntity() *entity.User {
	return &entity.User{
		Username: r.Username, Name: r.Name, Email: r.Email, Password: r.Password, Bio: r.Bio,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func userKey(username string) []byte { return []byte(userPrefix + username) }

func fwdKey(from, to string) []byte { return []byte(fwdPrefix + from + sep + to) }

func revKey(to, from string) []byte { return []byte(revPrefix + to + sep + from) }

func notFound(username string) error {
	return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
}

// storeErr passes domain errors through and tags everything else as a backend failure.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidArgument} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return storeErr(err)
		}
	}
	return storeErr(err)
}

func (s *Store) view(fn func(txn *badger.Txn) error) error {
	return storeErr(s.db.View(fn))
}

func getUser(txn *badger.Txn, username string) (*userRecord, error) {
	item, err := txn.Get(userKey(username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, notFound(username)
	}
	if err != nil {
		return nil, err
	}
	var rec userRecord
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
		return nil, err
	}
	return &rec, nil
}

func exists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

func putUser(txn *badger.Txn, rec userRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return txn.Set(userKey(rec.Username), b)
}

// scanKeys returns the suffixes of every key under prefix, in key order.
func scanKeys(txn *badger.Txn, prefix []byte) []string {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []string
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		out = append(out, string(bytes.TrimPrefix(it.Item().Key(), prefix)))
	}
	return out
}

func (s *Store) Create(_ context.Context, u *entity.User) error {
	if strings.Contains(u.Username, sep) {
		return fmt.Errorf("username contains NUL: %w", domain.ErrInvalidArgument)
	}
	now := s.now().UTC()
	rec := toRecord(u)
	rec.CreatedAt, rec.UpdatedAt = now, now

	err := s.update(func(txn *badger.Txn) error {
		found, err := exists(txn, userKey(u.Username))
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("username %q: %w", u.Username, domain.ErrConflict)
		}
		return putUser(txn, rec)
	})
	if err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = now, now
	return nil
}

func (s *Store) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	var out *entity.User
	err := s.view(func(txn *badger.Txn) error {
		rec, err := getUser(txn, username)
		if err != nil {
			return err
		}
		out = rec.toEntity()
		return nil
	})
	return out, err
}

func (s *Store) GetMany(_ context.Context, usernames []string) ([]*entity.User, error) {
	out := make([]*entity.User, 0, len(usernames))
	err := s.view(func(txn *badger.Txn) error {
		for _, name := range usernames {
			rec, err := getUser(txn, name)
			if err != nil {
				return err
			}
			out = append(out, rec.toEntity())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Update(_ context.Context, username string, patch entity.UserPatch) (*entity.User, error) {
	var out *entity.User
	err := s.update(func(txn *badger.Txn) error {
		rec, err := getUser(txn, username)
		if err != nil {
			return err
		}
		u := rec.toEntity()
		if patch.Apply(u) {
			u.UpdatedAt = s.now().UTC()
			if err := putUser(txn, toRecord(u)); err != nil {
				return err
			}
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(_ context.Context, username string) error {
	return s.update(func(txn *badger.Txn) error {
		if _, err := getUser(txn, username); err != nil {
			return err
		}
		for _, to := range scanKeys(txn, []byte(fwdPrefix+username+sep)) {
			if err := txn.Delete(fwdKey(username, to)); err != nil {
				return err
			}
			if err := txn.Delete(revKey(to, username)); err != nil {
				return err
			}
		}
		for _, from := range scanKeys(txn, []byte(revPrefix+username+sep)) {
			if err := txn.Delete(fwdKey(from, username)); err != nil {
				return err
			}
			if err := txn.Delete(revKey(username, from)); err != nil {
				return err
			}
		}
		return txn.Delete(userKey(username))
	})
}

func (s *Store) List(_ context.Context) ([]*entity.User, error) {
	var out []*entity.User
	err := s.view(func(txn *badger.Txn) error {
		var err error
		out, err = listUsers(txn)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func listUsers(txn *badger.Txn) ([]*entity.User, error) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(userPrefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	var out []*entity.User
	for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
		var rec userRecord
		if err := it.Item().Value(func(val []byte) error { return json.Unmarshal(val, &rec) }); err != nil {
			return nil, err
		}
		out = append(out, rec.toEntity())
	}
	return out, nil
}

func requireUsers(txn *badger.Txn, usernames ...string) error {
	for _, name := range usernames {
		found, err := exists(txn, userKey(name))
		if err != nil {
			return err
		}
		if !found {
			return notFound(name)
		}
	}
	return nil
}

func (s *Store) AddEdge(_ context.Context, follower, followed string) (bool, error) {
	created := false
	err := s.update(func(txn *badger.Txn) error {
		created = false
		if err := requireUsers(txn, follower, followed); err != nil {
			return err
		}
		found, err := exists(txn, fwdKey(follower, followed))
		if err != nil || found {
			return err
		}
		ts := make([]byte, 8)
		binary.BigEndian.PutUint64(ts, uint64(s.now().UnixNano()))
		if err := txn.Set(fwdKey(follower, followed), ts); err != nil {
			return err
		}
		if err := txn.Set(revKey(followed, follower), nil); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

func (s *Store) RemoveEdge(_ context.Context, follower, followed string) (bool, error) {
	removed := false
	err := s.update(func(txn *badger.Txn) error {
		removed = false
		if err := requireUsers(txn, follower, followed); err != nil {
			return err
		}
		found, err := exists(txn, fwdKey(follower, followed))
		if err != nil || !found {
			return err
		}
		if err := txn.Delete(fwdKey(follower, followed)); err != nil {
			return err
		}
		if err := txn.Delete(revKey(followed, follower)); err != nil {
			return err
		}
		removed = true
		return nil
	})
	return removed, err
}

func (s *Store) HasEdge(_ context.Context, follower, followed string) (bool, error) {
	var has bool
	err := s.view(func(txn *badger.Txn) error {
		if err := requireUsers(txn, follower, followed); err != nil {
			return err
		}
		var err error
		has, err = exists(txn, fwdKey(follower, followed))
		return err
	})
	return has, err
}

func (s *Store) Following(_ context.Context, username string) ([]string, error) {
	return s.neighbours(fwdPrefix, username)
}

func (s *Store) Followers(_ context.Context, username string) ([]string, error) {
	return s.neighbours(revPrefix, username)
}

func (s *Store) neighbours(prefix, username string) ([]string, error) {
	var out []string
	err := s.view(func(txn *badger.Txn) error {
		if err := requireUsers(txn, username); err != nil {
			return err
		}
		out = scanKeys(txn, []byte(prefix+username+sep))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) InDegrees(_ context.Context) (map[string]int, error) {
	var out map[string]int
	err := s.view(func(txn *badger.Txn) error {
		out = inDegrees(txn)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func inDegrees(txn *badger.Txn) map[string]int {
	out := make(map[string]int)
	for _, suffix := range scanKeys(txn, []byte(revPrefix)) {
		to, _, _ := strings.Cut(suffix, sep)
		out[to]++
	}
	return out
}

// UsersWithInDegrees reads users and reverse edges inside one read txn.
func (s *Store) UsersWithInDegrees(_ context.Context) ([]*entity.User, map[string]int, error) {
	var (
		users   []*entity.User
		degrees map[string]int
	)
	err := s.view(func(txn *badger.Txn) error {
		var err error
		if users, err = listUsers(txn); err != nil {
			return err
		}
		degrees = inDegrees(txn)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return users, degrees, nil
}

func (s *Store) Edges(_ context.Context) ([]entity.Follow, error) {
	var out []entity.Follow
	err := s.view(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(fwdPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			item := it.Item()
			from, to, _ := strings.Cut(string(bytes.TrimPrefix(item.Key(), opts.Prefix)), sep)
			edge := entity.Follow{Follower: from, Followed: to}
			if err := item.Value(func(val []byte) error {
				if len(val) == 8 {
					edge.CreatedAt = time.Unix(0, int64(binary.BigEndian.Uint64(val))).UTC()
				}
				return nil
			}); err != nil {
				return err
			}
			out = append(out, edge)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

var _ repository.Store = (*Store)(nil)
