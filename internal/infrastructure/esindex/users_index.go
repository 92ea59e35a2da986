// Package esindex keeps a secondary user search index in Elasticsearch.
//
// Both searchable fields are mapped as keyword so wildcard queries match raw,
// case-sensitive substrings, the same contract as the store scan.
package esindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/domain/repository"
)

// defaultPageSize stays well under index.max_result_window; Search pages
// through larger result sets with search_after on username.
const defaultPageSize = 1000

const mapping = `{
  "mappings": {
    "properties": {
      "username":   {"type": "keyword"},
      "name":       {"type": "keyword"},
      "created_at": {"type": "date"}
    }
  }
}`

type UsersIndex struct {
	es       *elasticsearch.Client
	index    string
	timeout  time.Duration
	pageSize int
	logger   *logrus.Logger
}

func NewUsersIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *UsersIndex {
	return &UsersIndex{es: es, index: index, timeout: 3 * time.Second, pageSize: defaultPageSize, logger: logger}
}

type userDoc struct {
	Username  string `json:"username"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func unavailable(op string, err error) error {
	return fmt.Errorf("es %s: %w: %v", op, domain.ErrStoreUnavailable, err)
}

func responseErr(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
	return fmt.Errorf("es %s: %w: %s %s", op, domain.ErrStoreUnavailable, res.Status(), bytes.TrimSpace(body))
}

// EnsureIndex creates the index with keyword mappings if it does not exist yet.
func (x *UsersIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	res, err := x.es.Indices.Exists([]string{x.index}, x.es.Indices.Exists.WithContext(c))
	if err != nil {
		return unavailable("exists", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = x.es.Indices.Create(x.index,
		x.es.Indices.Create.WithContext(c),
		x.es.Indices.Create.WithBody(strings.NewReader(mapping)),
	)
	if err != nil {
		return unavailable("create index", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseErr("create index", res)
	}
	if x.logger != nil {
		x.logger.WithField("index", x.index).Info("created search index")
	}
	return nil
}

func (x *UsersIndex) Index(ctx context.Context, u *entity.User) error {
	b, err := json.Marshal(userDoc{
		Username:  u.Username,
		Name:      u.Name,
		CreatedAt: u.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: u.Username, Body: bytes.NewReader(b), Refresh: "wait_for"}

	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return unavailable("index", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return responseErr("index", res)
	}
	return nil
}

// Remove deletes the user's document. A missing document is not an error.
func (x *UsersIndex) Remove(ctx context.Context, username string) error {
	req := esapi.DeleteRequest{Index: x.index, DocumentID: username, Refresh: "wait_for"}

	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return unavailable("delete", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseErr("delete", res)
	}
	return nil
}

// escapeWildcard makes query literal inside a wildcard pattern.
func escapeWildcard(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)
	return r.Replace(query)
}

// buildQuery returns one page of the search. after is the last username of
// the previous page, empty for the first one.
func buildQuery(query, after string, size int) map[string]any {
	q := map[string]any{"match_all": map[string]any{}}
	if query != "" {
		pattern := "*" + escapeWildcard(query) + "*"
		should := make([]any, 0, 2)
		for _, field := range []string{"username", "name"} {
			should = append(should, map[string]any{
				"wildcard": map[string]any{
					field: map[string]any{"value": pattern, "case_insensitive": false},
				},
			})
		}
		q = map[string]any{"bool": map[string]any{"should": should, "minimum_should_match": 1}}
	}
	body := map[string]any{
		"query":   q,
		"size":    size,
		"sort":    []any{map[string]any{"username": "asc"}},
		"_source": []string{"username"},
	}
	if after != "" {
		body["search_after"] = []any{after}
	}
	return body
}

// Search matches query as a substring of username or name and returns
// usernames ascending. Results are not capped; pages are fetched until a
// short one comes back.
func (x *UsersIndex) Search(ctx context.Context, query string) ([]string, error) {
	var out []string
	after := ""
	for {
		page, err := x.searchPage(ctx, query, after)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < x.pageSize {
			break
		}
		after = page[len(page)-1]
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (x *UsersIndex) searchPage(ctx context.Context, query, after string) ([]string, error) {
	b, err := json.Marshal(buildQuery(query, after, x.pageSize))
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, x.timeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, unavailable("search", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, responseErr("search", res)
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source userDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, unavailable("decode", err)
	}

	out := make([]string, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source.Username)
	}
	return out, nil
}

var _ repository.SearchIndex = (*UsersIndex)(nil)
