package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/memory"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/search"
	"github.com/oksasatya/go-social-graph/internal/interface/middleware"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
	"github.com/oksasatya/go-social-graph/pkg/validation"
)

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Meta    map[string]any  `json:"meta"`
	Error   json.RawMessage `json:"error"`
}

type listData struct {
	Users []struct {
		Username      string `json:"username"`
		Email         string `json:"email"`
		FollowerCount int    `json:"follower_count"`
		Score         int64  `json:"score"`
	} `json:"users"`
}

func (l listData) names() []string {
	out := make([]string, 0, len(l.Users))
	for _, u := range l.Users {
		out = append(out, u.Username)
	}
	return out
}

type testAPI struct {
	engine *gin.Engine
	graph  *application.Service
	jwt    *helpers.JWTManager
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	store := memory.NewStore()
	logger := helpers.NewDiscardLogger()
	graph := application.NewService(store, search.NewScanIndex(store), nil, logger)
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 24*time.Hour)
	sessions := application.NewSessionService(graph, jwt, nil, logger)

	authH := NewAuthHandler(graph, sessions, logger, "", false)
	userH := NewUserHandler(graph, sessions, logger, "", false)
	graphH := NewGraphHandler(graph, logger)
	adminH := NewAdminHandler(graph, nil, "", logger)

	r := gin.New()
	r.Use(middleware.RequestIDMiddleware())
	api := r.Group("/api")
	api.POST("/register", authH.Register)
	api.POST("/login", authH.Login)
	api.POST("/refresh", authH.Refresh)

	auth := api.Group("/")
	auth.Use(middleware.Auth(nil, jwt))
	auth.POST("/logout", authH.Logout)
	auth.GET("/profile", userH.GetProfile)
	auth.PUT("/profile", userH.UpdateProfile)
	auth.DELETE("/profile", userH.DeleteProfile)
	auth.GET("/users/search", userH.Search)
	auth.GET("/users/popular", userH.Popular)
	auth.GET("/users/:username", userH.GetUser)
	auth.GET("/users/:username/followers", graphH.Followers)
	auth.GET("/users/:username/following", graphH.Following)
	auth.GET("/users/:username/mutuals", graphH.Mutuals)
	auth.GET("/users/:username/also-followed-by", graphH.AlsoFollowedBy)
	auth.GET("/users/:username/relationship", graphH.Relationship)
	auth.POST("/users/:username/follow", graphH.Follow)
	auth.DELETE("/users/:username/follow", graphH.Unfollow)
	auth.DELETE("/followers/:username", graphH.RemoveFollower)
	auth.GET("/recommendations", graphH.Recommendations)
	auth.POST("/admin/snapshot", adminH.Snapshot)

	return &testAPI{engine: r, graph: graph, jwt: jwt}
}

func (a *testAPI) do(t *testing.T, method, path, as string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		tok, _, err := a.jwt.GenerateAccessToken(as, "test-session")
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if w.Header().Get("Content-Type") == "application/json; charset=utf-8" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func (a *testAPI) register(t *testing.T, usernames ...string) {
	t.Helper()
	for _, u := range usernames {
		w, _ := a.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"username": u,
			"name":     u + " name",
			"email":    u + "@example.com",
			"password": "pw-" + u,
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func (a *testAPI) seedScenario(t *testing.T) {
	t.Helper()
	a.register(t, "alice", "bob", "carol", "dave")
	for _, e := range [][2]string{{"alice", "bob"}, {"bob", "carol"}, {"bob", "dave"}, {"carol", "dave"}} {
		w, _ := a.do(t, http.MethodPost, "/api/users/"+e[1]+"/follow", e[0], nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}
}

func decodeList(t *testing.T, env envelope) listData {
	t.Helper()
	var l listData
	require.NoError(t, json.Unmarshal(env.Data, &l))
	return l
}

func TestRegister(t *testing.T) {
	a := newTestAPI(t)
	a.register(t, "alice")

	w, env := a.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "name": "Again", "email": "a@example.com", "password": "pw",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, env.Success)

	w, env = a.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "has space", "name": "X", "email": "nope", "password": "pw",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var details map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &details))
	assert.Contains(t, details, "username")
	assert.Contains(t, details, "email")
}

func TestRegister_NeverRendersPassword(t *testing.T) {
	a := newTestAPI(t)
	w, _ := a.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice", "name": "Alice", "email": "alice@example.com", "password": "s3cret",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotContains(t, w.Body.String(), "s3cret")
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t)
	a.register(t, "alice")

	w, env := a.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "pw-alice"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	cookies := map[string]bool{}
	for _, c := range w.Result().Cookies() {
		cookies[c.Name] = c.Value != ""
	}
	assert.True(t, cookies[helpers.AccessCookie])
	assert.True(t, cookies[helpers.RefreshCookie])

	w, _ = a.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = a.do(t, http.MethodPost, "/api/login", "", map[string]string{"username": "nobody", "password": "pw"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRefresh_RequiresCookie(t *testing.T) {
	a := newTestAPI(t)
	w, _ := a.do(t, http.MethodPost, "/api/refresh", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	a := newTestAPI(t)
	w, env := a.do(t, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "missing access token", env.Message)
}

func TestProfile(t *testing.T) {
	a := newTestAPI(t)
	a.register(t, "alice")

	w, env := a.do(t, http.MethodGet, "/api/profile", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "alice@example.com", p["email"])

	w, env = a.do(t, http.MethodPut, "/api/profile", "alice", map[string]string{"bio": "hello", "name": ""})
	require.Equal(t, http.StatusOK, w.Code)
	p = map[string]any{}
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "hello", p["bio"])
	assert.Equal(t, "alice name", p["name"])

	// Other users see no email.
	a.register(t, "bob")
	w, env = a.do(t, http.MethodGet, "/api/users/alice", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var public map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &public))
	assert.Equal(t, "alice", public["username"])
	assert.NotContains(t, public, "email")

	w, _ = a.do(t, http.MethodGet, "/api/users/nobody", "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProfile(t *testing.T) {
	a := newTestAPI(t)
	a.seedScenario(t)

	w, _ := a.do(t, http.MethodDelete, "/api/profile", "dave", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, env := a.do(t, http.MethodGet, "/api/users/bob/following", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"carol"}, decodeList(t, env).names())
}

func TestScenarioOverHTTP(t *testing.T) {
	a := newTestAPI(t)
	a.seedScenario(t)

	_, env := a.do(t, http.MethodGet, "/api/users/dave/followers", "alice", nil)
	assert.Equal(t, []string{"bob", "carol"}, decodeList(t, env).names())

	_, env = a.do(t, http.MethodGet, "/api/users/alice/following", "alice", nil)
	assert.Equal(t, []string{"bob"}, decodeList(t, env).names())

	_, env = a.do(t, http.MethodGet, "/api/users/carol/mutuals", "bob", nil)
	assert.Equal(t, []string{"dave"}, decodeList(t, env).names())

	_, env = a.do(t, http.MethodGet, "/api/users/dave/also-followed-by", "bob", nil)
	assert.Equal(t, []string{"carol"}, decodeList(t, env).names())

	w, env := a.do(t, http.MethodGet, "/api/recommendations?n=2", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs := decodeList(t, env)
	assert.Equal(t, []string{"carol", "dave"}, recs.names())
	assert.Equal(t, int64(1), recs.Users[0].Score)
	assert.Equal(t, int64(1), recs.Users[1].Score)

	_, env = a.do(t, http.MethodGet, "/api/users/popular?n=1", "alice", nil)
	top := decodeList(t, env)
	require.Len(t, top.Users, 1)
	assert.Equal(t, "dave", top.Users[0].Username)
	assert.Equal(t, 2, top.Users[0].FollowerCount)
	assert.Empty(t, top.Users[0].Email)
}

func TestPopular_ClampsN(t *testing.T) {
	a := newTestAPI(t)
	a.seedScenario(t)

	for _, q := range []string{"", "?n=abc", "?n=0", "?n=-3"} {
		w, env := a.do(t, http.MethodGet, "/api/users/popular"+q, "alice", nil)
		require.Equal(t, http.StatusOK, w.Code, q)
		assert.EqualValues(t, defaultN, env.Meta["n"], q)
		assert.Len(t, decodeList(t, env).Users, 4, q)
	}
}

func TestRecommendations_NoCandidates(t *testing.T) {
	a := newTestAPI(t)
	a.seedScenario(t)

	w, env := a.do(t, http.MethodGet, "/api/recommendations", "dave", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "no recommendations available", env.Message)
}

func TestFollowLifecycle(t *testing.T) {
	a := newTestAPI(t)
	a.register(t, "alice", "bob")

	w, _ := a.do(t, http.MethodPost, "/api/users/bob/follow", "alice", nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	w, env := a.do(t, http.MethodPost, "/api/users/bob/follow", "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "already following", env.Message)

	w, _ = a.do(t, http.MethodPost, "/api/users/ghost/follow", "alice", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	_, env = a.do(t, http.MethodGet, "/api/users/bob/relationship", "alice", nil)
	var rel map[string]bool
	require.NoError(t, json.Unmarshal(env.Data, &rel))
	assert.Equal(t, map[string]bool{"following": true, "followed_by": false}, rel)

	// bob drops alice as a follower
	w, env = a.do(t, http.MethodDelete, "/api/followers/alice", "bob", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var removed map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &removed))
	assert.Equal(t, true, removed["removed"])

	w, env = a.do(t, http.MethodDelete, "/api/users/bob/follow", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &removed))
	assert.Equal(t, false, removed["removed"])
}

func TestSearch(t *testing.T) {
	a := newTestAPI(t)
	a.register(t, "alice", "carol", "dave")

	w, env := a.do(t, http.MethodGet, "/api/users/search?q=ar", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"carol"}, decodeList(t, env).names())

	_, env = a.do(t, http.MethodGet, "/api/users/search?q=zzz", "alice", nil)
	assert.Empty(t, decodeList(t, env).Users)
}

func TestSnapshot_Inline(t *testing.T) {
	a := newTestAPI(t)
	a.seedScenario(t)

	w, _ := a.do(t, http.MethodPost, "/api/admin/snapshot", "alice", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var snap struct {
		Users []map[string]any `json:"users"`
		Edges []map[string]any `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Len(t, snap.Users, 4)
	assert.Len(t, snap.Edges, 4)
	assert.NotContains(t, w.Body.String(), "password")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("get x: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrConflict, http.StatusConflict},
		{domain.ErrInvalidCredentials, http.StatusUnauthorized},
		{domain.ErrInvalidArgument, http.StatusBadRequest},
		{domain.ErrNoCandidates, http.StatusNotFound},
		{fmt.Errorf("badger: %w", domain.ErrStoreUnavailable), http.StatusServiceUnavailable},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		got, _ := statusFor(tc.err)
		assert.Equal(t, tc.want, got, tc.err.Error())
	}
}
