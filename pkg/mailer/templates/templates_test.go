package templates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/config"
)

func testConfig() *config.Config {
	return &config.Config{AppName: "Graph", CompanyName: "Graph Inc", ProfileURLBase: "https://graph.test/users/"}
}

func TestRender_NewFollower(t *testing.T) {
	data := NewFollowerData(testConfig(), "Dave", "dave@example.com", "bob", "Bob Builder",
		WithTime(time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)))

	subject, text, html, err := Render(NewFollower, data)
	require.NoError(t, err)
	assert.Equal(t, "Bob Builder started following you on Graph", subject)
	assert.Contains(t, text, "Hi Dave,")
	assert.Contains(t, text, "(@bob)")
	assert.Contains(t, text, "https://graph.test/users/bob")
	assert.Contains(t, text, "01 March 2026, 09:30")
	assert.Contains(t, html, `href="https://graph.test/users/bob"`)
}

func TestRender_NewFollowerFallsBackToUsername(t *testing.T) {
	data := NewFollowerData(&config.Config{}, "", "dave@example.com", "bob", "")

	subject, text, _, err := Render(NewFollower, data)
	require.NoError(t, err)
	assert.Equal(t, "bob started following you on the network", subject)
	assert.Contains(t, text, "Hi there,")
}

func TestRender_Welcome(t *testing.T) {
	subject, _, html, err := Render(Welcome, NewWelcomeData(testConfig(), "Alice", "alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Graph, Alice", subject)
	assert.Contains(t, html, "Graph Inc")
}

func TestRender_UnknownTemplate(t *testing.T) {
	_, _, _, err := Render("nope", map[string]any{})
	assert.Error(t, err)
}

func TestDefaultFn(t *testing.T) {
	assert.Equal(t, "x", defaultFn("x", ""))
	assert.Equal(t, "x", defaultFn("x", nil))
	assert.Equal(t, "x", defaultFn("x", 0))
	assert.Equal(t, "v", defaultFn("x", "v"))
	assert.Equal(t, 3, defaultFn("x", 3))
}
