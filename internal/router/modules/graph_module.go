package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-social-graph/internal/interface/http"
	"github.com/oksasatya/go-social-graph/internal/interface/middleware"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// GraphModule wires follow edges, traversal and recommendations. All routes
// are protected.
type GraphModule struct {
	Handler *handlers.GraphHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewGraphModule(h *handlers.GraphHandler, jwt *helpers.JWTManager, rdb *redis.Client) *GraphModule {
	return &GraphModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *GraphModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Redis, m.JWT))
	auth.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUser(), nil))
	{
		auth.GET("/users/:username/followers", m.Handler.Followers)
		auth.GET("/users/:username/following", m.Handler.Following)
		auth.GET("/users/:username/mutuals", m.Handler.Mutuals)
		auth.GET("/users/:username/also-followed-by", m.Handler.AlsoFollowedBy)
		auth.GET("/users/:username/relationship", m.Handler.Relationship)
		auth.POST("/users/:username/follow", m.Handler.Follow)
		auth.DELETE("/users/:username/follow", m.Handler.Unfollow)
		auth.DELETE("/followers/:username", m.Handler.RemoveFollower)
	}

	// Recommendation walks are the most expensive reads.
	recLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByUser(), nil)
	auth.GET("/recommendations", recLimiter, m.Handler.Recommendations)
}
