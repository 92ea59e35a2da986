package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	handlers "github.com/oksasatya/go-social-graph/internal/interface/http"
	"github.com/oksasatya/go-social-graph/internal/interface/middleware"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

// DebugModule exposes Prometheus metrics and the snapshot export.
type DebugModule struct {
	Admin   *handlers.AdminHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
	Metrics bool
}

func NewDebugModule(admin *handlers.AdminHandler, jwt *helpers.JWTManager, rdb *redis.Client, metricsEnabled bool) *DebugModule {
	return &DebugModule{Admin: admin, JWT: jwt, Redis: rdb, Metrics: metricsEnabled}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	if m.Metrics {
		// rate-limited per IP; private networks (scrapers) bypass
		rl := middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByIP(), middleware.AllowPrivateIP())
		rg.GET("/metrics", rl, gin.WrapH(promhttp.Handler()))
	}

	admin := rg.Group("/admin")
	admin.Use(middleware.Auth(m.Redis, m.JWT))
	admin.Use(middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByUser(), nil))
	{
		admin.POST("/snapshot", m.Admin.Snapshot)
	}
}
