package router

import (
	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/container"
	handlers "github.com/oksasatya/go-social-graph/internal/interface/http"
	"github.com/oksasatya/go-social-graph/internal/router/modules"
)

// Deps holds the engine services and handlers shared by the modules.
type Deps struct {
	Graph    *application.Service
	Sessions *application.SessionService
	Auth     *handlers.AuthHandler
	Users    *handlers.UserHandler
	Edges    *handlers.GraphHandler
	Admin    *handlers.AdminHandler
}

// BuildDeps wires services and handlers from the container. The store and
// search index must have been set.
func BuildDeps() Deps {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	graph := application.NewService(container.GetStore(), container.GetSearch(), container.GetPublisher(), logger)
	sessions := application.NewSessionService(graph, container.GetJWT(), container.GetRedis(), logger)

	return Deps{
		Graph:    graph,
		Sessions: sessions,
		Auth:     handlers.NewAuthHandler(graph, sessions, logger, cfg.CookieDomain, cfg.CookieSecure),
		Users:    handlers.NewUserHandler(graph, sessions, logger, cfg.CookieDomain, cfg.CookieSecure),
		Edges:    handlers.NewGraphHandler(graph, logger),
		Admin:    handlers.NewAdminHandler(graph, container.GetGCS(), cfg.GCSBucket, logger),
	}
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) Deps {
	deps := BuildDeps()
	jwt := container.GetJWT()
	rdb := container.GetRedis()

	r.Add(
		modules.NewAuthModule(deps.Auth, jwt, rdb),
		modules.NewUserModule(deps.Users, jwt, rdb),
		modules.NewGraphModule(deps.Edges, jwt, rdb),
		modules.NewDebugModule(deps.Admin, jwt, rdb, container.GetConfig().MetricsEnabled),
	)
	return deps
}
