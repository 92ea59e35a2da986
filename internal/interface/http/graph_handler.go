package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/interface/middleware"
	"github.com/oksasatya/go-social-graph/pkg/response"
)

// GraphHandler serves traversal, follow edges and recommendations. Pairwise
// routes are relative to the authenticated user: /users/:username/mutuals is
// Mutuals(me, username).
type GraphHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewGraphHandler(svc *application.Service, logger *logrus.Logger) *GraphHandler {
	return &GraphHandler{Svc: svc, Logger: logger}
}

type listFunc func(ctx context.Context, username string) ([]*entity.User, error)
type pairFunc func(ctx context.Context, a, b string) ([]*entity.User, error)

func (h *GraphHandler) list(c *gin.Context, fn listFunc, msg string) {
	users, err := fn(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": toUserViews(users)}, msg, map[string]any{"count": len(users)})
}

func (h *GraphHandler) pair(c *gin.Context, fn pairFunc, msg string) {
	users, err := fn(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": toUserViews(users)}, msg, map[string]any{"count": len(users)})
}

func (h *GraphHandler) Followers(c *gin.Context) { h.list(c, h.Svc.Followers, "followers") }
func (h *GraphHandler) Following(c *gin.Context) { h.list(c, h.Svc.Following, "following") }
func (h *GraphHandler) Mutuals(c *gin.Context)   { h.pair(c, h.Svc.Mutuals, "mutual connections") }

func (h *GraphHandler) AlsoFollowedBy(c *gin.Context) {
	h.pair(c, h.Svc.AlsoFollowedBy, "people you follow who follow them")
}

func (h *GraphHandler) Relationship(c *gin.Context) {
	rel, err := h.Svc.Relationship(c.Request.Context(), middleware.CurrentUser(c), c.Param("username"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, rel, "relationship", nil)
}

// Follow answers 201 when a new edge was created and 200 when it already existed.
func (h *GraphHandler) Follow(c *gin.Context) {
	target := c.Param("username")
	created, err := h.Svc.Follow(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	status, msg := http.StatusOK, "already following"
	if created {
		status, msg = http.StatusCreated, "followed"
	}
	response.Success[any](c, status, map[string]any{"following": target, "created": created}, msg, nil)
}

func (h *GraphHandler) Unfollow(c *gin.Context) {
	target := c.Param("username")
	removed, err := h.Svc.Unfollow(c.Request.Context(), middleware.CurrentUser(c), target)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"unfollowed": target, "removed": removed}, "unfollowed", nil)
}

// RemoveFollower drops the edge :username -> me.
func (h *GraphHandler) RemoveFollower(c *gin.Context) {
	follower := c.Param("username")
	removed, err := h.Svc.RemoveFollower(c.Request.Context(), middleware.CurrentUser(c), follower)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"follower": follower, "removed": removed}, "follower removed", nil)
}

func (h *GraphHandler) Recommendations(c *gin.Context) {
	n := parseN(c)
	recs, err := h.Svc.Recommend(c.Request.Context(), middleware.CurrentUser(c), n)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": toRecommendationViews(recs)}, "recommendations", map[string]any{"n": n})
}
