package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/interface/middleware"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
	"github.com/oksasatya/go-social-graph/pkg/response"
	"github.com/oksasatya/go-social-graph/pkg/validation"
)

type UserHandler struct {
	Svc      *application.Service
	Sessions *application.SessionService
	Logger   *logrus.Logger
	Cookies  *helpers.Manager
}

func NewUserHandler(svc *application.Service, sessions *application.SessionService, logger *logrus.Logger, cookieDomain string, cookieSecure bool) *UserHandler {
	return &UserHandler{Svc: svc, Sessions: sessions, Logger: logger, Cookies: helpers.NewCookie(cookieDomain, cookieSecure)}
}

// Empty fields are left unchanged.
type updateProfileRequest struct {
	Name  *string `json:"name" binding:"omitempty,max=128"`
	Email *string `json:"email" binding:"omitempty,email"`
	Bio   *string `json:"bio" binding:"omitempty,max=512"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u, err := h.Svc.FindByUsername(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfileView(u), "profile fetched", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateFields(c.Request.Context(), middleware.CurrentUser(c), entity.UserPatch{
		Name:  req.Name,
		Email: req.Email,
		Bio:   req.Bio,
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toProfileView(u), "profile updated", nil)
}

// DeleteProfile removes the current user with all their edges and ends the session.
func (h *UserHandler) DeleteProfile(c *gin.Context) {
	me := middleware.CurrentUser(c)
	if err := h.Svc.DeleteUser(c.Request.Context(), me); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	h.Sessions.Logout(c.Request.Context(), me)
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": me}, "profile deleted", nil)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.Svc.FindByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toUserView(u), "user fetched", nil)
}

// Search matches ?q= as a case-sensitive substring of username or name.
// An empty query lists everyone.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	users, err := h.Svc.Search(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": toUserViews(users)}, "search results", map[string]any{"query": q, "count": len(users)})
}

func (h *UserHandler) Popular(c *gin.Context) {
	n := parseN(c)
	ranked, err := h.Svc.TopByFollowerCount(c.Request.Context(), n)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"users": toRankedViews(ranked)}, "popular users", map[string]any{"n": n})
}
