package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/domain"
	"github.com/oksasatya/go-social-graph/pkg/response"
)

// defaultN is used when a ?n= parameter is missing, malformed or not positive.
const defaultN = 10

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "username already taken"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid argument"
	case errors.Is(err, domain.ErrNoCandidates):
		return http.StatusNotFound, "no recommendations available"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store unavailable"
	}
	return http.StatusInternalServerError, "internal error"
}

// respondError maps an engine error onto the response envelope. Server-side
// failures are logged; client errors carry the error text as detail.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"path":       c.FullPath(),
		}).Error("request failed")
		response.Error[any](c, status, msg, nil)
		return
	}
	response.Error[any](c, status, msg, err.Error())
}

func parseN(c *gin.Context) int {
	n, err := strconv.Atoi(c.Query("n"))
	if err != nil || n <= 0 {
		return defaultN
	}
	return n
}
