package handlers

import (
	"bytes"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-social-graph/internal/application"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
	"github.com/oksasatya/go-social-graph/pkg/response"
)

// AdminHandler exports graph snapshots. With a GCS client and bucket the
// snapshot is uploaded; otherwise it is returned inline.
type AdminHandler struct {
	Svc    *application.Service
	GCS    *storage.Client
	Bucket string
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.Service, gcs *storage.Client, bucket string, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, GCS: gcs, Bucket: bucket, Logger: logger}
}

func (h *AdminHandler) Snapshot(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.Svc.ExportSnapshot(c.Request.Context(), &buf); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if h.GCS == nil || h.Bucket == "" {
		c.Data(http.StatusOK, "application/json", buf.Bytes())
		return
	}

	path := helpers.SnapshotObjectPath(time.Now())
	uri, err := helpers.UploadObject(c.Request.Context(), h.GCS, h.Bucket, path, "application/json", &buf)
	if err != nil {
		h.Logger.WithError(err).WithField("object", path).Error("snapshot upload failed")
		response.Error[any](c, http.StatusBadGateway, "snapshot upload failed", nil)
		return
	}
	h.Logger.WithField("uri", uri).Info("snapshot uploaded")
	response.Success[any](c, http.StatusCreated, map[string]any{"uri": uri}, "snapshot uploaded", nil)
}
