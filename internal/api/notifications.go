package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/umig/internal/core/notification"
	"github.com/example/umig/internal/ports/primary"
)

// previewQuery selects the notification type and status pair to preview.
type previewQuery struct {
	Type           string `form:"type" validate:"omitempty,alpha_underscore"`
	PreviousStatus string `form:"previousStatus"`
	NewStatus      string `form:"newStatus"`
}

func (s *Server) listOutbox(c *gin.Context) {
	var filters primary.OutboxFilters
	if !s.bindQuery(c, &filters) {
		return
	}
	entries, err := s.services.Notifications.ListOutbox(c.Request.Context(), filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (s *Server) dispatchOutbox(c *gin.Context) {
	result, err := s.services.Notifications.DispatchPending(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) previewNotification(c *gin.Context) {
	var q previewQuery
	if !s.bindQuery(c, &q) {
		return
	}
	typ := strings.ToUpper(q.Type)
	if typ == "" {
		typ = string(notification.TypeStatusChanged)
	}
	preview, err := s.services.Notifications.PreviewVariables(c.Request.Context(), primary.NotifyRequest{
		StepID:         c.Param("id"),
		Type:           typ,
		PreviousStatus: q.PreviousStatus,
		NewStatus:      q.NewStatus,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// exportOutbox streams the outbox as JSON or CSV.
func (s *Server) exportOutbox(c *gin.Context) {
	var req primary.ExportRequest
	if !s.bindQuery(c, &req) {
		return
	}
	if !s.bindQuery(c, &req.Filters) {
		return
	}
	if req.Format == "" {
		req.Format = primary.ExportJSON
	}

	contentType := "application/json"
	if req.Format == primary.ExportCSV {
		contentType = "text/csv; charset=utf-8"
		c.Header("Content-Disposition", `attachment; filename="emails.csv"`)
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)

	if _, err := s.services.Debug.ExportEmails(c.Request.Context(), c.Writer, req); err != nil {
		if c.Writer.Written() {
			s.logger.Error("export interrupted", zap.Error(err))
			return
		}
		c.Writer.Header().Del("Content-Type")
		c.Writer.Header().Del("Content-Disposition")
		s.respondError(c, err)
	}
}
