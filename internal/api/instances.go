package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/umig/internal/ports/primary"
)

func (s *Server) listPlans(c *gin.Context) {
	var filters primary.PlanInstanceFilters
	if !s.bindQuery(c, &filters) {
		return
	}
	plans, err := s.services.Instances.ListPlans(c.Request.Context(), filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) listSequences(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("includeDeleted"))
	sequences, err := s.services.Instances.ListSequences(c.Request.Context(), c.Param("id"), includeDeleted)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sequences)
}

func (s *Server) listPhases(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("includeDeleted"))
	phases, err := s.services.Instances.ListPhases(c.Request.Context(), c.Param("id"), includeDeleted)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, phases)
}

func (s *Server) listSteps(c *gin.Context) {
	var filters primary.StepFilters
	if !s.bindQuery(c, &filters) {
		return
	}
	steps, err := s.services.Instances.ListSteps(c.Request.Context(), filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, steps)
}

func (s *Server) updateStatus(c *gin.Context) {
	var req primary.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.Level = c.Param("level")
	req.ID = c.Param("id")
	if err := s.services.Instances.UpdateStatus(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bulkUpdateStatus answers 200 with per-row failures; only a rolled-back
// batch is an error response.
func (s *Server) bulkUpdateStatus(c *gin.Context) {
	var req primary.BulkStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := s.services.Instances.BulkUpdateStatus(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) deleteInstance(c *gin.Context) {
	if err := s.services.Instances.Delete(c.Request.Context(), c.Param("level"), deleteRequest(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) restoreInstance(c *gin.Context) {
	if err := s.services.Instances.Restore(c.Request.Context(), c.Param("level"), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
