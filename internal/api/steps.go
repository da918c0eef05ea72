package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/umig/internal/dberr"
	"github.com/example/umig/internal/ports/primary"
)

type commentBody struct {
	Body string `json:"body" binding:"required"`
}

type assignTeamBody struct {
	TeamID string `json:"teamId" binding:"required"`
}

// commentID parses the numeric :id path segment.
func commentID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, dberr.Validation("comment id %q is not a number", c.Param("id"))
	}
	return id, nil
}

func (s *Server) getStepDetails(c *gin.Context) {
	details, err := s.services.Steps.GetStepDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) changeStepStatus(c *gin.Context) {
	var req primary.ChangeStepStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StepID = c.Param("id")
	if err := s.services.Steps.ChangeStatus(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) openStep(c *gin.Context) {
	if err := s.services.Steps.OpenStep(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) assignTeam(c *gin.Context) {
	var body assignTeamBody
	if !bindJSON(c, &body) {
		return
	}
	if err := s.services.Steps.AssignTeam(c.Request.Context(), c.Param("id"), body.TeamID); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addComment(c *gin.Context) {
	var req primary.AddCommentRequest
	if !bindJSON(c, &req) {
		return
	}
	req.StepID = c.Param("id")
	comment, err := s.services.Steps.AddComment(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (s *Server) updateComment(c *gin.Context) {
	id, err := commentID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	var body commentBody
	if !bindJSON(c, &body) {
		return
	}
	if err := s.services.Steps.UpdateComment(c.Request.Context(), id, body.Body); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteComment(c *gin.Context) {
	id, err := commentID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.services.Steps.DeleteComment(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) completeInstruction(c *gin.Context) {
	if err := s.services.Steps.CompleteInstruction(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) uncompleteInstruction(c *gin.Context) {
	if err := s.services.Steps.UncompleteInstruction(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
