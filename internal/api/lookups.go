package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/umig/internal/ports/primary"
)

func (s *Server) listStatuses(c *gin.Context) {
	statuses, err := s.services.Statuses.ListStatuses(c.Request.Context(), c.Query("entityType"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (s *Server) listTeams(c *gin.Context) {
	teams, err := s.services.Teams.ListTeams(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, teams)
}

func (s *Server) createTeam(c *gin.Context) {
	var req primary.CreateTeamRequest
	if !bindJSON(c, &req) {
		return
	}
	team, err := s.services.Teams.CreateTeam(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, team)
}

func (s *Server) deleteTeam(c *gin.Context) {
	if err := s.services.Teams.DeleteTeam(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.services.Teams.ListUsers(c.Request.Context(), c.Query("teamId"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) listAudit(c *gin.Context) {
	var filters primary.AuditFilters
	if !s.bindQuery(c, &filters) {
		return
	}
	entries, err := s.services.Audit.ListEntries(c.Request.Context(), filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
