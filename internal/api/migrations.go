package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/umig/internal/ports/primary"
)

// deleteRequest reads the row id and the ?hard flag.
func deleteRequest(c *gin.Context) primary.DeleteRequest {
	hard, _ := strconv.ParseBool(c.Query("hard"))
	return primary.DeleteRequest{ID: c.Param("id"), Hard: hard}
}

func (s *Server) listMigrations(c *gin.Context) {
	var filters primary.MigrationFilters
	if !s.bindQuery(c, &filters) {
		return
	}
	migrations, err := s.services.Migrations.ListMigrations(c.Request.Context(), filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, migrations)
}

func (s *Server) createMigration(c *gin.Context) {
	var req primary.CreateMigrationRequest
	if !bindJSON(c, &req) {
		return
	}
	migration, err := s.services.Migrations.CreateMigration(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, migration)
}

func (s *Server) getMigration(c *gin.Context) {
	migration, err := s.services.Migrations.GetMigration(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, migration)
}

func (s *Server) updateMigration(c *gin.Context) {
	var req primary.UpdateMigrationRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = c.Param("id")
	if err := s.services.Migrations.UpdateMigration(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteMigration(c *gin.Context) {
	if err := s.services.Migrations.DeleteMigration(c.Request.Context(), deleteRequest(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listIterations(c *gin.Context) {
	var filters primary.IterationFilters
	if !s.bindQuery(c, &filters) {
		return
	}
	iterations, err := s.services.Migrations.ListIterations(c.Request.Context(), filters)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, iterations)
}

func (s *Server) createIteration(c *gin.Context) {
	var req primary.CreateIterationRequest
	if !bindJSON(c, &req) {
		return
	}
	iteration, err := s.services.Migrations.CreateIteration(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, iteration)
}

func (s *Server) getIteration(c *gin.Context) {
	iteration, err := s.services.Migrations.GetIteration(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, iteration)
}

func (s *Server) updateIteration(c *gin.Context) {
	var req primary.UpdateIterationRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = c.Param("id")
	if err := s.services.Migrations.UpdateIteration(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deleteIteration(c *gin.Context) {
	if err := s.services.Migrations.DeleteIteration(c.Request.Context(), deleteRequest(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
