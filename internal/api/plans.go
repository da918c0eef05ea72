package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/example/umig/internal/ports/primary"
)

func (s *Server) listPlanMasters(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("includeDeleted"))
	plans, err := s.services.Plans.ListPlanMasters(c.Request.Context(), includeDeleted)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (s *Server) createPlanMaster(c *gin.Context) {
	var req primary.CreatePlanMasterRequest
	if !bindJSON(c, &req) {
		return
	}
	plan, err := s.services.Plans.CreatePlanMaster(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, plan)
}

func (s *Server) getPlanMaster(c *gin.Context) {
	plan, err := s.services.Plans.GetPlanMaster(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) updatePlanMaster(c *gin.Context) {
	var req primary.UpdatePlanMasterRequest
	if !bindJSON(c, &req) {
		return
	}
	req.ID = c.Param("id")
	if err := s.services.Plans.UpdatePlanMaster(c.Request.Context(), req); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) deletePlanMaster(c *gin.Context) {
	if err := s.services.Plans.DeletePlanMaster(c.Request.Context(), deleteRequest(c)); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) getPlanTemplate(c *gin.Context) {
	tree, err := s.services.Plans.GetPlanTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

func (s *Server) instantiatePlan(c *gin.Context) {
	var req primary.InstantiatePlanRequest
	if !bindJSON(c, &req) {
		return
	}
	req.PlanMasterID = c.Param("id")
	resp, err := s.services.Plans.InstantiatePlan(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (s *Server) addSequence(c *gin.Context) {
	var req primary.AddSequenceRequest
	if !bindJSON(c, &req) {
		return
	}
	seq, err := s.services.Plans.AddSequence(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, seq)
}

func (s *Server) addPhase(c *gin.Context) {
	var req primary.AddPhaseRequest
	if !bindJSON(c, &req) {
		return
	}
	phase, err := s.services.Plans.AddPhase(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, phase)
}

func (s *Server) addStep(c *gin.Context) {
	var req primary.AddStepRequest
	if !bindJSON(c, &req) {
		return
	}
	step, err := s.services.Plans.AddStep(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, step)
}

func (s *Server) addInstruction(c *gin.Context) {
	var req primary.AddInstructionRequest
	if !bindJSON(c, &req) {
		return
	}
	instruction, err := s.services.Plans.AddInstruction(c.Request.Context(), req)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, instruction)
}
