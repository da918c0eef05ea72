// Package api exposes the ledger services over a JSON REST API.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/example/umig/internal/ctxutil"
	"github.com/example/umig/internal/logging"
	"github.com/example/umig/internal/metrics"
	"github.com/example/umig/internal/ports/primary"
)

// ActorHeader carries the acting user code.
const ActorHeader = "X-User-Code"

// Services groups the primary ports served by the API. Routes whose
// service is nil are not registered.
type Services struct {
	Migrations    primary.MigrationService
	Plans         primary.PlanService
	Instances     primary.InstanceService
	Steps         primary.StepService
	Notifications primary.NotificationService
	Debug         primary.DebugService
	Statuses      primary.StatusService
	Teams         primary.TeamService
	Audit         primary.AuditService
}

// Server is the HTTP front of the ledger.
type Server struct {
	router   *gin.Engine
	services Services
	validate *validator.Validate
	logger   *zap.Logger
	health   func(ctx context.Context) error
}

// NewServer builds the router. health reports storage health for /healthz
// and may be nil.
func NewServer(services Services, health func(ctx context.Context) error, logger *zap.Logger) *Server {
	s := &Server{
		router:   gin.New(),
		services: services,
		validate: newValidator(),
		logger:   logging.OrNop(logger),
		health:   health,
	}
	s.router.Use(gin.Recovery(), s.observe(), actorFromHeader())
	s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	s.router.GET("/healthz", s.healthz)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v2 := s.router.Group("/api/v2")

	if s.services.Migrations != nil {
		v2.GET("/migrations", s.listMigrations)
		v2.POST("/migrations", s.createMigration)
		v2.GET("/migrations/:id", s.getMigration)
		v2.PUT("/migrations/:id", s.updateMigration)
		v2.DELETE("/migrations/:id", s.deleteMigration)

		v2.GET("/iterations", s.listIterations)
		v2.POST("/iterations", s.createIteration)
		v2.GET("/iterations/:id", s.getIteration)
		v2.PUT("/iterations/:id", s.updateIteration)
		v2.DELETE("/iterations/:id", s.deleteIteration)
	}

	if s.services.Plans != nil {
		v2.GET("/plan-masters", s.listPlanMasters)
		v2.POST("/plan-masters", s.createPlanMaster)
		v2.GET("/plan-masters/:id", s.getPlanMaster)
		v2.PUT("/plan-masters/:id", s.updatePlanMaster)
		v2.DELETE("/plan-masters/:id", s.deletePlanMaster)
		v2.GET("/plan-masters/:id/template", s.getPlanTemplate)
		v2.POST("/plan-masters/:id/instantiate", s.instantiatePlan)
		v2.POST("/sequence-masters", s.addSequence)
		v2.POST("/phase-masters", s.addPhase)
		v2.POST("/step-masters", s.addStep)
		v2.POST("/instruction-masters", s.addInstruction)
	}

	if s.services.Instances != nil {
		v2.GET("/plans", s.listPlans)
		v2.GET("/plans/:id/sequences", s.listSequences)
		v2.GET("/sequences/:id/phases", s.listPhases)
		v2.GET("/steps", s.listSteps)
		v2.PUT("/status/bulk", s.bulkUpdateStatus)
		v2.PUT("/instances/:level/:id/status", s.updateStatus)
		v2.DELETE("/instances/:level/:id", s.deleteInstance)
		v2.POST("/instances/:level/:id/restore", s.restoreInstance)
	}

	if s.services.Steps != nil {
		v2.GET("/steps/:id", s.getStepDetails)
		v2.PUT("/steps/:id/status", s.changeStepStatus)
		v2.POST("/steps/:id/open", s.openStep)
		v2.PUT("/steps/:id/team", s.assignTeam)
		v2.POST("/steps/:id/comments", s.addComment)
		v2.PUT("/comments/:id", s.updateComment)
		v2.DELETE("/comments/:id", s.deleteComment)
		v2.PUT("/instructions/:id/complete", s.completeInstruction)
		v2.PUT("/instructions/:id/uncomplete", s.uncompleteInstruction)
	}

	if s.services.Notifications != nil {
		v2.GET("/outbox", s.listOutbox)
		v2.POST("/outbox/dispatch", s.dispatchOutbox)
		v2.GET("/steps/:id/notification-preview", s.previewNotification)
	}
	if s.services.Debug != nil {
		v2.GET("/outbox/export", s.exportOutbox)
	}

	if s.services.Statuses != nil {
		v2.GET("/statuses", s.listStatuses)
	}
	if s.services.Teams != nil {
		v2.GET("/teams", s.listTeams)
		v2.POST("/teams", s.createTeam)
		v2.DELETE("/teams/:id", s.deleteTeam)
		v2.GET("/users", s.listUsers)
	}
	if s.services.Audit != nil {
		v2.GET("/audit", s.listAudit)
	}
}

func (s *Server) healthz(c *gin.Context) {
	if s.health != nil {
		if err := s.health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// observe records request metrics and logs each request.
func (s *Server) observe() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		code := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(code)).Inc()
		metrics.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(elapsed.Seconds())

		s.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", code),
			zap.Duration("elapsed", elapsed),
		)
	}
}

// actorFromHeader attaches the caller's user code to the request context.
func actorFromHeader() gin.HandlerFunc {
	return func(c *gin.Context) {
		if code := c.GetHeader(ActorHeader); code != "" {
			c.Request = c.Request.WithContext(ctxutil.WithActor(c.Request.Context(), code))
		}
		c.Next()
	}
}
