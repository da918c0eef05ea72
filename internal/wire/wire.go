// Package wire provides dependency injection for the UMIG application.
// It creates singleton services with lazy initialization.
package wire

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/example/umig/internal/adapters/email"
	"github.com/example/umig/internal/adapters/sqlite"
	"github.com/example/umig/internal/api"
	"github.com/example/umig/internal/app"
	"github.com/example/umig/internal/config"
	"github.com/example/umig/internal/db"
	"github.com/example/umig/internal/logging"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/ports/secondary"
	"github.com/example/umig/internal/telemetry"
)

var (
	cfg      *config.Config
	logger   *zap.Logger
	database *sql.DB
	tracing  *telemetry.Provider

	migrationService    primary.MigrationService
	planService         primary.PlanService
	instanceService     primary.InstanceService
	stepService         primary.StepService
	notificationService primary.NotificationService
	debugService        primary.DebugService
	statusService       primary.StatusService
	teamService         primary.TeamService
	auditService        primary.AuditService

	once    sync.Once
	initErr error
)

// Init loads configuration and builds every service. Safe to call more
// than once; only the first call does any work.
func Init() error {
	once.Do(func() { initErr = initServices() })
	return initErr
}

// Config returns the loaded configuration.
func Config() *config.Config {
	mustInit()
	return cfg
}

// Logger returns the process logger.
func Logger() *zap.Logger {
	mustInit()
	return logger
}

// DB returns the shared database handle.
func DB() *sql.DB {
	mustInit()
	return database
}

// MigrationService returns the singleton MigrationService instance.
func MigrationService() primary.MigrationService {
	mustInit()
	return migrationService
}

// PlanService returns the singleton PlanService instance.
func PlanService() primary.PlanService {
	mustInit()
	return planService
}

// InstanceService returns the singleton InstanceService instance.
func InstanceService() primary.InstanceService {
	mustInit()
	return instanceService
}

// StepService returns the singleton StepService instance.
func StepService() primary.StepService {
	mustInit()
	return stepService
}

// NotificationService returns the singleton NotificationService instance.
func NotificationService() primary.NotificationService {
	mustInit()
	return notificationService
}

// DebugService returns the singleton DebugService instance.
func DebugService() primary.DebugService {
	mustInit()
	return debugService
}

// StatusService returns the singleton StatusService instance.
func StatusService() primary.StatusService {
	mustInit()
	return statusService
}

// TeamService returns the singleton TeamService instance.
func TeamService() primary.TeamService {
	mustInit()
	return teamService
}

// AuditService returns the singleton AuditService instance.
func AuditService() primary.AuditService {
	mustInit()
	return auditService
}

// APIServices groups every service for the REST API.
func APIServices() api.Services {
	mustInit()
	return api.Services{
		Migrations:    migrationService,
		Plans:         planService,
		Instances:     instanceService,
		Steps:         stepService,
		Notifications: notificationService,
		Debug:         debugService,
		Statuses:      statusService,
		Teams:         teamService,
		Audit:         auditService,
	}
}

// Close flushes telemetry and the logger and closes the database.
func Close(ctx context.Context) error {
	if database == nil {
		return nil
	}
	if err := tracing.Shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", zap.Error(err))
	}
	_ = logger.Sync()
	return database.Close()
}

func mustInit() {
	if err := Init(); err != nil {
		panic(fmt.Sprintf("wire: %v", err))
	}
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() error {
	home, err := config.HomeDir()
	if err != nil {
		return err
	}
	cfg, err = config.LoadConfig(home)
	if err != nil {
		return err
	}

	logger, err = logging.New(cfg.Log)
	if err != nil {
		return err
	}

	tracing, err = telemetry.Init(context.Background(), cfg.Telemetry)
	if err != nil {
		return err
	}

	database, err = db.OpenFromConfig(cfg.Database)
	if err != nil {
		return err
	}

	sender, err := newSender(cfg.Email, logger)
	if err != nil {
		return err
	}

	build(database, sender, cfg.Notification, cfg.Email.From, logger)
	return nil
}

// build creates the repository adapters and the services on top of them.
func build(database *sql.DB, sender secondary.EmailSender, notif config.NotificationConfig, from string, logger *zap.Logger) {
	auditRepo := sqlite.NewAuditLogRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(auditRepo)

	migrationRepo := sqlite.NewMigrationRepository(database, logWriter)
	iterationRepo := sqlite.NewIterationRepository(database, logWriter)
	planRepo := sqlite.NewPlanRepository(database, logWriter)
	sequenceRepo := sqlite.NewSequenceRepository(database)
	phaseRepo := sqlite.NewPhaseRepository(database)
	stepRepo := sqlite.NewStepRepository(database, logWriter)
	instructionRepo := sqlite.NewInstructionRepository(database, logWriter)
	commentRepo := sqlite.NewCommentRepository(database)
	statusRepo := sqlite.NewStatusRepository(database)
	teamRepo := sqlite.NewTeamRepository(database)
	userRepo := sqlite.NewUserRepository(database)
	hierarchyRepo := sqlite.NewHierarchyRepository(database)
	templateRepo := sqlite.NewEmailTemplateRepository(database)
	outboxRepo := sqlite.NewEmailOutboxRepository(database)
	instantiator := sqlite.NewPlanInstantiator(database, logWriter)

	notificationService = app.NewNotificationService(stepRepo, templateRepo, outboxRepo, sender, app.NotificationSettings{
		BaseURL:     notif.BaseURL,
		From:        from,
		Concurrency: notif.Concurrency,
		MaxAttempts: notif.MaxAttempts,
	}, logger)

	migrationService = app.NewMigrationService(migrationRepo, iterationRepo, statusRepo, hierarchyRepo, logWriter)
	planService = app.NewPlanService(app.PlanRepositories{
		Plans:        planRepo,
		Sequences:    sequenceRepo,
		Phases:       phaseRepo,
		Steps:        stepRepo,
		Instructions: instructionRepo,
		Statuses:     statusRepo,
		Hierarchy:    hierarchyRepo,
	}, instantiator, logWriter, logger)
	instanceService = app.NewInstanceService(planRepo, sequenceRepo, phaseRepo, stepRepo, statusRepo, hierarchyRepo, logWriter, logger)
	stepService = app.NewStepService(stepRepo, instructionRepo, commentRepo, statusRepo, hierarchyRepo, notificationService, logWriter, logger)
	debugService = app.NewDebugService(outboxRepo)
	statusService = app.NewStatusService(statusRepo)
	teamService = app.NewTeamService(teamRepo, userRepo)
	auditService = app.NewAuditService(auditRepo)
}

// newSender selects the e-mail transport.
func newSender(cfg config.EmailConfig, logger *zap.Logger) (secondary.EmailSender, error) {
	if cfg.Transport == config.TransportSMTP {
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	return email.NewLogSender(logger), nil
}
