package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/umig/internal/api"
	"github.com/example/umig/internal/ports/primary"
	"github.com/example/umig/internal/wire"
)

// ServeCmd returns the serve command: REST API plus scheduled outbox dispatch.
func ServeCmd() *cobra.Command {
	var addr, schedule string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the REST API and the outbox dispatcher",
		Long: `Serve the /api/v2 REST API, /healthz and /metrics. Pending outbox
e-mails are delivered on the dispatch schedule (cron syntax or @every).

Examples:
  umig serve
  umig serve --addr :8090 --dispatch "@every 30s"
  umig serve --dispatch ""    # no background delivery`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Config()
			logger := wire.Logger()
			if !cmd.Flags().Changed("addr") {
				addr = cfg.Server.ListenAddr
			}
			if !cmd.Flags().Changed("dispatch") {
				schedule = cfg.Server.DispatchSchedule
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := wire.Close(closeCtx); err != nil {
					logger.Warn("close failed", zap.Error(err))
				}
			}()

			if n, err := wire.NotificationService().EnsureDefaultTemplates(ctx); err != nil {
				return fmt.Errorf("failed to install templates: %w", err)
			} else if n > 0 {
				logger.Info("installed default e-mail templates", zap.Int("count", n))
			}

			if schedule != "" {
				scheduler, err := startDispatcher(ctx, schedule, wire.NotificationService(), logger)
				if err != nil {
					return err
				}
				defer func() { <-scheduler.Stop().Done() }()
			}

			database := wire.DB()
			server := api.NewServer(wire.APIServices(), database.PingContext, logger)
			if err := server.ListenAndServe(ctx, addr); err != nil {
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	cmd.Flags().StringVar(&schedule, "dispatch", "", "Outbox dispatch schedule (default from config)")

	return cmd
}

// startDispatcher runs DispatchPending on schedule. Runs never overlap.
func startDispatcher(ctx context.Context, schedule string, notifications primary.NotificationService, logger *zap.Logger) (*cron.Cron, error) {
	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := scheduler.AddFunc(schedule, func() {
		result, err := notifications.DispatchPending(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			logger.Error("outbox dispatch failed", zap.Error(err))
		case result.Attempted > 0:
			logger.Info("outbox dispatched",
				zap.Int("attempted", result.Attempted),
				zap.Int("sent", result.Sent),
				zap.Int("failed", result.Failed),
			)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid dispatch schedule %q: %w", schedule, err)
	}
	scheduler.Start()
	logger.Info("outbox dispatcher started", zap.String("schedule", schedule))
	return scheduler, nil
}
