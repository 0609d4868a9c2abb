package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/queue"
)

// server audit-consumer
var auditConsumerCmd = &cobra.Command{
	Use:   "audit-consumer",
	Short: "Append rating events from RabbitMQ to the audit log",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := boot()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		c := &queue.Consumer{
			URL:   cfg.Events.URL,
			Queue: cfg.Events.Queue,
			Audit: queue.NewAuditLog(cfg.Events.AuditLog),
			Log:   log,
		}
		log.Info("audit consumer started", zap.String("queue", c.Queue), zap.String("file", cfg.Events.AuditLog))
		if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}
