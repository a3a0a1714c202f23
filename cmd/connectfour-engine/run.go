package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"connectfour-engine/internal/health"
	"connectfour-engine/internal/taskrunner"
	"connectfour-engine/internal/transport"
)

// pollInterval is how often the scheduler checks for due tasks; the
// scheduler backend's own claim-before-act loop (ZRangeByScore + ZRem)
// is what makes a short interval safe against double-firing.
const pollInterval = time.Second

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a long-lived worker process",
	}
	cmd.AddCommand(newRunConsumerCmd())
	cmd.AddCommand(newRunSchedulerCmd())
	cmd.AddCommand(newRunTaskRunnerCmd())
	cmd.AddCommand(newRunAllCmd())
	return cmd
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newRunConsumerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "consumer",
		Short: "Run the message-bus command consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootApp(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			return runConsumer(ctx, a)
		},
	}
}

func newRunSchedulerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run the delayed-task scheduler poller",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootApp(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			return runSchedulerAndTaskRunner(ctx, a)
		},
	}
}

func newRunTaskRunnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "task-runner",
		Short: "Run the task runner (alias of 'run scheduler': the scheduler poll loop and the task runner are one process boundary)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootApp(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			return runSchedulerAndTaskRunner(ctx, a)
		},
	}
}

func newRunAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Run the consumer, scheduler and task runner in one process",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			a, err := bootApp(ctx)
			if err != nil {
				return err
			}
			defer a.logger.Sync()

			srv := health.New(a.cfg.LoggingMode)
			go func() {
				if err := srv.Run(":" + a.cfg.HealthPort); err != nil {
					a.logger.Error("health server stopped", zap.Error(err))
				}
			}()

			errCh := make(chan error, 2)
			go func() { errCh <- runConsumerBody(ctx, a) }()
			go func() { errCh <- runSchedulerAndTaskRunnerBody(ctx, a) }()
			srv.MarkReady()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
				return nil
			}
		},
	}
}

func runConsumer(ctx context.Context, a *app) error {
	srv := health.New(a.cfg.LoggingMode)
	go func() {
		if err := srv.Run(":" + a.cfg.HealthPort); err != nil {
			a.logger.Error("health server stopped", zap.Error(err))
		}
	}()

	srv.MarkReady()
	return runConsumerBody(ctx, a)
}

func runConsumerBody(ctx context.Context, a *app) error {
	stream, err := a.bus.Stream(ctx)
	if err != nil {
		return err
	}

	consumer := transport.NewConsumer(stream, a.processors, a.logger, a.cfg.WorkerPoolSize, a.cfg.CommandDeadline)
	a.logger.Info("consumer started", zap.Int("pool_size", a.cfg.WorkerPoolSize))
	return consumer.Run(ctx)
}

func runSchedulerAndTaskRunner(ctx context.Context, a *app) error {
	srv := health.New(a.cfg.LoggingMode)
	go func() {
		if err := srv.Run(":" + a.cfg.HealthPort); err != nil {
			a.logger.Error("health server stopped", zap.Error(err))
		}
	}()

	srv.MarkReady()
	return runSchedulerAndTaskRunnerBody(ctx, a)
}

func runSchedulerAndTaskRunnerBody(ctx context.Context, a *app) error {
	fired := a.scheduler.Run(ctx, pollInterval)
	runner := taskrunner.New(a.processors, a.logger, a.cfg.WorkerPoolSize)
	a.logger.Info("task runner started", zap.Int("pool_size", a.cfg.WorkerPoolSize))
	runner.Run(ctx, fired)
	return nil
}
