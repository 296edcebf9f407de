package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/app"
	"github.com/themastyogi/Counterfeit-Detector-sub000/internal/infrastructure/monitoring/logging"
)

// NewServeCmd runs the scan API.
func NewServeCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Run the scan API server",
		Long:        "Serve the scan API. With dispatch.mode=inline the server also processes\nsubmitted jobs in an in-process worker pool.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationService: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd, app.RoleAPI, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch-config", true, "reload the detection profile when the config file changes")
	return cmd
}

// NewWorkerCmd runs the Kafka job consumer.
func NewWorkerCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:         "worker",
		Short:       "Consume submitted scan jobs from Kafka",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationService: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runService(cmd, app.RoleWorker, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch-config", true, "reload the detection profile when the config file changes")
	return cmd
}

func runService(cmd *cobra.Command, role app.Role, watch bool) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	log := cliCtx.Logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := app.Options{Role: role, Version: Version}
	if watch {
		opts.ConfigPath = cliCtx.ConfigPath
	}

	log.Info("starting cfdetect",
		logging.String("role", string(role)),
		logging.String("version", Version),
		logging.String("dispatch", cliCtx.Config.Dispatch.Mode),
		logging.String("config", cliCtx.ConfigPath))

	a, err := app.New(ctx, cliCtx.Config, opts, log)
	if err != nil {
		return err
	}
	defer a.Close()

	run := a.RunAPI
	if role == app.RoleWorker {
		run = a.RunWorker
	}
	if err := run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	log.Info("cfdetect stopped", logging.String("role", string(role)))
	return nil
}

// withTimeout bounds a one-shot command by --timeout.
func withTimeout(cmd *cobra.Command, cliCtx *CLIContext) (context.Context, context.CancelFunc) {
	if cliCtx.Timeout <= 0 {
		return context.WithCancel(cmd.Context())
	}
	return context.WithTimeout(cmd.Context(), cliCtx.Timeout)
}

//Personal.AI order the ending
