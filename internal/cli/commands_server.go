package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/rehab360/internal/api"
	"github.com/terraincognita07/rehab360/internal/db"
	"github.com/terraincognita07/rehab360/internal/gateway"
	"github.com/terraincognita07/rehab360/internal/services"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the rehab360 API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.serve(cmd.Context())
		},
	}
}

func (rt *runtime) serve(parent context.Context) error {
	secretKey, err := rt.cfg.ServerSecret()
	if err != nil {
		return err
	}

	database, err := db.OpenSQLite(rt.cfg.Database.Path, rt.logger)
	if err != nil {
		return fmt.Errorf("database init failed: %w", err)
	}
	if sqlDB, err := database.DB(); err == nil {
		defer sqlDB.Close()
	}

	var (
		streamer  services.ChatStreamer
		completer services.Completer
	)
	client, err := gateway.New(gateway.Config{
		BaseURL:           rt.cfg.Gateway.BaseURL,
		APIKey:            rt.cfg.Gateway.APIKey,
		ChatModel:         rt.cfg.Gateway.ChatModel,
		PredictModel:      rt.cfg.Gateway.PredictModel,
		RequestsPerMinute: rt.cfg.Gateway.RequestsPerMinute,
		Burst:             rt.cfg.Gateway.Burst,
		Timeout:           rt.cfg.Gateway.Timeout,
	}, rt.logger)
	switch {
	case errors.Is(err, gateway.ErrGatewayNotConfigured):
		rt.logger.Warn("llm gateway api key missing, chat and predict will answer 500")
	case err != nil:
		return fmt.Errorf("gateway init failed: %w", err)
	default:
		streamer = client
		completer = client
	}

	handler := api.NewHandler(database, api.Options{
		SecretKey:          secretKey,
		TokenTTL:           rt.cfg.Auth.TokenTTL,
		LoginAttemptLimit:  rt.cfg.Auth.LoginAttemptLimit,
		LoginAttemptWindow: rt.cfg.Auth.LoginAttemptWindow,
		StreamTimeout:      rt.cfg.Server.StreamTimeout,
		ChatStreamer:       streamer,
		Completer:          completer,
		Logger:             rt.logger,
	})
	app := api.NewApp(handler, rt.logger)

	signalCtx, stopSignals := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()
	group, ctx := errgroup.WithContext(signalCtx)

	group.Go(func() error {
		rt.logger.Info("rehab360 listening",
			zap.String("addr", rt.cfg.Server.Addr),
			zap.String("db", rt.cfg.Database.Path),
		)
		if err := app.Listen(rt.cfg.Server.Addr); err != nil {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		rt.logger.Info("rehab360 stopped")
		return nil
	})
	return group.Wait()
}

func newResetPasswordCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email>",
		Short: "Issue a temporary password for an account in the server database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunResetPasswordCommand(rt.cfg.Database.Path, args[0], rt.logger, cmd.OutOrStdout())
		},
	}
}
