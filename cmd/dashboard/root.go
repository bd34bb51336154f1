package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/client"
)

// app carries the settings shared by every subcommand
type app struct {
	v      *viper.Viper
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	cmd := &cobra.Command{
		Use:          "dashboard",
		Short:        "Browse and export market data served by the dashboard API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()

			logger, err := createLogger(a.v.GetString("log-level"))
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := cmd.PersistentFlags()
	flags.String("api-url", "http://localhost:8000", "base URL of the market data API")
	flags.Duration("timeout", 10*time.Second, "HTTP request timeout")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	a.v.SetEnvPrefix("DASHBOARD")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	_ = a.v.BindPFlags(flags)

	cmd.AddCommand(
		newViewCmd(a, "daily"),
		newViewCmd(a, "monthly"),
		newUploadCmd(a),
		newExportCmd(a),
	)

	return cmd
}

func (a *app) apiClient() *client.APIClient {
	return client.NewAPIClient(a.v.GetString("api-url"), a.v.GetDuration("timeout"), a.logger)
}

// requestContext bounds a whole command by twice the request timeout
func (a *app) requestContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 2*a.v.GetDuration("timeout"))
}

func createLogger(level string) (*zap.Logger, error) {
	var zapLevel zap.AtomicLevel
	switch level {
	case "debug":
		zapLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "error":
		zapLevel = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		zapLevel = zap.NewAtomicLevelAt(zap.WarnLevel)
	}

	config := zap.Config{
		Level:            zapLevel,
		Development:      false,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	return config.Build()
}
