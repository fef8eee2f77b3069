package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/modchat/modchat-server/internal/app"
	"github.com/modchat/modchat-server/internal/config"
	"github.com/modchat/modchat-server/internal/log"
)

var (
	flagConfigPath string
	flagAddr       string
	flagDBPath     string
	flagLogLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "modchat-server",
	Short: "Moderated real-time chat server",
	RunE:  runServer,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagConfigPath, "config", "", "path to config file (yaml)")
	flags.StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides config)")
	flags.StringVar(&flagDBPath, "db-path", "", "sqlite database path (overrides config)")
	flags.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServer(cmd *cobra.Command, args []string) error {
	bootLogger := log.New(flagLogLevel)

	cfg, configPath, err := config.Load(bootLogger, flagConfigPath)
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagDBPath != "" {
		cfg.DatabasePath = flagDBPath
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", configPath).Str("addr", cfg.Addr).Msg("starting modchat server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
