package commands

import (
	"context"
	"fmt"
	"os"

	"grocery/scraper/internal/config"
	"grocery/scraper/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "grocery-scraper",
	Short:         "grocery-scraper crawls grocery categories, listings and keyword searches into Postgres.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default ./config.yaml)")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Errorf("❌ %v", err)
		os.Exit(1)
	}
}

// run loads configuration, wires the application and hands it to fn. The
// container is always closed before run returns.
func run(cmd *cobra.Command, fn func(ctx context.Context, app *container.Container) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogging(cfg.Log)
	log.Info("Configuration loaded successfully")

	ctx := cmd.Context()
	app, err := container.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer app.Close()

	return fn(ctx, app)
}

func setupLogging(cfg config.LogConfig) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("⚠️ Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
