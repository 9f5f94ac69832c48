// Package cli wires the yuruhealth command tree: the scheduled fetch
// run, schema migrations, token management, and inspection commands
// over the raw data lake.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yuruhealth/yuruhealth/internal/config"
	"github.com/yuruhealth/yuruhealth/internal/database"
	"github.com/yuruhealth/yuruhealth/internal/dedup"
	"github.com/yuruhealth/yuruhealth/internal/logging"
	"github.com/yuruhealth/yuruhealth/internal/repository"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "yuruhealth",
	Short: "YuruHealth personal health-data aggregator",
	Long: `yuruhealth pulls records from wellness provider APIs (Oura, Withings,
Google Fit, SwitchBot, OpenWeatherMap), gates every payload through a
content-addressed deduplication layer, and appends new observations to
a Postgres raw data lake.

The fetch command is designed to run from an external scheduler (cron,
GitHub Actions); the process exits when the batch completes.`,
	Version: "0.1.0",
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: config/settings.yaml if present)")
	rootCmd.PersistentFlags().String("output", "table", "output format: table, json")
}

func initConfig() {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config/settings.yaml"); err == nil {
			path = "config/settings.yaml"
		}
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not load config: %v\n", err)
		cfg = config.Default()
	}

	logger = logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	logging.SetDefault(logger)

	database.SetTimeouts(database.Timeouts{
		Query: time.Duration(cfg.Database.Timeouts.QuerySeconds) * time.Second,
		Write: time.Duration(cfg.Database.Timeouts.WriteSeconds) * time.Second,
		Bulk:  time.Duration(cfg.Database.Timeouts.BulkSeconds) * time.Second,
	})
}

// volatileKeySet resolves the effective volatile key set from config.
func volatileKeySet() dedup.KeySet {
	keys := dedup.DefaultKeySet()
	if len(cfg.Dedup.ExtraVolatileKeys) > 0 {
		version := cfg.Dedup.KeySetVersion
		if version == "" {
			version = dedup.DefaultKeySetVersion + "+local"
		}
		keys = keys.Extend(version, cfg.Dedup.ExtraVolatileKeys)
	}
	return keys
}

// openRepository connects to Postgres with a bounded startup timeout.
func openRepository(ctx context.Context) (*repository.PostgresRepository, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	repo, err := repository.NewPostgresRepository(connectCtx, cfg.Database.Postgres.ConnString())
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return repo, nil
}
