package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yuruhealth/yuruhealth/internal/batch"
	"github.com/yuruhealth/yuruhealth/internal/dedup"
	"github.com/yuruhealth/yuruhealth/internal/fetchers"
	"github.com/yuruhealth/yuruhealth/internal/ingest"
	"github.com/yuruhealth/yuruhealth/internal/logging"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run all configured fetchers once",
	Long: `Fetch runs every configured provider once, ingests the results through
the deduplication gate, and exits. Exit status is non-zero when any
source failed irrecoverably, so schedulers surface partial data loss
instead of reporting success.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		ctx := logging.WithRunID(cmd.Context(), uuid.New().String())

		repo, err := openRepository(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()

		filter := dedup.NewFilter(volatileKeySet())
		ingestor := ingest.New(repo, filter, loc, ingest.WithLogger(logger))

		fs := []fetchers.Fetcher{
			fetchers.NewOuraFetcher(cfg.Providers.Oura),
			fetchers.NewWithingsFetcher(cfg.Providers.Withings, repo),
			fetchers.NewGoogleFitFetcher(cfg.Providers.GoogleFit, repo),
			fetchers.NewSwitchBotFetcher(cfg.Providers.SwitchBot),
			fetchers.NewWeatherFetcher(cfg.Providers.Weather),
		}

		lookback := time.Duration(cfg.LookbackD) * 24 * time.Hour
		runner := batch.NewRunner(ingestor, fs, cfg.UserID, lookback, logger)

		summary := runner.Run(ctx)
		if !summary.OK() {
			return fmt.Errorf("batch run finished with errors: %s", summary.Line())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}
