package cli

import (
	"github.com/spf13/cobra"

	"github.com/yuruhealth/yuruhealth/internal/dedup"
	"github.com/yuruhealth/yuruhealth/internal/ingest"
	"github.com/yuruhealth/yuruhealth/internal/seeder"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate demo data through the real ingestion path",
	Long: `Seed generates plausible per-source payloads with a fixed random seed
and ingests them through the deduplication gate. Re-running with the
same seed demonstrates dedup: the second run skips everything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		seed, _ := cmd.Flags().GetUint64("seed")

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		filter := dedup.NewFilter(volatileKeySet())
		ingestor := ingest.New(repo, filter, loc, ingest.WithLogger(logger))

		counts, err := seeder.New(ingestor, seed, loc).Seed(cmd.Context(), cfg.UserID, days)
		if err != nil {
			return err
		}

		logger.Info("seed run finished",
			"persisted", counts.Persisted, "skipped", counts.Skipped, "days", days)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
	seedCmd.Flags().Int("days", 14, "days of history to generate")
	seedCmd.Flags().Uint64("seed", 1, "random seed")
}
