package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuruhealth/yuruhealth/internal/reports"
)

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Show the latest raw data lake rows",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		format, _ := cmd.Flags().GetString("output")

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		svc := reports.NewService(repo, loc)
		records, err := svc.Recent(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if format == "json" {
			return printJSON(records)
		}

		t := newTable("FETCHED", "SOURCE", "CATEGORY", "RECORDED", "PAYLOAD")
		for _, rec := range records {
			payload, _ := json.Marshal(rec.Payload)
			t.addRow(
				rec.FetchedAt.In(loc).Format("2006-01-02 15:04"),
				string(rec.Source),
				rec.Category,
				rec.RecordedAt.In(loc).Format("2006-01-02 15:04"),
				truncate(string(payload), 60),
			)
		}
		t.render()
		return nil
	},
}

var arrivalsCmd = &cobra.Command{
	Use:   "arrivals",
	Short: "Show which sources delivered data on which days",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		format, _ := cmd.Flags().GetString("output")

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		svc := reports.NewService(repo, loc)

		if format == "json" {
			details, err := svc.ArrivalDetail(cmd.Context(), days)
			if err != nil {
				return err
			}
			return printJSON(details)
		}

		arrivals, err := svc.ArrivalHistory(cmd.Context(), days)
		if err != nil {
			return err
		}
		t := newTable("DATE", "SOURCE")
		for _, a := range arrivals {
			t.addRow(a.Date, string(a.Source))
		}
		t.render()
		return nil
	},
}

var correlationCmd = &cobra.Command{
	Use:   "correlation",
	Short: "Show sleep score vs room environment by date",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		format, _ := cmd.Flags().GetString("output")

		loc, err := cfg.Location()
		if err != nil {
			return err
		}

		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		svc := reports.NewService(repo, loc)
		rows, err := svc.CorrelationData(cmd.Context(), days)
		if err != nil {
			return err
		}

		if format == "json" {
			return printJSON(rows)
		}

		t := newTable("DATE", "SLEEP", "CO2", "TEMP", "HUMIDITY")
		for _, row := range rows {
			t.addRow(
				row.Date,
				fmt.Sprintf("%d", row.SleepScore),
				fmtFloat(row.CO2Avg),
				fmtFloat(row.TempAvg),
				fmtFloat(row.HumidityAvg),
			)
		}
		t.render()
		return nil
	},
}

func fmtFloat(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func init() {
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(arrivalsCmd)
	rootCmd.AddCommand(correlationCmd)

	recentCmd.Flags().Int("limit", 50, "maximum rows")
	arrivalsCmd.Flags().Int("days", 14, "history window in days")
	correlationCmd.Flags().Int("days", 14, "history window in days")
}
