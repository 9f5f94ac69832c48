package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuruhealth/yuruhealth/internal/supplements"
)

var supplementsCmd = &cobra.Command{
	Use:   "supplements",
	Short: "Inspect the supplements master file",
}

var supplementsPresetCmd = &cobra.Command{
	Use:   "preset <scene>",
	Short: "Show the default items and scale for a scene",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		master, err := supplements.Load(path)
		if err != nil {
			return err
		}
		return printJSON(master.ScenePreset(args[0]))
	},
}

var supplementsSnapshotCmd = &cobra.Command{
	Use:     "snapshot",
	Short:   "Build an intake snapshot from item scales",
	Example: `  yuruhealth supplements snapshot --items vitamin_c=1.0,magnesium=1.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		items, _ := cmd.Flags().GetString("items")
		if items == "" {
			return fmt.Errorf("--items is required")
		}

		selected := map[string]float64{}
		for _, pair := range strings.Split(items, ",") {
			id, scaleStr, found := strings.Cut(pair, "=")
			scale := 1.0
			if found {
				parsed, err := strconv.ParseFloat(scaleStr, 64)
				if err != nil {
					return fmt.Errorf("invalid scale in %q: %w", pair, err)
				}
				scale = parsed
			}
			selected[strings.TrimSpace(id)] = scale
		}

		master, err := supplements.Load(path)
		if err != nil {
			return err
		}
		return printJSON(master.BuildSnapshot(selected))
	},
}

func init() {
	rootCmd.AddCommand(supplementsCmd)
	supplementsCmd.AddCommand(supplementsPresetCmd)
	supplementsCmd.AddCommand(supplementsSnapshotCmd)

	supplementsCmd.PersistentFlags().String("file", "config/supplements.yaml", "supplements master file")
}
