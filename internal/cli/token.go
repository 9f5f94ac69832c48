package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuruhealth/yuruhealth/internal/models"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage stored provider credentials",
	Long: `Token stores, shows, and deletes the opaque OAuth credential blobs
fetchers read at run time. The interactive consent flows that produce
these blobs run outside this tool.`,
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <provider>",
	Short: "Store a credential blob for a provider",
	Args:  cobra.ExactArgs(1),
	Example: `  yuruhealth token set withings --json '{"access_token":"...","refresh_token":"..."}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := args[0]
		raw, _ := cmd.Flags().GetString("json")
		if raw == "" {
			return fmt.Errorf("--json is required")
		}

		var data map[string]any
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("invalid token JSON: %w", err)
		}

		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		token := &models.OAuthToken{UserID: cfg.UserID, Provider: provider, TokenData: data}
		if err := repo.SaveToken(cmd.Context(), token); err != nil {
			return err
		}

		logger.Info("token stored", "provider", provider, "user_id", cfg.UserID)
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show <provider>",
	Short: "Show the stored credential blob for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		token, err := repo.GetToken(cmd.Context(), cfg.UserID, args[0])
		if err != nil {
			return err
		}
		return printJSON(token)
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:   "delete <provider>",
	Short: "Delete the stored credential blob for a provider",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepository(cmd.Context())
		if err != nil {
			return err
		}
		defer repo.Close()

		if err := repo.DeleteToken(cmd.Context(), cfg.UserID, args[0]); err != nil {
			return err
		}
		logger.Info("token deleted", "provider", args[0], "user_id", cfg.UserID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.AddCommand(tokenSetCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)

	tokenSetCmd.Flags().String("json", "", "token data as a JSON object")
}
