package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/user/mealcal/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with secrets masked",
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.NewLoader().Load(configPathFlag, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "server.port            = %d\n", cfg.Server.GetPort())
	fmt.Fprintf(out, "llm.provider           = %s\n", cfg.LLM.Provider)
	fmt.Fprintf(out, "llm.model              = %s\n", cfg.LLM.Model)
	fmt.Fprintf(out, "llm.api_key            = %s\n", mask(cfg.LLM.APIKey))
	fmt.Fprintf(out, "llm.timeout            = %s\n", cfg.LLM.GetTimeout())
	fmt.Fprintf(out, "fatsecret.client_id    = %s\n", mask(cfg.FatSecret.ClientID))
	fmt.Fprintf(out, "fatsecret.configured   = %t\n", cfg.FatSecret.Configured())
	fmt.Fprintf(out, "estimator.max_tool_turns = %d\n", cfg.Estimator.GetMaxToolTurns())
	fmt.Fprintf(out, "estimator.wall_budget    = %s\n", cfg.Estimator.GetWallBudget())
	fmt.Fprintf(out, "estimator.max_tool_workers = %d\n", cfg.Estimator.GetMaxToolWorkers())
	fmt.Fprintf(out, "logging.log_dir        = %s\n", cfg.Logging.LogDir)
	return nil
}

// mask hides all but the last four characters of a secret
func mask(secret string) string {
	if secret == "" {
		return "(unset)"
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}
