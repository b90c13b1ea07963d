package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	debugFlag      bool
	configPathFlag string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mealcal",
	Short: "AI-powered calorie and macro estimation service",
	Long: `Mealcal estimates calories and macronutrients for free-text meal
descriptions by running a tool-use conversation with an LLM that can look up
nutrition facts, and exposes the result over a small HTTP API.`,
	Version: "1.0.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPathFlag, "config", "", "Path to a config file (YAML)")
}
