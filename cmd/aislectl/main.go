// Command aislectl runs the shopping-list pipeline from the command line:
// typed text or a photo in, an aisle-ordered checklist out.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/foxxcyber/aisle-list/internal/config"
	"github.com/foxxcyber/aisle-list/internal/logging"
	"github.com/foxxcyber/aisle-list/internal/services"
)

var (
	logger     *zap.Logger
	cfg        *config.Config
	rulesPath  string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "aislectl",
	Short: "Turn shopping-list text or photos into aisle-ordered checklists",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()
		cfg = config.Load()

		level := "warn"
		if verbose {
			level = "debug"
		}
		var err error
		logger, err = logging.New("development", level)
		if err != nil {
			return err
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "layout rules YAML (defaults to LAYOUT_RULES_PATH, then the built-in rules)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a checklist")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(parseCmd, scanCmd, magicCmd, exportCmd, scaleCmd, scaffoldCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadRules picks the --rules flag, then config, then the embedded rules
func loadRules() (*services.LayoutRules, error) {
	path := rulesPath
	if path == "" && cfg != nil {
		path = cfg.LayoutRulesPath
	}
	if path == "" {
		return services.MustDefaultLayoutRules(), nil
	}
	return services.LoadLayoutRules(path)
}

func newBuilder() (*services.ListBuilder, *services.LayoutRules, error) {
	rules, err := loadRules()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load layout rules: %w", err)
	}
	return services.NewListBuilderForRules(rules), rules, nil
}
