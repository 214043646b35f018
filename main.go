// triage runs the migration support triage workflow.
//
// Usage:
//
//	triage run [--ticket=<id>] [--offline] [--json]
//	triage serve [--offline]
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	logx "github.com/support-triage-poc/server/pkg/logger"
)

var (
	appCfg  *AppConfig
	offline bool
)

var rootCmd = &cobra.Command{
	Use:   "triage",
	Short: "Risk-gated triage for Hosted-to-Headless migration support tickets",
	Long: `triage diagnoses support tickets raised during a platform migration,
classifies the risk of acting on them and either applies the fix or holds it
for a human approver.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "use a canned diagnosis instead of calling Gemini")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

func setup(_ *cobra.Command, _ []string) error {
	dotenvErr := loadDotenv()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logx.Init(logx.LoggerOpts{
		Environment: cfg.env(),
		File:        cfg.LogFile,
	})
	if dotenvErr != nil {
		logx.Debug().Err(dotenvErr).Msg("no .env file loaded")
	}

	if err := cfg.validate(offline); err != nil {
		return err
	}
	appCfg = cfg
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
