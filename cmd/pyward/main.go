package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/shared"
)

// exitError carries a non-default process exit code up through cobra
// so RunE deferred cleanup (database handles in particular) runs
// before the process exits.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

var (
	cfgFile string
	appCfg  shared.Config

	rootCmd = &cobra.Command{
		Use:           "pyward [command]",
		SilenceUsage:  true,
		SilenceErrors: true,
		Short:         "pyward is a static analyzer for Python source files.",
		Long: `pyward scans Python source files for optimization smells and
security issues. Findings are deterministic: the same file and the same
rule set always produce the same report.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			appCfg, _ = shared.LoadConfig(cfgFile)
			shared.InitLogger(appCfg.Logging.Format, appCfg.Logging.Level)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to YAML config")
	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newRunsCmd())
	rootCmd.AddCommand(newRulesCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func main() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, "pyward:", err)
		os.Exit(1)
	}
}
