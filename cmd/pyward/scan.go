package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/analysis"
	"github.com/aideng18/PyWard/internal/parser"
	"github.com/aideng18/PyWard/internal/pysrc"
	"github.com/aideng18/PyWard/internal/reporting"
	"github.com/aideng18/PyWard/internal/rules"
	"github.com/aideng18/PyWard/internal/rulesdsl"
	"github.com/aideng18/PyWard/internal/shared"
	"github.com/aideng18/PyWard/internal/storage"
	"github.com/aideng18/PyWard/internal/vulndb"
)

type scanOptions struct {
	optimizeOnly bool
	securityOnly bool
	verbose      bool
	format       string
	outDir       string
	dbPath       string
	severity     string
	disabled     []string
	vulnDBPath   string
	rulesPack    string
}

func newScanCmd() *cobra.Command {
	var opts scanOptions
	cmd := &cobra.Command{
		Use:   "scan <file.py> [file.py...]",
		Short: "Analyze Python source files and report findings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}
	cmd.Flags().BoolVarP(&opts.optimizeOnly, "optimize", "o", false, "run only optimization rules")
	cmd.Flags().BoolVarP(&opts.securityOnly, "security", "s", false, "run only security rules")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "show source context and suggestions")
	cmd.Flags().StringVar(&opts.format, "format", "", "output format: text|json|html|sarif")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "output directory for json/html/sarif reports")
	cmd.Flags().StringVar(&opts.dbPath, "db", "", "SQLite database to persist runs (also activates waivers)")
	cmd.Flags().StringVar(&opts.severity, "severity", "", "minimum severity: LOW|MEDIUM|HIGH")
	cmd.Flags().StringSliceVar(&opts.disabled, "disable", nil, "rule IDs to disable")
	cmd.Flags().StringVar(&opts.vulnDBPath, "vulndb", "", "path to a YAML vulnerability signature file")
	cmd.Flags().StringVar(&opts.rulesPack, "rules-pack", "", "path to a YAML rule pack to load")
	return cmd
}

func runScan(cmd *cobra.Command, args []string, opts scanOptions) error {
	// flags > config > defaults
	applyConfigDefaults(&opts, appCfg)
	ruleOpts := resolveCategories(opts, appCfg)

	settings := rules.Settings{SeverityThreshold: opts.severity, Disabled: map[string]bool{}}
	for _, id := range opts.disabled {
		settings.Disabled[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	rules.SetSettings(settings)

	if opts.vulnDBPath != "" {
		t, err := vulndb.LoadFile(opts.vulnDBPath)
		if err != nil {
			return err
		}
		rules.SetVulnTable(t)
	}
	if opts.rulesPack != "" {
		n, err := rulesdsl.LoadAndRegister(opts.rulesPack)
		if err != nil {
			return err
		}
		slog.Info("loaded rules pack", "path", opts.rulesPack, "rules", n)
	}

	var db *storage.DB
	if opts.dbPath != "" {
		var err error
		db, err = storage.OpenSQLite(opts.dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer db.Close()
		if err := db.CreateSchema(); err != nil {
			return fmt.Errorf("db schema: %w", err)
		}
	}

	if opts.format != "text" && opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("create out dir: %w", err)
		}
	}

	totalFindings := 0
	for _, path := range args {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rep, unit, err := analysis.Analyze(path, string(src), ruleOpts)
		if err != nil {
			var se *parser.SyntaxError
			if errors.As(err, &se) {
				fmt.Fprintf(os.Stderr, "%s:%d:%d: syntax error: %s\n", path, se.Line, se.Col, se.Msg)
				return &exitError{code: 2}
			}
			return err
		}

		if db != nil {
			ws, werr := db.ListWaivers(true)
			if werr != nil {
				slog.Warn("waiver lookup failed", "err", werr)
			} else if len(ws) > 0 {
				kept, waived := rules.ApplyWaivers(rep.Findings, path, ws)
				if waived > 0 {
					slog.Info("waivers applied", "path", path, "waived", waived)
				}
				rep.Findings = kept
			}
			if err := db.SaveReport(rep); err != nil {
				return fmt.Errorf("save report: %w", err)
			}
		}

		if err := emitReport(rep, unit, opts); err != nil {
			return err
		}
		totalFindings += len(rep.Findings)
	}

	if totalFindings > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func emitReport(rep *pysrc.Report, unit *pysrc.SourceUnit, opts scanOptions) error {
	switch opts.format {
	case "", "text":
		reporting.WriteText(os.Stdout, rep, unit, opts.verbose)
		return nil
	case "json":
		p, err := reporting.WriteJSON(rep.ID, opts.outDir, rep)
		if err == nil {
			slog.Info("wrote report", "path", p)
		}
		return err
	case "html":
		p, err := reporting.WriteHTML(rep.ID, opts.outDir, rep)
		if err == nil {
			slog.Info("wrote report", "path", p)
		}
		return err
	case "sarif":
		p, err := reporting.WriteSARIF(rep.ID, opts.outDir, rep)
		if err == nil {
			slog.Info("wrote report", "path", p)
		}
		return err
	default:
		return fmt.Errorf("unknown format %q", opts.format)
	}
}

func applyConfigDefaults(opts *scanOptions, cfg shared.Config) {
	if opts.format == "" && cfg.Reporting.Format != "" {
		opts.format = cfg.Reporting.Format
	}
	if opts.outDir == "" {
		opts.outDir = cfg.Reporting.OutDir
	}
	if !opts.verbose {
		opts.verbose = cfg.Reporting.Verbose
	}
	if opts.severity == "" {
		opts.severity = cfg.Analysis.SeverityThreshold
	}
	if len(opts.disabled) == 0 {
		opts.disabled = cfg.Analysis.Disabled
	}
	if opts.vulnDBPath == "" {
		opts.vulnDBPath = cfg.Analysis.VulnDB
	}
	if opts.rulesPack == "" {
		opts.rulesPack = cfg.Analysis.RulesPack
	}
}

// resolveCategories maps the -o/-s flags onto the rule categories;
// without flags the config decides, including disabling both, which
// produces the no-rules-enabled report rather than a silent pass.
func resolveCategories(opts scanOptions, cfg shared.Config) rules.Options {
	switch {
	case opts.optimizeOnly && opts.securityOnly:
		return rules.Options{Optimization: true, Security: true}
	case opts.optimizeOnly:
		return rules.Options{Optimization: true}
	case opts.securityOnly:
		return rules.Options{Security: true}
	default:
		return rules.Options{
			Optimization: cfg.Analysis.Optimization,
			Security:     cfg.Analysis.Security,
		}
	}
}
