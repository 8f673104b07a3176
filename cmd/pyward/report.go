package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/reporting"
	"github.com/aideng18/PyWard/internal/storage"
)

func newReportCmd() *cobra.Command {
	var (
		dbPath string
		outDir string
		format string
		baseID string
	)
	cmd := &cobra.Command{
		Use:   "report <run-id>",
		Short: "Re-render a stored run as json, html or sarif",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = appCfg.Database.DSN
			}
			if outDir == "" {
				outDir = appCfg.Reporting.OutDir
			}
			db, err := storage.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			rep, err := db.LoadReport(args[0])
			if err != nil {
				return fmt.Errorf("load run %s: %w", args[0], err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			if baseID != "" {
				base, err := db.LoadReport(baseID)
				if err != nil {
					return fmt.Errorf("load base run %s: %w", baseID, err)
				}
				p, err := reporting.WriteDiffJSON(baseID, rep.ID, outDir, &base, &rep)
				if err != nil {
					return err
				}
				fmt.Println(p)
				return nil
			}

			var p string
			switch format {
			case "html":
				p, err = reporting.WriteHTML(rep.ID, outDir, &rep)
			case "sarif":
				p, err = reporting.WriteSARIF(rep.ID, outDir, &rep)
			default:
				p, err = reporting.WriteJSON(rep.ID, outDir, &rep)
			}
			if err != nil {
				return err
			}
			fmt.Println(p)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().StringVar(&outDir, "out", "", "output directory")
	cmd.Flags().StringVar(&format, "format", "json", "output format: json|html|sarif")
	cmd.Flags().StringVar(&baseID, "diff-base", "", "base run id; emits a finding diff instead of a report")
	return cmd
}
