package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/storage"
)

func newRunsCmd() *cobra.Command {
	var (
		dbPath string
		limit  int
		offset int
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				dbPath = appCfg.Database.DSN
			}
			db, err := storage.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			rows, err := db.ListRuns(limit, offset)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSTARTED\tSOURCE\tSTATUS\tFINDINGS")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
					r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), r.Source, r.Status, r.Findings)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum rows")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}
