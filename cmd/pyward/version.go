package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aideng18/PyWard/internal/pysrc"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the analyzer version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("pyward report format", pysrc.Version)
		},
	}
}
