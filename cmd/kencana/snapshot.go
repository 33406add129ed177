package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JamesPrial/kencana-farm/internal/crop"
	"github.com/JamesPrial/kencana-farm/internal/snapshot"
	"github.com/JamesPrial/kencana-farm/internal/task"
)

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write a snapshot of crops and reminders to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.farm.Export()
			if err != nil {
				return err
			}
			return snapshot.Write(a.stdout, s)
		},
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Replace crops and reminders with a snapshot read from stdin",
		Long: "Read a snapshot from stdin and replace every collection it contains. " +
			"Values may be plain JSON or JSON strings, as in a browser localStorage dump; " +
			"other keys are ignored.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := snapshot.Read(a.stdin, crop.StorageKey, task.StorageKey)
			if err != nil {
				return err
			}
			keys, err := a.farm.Import(s)
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				fmt.Fprintln(a.stdout, "Nothing to import")
				return nil
			}
			fmt.Fprintf(a.stdout, "Imported %s\n", strings.Join(keys, ", "))
			return nil
		},
	}
}
