package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newDumpCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the registry's structured document for the current process",
		Long: "dump is a diagnostic entry point. Because the scheduler keeps no " +
			"state across process restarts, a freshly started process always " +
			"dumps an empty registry.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := buildApp(flags)
			if err != nil {
				return err
			}
			doc, err := a.scheduler.ToStructuredDocument()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(os.Stdout, string(doc))
			return err
		},
	}
}
