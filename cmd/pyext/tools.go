package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Check that the build tools are installed",
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func runTools(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BUILDER\tTOOL\tSTATUS\tPURPOSE")

	var failed []string
	for _, builder := range pyext.NewBuilderFactory().ListBuilders() {
		checker, ok := builder.(pyext.ToolChecker)
		if !ok {
			continue
		}

		for _, req := range checker.RequiredTools() {
			status := "missing"
			if path, found := pyext.FindTool(req); found {
				status = path
			} else if req.Optional {
				status = "missing (optional)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", builder.Name(), req.Name, status, req.Purpose)
		}

		if err := checker.CheckTools(); err != nil {
			failed = append(failed, builder.Name())
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("builders with missing tools: %v", failed)
	}
	return nil
}
