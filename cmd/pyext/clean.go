package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pyext "github.com/contriboss/python-extension-go"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove build artifacts and in-place modules",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().StringVar(&extSuffix, "ext-suffix", "", "Module file suffix (default: from the interpreter)")
}

func runClean(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := loadProject(ctx)
	if err != nil {
		return err
	}

	config := p.buildConfig()
	config.ExtSuffix = extSuffix
	if config.ExtSuffix == "" {
		if info, err := pyext.InspectPython(ctx, config.PythonPath); err == nil {
			config.ApplyPythonInfo(info)
		}
	}

	if err := pyext.NewBuilderFactory().CleanAll(ctx, config, p.Package); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "cleaned %d extension(s)\n", len(p.Package.Extensions))
	return nil
}
