package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print the resolved build descriptor",
	Long: `Resolves the manifest, including the numpy include directory, and
prints the extension descriptors that a build would use.`,
	Args: cobra.NoArgs,
	RunE: runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	p, err := loadProject(cmd.Context())
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(p.Package); err != nil {
		return err
	}
	return enc.Close()
}
