package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "validate a pipeline definition file",
	Long: `Parse the definition file, check its schema version, and build every
pipeline's stage graph. Duplicate stages, unknown dependencies, and cycles are
reported without running anything.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		file, err := loadDefinition()
		if err != nil {
			return err
		}
		graphs, err := file.Graphs()
		if err != nil {
			return err
		}

		for _, p := range file.Pipelines {
			fmt.Fprintf(cmd.OutOrStdout(), "pipeline %s: %d stages\n",
				p.Name, len(graphs[p.Name].Stages()))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
