package main

import (
	"fmt"

	"saveai-api/workflow"

	"github.com/spf13/cobra"
)

func workflowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "CI/CD workflow tooling",
	}

	var out string
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write the build-and-deploy and gated-deploy workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := workflow.Generate(out, workflow.ParamsFromApp())
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
	generate.Flags().StringVar(&out, "out", ".github/workflows", "output directory")

	cmd.AddCommand(generate)
	return cmd
}
