package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/schemas"
)

func newSchemaCmd() *cobra.Command {
	names := make([]string, 0, len(pipeline.Steps))
	for _, s := range pipeline.Steps {
		names = append(names, s.String())
	}
	return &cobra.Command{
		Use:       "schema <step>",
		Short:     "Print the JSON Schema a step's output is checked against",
		Long:      "Prints the schema used by --validate-output for one step: " + strings.Join(names, ", ") + ".",
		Args:      cobra.ExactArgs(1),
		ValidArgs: names,
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := pipeline.ParseStepKind(args[0])
			if err != nil {
				return err
			}
			schema, err := schemas.Schema(step.SchemaKind())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}
}
