package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-genie/internal/pipeline"
	"github.com/jonathan/resume-genie/internal/prompts"
)

func newPromptsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prompts [key|step]",
		Short: "List prompt keys or print one template",
		Long: `Without arguments, lists the built-in prompt keys. With a key or step name, prints that template,
taking --prompts overrides into account. Use it as a starting point for a custom prompts file.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				keys, err := prompts.List(prompts.DefaultFile)
				if err != nil {
					return err
				}
				for _, key := range keys {
					_, _ = fmt.Fprintln(out, key)
				}
				return nil
			}

			key := args[0]
			if step, err := pipeline.ParseStepKind(key); err == nil {
				key = step.PromptKey()
			}

			cfg, err := g.resolve(cmd)
			if err != nil {
				return err
			}
			var tmpl string
			if cfg.PromptsFile != "" {
				set, err := prompts.FromFile(cfg.PromptsFile)
				if err != nil {
					return err
				}
				tmpl, err = set.Template(key)
				if err != nil {
					return err
				}
			} else {
				tmpl, err = prompts.Get(prompts.DefaultFile, key)
				if err != nil {
					return err
				}
			}
			_, err = fmt.Fprintln(out, tmpl)
			return err
		},
	}
}
