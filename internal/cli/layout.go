package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "layout [rule.json]",
		Short: "Compute the diagram of a rule",
		Long: `Compute the diagram of a rule.

The layout command reads a rule file (a single rule or a {"stepRules": [...]}
file, whose first rule is used), places every step, routes every connector
and writes the result as <rule>.layout.json. The output is the same as
'render -f json'.

Results are cached for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd.Context(), args[0], output, noCache, refresh)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runLayout(ctx context.Context, input, output string, noCache, refresh bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := c.pipelineOptions(input)
	opts.Formats = []string{pipeline.FormatJSON}
	opts.Refresh = refresh

	spinner := newSpinnerWithContext(ctx, "Computing layout...")
	spinner.Start()
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", input, c.cfg.Render.Output) + pipeline.Extension(pipeline.FormatJSON)
	}
	if err := os.WriteFile(outputPath, result.Artifacts[pipeline.FormatJSON], 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(result.Stats.StepCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit)
	for _, w := range result.Diagram.Warnings {
		printWarning("%s", w)
	}
	printNewline()
	printNextStep("Render", appName+" render "+input)

	return nil
}
