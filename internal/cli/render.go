package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/pkg/pipeline"
)

// renderOpts holds the flags of the render command.
type renderOpts struct {
	output   string   // output file (single format) or base path
	formats  []string // svg, png, dot, json
	selected string   // step drawn with the active style
	noCache  bool
	refresh  bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [rule.json]",
		Short: "Render a rule to SVG, PNG, DOT or layout JSON",
		Long: `Render a rule to SVG, PNG, DOT or layout JSON.

SVG is drawn directly from the computed diagram. DOT pins every step at its
computed position; PNG is produced from that DOT by Graphviz.

Output files are named after the input (checkout.json → checkout.svg) unless
-o is given. With several formats, -o is used as the base path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if formatsStr == "" {
				opts.formats = c.cfg.Render.Formats
			} else {
				formats, err := pipeline.ParseFormats(formatsStr)
				if err != nil {
					return err
				}
				opts.formats = formats
			}
			return c.runRender(cmd.Context(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg, png, dot, json (comma-separated; default from config)")
	cmd.Flags().StringVar(&opts.selected, "selected", "", "highlight this step")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when cached")

	return cmd
}

func (c *CLI) runRender(ctx context.Context, input string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Debugf("Rendering %s", input)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	popts := c.pipelineOptions(input)
	popts.Formats = opts.formats
	popts.Selected = opts.selected
	popts.Refresh = opts.refresh

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.formats, ", ")))
	spinner.Start()
	result, err := runner.Execute(ctx, popts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	paths := outputPaths(opts.output, input, c.cfg.Render.Output, opts.formats)
	for _, format := range opts.formats {
		if err := os.WriteFile(paths[format], result.Artifacts[format], 0o644); err != nil {
			return fmt.Errorf("write output %s: %w", paths[format], err)
		}
		logger.Debug("wrote output", "format", format, "bytes", len(result.Artifacts[format]))
	}

	printSuccess("Rendered %s", result.Rule.ID)
	for _, format := range opts.formats {
		printFile(paths[format])
	}
	printStats(result.Stats.StepCount, result.Stats.EdgeCount, result.CacheInfo.LayoutHit && result.CacheInfo.RenderHit)
	for _, w := range result.Diagram.Warnings {
		printWarning("%s", w)
	}
	return nil
}

// outputPaths maps each format to its file. A single format with an
// explicit -o is written exactly there.
func outputPaths(output, input, outputDir string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if output != "" && len(formats) == 1 {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input, outputDir)
	for _, f := range formats {
		paths[f] = base + pipeline.Extension(f)
	}
	return paths
}
