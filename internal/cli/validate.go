package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	errs "github.com/matzehuels/rulemaker/pkg/errors"
	"github.com/matzehuels/rulemaker/pkg/io"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [rule.json]",
		Short: "Check rules for dangling references and duplicate ids",
		Long: `Check every rule in a file for references to missing steps and for
duplicate step ids. Isolated steps (no incoming and no outgoing connection)
are listed as warnings, or as errors with --strict.

The command exits non-zero when a problem is found.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(cmd.Context(), args[0], strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat isolated steps as errors")

	return cmd
}

// ruleReport is the outcome of checking one rule.
type ruleReport struct {
	ID       string
	Problems []string
	Isolated []string
}

func checkRule(r *rule.Rule) ruleReport {
	rep := ruleReport{ID: r.ID, Problems: r.Validate()}
	for _, s := range r.FindIsolatedSteps() {
		rep.Isolated = append(rep.Isolated, s.ID)
	}
	return rep
}

func (c *CLI) runValidate(ctx context.Context, input string, strict bool) error {
	progress := newProgress(loggerFromContext(ctx))
	rules, err := io.ImportFile(input)
	if err != nil {
		return err
	}
	if len(rules) == 0 {
		return errs.New(errs.ErrCodeNoRules, "No rules found in file")
	}

	var rows [][]string
	failed := 0
	for _, r := range rules {
		rep := checkRule(r)
		status := StyleSuccess.Render(iconSuccess)
		bad := len(rep.Problems) > 0 || (strict && len(rep.Isolated) > 0)
		if bad {
			status = StyleError.Render(iconError)
			failed++
		} else if len(rep.Isolated) > 0 {
			status = StyleWarning.Render(iconWarning)
		}
		rows = append(rows, []string{
			status,
			rep.ID,
			joinOrDash(rep.Problems, "\n"),
			joinOrDash(rep.Isolated, ", "),
		})
	}
	progress.done("validated rules", "rules", len(rules))

	printTable([]string{"", "Rule", "Problems", "Isolated"}, rows)
	if failed > 0 {
		return errs.New(errs.ErrCodeInvalidInput, "%d of %d rules have problems", failed, len(rules))
	}
	printSuccess("%d rules valid", len(rules))
	return nil
}

func joinOrDash(items []string, sep string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, sep)
}
