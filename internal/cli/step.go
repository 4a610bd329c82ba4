package cli

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/pkg/editor"
	"github.com/matzehuels/rulemaker/pkg/rule"
)

// stepFlags are shared by every step subcommand.
type stepFlags struct {
	output string // write here instead of editing in place
	ruleID string // rule to edit in a multi-rule file
}

func (f *stepFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write the result here instead of editing in place")
	cmd.Flags().StringVar(&f.ruleID, "rule", "", "rule id in a multi-rule file (default: first)")
}

// stepCommand creates the step command group.
func (c *CLI) stepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Edit the steps of a rule file",
		Long: `Edit the steps of a rule file without opening the editor.

Every subcommand refuses changes that would break the rule (removing a step
that still has next steps, renaming onto an existing id) and leaves the file
untouched in that case. Multi-rule files keep their other rules.`,
	}

	cmd.AddCommand(c.stepAddCommand(false))
	cmd.AddCommand(c.stepAddCommand(true))
	cmd.AddCommand(c.stepRemoveCommand())
	cmd.AddCommand(c.stepRenameCommand())
	cmd.AddCommand(c.stepSwapCommand())
	cmd.AddCommand(c.stepMoveCommand())

	return cmd
}

func (c *CLI) stepAddCommand(sub bool) *cobra.Command {
	var (
		flags  stepFlags
		id     string
		parent string
	)
	use, short, args := "add [rule.json]", "Add a main step, spliced in after --after", cobra.ExactArgs(1)
	if sub {
		use, short, args = "add-sub [rule.json] [parent]", "Add a sub-step under parent", cobra.ExactArgs(2)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []editor.Option
			if id != "" {
				opts = append(opts, editor.WithIDGenerator(func() string { return id }))
			}
			if sub {
				parent = args[1]
			}
			return c.editFile(cmd.Context(), args[0], flags, opts, func(s *editor.Session) error {
				var (
					step *rule.Step
					err  error
				)
				if sub {
					step, err = s.AddSubStep(parent)
				} else {
					step, err = s.AddStep(parent)
				}
				if err != nil {
					return err
				}
				printSuccess("Added step %s", StyleValue.Render(step.ID))
				return nil
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "id of the new step (default: generated)")
	if !sub {
		cmd.Flags().StringVar(&parent, "after", "", "splice the step in after this step")
	}
	return cmd
}

func (c *CLI) stepRemoveCommand() *cobra.Command {
	var flags stepFlags
	cmd := &cobra.Command{
		Use:   "remove [rule.json] [step]",
		Short: "Remove a step that has no next steps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editFile(cmd.Context(), args[0], flags, nil, func(s *editor.Session) error {
				if err := s.RemoveStep(args[1]); err != nil {
					return err
				}
				printSuccess("Removed step %s", StyleValue.Render(args[1]))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) stepRenameCommand() *cobra.Command {
	var flags stepFlags
	cmd := &cobra.Command{
		Use:   "rename [rule.json] [old] [new]",
		Short: "Rename a step and every reference to it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editFile(cmd.Context(), args[0], flags, nil, func(s *editor.Session) error {
				if err := s.RenameStep(args[1], args[2]); err != nil {
					return err
				}
				printSuccess("Renamed %s %s %s", args[1], iconArrow, StyleValue.Render(args[2]))
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

func (c *CLI) stepSwapCommand() *cobra.Command {
	var flags stepFlags
	cmd := &cobra.Command{
		Use:   "swap [rule.json] [a] [b]",
		Short: "Exchange the positions of two steps in the graph",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.editFile(cmd.Context(), args[0], flags, nil, func(s *editor.Session) error {
				if err := s.SwapSteps(args[1], args[2]); err != nil {
					return err
				}
				printSuccess("Swapped %s and %s", args[1], args[2])
				return nil
			})
		},
	}
	flags.register(cmd)
	return cmd
}

// stepMoveCommand pins a step in the saved editor state. The rule file is
// not modified.
func (c *CLI) stepMoveCommand() *cobra.Command {
	var (
		ruleID   string
		stateDir string
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "move [rule.json] [step] [x] [y]",
		Short: "Pin a step at a position for the editor",
		Args:  cobra.RangeArgs(1, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !reset && len(args) != 4 {
				return cobra.ExactArgs(4)(cmd, args)
			}
			ctx := cmd.Context()
			s, err := c.openSession(args[0], ruleID, nil)
			if err != nil {
				return err
			}
			store, err := editor.NewStateStore(stateDir)
			if err != nil {
				return err
			}
			if _, err := s.RestoreState(ctx, store); err != nil {
				return err
			}
			if reset {
				s.Rearrange()
				printSuccess("Cleared manual positions of %s", s.Rule().ID)
				return s.SaveState(ctx, store)
			}
			x, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return err
			}
			y, err := strconv.ParseFloat(args[3], 64)
			if err != nil {
				return err
			}
			if err := s.MoveStep(args[1], x, y); err != nil {
				return err
			}
			if err := s.SaveState(ctx, store); err != nil {
				return err
			}
			printSuccess("Pinned %s at (%g, %g)", args[1], x, y)
			return nil
		},
	}
	cmd.Flags().StringVar(&ruleID, "rule", "", "rule id in a multi-rule file (default: first)")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "editor state directory (default: $XDG_CONFIG_HOME/rulemaker/state)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop every manual position of the rule")
	return cmd
}

// openSession imports path and switches to ruleID when given.
func (c *CLI) openSession(path, ruleID string, opts []editor.Option) (*editor.Session, error) {
	opts = append([]editor.Option{editor.WithConfig(c.cfg.Diagram()), editor.WithLogger(c.Logger)}, opts...)
	s := editor.New(opts...)
	if err := s.Import(path); err != nil {
		return nil, err
	}
	if ruleID != "" {
		if err := s.Switch(ruleID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// editFile applies fn to a rule file and writes the result. Nothing is
// written when fn fails.
func (c *CLI) editFile(ctx context.Context, path string, flags stepFlags, opts []editor.Option, fn func(*editor.Session) error) error {
	s, err := c.openSession(path, flags.ruleID, opts)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	out := flags.output
	if out == "" {
		out = path
	}
	if err := save(s, out); err != nil {
		return err
	}
	loggerFromContext(ctx).Debug("saved rule", "path", out, "rule", s.Rule().ID)
	printFile(out)
	return nil
}

// save writes the session back in the shape it was read: multi-rule files
// keep every rule.
func save(s *editor.Session, path string) error {
	if len(s.Rules()) > 1 {
		return s.ExportAll(path, nil)
	}
	return s.Export(path)
}
