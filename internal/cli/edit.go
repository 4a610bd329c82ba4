package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/rulemaker/pkg/editor"
)

// editCommand creates the interactive editor command.
func (c *CLI) editCommand() *cobra.Command {
	var (
		ruleID   string
		newID    string
		stateDir string
		noState  bool
	)

	cmd := &cobra.Command{
		Use:   "edit [rule.json]",
		Short: "Edit a rule in the terminal",
		Long: `Edit a rule in the terminal.

The editor lists every step with its role, side and position. Steps can be
added, spliced in, removed, renamed, swapped and moved; each change is laid
out again immediately. Manual positions and the selection are remembered
per rule file between sessions.

With --new, a new empty rule is created and saved to the given path.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			var (
				s   *editor.Session
				err error
			)
			if newID != "" {
				s = editor.New(editor.WithConfig(c.cfg.Diagram()), editor.WithLogger(c.Logger))
				if err := s.NewRule(newID); err != nil {
					return err
				}
				if err := s.Export(path); err != nil {
					return err
				}
			} else if s, err = c.openSession(path, ruleID, nil); err != nil {
				return err
			}

			var store *editor.StateStore
			if !noState {
				if store, err = editor.NewStateStore(stateDir); err != nil {
					c.Logger.Warn("editor state disabled", "error", err)
					store = nil
				} else if ok, err := s.RestoreState(ctx, store); err != nil {
					c.Logger.Warn("could not restore editor state", "error", err)
				} else if ok {
					c.Logger.Debug("restored editor state", "rule", s.Rule().ID)
				}
			}

			model := NewEditorModel(ctx, s, store)
			final, err := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("run editor: %w", err)
			}
			if m, ok := final.(EditorModel); ok && m.session.Dirty() {
				printWarning("Quit without saving changes to %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ruleID, "rule", "", "rule id in a multi-rule file (default: first)")
	cmd.Flags().StringVar(&newID, "new", "", "create a new rule with this id")
	cmd.Flags().StringVar(&stateDir, "state-dir", "", "editor state directory (default: $XDG_CONFIG_HOME/rulemaker/state)")
	cmd.Flags().BoolVar(&noState, "no-state", false, "do not restore or save positions and selection")

	return cmd
}
