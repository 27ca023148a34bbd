package cli

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newChatCmd(rt *runtime) *cobra.Command {
	var threadID string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rt.interactive() {
				return errors.New("chat needs a terminal; use 'apidocs ask' instead")
			}
			a, err := rt.App()
			if err != nil {
				return err
			}

			m := newChatModel(cmd.Context(), a.Assistant, a.Pipeline.Classify, threadID)
			defer m.cancel()
			_, err = tea.NewProgram(m,
				tea.WithContext(cmd.Context()),
				tea.WithInput(cmd.InOrStdin()),
				tea.WithOutput(cmd.OutOrStdout()),
			).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "resume this conversation")
	return cmd
}
