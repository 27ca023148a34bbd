package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/llm"
	"github.com/mediajel/apidocs/internal/service"
)

func newAskCmd(rt *runtime) *cobra.Command {
	var (
		threadID string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question",
		Long: `Ask the assistant one question. The answer is streamed as it arrives,
or rendered as markdown once complete when writing to a terminal. Pass
--thread to continue an earlier conversation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := question(args)
			if q == "" {
				return errNoQuestion
			}
			a, err := rt.App()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()
			render := rt.interactive() && !raw

			fmt.Fprintln(errOut, formatter.IntentLine(a.Pipeline.Classify(q)))

			var answer strings.Builder
			stop := func() {}
			if render {
				stop = formatter.StartSpinner(errOut, "Thinking...")
			}
			res, err := a.Assistant.AskStream(cmd.Context(), service.AskRequest{
				ThreadID: threadID,
				Messages: []llm.Message{{Role: domain.RoleUser, Content: q}},
			}, func(ev llm.StreamEvent) error {
				if ev.Delta == "" {
					return nil
				}
				if render {
					answer.WriteString(ev.Delta)
					return nil
				}
				_, err := fmt.Fprint(out, ev.Delta)
				return err
			})
			stop()
			if err != nil {
				return err
			}

			if render {
				fmt.Fprint(out, formatter.RenderMarkdown(answer.String(), 0))
			} else {
				fmt.Fprintln(out)
			}
			fmt.Fprintln(errOut, formatter.Dim("thread "+res.ThreadID))
			return nil
		},
	}
	cmd.Flags().StringVar(&threadID, "thread", "", "continue this conversation")
	cmd.Flags().BoolVar(&raw, "raw", false, "stream plain text even on a terminal")
	return cmd
}

func newThreadsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "threads",
		Short: "Manage stored conversations",
	}

	cmd.AddCommand(
		newThreadsListCmd(rt),
		newThreadsShowCmd(rt),
		newThreadsDeleteCmd(rt),
	)

	return cmd
}

func newThreadsListCmd(rt *runtime) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			threads, err := a.Assistant.Threads(cmd.Context(), limit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatThreads(threads))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum conversations to list")
	return cmd
}

func newThreadsShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <thread-id>",
		Short: "Print a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			messages, err := a.Assistant.Messages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(messages) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim("No messages."))
				return nil
			}
			rt.printMarkdown(cmd, formatter.FormatTranscript(messages))
			return nil
		},
	}
}

func newThreadsDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <thread-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a conversation and its messages",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			if err := a.Assistant.DeleteThread(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted thread %s\n", args[0])
			return nil
		},
	}
}
