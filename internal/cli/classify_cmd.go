package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/intelligence"
)

var errNoQuestion = errors.New("a question is required")

type classifyOutput struct {
	intelligence.ClassifiedIntent
	Description       string `json:"description"`
	LikelyAPIQuestion bool   `json:"likelyApiQuestion"`
}

func newClassifyCmd(rt *runtime) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "classify <question>",
		Short: "Show how a question would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := question(args)
			if q == "" {
				return errNoQuestion
			}
			a, err := rt.App()
			if err != nil {
				return err
			}

			c := a.Pipeline.Classify(q)
			if asJSON {
				return printJSON(cmd.OutOrStdout(), classifyOutput{
					ClassifiedIntent:  c,
					Description:       c.Intent.Describe(),
					LikelyAPIQuestion: intelligence.IsLikelyAPIQuestion(q),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatClassification(c))
			if intelligence.IsLikelyAPIQuestion(q) {
				fmt.Fprintln(out, formatter.Dim("\n  Looks like an API question."))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the classification as JSON")
	return cmd
}

func newContextCmd(rt *runtime) *cobra.Command {
	var (
		flags        contextFlags
		asJSON       bool
		instructions bool
		summary      bool
	)

	cmd := &cobra.Command{
		Use:   "context <question>",
		Short: "Build the schema context the assistant would receive",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := question(args)
			if q == "" {
				return errNoQuestion
			}
			a, err := rt.App()
			if err != nil {
				return err
			}

			qc := a.Pipeline.Run(q, flags.options())
			if asJSON {
				return printJSON(cmd.OutOrStdout(), qc)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, formatter.IntentLine(qc.Classification))
			fmt.Fprintln(out)
			fmt.Fprint(out, formatter.FormatContextSummary(qc.Context))
			if summary {
				return nil
			}
			if qc.Context.Context != "" {
				fmt.Fprintln(out)
				fmt.Fprint(out, qc.Context.Context)
			}
			if instructions && qc.Instructions != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, formatter.Header("Instructions"))
				fmt.Fprint(out, qc.Instructions)
			}
			return nil
		},
	}
	flags.register(cmd.Flags())
	cmd.Flags().BoolVar(&asJSON, "json", false, "print classification, context and instructions as JSON")
	cmd.Flags().BoolVar(&instructions, "instructions", false, "also print the additional instructions")
	cmd.Flags().BoolVar(&summary, "summary", false, "print only what the context contains")
	return cmd
}
