package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediajel/apidocs/internal/app"
	"github.com/mediajel/apidocs/internal/catalog"
	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/intelligence"
	"github.com/mediajel/apidocs/internal/service"
)

func newOpsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "ops",
		Aliases: []string{"operations"},
		Short:   "Browse the documented operations and types",
	}

	cmd.AddCommand(
		newOpsListCmd(rt),
		newOpsShowCmd(rt),
		newOpsSnippetsCmd(rt),
		newOpsTypeCmd(rt),
	)

	return cmd
}

func newOpsListCmd(rt *runtime) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operations by category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			ops := a.Catalog.ListOperations()
			if category != "" {
				ops = a.Catalog.OperationsByCategory(category)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOperationList(a.Catalog.Categories(), ops))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only operations in this category")
	return cmd
}

// lookupOperation finds an operation by exact name, then ignoring case.
func lookupOperation(a *app.App, name string) (domain.OperationInfo, error) {
	if op, ok := a.Catalog.FindOperationFold(name); ok {
		return op, nil
	}
	return domain.OperationInfo{}, fmt.Errorf("%w: %q", catalog.ErrOperationNotFound, name)
}

func newOpsShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <operation>",
		Short: "Show an operation's arguments, return type and example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			op, err := lookupOperation(a, args[0])
			if err != nil {
				return err
			}
			rt.printMarkdown(cmd, formatter.FormatOperationDetail(op))
			return nil
		},
	}
}

func newOpsSnippetsCmd(rt *runtime) *cobra.Command {
	var lang, endpoint string

	cmd := &cobra.Command{
		Use:   "snippets <operation>",
		Short: "Print ready-to-run code calling an operation's example",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			op, err := lookupOperation(a, args[0])
			if err != nil {
				return err
			}
			if endpoint == "" {
				endpoint = a.GraphQLEndpoint()
			}
			snippets := service.GenerateSnippets(service.SnippetOptions{
				Query:     op.ExampleQuery,
				Variables: op.ExampleVariables,
				Endpoint:  endpoint,
			})

			out := cmd.OutOrStdout()
			if lang != "" {
				text, ok := snippets.Get(lang)
				if !ok {
					return fmt.Errorf("unknown --lang %q, want one of %s", lang, strings.Join(service.SnippetLanguages, ", "))
				}
				fmt.Fprintln(out, text)
				return nil
			}
			for i, l := range service.SnippetLanguages {
				text, _ := snippets.Get(l)
				if i > 0 {
					fmt.Fprintln(out)
				}
				fmt.Fprintln(out, formatter.Header(l))
				fmt.Fprintln(out, text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "one of "+strings.Join(service.SnippetLanguages, ", "))
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "GraphQL endpoint (default from config or catalog)")
	return cmd
}

func newOpsTypeCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "type [name]",
		Short: "Show a schema type, or list all types",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				rows := make([][]string, 0)
				for _, t := range a.Catalog.ListTypes() {
					rows = append(rows, []string{formatter.Bold(t.Name), formatter.Dim(string(t.Kind))})
				}
				fmt.Fprint(out, formatter.RenderTable([]string{"TYPE", "KIND"}, rows))
				return nil
			}
			t, err := a.Catalog.LookupType(args[0])
			if err != nil {
				return err
			}
			rt.printMarkdown(cmd, intelligence.FormatType(t))
			return nil
		},
	}
}
