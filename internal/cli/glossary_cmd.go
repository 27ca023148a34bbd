package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/glossary"
)

func newGlossaryCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "glossary",
		Aliases: []string{"terms"},
		Short:   "Browse and search the business glossary",
	}

	cmd.AddCommand(
		newGlossaryListCmd(rt),
		newGlossaryCategoriesCmd(rt),
		newGlossarySearchCmd(rt),
		newGlossaryShowCmd(rt),
	)

	return cmd
}

func newGlossaryListCmd(rt *runtime) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List glossary terms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			g := a.Pipeline.Glossary()
			entries := g.Terms
			if category != "" {
				entries = glossary.EntriesByCategory(g, category)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, formatter.FormatGlossaryList(entries))
			fmt.Fprintln(out, formatter.Dim(fmt.Sprintf("\nglossary %s, %d terms", orUnknown(g.Version), len(entries))))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "only terms in this category")
	return cmd
}

func orUnknown(s string) string {
	if s == "" {
		return "(unversioned)"
	}
	return "v" + s
}

func newGlossaryCategoriesCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List glossary categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			g := a.Pipeline.Glossary()
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCategories(g, glossary.Categories(g)))
			return nil
		},
	}
}

func newGlossarySearchCmd(rt *runtime) *cobra.Command {
	var threshold float64

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find terms and aliases mentioned in a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if threshold < 0 || threshold > 1 {
				return fmt.Errorf("--threshold must be between 0 and 1, got %g", threshold)
			}
			a, err := rt.App()
			if err != nil {
				return err
			}
			matches := glossary.Search(question(args), a.Pipeline.Glossary(), threshold)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatGlossaryMatches(matches))
			return nil
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", glossary.DefaultThreshold, "minimum match confidence")
	return cmd
}

func newGlossaryShowCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <term>",
		Short: "Show one term by name or alias",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			name := question(args)
			e, ok := findTerm(a.Pipeline.Glossary(), name)
			if !ok {
				return fmt.Errorf("glossary term not found: %q", name)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderBox("glossary term", formatter.FormatGlossaryEntry(e)))
			return nil
		},
	}
}

// findTerm matches a term name first and an alias second, ignoring case.
func findTerm(g *domain.DomainGlossary, name string) (domain.GlossaryEntry, bool) {
	for _, e := range g.Terms {
		if strings.EqualFold(e.Term, name) {
			return e, true
		}
	}
	for _, e := range g.Terms {
		for _, alias := range e.Aliases {
			if strings.EqualFold(alias, name) {
				return e, true
			}
		}
	}
	return domain.GlossaryEntry{}, false
}
