package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/intelligence"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printMarkdown renders md on a terminal and writes it raw otherwise.
func (r *runtime) printMarkdown(cmd *cobra.Command, md string) {
	out := cmd.OutOrStdout()
	if r.interactive() {
		fmt.Fprint(out, formatter.RenderMarkdown(md, 0))
		return
	}
	fmt.Fprint(out, md)
	if !strings.HasSuffix(md, "\n") {
		fmt.Fprintln(out)
	}
}

// question joins positional args so quoting is optional.
func question(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// contextFlags are the context-building switches shared by commands that
// build schema context.
type contextFlags struct {
	maxChars   int
	noExamples bool
	noTypes    bool
	noGlossary bool
}

func (f *contextFlags) register(fs *pflag.FlagSet) {
	fs.IntVar(&f.maxChars, "max-chars", 0, "context budget in characters (default 32000)")
	fs.BoolVar(&f.noExamples, "no-examples", false, "omit example queries")
	fs.BoolVar(&f.noTypes, "no-types", false, "omit the related types section")
	fs.BoolVar(&f.noGlossary, "no-glossary", false, "omit business term definitions")
}

func (f *contextFlags) options() intelligence.ContextOptions {
	return intelligence.ContextOptions{
		MaxChars:        f.maxChars,
		IncludeExamples: intelligence.Bool(!f.noExamples),
		IncludeTypes:    intelligence.Bool(!f.noTypes),
		IncludeGlossary: intelligence.Bool(!f.noGlossary),
	}
}
