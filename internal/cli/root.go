// Package cli is the apidocs command line: one-shot commands for classifying
// questions, browsing the glossary and catalog, asking the assistant and
// sending playground requests, plus the interactive chat and the HTTP server.
package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/mediajel/apidocs/internal/app"
)

// Loader builds the App for a command, given the --config flag value.
type Loader func(configFile string) (*app.App, error)

// runtime loads the App on first use so that help and completion work
// without a config or database.
type runtime struct {
	load       Loader
	configFile string
	app        *app.App

	// interactive reports whether stdout is a terminal. Tests override it.
	interactive func() bool
}

func (r *runtime) App() (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	a, err := r.load(r.configFile)
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

// IsInteractive reports whether stdout is attached to a terminal.
func IsInteractive() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// NewRootCmd creates the top-level "apidocs" command. The App is built by
// load when the first command that needs it runs.
func NewRootCmd(load Loader) *cobra.Command {
	return newRootCmd(&runtime{load: load, interactive: IsInteractive})
}

func newRootCmd(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:           "apidocs",
		Short:         "Assistant and reference tools for the documented GraphQL API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&rt.configFile, "config", "", "config file (default ./apidocs.yaml or ~/.apidocs/apidocs.yaml)")

	root.AddCommand(
		newClassifyCmd(rt),
		newContextCmd(rt),
		newGlossaryCmd(rt),
		newOpsCmd(rt),
		newAskCmd(rt),
		newThreadsCmd(rt),
		newChatCmd(rt),
		newPlaygroundCmd(rt),
		newServeCmd(rt),
	)

	return root
}
