package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mediajel/apidocs/internal/app"
	"github.com/mediajel/apidocs/internal/cli/formatter"
	"github.com/mediajel/apidocs/internal/service"
)

func newPlaygroundCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "playground",
		Aliases: []string{"pg"},
		Short:   "Send requests to the API and review past ones",
	}

	cmd.AddCommand(
		newPlaygroundExecCmd(rt),
		newPlaygroundHistoryCmd(rt),
		newPlaygroundClearCmd(rt),
	)

	return cmd
}

type execFlags struct {
	method    string
	url       string
	headers   []string
	data      string
	operation string
	query     string
	variables string
	token     string
	orgKey    string
	verbose   bool
}

func newPlaygroundExecCmd(rt *runtime) *cobra.Command {
	var f execFlags

	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Send one request",
		Long: `Send one request. With --op or --query a GraphQL POST is built against
the configured endpoint; otherwise --url, --method, --header and --data
describe a raw request. On a terminal, a missing --token is asked for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}

			var req service.HTTPRequest
			if f.operation != "" || f.query != "" {
				if f.token == "" && rt.interactive() {
					if err := askCredentials(&f); err != nil {
						return err
					}
				}
				req, err = graphQLRequest(a, f)
			} else {
				req, err = rawRequest(f)
			}
			if err != nil {
				return err
			}

			res, err := a.Playground.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatHTTPResult(res, f.verbose))
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.method, "method", "X", "GET", "HTTP method for raw requests")
	fs.StringVar(&f.url, "url", "", "request URL (default: the GraphQL endpoint)")
	fs.StringArrayVarP(&f.headers, "header", "H", nil, `request header as "Name: value", repeatable`)
	fs.StringVarP(&f.data, "data", "d", "", "raw request body")
	fs.StringVar(&f.operation, "op", "", "send this operation's example query and variables")
	fs.StringVar(&f.query, "query", "", "GraphQL document to send")
	fs.StringVar(&f.variables, "variables", "", "GraphQL variables as a JSON object")
	fs.StringVar(&f.token, "token", "", "access token sent as a Bearer credential")
	fs.StringVar(&f.orgKey, "org-key", "", "organization key sent in the Key header")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "print response headers")
	cmd.MarkFlagsMutuallyExclusive("op", "query")
	cmd.MarkFlagsMutuallyExclusive("op", "data")
	cmd.MarkFlagsMutuallyExclusive("query", "data")
	return cmd
}

func askCredentials(f *execFlags) error {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Access token").
				Description("From authSignIn; leave empty for public operations").
				EchoMode(huh.EchoModePassword).
				Value(&f.token),
			huh.NewInput().
				Title("Organization key").
				Description("Sent as the Key header").
				Value(&f.orgKey),
		),
	).WithTheme(apidocsHuhTheme()).Run()
}

func graphQLRequest(a *app.App, f execFlags) (service.HTTPRequest, error) {
	query := f.query
	var variables any
	if f.operation != "" {
		op, err := lookupOperation(a, f.operation)
		if err != nil {
			return service.HTTPRequest{}, err
		}
		query, variables = op.ExampleQuery, op.ExampleVariables
	}
	if f.variables != "" {
		var vars map[string]any
		if err := json.Unmarshal([]byte(f.variables), &vars); err != nil {
			return service.HTTPRequest{}, fmt.Errorf("--variables must be a JSON object: %w", err)
		}
		variables = vars
	}

	endpoint := f.url
	if endpoint == "" {
		endpoint = a.GraphQLEndpoint()
	}
	req, err := service.BuildGraphQLRequest(endpoint, service.GraphQLAuth{Token: f.token, OrgKey: f.orgKey}, query, variables)
	if err != nil {
		return service.HTTPRequest{}, err
	}
	for k, v := range parseHeaders(f.headers) {
		req.Headers[k] = v
	}
	return req, nil
}

func rawRequest(f execFlags) (service.HTTPRequest, error) {
	if f.url == "" {
		return service.HTTPRequest{}, fmt.Errorf("--url is required without --op or --query")
	}
	return service.HTTPRequest{
		Method:  strings.ToUpper(f.method),
		URL:     f.url,
		Headers: parseHeaders(f.headers),
		Body:    f.data,
	}, nil
}

// parseHeaders reads curl-style "Name: value" pairs. Entries without a colon
// are ignored.
func parseHeaders(raw []string) map[string]string {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers
}

func newPlaygroundHistoryCmd(rt *runtime) *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			records, err := a.Playground.History(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd.OutOrStdout(), records)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatRequestHistory(records))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum requests to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full records as JSON")
	return cmd
}

func newPlaygroundClearCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the request history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := rt.App()
			if err != nil {
				return err
			}
			if err := a.Playground.ClearHistory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Request history cleared.")
			return nil
		},
	}
}
