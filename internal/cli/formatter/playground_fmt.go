package formatter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
	"github.com/mediajel/apidocs/internal/service"
)

// FormatHTTPResult renders a playground response: status line, headers when
// verbose, then the body, pretty-printed when it is JSON.
func FormatHTTPResult(res *service.HTTPResult, verbose bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", StatusText(res.Status, res.StatusText), Dim(fmt.Sprintf("%dms", res.TimeMs)))

	if verbose && len(res.Headers) > 0 {
		names := make([]string, 0, len(res.Headers))
		for k := range res.Headers {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(&b, "%s %s\n", Dim(k+":"), res.Headers[k])
		}
	}
	b.WriteString("\n")
	b.WriteString(PrettyJSON(res.Body))
	if !strings.HasSuffix(res.Body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// PrettyJSON indents body when it is valid JSON and returns it unchanged
// otherwise.
func PrettyJSON(body string) string {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return body
	}
	return string(out)
}

// FormatRequestHistory renders recorded playground requests, newest first.
func FormatRequestHistory(records []*domain.RequestRecord) string {
	if len(records) == 0 {
		return Dim("No requests recorded.") + "\n"
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := StatusText(r.StatusCode, http.StatusText(r.StatusCode))
		if r.Error != "" {
			status = StyleRed.Render(Truncate(r.Error, 30))
		}
		rows = append(rows, []string{
			TruncID(r.ID),
			StyleBold.Render(r.Method),
			Truncate(r.URL, 50),
			status,
			fmt.Sprintf("%dms", r.DurationMs),
			Dim(HumanTimestamp(r.CreatedAt)),
		})
	}
	return RenderTable([]string{"ID", "METHOD", "URL", "STATUS", "TIME", "WHEN"}, rows)
}
