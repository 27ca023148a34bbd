package formatter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mediajel/apidocs/internal/domain"
)

// FormatOperationList renders operations grouped by category, in category
// order. Operations in no known category are listed last.
func FormatOperationList(categories []domain.Category, ops []domain.OperationInfo) string {
	if len(ops) == 0 {
		return Dim("No operations.") + "\n"
	}
	byCategory := make(map[string][]domain.OperationInfo)
	for _, op := range ops {
		byCategory[op.Category] = append(byCategory[op.Category], op)
	}

	var b strings.Builder
	section := func(title string, ops []domain.OperationInfo) {
		if len(ops) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(Header(title))
		b.WriteString("\n")
		for _, op := range ops {
			fmt.Fprintf(&b, "  %s %s  %s\n", operationKind(op.Type), StyleBold.Render(op.Name), Dim(Truncate(op.Description, 70)))
		}
	}
	for _, c := range categories {
		section(c.Name, byCategory[c.ID])
		delete(byCategory, c.ID)
	}
	var rest []domain.OperationInfo
	for _, op := range ops {
		if _, ok := byCategory[op.Category]; ok {
			rest = append(rest, op)
		}
	}
	section("Other", rest)
	return b.String()
}

func operationKind(t domain.OperationType) string {
	if t == domain.OperationMutation {
		return StyleYellow.Render("M")
	}
	return StyleBlue.Render("Q")
}

// FormatOperationDetail renders one operation's reference page as markdown.
func FormatOperationDetail(op domain.OperationInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", op.Name)
	fmt.Fprintf(&b, "**%s** · category `%s` · returns `%s`\n\n", op.Type, op.Category, op.ReturnType)
	if op.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", op.Description)
	}

	if len(op.Args) > 0 {
		b.WriteString("## Arguments\n\n| Name | Type | Required | Description |\n|---|---|---|---|\n")
		for _, a := range op.Args {
			req := "no"
			if a.Required {
				req = "yes"
			}
			fmt.Fprintf(&b, "| %s | `%s` | %s | %s |\n", a.Name, a.Type, req, a.Description)
		}
		b.WriteString("\n")
	}

	if len(op.ReturnTypeDetails.Fields) > 0 {
		fmt.Fprintf(&b, "## Returns `%s`\n\n", op.ReturnTypeDetails.Name)
		for _, f := range op.ReturnTypeDetails.Fields {
			fmt.Fprintf(&b, "- `%s`: `%s`", f.Name, f.Type)
			if f.Description != "" {
				fmt.Fprintf(&b, " %s", f.Description)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if op.ExampleQuery != "" {
		fmt.Fprintf(&b, "## Example\n\n```graphql\n%s\n```\n\n", op.ExampleQuery)
	}
	writeJSONBlock(&b, "Variables", op.ExampleVariables)
	writeJSONBlock(&b, "Response", op.ExampleResponse)
	return b.String()
}

func writeJSONBlock(b *strings.Builder, title string, v any) {
	if v == nil {
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return
	}
	fmt.Fprintf(b, "### %s\n\n```json\n%s\n```\n\n", title, data)
}
