package service

import (
	"bytes"
	"encoding/json"
	"strings"
)

// SnippetOptions describes the GraphQL request to render as client code.
type SnippetOptions struct {
	Query     string
	Variables any
	Endpoint  string
}

// Snippets holds ready-to-paste client code for one request.
type Snippets struct {
	Curl            string `json:"curl"`
	JavaScript      string `json:"javascript"`
	JavaScriptAxios string `json:"javascriptAxios"`
	Python          string `json:"python"`
	NodeAxios       string `json:"nodeAxios"`
}

// SnippetLanguages lists the snippet keys in display order.
var SnippetLanguages = []string{"curl", "javascript", "javascriptAxios", "python", "nodeAxios"}

// Get returns the snippet for one of SnippetLanguages.
func (s Snippets) Get(lang string) (string, bool) {
	switch lang {
	case "curl":
		return s.Curl, true
	case "javascript", "js":
		return s.JavaScript, true
	case "javascriptAxios", "axios":
		return s.JavaScriptAxios, true
	case "python", "py":
		return s.Python, true
	case "nodeAxios", "node":
		return s.NodeAxios, true
	}
	return "", false
}

type graphQLBody struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

// GenerateSnippets renders opts as curl, fetch, axios, Python requests and
// Node axios code. Empty variables are left out of every snippet.
func GenerateSnippets(opts SnippetOptions) Snippets {
	vars, hasVars := variablesJSON(opts.Variables)

	body := graphQLBody{Query: opts.Query}
	if hasVars {
		body.Variables = opts.Variables
	}
	bodyJSON, _ := indentJSON(body)

	query := strings.TrimSpace(opts.Query)
	return Snippets{
		Curl:            curlSnippet(opts.Endpoint, bodyJSON),
		JavaScript:      fetchSnippet(opts.Endpoint, query, vars, hasVars),
		JavaScriptAxios: "import axios from 'axios';\n\n" + axiosBody(opts.Endpoint, query, vars, hasVars),
		Python:          pythonSnippet(opts.Endpoint, query, vars, hasVars),
		NodeAxios:       "const axios = require('axios');\n\n" + axiosBody(opts.Endpoint, query, vars, hasVars),
	}
}

// variablesJSON reports whether v carries at least one variable and, if so,
// its indented JSON.
func variablesJSON(v any) (string, bool) {
	if v == nil {
		return "", false
	}
	out, err := indentJSON(v)
	if err != nil {
		return "", false
	}
	switch strings.TrimSpace(out) {
	case "null", "{}", "[]", `""`:
		return "", false
	}
	return out, true
}

func indentJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func curlSnippet(endpoint, bodyJSON string) string {
	escaped := strings.ReplaceAll(bodyJSON, "'", `'\''`)
	return "curl -X POST " + endpoint + " \\\n" +
		"  -H \"Content-Type: application/json\" \\\n" +
		"  -H \"Authorization: Bearer YOUR_ACCESS_TOKEN\" \\\n" +
		"  -H \"Key: YOUR_ORG_ID\" \\\n" +
		"  -d '" + escaped + "'"
}

func jsVariables(vars string, hasVars bool) string {
	if !hasVars {
		return ""
	}
	return "const variables = " + vars + ";"
}

func fetchSnippet(endpoint, query, vars string, hasVars bool) string {
	fields := "query"
	if hasVars {
		fields = "query, variables"
	}
	return "const query = `" + query + "`;\n" +
		jsVariables(vars, hasVars) + "\n\n" +
		"fetch('" + endpoint + "', {\n" +
		"  method: 'POST',\n" +
		"  headers: {\n" +
		"    'Content-Type': 'application/json',\n" +
		"    'Authorization': 'Bearer YOUR_ACCESS_TOKEN',\n" +
		"    'Key': 'YOUR_ORG_ID'\n" +
		"  },\n" +
		"  body: JSON.stringify({ " + fields + " })\n" +
		"})\n" +
		"  .then(res => res.json())\n" +
		"  .then(data => console.log(data))\n" +
		"  .catch(error => console.error(error));"
}

func axiosBody(endpoint, query, vars string, hasVars bool) string {
	fields := "query"
	if hasVars {
		fields = "query,\n  variables"
	}
	return "const query = `" + query + "`;\n" +
		jsVariables(vars, hasVars) + "\n\n" +
		"axios.post('" + endpoint + "', {\n" +
		"  " + fields + "\n" +
		"}, {\n" +
		"  headers: {\n" +
		"    'Content-Type': 'application/json',\n" +
		"    'Authorization': 'Bearer YOUR_ACCESS_TOKEN',\n" +
		"    'Key': 'YOUR_ORG_ID'\n" +
		"  }\n" +
		"})\n" +
		"  .then(response => console.log(response.data))\n" +
		"  .catch(error => console.error(error));"
}

func pythonSnippet(endpoint, query, vars string, hasVars bool) string {
	escaped := strings.ReplaceAll(query, `"""`, `\"\"\"`)
	varsLine, varsArg := "", ""
	if hasVars {
		varsLine = "variables = " + vars
		varsArg = ", 'variables': variables"
	}
	return "import requests\n\n" +
		"query = \"\"\"" + escaped + "\"\"\"\n" +
		varsLine + "\n\n" +
		"response = requests.post(\n" +
		"    '" + endpoint + "',\n" +
		"    json={'query': query" + varsArg + "},\n" +
		"    headers={\n" +
		"        'Content-Type': 'application/json',\n" +
		"        'Authorization': 'Bearer YOUR_ACCESS_TOKEN',\n" +
		"        'Key': 'YOUR_ORG_ID'\n" +
		"    }\n" +
		")\n\n" +
		"print(response.json())"
}
