package main

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/cockroachdb/errors"
	"github.com/effective-security/llmrelay/pkg/fallback"
	"github.com/effective-security/llmrelay/pkg/llms"
	"github.com/effective-security/llmrelay/pkg/llmutils"
	"github.com/effective-security/llmrelay/pkg/strategy"
)

const resultTemplate = `
Results:
Success: {{ if .Success }}yes{{ else }}no{{ end }}
{{- if .Success }}
Model Used: {{ displayName .ModelUsed }}
{{- with .Cost }}
Cost: ${{ printf "%.4f" (deref .) }}
{{- end }}
{{- with .Usage }}
Usage: input={{ .InputTokens }} output={{ .OutputTokens }} total={{ .TotalTokens }}
{{- end }}

Response:
{{ .Content | trim }}
{{- else }}
Error: {{ .ErrorSummary }}
{{- end }}
{{- if .Attempts }}

Attempt History:
{{- range $i, $a := .Attempts }}
  {{ add1 $i }}. {{ $a.DisplayName }}: {{ if $a.Succeeded }}success{{ else }}failed{{ end }}
{{- if $a.Error }}
     Error: {{ abbrev 83 $a.Error }}
{{- end }}
{{- end }}
{{- end }}
`

func (c *cli) resultTemplate() *template.Template {
	funcs := sprig.TxtFuncMap()
	funcs["displayName"] = c.reg.DisplayName
	funcs["deref"] = func(v *float64) float64 { return *v }
	return template.Must(template.New("result").Funcs(funcs).Parse(resultTemplate))
}

func (c *cli) printResult(res *fallback.Result) error {
	switch c.flags.format {
	case "json":
		fmt.Fprintln(c.out, llmutils.ToJSONIndent(res))
	case "yaml":
		fmt.Fprint(c.out, llmutils.ToYAML(res))
	default:
		var b strings.Builder
		if err := c.resultTemplate().Execute(&b, res); err != nil {
			return errors.WithStack(err)
		}
		fmt.Fprint(c.out, llmutils.EnsureEndsWithNewline(b.String()))
	}
	return nil
}

func (c *cli) listModels() int {
	factory, err := c.factory()
	if err != nil {
		fmt.Fprintf(c.errOut, "error: %s\n", err.Error())
		return exitUsage
	}

	entries := c.reg.Entries()
	switch c.flags.format {
	case "json":
		fmt.Fprintln(c.out, llmutils.ToJSONIndent(entries))
	case "yaml":
		fmt.Fprint(c.out, llmutils.ToYAML(entries))
	default:
		fmt.Fprintln(c.out, "Available Models:")
		for _, e := range entries {
			fmt.Fprintf(c.out, "  %s: %s\n", e.Key, e.DisplayName())
		}
		fmt.Fprintf(c.out, "\nConfigured Providers: %s\n", providerList(factory.ProviderTypes()))
	}
	return exitOK
}

func providerList(types []llms.ProviderType) string {
	if len(types) == 0 {
		return "none"
	}
	names := make([]string, len(types))
	for i, pt := range types {
		names[i] = string(pt)
	}
	return strings.Join(names, ", ")
}

func (c *cli) listStrategies() int {
	var list []*strategy.Strategy
	for _, name := range c.catalog.Names() {
		s, _ := c.catalog.Get(name)
		list = append(list, s)
	}
	switch c.flags.format {
	case "json":
		fmt.Fprintln(c.out, llmutils.ToJSONIndent(list))
	case "yaml":
		fmt.Fprint(c.out, llmutils.ToYAML(list))
	default:
		fmt.Fprintln(c.out, "Example Strategies:")
		for _, s := range list {
			fmt.Fprintf(c.out, "  %s: %s\n", s.Name, strings.Join(s.Models, ", "))
		}
	}
	return exitOK
}

