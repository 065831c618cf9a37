package redis

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docset/internal/domain/search/body"
	"github.com/kailas-cloud/docset/internal/domain/search/filter"
)

// compileQuery translates a body query into FT.SEARCH query syntax.
// Keyword fields are TAG fields, numeric fields NUMERIC, text fields TEXT.
func compileQuery(q body.Query) string {
	var parts []string

	for _, t := range q.Must {
		parts = append(parts, buildTagFilter(t.Field, t.Value))
	}
	for _, r := range q.Ranges {
		parts = append(parts, buildNumericFilter(r.Field, r.Bounds))
	}
	if q.Text != nil {
		parts = append(parts, buildTextClause(*q.Text))
	}
	for _, t := range q.MustNot {
		parts = append(parts, "-"+buildTagFilter(t.Field, t.Value))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildTagFilter(key, value string) string {
	escaped := tagEscaper.Replace(value)
	return fmt.Sprintf("@%s:{%s}", key, escaped)
}

func buildNumericFilter(key string, r filter.Range) string {
	minBound := "-inf"
	maxBound := "+inf"

	if r.GT() != nil {
		minBound = fmt.Sprintf("(%g", *r.GT())
	} else if r.GTE() != nil {
		minBound = fmt.Sprintf("%g", *r.GTE())
	}

	if r.LT() != nil {
		maxBound = fmt.Sprintf("(%g", *r.LT())
	} else if r.LTE() != nil {
		maxBound = fmt.Sprintf("%g", *r.LTE())
	}

	return fmt.Sprintf("@%s:[%s %s]", key, minBound, maxBound)
}

func buildTextClause(t body.Text) string {
	escaped := escapeQuery(t.Value)
	if t.Field == "" {
		return "(" + escaped + ")"
	}
	return fmt.Sprintf("@%s:(%s)", t.Field, escaped)
}

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)
