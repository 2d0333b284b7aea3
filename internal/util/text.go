package util

import (
	"regexp"
	"strings"
)

var reSpaces = regexp.MustCompile(`\s+`)

func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// NormalizeSpaces collapses runs of whitespace, including the non-breaking
// spaces spreadsheet exports like to leave in cells.
func NormalizeSpaces(input string) string {
	s := strings.ReplaceAll(input, "\u00A0", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// HeaderKey turns a column caption like "Customer Name" into "customer_name".
func HeaderKey(input string) string {
	s := strings.ToLower(NormalizeSpaces(input))
	repl := strings.NewReplacer(" ", "_", "-", "_", ".", "_")
	return repl.Replace(s)
}
