package template

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes every literal {{key}} with context[key]. Keys absent
// from the context stay in the output as unresolved placeholders; callers
// rely on that for audit visibility, so no error and no default value.
func Render(text string, context map[string]string) string {
	for key, value := range context {
		text = strings.ReplaceAll(text, "{{"+key+"}}", value)
	}
	return text
}

// ExtractPlaceholders lists the distinct placeholder keys in order of first
// appearance.
func ExtractPlaceholders(text string) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, match := range placeholderPattern.FindAllStringSubmatch(text, -1) {
		if !seen[match[1]] {
			seen[match[1]] = true
			keys = append(keys, match[1])
		}
	}
	return keys
}
