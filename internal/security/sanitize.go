package security

import "regexp"

const redactedPlaceholder = "[REDACTED]"

// redactionRule pairs a pattern with its replacement. Credential shapes
// keep the key name so redacted output stays readable.
type redactionRule struct {
	re          *regexp.Regexp
	replacement string
}

var redactionRules = []redactionRule{
	{regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|passwd|password)\b(\s*[=:]\s*)\S+`), "${1}${2}" + redactedPlaceholder},
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----[\s\S]*?-----END [A-Z ]*PRIVATE KEY-----`), redactedPlaceholder},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), redactedPlaceholder},
	{regexp.MustCompile(`(https?://)[^/\s:@]+:[^@\s]+@`), "${1}" + redactedPlaceholder + "@"},
	{regexp.MustCompile(`(/home/|/Users/)[^/\s]+`), "${1}" + redactedPlaceholder},
	{regexp.MustCompile(`\b(\d{1,3}\.){3}\d{1,3}\b`), redactedPlaceholder},
}

// SanitizeOutput redacts sensitive material from text destined for the
// session layer in a single pass over the rule set. It returns the
// sanitized text and the number of redactions applied.
func SanitizeOutput(text string) (string, int) {
	count := 0
	for _, rule := range redactionRules {
		matches := rule.re.FindAllStringIndex(text, -1)
		if len(matches) == 0 {
			continue
		}
		count += len(matches)
		text = rule.re.ReplaceAllString(text, rule.replacement)
	}
	return text, count
}
