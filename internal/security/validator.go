// Package security provides heuristic validation of tool inputs: dangerous
// command detection, file path restrictions, and output redaction.
//
// The regex battery is inherently heuristic and expects false negatives;
// it is a hard pre-filter in front of the permission engine, never a
// replacement for it. A block here surfaces immediately and is never
// retried.
package security

import (
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// RiskLevel grades how dangerous an input looks.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// Result is the outcome of a validation pass.
type Result struct {
	Allowed        bool      `json:"allowed"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	BlockedReasons []string  `json:"blockedReasons,omitempty"`
	Warnings       []string  `json:"warnings,omitempty"`
}

// checkRule pairs a compiled pattern with the reason reported on match.
type checkRule struct {
	re     *regexp.Regexp
	reason string
}

// blockingRules is the ordered battery. Any match blocks the input and
// sets the risk level to critical.
var blockingRules = []checkRule{
	// Destructive filesystem commands
	{regexp.MustCompile(`(?i)\brm\s+(-[a-z]*\s+)*-[a-z]*[rf][a-z]*\s`), "destructive file removal"},
	{regexp.MustCompile(`(?i)\bmkfs(\.\w+)?\b`), "filesystem format command"},
	{regexp.MustCompile(`(?i)\bdd\s+[^|]*of=/dev/`), "raw write to block device"},
	{regexp.MustCompile(`(?i)\bshred\b|\bwipefs\b`), "disk wipe command"},
	// Path traversal
	{regexp.MustCompile(`\.\.[/\\]\.\.[/\\]`), "path traversal sequence"},
	// Code / SQL injection
	{regexp.MustCompile("`[^`]*(rm|curl|wget|nc)[^`]*`"), "command substitution with dangerous command"},
	{regexp.MustCompile(`(?i)(union\s+select|drop\s+table|insert\s+into\s+\w+\s+values.*--)`), "SQL injection pattern"},
	{regexp.MustCompile(`(?i)\beval\s*\(\s*(\$|atob|base64)`), "dynamic code evaluation"},
	// Privileged system paths
	{regexp.MustCompile(`(?i)\b(rm|mv|cp|chmod|chown|truncate)\s+[^|;&]*\s/(etc|boot|sys|proc)(/|\s|$)`), "modification of privileged system path"},
	// Destructive command chaining
	{regexp.MustCompile(`(?i)(^|[;&|])\s*rm\s+-[a-z]*[rf]`), "chained destructive command"},
	{regexp.MustCompile(`(?i)(^|[;&|])\s*(shutdown|reboot|halt|poweroff)\b`), "chained system power command"},
	// Redirection into sensitive directories
	{regexp.MustCompile(`>\s*/(etc|boot|sys|proc|usr/bin|usr/sbin)/`), "redirection into sensitive directory"},
	{regexp.MustCompile(`>\s*/dev/sd[a-z]`), "redirection onto block device"},
	// Download-then-execute
	{regexp.MustCompile(`(?i)\b(curl|wget)\b[^|;&]*\|\s*(ba|z|fi)?sh\b`), "piping download into shell"},
	{regexp.MustCompile(`(?i)\b(curl|wget)\b[^;|]*;\s*chmod\s+\+x`), "download then mark executable"},
}

// warningRules flag sensitive data. Matches only warn, escalating the
// risk level to at most high.
var warningRules = []checkRule{
	{regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|passwd|password)\b\s*[=:]\s*\S+`), "credential assignment"},
	{regexp.MustCompile(`-----BEGIN [A-Z ]*PRIVATE KEY-----`), "private key material"},
	{regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`), "AWS access key id"},
	{regexp.MustCompile(`https?://[^/\s:@]+:[^@\s]+@`), "credentialed URL"},
}

// ValidateInput runs the ordered battery over text. context names the
// caller (e.g. the tool id) and is only used for log-friendly reasons.
func ValidateInput(text, context string) Result {
	res := Result{Allowed: true, RiskLevel: RiskLow}

	for _, rule := range blockingRules {
		if rule.re.MatchString(text) {
			res.Allowed = false
			res.RiskLevel = RiskCritical
			res.BlockedReasons = append(res.BlockedReasons, rule.reason)
		}
	}

	for _, rule := range warningRules {
		if rule.re.MatchString(text) {
			res.Warnings = append(res.Warnings, rule.reason)
			if res.Allowed && res.RiskLevel != RiskCritical {
				res.RiskLevel = RiskHigh
			}
		}
	}

	_ = context
	return res
}

// AccessMode describes what a file operation wants to do with a path.
type AccessMode string

const (
	AccessRead    AccessMode = "read"
	AccessWrite   AccessMode = "write"
	AccessExecute AccessMode = "execute"
)

// restrictedPathGlobs are prefixes an agent has no business touching.
// Reads only warn; writes and executes block.
var restrictedPathGlobs = []string{
	"/etc/**",
	"/boot/**",
	"/sys/**",
	"/proc/**",
	"/dev/**",
	"/root/.ssh/**",
	"/usr/bin/**",
	"/usr/sbin/**",
	"/var/run/**",
	"**/.ssh/id_*",
	"**/.aws/credentials",
}

// ValidateFilePath normalizes separators, rejects traversal, and applies
// the restricted-prefix policy: read access to a restricted path warns,
// write or execute access blocks.
func ValidateFilePath(path string, mode AccessMode) Result {
	res := Result{Allowed: true, RiskLevel: RiskLow}

	normalized := strings.ReplaceAll(path, "\\", "/")

	if strings.Contains(normalized, "../") || strings.HasSuffix(normalized, "..") {
		res.Allowed = false
		res.RiskLevel = RiskCritical
		res.BlockedReasons = append(res.BlockedReasons, "path traversal rejected")
		return res
	}

	for _, glob := range restrictedPathGlobs {
		ok, err := doublestar.Match(glob, normalized)
		if err != nil || !ok {
			continue
		}
		if mode == AccessRead {
			res.Warnings = append(res.Warnings, "read of restricted path "+normalized)
			if res.RiskLevel != RiskCritical {
				res.RiskLevel = RiskHigh
			}
		} else {
			res.Allowed = false
			res.RiskLevel = RiskCritical
			res.BlockedReasons = append(res.BlockedReasons, string(mode)+" on restricted path "+normalized)
		}
		break
	}

	return res
}
