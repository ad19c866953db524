// Package redact strips credentials and other sensitive fragments from error
// strings before they are logged or returned to clients. Storage SDK errors
// routinely echo presigned URLs, access keys and request headers, so every
// stage error passes through here before it reaches a log line.
package redact

import "regexp"

// Placeholders substituted for redacted fragments
const (
	RedactionPlaceholder          = "[REDACTED]"
	RedactedPathPlaceholder       = "[REDACTED_PATH]"
	RedactedCredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	RedactedKeyPlaceholder        = "[REDACTED_KEY]"
	RedactedTokenPlaceholder      = "[REDACTED_TOKEN]"
	RedactedJWTPlaceholder        = "[REDACTED_JWT]"
	RedactedEmailPlaceholder      = "[REDACTED_EMAIL]"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules are applied in order; earlier rules may consume text later rules
// would otherwise match.
var rules = []rule{
	// Presigned URL query parameters
	{
		pattern:     regexp.MustCompile(`(?i)(X-Amz-(?:Signature|Credential|Security-Token))=[^&\s"]+`),
		replacement: "$1=" + RedactionPlaceholder,
	},
	// Database connection strings
	{
		pattern:     regexp.MustCompile(`(?i)\b(postgres(?:ql)?|mysql)://[^@\s]+@`),
		replacement: "$1://" + RedactedCredentialPlaceholder + "@",
	},
	// Authorization header values
	{
		pattern:     regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.~+/=]+`),
		replacement: "Bearer " + RedactedTokenPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`eyJ[\w-]+\.eyJ[\w-]+\.[\w-]+`),
		replacement: RedactedJWTPlaceholder,
	},
	// AWS access key ids
	{
		pattern:     regexp.MustCompile(`\b(?:AKIA|ASIA)[A-Z0-9]{16}\b`),
		replacement: RedactedKeyPlaceholder,
	},
	// key=value and key: value secrets
	{
		pattern: regexp.MustCompile(
			`(?i)\b(password|passwd|secret(?:_access)?_key|secret|api[_-]?key|access[_-]?key(?:[_-]?id)?|token)(\s*[=:]\s*)['"]?[^'"&\s,]{3,}['"]?`,
		),
		replacement: "$1$2" + RedactionPlaceholder,
	},
	{
		pattern:     regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
		replacement: RedactedEmailPlaceholder,
	},
	// Absolute file system paths such as ffmpeg temp files
	{
		pattern:     regexp.MustCompile(`(^|[\s"'=(])((?:/[\w.-]+){2,})`),
		replacement: "${1}" + RedactedPathPlaceholder,
	},
}

// String redacts sensitive information from the input string
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, r := range rules {
		result = r.pattern.ReplaceAllString(result, r.replacement)
	}
	return result
}

// Error redacts sensitive information from an error's Error() output
func Error(err error) string {
	if err == nil {
		return ""
	}

	return String(err.Error())
}
