package catalog

import (
	"regexp"
	"strings"
)

// compileRegexLiteral accepts either a bare pattern ("time|date") or a
// slash-delimited literal with a trailing flag set ("/time|date/i"), the
// form used throughout spec examples. Only the "i" flag is recognized; any
// other letter after the closing slash is rejected. The returned pattern has
// flags folded in as a Go regexp inline-flag group so the static engine (and
// anything else holding a Condition) can regexp.Compile it directly without
// knowing about the literal's original flags.
func compileRegexLiteral(literal string) (string, *regexp.Regexp, error) {
	pattern := literal
	flags := ""
	if strings.HasPrefix(literal, "/") {
		if idx := strings.LastIndex(literal, "/"); idx > 0 {
			pattern = literal[1:idx]
			flags = literal[idx+1:]
		}
	}
	for _, f := range flags {
		if f != 'i' {
			return "", nil, newErr("", "regex flag %q not in allowed set {i}", string(f))
		}
	}
	if strings.ContainsRune(flags, 'i') {
		pattern = "(?i)" + pattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return "", nil, newErr("", "regex %q failed to compile: %v", literal, err)
	}
	return pattern, compiled, nil
}
