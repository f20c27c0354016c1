package catalog

import "fmt"

// BuildError is one validation failure found while resolving a catalog.
// Resolve always collects every failure instead of stopping at the first,
// per the "always a list, never first-failure-only" policy.
type BuildError struct {
	Subject string // model id, alias name, or template name the error concerns
	Reason  string
}

func (e BuildError) Error() string {
	return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
}

func newErr(subject, format string, args ...any) BuildError {
	return BuildError{Subject: subject, Reason: fmt.Sprintf(format, args...)}
}
