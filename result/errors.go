package result

import "strings"

// ErrorCategory classifies why a frontier entry ended up failed.
// Generalized from the teacher's per-link category (built from a live
// error value and status code) to a classifier over the persisted
// reason string the engine records in frontier_entries.last_error,
// since the store keeps the text, not the original typed error.
type ErrorCategory string

const (
	CategoryTimeout           ErrorCategory = "timeout"
	CategoryDNSFailure        ErrorCategory = "dns_failure"
	CategoryConnectionRefused ErrorCategory = "connection_refused"
	Category4xx               ErrorCategory = "4xx"
	Category5xx               ErrorCategory = "5xx"
	CategoryRedirectLoop      ErrorCategory = "redirect_loop"
	CategoryNotHTML           ErrorCategory = "not_html"
	CategoryPolicy            ErrorCategory = "policy_denied"
	CategoryUnknown           ErrorCategory = "unknown"
)

// ClassifyError maps a frontier_entries.last_error string to a
// category. Matches against the exact phrasing fetch's typed errors
// and engine's policy-denial reasons produce (see fetch/errors.go and
// engine.go's fail/MarkAsFailed call sites).
func ClassifyError(reason string) ErrorCategory {
	switch {
	case reason == "":
		return CategoryUnknown
	case strings.Contains(reason, "too many redirects"):
		return CategoryRedirectLoop
	case strings.Contains(reason, "not html"):
		return CategoryNotHTML
	case strings.Contains(reason, "disallowed by robots.txt"),
		strings.Contains(reason, "denied by operator domain policy"):
		return CategoryPolicy
	case strings.Contains(reason, "http error 4"), strings.Contains(reason, "status code 4"):
		return Category4xx
	case strings.Contains(reason, "http error 5"), strings.Contains(reason, "server error"):
		return Category5xx
	case strings.Contains(reason, "no such host"), strings.Contains(reason, "dns"):
		return CategoryDNSFailure
	case strings.Contains(reason, "connection refused"):
		return CategoryConnectionRefused
	case strings.Contains(reason, "timeout"), strings.Contains(reason, "deadline exceeded"):
		return CategoryTimeout
	default:
		return CategoryUnknown
	}
}

// FormatCategory returns a human-readable label for an error category.
func FormatCategory(cat ErrorCategory) string {
	switch cat {
	case CategoryTimeout:
		return "Timeouts"
	case CategoryDNSFailure:
		return "DNS Failures"
	case CategoryConnectionRefused:
		return "Connection Refused"
	case Category4xx:
		return "Client Errors (4xx)"
	case Category5xx:
		return "Server Errors (5xx)"
	case CategoryRedirectLoop:
		return "Redirect Loops"
	case CategoryNotHTML:
		return "Non-HTML Content"
	case CategoryPolicy:
		return "Blocked by Policy"
	default:
		return "Other Errors"
	}
}
