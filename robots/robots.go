// Package robots parses robots.txt (RFC 9309) and matches URLs against it.
//
// Parsing is infallible: malformed lines are skipped and numeric values
// that fail to parse are discarded, never failing the whole file.
// Matching is a pure function of the parsed Robot and never touches the
// network.
package robots

import "time"

// maxRobotsSize bounds the input accepted by Parse. Oversized input
// parses to an empty Robot rather than failing.
const maxRobotsSize = 500 * 1024

// Rule is one allow/disallow line of a Group.
type Rule struct {
	Pattern string // may contain '*' and a trailing '$'
	Allow   bool
}

// Group is a contiguous robots.txt section bound to one user-agent token.
// The parser opens a new Group on every "User-agent:" line (§ Open
// Questions: simpler policy, confirmed against the original parser).
type Group struct {
	UserAgents  []string
	Rules       []Rule
	CrawlDelay  *float64 // seconds; nil if absent
	RequestRate *float64 // requests/sec; advisory only, unused by the engine
}

// Robot is a parsed robots.txt held in memory for a host's lifetime.
type Robot struct {
	groups   []Group
	sitemaps []string
}

// Permissive returns a Robot with no groups, which allows every path for
// every user-agent. Used when robots.txt is missing (404) or
// unreachable (network error, non-2xx/404/403 status).
func Permissive() *Robot {
	return &Robot{}
}

// Forbidden returns a Robot that denies every path for every user-agent.
// Used when robots.txt fetch returns 403.
func Forbidden() *Robot {
	return &Robot{
		groups: []Group{
			{
				UserAgents: []string{"*"},
				Rules:      []Rule{{Pattern: "/", Allow: false}},
			},
		},
	}
}

// Sitemaps returns the sitemap URLs declared in robots.txt, session-global
// and retained but never expanded (sitemap expansion is a Non-goal).
func (r *Robot) Sitemaps() []string {
	return r.sitemaps
}

// Groups exposes the parsed groups, primarily for diagnostics and tests.
func (r *Robot) Groups() []Group {
	return r.groups
}

// Allowed reports whether path is allowed for userAgent.
func (r *Robot) Allowed(path, userAgent string) bool {
	group := r.findGroup(userAgent)
	if group == nil {
		return true
	}
	rule := findLongestMatchingRule(group.Rules, path)
	if rule == nil {
		return true
	}
	return rule.Allow
}

// CrawlDelay returns the crawl-delay declared for userAgent's matched
// group, and whether one was declared at all.
func (r *Robot) CrawlDelay(userAgent string) (time.Duration, bool) {
	group := r.findGroup(userAgent)
	if group == nil || group.CrawlDelay == nil {
		return 0, false
	}
	return time.Duration(*group.CrawlDelay * float64(time.Second)), true
}

// RequestRate returns the request-rate declared for userAgent's matched
// group. Advisory only; the engine never reads it.
func (r *Robot) RequestRate(userAgent string) (float64, bool) {
	group := r.findGroup(userAgent)
	if group == nil || group.RequestRate == nil {
		return 0, false
	}
	return *group.RequestRate, true
}
