package robots

import "strings"

// findGroup selects the group that applies to userAgent per RFC 9309
// "most specific wins": exact case-insensitive match first, then
// longest case-insensitive prefix (excluding the literal "*" token),
// then the first group carrying "*", else none.
func (r *Robot) findGroup(userAgent string) *Group {
	lowerAgent := strings.ToLower(userAgent)

	for i := range r.groups {
		for _, a := range r.groups[i].UserAgents {
			if strings.ToLower(a) == lowerAgent {
				return &r.groups[i]
			}
		}
	}

	var best *Group
	bestLen := 0
	for i := range r.groups {
		for _, a := range r.groups[i].UserAgents {
			lowerA := strings.ToLower(a)
			if lowerA == "*" {
				continue
			}
			if strings.HasPrefix(lowerAgent, lowerA) && len(lowerA) > bestLen {
				best = &r.groups[i]
				bestLen = len(lowerA)
			}
		}
	}
	if best != nil {
		return best
	}

	for i := range r.groups {
		for _, a := range r.groups[i].UserAgents {
			if a == "*" {
				return &r.groups[i]
			}
		}
	}

	return nil
}

// findLongestMatchingRule returns the rule with the longest pattern that
// matches path, ties broken in favor of allow. Returns nil when no rule
// matches.
func findLongestMatchingRule(rules []Rule, path string) *Rule {
	var best *Rule
	bestLen := -1
	for i := range rules {
		rule := &rules[i]
		if !matchesPattern(rule.Pattern, path) {
			continue
		}
		l := len(rule.Pattern)
		switch {
		case l > bestLen:
			best = rule
			bestLen = l
		case l == bestLen && rule.Allow && best != nil && !best.Allow:
			best = rule
		}
	}
	return best
}

// matchesPattern reports whether pattern matches path under the
// robots.txt grammar: '*' matches any (possibly empty) run of
// characters, a trailing '$' anchors to end-of-path, every other
// character matches literally. An empty pattern always matches; Parse
// never records an empty-value Disallow rule, so in practice this only
// affects an empty-value Allow, which is harmless to treat as matching.
func matchesPattern(pattern, path string) bool {
	if pattern == "" {
		return true
	}

	anchored := strings.HasSuffix(pattern, "$")
	if anchored {
		pattern = pattern[:len(pattern)-1]
	}

	parts := strings.Split(pattern, "*")

	if len(parts) == 1 {
		if anchored {
			return path == parts[0]
		}
		return strings.HasPrefix(path, parts[0])
	}

	if !strings.HasPrefix(path, parts[0]) {
		return false
	}
	pos := len(parts[0])

	for i := 1; i < len(parts)-1; i++ {
		part := parts[i]
		idx := strings.Index(path[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}

	last := parts[len(parts)-1]
	if anchored {
		return strings.HasSuffix(path, last) && len(path)-len(last) >= pos
	}
	return strings.Contains(path[pos:], last)
}
