package robots

import (
	"strconv"
	"strings"
)

// Parse parses a robots.txt blob into a Robot. It never fails: oversize
// input (> 500 KiB) parses to an empty Robot, blank lines and '#'
// comments are skipped, unrecognized keys are ignored, and numeric
// values that fail to parse are simply discarded (the directive that
// carried them is dropped, not the rest of the file).
func Parse(text []byte) *Robot {
	if len(text) > maxRobotsSize {
		return &Robot{}
	}

	var groups []Group
	var sitemaps []string
	var current *Group

	finalize := func() {
		if current != nil && len(current.UserAgents) > 0 {
			groups = append(groups, *current)
		}
		current = nil
	}

	for _, line := range strings.Split(string(text), "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		key, value, ok := splitDirective(trimmed)
		if !ok {
			continue
		}

		switch strings.ToLower(key) {
		case "user-agent":
			finalize()
			current = &Group{UserAgents: []string{value}}
		case "allow":
			if current != nil {
				current.Rules = append(current.Rules, Rule{Pattern: value, Allow: true})
			}
		case "disallow":
			// An empty value means "nothing disallowed" (RFC 9309 §2.2.2);
			// skip it rather than recording a zero-length Allow:false rule,
			// which would otherwise win every length comparison in
			// findLongestMatchingRule and disallow everything.
			if current != nil && value != "" {
				current.Rules = append(current.Rules, Rule{Pattern: value, Allow: false})
			}
		case "crawl-delay":
			if delay, err := strconv.ParseFloat(value, 64); err == nil {
				if current != nil {
					current.CrawlDelay = &delay
				}
			}
		case "request-rate":
			if rate, err := strconv.ParseFloat(value, 64); err == nil {
				if current != nil {
					current.RequestRate = &rate
				}
			}
		case "sitemap":
			sitemaps = append(sitemaps, value)
		default:
			// Unrecognized keys are ignored.
		}
	}
	finalize()

	return &Robot{groups: groups, sitemaps: sitemaps}
}

// splitDirective splits a trimmed line at its first ':' into a
// (key, value) pair. Returns ok=false for lines with no colon or an
// empty key.
func splitDirective(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:idx])
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}
