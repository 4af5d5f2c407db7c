// Package linkextract parses an HTML document and classifies every
// anchor href relative to the page's base URL, following § 4.B.
package linkextract

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/lukemcguire/crawlkeep/urlutil"
)

// maxLinkTextLen truncates link text, per spec.
const maxLinkTextLen = 100

// Classification is the category assigned to a discovered link.
type Classification string

const (
	Internal   Classification = "internal"
	External   Classification = "external"
	Mailto     Classification = "mailto"
	Phone      Classification = "phone"
	Anchor     Classification = "anchor"
	Javascript Classification = "javascript"
)

// Link is one anchor discovered on a page.
type Link struct {
	URL    string
	Text   string
	Title  string
	Rel    string
	Target string
}

// Result holds every classified, per-class-deduplicated link found on a
// page.
type Result struct {
	Internal   []Link
	External   []Link
	Mailto     []Link
	Phone      []Link
	Anchor     []Link
	Javascript []Link
}

// InvalidURLError wraps an href that could not be parsed or resolved.
// The extractor drops the link and continues; it never fails the whole
// page.
type InvalidURLError struct {
	Href string
	Err  error
}

func (e *InvalidURLError) Error() string {
	return "invalid href " + strconv(e.Href) + ": " + e.Err.Error()
}

func (e *InvalidURLError) Unwrap() error { return e.Err }

func strconv(s string) string {
	if len(s) > 80 {
		return s[:80] + "..."
	}
	return s
}

// Extract parses html from r and classifies every anchor's href
// relative to base. Parse failures on individual hrefs are returned as
// *InvalidURLError values in the error slice and never abort extraction;
// extraction is idempotent.
func Extract(base *url.URL, r io.Reader) (*Result, []error) {
	tokenizer := html.NewTokenizer(r)

	res := &Result{}
	seen := map[Classification]map[string]bool{
		Internal:   {},
		External:   {},
		Mailto:     {},
		Phone:      {},
		Anchor:     {},
		Javascript: {},
	}
	var errs []error

	baseDomain := base.Hostname()

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return res, errs
		case html.StartTagToken, html.SelfClosingTagToken:
			token := tokenizer.Token()
			if token.Data != "a" {
				continue
			}
			href, title, rel, target, ok := readAnchorAttrs(token)
			if !ok || href == "" {
				continue
			}
			text := truncate(strings.TrimSpace(extractText(tokenizer, &token)))

			link := Link{Text: text, Title: title, Rel: rel, Target: target}
			class, resolved, err := classify(base, baseDomain, href)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if class == "" {
				continue // no domain and no relative prefix: dropped without a warning or error
			}
			link.URL = resolved
			if !seen[class][resolved] {
				seen[class][resolved] = true
				appendLink(res, class, link)
			}
		}
	}
}

func appendLink(res *Result, class Classification, link Link) {
	switch class {
	case Internal:
		res.Internal = append(res.Internal, link)
	case External:
		res.External = append(res.External, link)
	case Mailto:
		res.Mailto = append(res.Mailto, link)
	case Phone:
		res.Phone = append(res.Phone, link)
	case Anchor:
		res.Anchor = append(res.Anchor, link)
	case Javascript:
		res.Javascript = append(res.Javascript, link)
	}
}

// classify assigns a Classification to href and returns the resolved
// URL string to record. An empty Classification means "drop silently".
func classify(base *url.URL, baseDomain, href string) (Classification, string, error) {
	switch {
	case strings.HasPrefix(href, "javascript:"):
		return Javascript, href, nil
	case strings.HasPrefix(href, "mailto:"):
		return Mailto, href, nil
	case strings.HasPrefix(href, "tel:"):
		return Phone, href, nil
	case strings.HasPrefix(href, "#"):
		resolved, err := urlutil.ResolveReference(base.String(), href)
		if err != nil {
			return "", "", &InvalidURLError{Href: href, Err: err}
		}
		return Anchor, resolved, nil
	}

	resolvedStr, err := urlutil.ResolveReference(base.String(), href)
	if err != nil {
		return "", "", &InvalidURLError{Href: href, Err: err}
	}
	resolved, err := url.Parse(resolvedStr)
	if err != nil {
		return "", "", &InvalidURLError{Href: href, Err: err}
	}

	domain := resolved.Hostname()
	switch {
	case domain != "" && domain == baseDomain:
		return Internal, resolved.String(), nil
	case domain != "":
		return External, resolved.String(), nil
	case strings.HasPrefix(href, "/") || strings.HasPrefix(href, "./") || strings.HasPrefix(href, "../"):
		return Internal, resolved.String(), nil
	default:
		return "", "", nil
	}
}

func readAnchorAttrs(token html.Token) (href, title, rel, target string, ok bool) {
	for _, attr := range token.Attr {
		switch attr.Key {
		case "href":
			href = attr.Val
			ok = true
		case "title":
			title = attr.Val
		case "rel":
			rel = attr.Val
		case "target":
			target = attr.Val
		}
	}
	return
}

// extractText consumes tokens up to the matching </a>, concatenating
// text content. The tokenizer's cursor is advanced past the anchor.
func extractText(tokenizer *html.Tokenizer, open *html.Token) string {
	if open.Type == html.SelfClosingTagToken {
		return ""
	}
	var sb strings.Builder
	depth := 1
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return sb.String()
		}
		tok := tokenizer.Token()
		switch tt {
		case html.StartTagToken:
			if tok.Data == "a" {
				depth++
			}
		case html.EndTagToken:
			if tok.Data == "a" {
				depth--
				if depth == 0 {
					return sb.String()
				}
			}
		case html.TextToken:
			sb.WriteString(tok.Data)
		}
	}
}

func truncate(s string) string {
	if len(s) <= maxLinkTextLen {
		return s
	}
	return s[:maxLinkTextLen]
}
