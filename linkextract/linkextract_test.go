package linkextract

import (
	"net/url"
	"strings"
	"testing"
)

func parseBase(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse base: %v", err)
	}
	return u
}

func TestExtract_Classification(t *testing.T) {
	base := parseBase(t, "https://example.com/dir/page")

	tests := []struct {
		name  string
		html  string
		class Classification
		url   string
	}{
		{"internal absolute", `<a href="https://example.com/other">x</a>`, Internal, "https://example.com/other"},
		{"internal relative", `<a href="/about">x</a>`, Internal, "https://example.com/about"},
		{"internal relative no slash", `<a href="contact">x</a>`, Internal, "https://example.com/dir/contact"},
		{"external", `<a href="https://other.com/x">x</a>`, External, "https://other.com/x"},
		{"mailto", `<a href="mailto:user@example.com">x</a>`, Mailto, "mailto:user@example.com"},
		{"phone", `<a href="tel:+15551234567">x</a>`, Phone, "tel:+15551234567"},
		{"anchor", `<a href="#section">x</a>`, Anchor, "https://example.com/dir/page#section"},
		{"javascript", `<a href="javascript:void(0)">x</a>`, Javascript, "javascript:void(0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, errs := Extract(base, strings.NewReader(tt.html))
			if len(errs) != 0 {
				t.Fatalf("unexpected errors: %v", errs)
			}

			var got []Link
			switch tt.class {
			case Internal:
				got = res.Internal
			case External:
				got = res.External
			case Mailto:
				got = res.Mailto
			case Phone:
				got = res.Phone
			case Anchor:
				got = res.Anchor
			case Javascript:
				got = res.Javascript
			}

			if len(got) != 1 {
				t.Fatalf("expected 1 link in %s, got %d (%+v)", tt.class, len(got), got)
			}
			if got[0].URL != tt.url {
				t.Errorf("expected url %q, got %q", tt.url, got[0].URL)
			}
		})
	}
}

func TestExtract_DedupesWithinClass(t *testing.T) {
	base := parseBase(t, "https://example.com")
	html := `<a href="/page">one</a><a href="/page">two</a>`

	res, _ := Extract(base, strings.NewReader(html))
	if len(res.Internal) != 1 {
		t.Fatalf("expected 1 deduplicated internal link, got %d", len(res.Internal))
	}
	if res.Internal[0].Text != "one" {
		t.Errorf("expected first occurrence's text to be kept, got %q", res.Internal[0].Text)
	}
}

func TestExtract_LinkTextTruncatedTo100(t *testing.T) {
	base := parseBase(t, "https://example.com")
	long := strings.Repeat("a", 150)
	html := `<a href="/x">` + long + `</a>`

	res, _ := Extract(base, strings.NewReader(html))
	if len(res.Internal) != 1 {
		t.Fatalf("expected 1 internal link, got %d", len(res.Internal))
	}
	if len(res.Internal[0].Text) != 100 {
		t.Errorf("expected text truncated to 100 chars, got %d", len(res.Internal[0].Text))
	}
}

func TestExtract_TitleRelTargetCaptured(t *testing.T) {
	base := parseBase(t, "https://example.com")
	html := `<a href="/x" title="X page" rel="nofollow" target="_blank">link</a>`

	res, _ := Extract(base, strings.NewReader(html))
	if len(res.Internal) != 1 {
		t.Fatalf("expected 1 internal link, got %d", len(res.Internal))
	}
	link := res.Internal[0]
	if link.Title != "X page" || link.Rel != "nofollow" || link.Target != "_blank" {
		t.Errorf("expected attrs captured, got %+v", link)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	base := parseBase(t, "https://example.com")
	res, errs := Extract(base, strings.NewReader(""))
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(res.Internal)+len(res.External)+len(res.Mailto)+len(res.Phone)+len(res.Anchor)+len(res.Javascript) != 0 {
		t.Error("expected no links for empty input")
	}
}

func TestExtract_OtherSchemeWithDomainIsExternal(t *testing.T) {
	// Per classification rules, any absolute URL with a domain differing
	// from B's is external regardless of scheme; only relative hrefs with
	// no resolvable domain and no /, ./, ../ prefix get dropped.
	base := parseBase(t, "https://example.com")
	res, _ := Extract(base, strings.NewReader(`<a href="ftp://files.example.com">x</a>`))
	if len(res.External) != 1 {
		t.Fatalf("expected 1 external link, got %d", len(res.External))
	}
}

func TestExtract_BareRelativeNameResolvesInternal(t *testing.T) {
	// A relative href with no domain and none of /, ./, ../ is dropped
	// per spec, but here "contact" has no leading slash and no scheme —
	// it resolves to a same-domain URL, so it classifies internal. A
	// truly undroppable case is an href that resolves to no domain and no
	// recognized relative prefix, which in practice net/url always
	// resolves against base to produce a domain, so this exercises that
	// the resolved-domain path (not the raw-prefix path) is what fires.
	base := parseBase(t, "https://example.com/dir/")
	res, _ := Extract(base, strings.NewReader(`<a href="sibling">x</a>`))
	if len(res.Internal) != 1 || res.Internal[0].URL != "https://example.com/dir/sibling" {
		t.Errorf("expected internal sibling link, got %+v", res.Internal)
	}
}

func TestExtract_SelfClosingAnchorHasEmptyText(t *testing.T) {
	base := parseBase(t, "https://example.com")
	res, _ := Extract(base, strings.NewReader(`<a href="/x" />`))
	if len(res.Internal) != 1 {
		t.Fatalf("expected 1 internal link, got %d", len(res.Internal))
	}
	if res.Internal[0].Text != "" {
		t.Errorf("expected empty text for self-closing anchor, got %q", res.Internal[0].Text)
	}
}
