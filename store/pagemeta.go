package store

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// extractMeta walks a parsed document for its <title> text and the
// content attribute of <meta name="description">, mirroring the
// selector-based extraction the original crawler performed with CSS
// selectors.
func extractMeta(r io.Reader) (title, description string) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", ""
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" && description != "" {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if title == "" {
					title = strings.TrimSpace(textContent(n))
				}
			case "meta":
				if isDescriptionMeta(n) {
					description = metaContent(n)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title, description
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func isDescriptionMeta(n *html.Node) bool {
	for _, attr := range n.Attr {
		if attr.Key == "name" && strings.EqualFold(attr.Val, "description") {
			return true
		}
	}
	return false
}

func metaContent(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "content" {
			return attr.Val
		}
	}
	return ""
}
