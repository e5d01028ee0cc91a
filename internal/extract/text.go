package extract

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// chromeElements never contribute visible text
var chromeElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"iframe":   true,
	"header":   true,
	"footer":   true,
	"nav":      true,
	"aside":    true,
}

// VisibleText extracts text nodes under n, skipping scripts, styles and page chrome
func VisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && chromeElements[n.Data] {
			return
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return CollapseWhitespace(buf.String())
}

// OutboundLinks returns the absolute http(s) links under n in document
// order, without duplicates.
func OutboundLinks(n *html.Node) []string {
	seen := make(map[string]bool)
	var links []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if isAbsoluteHTTP(href) && !seen[href] {
					seen[href] = true
					links = append(links, href)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return links
}

// isAbsoluteHTTP keeps only links that stand on their own outside the page
func isAbsoluteHTTP(href string) bool {
	parsed, err := url.Parse(href)
	if err != nil || parsed.Host == "" {
		return false
	}
	return parsed.Scheme == "http" || parsed.Scheme == "https"
}
