package parse

import (
	"strings"

	"golang.org/x/net/html"
)

// parseDocument parses raw HTML into a node tree.
//
// Design decision: We use golang.org/x/net/html rather than regex over the
// whole document because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure for attribute lookups
//  3. More maintainable than complex regex patterns
//
// Regex is still used, but only on extracted text fragments where the
// target is a textual pattern ("249 TL", "32 Beğeni") rather than markup.
func parseDocument(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

// pageText flattens the document into newline-separated text, the way a
// reader would see it. Script and style bodies are skipped.
func pageText(doc *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return b.String()
}

// eachElement calls fn for every element node with the given tag name.
func eachElement(doc *html.Node, tag string, fn func(*html.Node)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			fn(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// nodeText collects the visible text under a node, whitespace-normalized.
func nodeText(n *html.Node) string {
	var b strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(b.String()), " ")
}
