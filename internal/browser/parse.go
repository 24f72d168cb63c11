// internal/browser/parse.go
package browser

import (
	"strings"

	"golang.org/x/net/html"
)

const maxActions = 25

// ExtractActions pulls the visible labels of interactive elements (links,
// buttons, submit inputs) out of a page, deduplicated in document order.
func ExtractActions(pageHTML string) []string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return nil
	}

	var actions []string
	seen := map[string]bool{}
	add := func(label string) {
		label = normalizeSpace(label)
		if label == "" || seen[label] {
			return
		}
		seen[label] = true
		actions = append(actions, label)
	}

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(actions) >= maxActions {
			return
		}
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a", "button":
				add(nodeText(n))
			case "input":
				if t := attr(n, "type"); t == "submit" || t == "button" {
					add(attr(n, "value"))
				}
			case "script", "style":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return actions
}

// Title returns the contents of the document's <title> element.
func Title(pageHTML string) string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = normalizeSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

// VisibleText flattens a page to its readable text, capped at maxLen bytes.
// Used to keep LLM prompts within a sane size.
func VisibleText(pageHTML string, maxLen int) string {
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if b.Len() >= maxLen {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style" || n.Data == "noscript") {
			return
		}
		if n.Type == html.TextNode {
			if t := normalizeSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte('\n')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	text := b.String()
	if len(text) > maxLen {
		text = text[:maxLen]
	}
	return strings.TrimSpace(text)
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
