package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Lines flattens detail-page HTML into the line-oriented text the field
// extractors operate on: one trimmed, non-empty line per text node, in
// document order, script/style contents dropped. Layout tags therefore never
// glue a label to its value, which is what the label-anchored extraction
// relies on.
func Lines(raw string) []string {
	node, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "noscript" {
				return
			}
		case html.TextNode:
			for _, part := range strings.Split(n.Data, "\n") {
				if t := strings.TrimSpace(part); t != "" {
					lines = append(lines, t)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(node)
	return lines
}
