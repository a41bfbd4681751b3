package openai

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var droppedElements = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Iframe:   true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Form:     true,
	atom.Link:     true,
	atom.Meta:     true,
	atom.Noscript: true,
}

// SanitizeHTML drops active content from a generated HTML fragment: script-like elements,
// event handler attributes and javascript: URLs. Everything else is rendered back unchanged.
func SanitizeHTML(fragment string) (string, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	for _, n := range nodes {
		if n.Type == html.ElementNode && droppedElements[n.DataAtom] {
			continue
		}
		scrub(n)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(buf.String()), nil
}

func scrub(n *html.Node) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			key := strings.ToLower(a.Key)
			if strings.HasPrefix(key, "on") {
				continue
			}
			if (key == "href" || key == "src") &&
				strings.HasPrefix(strings.ToLower(strings.TrimSpace(a.Val)), "javascript:") {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && droppedElements[c.DataAtom] {
			n.RemoveChild(c)
		} else {
			scrub(c)
		}
		c = next
	}
}
