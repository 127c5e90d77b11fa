package actions

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const truncationMarker = "<!-- truncated -->"

// noisy elements carry no information the model can act on.
var noisy = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Svg:      true,
	atom.Template: true,
}

// SimplifyHTML strips scripts, styles and comments from an HTML document.
func SimplifyHTML(source string) (string, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return "", fmt.Errorf("failed to parse page source: %w", err)
	}
	prune(doc)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render page source: %w", err)
	}
	return buf.String(), nil
}

func prune(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode || (c.Type == html.ElementNode && noisy[c.DataAtom]) {
			n.RemoveChild(c)
		} else {
			prune(c)
		}
		c = next
	}
}

// truncate cuts s to at most max bytes of content, on a rune boundary, and
// marks the cut. A max of zero disables truncation.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
