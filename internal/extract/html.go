package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// required returns sel, or ErrStructure naming what when sel is empty.
func required(sel *goquery.Selection, what string) (*goquery.Selection, error) {
	if sel.Length() == 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrStructure, what)
	}
	return sel, nil
}

// requiredAttr returns the named attribute of the first node in sel.
func requiredAttr(sel *goquery.Selection, attr, what string) (string, error) {
	v, ok := sel.Attr(attr)
	if !ok {
		return "", fmt.Errorf("%w: %s has no %s attribute", ErrStructure, what, attr)
	}
	return v, nil
}

// text returns the trimmed text content of sel.
func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

// strippedStrings returns every non-blank text node under sel, trimmed, in
// document order.
func strippedStrings(sel *goquery.Selection) []string {
	var out []string
	for _, n := range sel.Nodes {
		collectText(n, &out)
	}
	return out
}

func collectText(node *html.Node, out *[]string) {
	if node.Type == html.TextNode {
		if s := strings.TrimSpace(node.Data); s != "" {
			*out = append(*out, s)
		}
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, out)
	}
}
