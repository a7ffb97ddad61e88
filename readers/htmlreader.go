package readers

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type HTMLFileReader struct{}

func (r *HTMLFileReader) Format() Format {
	return FormatHTML
}

// ReadText returns the visible text of the page, one text node per line.
// script, style and noscript elements are dropped before extraction.
func (r *HTMLFileReader) ReadText(path string) (string, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading html file: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(decodeLossy(buf)))
	if err != nil {
		return "", fmt.Errorf("failed to parse html document: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var sb strings.Builder
	for _, n := range doc.Nodes {
		collectText(n, &sb)
	}

	return NormalizeLines(sb.String()), nil
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte('\n')
		return
	case html.CommentNode, html.DoctypeNode:
		return
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, sb)
	}
}
