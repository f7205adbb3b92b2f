package htmlkb

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"

	"github.com/cognicore/hornet/pkg/hornet/config"
	"github.com/cognicore/hornet/pkg/hornet/internalerr"
)

// Parse extracts knowledge from tables in an HTML document. Rows with
// one cell are facts. Rows with two cells are rules, premises in the
// first cell joined by "&" and the conclusion in the second. Rows with
// three cells carry the rule name in the first cell. Header rows and
// rows of any other width are skipped.
func Parse(r io.Reader) (*config.Knowledge, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	k := &config.Knowledge{}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			readRow(n, k)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(k.Facts) == 0 && len(k.Rules) == 0 {
		return nil, fmt.Errorf("no knowledge tables in document: %w", internalerr.ErrInvalidInput)
	}
	return k, nil
}

// ParseFile reads knowledge tables from an HTML file
func ParseFile(path string) (*config.Knowledge, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// readRow classifies one table row by its cell count
func readRow(tr *html.Node, k *config.Knowledge) {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "th":
			// Header row
			return
		case "td":
			cells = append(cells, cellText(c))
		}
	}

	switch len(cells) {
	case 1:
		if cells[0] != "" {
			k.Facts = append(k.Facts, cells[0])
		}
	case 2:
		if cells[1] != "" {
			k.Rules = append(k.Rules, config.RuleSpec{
				When: splitPremises(cells[0]),
				Then: cells[1],
			})
		}
	case 3:
		if cells[2] != "" {
			k.Rules = append(k.Rules, config.RuleSpec{
				Name: cells[0],
				When: splitPremises(cells[1]),
				Then: cells[2],
			})
		}
	}
}

// cellText flattens a cell's text nodes into a single trimmed line
func cellText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func splitPremises(s string) []string {
	var out []string
	for _, part := range strings.Split(s, "&") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
