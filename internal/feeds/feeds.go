// Package feeds reads the RSS feed source list from a markdown table.
// The feed URL is taken from the second column of each table row.
package feeds

import (
	"log"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify))

// Load reads the feed source file and returns the listed RSS URLs.
// A missing file is not an error: it logs a warning and returns no URLs.
func Load(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Feed sources file not found: %s", path)
		return nil
	}
	return Parse(data)
}

// Parse extracts RSS URLs from the second column of markdown table rows.
// Cells may hold a bare URL, an autolinked URL, or a markdown link.
func Parse(src []byte) []string {
	doc := md.Parser().Parse(text.NewReader(src))

	var urls []string
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		row, ok := n.(*east.TableRow)
		if !ok {
			return ast.WalkContinue, nil
		}

		cell := secondCell(row)
		if cell == nil {
			return ast.WalkSkipChildren, nil
		}
		if u := cellURL(cell, src); strings.HasPrefix(u, "http") {
			urls = append(urls, u)
		}
		return ast.WalkSkipChildren, nil
	})
	return urls
}

// secondCell returns the second cell of a table row, or nil.
func secondCell(row *east.TableRow) ast.Node {
	i := 0
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		if _, ok := c.(*east.TableCell); !ok {
			continue
		}
		if i == 1 {
			return c
		}
		i++
	}
	return nil
}

// cellURL extracts a URL from a table cell. Links win over plain text.
func cellURL(cell ast.Node, src []byte) string {
	var link string
	ast.Walk(cell, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *ast.AutoLink:
			link = string(v.URL(src))
			return ast.WalkStop, nil
		case *ast.Link:
			link = string(v.Destination)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if link != "" {
		return link
	}
	return firstURL(cellText(cell, src))
}

func cellText(cell ast.Node, src []byte) string {
	var b strings.Builder
	ast.Walk(cell, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// firstURL returns the first http(s) URL embedded in s, or s itself.
func firstURL(s string) string {
	idx := strings.Index(s, "http")
	if idx < 0 {
		return s
	}
	s = s[idx:]
	end := strings.IndexFunc(s, func(r rune) bool {
		return r == ' ' || r == ')' || r == ']' || r == '"' || r == '\'' || r == '\n'
	})
	if end >= 0 {
		s = s[:end]
	}
	return s
}
