// Package htmlconv converts HTML documents to markdown for ingestion.
// Readability extraction strips navigation and boilerplate before
// conversion so only the main content reaches the pipeline.
package htmlconv

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// Result contains the outcome of an HTML to markdown conversion.
type Result struct {
	Title    string
	Markdown string
}

// Convert transforms HTML content to markdown. The name is used only to
// form a synthetic URL for readability extraction.
func Convert(content []byte, name string) (*Result, error) {
	title := extractTitle(content)

	// Reduce to readable main content; fall back to the full document when
	// extraction fails (e.g. fragment without body).
	body := string(content)
	pageURL := &url.URL{Scheme: "file", Path: "/" + name}
	if article, err := readability.FromReader(bytes.NewReader(content), pageURL); err == nil {
		if article.Content != "" {
			body = article.Content
		}
		if title == "" {
			title = article.Title
		}
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	markdown, err := converter.ConvertString(body)
	if err != nil {
		return nil, err
	}
	markdown = strings.TrimSpace(excessiveLinesRe.ReplaceAllString(markdown, "\n\n\n"))

	return &Result{Title: title, Markdown: markdown}, nil
}

// extractTitle walks the HTML tree for the <title> element.
func extractTitle(content []byte) string {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
			title = strings.TrimSpace(n.FirstChild.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
