package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultTitle is used when an HTML page carries no <title> element.
const DefaultTitle = "Untitled Document"

// HTMLResult holds the readable text pulled out of an HTML page.
type HTMLResult struct {
	Title string
	Text  string
}

// HTML strips non-content elements from raw HTML and returns the page title
// and the body text with whitespace collapsed to single spaces.
func HTML(raw []byte) (*HTMLResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = DefaultTitle
	}

	doc.Find("script, style, noscript, iframe, head").Remove()

	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}

	return &HTMLResult{
		Title: title,
		Text:  strings.Join(strings.Fields(text), " "),
	}, nil
}
