package parser

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/subseek/subseek/internal/models"
)

// DownloadPage is the metadata extracted from a catalog download gate page.
type DownloadPage struct {
	// Title is the page's subtitle title; empty when no pattern matched.
	Title string

	// FileStem is the sanitized, bounded, never-empty stem derived from Title.
	FileStem string

	// Format is the format from the labeled metadata cell when present;
	// FormatKnown reports whether the cell was found.
	Format      models.Format
	FormatKnown bool

	// Extra is the hidden exchange token some gate pages embed; empty when
	// absent. It rides along on the second-stage resolution call.
	Extra string
}

// DownloadParser extracts metadata from download gate pages.
type DownloadParser struct{}

// NewDownloadParser creates a download page parser.
func NewDownloadParser() *DownloadParser {
	return &DownloadParser{}
}

// ParseDownloadPage parses one gate page. All fields are best-effort;
// a page that matches nothing still yields a usable FileStem.
func (p *DownloadParser) ParseDownloadPage(body io.Reader) (*DownloadPage, error) {
	utf8Body, err := NewUTF8Reader(body)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, err
	}

	page := &DownloadPage{
		Title: p.extractTitle(doc),
		Extra: strings.TrimSpace(doc.Find(`input[name="extra"]`).First().AttrOr("value", "")),
	}
	page.FileStem = SafeStem(page.Title)

	if hint, ok := p.extractFormatHint(doc); ok {
		page.Format = models.ParseFormat(hint)
		page.FormatKnown = true
	}

	return page, nil
}

// extractTitle returns the first non-empty match across the ordered
// fallbacks: page h1, the .filename cell, the document title.
func (p *DownloadParser) extractTitle(doc *goquery.Document) string {
	for _, sel := range []string{"h1", "td.filename", "title"} {
		if text := CleanText(doc.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// extractFormatHint reads the metadata table cell labeled 格式/Format and
// returns the adjacent cell's text.
func (p *DownloadParser) extractFormatHint(doc *goquery.Document) (string, bool) {
	var hint string
	doc.Find("td").EachWithBreak(func(_ int, td *goquery.Selection) bool {
		label := strings.TrimSpace(td.Text())
		if !strings.Contains(label, "格式") && !strings.EqualFold(strings.TrimSuffix(label, ":"), "format") {
			return true
		}
		next := td.Next()
		if next.Length() == 0 {
			return true
		}
		hint = strings.TrimSpace(next.Text())
		return hint == ""
	})
	return hint, hint != ""
}
