package parser

import (
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/subseek/subseek/internal/config"
	"github.com/subseek/subseek/internal/models"
)

// SearchParser extracts candidate listings from catalog search result pages.
// Extraction is total over malformed input: missing fields yield absent
// values, never errors.
type SearchParser struct{}

// NewSearchParser creates a search result parser.
func NewSearchParser() *SearchParser {
	return &SearchParser{}
}

var (
	detailIDPattern  = regexp.MustCompile(`/detail/([A-Za-z0-9]+)(?:\.html)?`)
	downloadsLabeled = regexp.MustCompile(`(\d[\d,]{0,15})\s*(?:次下载|次|downloads?)`)
	releasePattern   = regexp.MustCompile(`\b[A-Za-z0-9]+(?:\.[A-Za-z0-9-]+){2,}\b`)
)

// ParseSearchResults parses a search results document into candidates.
// Candidates carry the catalog-local identifier; the provider maps them
// into its id namespace. Duplicated identifiers keep the first occurrence.
func (p *SearchParser) ParseSearchResults(body io.Reader) ([]models.Candidate, error) {
	utf8Body, err := NewUTF8Reader(body)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(utf8Body)
	if err != nil {
		return nil, err
	}

	logger := config.GetLogger()

	var candidates []models.Candidate
	seen := make(map[string]struct{})

	doc.Find(".sublist .item").Each(func(i int, item *goquery.Selection) {
		id := p.extractID(item)
		if id == "" {
			logger.Debug().Int("item", i).Msg("Search item without identifier, skipped")
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		title := p.extractTitle(item)
		hint := strings.TrimSpace(item.Find(".label").First().Text())
		combined := title + " " + hint

		candidates = append(candidates, models.Candidate{
			ID:              id,
			Title:           title,
			Language:        InferLanguage(combined),
			Format:          InferFormat(combined),
			Downloads:       p.extractDownloads(item),
			HearingImpaired: inferHearingImpaired(combined),
			Release:         extractRelease(title),
		})
	})

	logger.Debug().Int("candidates", len(candidates)).Msg("Parsed search results")
	return candidates, nil
}

// extractID pulls the catalog-local identifier from the item's detail link.
func (p *SearchParser) extractID(item *goquery.Selection) string {
	var id string
	item.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		if m := detailIDPattern.FindStringSubmatch(href); m != nil {
			id = m[1]
			return false
		}
		return true
	})
	return id
}

// extractTitle returns the first non-empty match across the ordered
// fallback list: link title attribute, link text, .title element.
func (p *SearchParser) extractTitle(item *goquery.Selection) string {
	link := item.Find("a[href*='/detail/']").First()

	if title, ok := link.Attr("title"); ok {
		if cleaned := CleanText(title); cleaned != "" {
			return cleaned
		}
	}
	if cleaned := CleanText(link.Text()); cleaned != "" {
		return cleaned
	}
	return CleanText(item.Find(".title").First().Text())
}

// extractDownloads finds the download counter: an icon-adjacent numeric
// span first, then a labeled "downloads" numeral anywhere in the segment.
// Comma separators are stripped; absence yields zero.
func (p *SearchParser) extractDownloads(item *goquery.Selection) int {
	raw := strings.TrimSpace(item.Find("i.dl-ico + span").First().Text())
	if raw == "" {
		raw = strings.TrimSpace(item.Find(".dl-count").First().Text())
	}
	if raw == "" {
		if m := downloadsLabeled.FindStringSubmatch(item.Text()); m != nil {
			raw = m[1]
		}
	}
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(raw, ",", ""))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// extractRelease pulls a dotted release name out of the title when present.
func extractRelease(title string) string {
	return releasePattern.FindString(title)
}
