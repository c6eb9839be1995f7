package parser

import (
	"strings"
	"testing"

	"github.com/subseek/subseek/internal/models"
)

const downloadFixture = `
<html><head><title>下载页</title></head><body>
<h1>三体 S01E03 双语字幕</h1>
<table class="meta">
  <tr><td>格式：</td><td>ASS</td></tr>
  <tr><td>大小：</td><td>58 KB</td></tr>
</table>
<form><input type="hidden" name="extra" value="tok-9f2c"></form>
</body></html>`

func TestDownloadParser_Fixture(t *testing.T) {
	p := NewDownloadParser()

	page, err := p.ParseDownloadPage(strings.NewReader(downloadFixture))
	if err != nil {
		t.Fatalf("ParseDownloadPage failed: %v", err)
	}

	if page.Title != "三体 S01E03 双语字幕" {
		t.Errorf("Unexpected title %q", page.Title)
	}
	if !page.FormatKnown || page.Format != models.FormatASS {
		t.Errorf("Expected known ass format, got known=%v format=%v", page.FormatKnown, page.Format)
	}
	if page.Extra != "tok-9f2c" {
		t.Errorf("Expected extra token, got %q", page.Extra)
	}
	if page.FileStem != "三体 S01E03 双语字幕" {
		t.Errorf("Unexpected file stem %q", page.FileStem)
	}
}

func TestDownloadParser_TitleFallbacks(t *testing.T) {
	p := NewDownloadParser()

	page, err := p.ParseDownloadPage(strings.NewReader(
		`<html><head><title>Doc Title</title></head><body><table><tr><td class="filename">file.from.cell</td></tr></table></body></html>`))
	if err != nil {
		t.Fatalf("ParseDownloadPage failed: %v", err)
	}
	if page.Title != "file.from.cell" {
		t.Errorf("Expected td.filename fallback, got %q", page.Title)
	}

	page, err = p.ParseDownloadPage(strings.NewReader(
		`<html><head><title>Doc Title</title></head><body></body></html>`))
	if err != nil {
		t.Fatalf("ParseDownloadPage failed: %v", err)
	}
	if page.Title != "Doc Title" {
		t.Errorf("Expected document title fallback, got %q", page.Title)
	}
}

func TestDownloadParser_EmptyPageStillYieldsStem(t *testing.T) {
	p := NewDownloadParser()

	page, err := p.ParseDownloadPage(strings.NewReader("<html></html>"))
	if err != nil {
		t.Fatalf("ParseDownloadPage failed: %v", err)
	}
	if page.FileStem != "subtitle" {
		t.Errorf("Expected placeholder stem, got %q", page.FileStem)
	}
	if page.FormatKnown {
		t.Error("Expected format unknown")
	}
	if page.Extra != "" {
		t.Errorf("Expected empty extra, got %q", page.Extra)
	}
}

func TestSafeStem(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"unsafe chars stripped", `a/b\c:d*e?f"g<h>i|j`, "a b c d e f g h i j"},
		{"whitespace collapsed", "  a \t b  ", "a b"},
		{"empty falls back", "///???", "subtitle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeStem(tt.input); got != tt.want {
				t.Errorf("SafeStem(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeStem_BoundedLength(t *testing.T) {
	long := strings.Repeat("字", 100)
	stem := SafeStem(long)

	if len(stem) > maxStemLen {
		t.Errorf("Expected stem ≤ %d bytes, got %d", maxStemLen, len(stem))
	}
	if !strings.HasPrefix(long, stem) {
		t.Error("Expected stem to be a clean prefix without broken runes")
	}
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<b>bold</b> text", "bold text"},
		{"a &amp; b &#x4e09; &#20307;", "a & b 三 体"},
		{"  spaced\n\tout  ", "spaced out"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanText(tt.input); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
