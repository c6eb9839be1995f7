package parser

import (
	"io"

	"golang.org/x/net/html/charset"
)

// NewUTF8Reader wraps an io.Reader with automatic character encoding
// detection and conversion to UTF-8. The catalogs this parser targets serve
// a mix of GBK, GB18030 and UTF-8 pages, so every document passes through
// this before goquery sees it.
//
// The charset is detected from meta tags, XML declarations, byte order
// marks, or content heuristics, in that order. UTF-8 input passes through
// with minimal overhead.
func NewUTF8Reader(body io.Reader) (io.Reader, error) {
	return charset.NewReader(body, "")
}
