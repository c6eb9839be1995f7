package client

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

// acceptedEncodings is advertised on outgoing requests when the caller has
// not set its own Accept-Encoding.
const acceptedEncodings = "gzip, br, zstd"

// decompressTransport wraps an http.RoundTripper and transparently
// decompresses gzip, brotli and zstd response bodies. Catalogs routinely
// serve compressed HTML regardless of what small clients advertise.
type decompressTransport struct {
	base http.RoundTripper
}

func newDecompressTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &decompressTransport{base: base}
}

func (t *decompressTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Work on a copy so the caller's request stays untouched.
	req = req.Clone(req.Context())
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", acceptedEncodings)
	}

	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if resp.Body == nil || resp.Body == http.NoBody {
		return resp, nil
	}

	encoding := outermostEncoding(resp.Header.Get("Content-Encoding"))
	var reader io.ReadCloser
	switch encoding {
	case "":
		return resp, nil
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		reader = gz
	case "br":
		reader = io.NopCloser(brotli.NewReader(resp.Body))
	case "zstd":
		zr, err := zstd.NewReader(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		reader = zr.IOReadCloser()
	default:
		// Unknown encoding, hand the body through untouched.
		return resp, nil
	}

	resp.Body = &decodedBody{reader: reader, original: resp.Body}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	return resp, nil
}

// decodedBody closes both the decompressor and the underlying body.
type decodedBody struct {
	reader   io.ReadCloser
	original io.ReadCloser
}

func (d *decodedBody) Read(p []byte) (int, error) {
	return d.reader.Read(p)
}

func (d *decodedBody) Close() error {
	readerErr := d.reader.Close()
	if bodyErr := d.original.Close(); readerErr == nil {
		return bodyErr
	}
	return readerErr
}

// outermostEncoding returns the last encoding of a Content-Encoding list,
// which is the one that must be removed first.
func outermostEncoding(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.Split(header, ",")
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
