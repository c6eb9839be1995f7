package client

import (
	"sort"
	"strings"
)

// maxCookieValueLen bounds accepted cookie values; anything longer is
// dropped rather than truncated.
const maxCookieValueLen = 4096

// cookieJar is a name→value map scoped to one Client's origin for the
// Client's lifetime. It is not safe for concurrent mutation.
type cookieJar struct {
	values map[string]string
}

func newCookieJar() *cookieJar {
	return &cookieJar{values: make(map[string]string)}
}

func (j *cookieJar) get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

// header renders the jar as a Cookie header value, sorted by name so the
// output is deterministic.
func (j *cookieJar) header() string {
	if len(j.values) == 0 {
		return ""
	}
	names := make([]string, 0, len(j.values))
	for name := range j.values {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+j.values[name])
	}
	return strings.Join(pairs, "; ")
}

// merge folds Set-Cookie header values into the jar: overwrite on set,
// delete when the value is empty or the literal "deleted".
func (j *cookieJar) merge(setCookieHeaders []string) {
	for _, header := range setCookieHeaders {
		for _, raw := range splitSetCookie(header) {
			name, value, ok := parseCookiePair(raw)
			if !ok {
				continue
			}
			if value == "" || strings.EqualFold(value, "deleted") {
				delete(j.values, name)
				continue
			}
			if len(value) > maxCookieValueLen {
				continue
			}
			j.values[name] = value
		}
	}
}

// parseCookiePair extracts the name=value pair before the first attribute
// separator.
func parseCookiePair(raw string) (name, value string, ok bool) {
	if idx := strings.IndexByte(raw, ';'); idx >= 0 {
		raw = raw[:idx]
	}
	eq := strings.IndexByte(raw, '=')
	if eq <= 0 {
		return "", "", false
	}
	name = strings.TrimSpace(raw[:eq])
	value = strings.TrimSpace(raw[eq+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}

// splitSetCookie splits a possibly comma-joined Set-Cookie header into
// individual cookie strings. A comma only separates cookies when what
// follows looks like a new name=value pair; commas inside Expires= date
// fragments ("Expires=Thu, 18 Dec 2013 ...") never match because the text
// after them reaches a ';' before any '='.
func splitSetCookie(header string) []string {
	var parts []string
	start := 0

	for i := 0; i < len(header); i++ {
		if header[i] != ',' {
			continue
		}
		rest := header[i+1:]
		j := 0
		for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
			j++
		}
		k := j
		for k < len(rest) && rest[k] != '=' && rest[k] != ';' && rest[k] != ',' {
			k++
		}
		if k < len(rest) && rest[k] == '=' && k > j && !strings.ContainsAny(rest[j:k], " \t") {
			parts = append(parts, strings.TrimSpace(header[start:i]))
			start = i + 1
		}
	}

	if tail := strings.TrimSpace(header[start:]); tail != "" {
		parts = append(parts, tail)
	}
	return parts
}
