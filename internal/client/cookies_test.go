package client

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitSetCookie_ExpiresCommaNotSplit(t *testing.T) {
	header := "session=abc; Expires=Thu, 18 Dec 2025 12:00:00 GMT; Path=/"

	parts := splitSetCookie(header)
	if len(parts) != 1 {
		t.Fatalf("Expected 1 cookie, got %d: %v", len(parts), parts)
	}
	if !strings.HasPrefix(parts[0], "session=abc") {
		t.Errorf("Unexpected cookie %q", parts[0])
	}
}

func TestSplitSetCookie_MultipleCookies(t *testing.T) {
	header := "a=1; Path=/, b=2; Expires=Mon, 01 Jan 2026 00:00:00 GMT, c=3"

	parts := splitSetCookie(header)
	want := []string{
		"a=1; Path=/",
		"b=2; Expires=Mon, 01 Jan 2026 00:00:00 GMT",
		"c=3",
	}
	if !reflect.DeepEqual(parts, want) {
		t.Errorf("Expected %v, got %v", want, parts)
	}
}

func TestCookieJar_MergeOverwrites(t *testing.T) {
	jar := newCookieJar()
	jar.merge([]string{"session=old"})
	jar.merge([]string{"session=new; Path=/"})

	if v, _ := jar.get("session"); v != "new" {
		t.Errorf("Expected overwritten value 'new', got %q", v)
	}
}

func TestCookieJar_DeleteOnEmptyOrDeleted(t *testing.T) {
	jar := newCookieJar()
	jar.merge([]string{"a=1", "b=2"})

	jar.merge([]string{"a=deleted; Expires=Thu, 01 Jan 1970 00:00:00 GMT"})
	if _, ok := jar.get("a"); ok {
		t.Error("Expected cookie 'a' to be deleted on literal 'deleted'")
	}

	jar.merge([]string{"b=; Path=/"})
	if _, ok := jar.get("b"); ok {
		t.Error("Expected cookie 'b' to be deleted on empty value")
	}
}

func TestCookieJar_OversizedValueDropped(t *testing.T) {
	jar := newCookieJar()
	jar.merge([]string{"big=" + strings.Repeat("v", maxCookieValueLen+1)})

	if _, ok := jar.get("big"); ok {
		t.Error("Expected oversized cookie value to be dropped")
	}
}

func TestCookieJar_HeaderDeterministic(t *testing.T) {
	jar := newCookieJar()
	jar.merge([]string{"zeta=1", "alpha=2", "mid=3"})

	want := "alpha=2; mid=3; zeta=1"
	if got := jar.header(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestCookieJar_EmptyHeader(t *testing.T) {
	jar := newCookieJar()
	if got := jar.header(); got != "" {
		t.Errorf("Expected empty header, got %q", got)
	}
}
