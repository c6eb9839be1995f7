package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/subseek/subseek/internal/apperrors"
	"github.com/subseek/subseek/internal/cache"
	"github.com/subseek/subseek/internal/client"
	"github.com/subseek/subseek/internal/models"
	"github.com/subseek/subseek/internal/request"
)

const searchFixture = `<html><body>
<div class="sublist">
  <div class="item">
    <a href="/detail/48264.html" title="The Wire S01E03 简体字幕"></a>
    <span class="label">ASS</span>
    <i class="dl-ico"></i><span>247</span>
  </div>
  <div class="item">
    <a href="/detail/51031.html" title="The Wire S02E01 English"></a>
    <i class="dl-ico"></i><span>90</span>
  </div>
</div>
</body></html>`

const gateFixture = `<html><head><title>The Wire S01E03</title></head><body>
<h1>The Wire S01E03 简体</h1>
<table><tr><td>格式</td><td>ass</td></tr></table>
<form><input type="hidden" name="extra" value="tok-9f2"/></form>
</body></html>`

// newSubkuFixture wires a subku catalog against a stub upstream. The stub
// implements the full gate flow: the /down page sets a session cookie and
// /api/sub/down refuses exchanges arriving without it.
func newSubkuFixture(t *testing.T, searchCache cache.Cache) (*httptest.Server, Catalog, *int32) {
	t.Helper()

	var searchHits int32
	mux := http.NewServeMux()
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&searchHits, 1)
		fmt.Fprint(w, searchFixture)
	})
	mux.HandleFunc("/down/48264", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Set-Cookie", "session=abc123; Path=/")
		fmt.Fprint(w, gateFixture)
	})
	mux.HandleFunc("/api/sub/down", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Exchange body not JSON: %v", err)
		}
		if body["id"] != "48264" || body["extra"] != "tok-9f2" {
			t.Errorf("Unexpected exchange body: %v", body)
		}
		if !strings.Contains(r.Header.Get("Cookie"), "session=abc123") {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false, "pass": false, "msg": "请完成验证",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true, "pass": true, "url": "/files/The.Wire.S01E03.ass",
		})
	})
	mux.HandleFunc("/files/The.Wire.S01E03.ass", func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.Header.Get("Referer"), "/down/48264") {
			http.Error(w, "hotlink", http.StatusForbidden)
			return
		}
		fmt.Fprint(w, "[Script Info]\nTitle: fixture\n")
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	opts := client.DefaultOptions(server.URL, "subku")
	opts.Retries = 0
	c, err := client.New(opts)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}

	return server, NewSubku(c, searchCache), &searchHits
}

func TestSubkuSearch_NamespacesAndFilters(t *testing.T) {
	_, cat, _ := newSubkuFixture(t, nil)

	req := request.Normalize("the wire", 0, 1, 3, nil)
	candidates, err := cat.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	// Only the S01E03 listing survives the season/episode constraint.
	if len(candidates) != 1 {
		t.Fatalf("Expected 1 candidate, got %d", len(candidates))
	}
	got := candidates[0]
	if got.ID != "subku-48264" {
		t.Errorf("Expected namespaced id subku-48264, got %s", got.ID)
	}
	if got.Catalog != "subku" {
		t.Errorf("Expected catalog subku, got %s", got.Catalog)
	}
	if got.Downloads != 247 {
		t.Errorf("Expected 247 downloads, got %d", got.Downloads)
	}
}

func TestSubkuSearch_EmptyTokensSkipsUpstream(t *testing.T) {
	_, cat, hits := newSubkuFixture(t, nil)

	req := request.Normalize("  ... ", 0, 0, 0, nil)
	candidates, err := cat.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if candidates != nil {
		t.Errorf("Expected no candidates, got %v", candidates)
	}
	if n := atomic.LoadInt32(hits); n != 0 {
		t.Errorf("Expected no upstream calls, got %d", n)
	}
}

func TestSubkuSearch_CachedByFingerprint(t *testing.T) {
	searchCache, err := cache.New("memory", cache.ProviderConfig{Size: 8, TTL: time.Minute})
	if err != nil {
		t.Fatalf("cache.New failed: %v", err)
	}
	defer func() { _ = searchCache.Close() }()

	_, cat, hits := newSubkuFixture(t, searchCache)

	req := request.Normalize("the wire", 0, 0, 0, nil)
	first, err := cat.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("First search failed: %v", err)
	}
	second, err := cat.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("Second search failed: %v", err)
	}

	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("Expected 1 upstream call, got %d", n)
	}
	if len(first) != len(second) {
		t.Fatalf("Cached result differs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Cached candidate %d differs: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}
}

func TestSubkuSearch_ChallengePage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><title>Just a moment...</title><body>cf-chl challenge</body></html>")
	}))
	defer server.Close()

	opts := client.DefaultOptions(server.URL, "subku")
	opts.Retries = 0
	c, err := client.New(opts)
	if err != nil {
		t.Fatalf("client.New failed: %v", err)
	}
	cat := NewSubku(c, nil)

	_, err = cat.Search(context.Background(), request.Normalize("the wire", 0, 0, 0, nil))
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("Expected classified error, got %v", err)
	}
	if appErr.Kind != apperrors.KindBadResponse || appErr.Detail.Classification != apperrors.ClassAntiBot {
		t.Errorf("Expected anti-bot bad-response, got kind=%s class=%s", appErr.Kind, appErr.Detail.Classification)
	}
}

func TestSubkuResolveDownloadPlan_GateFlow(t *testing.T) {
	server, cat, _ := newSubkuFixture(t, nil)

	plan, err := cat.ResolveDownloadPlan(context.Background(), "subku-48264")
	if err != nil {
		t.Fatalf("ResolveDownloadPlan failed: %v", err)
	}

	if plan.Catalog != "subku" || plan.CandidateID != "subku-48264" {
		t.Errorf("Unexpected plan identity: %+v", plan)
	}
	if plan.FileName != "The.Wire.S01E03.ass" {
		t.Errorf("Expected file name from URL segment, got %s", plan.FileName)
	}
	if plan.Format != models.FormatASS {
		t.Errorf("Expected ass format, got %s", plan.Format)
	}
	if want := server.URL + "/files/The.Wire.S01E03.ass"; plan.URL != want {
		t.Errorf("Expected absolute URL %s, got %s", want, plan.URL)
	}
}

func TestSubkuResolveDownloadPlan_RejectsMalformedIDs(t *testing.T) {
	_, cat, _ := newSubkuFixture(t, nil)

	for _, id := range []string{"48264", "mock-1", "subku-", "subku-../../etc", "subku-a b"} {
		_, err := cat.ResolveDownloadPlan(context.Background(), id)
		if apperrors.KindOf(err) != apperrors.KindNotFound {
			t.Errorf("ID %q: expected not-found, got %v", id, err)
		}
	}
}

func TestSubkuResolveDownloadPlan_GateRefusals(t *testing.T) {
	cases := []struct {
		msg  string
		want apperrors.Classification
	}{
		{"操作频繁，请稍后再试", apperrors.ClassRateLimit},
		{"请完成验证后继续", apperrors.ClassAntiBot},
		{"资源状态异常", apperrors.ClassBadResponse},
	}

	for _, tc := range cases {
		msg := tc.msg
		mux := http.NewServeMux()
		mux.HandleFunc("/down/48264", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, gateFixture)
		})
		mux.HandleFunc("/api/sub/down", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false, "pass": false, "msg": msg,
			})
		})
		server := httptest.NewServer(mux)

		opts := client.DefaultOptions(server.URL, "subku")
		opts.Retries = 0
		c, err := client.New(opts)
		if err != nil {
			t.Fatalf("client.New failed: %v", err)
		}

		_, err = NewSubku(c, nil).ResolveDownloadPlan(context.Background(), "subku-48264")
		var appErr *apperrors.Error
		if !errors.As(err, &appErr) {
			t.Fatalf("Msg %q: expected classified error, got %v", tc.msg, err)
		}
		if appErr.Detail.Classification != tc.want {
			t.Errorf("Msg %q: expected %s, got %s", tc.msg, tc.want, appErr.Detail.Classification)
		}
		server.Close()
	}
}

func TestSubkuFetchBytes_SendsSessionAndReferer(t *testing.T) {
	_, cat, _ := newSubkuFixture(t, nil)

	payload, err := cat.FetchBytes(context.Background(), "subku-48264")
	if err != nil {
		t.Fatalf("FetchBytes failed: %v", err)
	}
	if !strings.HasPrefix(string(payload.Content), "[Script Info]") {
		t.Errorf("Unexpected content: %q", payload.Content)
	}
	if payload.Plan.FileName != "The.Wire.S01E03.ass" {
		t.Errorf("Unexpected plan file name: %s", payload.Plan.FileName)
	}
}

func TestSubkuHealthCheck(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>subku index</body></html>")
		}))
		defer server.Close()

		opts := client.DefaultOptions(server.URL, "subku")
		opts.Retries = 0
		c, _ := client.New(opts)
		health := NewSubku(c, nil).HealthCheck(context.Background())
		if !health.OK || health.Message != "ok" {
			t.Errorf("Expected healthy, got %+v", health)
		}
	})

	t.Run("gated reports degraded but reachable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "<html><title>Attention Required! | Cloudflare</title></html>")
		}))
		defer server.Close()

		opts := client.DefaultOptions(server.URL, "subku")
		opts.Retries = 0
		c, _ := client.New(opts)
		health := NewSubku(c, nil).HealthCheck(context.Background())
		if !health.OK {
			t.Errorf("Expected OK despite gate, got %+v", health)
		}
		if !strings.Contains(health.Message, "challenge") {
			t.Errorf("Expected challenge message, got %q", health.Message)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		opts := client.DefaultOptions("http://127.0.0.1:1", "subku")
		opts.Retries = 0
		opts.Timeout = 500 * time.Millisecond
		c, _ := client.New(opts)
		health := NewSubku(c, nil).HealthCheck(context.Background())
		if health.OK {
			t.Errorf("Expected unhealthy, got %+v", health)
		}
	})
}
