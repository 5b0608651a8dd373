package linkcheck

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/coolbeans/legisbr/pkg/catalog"
)

func testChecker(t *testing.T) *Checker {
	t.Helper()
	config := DefaultConfig()
	config.HostSpacing = 0
	return New(config, zerolog.Nop())
}

func TestCheckURLOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := testChecker(t).CheckURL(context.Background(), "8078", server.URL)
	if result.Status != StatusOK {
		t.Fatalf("status = %s, want ok", result.Status)
	}
	if !result.OK() {
		t.Error("OK() = false for 200 response")
	}
	if result.Code != "8078" {
		t.Errorf("code = %q", result.Code)
	}
}

func TestCheckURLHeadRejectedFallsBackToGet(t *testing.T) {
	var gets atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		gets.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := testChecker(t).CheckURL(context.Background(), "8078", server.URL)
	if result.Status != StatusOK {
		t.Fatalf("status = %s, want ok after GET fallback", result.Status)
	}
	if gets.Load() != 1 {
		t.Errorf("GET requests = %d, want 1", gets.Load())
	}
}

func TestCheckURLBroken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result := testChecker(t).CheckURL(context.Background(), "9999", server.URL)
	if result.Status != StatusBroken {
		t.Fatalf("status = %s, want broken", result.Status)
	}
	if result.StatusCode != http.StatusNotFound {
		t.Errorf("status code = %d", result.StatusCode)
	}
}

func TestCheckURLRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Location", "https://www.planalto.gov.br/novo")
		w.WriteHeader(http.StatusMovedPermanently)
	}))
	defer server.Close()

	result := testChecker(t).CheckURL(context.Background(), "8078", server.URL)
	if result.Status != StatusRedirect {
		t.Fatalf("status = %s, want redirect", result.Status)
	}
	if result.Location != "https://www.planalto.gov.br/novo" {
		t.Errorf("location = %q", result.Location)
	}
	if !result.OK() {
		t.Error("OK() = false for redirect")
	}
}

func TestCheckURLInvalid(t *testing.T) {
	result := testChecker(t).CheckURL(context.Background(), "x", "::not-a-url")
	if result.Status != StatusError {
		t.Fatalf("status = %s, want error", result.Status)
	}
}

func TestCheckURLCaches(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checker := testChecker(t)
	checker.CheckURL(context.Background(), "8078", server.URL)
	checker.CheckURL(context.Background(), "8078", server.URL)
	if hits.Load() != 1 {
		t.Errorf("requests = %d, want 1 (second check should hit cache)", hits.Load())
	}
}

func TestCheckURLCacheExpiry(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	config := DefaultConfig()
	config.HostSpacing = 0
	config.CacheTTL = 10 * time.Millisecond
	checker := New(config, zerolog.Nop())

	checker.CheckURL(context.Background(), "8078", server.URL)
	time.Sleep(20 * time.Millisecond)
	checker.CheckURL(context.Background(), "8078", server.URL)
	if hits.Load() != 2 {
		t.Errorf("requests = %d, want 2 after TTL expiry", hits.Load())
	}
}

func TestCheckCatalog(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer okServer.Close()
	brokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer brokenServer.Close()

	cat := &catalog.Catalog{Laws: []catalog.Law{
		{Code: "8078", ID: "lei-8078", URL: okServer.URL},
		{Code: "9099", ID: "lei-9099", URL: brokenServer.URL},
		{Code: "10406", ID: "lei-10406", URL: okServer.URL},
	}}

	report := testChecker(t).CheckCatalog(context.Background(), cat)
	if report.Checked != 3 {
		t.Fatalf("checked = %d, want 3", report.Checked)
	}
	if report.Broken != 1 {
		t.Fatalf("broken = %d, want 1", report.Broken)
	}
	// Order follows the catalog.
	if report.Results[1].Code != "9099" || report.Results[1].OK() {
		t.Errorf("result[1] = %+v, want broken 9099", report.Results[1])
	}
}
