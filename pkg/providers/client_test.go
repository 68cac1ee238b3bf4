package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/httputil"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"AAPL","last":185.5}`))
	}))
	defer server.Close()

	c := NewClient(cache.NewNullCache(), "test", 0, nil)

	var out struct {
		Symbol string  `json:"symbol"`
		Last   float64 `json:"last"`
	}
	if err := c.Get(context.Background(), server.URL, &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Symbol != "AAPL" || out.Last != 185.5 {
		t.Errorf("got %+v", out)
	}
}

func TestClient_GetSendsHeaders(t *testing.T) {
	var gotUA, gotExtra string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotExtra = r.Header.Get("X-Extra")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(cache.NewNullCache(), "test", 0, BrowserHeaders)
	var out map[string]any
	if err := c.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Extra": "yes"}, &out); err != nil {
		t.Fatalf("GetWithHeaders: %v", err)
	}
	if gotUA != BrowserHeaders["User-Agent"] {
		t.Errorf("user agent not applied: %q", gotUA)
	}
	if gotExtra != "yes" {
		t.Errorf("extra header not applied: %q", gotExtra)
	}
}

func TestClient_GetMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	c := NewClient(cache.NewNullCache(), "test", 0, nil)
	var out map[string]any
	err := c.Get(context.Background(), server.URL, &out)
	if !errors.Is(err, errors.ErrCodeUpstreamData) {
		t.Fatalf("expected UPSTREAM_DATA, got %v", err)
	}
	if httputil.IsRetryable(err) {
		t.Error("malformed payload must not be retryable")
	}
}

func TestClient_Cached(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"value":42}`))
	}))
	defer server.Close()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(backend, "test", time.Hour, nil)
	ctx := context.Background()

	type payload struct {
		Value int `json:"value"`
	}
	fetch := func(v *payload) func() error {
		return func() error { return c.Get(ctx, server.URL, v) }
	}

	var first payload
	if err := c.Cached(ctx, "k", false, &first, fetch(&first)); err != nil {
		t.Fatalf("Cached: %v", err)
	}
	var second payload
	if err := c.Cached(ctx, "k", false, &second, fetch(&second)); err != nil {
		t.Fatalf("Cached: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 upstream call, got %d", calls.Load())
	}
	if second.Value != 42 {
		t.Errorf("cached value = %d", second.Value)
	}

	// refresh bypasses the cache
	var third payload
	if err := c.Cached(ctx, "k", true, &third, fetch(&third)); err != nil {
		t.Fatalf("Cached refresh: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected refresh to hit upstream, calls = %d", calls.Load())
	}
}

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status    int
		wantCode  errors.Code
		retryable bool
	}{
		{200, "", false},
		{204, "", false},
		{401, errors.ErrCodeUpstreamAuth, false},
		{403, errors.ErrCodeUpstreamAuth, false},
		{404, errors.ErrCodeNotFound, false},
		{408, errors.ErrCodeTimeout, true},
		{429, errors.ErrCodeRateLimited, true},
		{500, errors.ErrCodeUpstream, true},
		{502, errors.ErrCodeUpstream, true},
		{503, errors.ErrCodeUpstream, true},
		{400, errors.ErrCodeUpstream, false},
	}
	for _, tc := range cases {
		err := ClassifyStatus(tc.status)
		if tc.wantCode == "" {
			if err != nil {
				t.Errorf("status %d: unexpected error %v", tc.status, err)
			}
			continue
		}
		if !errors.Is(err, tc.wantCode) {
			t.Errorf("status %d: code = %v, want %s", tc.status, errors.GetCode(err), tc.wantCode)
		}
		if got := httputil.IsRetryable(err); got != tc.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tc.status, got, tc.retryable)
		}
	}
}

func TestClient_ConnectionRefusedIsRetryable(t *testing.T) {
	// Point at a closed port.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(cache.NewNullCache(), "test", 0, nil)
	var out map[string]any
	err := c.Get(context.Background(), url, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !httputil.IsRetryable(err) {
		t.Errorf("connection failure should be retryable: %v", err)
	}
}

func TestExpectKey(t *testing.T) {
	present := []string{"a"}
	if err := ExpectKey(&present, "questrade", "accounts"); err != nil {
		t.Errorf("present key rejected: %v", err)
	}
	var missing *[]string
	err := ExpectKey(missing, "questrade", "accounts")
	if !errors.Is(err, errors.ErrCodeUpstreamData) {
		t.Errorf("expected UPSTREAM_DATA for missing key, got %v", err)
	}
}
