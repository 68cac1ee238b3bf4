package yahoo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
)

func chartPayload() map[string]any {
	return map[string]any{
		"chart": map[string]any{
			"result": []map[string]any{{
				"meta":      map[string]any{"symbol": "AAPL", "currency": "USD", "regularMarketPrice": 185.5},
				"timestamp": []int64{1709300000, 1709386400, 1709472800},
				"indicators": map[string]any{
					"quote": []map[string]any{{
						"open":   []any{183.0, 184.0, nil},
						"high":   []any{185.0, 186.0, 187.0},
						"low":    []any{182.0, 183.5, 184.0},
						"close":  []any{184.5, 185.5, 186.5},
						"volume": []any{1000000, 1200000, 900000},
					}},
				},
			}},
			"error": nil,
		},
	}
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/AAPL" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("interval"); got != "1d" {
			t.Errorf("interval for 1y = %s, want 1d", got)
		}
		json.NewEncoder(w).Encode(chartPayload())
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	res, err := c.History(context.Background(), "aapl", "1y")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	result := res.Chart.Result[0]
	if result.Meta.Symbol != "AAPL" {
		t.Errorf("meta = %+v", result.Meta)
	}

	bars := result.Bars()
	if len(bars) != 2 {
		t.Fatalf("expected null row skipped, got %d bars", len(bars))
	}
	if bars[1].Close != 185.5 || bars[1].Volume != 1200000 {
		t.Errorf("bar = %+v", bars[1])
	}
}

func TestHistory_MonthlyIntervalForLongPeriods(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("interval"); got != "1mo" {
			t.Errorf("interval for 5y = %s, want 1mo", got)
		}
		json.NewEncoder(w).Encode(chartPayload())
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.History(context.Background(), "AAPL", "5y"); err != nil {
		t.Fatal(err)
	}
}

func TestHistory_Validation(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	if _, err := c.History(ctx, "", "1y"); !errors.IsInvalidInput(err) {
		t.Errorf("empty ticker: got %v", err)
	}
	if _, err := c.History(ctx, "AAPL", "7y"); !errors.IsInvalidInput(err) {
		t.Errorf("bad period: got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("validation failures must not reach the API")
	}
}

func TestHistory_Cached(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		json.NewEncoder(w).Encode(chartPayload())
	}))
	defer srv.Close()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	c := NewClient(Config{BaseURL: srv.URL, Cache: backend})
	ctx := context.Background()

	if _, err := c.History(ctx, "AAPL", "1y"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.History(ctx, "AAPL", "1y"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 1 {
		t.Errorf("second identical lookup hit the network: %d calls", calls.Load())
	}

	// A different period is a different cache key.
	if _, err := c.History(ctx, "AAPL", "6mo"); err != nil {
		t.Fatal(err)
	}
	if calls.Load() != 2 {
		t.Errorf("distinct period should miss the cache: %d calls", calls.Load())
	}
}

func TestHistory_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"chart": map[string]any{
				"result": nil,
				"error":  map[string]any{"code": "Not Found", "description": "No data found, symbol may be delisted"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.History(context.Background(), "ZZZZX", "1y"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestHistory_MissingKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"unexpected": true})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.History(context.Background(), "AAPL", "1y"); !errors.Is(err, errors.ErrCodeUpstreamData) {
		t.Fatalf("expected UPSTREAM_DATA, got %v", err)
	}
}

func TestTickerData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v10/finance/quoteSummary/MSFT" {
			t.Errorf("path = %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"quoteSummary": map[string]any{
				"result": []map[string]any{{
					"price":         map[string]any{"regularMarketPrice": map[string]any{"raw": 420.5}},
					"summaryDetail": map[string]any{"trailingPE": map[string]any{"raw": 35.2}},
				}},
				"error": nil,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	res, err := c.TickerData(context.Background(), "MSFT")
	if err != nil {
		t.Fatalf("TickerData: %v", err)
	}
	modules := res.QuoteSummary.Result[0]
	if _, ok := modules["price"]; !ok {
		t.Errorf("price module missing: %v", modules)
	}
}

func TestFinancialStatements_ModuleSelection(t *testing.T) {
	var gotModules string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotModules = r.URL.Query().Get("modules")
		json.NewEncoder(w).Encode(map[string]any{
			"quoteSummary": map[string]any{"result": []map[string]any{{}}, "error": nil},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	if _, err := c.FinancialStatements(ctx, "AAPL", []string{"income", "cash"}, true); err != nil {
		t.Fatal(err)
	}
	if gotModules != "incomeStatementHistoryQuarterly,cashflowStatementHistoryQuarterly" {
		t.Errorf("quarterly modules = %s", gotModules)
	}

	if _, err := c.FinancialStatements(ctx, "AAPL", nil, false); err != nil {
		t.Fatal(err)
	}
	if gotModules != "incomeStatementHistory" {
		t.Errorf("default modules = %s", gotModules)
	}

	if _, err := c.FinancialStatements(ctx, "AAPL", []string{"equity"}, false); !errors.IsInvalidInput(err) {
		t.Errorf("bad statement type: got %v", err)
	}
}

func TestMovers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("scrIds"); got != "day_gainers" {
			t.Errorf("scrIds = %s", got)
		}
		if got := r.URL.Query().Get("count"); got != "100" {
			t.Errorf("count = %s, want clamped to 100", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"finance": map[string]any{
				"result": []map[string]any{{
					"id":    "day_gainers",
					"count": 1,
					"quotes": []map[string]any{
						{"symbol": "NVDA", "regularMarketChangePercent": 4.2},
					},
				}},
				"error": nil,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	res, err := c.Movers(context.Background(), "gainers", 500)
	if err != nil {
		t.Fatalf("Movers: %v", err)
	}
	quotes := res.Finance.Result[0].Quotes
	if len(quotes) != 1 || quotes[0].Symbol != "NVDA" {
		t.Errorf("got %+v", quotes)
	}

	if _, err := c.Movers(context.Background(), "sideways", 10); !errors.IsInvalidInput(err) {
		t.Errorf("bad category: got %v", err)
	}
}

func TestOptionsChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/options/AAPL" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("date"); got != "1718928000" {
			t.Errorf("date = %s", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"optionChain": map[string]any{
				"result": []map[string]any{{
					"underlyingSymbol": "AAPL",
					"expirationDates":  []int64{1718928000},
					"options": []map[string]any{{
						"expirationDate": 1718928000,
						"calls": []map[string]any{
							{"contractSymbol": "AAPL240621C00185000", "strike": 185, "openInterest": 5000},
						},
						"puts": []map[string]any{},
					}},
				}},
				"error": nil,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	res, err := c.OptionsChain(context.Background(), "AAPL", 1718928000)
	if err != nil {
		t.Fatalf("OptionsChain: %v", err)
	}
	calls := res.OptionChain.Result[0].Options[0].Calls
	if len(calls) != 1 || calls[0].Strike != 185 {
		t.Errorf("got %+v", calls)
	}

	if _, err := c.OptionsChain(context.Background(), "AAPL", -1); !errors.IsInvalidInput(err) {
		t.Errorf("negative expiration: got %v", err)
	}
}
