package questrade

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/finbridge/investor-agent/pkg/errors"
)

// fakeBrokerage is an httptest server that speaks just enough of the
// Questrade wire protocol: a token exchange endpoint plus per-path API
// handlers. It counts exchanges and API calls so tests can assert on the
// handle lifecycle and retry behavior.
type fakeBrokerage struct {
	*httptest.Server
	exchanges atomic.Int32
	apiCalls  atomic.Int32
	handlers  map[string]http.HandlerFunc
}

func newFakeBrokerage(t *testing.T) *fakeBrokerage {
	t.Helper()
	f := &fakeBrokerage{handlers: make(map[string]http.HandlerFunc)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			f.exchanges.Add(1)
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at-" + fmt.Sprint(f.exchanges.Load()),
				"refresh_token": "rt-rotated",
				"api_server":    f.Server.URL + "/",
				"token_type":    "Bearer",
				"expires_in":    1800,
			})
			return
		}
		f.apiCalls.Add(1)
		if h, ok := f.handlers[r.URL.Path]; ok {
			h(w, r)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *fakeBrokerage) handle(path string, payload any) {
	f.handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payload)
	}
}

func testClient(t *testing.T, f *fakeBrokerage) *Client {
	t.Helper()
	c, err := NewClient(Config{
		RefreshToken: "rt-manual",
		LoginURL:     f.URL,
		TokenPath:    filepath.Join(t.TempDir(), "questrade.json"),
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestNewClient_MissingCredential(t *testing.T) {
	t.Setenv(EnvRefreshToken, "")
	_, err := NewClient(Config{TokenPath: filepath.Join(t.TempDir(), "questrade.json")})
	if !errors.Is(err, errors.ErrCodeConfigMissing) {
		t.Fatalf("expected CONFIG_MISSING, got %v", err)
	}
}

func TestNewClient_EnvCredential(t *testing.T) {
	t.Setenv(EnvRefreshToken, "rt-from-env")
	c, err := NewClient(Config{TokenPath: filepath.Join(t.TempDir(), "questrade.json")})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if c.refreshToken != "rt-from-env" {
		t.Errorf("refresh token = %q", c.refreshToken)
	}
}

func TestNewClient_TokenFileCountsAsCredential(t *testing.T) {
	t.Setenv(EnvRefreshToken, "")
	path := filepath.Join(t.TempDir(), "questrade.json")
	store, err := NewTokenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&Token{RefreshToken: "rt-stored"}); err != nil {
		t.Fatal(err)
	}

	if _, err := NewClient(Config{TokenPath: path}); err != nil {
		t.Fatalf("expected token file to satisfy credential check, got %v", err)
	}
}

func TestAccounts(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts", map[string]any{
		"accounts": []map[string]any{
			{"type": "Margin", "number": "123456", "status": "Active", "isPrimary": true},
		},
	})

	c := testClient(t, f)
	res, err := c.Accounts(context.Background())
	if err != nil {
		t.Fatalf("Accounts: %v", err)
	}
	accounts := *res.Accounts
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Number != "123456" || accounts[0].Type != "Margin" {
		t.Errorf("got %+v", accounts[0])
	}
}

func TestPositions_ReturnsEnvelopeUnchanged(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts/123456/positions", map[string]any{
		"positions": []map[string]any{
			{"symbol": "AAPL", "openQuantity": 100, "currentPrice": 185.5},
		},
	})

	c := testClient(t, f)
	res, err := c.Positions(context.Background(), "123456")
	if err != nil {
		t.Fatalf("Positions: %v", err)
	}
	positions := *res.Positions
	if len(positions) != 1 {
		t.Fatalf("expected 1 position, got %d", len(positions))
	}
	if positions[0].Symbol != "AAPL" || positions[0].OpenQuantity != 100 {
		t.Errorf("got %+v", positions[0])
	}
}

func TestPositions_EmptyAccountNoNetworkCall(t *testing.T) {
	f := newFakeBrokerage(t)
	c := testClient(t, f)

	_, err := c.Positions(context.Background(), "")
	if !errors.Is(err, errors.ErrCodeInvalidAccount) {
		t.Fatalf("expected INVALID_ACCOUNT, got %v", err)
	}
	if f.exchanges.Load() != 0 || f.apiCalls.Load() != 0 {
		t.Errorf("validation failure must not touch the network: exchanges=%d api=%d",
			f.exchanges.Load(), f.apiCalls.Load())
	}
}

func TestHandle_CreatedOnceAcrossSequentialCalls(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts", map[string]any{"accounts": []map[string]any{}})
	f.handle("/v1/markets", map[string]any{"markets": []map[string]any{}})

	c := testClient(t, f)
	ctx := context.Background()
	if _, err := c.Accounts(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Markets(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Accounts(ctx); err != nil {
		t.Fatal(err)
	}
	if got := f.exchanges.Load(); got != 1 {
		t.Errorf("handle created %d times across 3 calls, want exactly 1", got)
	}
}

func TestHandle_RotatedTokenPersisted(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts", map[string]any{"accounts": []map[string]any{}})
	path := filepath.Join(t.TempDir(), "questrade.json")

	c, err := NewClient(Config{RefreshToken: "rt-manual", LoginURL: f.URL, TokenPath: path})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.Accounts(context.Background()); err != nil {
		t.Fatal(err)
	}

	store, err := NewTokenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	tok, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if tok == nil || tok.RefreshToken != "rt-rotated" {
		t.Errorf("rotated refresh token not persisted: %+v", tok)
	}
}

func TestAuthRejection_InvalidatesHandle(t *testing.T) {
	f := newFakeBrokerage(t)
	var rejected atomic.Bool
	f.handlers["/v1/accounts"] = func(w http.ResponseWriter, r *http.Request) {
		if rejected.CompareAndSwap(false, true) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"accounts": []map[string]any{}})
	}

	c := testClient(t, f)
	ctx := context.Background()

	_, err := c.Accounts(ctx)
	if !errors.Is(err, errors.ErrCodeUpstreamAuth) {
		t.Fatalf("expected UPSTREAM_AUTH, got %v", err)
	}

	// The next call must re-derive the handle from the stored credential.
	if _, err := c.Accounts(ctx); err != nil {
		t.Fatalf("recovery call failed: %v", err)
	}
	if got := f.exchanges.Load(); got != 2 {
		t.Errorf("expected a second exchange after auth rejection, got %d", got)
	}
}

func TestHandle_RejectedStoredRefreshTokenRemoved(t *testing.T) {
	// A stale rotated refresh token on disk shadows the configured one. When
	// the exchange rejects it the file must go away, so the next call can
	// recover from the configured credential instead of looping forever.
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/oauth2/token" {
			if r.URL.Query().Get("refresh_token") == "rt-stale" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "at-fresh",
				"refresh_token": "rt-rotated",
				"api_server":    srv.URL + "/",
				"token_type":    "Bearer",
				"expires_in":    1800,
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"accounts": []map[string]any{}})
	}))
	t.Cleanup(srv.Close)

	path := filepath.Join(t.TempDir(), "questrade.json")
	store, err := NewTokenStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Save(&Token{RefreshToken: "rt-stale"}); err != nil {
		t.Fatal(err)
	}

	c, err := NewClient(Config{RefreshToken: "rt-manual", LoginURL: srv.URL, TokenPath: path})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	_, err = c.Accounts(ctx)
	if !errors.Is(err, errors.ErrCodeUpstreamAuth) {
		t.Fatalf("expected UPSTREAM_AUTH for rejected refresh token, got %v", err)
	}
	if tok, err := store.Load(); err != nil || tok != nil {
		t.Fatalf("rejected token file should be removed, got tok=%+v err=%v", tok, err)
	}

	if _, err := c.Accounts(ctx); err != nil {
		t.Fatalf("recovery from configured refresh token failed: %v", err)
	}
}

func TestAccounts_MissingKeyIsUpstreamData(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts", map[string]any{"unexpected": true})

	c := testClient(t, f)
	_, err := c.Accounts(context.Background())
	if !errors.Is(err, errors.ErrCodeUpstreamData) {
		t.Fatalf("expected UPSTREAM_DATA for missing key, got %v", err)
	}
}

func TestAccounts_BadRequestNotRetried(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handlers["/v1/accounts"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}

	c := testClient(t, f)
	_, err := c.Accounts(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if got := f.apiCalls.Load(); got != 1 {
		t.Errorf("non-transient error must not be retried: %d attempts", got)
	}
}

func TestAccounts_TransientRetriedToSuccess(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for several seconds")
	}
	f := newFakeBrokerage(t)
	var attempts atomic.Int32
	f.handlers["/v1/accounts"] = func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"accounts": []map[string]any{{"number": "123456"}},
		})
	}

	c := testClient(t, f)
	res, err := c.Accounts(context.Background())
	if err != nil {
		t.Fatalf("expected success after transient failures: %v", err)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
	if len(*res.Accounts) != 1 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestCandles_Validation(t *testing.T) {
	f := newFakeBrokerage(t)
	c := testClient(t, f)
	ctx := context.Background()

	if _, err := c.Candles(ctx, 0, "OneDay", "2024-01-01T00:00:00-05:00", "2024-02-01T00:00:00-05:00"); !errors.IsInvalidInput(err) {
		t.Errorf("zero symbol id: got %v", err)
	}
	if _, err := c.Candles(ctx, 8049, "TwoWeeks", "2024-01-01T00:00:00-05:00", "2024-02-01T00:00:00-05:00"); !errors.IsInvalidInput(err) {
		t.Errorf("bad interval: got %v", err)
	}
	if _, err := c.Candles(ctx, 8049, "OneDay", "", ""); !errors.IsInvalidInput(err) {
		t.Errorf("missing range: got %v", err)
	}
	if f.apiCalls.Load() != 0 {
		t.Errorf("validation failures must not reach the API")
	}
}

func TestCandles(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/markets/candles/8049", map[string]any{
		"candles": []map[string]any{
			{"start": "2024-01-02T00:00:00-05:00", "open": 184, "high": 186, "low": 183, "close": 185.5, "volume": 1000000},
		},
	})

	c := testClient(t, f)
	res, err := c.Candles(context.Background(), 8049, "OneDay", "2024-01-01T00:00:00-05:00", "2024-02-01T00:00:00-05:00")
	if err != nil {
		t.Fatalf("Candles: %v", err)
	}
	candles := *res.Candles
	if len(candles) != 1 || candles[0].Close != 185.5 {
		t.Errorf("got %+v", candles)
	}
}

func TestResolveSymbol(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/symbols/search", map[string]any{
		"symbols": []map[string]any{
			{"symbol": "AAPL", "symbolId": 8049},
			{"symbol": "AAPL.TO", "symbolId": 99999},
		},
	})

	c := testClient(t, f)
	id, err := c.ResolveSymbol(context.Background(), "aapl")
	if err != nil {
		t.Fatalf("ResolveSymbol: %v", err)
	}
	if id != 8049 {
		t.Errorf("id = %d, want 8049 (exact match only)", id)
	}
}

func TestResolveSymbol_NoMatch(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/symbols/search", map[string]any{"symbols": []map[string]any{}})

	c := testClient(t, f)
	_, err := c.ResolveSymbol(context.Background(), "ZZZZX")
	if !errors.Is(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestQuotes_Validation(t *testing.T) {
	f := newFakeBrokerage(t)
	c := testClient(t, f)

	if _, err := c.Quotes(context.Background(), nil); !errors.IsInvalidInput(err) {
		t.Errorf("empty ids: got %v", err)
	}
	if _, err := c.Quotes(context.Background(), []int{8049, -1}); !errors.IsInvalidInput(err) {
		t.Errorf("negative id: got %v", err)
	}
}

func TestOrdersAndActivities(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts/123456/orders", map[string]any{
		"orders": []map[string]any{{"id": 1, "symbol": "MSFT", "state": "Executed"}},
	})
	f.handle("/v1/accounts/123456/activities", map[string]any{
		"activities": []map[string]any{{"type": "Dividends", "netAmount": 12.5}},
	})

	c := testClient(t, f)
	ctx := context.Background()

	orders, err := c.Orders(ctx, "123456", "", "", "Closed")
	if err != nil {
		t.Fatalf("Orders: %v", err)
	}
	if len(*orders.Orders) != 1 {
		t.Errorf("orders: %+v", orders)
	}

	if _, err := c.Orders(ctx, "123456", "", "", "Bogus"); !errors.IsInvalidInput(err) {
		t.Errorf("bad state filter: got %v", err)
	}

	acts, err := c.Activities(ctx, "123456", "2024-01-01T00:00:00-05:00", "2024-01-31T00:00:00-05:00")
	if err != nil {
		t.Fatalf("Activities: %v", err)
	}
	if len(*acts.Activities) != 1 {
		t.Errorf("activities: %+v", acts)
	}

	if _, err := c.Activities(ctx, "123456", "", ""); !errors.IsInvalidInput(err) {
		t.Errorf("missing range: got %v", err)
	}
}

func TestDateRange_InvertedRejectedBeforeNetwork(t *testing.T) {
	f := newFakeBrokerage(t)
	c := testClient(t, f)
	ctx := context.Background()

	start, end := "2024-06-30T00:00:00-05:00", "2024-01-01T00:00:00-05:00"

	if _, err := c.Orders(ctx, "123456", start, end, "All"); !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("Orders inverted range: got %v", err)
	}
	if _, err := c.Executions(ctx, "123456", start, end); !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("Executions inverted range: got %v", err)
	}
	if _, err := c.Activities(ctx, "123456", start, end); !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("Activities inverted range: got %v", err)
	}
	if _, err := c.Candles(ctx, 8049, "OneDay", start, end); !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("Candles inverted range: got %v", err)
	}
	if _, err := c.Orders(ctx, "123456", "not-a-date", "", "All"); !errors.Is(err, errors.ErrCodeInvalidDate) {
		t.Errorf("Orders malformed start: got %v", err)
	}

	if f.exchanges.Load() != 0 || f.apiCalls.Load() != 0 {
		t.Errorf("validation failures must not touch the network: exchanges=%d api=%d",
			f.exchanges.Load(), f.apiCalls.Load())
	}
}

func TestOrder(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/accounts/123456/orders/1001", map[string]any{
		"orders": []map[string]any{{"id": 1001, "symbol": "MSFT", "state": "Executed"}},
	})

	c := testClient(t, f)
	ctx := context.Background()

	res, err := c.Order(ctx, "123456", "1001")
	if err != nil {
		t.Fatalf("Order: %v", err)
	}
	orders := *res.Orders
	if len(orders) != 1 || orders[0].Symbol != "MSFT" {
		t.Errorf("got %+v", orders)
	}

	if _, err := c.Order(ctx, "123456", ""); !errors.IsInvalidInput(err) {
		t.Errorf("missing order id: got %v", err)
	}
	if _, err := c.Order(ctx, "", "1001"); !errors.IsInvalidInput(err) {
		t.Errorf("missing account: got %v", err)
	}
}

func TestOptionQuotes(t *testing.T) {
	f := newFakeBrokerage(t)
	f.handle("/v1/markets/quotes/options", map[string]any{
		"optionQuotes": []map[string]any{
			{"symbol": "AAPL24Jan19C185.00", "delta": 0.52, "openInterest": 1200},
		},
	})

	c := testClient(t, f)
	res, err := c.OptionQuotes(context.Background(), []int{12345678})
	if err != nil {
		t.Fatalf("OptionQuotes: %v", err)
	}
	quotes := *res.OptionQuotes
	if len(quotes) != 1 || quotes[0].Delta != 0.52 {
		t.Errorf("got %+v", quotes)
	}
}
