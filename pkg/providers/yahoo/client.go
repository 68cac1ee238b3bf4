// Package yahoo implements the Yahoo Finance client backing quotes, price
// history, fundamentals, holders, and options data.
//
// Yahoo has no official API; this client speaks to the same JSON endpoints
// the finance site itself loads (v8 chart, v10 quoteSummary, v7 options,
// predefined screeners), sending browser-like headers. Responses for public
// data are cached, since the same tickers get requested repeatedly within a
// session.
package yahoo

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/providers"
)

// DefaultBaseURL is the Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// DefaultTTL bounds how long public market data is served from cache.
const DefaultTTL = 15 * time.Minute

// Periods accepted by [Client.History].
var Periods = []string{"1d", "5d", "1mo", "3mo", "6mo", "1y", "2y", "5y", "10y", "ytd", "max"}

// MoverCategories are the predefined screeners [Client.Movers] accepts.
var MoverCategories = []string{"gainers", "losers", "most-active"}

// StatementTypes are the financial statements [Client.FinancialStatements]
// accepts.
var StatementTypes = []string{"income", "balance", "cash"}

var screenerIDs = map[string]string{
	"gainers":     "day_gainers",
	"losers":      "day_losers",
	"most-active": "most_actives",
}

var statementModules = map[string][2]string{
	"income":  {"incomeStatementHistory", "incomeStatementHistoryQuarterly"},
	"balance": {"balanceSheetHistory", "balanceSheetHistoryQuarterly"},
	"cash":    {"cashflowStatementHistory", "cashflowStatementHistoryQuarterly"},
}

// Config configures a Client.
type Config struct {
	// Cache backs repeated lookups. Defaults to a null cache.
	Cache cache.Cache

	// TTL bounds cache entry age. Defaults to [DefaultTTL].
	TTL time.Duration

	// BaseURL overrides the query host. Defaults to [DefaultBaseURL].
	BaseURL string

	// Logger receives observational logging. Defaults to log.Default().
	Logger *log.Logger
}

// Client provides access to Yahoo Finance public market data.
type Client struct {
	*providers.Client
	baseURL string
	logger  *log.Logger
}

// NewClient creates a Yahoo Finance client. No credential is involved, so
// construction cannot fail.
func NewClient(cfg Config) *Client {
	backend := cfg.Cache
	if backend == nil {
		backend = cache.NewNullCache()
	}
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		Client:  providers.NewClient(backend, "yahoo", ttl, providers.BrowserHeaders),
		baseURL: baseURL,
		logger:  logger,
	}
}

// History retrieves OHLCV history for a ticker over a named period. The bar
// interval is chosen from the period: monthly bars for multi-year ranges,
// daily otherwise.
func (c *Client) History(ctx context.Context, symbol, period string) (*ChartResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	if err := providers.ValidateEnum("period", period, false, Periods...); err != nil {
		return nil, err
	}

	interval := "1d"
	switch period {
	case "2y", "5y", "10y", "max":
		interval = "1mo"
	}

	query := url.Values{
		"range":    {period},
		"interval": {interval},
		"events":   {"div,split"},
	}
	u := c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker) + "?" + query.Encode()

	var env ChartResponse
	key := strings.Join([]string{"history", ticker, period, interval}, "|")
	err = c.Cached(ctx, key, false, &env, func() error {
		return c.Get(ctx, u, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve price history for %s", ticker)
	}
	if err := providers.ExpectKey(env.Chart, "yahoo", "chart"); err != nil {
		return nil, err
	}
	if err := checkAPIError("price history", ticker, env.Chart.Error, len(env.Chart.Result)); err != nil {
		return nil, err
	}
	return &env, nil
}

// quoteSummary fetches one or more quoteSummary modules for a ticker.
func (c *Client) quoteSummary(ctx context.Context, ticker, modules string) (*QuoteSummaryResponse, error) {
	query := url.Values{"modules": {modules}}
	u := c.baseURL + "/v10/finance/quoteSummary/" + url.PathEscape(ticker) + "?" + query.Encode()

	var env QuoteSummaryResponse
	key := "summary|" + ticker + "|" + modules
	err := c.Cached(ctx, key, false, &env, func() error {
		return c.Get(ctx, u, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve %s for %s", modules, ticker)
	}
	if err := providers.ExpectKey(env.QuoteSummary, "yahoo", "quoteSummary"); err != nil {
		return nil, err
	}
	if err := checkAPIError("quote summary", ticker, env.QuoteSummary.Error, len(env.QuoteSummary.Result)); err != nil {
		return nil, err
	}
	return &env, nil
}

// TickerData retrieves the comprehensive per-ticker snapshot: price and
// valuation metrics, company profile, calendar events, analyst
// recommendations, and upgrade/downgrade history.
func (c *Client) TickerData(ctx context.Context, symbol string) (*QuoteSummaryResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	return c.quoteSummary(ctx, ticker, strings.Join([]string{
		"price", "summaryDetail", "defaultKeyStatistics", "financialData",
		"assetProfile", "calendarEvents", "recommendationTrend", "upgradeDowngradeHistory",
	}, ","))
}

// FinancialStatements retrieves income, balance-sheet, or cash-flow
// statements, annually or quarterly.
func (c *Client) FinancialStatements(ctx context.Context, symbol string, statements []string, quarterly bool) (*QuoteSummaryResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	if len(statements) == 0 {
		statements = []string{"income"}
	}
	modules := make([]string, 0, len(statements))
	for _, stmt := range statements {
		if err := providers.ValidateEnum("statement type", stmt, false, StatementTypes...); err != nil {
			return nil, err
		}
		pair := statementModules[stmt]
		if quarterly {
			modules = append(modules, pair[1])
		} else {
			modules = append(modules, pair[0])
		}
	}
	return c.quoteSummary(ctx, ticker, strings.Join(modules, ","))
}

// InstitutionalHolders retrieves institution and fund ownership plus the
// major holders breakdown.
func (c *Client) InstitutionalHolders(ctx context.Context, symbol string) (*QuoteSummaryResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	return c.quoteSummary(ctx, ticker, "institutionOwnership,fundOwnership,majorHoldersBreakdown")
}

// EarningsHistory retrieves past earnings surprises.
func (c *Client) EarningsHistory(ctx context.Context, symbol string) (*QuoteSummaryResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	return c.quoteSummary(ctx, ticker, "earningsHistory")
}

// InsiderTrades retrieves recent insider transactions.
func (c *Client) InsiderTrades(ctx context.Context, symbol string) (*QuoteSummaryResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	return c.quoteSummary(ctx, ticker, "insiderTransactions")
}

// Movers retrieves a predefined market screener: gainers, losers, or
// most-active. Count is clamped to 1..100, matching the site.
func (c *Client) Movers(ctx context.Context, category string, count int) (*MoversResponse, error) {
	if err := providers.ValidateEnum("category", category, false, MoverCategories...); err != nil {
		return nil, err
	}
	if count < 1 {
		count = 1
	}
	if count > 100 {
		count = 100
	}

	query := url.Values{
		"scrIds": {screenerIDs[category]},
		"count":  {strconv.Itoa(count)},
	}
	u := c.baseURL + "/v1/finance/screener/predefined/saved?" + query.Encode()

	var env MoversResponse
	key := "movers|" + category + "|" + strconv.Itoa(count)
	err := c.Cached(ctx, key, false, &env, func() error {
		return c.Get(ctx, u, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve market %s", category)
	}
	if err := providers.ExpectKey(env.Finance, "yahoo", "finance"); err != nil {
		return nil, err
	}
	if err := checkAPIError("market movers", category, env.Finance.Error, len(env.Finance.Result)); err != nil {
		return nil, err
	}
	return &env, nil
}

// OptionsChain retrieves the option chain for a ticker. A zero expiration
// returns the nearest expiry; otherwise pass a Unix timestamp from the
// result's ExpirationDates.
func (c *Client) OptionsChain(ctx context.Context, symbol string, expiration int64) (*OptionsResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	if expiration < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "expiration cannot be negative, got %d", expiration)
	}

	u := c.baseURL + "/v7/finance/options/" + url.PathEscape(ticker)
	if expiration > 0 {
		u += "?date=" + strconv.FormatInt(expiration, 10)
	}

	var env OptionsResponse
	key := "options|" + ticker + "|" + strconv.FormatInt(expiration, 10)
	err = c.Cached(ctx, key, false, &env, func() error {
		return c.Get(ctx, u, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve options chain for %s", ticker)
	}
	if err := providers.ExpectKey(env.OptionChain, "yahoo", "optionChain"); err != nil {
		return nil, err
	}
	if err := checkAPIError("options chain", ticker, env.OptionChain.Error, len(env.OptionChain.Result)); err != nil {
		return nil, err
	}
	return &env, nil
}

// checkAPIError turns Yahoo's embedded error object (or an empty result
// list) into a structured error.
func checkAPIError(what, subject string, apiErr *apiError, results int) error {
	if apiErr != nil {
		if strings.EqualFold(apiErr.Code, "Not Found") {
			return errors.New(errors.ErrCodeNotFound, "%s: no data for %q: %s", what, subject, apiErr.Description)
		}
		return errors.New(errors.ErrCodeUpstreamData, "%s for %q failed upstream: %s: %s", what, subject, apiErr.Code, apiErr.Description)
	}
	if results == 0 {
		return errors.New(errors.ErrCodeNotFound, "%s: no data for %q", what, subject)
	}
	return nil
}
