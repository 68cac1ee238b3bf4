// Package questrade implements the Questrade brokerage API client.
//
// The client follows the resilient-access pattern shared by every provider
// in this repository: the authenticated session handle is created lazily on
// first use and reused for the life of the process, every operation
// validates its inputs before touching the network, remote calls run under
// the bounded retry policy, and each response is shape-checked against its
// expected top-level key before being returned unchanged.
//
// Authentication uses the refresh-token exchange the brokerage documents:
// the rotated refresh token and short-lived access token are persisted to a
// JSON file (by default ~/.questrade.json) so restarts don't consume a
// manually generated token. When the API rejects an access token the handle
// is dropped and the next call re-derives it from the stored credential.
package questrade

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/providers"
)

// EnvRefreshToken is the environment variable holding the manual refresh token.
const EnvRefreshToken = "QUESTRADE_REFRESH_TOKEN"

// CandleIntervals are the granularities the candles endpoint accepts.
var CandleIntervals = []string{
	"OneMinute", "TwoMinutes", "ThreeMinutes", "FourMinutes", "FiveMinutes",
	"TenMinutes", "FifteenMinutes", "TwentyMinutes", "HalfHour", "OneHour",
	"TwoHours", "FourHours", "OneDay", "OneWeek", "OneMonth", "OneYear",
}

// OrderStateFilters are the accepted values for the orders state filter.
var OrderStateFilters = []string{"All", "Open", "Closed"}

// Config configures a Client.
type Config struct {
	// RefreshToken is the manual OAuth refresh token. If empty, the
	// QUESTRADE_REFRESH_TOKEN environment variable is consulted, then the
	// token file.
	RefreshToken string

	// LoginURL overrides the OAuth endpoint host. Defaults to [DefaultLoginURL].
	LoginURL string

	// TokenPath overrides the token file location. Defaults to ~/.questrade.json.
	TokenPath string

	// Logger receives observational logging. Defaults to log.Default().
	Logger *log.Logger
}

// Client provides access to the Questrade brokerage API.
//
// Construct one per process and share it: the lazily-created session handle
// is the only mutable state and its creation is serialized internally, so
// all methods are safe for concurrent use.
type Client struct {
	*providers.Client
	loginURL     string
	refreshToken string
	store        *TokenStore
	logger       *log.Logger

	mu    sync.Mutex
	token *Token
}

// NewClient creates a Questrade client.
//
// A credential must be available from the config, the environment, or an
// existing token file; otherwise construction fails with a CONFIG_MISSING
// error. No network contact happens here; the session handle is created on
// first use.
func NewClient(cfg Config) (*Client, error) {
	store, err := NewTokenStore(cfg.TokenPath)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigInvalid, err, "resolve Questrade token path")
	}

	refresh := cfg.RefreshToken
	if refresh == "" {
		refresh = os.Getenv(EnvRefreshToken)
	}
	if refresh == "" {
		// A previously persisted session also counts as a credential.
		if _, statErr := os.Stat(store.Path()); statErr != nil {
			return nil, errors.New(errors.ErrCodeConfigMissing,
				"Questrade refresh token required: set %s or pass one explicitly "+
					"(generate at https://login.questrade.com/APIAccess/UserApps.aspx)", EnvRefreshToken)
		}
	}

	loginURL := cfg.LoginURL
	if loginURL == "" {
		loginURL = DefaultLoginURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		// Brokerage data is never cached: positions and balances must be fresh.
		Client:       providers.NewClient(cache.NewNullCache(), "questrade", 0, nil),
		loginURL:     strings.TrimSuffix(loginURL, "/"),
		refreshToken: refresh,
		store:        store,
		logger:       logger,
	}, nil
}

// get obtains the handle (creating it if absent), issues an authenticated
// GET under the retry policy, and drops the handle on an auth rejection so
// the next call re-derives it.
func (c *Client) get(ctx context.Context, path string, query url.Values, v any) error {
	return c.Do(ctx, func() error {
		tok, err := c.handle(ctx)
		if err != nil {
			return err
		}
		u := strings.TrimSuffix(tok.APIServer, "/") + "/" + path
		if len(query) > 0 {
			u += "?" + query.Encode()
		}
		err = c.GetWithHeaders(ctx, u, map[string]string{
			"Authorization": "Bearer " + tok.AccessToken,
		}, v)
		if errors.Is(err, errors.ErrCodeUpstreamAuth) {
			c.invalidate()
		}
		return err
	})
}

// Accounts retrieves all accounts associated with the authenticated user.
func (c *Client) Accounts(ctx context.Context) (*AccountsResponse, error) {
	var env AccountsResponse
	if err := c.get(ctx, "v1/accounts", nil, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve Questrade accounts")
	}
	if err := providers.ExpectKey(env.Accounts, "questrade", "accounts"); err != nil {
		return nil, err
	}
	c.logger.Debug("retrieved accounts", "count", len(*env.Accounts))
	return &env, nil
}

// Positions retrieves the open positions for one account.
func (c *Client) Positions(ctx context.Context, accountNumber string) (*PositionsResponse, error) {
	account, err := providers.ValidateAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}

	var env PositionsResponse
	if err := c.get(ctx, "v1/accounts/"+account+"/positions", nil, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve positions for account %s", account)
	}
	if err := providers.ExpectKey(env.Positions, "questrade", "positions"); err != nil {
		return nil, err
	}
	c.logger.Debug("retrieved positions", "account", account, "count", len(*env.Positions))
	return &env, nil
}

// Balances retrieves the cash and equity balances for one account.
func (c *Client) Balances(ctx context.Context, accountNumber string) (*BalancesResponse, error) {
	account, err := providers.ValidateAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}

	var env BalancesResponse
	if err := c.get(ctx, "v1/accounts/"+account+"/balances", nil, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve balances for account %s", account)
	}
	if err := providers.ExpectKey(env.PerCurrencyBalances, "questrade", "perCurrencyBalances"); err != nil {
		return nil, err
	}
	return &env, nil
}

// Quote retrieves a level-1 quote for a single symbol ID.
func (c *Client) Quote(ctx context.Context, symbolID int) (*QuotesResponse, error) {
	return c.Quotes(ctx, []int{symbolID})
}

// Quotes retrieves level-1 quotes for several symbol IDs at once.
func (c *Client) Quotes(ctx context.Context, symbolIDs []int) (*QuotesResponse, error) {
	if err := validateIDs("symbol ids", symbolIDs); err != nil {
		return nil, err
	}

	query := url.Values{"ids": {joinIDs(symbolIDs)}}
	var env QuotesResponse
	if err := c.get(ctx, "v1/markets/quotes", query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve quotes for %d symbols", len(symbolIDs))
	}
	if err := providers.ExpectKey(env.Quotes, "questrade", "quotes"); err != nil {
		return nil, err
	}
	return &env, nil
}

// QuoteBySymbol resolves a ticker to its symbol ID via search, then fetches
// its quote. Fails with NOT_FOUND when no exact match exists.
func (c *Client) QuoteBySymbol(ctx context.Context, symbol string) (*QuotesResponse, error) {
	id, err := c.ResolveSymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return c.Quote(ctx, id)
}

// ResolveSymbol finds the symbol ID for an exact ticker match.
func (c *Client) ResolveSymbol(ctx context.Context, symbol string) (int, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return 0, err
	}
	res, err := c.SearchSymbols(ctx, ticker, 0)
	if err != nil {
		return 0, err
	}
	for _, match := range *res.Symbols {
		if match.Symbol == ticker {
			return match.SymbolID, nil
		}
	}
	return 0, errors.New(errors.ErrCodeNotFound, "no Questrade symbol matches %q", ticker)
}

// Candles retrieves OHLCV bars for a symbol ID over a time range.
// Interval must be one of [CandleIntervals]; start and end are ISO-8601
// timestamps.
func (c *Client) Candles(ctx context.Context, symbolID int, interval, startTime, endTime string) (*CandlesResponse, error) {
	if err := providers.ValidatePositive("symbol id", symbolID); err != nil {
		return nil, err
	}
	if err := providers.ValidateEnum("interval", interval, false, CandleIntervals...); err != nil {
		return nil, err
	}
	if startTime == "" || endTime == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "start and end times are required")
	}
	if err := providers.ValidateDateRange(startTime, endTime); err != nil {
		return nil, err
	}

	query := url.Values{
		"startTime": {startTime},
		"endTime":   {endTime},
		"interval":  {interval},
	}
	var env CandlesResponse
	if err := c.get(ctx, "v1/markets/candles/"+strconv.Itoa(symbolID), query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve candles for symbol %d", symbolID)
	}
	if err := providers.ExpectKey(env.Candles, "questrade", "candles"); err != nil {
		return nil, err
	}
	return &env, nil
}

// SearchSymbols searches symbols by ticker prefix or description.
func (c *Client) SearchSymbols(ctx context.Context, query string, offset int) (*SymbolSearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "search query is required")
	}
	if offset < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "offset cannot be negative, got %d", offset)
	}

	params := url.Values{"prefix": {query}}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var env SymbolSearchResponse
	if err := c.get(ctx, "v1/symbols/search", params, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to search symbols for %q", query)
	}
	if err := providers.ExpectKey(env.Symbols, "questrade", "symbols"); err != nil {
		return nil, err
	}
	return &env, nil
}

// SymbolInfo retrieves detailed reference data for one or more tickers.
func (c *Client) SymbolInfo(ctx context.Context, symbols []string) (*SymbolsResponse, error) {
	tickers, err := providers.ValidateTickers(symbols)
	if err != nil {
		return nil, err
	}

	query := url.Values{"names": {strings.Join(tickers, ",")}}
	var env SymbolsResponse
	if err := c.get(ctx, "v1/symbols", query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve symbol info for %s", strings.Join(tickers, ","))
	}
	if err := providers.ExpectKey(env.Symbols, "questrade", "symbols"); err != nil {
		return nil, err
	}
	return &env, nil
}

// Markets retrieves the available trading venues.
func (c *Client) Markets(ctx context.Context) (*MarketsResponse, error) {
	var env MarketsResponse
	if err := c.get(ctx, "v1/markets", nil, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve markets")
	}
	if err := providers.ExpectKey(env.Markets, "questrade", "markets"); err != nil {
		return nil, err
	}
	return &env, nil
}

// Orders retrieves the orders for one account, optionally bounded by a date
// range and filtered by state (All, Open, or Closed).
func (c *Client) Orders(ctx context.Context, accountNumber, startTime, endTime, stateFilter string) (*OrdersResponse, error) {
	account, err := providers.ValidateAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	if err := providers.ValidateEnum("state filter", stateFilter, true, OrderStateFilters...); err != nil {
		return nil, err
	}
	if err := providers.ValidateDateRange(startTime, endTime); err != nil {
		return nil, err
	}

	query := url.Values{}
	if startTime != "" {
		query.Set("startTime", startTime)
	}
	if endTime != "" {
		query.Set("endTime", endTime)
	}
	if stateFilter != "" {
		query.Set("stateFilter", stateFilter)
	}
	var env OrdersResponse
	if err := c.get(ctx, "v1/accounts/"+account+"/orders", query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve orders for account %s", account)
	}
	if err := providers.ExpectKey(env.Orders, "questrade", "orders"); err != nil {
		return nil, err
	}
	return &env, nil
}

// Order retrieves a single order by ID.
func (c *Client) Order(ctx context.Context, accountNumber, orderID string) (*OrdersResponse, error) {
	account, err := providers.ValidateAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "order id is required")
	}

	var env OrdersResponse
	if err := c.get(ctx, "v1/accounts/"+account+"/orders/"+url.PathEscape(orderID), nil, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve order %s for account %s", orderID, account)
	}
	if err := providers.ExpectKey(env.Orders, "questrade", "orders"); err != nil {
		return nil, err
	}
	return &env, nil
}

// Executions retrieves the fills for one account over an optional date range.
func (c *Client) Executions(ctx context.Context, accountNumber, startTime, endTime string) (*ExecutionsResponse, error) {
	account, err := providers.ValidateAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	if err := providers.ValidateDateRange(startTime, endTime); err != nil {
		return nil, err
	}

	query := url.Values{}
	if startTime != "" {
		query.Set("startTime", startTime)
	}
	if endTime != "" {
		query.Set("endTime", endTime)
	}
	var env ExecutionsResponse
	if err := c.get(ctx, "v1/accounts/"+account+"/executions", query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve executions for account %s", account)
	}
	if err := providers.ExpectKey(env.Executions, "questrade", "executions"); err != nil {
		return nil, err
	}
	return &env, nil
}

// Activities retrieves account activity (trades, dividends, transfers, fees)
// over a required date range. The API limits each request to 31 days.
func (c *Client) Activities(ctx context.Context, accountNumber, startTime, endTime string) (*ActivitiesResponse, error) {
	account, err := providers.ValidateAccountNumber(accountNumber)
	if err != nil {
		return nil, err
	}
	if startTime == "" || endTime == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "start and end times are required for activities")
	}
	if err := providers.ValidateDateRange(startTime, endTime); err != nil {
		return nil, err
	}

	query := url.Values{"startTime": {startTime}, "endTime": {endTime}}
	var env ActivitiesResponse
	if err := c.get(ctx, "v1/accounts/"+account+"/activities", query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve activities for account %s", account)
	}
	if err := providers.ExpectKey(env.Activities, "questrade", "activities"); err != nil {
		return nil, err
	}
	return &env, nil
}

// OptionsChain retrieves the full option chain for an underlying symbol ID.
func (c *Client) OptionsChain(ctx context.Context, symbolID int) (*OptionChainResponse, error) {
	if err := providers.ValidatePositive("symbol id", symbolID); err != nil {
		return nil, err
	}

	var env OptionChainResponse
	if err := c.get(ctx, "v1/symbols/"+strconv.Itoa(symbolID)+"/options", nil, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve options chain for symbol %d", symbolID)
	}
	if err := providers.ExpectKey(env.OptionChain, "questrade", "optionChain"); err != nil {
		return nil, err
	}
	return &env, nil
}

// OptionQuotes retrieves level-1 quotes with Greeks for option IDs.
func (c *Client) OptionQuotes(ctx context.Context, optionIDs []int) (*OptionQuotesResponse, error) {
	if err := validateIDs("option ids", optionIDs); err != nil {
		return nil, err
	}

	query := url.Values{"optionIds": {joinIDs(optionIDs)}}
	var env OptionQuotesResponse
	if err := c.get(ctx, "v1/markets/quotes/options", query, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve option quotes for %d options", len(optionIDs))
	}
	if err := providers.ExpectKey(env.OptionQuotes, "questrade", "optionQuotes"); err != nil {
		return nil, err
	}
	return &env, nil
}

func validateIDs(name string, ids []int) error {
	if len(ids) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "at least one of %s is required", name)
	}
	for _, id := range ids {
		if id <= 0 {
			return errors.New(errors.ErrCodeInvalidInput, "%s must be positive, got %d", name, id)
		}
	}
	return nil
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
