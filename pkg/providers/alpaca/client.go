// Package alpaca implements the Alpaca market-data client used for
// intraday bars.
package alpaca

import (
	"context"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/providers"
)

// Environment variables holding the API credentials.
const (
	EnvAPIKey    = "ALPACA_API_KEY"
	EnvAPISecret = "ALPACA_API_SECRET"
)

// DefaultBaseURL is the Alpaca market-data REST endpoint.
const DefaultBaseURL = "https://data.alpaca.markets"

// Timeframes accepted by [Client.Bars].
const (
	TimeframeFifteenMin = "15Min"
	TimeframeOneHour    = "1Hour"
)

// DefaultWindow is the number of bars fetched when the caller passes zero.
const DefaultWindow = 200

const maxWindow = 10000

// Config configures a Client.
type Config struct {
	// APIKey and APISecret are the Alpaca credentials. When empty the
	// ALPACA_API_KEY and ALPACA_API_SECRET environment variables are used.
	APIKey    string
	APISecret string

	// BaseURL overrides the market-data endpoint. Defaults to [DefaultBaseURL].
	BaseURL string

	// Logger receives observational logging. Defaults to log.Default().
	Logger *log.Logger
}

// Client provides access to Alpaca historical market data.
type Client struct {
	*providers.Client
	baseURL string
	key     string
	secret  string
	logger  *log.Logger
}

// Bar is one OHLCV bar as returned by the data API.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
	TradeNum  int64     `json:"n"`
	VWAP      float64   `json:"vw"`
}

// BarsResponse is the envelope of the stock bars endpoint. Bars is a pointer
// so a payload missing the key is distinguishable from an empty list.
type BarsResponse struct {
	Bars          *[]Bar `json:"bars"`
	Symbol        string `json:"symbol"`
	NextPageToken string `json:"next_page_token"`
}

// NewClient creates an Alpaca client. Both credentials must be present in
// the config or the environment; otherwise construction fails with a
// CONFIG_MISSING error.
func NewClient(cfg Config) (*Client, error) {
	key := cfg.APIKey
	if key == "" {
		key = os.Getenv(EnvAPIKey)
	}
	secret := cfg.APISecret
	if secret == "" {
		secret = os.Getenv(EnvAPISecret)
	}
	if key == "" || secret == "" {
		return nil, errors.New(errors.ErrCodeConfigMissing,
			"Alpaca credentials required: set %s and %s", EnvAPIKey, EnvAPISecret)
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
		// Intraday bars move constantly; nothing here is worth caching.
		Client:  providers.NewClient(cache.NewNullCache(), "alpaca", 0, nil),
		baseURL: baseURL,
		key:     key,
		secret:  secret,
		logger:  logger,
	}, nil
}

// Bars retrieves the most recent OHLCV bars for one symbol at the given
// timeframe. A zero window means [DefaultWindow].
func (c *Client) Bars(ctx context.Context, symbol, timeframe string, window int) (*BarsResponse, error) {
	ticker, err := providers.ValidateTicker(symbol)
	if err != nil {
		return nil, err
	}
	if err := providers.ValidateEnum("timeframe", timeframe, false, TimeframeFifteenMin, TimeframeOneHour); err != nil {
		return nil, err
	}
	if window == 0 {
		window = DefaultWindow
	}
	if window < 0 || window > maxWindow {
		return nil, errors.New(errors.ErrCodeInvalidInput, "window must be between 1 and %d, got %d", maxWindow, window)
	}

	query := url.Values{
		"timeframe": {timeframe},
		"limit":     {strconv.Itoa(window)},
	}
	u := c.baseURL + "/v2/stocks/" + url.PathEscape(ticker) + "/bars?" + query.Encode()

	var env BarsResponse
	err = c.Do(ctx, func() error {
		return c.GetWithHeaders(ctx, u, map[string]string{
			"APCA-API-KEY-ID":     c.key,
			"APCA-API-SECRET-KEY": c.secret,
		}, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve %s bars for %s", timeframe, ticker)
	}
	if err := providers.ExpectKey(env.Bars, "alpaca", "bars"); err != nil {
		return nil, err
	}
	if env.Symbol == "" {
		env.Symbol = ticker
	}
	c.logger.Debug("retrieved intraday bars", "symbol", ticker, "timeframe", timeframe, "count", len(*env.Bars))
	return &env, nil
}

// Intraday15Min retrieves 15-minute bars for one symbol.
func (c *Client) Intraday15Min(ctx context.Context, symbol string, window int) (*BarsResponse, error) {
	return c.Bars(ctx, symbol, TimeframeFifteenMin, window)
}

// Intraday1Hour retrieves hourly bars for one symbol.
func (c *Client) Intraday1Hour(ctx context.Context, symbol string, window int) (*BarsResponse, error) {
	return c.Bars(ctx, symbol, TimeframeOneHour, window)
}
