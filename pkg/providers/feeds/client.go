// Package feeds implements clients for standalone public JSON feeds: the
// CNN fear & greed index, the alternative.me crypto fear & greed index, and
// the Nasdaq earnings calendar.
//
// These feeds share one client because none requires a credential and all
// follow the same fetch-validate-return discipline as the API providers.
package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finbridge/investor-agent/pkg/cache"
	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/providers"
)

// Default feed endpoints.
const (
	DefaultCNNFearGreedURL    = "https://production.dataviz.cnn.io/index/fearandgreed/graphdata"
	DefaultCryptoFearGreedURL = "https://api.alternative.me/fng/"
	DefaultNasdaqEarningsURL  = "https://api.nasdaq.com/api/calendar/earnings"
)

// DefaultTTL bounds how long feed responses are served from cache. Sentiment
// indexes update a few times a day at most.
const DefaultTTL = 30 * time.Minute

// FearGreedIndicators are the CNN index components callers may select.
var FearGreedIndicators = []string{
	"fear_and_greed",
	"put_call_options",
	"market_volatility_vix",
	"market_volatility_vix_50",
	"junk_bond_demand",
	"safe_haven_demand",
}

// Config configures a Client.
type Config struct {
	// Cache backs repeated lookups. Defaults to a null cache.
	Cache cache.Cache

	// TTL bounds cache entry age. Defaults to [DefaultTTL].
	TTL time.Duration

	// Endpoint overrides, used by tests. Zero values select the defaults.
	CNNFearGreedURL    string
	CryptoFearGreedURL string
	NasdaqEarningsURL  string

	// Logger receives observational logging. Defaults to log.Default().
	Logger *log.Logger
}

// Client provides access to the public sentiment and calendar feeds.
type Client struct {
	*providers.Client
	cnnURL    string
	cryptoURL string
	nasdaqURL string
	logger    *log.Logger
}

// NewClient creates a feeds client. No credential is involved, so
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
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		Client:    providers.NewClient(backend, "feeds", ttl, providers.BrowserHeaders),
		cnnURL:    cfg.CNNFearGreedURL,
		cryptoURL: cfg.CryptoFearGreedURL,
		nasdaqURL: cfg.NasdaqEarningsURL,
		logger:    logger,
	}
	if c.cnnURL == "" {
		c.cnnURL = DefaultCNNFearGreedURL
	}
	if c.cryptoURL == "" {
		c.cryptoURL = DefaultCryptoFearGreedURL
	}
	if c.nasdaqURL == "" {
		c.nasdaqURL = DefaultNasdaqEarningsURL
	}
	return c
}

// FearGreedComponent is one CNN index component with its historical series
// stripped.
type FearGreedComponent struct {
	Score     float64 `json:"score"`
	Rating    string  `json:"rating"`
	Timestamp string  `json:"timestamp"`

	// Present only on the headline fear_and_greed component.
	PreviousClose    float64 `json:"previous_close,omitempty"`
	PreviousOneWeek  float64 `json:"previous_1_week,omitempty"`
	PreviousOneMonth float64 `json:"previous_1_month,omitempty"`
	PreviousOneYear  float64 `json:"previous_1_year,omitempty"`
}

// cnnComponent mirrors the wire shape including the bulky data array we drop.
type cnnComponent struct {
	FearGreedComponent
	Data json.RawMessage `json:"data,omitempty"`
}

// CNNFearGreed retrieves the CNN fear & greed index. When indicators is
// empty every component is returned; otherwise only the named ones. The
// historical time-series arrays are stripped either way.
func (c *Client) CNNFearGreed(ctx context.Context, indicators []string) (map[string]FearGreedComponent, error) {
	for _, ind := range indicators {
		if err := providers.ValidateEnum("indicator", ind, false, FearGreedIndicators...); err != nil {
			return nil, err
		}
	}

	var raw map[string]cnnComponent
	err := c.Cached(ctx, "cnn-fear-greed", false, &raw, func() error {
		return c.Get(ctx, c.cnnURL, &raw)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve CNN fear & greed index")
	}
	if _, ok := raw["fear_and_greed"]; !ok {
		return nil, errors.New(errors.ErrCodeUpstreamData,
			"unexpected response shape from cnn: missing fear_and_greed")
	}

	selected := indicators
	if len(selected) == 0 {
		selected = FearGreedIndicators
	}
	result := make(map[string]FearGreedComponent, len(selected))
	for _, name := range selected {
		if comp, ok := raw[name]; ok {
			result[name] = comp.FearGreedComponent
		}
	}
	return result, nil
}

// CryptoFearGreed is the current alternative.me crypto sentiment reading.
type CryptoFearGreed struct {
	Value          string `json:"value"`
	Classification string `json:"classification"`
	Timestamp      string `json:"timestamp"`
}

type cryptoFearGreedResponse struct {
	Data *[]struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

// CryptoFearGreed retrieves the current crypto fear & greed reading.
func (c *Client) CryptoFearGreed(ctx context.Context) (*CryptoFearGreed, error) {
	var env cryptoFearGreedResponse
	err := c.Cached(ctx, "crypto-fear-greed", false, &env, func() error {
		return c.Get(ctx, c.cryptoURL, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve crypto fear & greed index")
	}
	if err := providers.ExpectKey(env.Data, "alternative.me", "data"); err != nil {
		return nil, err
	}
	entries := *env.Data
	if len(entries) == 0 {
		return nil, errors.New(errors.ErrCodeUpstreamData,
			"unexpected response shape from alternative.me: empty data list")
	}
	return &CryptoFearGreed{
		Value:          entries[0].Value,
		Classification: entries[0].Classification,
		Timestamp:      entries[0].Timestamp,
	}, nil
}

// EarningsCalendar is one day's worth of scheduled earnings announcements.
type EarningsCalendar struct {
	Date    string
	Columns []string
	Rows    []map[string]string
}

type nasdaqEarningsResponse struct {
	Data *struct {
		Headers json.RawMessage  `json:"headers"`
		Rows    []map[string]any `json:"rows"`
	} `json:"data"`
}

// NasdaqEarnings retrieves the earnings calendar for one date (YYYY-MM-DD;
// empty means today). Limit caps the number of rows; zero means 100.
func (c *Client) NasdaqEarnings(ctx context.Context, date string, limit int) (*EarningsCalendar, error) {
	if date == "" {
		date = time.Now().Format("2006-01-02")
	} else if _, err := providers.ValidateDate(date); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "limit cannot be negative, got %d", limit)
	}
	if limit == 0 {
		limit = 100
	}

	var env nasdaqEarningsResponse
	err := c.Cached(ctx, "nasdaq-earnings|"+date, false, &env, func() error {
		return c.GetWithHeaders(ctx, c.nasdaqURL+"?date="+date, map[string]string{
			"Referer": "https://www.nasdaq.com/",
		}, &env)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve earnings calendar for %s", date)
	}
	if err := providers.ExpectKey(env.Data, "nasdaq", "data"); err != nil {
		return nil, err
	}

	cal := &EarningsCalendar{Date: date}

	// Headers come back either as an ordered object of key->label pairs or a
	// list; both reduce to the set of row keys we surface. Map iteration is
	// unordered, so the columns are sorted to keep CSV output stable.
	var headerMap map[string]string
	if len(env.Data.Headers) > 0 {
		_ = json.Unmarshal(env.Data.Headers, &headerMap)
	}
	for key := range headerMap {
		cal.Columns = append(cal.Columns, key)
	}
	sort.Strings(cal.Columns)

	for _, row := range env.Data.Rows {
		if len(cal.Rows) >= limit {
			break
		}
		out := make(map[string]string, len(row))
		for k, v := range row {
			switch val := v.(type) {
			case string:
				out[k] = val
			case float64:
				out[k] = strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				out[k] = strconv.FormatBool(val)
			case nil:
			default:
				out[k] = fmt.Sprint(val)
			}
		}
		cal.Rows = append(cal.Rows, out)
	}
	c.logger.Debug("retrieved earnings calendar", "date", date, "rows", len(cal.Rows))
	return cal, nil
}
