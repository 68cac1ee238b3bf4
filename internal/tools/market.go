package tools

import (
	"context"
	"strings"
	"time"

	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/format"
	"github.com/finbridge/investor-agent/pkg/providers/alpaca"
	"github.com/finbridge/investor-agent/pkg/providers/feeds"
	"github.com/finbridge/investor-agent/pkg/providers/yahoo"
)

type moversIn struct {
	Category string `json:"category,omitempty" jsonschema:"mover list: gainers, losers, most-active (default: most-active)"`
	Count    int    `json:"count,omitempty" jsonschema:"number of stocks to return, 1-100 (default: 25)"`
}

type tickerIn struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol (e.g. AAPL)"`
}

type historyIn struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol"`
	Period string `json:"period,omitempty" jsonschema:"history range: 1d, 5d, 1mo, 3mo, 6mo, 1y, 2y, 5y, 10y, ytd, max (default: 1y)"`
}

type historyOut struct {
	Ticker string `json:"ticker"`
	Period string `json:"period"`
	CSV    string `json:"csv"`
}

type statementsIn struct {
	Ticker     string   `json:"ticker" jsonschema:"stock ticker symbol"`
	Statements []string `json:"statements,omitempty" jsonschema:"statement types: income, balance, cash (default: income)"`
	Quarterly  bool     `json:"quarterly,omitempty" jsonschema:"return quarterly periods instead of annual"`
}

type optionsIn struct {
	Ticker     string `json:"ticker" jsonschema:"underlying ticker symbol"`
	Expiration int64  `json:"expiration,omitempty" jsonschema:"expiration date as a Unix timestamp; 0 selects the nearest expiry"`
}

type fearGreedIn struct {
	Indicators []string `json:"indicators,omitempty" jsonschema:"CNN component indicators to include; empty returns all"`
}

type earningsCalendarIn struct {
	Date  string `json:"date,omitempty" jsonschema:"calendar date as YYYY-MM-DD (default: today)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum rows to return (default: 100)"`
}

type earningsCalendarOut struct {
	Date string `json:"date"`
	Rows int    `json:"rows"`
	CSV  string `json:"csv"`
}

type intradayIn struct {
	Ticker    string `json:"ticker" jsonschema:"stock ticker symbol"`
	Timeframe string `json:"timeframe,omitempty" jsonschema:"bar size: 15m or 1h (default: 15m)"`
	Window    int    `json:"window,omitempty" jsonschema:"number of most recent bars (default: 200)"`
}

type intradayOut struct {
	Ticker    string `json:"ticker"`
	Timeframe string `json:"timeframe"`
	Bars      int    `json:"bars"`
	CSV       string `json:"csv"`
}

func (s *Server) registerMarket() {
	addTool(s, "get_market_movers",
		"Top gaining, losing, or most actively traded US stocks.",
		func(ctx context.Context, in moversIn) (*yahoo.MoversResponse, error) {
			category := in.Category
			if category == "" {
				category = "most-active"
			}
			count := in.Count
			if count == 0 {
				count = 25
			}
			return s.yahoo.Movers(ctx, category, count)
		})

	addTool(s, "get_ticker_data",
		"Comprehensive report for a ticker: price, key metrics, company profile, analyst recommendations, upgrades and downgrades, and upcoming events.",
		func(ctx context.Context, in tickerIn) (*yahoo.QuoteSummaryResponse, error) {
			return s.yahoo.TickerData(ctx, in.Ticker)
		})

	addTool(s, "get_price_history",
		"Historical OHLCV price data for a ticker as CSV. Monthly bars for multi-year ranges, daily otherwise.",
		func(ctx context.Context, in historyIn) (*historyOut, error) {
			period := in.Period
			if period == "" {
				period = "1y"
			}
			bars, err := s.history(ctx, in.Ticker, period)
			if err != nil {
				return nil, err
			}
			return &historyOut{
				Ticker: strings.ToUpper(in.Ticker),
				Period: period,
				CSV:    format.BarsCSV(bars),
			}, nil
		})

	addTool(s, "get_financial_statements",
		"Income statement, balance sheet, or cash flow statements for a ticker, annual or quarterly.",
		func(ctx context.Context, in statementsIn) (*yahoo.QuoteSummaryResponse, error) {
			return s.yahoo.FinancialStatements(ctx, in.Ticker, in.Statements, in.Quarterly)
		})

	addTool(s, "get_institutional_holders",
		"Major institutional and mutual fund holders of a ticker.",
		func(ctx context.Context, in tickerIn) (*yahoo.QuoteSummaryResponse, error) {
			return s.yahoo.InstitutionalHolders(ctx, in.Ticker)
		})

	addTool(s, "get_earnings_history",
		"Historical earnings with estimate vs. actual EPS and surprise percentages.",
		func(ctx context.Context, in tickerIn) (*yahoo.QuoteSummaryResponse, error) {
			return s.yahoo.EarningsHistory(ctx, in.Ticker)
		})

	addTool(s, "get_insider_trades",
		"Recent insider transactions reported for a ticker.",
		func(ctx context.Context, in tickerIn) (*yahoo.QuoteSummaryResponse, error) {
			return s.yahoo.InsiderTrades(ctx, in.Ticker)
		})

	addTool(s, "get_options",
		"Options chain for a ticker. Pass an expiration timestamp to select a specific expiry; the nearest one is used otherwise.",
		func(ctx context.Context, in optionsIn) (*yahoo.OptionsResponse, error) {
			return s.yahoo.OptionsChain(ctx, in.Ticker, in.Expiration)
		})

	addTool(s, "get_cnn_fear_greed_index",
		"CNN Fear & Greed index with its component indicators (market momentum, stock price strength and breadth, put/call ratio, volatility, junk bond demand).",
		func(ctx context.Context, in fearGreedIn) (map[string]feeds.FearGreedComponent, error) {
			return s.feeds.CNNFearGreed(ctx, in.Indicators)
		})

	addTool(s, "get_crypto_fear_greed_index",
		"Current crypto Fear & Greed index from alternative.me.",
		func(ctx context.Context, _ struct{}) (*feeds.CryptoFearGreed, error) {
			return s.feeds.CryptoFearGreed(ctx)
		})

	addTool(s, "get_nasdaq_earnings_calendar",
		"Companies reporting earnings on a given date, from the Nasdaq calendar, as CSV.",
		func(ctx context.Context, in earningsCalendarIn) (*earningsCalendarOut, error) {
			cal, err := s.feeds.NasdaqEarnings(ctx, in.Date, in.Limit)
			if err != nil {
				return nil, err
			}
			columns := cal.Columns
			if len(columns) == 0 {
				columns = format.SortedColumns(cal.Rows)
			}
			return &earningsCalendarOut{
				Date: cal.Date,
				Rows: len(cal.Rows),
				CSV:  format.RowsCSV(columns, cal.Rows),
			}, nil
		})

	addTool(s, "get_intraday_bars",
		"Recent intraday close prices for a ticker from Alpaca as timestamped CSV, in 15-minute or 1-hour resolution. Requires ALPACA_API_KEY and ALPACA_API_SECRET.",
		func(ctx context.Context, in intradayIn) (intradayOut, error) {
			client, err := s.alpaca()
			if err != nil {
				return intradayOut{}, err
			}
			var res *alpaca.BarsResponse
			switch in.Timeframe {
			case "", "15m":
				res, err = client.Intraday15Min(ctx, in.Ticker, in.Window)
			case "1h":
				res, err = client.Intraday1Hour(ctx, in.Ticker, in.Window)
			default:
				return intradayOut{}, errors.New(errors.ErrCodeInvalidInput,
					"invalid timeframe %q: must be 15m or 1h", in.Timeframe)
			}
			if err != nil {
				return intradayOut{}, err
			}
			bars := *res.Bars
			timestamps := make([]time.Time, len(bars))
			closes := make([]float64, len(bars))
			for i, b := range bars {
				timestamps[i] = b.Timestamp
				closes[i] = b.Close
			}
			timeframe := in.Timeframe
			if timeframe == "" {
				timeframe = "15m"
			}
			return intradayOut{
				Ticker:    res.Symbol,
				Timeframe: timeframe,
				Bars:      len(bars),
				CSV:       format.ClosesCSV(res.Symbol, timestamps, closes),
			}, nil
		})
}
