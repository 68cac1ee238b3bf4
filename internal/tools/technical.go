package tools

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/format"
	"github.com/finbridge/investor-agent/pkg/ta"
)

// DefaultBenchmark is the index proxy used for beta and relative strength.
const DefaultBenchmark = "SPY"

// Indicators accepted by calculate_technical_indicator.
var indicatorNames = []string{"SMA", "EMA", "RSI", "MACD", "BBANDS", "STOCH", "ATR", "OBV", "MFI"}

type indicatorIn struct {
	Ticker    string `json:"ticker" jsonschema:"stock ticker symbol"`
	Indicator string `json:"indicator" jsonschema:"one of: SMA, EMA, RSI, MACD, BBANDS, STOCH, ATR, OBV, MFI"`
	Period    int    `json:"period,omitempty" jsonschema:"lookback period for the indicator (defaults: SMA/EMA 20, RSI/ATR/MFI 14)"`
	History   string `json:"history,omitempty" jsonschema:"price history range to compute over (default: 1y)"`
	Rows      int    `json:"rows,omitempty" jsonschema:"number of most recent rows to return (default: 10)"`
}

type indicatorOut struct {
	Ticker    string `json:"ticker"`
	Indicator string `json:"indicator"`
	Period    int    `json:"period,omitempty"`
	CSV       string `json:"csv"`
}

type analyzeIn struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol"`
	Period string `json:"period,omitempty" jsonschema:"price history range (default: 1y)"`
}

type supportResistanceIn struct {
	Ticker string `json:"ticker" jsonschema:"stock ticker symbol"`
	Period string `json:"period,omitempty" jsonschema:"price history range (default: 1y)"`
	Order  int    `json:"order,omitempty" jsonschema:"bars on each side a local extreme must dominate (default: 5)"`
}

type screenIn struct {
	Tickers     []string `json:"tickers" jsonschema:"ticker symbols to screen (max 25)"`
	Period      string   `json:"period,omitempty" jsonschema:"price history range (default: 6mo)"`
	RSIBelow    *float64 `json:"rsiBelow,omitempty" jsonschema:"match when RSI is below this value"`
	RSIAbove    *float64 `json:"rsiAbove,omitempty" jsonschema:"match when RSI is above this value"`
	AboveSMA50  bool     `json:"aboveSma50,omitempty" jsonschema:"match when price is above the 50-day SMA"`
	MACDBullish bool     `json:"macdBullish,omitempty" jsonschema:"match when MACD is above its signal line"`
}

type screenOut struct {
	Matches []ta.ScreenMatch  `json:"matches"`
	Skipped map[string]string `json:"skipped,omitempty"`
}

type compareIn struct {
	Tickers []string `json:"tickers" jsonschema:"ticker symbols to compare (2-10)"`
	Period  string   `json:"period,omitempty" jsonschema:"price history range (default: 1y)"`
}

type compareOut struct {
	Summaries map[string]ta.Summary `json:"summaries"`
	Skipped   map[string]string     `json:"skipped,omitempty"`
}

type volumeIn struct {
	Ticker   string `json:"ticker" jsonschema:"stock ticker symbol"`
	Period   string `json:"period,omitempty" jsonschema:"price history range (default: 3mo)"`
	VWAPMode string `json:"vwapMode,omitempty" jsonschema:"VWAP calculation: session, rolling, anchored (default: session)"`
}

type volatilityIn struct {
	Ticker    string `json:"ticker" jsonschema:"stock ticker symbol"`
	Period    string `json:"period,omitempty" jsonschema:"price history range (default: 1y)"`
	Benchmark string `json:"benchmark,omitempty" jsonschema:"benchmark symbol for beta (default: SPY)"`
}

type relativeStrengthIn struct {
	Ticker    string `json:"ticker" jsonschema:"stock ticker symbol"`
	Benchmark string `json:"benchmark,omitempty" jsonschema:"benchmark symbol (default: SPY)"`
	Period    string `json:"period,omitempty" jsonschema:"price history range (default: 1y)"`
}

func (s *Server) registerTechnical() {
	addTool(s, "calculate_technical_indicator",
		"Compute one technical indicator series for a ticker and return the most recent values as CSV.",
		func(ctx context.Context, in indicatorIn) (*indicatorOut, error) {
			return s.calculateIndicator(ctx, in)
		})

	addTool(s, "analyze_technical",
		"Full technical snapshot for a ticker: RSI, MACD, Bollinger Bands, moving-average trend, and stochastic, each with a signal.",
		func(ctx context.Context, in analyzeIn) (*ta.Summary, error) {
			bars, err := s.history(ctx, in.Ticker, defaultPeriod(in.Period, "1y"))
			if err != nil {
				return nil, err
			}
			summary := ta.Summarize(bars)
			return &summary, nil
		})

	addTool(s, "find_support_resistance",
		"Support and resistance levels detected from local price extremes.",
		func(ctx context.Context, in supportResistanceIn) (*ta.Levels, error) {
			bars, err := s.history(ctx, in.Ticker, defaultPeriod(in.Period, "1y"))
			if err != nil {
				return nil, err
			}
			order := in.Order
			if order == 0 {
				order = 5
			}
			levels := ta.SupportResistance(bars, order)
			return &levels, nil
		})

	addTool(s, "analyze_trend_strength",
		"Composite 0-100 trend strength score built from RSI, MACD, moving averages, and Bollinger Band position.",
		func(ctx context.Context, in analyzeIn) (*ta.TrendStrengthReport, error) {
			bars, err := s.history(ctx, in.Ticker, defaultPeriod(in.Period, "1y"))
			if err != nil {
				return nil, err
			}
			report := ta.TrendStrength(bars)
			return &report, nil
		})

	addTool(s, "detect_chart_patterns",
		"Chart patterns detected in recent price action: golden/death crosses, sustained trends, and consolidation.",
		func(ctx context.Context, in analyzeIn) ([]ta.Pattern, error) {
			bars, err := s.history(ctx, in.Ticker, defaultPeriod(in.Period, "1y"))
			if err != nil {
				return nil, err
			}
			patterns := ta.DetectPatterns(bars)
			if patterns == nil {
				patterns = []ta.Pattern{}
			}
			return patterns, nil
		})

	addTool(s, "screen_stocks_technical",
		"Screen a list of tickers against technical criteria (RSI thresholds, SMA position, MACD direction). A ticker matches only when every requested filter passes.",
		func(ctx context.Context, in screenIn) (*screenOut, error) {
			return s.screenStocks(ctx, in)
		})

	addTool(s, "compare_technical",
		"Side-by-side technical snapshots for several tickers.",
		func(ctx context.Context, in compareIn) (*compareOut, error) {
			return s.compareTechnical(ctx, in)
		})

	addTool(s, "analyze_volume",
		"Volume profile for a ticker: VWAP, on-balance volume, accumulation/distribution, money flow, relative volume, and recent surge or dry-up dates.",
		func(ctx context.Context, in volumeIn) (*ta.VolumeReport, error) {
			mode := in.VWAPMode
			if mode == "" {
				mode = ta.VWAPSession
			}
			if err := validEnum("vwapMode", mode, ta.VWAPModes); err != nil {
				return nil, err
			}
			bars, err := s.history(ctx, in.Ticker, defaultPeriod(in.Period, "3mo"))
			if err != nil {
				return nil, err
			}
			report := ta.AnalyzeVolume(bars, mode)
			return &report, nil
		})

	addTool(s, "analyze_volatility",
		"Volatility report for a ticker: ATR, historical volatility across windows, volatility regime, beta versus a benchmark, Keltner channel, and ATR-based stop levels.",
		func(ctx context.Context, in volatilityIn) (*ta.VolatilityReport, error) {
			benchmark := in.Benchmark
			if benchmark == "" {
				benchmark = DefaultBenchmark
			}
			period := defaultPeriod(in.Period, "1y")
			bars, err := s.history(ctx, in.Ticker, period)
			if err != nil {
				return nil, err
			}
			benchBars, err := s.history(ctx, benchmark, period)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve benchmark %s", benchmark)
			}
			report := ta.AnalyzeVolatility(bars, ta.Closes(benchBars))
			return &report, nil
		})

	addTool(s, "get_relative_strength",
		"IBD-style relative strength of a ticker versus a benchmark, with trend and a classification.",
		func(ctx context.Context, in relativeStrengthIn) (*ta.RelativeStrengthReport, error) {
			benchmark := in.Benchmark
			if benchmark == "" {
				benchmark = DefaultBenchmark
			}
			period := defaultPeriod(in.Period, "1y")
			bars, err := s.history(ctx, in.Ticker, period)
			if err != nil {
				return nil, err
			}
			benchBars, err := s.history(ctx, benchmark, period)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeUpstream, err, "failed to retrieve benchmark %s", benchmark)
			}
			report := ta.RelativeStrength(ta.Closes(bars), ta.Closes(benchBars))
			return &report, nil
		})
}

// history fetches and flattens price history into analysis bars.
func (s *Server) history(ctx context.Context, ticker, period string) ([]ta.Bar, error) {
	resp, err := s.yahoo.History(ctx, ticker, period)
	if err != nil {
		return nil, err
	}
	raw := resp.Chart.Result[0].Bars()
	if len(raw) == 0 {
		return nil, errors.New(errors.ErrCodeUpstreamData, "no usable price data for %s", strings.ToUpper(ticker))
	}
	bars := make([]ta.Bar, len(raw))
	for i, b := range raw {
		bars[i] = ta.Bar{
			Timestamp: b.Timestamp,
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	return bars, nil
}

func (s *Server) calculateIndicator(ctx context.Context, in indicatorIn) (*indicatorOut, error) {
	name := strings.ToUpper(in.Indicator)
	if err := validEnum("indicator", name, indicatorNames); err != nil {
		return nil, err
	}
	if in.Period < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "period must be positive, got %d", in.Period)
	}

	bars, err := s.history(ctx, in.Ticker, defaultPeriod(in.History, "1y"))
	if err != nil {
		return nil, err
	}

	closes := ta.Closes(bars)
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	period := in.Period
	var headers []string
	var series [][]float64
	switch name {
	case "SMA":
		if period == 0 {
			period = 20
		}
		headers, series = []string{"sma"}, [][]float64{ta.SMA(closes, period)}
	case "EMA":
		if period == 0 {
			period = 20
		}
		headers, series = []string{"ema"}, [][]float64{ta.EMA(closes, period)}
	case "RSI":
		if period == 0 {
			period = 14
		}
		headers, series = []string{"rsi"}, [][]float64{ta.RSI(closes, period)}
	case "MACD":
		macd, signal, histogram := ta.MACD(closes, 12, 26, 9)
		headers, series = []string{"macd", "signal", "histogram"}, [][]float64{macd, signal, histogram}
	case "BBANDS":
		if period == 0 {
			period = 20
		}
		upper, middle, lower := ta.BollingerBands(closes, period, 2.0)
		headers, series = []string{"upper", "middle", "lower"}, [][]float64{upper, middle, lower}
	case "STOCH":
		if period == 0 {
			period = 14
		}
		k, d := ta.Stochastic(highs, lows, closes, period, 3, 3)
		headers, series = []string{"k", "d"}, [][]float64{k, d}
	case "ATR":
		if period == 0 {
			period = 14
		}
		atr := ta.ATRWilder(ta.TrueRange(highs, lows, closes), period)
		// TrueRange drops the first bar, so realign with the date column.
		atr = append([]float64{math.NaN()}, atr...)
		headers, series = []string{"atr"}, [][]float64{atr}
	case "OBV":
		headers, series = []string{"obv"}, [][]float64{ta.OBV(closes, volumes)}
	case "MFI":
		if period == 0 {
			period = 14
		}
		headers, series = []string{"mfi"}, [][]float64{ta.MFI(highs, lows, closes, volumes, period)}
	}

	rows := in.Rows
	if rows <= 0 {
		rows = 10
	}
	if rows > len(bars) {
		rows = len(bars)
	}

	table := make([][]string, 0, rows)
	for i := len(bars) - rows; i < len(bars); i++ {
		row := make([]string, 0, len(series)+2)
		row = append(row, time.Unix(bars[i].Timestamp, 0).UTC().Format("2006-01-02"))
		row = append(row, format.Float(bars[i].Close))
		for _, col := range series {
			row = append(row, format.Float(col[i]))
		}
		table = append(table, row)
	}

	return &indicatorOut{
		Ticker:    strings.ToUpper(in.Ticker),
		Indicator: name,
		Period:    period,
		CSV:       format.CSV(append([]string{"date", "close"}, headers...), table),
	}, nil
}

func (s *Server) screenStocks(ctx context.Context, in screenIn) (*screenOut, error) {
	if len(in.Tickers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "tickers list cannot be empty")
	}
	if len(in.Tickers) > 25 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "too many tickers: %d (max 25)", len(in.Tickers))
	}

	series, skipped := s.fetchAll(ctx, in.Tickers, defaultPeriod(in.Period, "6mo"))
	matches := ta.Screen(series, ta.ScreenCriteria{
		RSIBelow:    in.RSIBelow,
		RSIAbove:    in.RSIAbove,
		AboveSMA50:  in.AboveSMA50,
		MACDBullish: in.MACDBullish,
	})
	if matches == nil {
		matches = []ta.ScreenMatch{}
	}
	return &screenOut{Matches: matches, Skipped: skipped}, nil
}

func (s *Server) compareTechnical(ctx context.Context, in compareIn) (*compareOut, error) {
	if len(in.Tickers) < 2 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "need at least 2 tickers to compare, got %d", len(in.Tickers))
	}
	if len(in.Tickers) > 10 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "too many tickers: %d (max 10)", len(in.Tickers))
	}

	series, skipped := s.fetchAll(ctx, in.Tickers, defaultPeriod(in.Period, "1y"))
	summaries := make(map[string]ta.Summary, len(series))
	for symbol, bars := range series {
		summaries[symbol] = ta.Summarize(bars)
	}
	return &compareOut{Summaries: summaries, Skipped: skipped}, nil
}

// fetchAll retrieves history for every ticker with bounded parallelism.
// Tickers that fail are reported in the skipped map, not as a tool error:
// one bad symbol should not sink a batch.
func (s *Server) fetchAll(ctx context.Context, tickers []string, period string) (map[string][]ta.Bar, map[string]string) {
	var mu sync.Mutex
	series := make(map[string][]ta.Bar, len(tickers))
	skipped := make(map[string]string)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)
	for _, ticker := range tickers {
		symbol := strings.ToUpper(strings.TrimSpace(ticker))
		g.Go(func() error {
			bars, err := s.history(gctx, symbol, period)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				skipped[symbol] = toolErrorText(err)
				return nil
			}
			series[symbol] = bars
			return nil
		})
	}
	g.Wait() //nolint:errcheck // workers never return errors
	if len(skipped) == 0 {
		skipped = nil
	}
	return series, skipped
}

func defaultPeriod(period, fallback string) string {
	if period == "" {
		return fallback
	}
	return period
}

func validEnum(name, value string, allowed []string) error {
	for _, v := range allowed {
		if v == value {
			return nil
		}
	}
	sorted := append([]string(nil), allowed...)
	sort.Strings(sorted)
	return errors.New(errors.ErrCodeInvalidInput,
		"invalid %s %q: must be one of %s", name, value, strings.Join(sorted, ", "))
}
