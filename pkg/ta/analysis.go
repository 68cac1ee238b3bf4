package ta

import (
	"fmt"
	"math"
	"sort"
)

// Signal classifications shared by the analysis reports.
const (
	SignalOverbought = "Overbought"
	SignalOversold   = "Oversold"
	SignalNeutral    = "Neutral"
	SignalBullish    = "Bullish"
	SignalBearish    = "Bearish"
	SignalMixed      = "Mixed"
)

// Summary is the full indicator snapshot for one series of daily bars.
type Summary struct {
	CurrentPrice float64 `json:"currentPrice"`

	RSI struct {
		Value  float64 `json:"value"`
		Signal string  `json:"signal"`
	} `json:"rsi"`

	MACD struct {
		MACD      float64 `json:"macd"`
		Signal    float64 `json:"signal"`
		Histogram float64 `json:"histogram"`
		Trend     string  `json:"trend"`
	} `json:"macd"`

	Bollinger struct {
		Upper    float64 `json:"upper"`
		Middle   float64 `json:"middle"`
		Lower    float64 `json:"lower"`
		Position string  `json:"position"`
	} `json:"bollingerBands"`

	MovingAverages struct {
		SMA20  float64 `json:"sma20"`
		SMA50  float64 `json:"sma50"`
		SMA200 float64 `json:"sma200"`
		EMA20  float64 `json:"ema20"`
		Trend  string  `json:"trend"`
	} `json:"movingAverages"`

	Stochastic struct {
		K      float64 `json:"k"`
		D      float64 `json:"d"`
		Signal string  `json:"signal"`
	} `json:"stochastic"`
}

// Summarize computes the comprehensive indicator snapshot: RSI, MACD,
// Bollinger Bands, the standard moving averages, and the stochastic
// oscillator, each with its signal classification.
func Summarize(bars []Bar) Summary {
	closes := Closes(bars)
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i] = b.High
		lows[i] = b.Low
	}

	var s Summary
	s.CurrentPrice = last(closes)

	rsi := last(RSI(closes, 14))
	if math.IsNaN(rsi) {
		rsi = 50
	}
	s.RSI.Value = rsi
	switch {
	case rsi > 70:
		s.RSI.Signal = SignalOverbought
	case rsi < 30:
		s.RSI.Signal = SignalOversold
	default:
		s.RSI.Signal = SignalNeutral
	}

	macd, signal, histogram := MACD(closes, 12, 26, 9)
	m := last(macd)
	sig := last(signal)
	if math.IsNaN(m) {
		m = 0
	}
	if math.IsNaN(sig) {
		sig = 0
	}
	s.MACD.MACD = m
	s.MACD.Signal = sig
	s.MACD.Histogram = last(histogram)
	s.MACD.Trend = SignalBearish
	if m > sig {
		s.MACD.Trend = SignalBullish
	}

	upper, middle, lower := BollingerBands(closes, 20, 2)
	s.Bollinger.Upper = last(upper)
	s.Bollinger.Middle = last(middle)
	s.Bollinger.Lower = last(lower)
	s.Bollinger.Position = bbPosition(s.CurrentPrice, s.Bollinger.Upper, s.Bollinger.Lower)

	s.MovingAverages.SMA20 = last(SMA(closes, 20))
	s.MovingAverages.SMA50 = last(SMA(closes, 50))
	s.MovingAverages.SMA200 = last(SMA(closes, 200))
	s.MovingAverages.EMA20 = last(EMA(closes, 20))
	s.MovingAverages.Trend = maTrend(s.CurrentPrice, s.MovingAverages.SMA50, s.MovingAverages.SMA200)

	k, d := Stochastic(highs, lows, closes, 14, 3, 3)
	s.Stochastic.K = last(k)
	s.Stochastic.D = last(d)
	s.Stochastic.Signal = stochSignal(s.Stochastic.K)

	return s
}

func bbPosition(price, upper, lower float64) string {
	if math.IsNaN(upper) || math.IsNaN(lower) {
		return "Insufficient Data"
	}
	switch {
	case price > upper:
		return "Above Upper Band"
	case price < lower:
		return "Below Lower Band"
	default:
		return "Within Bands"
	}
}

func maTrend(price, sma50, sma200 float64) string {
	if math.IsNaN(sma50) || math.IsNaN(sma200) {
		return "Insufficient Data"
	}
	switch {
	case price > sma50 && price > sma200:
		return SignalBullish
	case price < sma50 && price < sma200:
		return SignalBearish
	default:
		return SignalMixed
	}
}

func stochSignal(k float64) string {
	switch {
	case math.IsNaN(k):
		return "Insufficient Data"
	case k > 80:
		return SignalOverbought
	case k < 20:
		return SignalOversold
	default:
		return SignalNeutral
	}
}

// Levels holds the support and resistance levels found in recent price
// action.
type Levels struct {
	CurrentPrice      float64   `json:"currentPrice"`
	ResistanceLevels  []float64 `json:"resistanceLevels"`
	SupportLevels     []float64 `json:"supportLevels"`
	NearestResistance float64   `json:"nearestResistance"`
	NearestSupport    float64   `json:"nearestSupport"`
}

// SupportResistance finds the strongest price levels by local extrema
// detection: a bar is an extremum when it strictly dominates the order bars
// on each side. The top three resistance and support levels are returned,
// resistance descending and support ascending.
func SupportResistance(bars []Bar, order int) Levels {
	if order <= 0 {
		order = 5
	}
	var resistance, support []float64
	for i := order; i < len(bars)-order; i++ {
		isMax, isMin := true, true
		for j := i - order; j <= i+order; j++ {
			if j == i {
				continue
			}
			if bars[j].High >= bars[i].High {
				isMax = false
			}
			if bars[j].Low <= bars[i].Low {
				isMin = false
			}
			if !isMax && !isMin {
				break
			}
		}
		if isMax {
			resistance = append(resistance, bars[i].High)
		}
		if isMin {
			support = append(support, bars[i].Low)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(resistance)))
	sort.Float64s(support)
	if len(resistance) > 3 {
		resistance = resistance[:3]
	}
	if len(support) > 3 {
		support = support[:3]
	}

	levels := Levels{
		ResistanceLevels:  resistance,
		SupportLevels:     support,
		NearestResistance: math.NaN(),
		NearestSupport:    math.NaN(),
	}
	if len(bars) > 0 {
		levels.CurrentPrice = bars[len(bars)-1].Close
	}
	if len(resistance) > 0 {
		levels.NearestResistance = resistance[0]
	}
	if len(support) > 0 {
		levels.NearestSupport = support[len(support)-1]
	}
	return levels
}

// TrendStrengthReport scores how healthy the current trend is.
type TrendStrengthReport struct {
	Score      int      `json:"trendStrengthScore"`
	MaxScore   int      `json:"maxScore"`
	Assessment string   `json:"overallAssessment"`
	Analysis   []string `json:"analysisPoints"`
	Indicators Summary  `json:"indicators"`
}

// TrendStrength scores trend health 0-100 from the indicator snapshot:
// RSI position contributes up to 25 points, MACD direction 25, price versus
// the key moving averages 30, and Bollinger position 20.
func TrendStrength(bars []Bar) TrendStrengthReport {
	s := Summarize(bars)
	report := TrendStrengthReport{MaxScore: 100, Indicators: s}

	switch {
	case s.RSI.Value > 40 && s.RSI.Value < 70:
		report.Score += 25
		report.Analysis = append(report.Analysis, "RSI in healthy range")
	case s.RSI.Value >= 70:
		report.Score += 10
		report.Analysis = append(report.Analysis, "RSI overbought (caution)")
	case s.RSI.Value <= 30:
		report.Score += 10
		report.Analysis = append(report.Analysis, "RSI oversold (potential reversal)")
	}

	if s.MACD.Trend == SignalBullish {
		report.Score += 25
		report.Analysis = append(report.Analysis, "MACD bullish crossover")
	} else {
		report.Analysis = append(report.Analysis, "MACD bearish")
	}

	switch s.MovingAverages.Trend {
	case SignalBullish:
		report.Score += 30
		report.Analysis = append(report.Analysis, "Price above key moving averages")
	case SignalBearish:
		report.Analysis = append(report.Analysis, "Price below key moving averages")
	}

	switch s.Bollinger.Position {
	case "Within Bands":
		report.Score += 20
		report.Analysis = append(report.Analysis, "Trading within Bollinger Bands")
	case "Above Upper Band":
		report.Score += 10
		report.Analysis = append(report.Analysis, "Extended above Bollinger Bands")
	}

	switch {
	case report.Score >= 70:
		report.Assessment = "Strong Bullish Trend"
	case report.Score >= 50:
		report.Assessment = "Moderate Bullish Trend"
	case report.Score >= 30:
		report.Assessment = "Weak Bullish / Consolidating"
	default:
		report.Assessment = "Bearish or Weak"
	}
	return report
}

// Pattern is one detected chart pattern.
type Pattern struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Signal      string `json:"signal"`
}

// DetectPatterns looks for the classic signals: golden and death crosses of
// the 50/200-day averages, sustained ten-day trends, and consolidation
// (recent range much tighter than the whole period).
func DetectPatterns(bars []Bar) []Pattern {
	closes := Closes(bars)
	var patterns []Pattern

	sma50 := SMA(closes, 50)
	sma200 := SMA(closes, 200)
	if n := len(closes); n >= 2 && !math.IsNaN(sma200[n-2]) {
		prev50, cur50 := sma50[n-2], sma50[n-1]
		prev200, cur200 := sma200[n-2], sma200[n-1]
		if prev50 < prev200 && cur50 > cur200 {
			patterns = append(patterns, Pattern{
				Pattern:     "Golden Cross",
				Description: "50-day MA crossed above 200-day MA",
				Signal:      SignalBullish,
			})
		} else if prev50 > prev200 && cur50 < cur200 {
			patterns = append(patterns, Pattern{
				Pattern:     "Death Cross",
				Description: "50-day MA crossed below 200-day MA",
				Signal:      SignalBearish,
			})
		}
	}

	if len(closes) >= 10 {
		recent := closes[len(closes)-10:]
		up, down := true, true
		for i := 1; i < len(recent); i++ {
			if recent[i] <= recent[i-1] {
				up = false
			}
			if recent[i] >= recent[i-1] {
				down = false
			}
		}
		if up {
			patterns = append(patterns, Pattern{
				Pattern:     "Strong Uptrend",
				Description: "Consistent upward movement in last 10 days",
				Signal:      SignalBullish,
			})
		}
		if down {
			patterns = append(patterns, Pattern{
				Pattern:     "Strong Downtrend",
				Description: "Consistent downward movement in last 10 days",
				Signal:      SignalBearish,
			})
		}
	}

	if len(closes) >= 20 {
		recent := closes[len(closes)-20:]
		if stddev(recent) < stddev(closes)*0.5 {
			patterns = append(patterns, Pattern{
				Pattern:     "Consolidation",
				Description: "Price trading in narrow range",
				Signal:      SignalNeutral,
			})
		}
	}
	return patterns
}

// ScreenCriteria selects which technical filters a screen applies. Nil
// pointer fields and false booleans are skipped.
type ScreenCriteria struct {
	RSIBelow    *float64 `json:"rsiBelow,omitempty"`
	RSIAbove    *float64 `json:"rsiAbove,omitempty"`
	AboveSMA50  bool     `json:"aboveSma50,omitempty"`
	MACDBullish bool     `json:"macdBullish,omitempty"`
}

// ScreenMatch is one symbol that passed every requested filter.
type ScreenMatch struct {
	Symbol          string   `json:"symbol"`
	CurrentPrice    float64  `json:"currentPrice"`
	RSI             float64  `json:"rsi"`
	RSISignal       string   `json:"rsiSignal"`
	MACDTrend       string   `json:"macdTrend"`
	MATrend         string   `json:"maTrend"`
	MatchedCriteria []string `json:"matchedCriteria"`
}

// Screen filters symbols by the requested technical criteria; a symbol
// matches only when every filter passes.
func Screen(series map[string][]Bar, criteria ScreenCriteria) []ScreenMatch {
	var matches []ScreenMatch
	for symbol, bars := range series {
		if len(bars) == 0 {
			continue
		}
		s := Summarize(bars)
		var matched []string

		if criteria.RSIBelow != nil {
			if s.RSI.Value >= *criteria.RSIBelow {
				continue
			}
			matched = append(matched, fmt.Sprintf("RSI below %g", *criteria.RSIBelow))
		}
		if criteria.RSIAbove != nil {
			if s.RSI.Value <= *criteria.RSIAbove {
				continue
			}
			matched = append(matched, fmt.Sprintf("RSI above %g", *criteria.RSIAbove))
		}
		if criteria.AboveSMA50 {
			if s.MovingAverages.Trend != SignalBullish && s.MovingAverages.Trend != SignalMixed {
				continue
			}
			matched = append(matched, "Above SMA50")
		}
		if criteria.MACDBullish {
			if s.MACD.Trend != SignalBullish {
				continue
			}
			matched = append(matched, "MACD Bullish")
		}

		matches = append(matches, ScreenMatch{
			Symbol:          symbol,
			CurrentPrice:    s.CurrentPrice,
			RSI:             s.RSI.Value,
			RSISignal:       s.RSI.Signal,
			MACDTrend:       s.MACD.Trend,
			MATrend:         s.MovingAverages.Trend,
			MatchedCriteria: matched,
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Symbol < matches[j].Symbol })
	return matches
}
