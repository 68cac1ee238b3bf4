package ta

import "math"

// VolatilityReport is the risk-management analysis for one series.
type VolatilityReport struct {
	CurrentPrice float64 `json:"currentPrice"`

	ATR14    float64 `json:"atr14"`
	ATR20    float64 `json:"atr20"`
	ATR14Pct float64 `json:"atr14PctOfPrice"`
	ATR20Pct float64 `json:"atr20PctOfPrice"`

	HistoricalVolatility struct {
		Day10 float64 `json:"day10Pct"`
		Day20 float64 `json:"day20Pct"`
		Day30 float64 `json:"day30Pct"`
		Day60 float64 `json:"day60Pct"`
	} `json:"historicalVolatility"`

	VolatilityPercentile float64 `json:"volatilityPercentile"`
	VolatilityRegime     string  `json:"volatilityRegime"`

	Beta               float64 `json:"betaVsBenchmark"`
	BetaInterpretation string  `json:"betaInterpretation"`

	Keltner struct {
		Upper  float64 `json:"upper"`
		Middle float64 `json:"middle"`
		Lower  float64 `json:"lower"`
	} `json:"keltnerChannels"`

	BollingerBandWidthPct float64 `json:"bollingerBandWidthPct"`

	Stops struct {
		Aggressive2x   float64 `json:"aggressive2xAtr"`
		Standard25x    float64 `json:"standard25xAtr"`
		Conservative3x float64 `json:"conservative3xAtr"`
		RiskPerShare   float64 `json:"riskPerShare25xAtr"`
	} `json:"stopRecommendations"`
}

// AnalyzeVolatility produces the volatility report: Wilder ATR at 14 and 20
// bars, annualized historical volatility at several windows, a one-year
// volatility percentile and regime, beta against a benchmark close series,
// Keltner channels, Bollinger band width, and ATR-multiple stop levels.
// Benchmark may be nil, in which case beta defaults to 1.
func AnalyzeVolatility(bars []Bar, benchmarkCloses []float64) VolatilityReport {
	var r VolatilityReport
	if len(bars) == 0 {
		return r
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}
	r.CurrentPrice = closes[n-1]

	tr := TrueRange(highs, lows, closes)
	atr14 := ATRWilder(tr, 14)
	atr20 := ATRWilder(tr, 20)
	r.ATR14 = last(atr14)
	r.ATR20 = last(atr20)
	if r.CurrentPrice != 0 {
		r.ATR14Pct = r.ATR14 / r.CurrentPrice * 100
		r.ATR20Pct = r.ATR20 / r.CurrentPrice * 100
	}

	r.HistoricalVolatility.Day10 = HistoricalVolatility(closes, 10)
	r.HistoricalVolatility.Day20 = HistoricalVolatility(closes, 20)
	r.HistoricalVolatility.Day30 = HistoricalVolatility(closes, 30)
	r.HistoricalVolatility.Day60 = HistoricalVolatility(closes, 60)

	r.VolatilityPercentile = volatilityPercentile(closes, r.HistoricalVolatility.Day20)
	switch {
	case r.VolatilityPercentile > 80:
		r.VolatilityRegime = "EXTREME HIGH"
	case r.VolatilityPercentile > 60:
		r.VolatilityRegime = "HIGH"
	case r.VolatilityPercentile > 40:
		r.VolatilityRegime = "NORMAL"
	case r.VolatilityPercentile > 20:
		r.VolatilityRegime = "LOW"
	default:
		r.VolatilityRegime = "EXTREME LOW"
	}

	r.Beta = 1.0
	if len(benchmarkCloses) > 1 {
		r.Beta = Beta(closes, benchmarkCloses)
	}
	switch {
	case r.Beta > 1.5:
		r.BetaInterpretation = "Very High Volatility vs Market"
	case r.Beta > 1.0:
		r.BetaInterpretation = "Higher Volatility than Market"
	case r.Beta > 0.5:
		r.BetaInterpretation = "Lower Volatility than Market"
	default:
		r.BetaInterpretation = "Much Lower Volatility than Market"
	}

	ema20 := last(EMA(closes, 20))
	r.Keltner.Middle = ema20
	r.Keltner.Upper = ema20 + 2*r.ATR20
	r.Keltner.Lower = ema20 - 2*r.ATR20

	upper, middle, lower := BollingerBands(closes, 20, 2)
	if m := last(middle); !math.IsNaN(m) && m != 0 {
		r.BollingerBandWidthPct = (last(upper) - last(lower)) / m * 100
	}

	r.Stops.Aggressive2x = r.CurrentPrice - 2*r.ATR14
	r.Stops.Standard25x = r.CurrentPrice - 2.5*r.ATR14
	r.Stops.Conservative3x = r.CurrentPrice - 3*r.ATR14
	r.Stops.RiskPerShare = 2.5 * r.ATR14

	return r
}

// volatilityPercentile ranks the current 20-day volatility against the
// trailing year of rolling 20-day readings.
func volatilityPercentile(closes []float64, currentHV float64) float64 {
	returns := pctChange(closes)
	rolling := RollingStd(returns, 20)
	start := len(rolling) - 252
	if start < 0 {
		start = 0
	}
	var below, total int
	for _, v := range rolling[start:] {
		if math.IsNaN(v) {
			continue
		}
		total++
		if v*math.Sqrt(252)*100 < currentHV {
			below++
		}
	}
	if total == 0 {
		return 50
	}
	return float64(below) / float64(total) * 100
}
