// Package ta implements the technical-analysis math used by the analysis
// tools: moving averages, oscillators, volatility measures, and the
// composite scores built on top of them.
//
// Indicator functions operate on plain float64 slices and return slices of
// the same length, with NaN filling the warmup region where a rolling window
// is not yet complete. Callers are expected to pass gap-free series.
package ta

import "math"

// Bar is one OHLCV observation. Timestamp is Unix seconds.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Closes extracts the close series from bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// SMA computes the simple moving average. The first period-1 entries are NaN.
func SMA(data []float64, period int) []float64 {
	out := nanSlice(len(data))
	if period <= 0 || len(data) < period {
		return out
	}
	var sum float64
	for i, v := range data {
		sum += v
		if i >= period {
			sum -= data[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average with smoothing 2/(period+1),
// seeded from the first value.
func EMA(data []float64, period int) []float64 {
	out := nanSlice(len(data))
	if period <= 0 || len(data) == 0 {
		return out
	}
	alpha := 2.0 / float64(period+1)
	ema := data[0]
	out[0] = ema
	for i := 1; i < len(data); i++ {
		ema = alpha*data[i] + (1-alpha)*ema
		out[i] = ema
	}
	return out
}

// RSI computes the relative strength index using Wilder's smoothing. The
// first period entries carry the seed value.
func RSI(data []float64, period int) []float64 {
	out := nanSlice(len(data))
	if period <= 0 || len(data) < period+1 {
		return out
	}

	var up, down float64
	for i := 1; i <= period; i++ {
		delta := data[i] - data[i-1]
		if delta >= 0 {
			up += delta
		} else {
			down -= delta
		}
	}
	up /= float64(period)
	down /= float64(period)

	seed := 100.0
	if down != 0 {
		seed = 100.0 - 100.0/(1.0+up/down)
	}
	for i := 0; i < period && i < len(out); i++ {
		out[i] = seed
	}

	for i := period; i < len(data); i++ {
		delta := data[i] - data[i-1]
		var upval, downval float64
		if delta > 0 {
			upval = delta
		} else {
			downval = -delta
		}
		up = (up*float64(period-1) + upval) / float64(period)
		down = (down*float64(period-1) + downval) / float64(period)
		if down == 0 {
			out[i] = 100.0
			continue
		}
		out[i] = 100.0 - 100.0/(1.0+up/down)
	}
	return out
}

// MACD computes the moving average convergence divergence line, its signal
// line, and the histogram.
func MACD(data []float64, fastPeriod, slowPeriod, signalPeriod int) (macd, signal, histogram []float64) {
	fast := EMA(data, fastPeriod)
	slow := EMA(data, slowPeriod)
	macd = make([]float64, len(data))
	for i := range data {
		macd[i] = fast[i] - slow[i]
	}
	signal = EMA(macd, signalPeriod)
	histogram = make([]float64, len(data))
	for i := range data {
		histogram[i] = macd[i] - signal[i]
	}
	return macd, signal, histogram
}

// BollingerBands computes the bands around a period-SMA at stdDev standard
// deviations.
func BollingerBands(data []float64, period int, stdDev float64) (upper, middle, lower []float64) {
	middle = SMA(data, period)
	std := RollingStd(data, period)
	upper = nanSlice(len(data))
	lower = nanSlice(len(data))
	for i := range data {
		if math.IsNaN(middle[i]) || math.IsNaN(std[i]) {
			continue
		}
		upper[i] = middle[i] + std[i]*stdDev
		lower[i] = middle[i] - std[i]*stdDev
	}
	return upper, middle, lower
}

// Stochastic computes the smoothed %K and %D stochastic oscillator lines.
func Stochastic(high, low, close []float64, period, smoothK, smoothD int) (k, d []float64) {
	n := len(close)
	raw := nanSlice(n)
	for i := period - 1; i < n; i++ {
		lo, hi := low[i], high[i]
		for j := i - period + 1; j <= i; j++ {
			if low[j] < lo {
				lo = low[j]
			}
			if high[j] > hi {
				hi = high[j]
			}
		}
		if hi == lo {
			raw[i] = 50
			continue
		}
		raw[i] = 100 * (close[i] - lo) / (hi - lo)
	}
	k = rollingMeanNaN(raw, smoothK)
	d = rollingMeanNaN(k, smoothD)
	return k, d
}

// TrueRange computes the per-bar true range: the largest of high-low,
// |high-prevClose|, and |low-prevClose|.
func TrueRange(high, low, close []float64) []float64 {
	out := make([]float64, len(close))
	for i := range close {
		hl := high[i] - low[i]
		if i == 0 {
			out[i] = hl
			continue
		}
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// ATRWilder computes the average true range with Wilder's smoothing: the
// first value at index period is a simple average, later values are
// (prev*(n-1) + tr) / n.
func ATRWilder(tr []float64, period int) []float64 {
	out := nanSlice(len(tr))
	if period <= 0 || len(tr) <= period {
		return out
	}
	var sum float64
	for i := 0; i < period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < len(tr); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// OBV computes on-balance volume: cumulative volume signed by the direction
// of the close-to-close change.
func OBV(close, volume []float64) []float64 {
	out := make([]float64, len(close))
	for i := 1; i < len(close); i++ {
		switch {
		case close[i] > close[i-1]:
			out[i] = out[i-1] + volume[i]
		case close[i] < close[i-1]:
			out[i] = out[i-1] - volume[i]
		default:
			out[i] = out[i-1]
		}
	}
	return out
}

// MFI computes the money flow index, an RSI of typical-price money flow.
func MFI(high, low, close, volume []float64, period int) []float64 {
	n := len(close)
	out := nanSlice(n)
	if period <= 0 || n < period+1 {
		return out
	}

	posFlow := make([]float64, n)
	negFlow := make([]float64, n)
	prevTypical := (high[0] + low[0] + close[0]) / 3
	for i := 1; i < n; i++ {
		typical := (high[i] + low[i] + close[i]) / 3
		flow := typical * volume[i]
		if typical > prevTypical {
			posFlow[i] = flow
		} else if typical < prevTypical {
			negFlow[i] = flow
		}
		prevTypical = typical
	}

	var pos, neg float64
	for i := 1; i < n; i++ {
		pos += posFlow[i]
		neg += negFlow[i]
		if i > period {
			pos -= posFlow[i-period]
			neg -= negFlow[i-period]
		}
		if i >= period {
			if neg == 0 {
				out[i] = 100
				continue
			}
			out[i] = 100 - 100/(1+pos/neg)
		}
	}
	return out
}

// RollingStd computes the rolling sample standard deviation over a period
// window.
func RollingStd(data []float64, period int) []float64 {
	out := nanSlice(len(data))
	if period <= 1 || len(data) < period {
		return out
	}
	for i := period - 1; i < len(data); i++ {
		window := data[i-period+1 : i+1]
		out[i] = stddev(window)
	}
	return out
}

// HistoricalVolatility computes the annualized volatility percentage of the
// last window close-to-close returns. NaN when the series is too short.
func HistoricalVolatility(closes []float64, window int) float64 {
	returns := pctChange(closes)
	if len(returns) < window || window < 2 {
		return math.NaN()
	}
	tail := returns[len(returns)-window:]
	return stddev(tail) * math.Sqrt(252) * 100
}

// Beta computes the regression beta of a series against a benchmark using
// close-to-close returns over the overlapping range.
func Beta(closes, benchmark []float64) float64 {
	n := len(closes)
	if len(benchmark) < n {
		n = len(benchmark)
	}
	r1 := pctChange(closes[len(closes)-n:])
	r2 := pctChange(benchmark[len(benchmark)-n:])
	if len(r1) < 2 {
		return 1.0
	}

	m1 := mean(r1)
	m2 := mean(r2)
	var cov, varBench float64
	for i := range r1 {
		cov += (r1[i] - m1) * (r2[i] - m2)
		varBench += (r2[i] - m2) * (r2[i] - m2)
	}
	if varBench == 0 {
		return 1.0
	}
	return cov / varBench
}

func pctChange(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}
	out := make([]float64, len(data)-1)
	for i := 1; i < len(data); i++ {
		if data[i-1] == 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = data[i]/data[i-1] - 1
	}
	return out
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64) float64 {
	if len(data) < 2 {
		return math.NaN()
	}
	m := mean(data)
	var ss float64
	for _, v := range data {
		ss += (v - m) * (v - m)
	}
	return math.Sqrt(ss / float64(len(data)-1))
}

// rollingMeanNaN averages over a window, skipping until the window holds no
// NaN values.
func rollingMeanNaN(data []float64, period int) []float64 {
	out := nanSlice(len(data))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(data); i++ {
		var sum float64
		ok := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(data[j]) {
				ok = false
				break
			}
			sum += data[j]
		}
		if ok {
			out[i] = sum / float64(period)
		}
	}
	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func last(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	return data[len(data)-1]
}
