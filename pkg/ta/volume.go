package ta

import "time"

// VWAP calculation modes accepted by [AnalyzeVolume].
const (
	VWAPSession  = "session"
	VWAPRolling  = "rolling"
	VWAPAnchored = "anchored"
)

// VWAPModes lists the accepted mode names.
var VWAPModes = []string{VWAPSession, VWAPRolling, VWAPAnchored}

// VolumeReport is the volume-confirmation analysis for one series.
type VolumeReport struct {
	CurrentPrice       float64 `json:"currentPrice"`
	VWAP               float64 `json:"vwap"`
	VWAPMode           string  `json:"vwapMode"`
	VWAPDistancePct    float64 `json:"vwapDistancePct"`
	VWAPInterpretation string  `json:"vwapInterpretation"`

	Profile struct {
		POCPrice      float64 `json:"pocPrice"`
		ValueAreaHigh float64 `json:"valueAreaHigh"`
		ValueAreaLow  float64 `json:"valueAreaLow"`
	} `json:"volumeProfile"`

	CurrentVolume  float64 `json:"currentVolume"`
	AvgVolume20    float64 `json:"avgVolume20d"`
	RelativeVolume float64 `json:"relativeVolume"`

	OBVTrend     string  `json:"obvTrend"`
	ADTrend      string  `json:"adTrend"`
	MFI          float64 `json:"mfi"`
	MFISignal    string  `json:"mfiSignal"`
	Confirmation string  `json:"priceVolumeConfirmation"`

	VolumeSurges []string `json:"volumeSurges"`
	VolumeDryups []string `json:"volumeDryups"`
}

// AnalyzeVolume produces the volume confirmation report: VWAP in the chosen
// mode, a 20-bin volume profile, relative volume, OBV and A/D accumulation
// trends, MFI, and price/volume confirmation.
func AnalyzeVolume(bars []Bar, vwapMode string) VolumeReport {
	var r VolumeReport
	r.VWAPMode = vwapMode
	if len(bars) == 0 {
		return r
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	typical := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
		typical[i] = (b.High + b.Low + b.Close) / 3
	}
	r.CurrentPrice = closes[n-1]

	switch vwapMode {
	case VWAPRolling:
		// 20-bar rolling VWAP for swing horizons.
		var pv, vol float64
		start := n - 20
		if start < 0 {
			start = 0
		}
		for i := start; i < n; i++ {
			pv += typical[i] * volumes[i]
			vol += volumes[i]
		}
		if vol > 0 {
			r.VWAP = pv / vol
		}
	case VWAPAnchored:
		// Cumulative VWAP from the start of the series.
		var pv, vol float64
		for i := 0; i < n; i++ {
			pv += typical[i] * volumes[i]
			vol += volumes[i]
		}
		if vol > 0 {
			r.VWAP = pv / vol
		}
	default:
		// Session mode: on daily bars each bar's typical price is that
		// session's VWAP.
		r.VWAP = typical[n-1]
	}
	if r.VWAP != 0 {
		r.VWAPDistancePct = (r.CurrentPrice - r.VWAP) / r.VWAP * 100
	}
	r.VWAPInterpretation = "Below VWAP (bearish)"
	if r.VWAPDistancePct > 0 {
		r.VWAPInterpretation = "Above VWAP (bullish)"
	}

	r.Profile.POCPrice, r.Profile.ValueAreaHigh, r.Profile.ValueAreaLow = volumeProfile(closes, volumes)

	tail := 20
	if tail > n {
		tail = n
	}
	r.AvgVolume20 = mean(volumes[n-tail:])
	r.CurrentVolume = volumes[n-1]
	if r.AvgVolume20 > 0 {
		r.RelativeVolume = r.CurrentVolume / r.AvgVolume20
	}

	obv := OBV(closes, volumes)
	r.OBVTrend = accumulationTrend(obv)

	ad := adLine(highs, lows, closes, volumes)
	r.ADTrend = accumulationTrend(ad)

	r.MFI = last(MFI(highs, lows, closes, volumes, 14))
	switch {
	case r.MFI > 80:
		r.MFISignal = "Overbought - Possible Reversal"
	case r.MFI < 20:
		r.MFISignal = "Oversold - Possible Reversal"
	default:
		r.MFISignal = SignalNeutral
	}

	r.Confirmation = priceVolumeConfirmation(closes, r.RelativeVolume)

	for i := n - 1; i >= 0 && len(r.VolumeSurges) < 5; i-- {
		if volumes[i] > r.AvgVolume20*2 {
			r.VolumeSurges = append(r.VolumeSurges, formatBarDate(bars[i]))
		}
	}
	for i := n - 1; i >= 0 && len(r.VolumeDryups) < 5; i-- {
		if volumes[i] < r.AvgVolume20*0.5 {
			r.VolumeDryups = append(r.VolumeDryups, formatBarDate(bars[i]))
		}
	}
	return r
}

// volumeProfile bins closes into 20 price buckets and finds the point of
// control (highest-volume bucket) plus the 70% value area bounds.
func volumeProfile(closes, volumes []float64) (poc, vaHigh, vaLow float64) {
	lo, hi := closes[0], closes[0]
	for _, c := range closes {
		if c < lo {
			lo = c
		}
		if c > hi {
			hi = c
		}
	}
	if hi == lo {
		return lo, hi, lo
	}

	const bins = 20
	width := (hi - lo) / bins
	bucket := make([]float64, bins)
	var total float64
	for i, c := range closes {
		idx := int((c - lo) / width)
		if idx >= bins {
			idx = bins - 1
		}
		bucket[idx] += volumes[i]
		total += volumes[i]
	}

	// Rank buckets by volume, descending.
	order := make([]int, bins)
	for i := range order {
		order[i] = i
	}
	for i := 0; i < bins; i++ {
		for j := i + 1; j < bins; j++ {
			if bucket[order[j]] > bucket[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	poc = lo + (float64(order[0])+0.5)*width
	vaHigh = hi
	vaLow = lo

	var cum float64
	inArea := make([]bool, bins)
	for _, idx := range order {
		cum += bucket[idx]
		if cum > total*0.70 {
			break
		}
		inArea[idx] = true
	}
	for i := 0; i < bins; i++ {
		if inArea[i] {
			vaLow = lo + float64(i)*width
			break
		}
	}
	for i := bins - 1; i >= 0; i-- {
		if inArea[i] {
			vaHigh = lo + float64(i+1)*width
			break
		}
	}
	return poc, vaHigh, vaLow
}

// adLine computes the accumulation/distribution line from the close
// location value.
func adLine(highs, lows, closes, volumes []float64) []float64 {
	out := make([]float64, len(closes))
	var cum float64
	for i := range closes {
		rangeHL := highs[i] - lows[i]
		var clv float64
		if rangeHL != 0 {
			clv = ((closes[i] - lows[i]) - (highs[i] - closes[i])) / rangeHL
		}
		cum += clv * volumes[i]
		out[i] = cum
	}
	return out
}

// accumulationTrend compares the latest value against 20 bars ago.
func accumulationTrend(series []float64) string {
	if len(series) == 0 {
		return "Insufficient Data"
	}
	ref := series[0]
	if len(series) >= 20 {
		ref = series[len(series)-20]
	}
	if series[len(series)-1] > ref {
		return "Accumulation"
	}
	return "Distribution"
}

func priceVolumeConfirmation(closes []float64, relVolume float64) string {
	if len(closes) < 5 {
		return "NEUTRAL - No significant price/volume divergence"
	}
	change := (closes[len(closes)-1] - closes[len(closes)-5]) / closes[len(closes)-5] * 100
	switch {
	case change > 2 && relVolume > 1.5:
		return "STRONG BULLISH - Price surge confirmed by high volume"
	case change > 2 && relVolume < 1.0:
		return "WEAK BULLISH - Price surge NOT confirmed (low volume warning)"
	case change < -2 && relVolume > 1.5:
		return "STRONG BEARISH - Decline confirmed by high volume"
	case change < -2 && relVolume < 1.0:
		return "WEAK BEARISH - Decline on low volume (possible reversal)"
	default:
		return "NEUTRAL - No significant price/volume divergence"
	}
}

func formatBarDate(b Bar) string {
	if b.Timestamp == 0 {
		return ""
	}
	return time.Unix(b.Timestamp, 0).UTC().Format("2006-01-02")
}
