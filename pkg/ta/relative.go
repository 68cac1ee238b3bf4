package ta

// RelativeStrengthReport compares a symbol's return against a benchmark
// over the same span.
type RelativeStrengthReport struct {
	Score              int     `json:"rsScore"`
	Trend              string  `json:"rsTrend"`
	Classification     string  `json:"classification"`
	OutperformancePct  float64 `json:"outperformancePct"`
	StockReturnPct     float64 `json:"stockReturnPct"`
	BenchmarkReturnPct float64 `json:"benchmarkReturnPct"`
	Recommendation     string  `json:"recommendation"`
}

// RelativeStrength computes the IBD-style relative strength score from two
// aligned close series. The score maps outperformance to 0-99; the trend is
// the slope sign of the relative return over the last 20 observations.
func RelativeStrength(stockCloses, benchCloses []float64) RelativeStrengthReport {
	var r RelativeStrengthReport
	n := len(stockCloses)
	if len(benchCloses) < n {
		n = len(benchCloses)
	}
	if n < 2 {
		return r
	}
	stock := stockCloses[len(stockCloses)-n:]
	bench := benchCloses[len(benchCloses)-n:]

	relative := make([]float64, n)
	for i := 0; i < n; i++ {
		stockRet := (stock[i]/stock[0] - 1) * 100
		benchRet := (bench[i]/bench[0] - 1) * 100
		relative[i] = stockRet - benchRet
	}
	r.StockReturnPct = (stock[n-1]/stock[0] - 1) * 100
	r.BenchmarkReturnPct = (bench[n-1]/bench[0] - 1) * 100
	r.OutperformancePct = relative[n-1]

	tail := 20
	if tail > n {
		tail = n
	}
	r.Trend = "Deteriorating"
	if slope(relative[n-tail:]) > 0 {
		r.Trend = "Improving"
	}

	r.Score = rsScore(r.OutperformancePct)

	switch {
	case r.Score >= 90:
		r.Classification = "EXCEPTIONAL LEADER"
	case r.Score >= 80:
		r.Classification = "STRONG LEADER"
	case r.Score >= 70:
		r.Classification = "LEADER"
	case r.Score >= 60:
		r.Classification = "MARKET PERFORMER"
	case r.Score >= 40:
		r.Classification = "LAGGARD"
	default:
		r.Classification = "WEAK LAGGARD"
	}

	switch {
	case r.Score >= 70 && r.Trend == "Improving":
		r.Recommendation = "BUY - Strong leader with improving RS"
	case r.Score >= 70:
		r.Recommendation = "HOLD - Leader but RS deteriorating"
	case r.Score >= 50:
		r.Recommendation = "NEUTRAL - Wait for RS improvement"
	default:
		r.Recommendation = "AVOID - Weak relative strength"
	}
	return r
}

func rsScore(outperformance float64) int {
	switch {
	case outperformance > 20:
		return 99
	case outperformance > 15:
		return 95
	case outperformance > 10:
		return 90
	case outperformance > 7:
		return 85
	case outperformance > 5:
		return 80
	case outperformance > 3:
		return 75
	case outperformance > 1:
		return 70
	case outperformance > 0:
		return 60
	case outperformance > -2:
		return 50
	case outperformance > -5:
		return 40
	case outperformance > -10:
		return 30
	default:
		return 20
	}
}

// slope is the least-squares slope of a series over its index.
func slope(data []float64) float64 {
	n := float64(len(data))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range data {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
