package ta

// StatementPeriod holds the line items a quality score needs from one
// reporting period. Callers map provider statement payloads into this shape.
type StatementPeriod struct {
	NetIncome          float64
	OperatingCashFlow  float64
	TotalAssets        float64
	LongTermDebt       float64
	CurrentAssets      float64
	CurrentLiabilities float64
	TotalRevenue       float64
	CostOfRevenue      float64
	RetainedEarnings   float64
	EBIT               float64
	TotalLiabilities   float64
	InterestExpense    float64
}

// FundamentalInput is everything the scores consume: the latest and prior
// reporting periods plus current market capitalization.
type FundamentalInput struct {
	Latest    StatementPeriod
	Previous  StatementPeriod
	MarketCap float64
}

// PiotroskiResult is the 0-9 quality score with its per-check breakdown.
type PiotroskiResult struct {
	Score          int      `json:"score"`
	OutOf          int      `json:"outOf"`
	Interpretation string   `json:"interpretation"`
	Details        []string `json:"details"`
	Recommendation string   `json:"recommendation"`
}

// AltmanResult is the bankruptcy-risk score with its zone classification.
type AltmanResult struct {
	Score          float64 `json:"score"`
	Zone           string  `json:"zone"`
	BankruptcyRisk string  `json:"bankruptcyRisk"`
	Interpretation string  `json:"interpretation"`
}

// FundamentalScores bundles both quality scores plus the supporting ratios.
type FundamentalScores struct {
	Piotroski PiotroskiResult `json:"piotroskiFScore"`
	Altman    AltmanResult    `json:"altmanZScore"`

	CurrentRatio     float64 `json:"currentRatio"`
	DebtToEquity     float64 `json:"debtToEquity"`
	InterestCoverage float64 `json:"interestCoverage"`
	ROAPct           float64 `json:"roaPct"`
	GrossMarginPct   float64 `json:"grossMarginPct"`

	Assessment string `json:"overallAssessment"`
}

// ScoreFundamentals computes the Piotroski F-Score and Altman Z-Score from
// two consecutive reporting periods.
func ScoreFundamentals(in FundamentalInput) FundamentalScores {
	var out FundamentalScores
	latest, prev := in.Latest, in.Previous

	check := func(pass bool, passMsg, failMsg string) {
		if pass {
			out.Piotroski.Score++
			out.Piotroski.Details = append(out.Piotroski.Details, "pass: "+passMsg)
		} else {
			out.Piotroski.Details = append(out.Piotroski.Details, "fail: "+failMsg)
		}
	}

	check(latest.NetIncome > 0, "positive net income", "negative net income")
	check(latest.OperatingCashFlow > 0, "positive operating cash flow", "negative operating cash flow")

	roa := ratio(latest.NetIncome, latest.TotalAssets)
	prevROA := ratio(prev.NetIncome, prev.TotalAssets)
	check(roa > prevROA, "ROA improving", "ROA declining")

	check(latest.OperatingCashFlow > latest.NetIncome, "cash flow exceeds net income", "cash flow below net income")
	check(latest.LongTermDebt < prev.LongTermDebt, "long-term debt decreasing", "long-term debt increasing")

	currentRatio := ratio(latest.CurrentAssets, latest.CurrentLiabilities)
	prevCurrentRatio := ratio(prev.CurrentAssets, prev.CurrentLiabilities)
	check(currentRatio > prevCurrentRatio, "current ratio improving", "current ratio declining")

	// Share count history is not available from the statement payloads, so
	// the dilution check passes by default like the source data allows.
	check(true, "no dilution (assumed)", "")

	grossMargin := marginOf(latest)
	check(grossMargin > marginOf(prev), "gross margin improving", "gross margin declining")

	turnover := ratio(latest.TotalRevenue, latest.TotalAssets)
	prevTurnover := ratio(prev.TotalRevenue, prev.TotalAssets)
	check(turnover > prevTurnover, "asset turnover improving", "asset turnover declining")

	out.Piotroski.OutOf = 9
	switch {
	case out.Piotroski.Score >= 7:
		out.Piotroski.Interpretation = "EXCELLENT - Strong fundamentals"
		out.Piotroski.Recommendation = "BUY candidate"
	case out.Piotroski.Score >= 5:
		out.Piotroski.Interpretation = "GOOD - Decent fundamentals"
		out.Piotroski.Recommendation = "NEUTRAL"
	case out.Piotroski.Score >= 3:
		out.Piotroski.Interpretation = "WEAK - Questionable fundamentals"
		out.Piotroski.Recommendation = "NEUTRAL"
	default:
		out.Piotroski.Interpretation = "POOR - Likely value trap"
		out.Piotroski.Recommendation = "AVOID"
	}

	workingCapital := latest.CurrentAssets - latest.CurrentLiabilities
	x1 := ratio(workingCapital, latest.TotalAssets)
	x2 := ratio(latest.RetainedEarnings, latest.TotalAssets)
	x3 := ratio(latest.EBIT, latest.TotalAssets)
	x4 := ratio(in.MarketCap, latest.TotalLiabilities)
	x5 := ratio(latest.TotalRevenue, latest.TotalAssets)
	out.Altman.Score = 1.2*x1 + 1.4*x2 + 3.3*x3 + 0.6*x4 + 1.0*x5

	switch {
	case out.Altman.Score > 2.99:
		out.Altman.Zone = "SAFE ZONE"
		out.Altman.BankruptcyRisk = "Low"
		out.Altman.Interpretation = "Financially strong"
	case out.Altman.Score > 1.81:
		out.Altman.Zone = "GREY ZONE"
		out.Altman.BankruptcyRisk = "Medium"
		out.Altman.Interpretation = "Caution advised"
	default:
		out.Altman.Zone = "DISTRESS ZONE"
		out.Altman.BankruptcyRisk = "High"
		out.Altman.Interpretation = "High distress - avoid"
	}

	out.CurrentRatio = currentRatio
	equity := latest.TotalAssets - latest.TotalLiabilities
	out.DebtToEquity = ratio(latest.TotalLiabilities, equity)
	if latest.InterestExpense != 0 {
		out.InterestCoverage = latest.EBIT / latest.InterestExpense
	}
	out.ROAPct = roa * 100
	out.GrossMarginPct = grossMargin * 100

	switch {
	case out.Piotroski.Score >= 7 && out.Altman.Score > 2.99:
		out.Assessment = "STRONG BUY candidate"
	case out.Piotroski.Score >= 5 && out.Altman.Score > 2.99:
		out.Assessment = "Quality company"
	case out.Piotroski.Score >= 3 || out.Altman.Score > 1.81:
		out.Assessment = "Proceed with caution"
	default:
		out.Assessment = "AVOID - Poor fundamentals"
	}
	return out
}

func marginOf(p StatementPeriod) float64 {
	if p.TotalRevenue == 0 {
		return 0
	}
	return (p.TotalRevenue - p.CostOfRevenue) / p.TotalRevenue
}

func ratio(num, denom float64) float64 {
	if denom == 0 {
		return 0
	}
	return num / denom
}
