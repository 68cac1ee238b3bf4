package yahoo

import "encoding/json"

// apiError is the error object Yahoo embeds in every envelope.
type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// ChartResponse is the envelope of the v8 chart endpoint. Chart is a pointer
// so a payload missing the key is distinguishable from an empty result.
type ChartResponse struct {
	Chart *Chart `json:"chart"`
}

type Chart struct {
	Result []ChartResult `json:"result"`
	Error  *apiError     `json:"error"`
}

type ChartResult struct {
	Meta       ChartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators Indicators `json:"indicators"`
}

type ChartMeta struct {
	Currency           string  `json:"currency"`
	Symbol             string  `json:"symbol"`
	ExchangeName       string  `json:"exchangeName"`
	InstrumentType     string  `json:"instrumentType"`
	RegularMarketPrice float64 `json:"regularMarketPrice"`
	ChartPreviousClose float64 `json:"chartPreviousClose"`
	Range              string  `json:"range"`
	Granularity        string  `json:"dataGranularity"`
}

type Indicators struct {
	Quote    []QuoteBlock    `json:"quote"`
	AdjClose []AdjCloseBlock `json:"adjclose"`
}

// QuoteBlock holds parallel OHLCV arrays aligned with ChartResult.Timestamp.
// Entries can be null for halted sessions, hence the pointer elements.
type QuoteBlock struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*float64 `json:"volume"`
}

type AdjCloseBlock struct {
	AdjClose []*float64 `json:"adjclose"`
}

// Bar is one complete OHLCV observation extracted from a chart result.
type Bar struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Bars flattens the parallel chart arrays into per-timestamp bars, skipping
// rows with null fields so downstream math never sees holes.
func (r *ChartResult) Bars() []Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	bars := make([]Bar, 0, len(r.Timestamp))
	for i := range r.Timestamp {
		if i >= len(q.Open) || i >= len(q.High) || i >= len(q.Low) || i >= len(q.Close) || i >= len(q.Volume) {
			break
		}
		if q.Open[i] == nil || q.High[i] == nil || q.Low[i] == nil || q.Close[i] == nil || q.Volume[i] == nil {
			continue
		}
		bars = append(bars, Bar{
			Timestamp: r.Timestamp[i],
			Open:      *q.Open[i],
			High:      *q.High[i],
			Low:       *q.Low[i],
			Close:     *q.Close[i],
			Volume:    *q.Volume[i],
		})
	}
	return bars
}

// QuoteSummaryResponse is the envelope of the v10 quoteSummary endpoint.
type QuoteSummaryResponse struct {
	QuoteSummary *QuoteSummary `json:"quoteSummary"`
}

type QuoteSummary struct {
	Result []ModuleSet `json:"result"`
	Error  *apiError   `json:"error"`
}

// ModuleSet maps module names (price, summaryDetail, ...) to their raw
// payloads. The payloads vary widely per module and are passed through
// unchanged.
type ModuleSet map[string]json.RawMessage

// MoversResponse is the envelope of the predefined screener endpoint.
type MoversResponse struct {
	Finance *ScreenerFinance `json:"finance"`
}

type ScreenerFinance struct {
	Result []ScreenerResult `json:"result"`
	Error  *apiError        `json:"error"`
}

type ScreenerResult struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Count       int          `json:"count"`
	Total       int          `json:"total"`
	Quotes      []MoverQuote `json:"quotes"`
}

type MoverQuote struct {
	Symbol                     string  `json:"symbol"`
	ShortName                  string  `json:"shortName"`
	RegularMarketPrice         float64 `json:"regularMarketPrice"`
	RegularMarketChange        float64 `json:"regularMarketChange"`
	RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
	RegularMarketVolume        float64 `json:"regularMarketVolume"`
	MarketCap                  float64 `json:"marketCap"`
}

// OptionsResponse is the envelope of the v7 options endpoint.
type OptionsResponse struct {
	OptionChain *OptionChain `json:"optionChain"`
}

type OptionChain struct {
	Result []OptionChainResult `json:"result"`
	Error  *apiError           `json:"error"`
}

type OptionChainResult struct {
	UnderlyingSymbol string         `json:"underlyingSymbol"`
	ExpirationDates  []int64        `json:"expirationDates"`
	Strikes          []float64      `json:"strikes"`
	Options          []OptionExpiry `json:"options"`
}

type OptionExpiry struct {
	ExpirationDate int64            `json:"expirationDate"`
	Calls          []OptionContract `json:"calls"`
	Puts           []OptionContract `json:"puts"`
}

type OptionContract struct {
	ContractSymbol    string  `json:"contractSymbol"`
	Strike            float64 `json:"strike"`
	LastPrice         float64 `json:"lastPrice"`
	Change            float64 `json:"change"`
	PercentChange     float64 `json:"percentChange"`
	Volume            float64 `json:"volume"`
	OpenInterest      float64 `json:"openInterest"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	ImpliedVolatility float64 `json:"impliedVolatility"`
	InTheMoney        bool    `json:"inTheMoney"`
	Expiration        int64   `json:"expiration"`
}
