package tools

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/finbridge/investor-agent/pkg/errors"
	"github.com/finbridge/investor-agent/pkg/providers/yahoo"
	"github.com/finbridge/investor-agent/pkg/ta"
)

// rawValue is the {"raw": N, "fmt": "..."} wrapper the quoteSummary
// statement modules put around every numeric line item. Missing items
// decode to a nil pointer and read as zero.
type rawValue struct {
	Raw float64 `json:"raw"`
}

func (v *rawValue) float() float64 {
	if v == nil {
		return 0
	}
	return v.Raw
}

type incomeStatement struct {
	EndDate         *rawValue `json:"endDate"`
	TotalRevenue    *rawValue `json:"totalRevenue"`
	CostOfRevenue   *rawValue `json:"costOfRevenue"`
	NetIncome       *rawValue `json:"netIncome"`
	EBIT            *rawValue `json:"ebit"`
	InterestExpense *rawValue `json:"interestExpense"`
}

type balanceSheet struct {
	TotalAssets             *rawValue `json:"totalAssets"`
	TotalCurrentAssets      *rawValue `json:"totalCurrentAssets"`
	TotalCurrentLiabilities *rawValue `json:"totalCurrentLiabilities"`
	LongTermDebt            *rawValue `json:"longTermDebt"`
	RetainedEarnings        *rawValue `json:"retainedEarnings"`
	TotalLiabilities        *rawValue `json:"totalLiab"`
}

type cashflowStatement struct {
	OperatingCashFlow *rawValue `json:"totalCashFromOperatingActivities"`
}

type fundamentalOut struct {
	Ticker    string `json:"ticker"`
	PeriodEnd string `json:"periodEnd,omitempty"`
	ta.FundamentalScores
}

func (s *Server) registerFundamental() {
	addTool(s, "get_fundamental_scores",
		"Fundamental quality scores for a ticker: Piotroski F-Score with its nine-check breakdown, Altman Z-Score with zone, and supporting health ratios. Built from the two most recent annual reports.",
		func(ctx context.Context, in tickerIn) (*fundamentalOut, error) {
			return s.fundamentalScores(ctx, in.Ticker)
		})
}

func (s *Server) fundamentalScores(ctx context.Context, ticker string) (*fundamentalOut, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	resp, err := s.yahoo.FinancialStatements(ctx, ticker, []string{"income", "balance", "cash"}, false)
	if err != nil {
		return nil, err
	}
	modules := resp.QuoteSummary.Result[0]

	income, err := decodeStatements[incomeStatement](modules, "incomeStatementHistory", "incomeStatementHistory")
	if err != nil {
		return nil, err
	}
	balance, err := decodeStatements[balanceSheet](modules, "balanceSheetHistory", "balanceSheetStatements")
	if err != nil {
		return nil, err
	}
	cash, err := decodeStatements[cashflowStatement](modules, "cashflowStatementHistory", "cashflowStatements")
	if err != nil {
		return nil, err
	}
	if len(income) < 2 || len(balance) < 2 {
		return nil, errors.New(errors.ErrCodeUpstreamData,
			"fundamental scores for %s need two annual reporting periods, got %d", symbol, min(len(income), len(balance)))
	}

	marketCap, err := s.marketCap(ctx, ticker)
	if err != nil {
		return nil, err
	}

	// Statement lists arrive newest-first.
	input := ta.FundamentalInput{
		Latest:    buildPeriod(income, balance, cash, 0),
		Previous:  buildPeriod(income, balance, cash, 1),
		MarketCap: marketCap,
	}

	out := &fundamentalOut{
		Ticker:            symbol,
		FundamentalScores: ta.ScoreFundamentals(input),
	}
	if end := income[0].EndDate.float(); end > 0 {
		out.PeriodEnd = time.Unix(int64(end), 0).UTC().Format("2006-01-02")
	}
	return out, nil
}

// buildPeriod maps the i-th statements (newest-first) onto one reporting
// period. A missing cash flow statement leaves operating cash flow at zero.
func buildPeriod(income []incomeStatement, balance []balanceSheet, cash []cashflowStatement, i int) ta.StatementPeriod {
	p := ta.StatementPeriod{
		NetIncome:          income[i].NetIncome.float(),
		TotalRevenue:       income[i].TotalRevenue.float(),
		CostOfRevenue:      income[i].CostOfRevenue.float(),
		EBIT:               income[i].EBIT.float(),
		InterestExpense:    income[i].InterestExpense.float(),
		TotalAssets:        balance[i].TotalAssets.float(),
		CurrentAssets:      balance[i].TotalCurrentAssets.float(),
		CurrentLiabilities: balance[i].TotalCurrentLiabilities.float(),
		LongTermDebt:       balance[i].LongTermDebt.float(),
		RetainedEarnings:   balance[i].RetainedEarnings.float(),
		TotalLiabilities:   balance[i].TotalLiabilities.float(),
	}
	if i < len(cash) {
		p.OperatingCashFlow = cash[i].OperatingCashFlow.float()
	}
	return p
}

func (s *Server) marketCap(ctx context.Context, ticker string) (float64, error) {
	resp, err := s.yahoo.TickerData(ctx, ticker)
	if err != nil {
		return 0, err
	}
	price, ok := resp.QuoteSummary.Result[0]["price"]
	if !ok {
		return 0, nil
	}
	var payload struct {
		MarketCap *rawValue `json:"marketCap"`
	}
	if err := json.Unmarshal(price, &payload); err != nil {
		return 0, errors.Wrap(errors.ErrCodeUpstreamData, err, "malformed price module for %s", ticker)
	}
	return payload.MarketCap.float(), nil
}

// decodeStatements pulls the statement list out of one quoteSummary module
// payload. The envelope key inside each module differs from the module name
// for balance sheets and cash flows, hence the two names.
func decodeStatements[T any](modules yahoo.ModuleSet, module, listKey string) ([]T, error) {
	raw, ok := modules[module]
	if !ok {
		return nil, errors.New(errors.ErrCodeUpstreamData, "statements response missing module %s", module)
	}
	var env map[string]json.RawMessage
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstreamData, err, "malformed %s module", module)
	}
	list, ok := env[listKey]
	if !ok {
		return nil, errors.New(errors.ErrCodeUpstreamData, "module %s missing %s list", module, listKey)
	}
	var out []T
	if err := json.Unmarshal(list, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpstreamData, err, "malformed %s list", listKey)
	}
	return out, nil
}
