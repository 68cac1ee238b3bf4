package tools

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finbridge/investor-agent/pkg/errors"
)

func raw(v float64) map[string]any {
	return map[string]any{"raw": v}
}

// statementsJSON builds a quoteSummary payload with two annual periods for
// a company that improves on every Piotroski check year over year.
func statementsJSON() map[string]any {
	latestIncome := map[string]any{
		"endDate":         raw(1703980800), // 2023-12-31
		"totalRevenue":    raw(1000),
		"costOfRevenue":   raw(400),
		"netIncome":       raw(100),
		"ebit":            raw(200),
		"interestExpense": raw(20),
	}
	previousIncome := map[string]any{
		"endDate":         raw(1672444800),
		"totalRevenue":    raw(900),
		"costOfRevenue":   raw(420),
		"netIncome":       raw(50),
		"ebit":            raw(120),
		"interestExpense": raw(25),
	}
	latestBalance := map[string]any{
		"totalAssets":             raw(1000),
		"totalCurrentAssets":      raw(500),
		"totalCurrentLiabilities": raw(200),
		"longTermDebt":            raw(100),
		"retainedEarnings":        raw(300),
		"totalLiab":               raw(400),
	}
	previousBalance := map[string]any{
		"totalAssets":             raw(1100),
		"totalCurrentAssets":      raw(400),
		"totalCurrentLiabilities": raw(250),
		"longTermDebt":            raw(150),
		"retainedEarnings":        raw(250),
		"totalLiab":               raw(500),
	}
	return map[string]any{
		"quoteSummary": map[string]any{
			"result": []map[string]any{{
				"incomeStatementHistory": map[string]any{
					"incomeStatementHistory": []any{latestIncome, previousIncome},
				},
				"balanceSheetHistory": map[string]any{
					"balanceSheetStatements": []any{latestBalance, previousBalance},
				},
				"cashflowStatementHistory": map[string]any{
					"cashflowStatements": []any{
						map[string]any{"totalCashFromOperatingActivities": raw(150)},
						map[string]any{"totalCashFromOperatingActivities": raw(80)},
					},
				},
			}},
			"error": nil,
		},
	}
}

func priceJSON() map[string]any {
	return map[string]any{
		"quoteSummary": map[string]any{
			"result": []map[string]any{{
				"price": map[string]any{"marketCap": raw(2000), "regularMarketPrice": raw(185)},
			}},
			"error": nil,
		},
	}
}

func fundamentalsHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t.Helper()
		modules := r.URL.Query().Get("modules")
		switch {
		case r.URL.Path == "/v10/finance/quoteSummary/AAPL" && modules == "incomeStatementHistory,balanceSheetHistory,cashflowStatementHistory":
			json.NewEncoder(w).Encode(statementsJSON())
		case r.URL.Path == "/v10/finance/quoteSummary/AAPL":
			json.NewEncoder(w).Encode(priceJSON())
		default:
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
			http.NotFound(w, r)
		}
	}
}

func TestFundamentalScores(t *testing.T) {
	s := newTestServer(t, fundamentalsHandler(t))

	out, err := s.Call(context.Background(), "get_fundamental_scores", json.RawMessage(`{"ticker":"aapl"}`))
	require.NoError(t, err)

	scores, ok := out.(*fundamentalOut)
	require.True(t, ok, "unexpected result type %T", out)

	assert.Equal(t, "AAPL", scores.Ticker)
	assert.Equal(t, "2023-12-31", scores.PeriodEnd)
	assert.Equal(t, 9, scores.Piotroski.Score, "details: %v", scores.Piotroski.Details)
	assert.Equal(t, "SAFE ZONE", scores.Altman.Zone)
	assert.InDelta(t, 2.5, scores.CurrentRatio, 0.001)
}

func TestFundamentalScores_OnePeriod(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		payload := statementsJSON()
		result := payload["quoteSummary"].(map[string]any)["result"].([]map[string]any)[0]
		income := result["incomeStatementHistory"].(map[string]any)
		income["incomeStatementHistory"] = income["incomeStatementHistory"].([]any)[:1]
		json.NewEncoder(w).Encode(payload)
	})

	_, err := s.Call(context.Background(), "get_fundamental_scores", json.RawMessage(`{"ticker":"AAPL"}`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUpstreamData, errors.GetCode(err))
}

func TestFundamentalScores_MissingModule(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"quoteSummary": map[string]any{
				"result": []map[string]any{{}},
				"error":  nil,
			},
		})
	})

	_, err := s.Call(context.Background(), "get_fundamental_scores", json.RawMessage(`{"ticker":"AAPL"}`))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUpstreamData, errors.GetCode(err))
}
