package tools

import (
	"context"

	"github.com/finbridge/investor-agent/pkg/providers/questrade"
)

type accountIn struct {
	Account string `json:"account" jsonschema:"Questrade account number"`
}

type accountRangeIn struct {
	Account   string `json:"account" jsonschema:"Questrade account number"`
	StartTime string `json:"startTime,omitempty" jsonschema:"range start in ISO-8601 (e.g. 2024-01-01T00:00:00-05:00)"`
	EndTime   string `json:"endTime,omitempty" jsonschema:"range end in ISO-8601"`
}

type ordersIn struct {
	Account     string `json:"account" jsonschema:"Questrade account number"`
	StartTime   string `json:"startTime,omitempty" jsonschema:"range start in ISO-8601"`
	EndTime     string `json:"endTime,omitempty" jsonschema:"range end in ISO-8601"`
	StateFilter string `json:"stateFilter,omitempty" jsonschema:"order state: All, Open, Closed (default: All)"`
}

type orderIn struct {
	Account string `json:"account" jsonschema:"Questrade account number"`
	OrderID string `json:"orderId" jsonschema:"Questrade order ID"`
}

type symbolIn struct {
	Symbol string `json:"symbol" jsonschema:"instrument symbol (e.g. AAPL, XIU.TO)"`
}

type symbolSearchIn struct {
	Query  string `json:"query" jsonschema:"symbol or company name prefix"`
	Offset int    `json:"offset,omitempty" jsonschema:"pagination offset into the result list"`
}

type candlesIn struct {
	Symbol    string `json:"symbol" jsonschema:"instrument symbol"`
	Interval  string `json:"interval,omitempty" jsonschema:"candle interval: OneMinute ... OneDay, OneWeek, OneMonth, OneYear (default: OneDay)"`
	StartTime string `json:"startTime" jsonschema:"range start in ISO-8601"`
	EndTime   string `json:"endTime" jsonschema:"range end in ISO-8601"`
}

type optionQuotesIn struct {
	OptionIDs []int `json:"optionIds" jsonschema:"Questrade option symbol IDs (max 100)"`
}

func (s *Server) registerBrokerage() {
	addTool(s, "brokerage_accounts",
		"Questrade accounts available to the authenticated user. Requires QUESTRADE_REFRESH_TOKEN or an existing token file.",
		func(ctx context.Context, _ struct{}) (*questrade.AccountsResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Accounts(ctx)
		})

	addTool(s, "brokerage_positions",
		"Open positions in a Questrade account.",
		func(ctx context.Context, in accountIn) (*questrade.PositionsResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Positions(ctx, in.Account)
		})

	addTool(s, "brokerage_balances",
		"Cash, market value, and buying power per currency for a Questrade account.",
		func(ctx context.Context, in accountIn) (*questrade.BalancesResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Balances(ctx, in.Account)
		})

	addTool(s, "brokerage_orders",
		"Orders in a Questrade account, optionally filtered by state and time range.",
		func(ctx context.Context, in ordersIn) (*questrade.OrdersResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Orders(ctx, in.Account, in.StartTime, in.EndTime, in.StateFilter)
		})

	addTool(s, "brokerage_order",
		"A single order by ID in a Questrade account.",
		func(ctx context.Context, in orderIn) (*questrade.OrdersResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Order(ctx, in.Account, in.OrderID)
		})

	addTool(s, "brokerage_executions",
		"Trade executions in a Questrade account over a time range.",
		func(ctx context.Context, in accountRangeIn) (*questrade.ExecutionsResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Executions(ctx, in.Account, in.StartTime, in.EndTime)
		})

	addTool(s, "brokerage_activities",
		"Account activities (trades, dividends, deposits, withdrawals) over a time range. Both startTime and endTime are required.",
		func(ctx context.Context, in accountRangeIn) (*questrade.ActivitiesResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Activities(ctx, in.Account, in.StartTime, in.EndTime)
		})

	addTool(s, "brokerage_quote",
		"Level 1 market quote for a symbol through Questrade.",
		func(ctx context.Context, in symbolIn) (*questrade.QuotesResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.QuoteBySymbol(ctx, in.Symbol)
		})

	addTool(s, "brokerage_candles",
		"Historical OHLCV candles for a symbol through Questrade.",
		func(ctx context.Context, in candlesIn) (*questrade.CandlesResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			interval := in.Interval
			if interval == "" {
				interval = "OneDay"
			}
			symbolID, err := client.ResolveSymbol(ctx, in.Symbol)
			if err != nil {
				return nil, err
			}
			return client.Candles(ctx, symbolID, interval, in.StartTime, in.EndTime)
		})

	addTool(s, "brokerage_search_symbols",
		"Search Questrade instruments by symbol or company name prefix.",
		func(ctx context.Context, in symbolSearchIn) (*questrade.SymbolSearchResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.SearchSymbols(ctx, in.Query, in.Offset)
		})

	addTool(s, "brokerage_symbol_info",
		"Detailed instrument data for a symbol through Questrade.",
		func(ctx context.Context, in symbolIn) (*questrade.SymbolsResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.SymbolInfo(ctx, []string{in.Symbol})
		})

	addTool(s, "brokerage_markets",
		"Market metadata from Questrade: trading hours, venues, and quote delay.",
		func(ctx context.Context, _ struct{}) (*questrade.MarketsResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.Markets(ctx)
		})

	addTool(s, "brokerage_options_chain",
		"Full option chain for an underlying symbol through Questrade.",
		func(ctx context.Context, in symbolIn) (*questrade.OptionChainResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			symbolID, err := client.ResolveSymbol(ctx, in.Symbol)
			if err != nil {
				return nil, err
			}
			return client.OptionsChain(ctx, symbolID)
		})

	addTool(s, "brokerage_option_quotes",
		"Level 1 quotes with greeks for specific Questrade option IDs.",
		func(ctx context.Context, in optionQuotesIn) (*questrade.OptionQuotesResponse, error) {
			client, err := s.questrade()
			if err != nil {
				return nil, err
			}
			return client.OptionQuotes(ctx, in.OptionIDs)
		})
}
