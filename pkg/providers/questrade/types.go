package questrade

// Response envelopes for each API operation. The field carrying the
// operation's expected top-level key is a pointer so that a null body or a
// dropped key decodes to nil and can be rejected as an upstream data error
// before anything reaches the caller.

// Account describes one brokerage account.
type Account struct {
	Type              string `json:"type"`
	Number            string `json:"number"`
	Status            string `json:"status"`
	IsPrimary         bool   `json:"isPrimary"`
	IsBilling         bool   `json:"isBilling"`
	ClientAccountType string `json:"clientAccountType"`
}

// AccountsResponse is the envelope for the accounts operation.
type AccountsResponse struct {
	Accounts *[]Account `json:"accounts"`
	UserID   int        `json:"userId,omitempty"`
}

// Position is one open position in an account.
type Position struct {
	Symbol             string  `json:"symbol"`
	SymbolID           int     `json:"symbolId"`
	OpenQuantity       float64 `json:"openQuantity"`
	ClosedQuantity     float64 `json:"closedQuantity"`
	CurrentMarketValue float64 `json:"currentMarketValue"`
	CurrentPrice       float64 `json:"currentPrice"`
	AverageEntryPrice  float64 `json:"averageEntryPrice"`
	ClosedPnl          float64 `json:"closedPnl"`
	OpenPnl            float64 `json:"openPnl"`
	TotalCost          float64 `json:"totalCost"`
	IsRealTime         bool    `json:"isRealTime"`
	IsUnderReorg       bool    `json:"isUnderReorg"`
}

// PositionsResponse is the envelope for the positions operation.
type PositionsResponse struct {
	Positions *[]Position `json:"positions"`
}

// Balance is a cash/equity balance in one currency.
type Balance struct {
	Currency          string  `json:"currency"`
	Cash              float64 `json:"cash"`
	MarketValue       float64 `json:"marketValue"`
	TotalEquity       float64 `json:"totalEquity"`
	BuyingPower       float64 `json:"buyingPower"`
	MaintenanceExcess float64 `json:"maintenanceExcess"`
	IsRealTime        bool    `json:"isRealTime"`
}

// BalancesResponse is the envelope for the balances operation.
type BalancesResponse struct {
	PerCurrencyBalances    *[]Balance `json:"perCurrencyBalances"`
	CombinedBalances       []Balance  `json:"combinedBalances,omitempty"`
	SODPerCurrencyBalances []Balance  `json:"sodPerCurrencyBalances,omitempty"`
	SODCombinedBalances    []Balance  `json:"sodCombinedBalances,omitempty"`
}

// Quote is a level-1 market quote.
type Quote struct {
	Symbol         string  `json:"symbol"`
	SymbolID       int     `json:"symbolId"`
	Tier           string  `json:"tier,omitempty"`
	BidPrice       float64 `json:"bidPrice"`
	BidSize        int     `json:"bidSize"`
	AskPrice       float64 `json:"askPrice"`
	AskSize        int     `json:"askSize"`
	LastTradePrice float64 `json:"lastTradePrice"`
	LastTradeSize  int     `json:"lastTradeSize"`
	LastTradeTick  string  `json:"lastTradeTick,omitempty"`
	LastTradeTime  string  `json:"lastTradeTime,omitempty"`
	Volume         int64   `json:"volume"`
	OpenPrice      float64 `json:"openPrice"`
	HighPrice      float64 `json:"highPrice"`
	LowPrice       float64 `json:"lowPrice"`
	Delay          int     `json:"delay"`
	IsHalted       bool    `json:"isHalted"`
	VWAP           float64 `json:"VWAP,omitempty"`
}

// QuotesResponse is the envelope for the quote operations.
type QuotesResponse struct {
	Quotes *[]Quote `json:"quotes"`
}

// Candle is one OHLCV bar.
type Candle struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
	VWAP   float64 `json:"VWAP,omitempty"`
}

// CandlesResponse is the envelope for the candles operation.
type CandlesResponse struct {
	Candles *[]Candle `json:"candles"`
}

// SymbolSearchResult is one match from a symbol search.
type SymbolSearchResult struct {
	Symbol          string `json:"symbol"`
	SymbolID        int    `json:"symbolId"`
	Description     string `json:"description"`
	SecurityType    string `json:"securityType"`
	ListingExchange string `json:"listingExchange"`
	IsQuotable      bool   `json:"isQuotable"`
	IsTradable      bool   `json:"isTradable"`
	Currency        string `json:"currency"`
}

// SymbolSearchResponse is the envelope for the symbol search operation.
type SymbolSearchResponse struct {
	Symbols *[]SymbolSearchResult `json:"symbols"`
}

// SymbolDetail is full reference data for one symbol.
type SymbolDetail struct {
	Symbol            string  `json:"symbol"`
	SymbolID          int     `json:"symbolId"`
	Description       string  `json:"description"`
	SecurityType      string  `json:"securityType"`
	ListingExchange   string  `json:"listingExchange"`
	Currency          string  `json:"currency"`
	PrevDayClosePrice float64 `json:"prevDayClosePrice"`
	HighPrice52       float64 `json:"highPrice52"`
	LowPrice52        float64 `json:"lowPrice52"`
	AverageVol3Months int64   `json:"averageVol3Months"`
	MarketCap         float64 `json:"marketCap"`
	PE                float64 `json:"pe"`
	EPS               float64 `json:"eps"`
	Yield             float64 `json:"yield"`
	DividendDate      string  `json:"dividendDate,omitempty"`
	Dividend          float64 `json:"dividend"`
	IsQuotable        bool    `json:"isQuotable"`
	IsTradable        bool    `json:"isTradable"`
	HasOptions        bool    `json:"hasOptions"`
}

// SymbolsResponse is the envelope for the symbol info operation.
type SymbolsResponse struct {
	Symbols *[]SymbolDetail `json:"symbols"`
}

// Market describes one trading venue.
type Market struct {
	Name                 string   `json:"name"`
	TradingVenues        []string `json:"tradingVenues"`
	DefaultTradingVenue  string   `json:"defaultTradingVenue"`
	PrimaryOrderRoutes   []string `json:"primaryOrderRoutes"`
	SecondaryOrderRoutes []string `json:"secondaryOrderRoutes"`
	Currency             string   `json:"currency"`
	ExtendedStartTime    string   `json:"extendedStartTime,omitempty"`
	StartTime            string   `json:"startTime,omitempty"`
	EndTime              string   `json:"endTime,omitempty"`
	ExtendedEndTime      string   `json:"extendedEndTime,omitempty"`
}

// MarketsResponse is the envelope for the markets operation.
type MarketsResponse struct {
	Markets *[]Market `json:"markets"`
}

// Order is one account order, open or historical.
type Order struct {
	ID             int     `json:"id"`
	Symbol         string  `json:"symbol"`
	SymbolID       int     `json:"symbolId"`
	TotalQuantity  float64 `json:"totalQuantity"`
	OpenQuantity   float64 `json:"openQuantity"`
	FilledQuantity float64 `json:"filledQuantity"`
	Side           string  `json:"side"`
	OrderType      string  `json:"orderType"`
	LimitPrice     float64 `json:"limitPrice"`
	StopPrice      float64 `json:"stopPrice"`
	State          string  `json:"state"`
	CreationTime   string  `json:"creationTime,omitempty"`
	UpdateTime     string  `json:"updateTime,omitempty"`
	TimeInForce    string  `json:"timeInForce,omitempty"`
	AvgExecPrice   float64 `json:"avgExecPrice"`
	LastExecPrice  float64 `json:"lastExecPrice"`
	StrategyType   string  `json:"strategyType,omitempty"`
}

// OrdersResponse is the envelope for the orders operations.
type OrdersResponse struct {
	Orders *[]Order `json:"orders"`
}

// Execution is one fill against an account order.
type Execution struct {
	Symbol                   string  `json:"symbol"`
	SymbolID                 int     `json:"symbolId"`
	Quantity                 float64 `json:"quantity"`
	Side                     string  `json:"side"`
	Price                    float64 `json:"price"`
	ID                       int     `json:"id"`
	OrderID                  int     `json:"orderId"`
	OrderChainID             int     `json:"orderChainId"`
	ExchangeExecID           string  `json:"exchangeExecId,omitempty"`
	Timestamp                string  `json:"timestamp,omitempty"`
	Venue                    string  `json:"venue,omitempty"`
	TotalCost                float64 `json:"totalCost"`
	OrderPlacementCommission float64 `json:"orderPlacementCommission"`
	Commission               float64 `json:"commission"`
	ExecutionFee             float64 `json:"executionFee"`
	SecFee                   float64 `json:"secFee"`
}

// ExecutionsResponse is the envelope for the executions operation.
type ExecutionsResponse struct {
	Executions *[]Execution `json:"executions"`
}

// Activity is one account activity entry (dividend, trade, transfer, fee).
type Activity struct {
	TradeDate       string  `json:"tradeDate,omitempty"`
	TransactionDate string  `json:"transactionDate,omitempty"`
	SettlementDate  string  `json:"settlementDate,omitempty"`
	Action          string  `json:"action,omitempty"`
	Symbol          string  `json:"symbol,omitempty"`
	SymbolID        int     `json:"symbolId,omitempty"`
	Description     string  `json:"description,omitempty"`
	Currency        string  `json:"currency,omitempty"`
	Quantity        float64 `json:"quantity"`
	Price           float64 `json:"price"`
	GrossAmount     float64 `json:"grossAmount"`
	Commission      float64 `json:"commission"`
	NetAmount       float64 `json:"netAmount"`
	Type            string  `json:"type,omitempty"`
}

// ActivitiesResponse is the envelope for the activities operation.
type ActivitiesResponse struct {
	Activities *[]Activity `json:"activities"`
}

// ChainPerExpiryDate is the option chain for one expiry.
type ChainPerExpiryDate struct {
	ExpiryDate         string         `json:"expiryDate"`
	Description        string         `json:"description,omitempty"`
	ListingExchange    string         `json:"listingExchange,omitempty"`
	OptionExerciseType string         `json:"optionExerciseType,omitempty"`
	ChainPerRoot       []ChainPerRoot `json:"chainPerRoot,omitempty"`
}

// ChainPerRoot groups strikes under one option root.
type ChainPerRoot struct {
	OptionRoot          string                `json:"optionRoot"`
	Multiplier          int                   `json:"multiplier"`
	ChainPerStrikePrice []ChainPerStrikePrice `json:"chainPerStrikePrice,omitempty"`
}

// ChainPerStrikePrice holds call/put IDs for one strike.
type ChainPerStrikePrice struct {
	StrikePrice  float64 `json:"strikePrice"`
	CallSymbolID int     `json:"callSymbolId"`
	PutSymbolID  int     `json:"putSymbolId"`
}

// OptionChainResponse is the envelope for the options chain operation.
type OptionChainResponse struct {
	OptionChain *[]ChainPerExpiryDate `json:"optionChain"`
}

// OptionQuote is a level-1 option quote with Greeks.
type OptionQuote struct {
	Symbol         string  `json:"symbol"`
	SymbolID       int     `json:"symbolId"`
	BidPrice       float64 `json:"bidPrice"`
	BidSize        int     `json:"bidSize"`
	AskPrice       float64 `json:"askPrice"`
	AskSize        int     `json:"askSize"`
	LastTradePrice float64 `json:"lastTradePrice"`
	Volume         int64   `json:"volume"`
	OpenInterest   int64   `json:"openInterest"`
	Delta          float64 `json:"delta"`
	Gamma          float64 `json:"gamma"`
	Theta          float64 `json:"theta"`
	Vega           float64 `json:"vega"`
	Rho            float64 `json:"rho"`
	Volatility     float64 `json:"volatility"`
	IsHalted       bool    `json:"isHalted"`
	UnderlyingID   int     `json:"underlyingId,omitempty"`
	Underlying     string  `json:"underlying,omitempty"`
}

// OptionQuotesResponse is the envelope for the option quotes operation.
type OptionQuotesResponse struct {
	OptionQuotes *[]OptionQuote `json:"optionQuotes"`
}
