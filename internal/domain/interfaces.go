package domain

import "context"

// Exchange is the generic, feature-limited connection shared by every
// supported venue. Serialization, authentication and transport are owned
// by the connection; the trading service only normalizes parameters.
type Exchange interface {
	Name() string

	GetSupportedSymbols(ctx context.Context) ([]CurrencyPair, error)

	GetAccountInfo(ctx context.Context) (*AccountInfo, error)

	GetTicker(ctx context.Context, pair CurrencyPair) (*Ticker, error)
	GetTickers(ctx context.Context) ([]Ticker, error)

	PlaceLimitOrder(ctx context.Context, spec LimitOrderSpec) (string, error)
	PlaceMarketOrder(ctx context.Context, spec MarketOrderSpec) (string, error)
	PlaceStopOrder(ctx context.Context, spec StopOrderSpec) (string, error)
}

// DerivativesExchange is the richer, venue-specific connection: it takes
// flat symbols and raw wire parameters, supports execution instructions,
// native bulk submission and direct leverage control.
type DerivativesExchange interface {
	Exchange

	GetActiveTickers(ctx context.Context) ([]InstrumentTicker, error)

	PlaceRawLimitOrder(ctx context.Context, symbol string, quantity, price float64, side, clOrdID, execInst string) (*RawOrder, error)
	PlaceRawMarketOrder(ctx context.Context, symbol string, quantity float64, side, execInst string) (*RawOrder, error)
	PlaceRawStopOrder(ctx context.Context, symbol string, quantity, stopPrice float64, side, execInst string) (*RawOrder, error)
	PlaceOrderBulk(ctx context.Context, commands []PlaceOrderCommand) ([]RawOrder, error)

	UpdateLeveragePosition(ctx context.Context, symbol string, leverage float64) error
}
