package domain

import "time"

type Side string

const (
	SideBid Side = "BID"
	SideAsk Side = "ASK"
)

// Label returns the wire-format side used by the derivatives protocol.
func (s Side) Label() string {
	if s == SideBid {
		return "Buy"
	}
	return "Sell"
}

// OrderType selects which price fields a bulk ladder order populates.
type OrderType string

const (
	OrderTypeLimit     OrderType = "LIMIT"
	OrderTypeStop      OrderType = "STOP"
	OrderTypeStopLimit OrderType = "STOP_LIMIT"
)

// BulkDistribution selects the quantity-generation policy for a ladder.
type BulkDistribution string

const (
	// DistributionFlat splits the total into identical per-order sizes.
	DistributionFlat BulkDistribution = "FLAT"
	// DistributionMultMin grows each order geometrically from the minimum.
	DistributionMultMin BulkDistribution = "MULT_MIN"
	// DistributionDivAmount shrinks each order geometrically from the total.
	DistributionDivAmount BulkDistribution = "DIV_AMOUNT"
)

type OrderStatus string

const (
	StatusNew             OrderStatus = "NEW"
	StatusFilled          OrderStatus = "FILLED"
	StatusCanceled        OrderStatus = "CANCELED"
	StatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	StatusRejected        OrderStatus = "REJECTED"
	StatusReplaced        OrderStatus = "REPLACED"
	StatusUnknown         OrderStatus = "UNKNOWN"
)

// LadderOrder is one rung of a bulk ladder: a quantity resting at an
// interpolated, tick-quantized price, carrying the metadata the
// derivatives protocol needs to submit it.
type LadderOrder struct {
	Symbol   string
	Side     string // wire label, "Buy" or "Sell"
	Quantity int
	Price    float64
	ClOrdID  string // optional client order id, empty when untagged
	ExecInst string // comma-joined execution instructions
}

// Order is the normalized result of a placement, independent of which
// backend protocol produced it.
type Order struct {
	ID               string
	Pair             CurrencyPair
	Side             Side
	Price            float64
	AveragePrice     float64
	CumulativeAmount float64
	Status           OrderStatus
	Timestamp        time.Time
}

// Generic-protocol order specifications. The generic connection owns
// serialization; these carry only the normalized parameters.

type LimitOrderSpec struct {
	Side   Side
	Pair   CurrencyPair
	Amount float64
	Price  float64
}

type MarketOrderSpec struct {
	Side   Side
	Pair   CurrencyPair
	Amount float64
}

type StopOrderSpec struct {
	Side      Side
	Pair      CurrencyPair
	Amount    float64
	StopPrice float64
}

// PlaceOrderCommand is one entry of a derivatives bulk submission.
type PlaceOrderCommand struct {
	Symbol   string
	Side     string
	Quantity int
	Price    *float64
	StopPx   *float64
	OrdType  string // "Limit" or "Stop"
	ClOrdID  string
	ExecInst string
}

// RawOrder is an order record as reported by the derivatives connection,
// before status normalization.
type RawOrder struct {
	ID        string
	Symbol    string
	Side      string
	Price     float64
	AvgPx     float64
	CumQty    float64
	OrdStatus string
	Timestamp time.Time
}
