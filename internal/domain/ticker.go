package domain

import "time"

// Ticker is the normalized market snapshot returned by the facade,
// regardless of which backend protocol produced it.
type Ticker struct {
	Pair      CurrencyPair
	Ask       float64
	Bid       float64
	High      float64
	Low       float64
	Last      float64
	Open      float64
	Volume    float64
	VWAP      float64
	Timestamp time.Time
}

// InstrumentTicker is the richer per-instrument record reported by the
// derivatives connection's active-instruments feed.
type InstrumentTicker struct {
	Symbol    string
	Ask       float64
	Bid       float64
	High      float64
	Low       float64
	Last      float64
	Open      float64
	Volume    float64
	VWAP      float64
	Timestamp int64 // milliseconds since epoch
}
