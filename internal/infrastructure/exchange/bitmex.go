package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
)

const (
	BitmexBaseURL = "https://www.bitmex.com"
	BitmexWSURL   = "wss://ws.bitmex.com/realtime"

	// BitmexCrossLeverage selects cross margin when passed to
	// UpdateLeveragePosition.
	BitmexCrossLeverage = 0.0
)

// BitmexAdapter implements domain.DerivativesExchange over the BitMEX
// v1 REST API. Wire serialization and authentication live here; callers
// above only see domain types.
type BitmexAdapter struct {
	apiKey    string
	apiSecret string
	client    *resty.Client

	ws *instrumentStream
}

func NewBitmexAdapter(apiKey, apiSecret, baseURL, wsURL string) *BitmexAdapter {
	if baseURL == "" {
		baseURL = BitmexBaseURL
	}
	if wsURL == "" {
		wsURL = BitmexWSURL
	}
	return &BitmexAdapter{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second),
		ws: newInstrumentStream(wsURL),
	}
}

func (b *BitmexAdapter) Name() string { return "BitMEX" }

// GetSupportedSymbols lists the pairs of all active instruments.
// Instruments whose symbol defeats the lexical pair heuristic are
// skipped.
func (b *BitmexAdapter) GetSupportedSymbols(ctx context.Context) ([]domain.CurrencyPair, error) {
	active, err := b.GetActiveTickers(ctx)
	if err != nil {
		return nil, err
	}
	pairs := make([]domain.CurrencyPair, 0, len(active))
	for _, t := range active {
		pair, err := domain.PairFromSymbol(t.Symbol)
		if err != nil {
			continue
		}
		pairs = append(pairs, pair)
	}
	return pairs, nil
}

// --- REST plumbing ---

// sign computes the request signature over verb + path(+query) +
// expires + body.
func (b *BitmexAdapter) sign(verb, path string, expires int64, body []byte) string {
	h := hmac.New(sha256.New, []byte(b.apiSecret))
	fmt.Fprintf(h, "%s%s%d%s", verb, path, expires, body)
	return hex.EncodeToString(h.Sum(nil))
}

func (b *BitmexAdapter) do(ctx context.Context, verb, path string, query url.Values, payload, out interface{}) error {
	fullPath := path
	if len(query) > 0 {
		fullPath = path + "?" + query.Encode()
	}

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	expires := time.Now().Add(time.Minute).Unix()

	req := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("api-key", b.apiKey).
		SetHeader("api-expires", strconv.FormatInt(expires, 10)).
		SetHeader("api-signature", b.sign(verb, fullPath, expires, body))
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}

	resp, err := req.Execute(verb, fullPath)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("bitmex %s %s: %s: %s", verb, path, resp.Status(), resp.Body())
	}
	return nil
}

// --- wire records ---

type bitmexInstrument struct {
	Symbol    string    `json:"symbol"`
	AskPrice  float64   `json:"askPrice"`
	BidPrice  float64   `json:"bidPrice"`
	HighPrice float64   `json:"highPrice"`
	LowPrice  float64   `json:"lowPrice"`
	LastPrice float64   `json:"lastPrice"`
	OpenValue float64   `json:"openValue"`
	Volume    float64   `json:"volume"`
	VWAP      float64   `json:"vwap"`
	Timestamp time.Time `json:"timestamp"`
}

type bitmexOrder struct {
	OrderID   string    `json:"orderID"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     float64   `json:"price"`
	AvgPx     float64   `json:"avgPx"`
	CumQty    float64   `json:"cumQty"`
	OrdStatus string    `json:"ordStatus"`
	Timestamp time.Time `json:"timestamp"`
}

func (o bitmexOrder) toRaw() domain.RawOrder {
	return domain.RawOrder{
		ID:        o.OrderID,
		Symbol:    o.Symbol,
		Side:      o.Side,
		Price:     o.Price,
		AvgPx:     o.AvgPx,
		CumQty:    o.CumQty,
		OrdStatus: o.OrdStatus,
		Timestamp: o.Timestamp,
	}
}

// --- market data ---

func (b *BitmexAdapter) GetActiveTickers(ctx context.Context) ([]domain.InstrumentTicker, error) {
	var instruments []bitmexInstrument
	if err := b.do(ctx, "GET", "/api/v1/instrument/active", nil, nil, &instruments); err != nil {
		return nil, fmt.Errorf("get active instruments: %w", err)
	}

	tickers := make([]domain.InstrumentTicker, len(instruments))
	for i, in := range instruments {
		tickers[i] = domain.InstrumentTicker{
			Symbol:    in.Symbol,
			Ask:       in.AskPrice,
			Bid:       in.BidPrice,
			High:      in.HighPrice,
			Low:       in.LowPrice,
			Last:      in.LastPrice,
			Open:      in.OpenValue,
			Volume:    in.Volume,
			VWAP:      in.VWAP,
			Timestamp: in.Timestamp.UnixMilli(),
		}
	}
	return tickers, nil
}

func (b *BitmexAdapter) GetTicker(ctx context.Context, pair domain.CurrencyPair) (*domain.Ticker, error) {
	query := url.Values{}
	query.Set("symbol", pair.ToSymbol())
	query.Set("count", "1")

	var instruments []bitmexInstrument
	if err := b.do(ctx, "GET", "/api/v1/instrument", query, nil, &instruments); err != nil {
		return nil, fmt.Errorf("get instrument %s: %w", pair, err)
	}
	if len(instruments) == 0 {
		return nil, fmt.Errorf("instrument %s not found", pair)
	}

	in := instruments[0]
	return &domain.Ticker{
		Pair:      pair,
		Ask:       in.AskPrice,
		Bid:       in.BidPrice,
		High:      in.HighPrice,
		Low:       in.LowPrice,
		Last:      in.LastPrice,
		Open:      in.OpenValue,
		Volume:    in.Volume,
		VWAP:      in.VWAP,
		Timestamp: in.Timestamp,
	}, nil
}

func (b *BitmexAdapter) GetTickers(ctx context.Context) ([]domain.Ticker, error) {
	active, err := b.GetActiveTickers(ctx)
	if err != nil {
		return nil, err
	}

	tickers := make([]domain.Ticker, 0, len(active))
	for _, t := range active {
		pair, err := domain.PairFromSymbol(t.Symbol)
		if err != nil {
			continue
		}
		tickers = append(tickers, domain.Ticker{
			Pair:      pair,
			Ask:       t.Ask,
			Bid:       t.Bid,
			High:      t.High,
			Low:       t.Low,
			Last:      t.Last,
			Open:      t.Open,
			Volume:    t.Volume,
			VWAP:      t.VWAP,
			Timestamp: time.UnixMilli(t.Timestamp),
		})
	}
	return tickers, nil
}

// --- account ---

func (b *BitmexAdapter) GetAccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	query := url.Values{}
	query.Set("currency", "all")

	var margins []struct {
		Account         int64   `json:"account"`
		Currency        string  `json:"currency"`
		AvailableMargin float64 `json:"availableMargin"`
		WalletBalance   float64 `json:"walletBalance"`
	}
	if err := b.do(ctx, "GET", "/api/v1/user/margin", query, nil, &margins); err != nil {
		return nil, fmt.Errorf("get user margin: %w", err)
	}

	// One wallet per account id; margin rows are per currency.
	info := &domain.AccountInfo{}
	byAccount := map[int64]int{}
	for _, m := range margins {
		idx, ok := byAccount[m.Account]
		if !ok {
			info.Wallets = append(info.Wallets, domain.Wallet{
				ID:       strconv.FormatInt(m.Account, 10),
				Balances: map[string]domain.Balance{},
			})
			idx = len(info.Wallets) - 1
			byAccount[m.Account] = idx
		}
		info.Wallets[idx].Balances[m.Currency] = domain.Balance{
			Currency:  m.Currency,
			Available: m.AvailableMargin,
			Total:     m.WalletBalance,
		}
	}
	return info, nil
}

// --- trading ---

type orderPayload struct {
	Symbol   string   `json:"symbol"`
	Side     string   `json:"side"`
	OrderQty float64  `json:"orderQty"`
	Price    *float64 `json:"price,omitempty"`
	StopPx   *float64 `json:"stopPx,omitempty"`
	OrdType  string   `json:"ordType"`
	ClOrdID  string   `json:"clOrdID,omitempty"`
	ExecInst string   `json:"execInst,omitempty"`
}

func (b *BitmexAdapter) placeOrder(ctx context.Context, payload orderPayload) (*domain.RawOrder, error) {
	var order bitmexOrder
	if err := b.do(ctx, "POST", "/api/v1/order", nil, payload, &order); err != nil {
		return nil, fmt.Errorf("place %s order %s: %w", payload.OrdType, payload.Symbol, err)
	}
	raw := order.toRaw()
	return &raw, nil
}

func (b *BitmexAdapter) PlaceRawLimitOrder(ctx context.Context, symbol string, quantity, price float64, side, clOrdID, execInst string) (*domain.RawOrder, error) {
	return b.placeOrder(ctx, orderPayload{
		Symbol:   symbol,
		Side:     side,
		OrderQty: quantity,
		Price:    &price,
		OrdType:  "Limit",
		ClOrdID:  clOrdID,
		ExecInst: execInst,
	})
}

func (b *BitmexAdapter) PlaceRawMarketOrder(ctx context.Context, symbol string, quantity float64, side, execInst string) (*domain.RawOrder, error) {
	return b.placeOrder(ctx, orderPayload{
		Symbol:   symbol,
		Side:     side,
		OrderQty: quantity,
		OrdType:  "Market",
		ExecInst: execInst,
	})
}

func (b *BitmexAdapter) PlaceRawStopOrder(ctx context.Context, symbol string, quantity, stopPrice float64, side, execInst string) (*domain.RawOrder, error) {
	return b.placeOrder(ctx, orderPayload{
		Symbol:   symbol,
		Side:     side,
		OrderQty: quantity,
		StopPx:   &stopPrice,
		OrdType:  "Stop",
		ExecInst: execInst,
	})
}

func (b *BitmexAdapter) PlaceOrderBulk(ctx context.Context, commands []domain.PlaceOrderCommand) ([]domain.RawOrder, error) {
	payloads := make([]orderPayload, len(commands))
	for i, cmd := range commands {
		payloads[i] = orderPayload{
			Symbol:   cmd.Symbol,
			Side:     cmd.Side,
			OrderQty: float64(cmd.Quantity),
			Price:    cmd.Price,
			StopPx:   cmd.StopPx,
			OrdType:  cmd.OrdType,
			ClOrdID:  cmd.ClOrdID,
			ExecInst: cmd.ExecInst,
		}
	}

	var orders []bitmexOrder
	body := map[string]interface{}{"orders": payloads}
	if err := b.do(ctx, "POST", "/api/v1/order/bulk", nil, body, &orders); err != nil {
		return nil, fmt.Errorf("place bulk orders: %w", err)
	}

	raws := make([]domain.RawOrder, len(orders))
	for i, o := range orders {
		raws[i] = o.toRaw()
	}
	return raws, nil
}

// --- generic order specs, delegated to the raw endpoints ---

func (b *BitmexAdapter) PlaceLimitOrder(ctx context.Context, spec domain.LimitOrderSpec) (string, error) {
	order, err := b.PlaceRawLimitOrder(ctx, spec.Pair.ToSymbol(), spec.Amount, spec.Price, spec.Side.Label(), "", "")
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (b *BitmexAdapter) PlaceMarketOrder(ctx context.Context, spec domain.MarketOrderSpec) (string, error) {
	order, err := b.PlaceRawMarketOrder(ctx, spec.Pair.ToSymbol(), spec.Amount, spec.Side.Label(), "")
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (b *BitmexAdapter) PlaceStopOrder(ctx context.Context, spec domain.StopOrderSpec) (string, error) {
	order, err := b.PlaceRawStopOrder(ctx, spec.Pair.ToSymbol(), spec.Amount, spec.StopPrice, spec.Side.Label(), "")
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

// --- leverage ---

func (b *BitmexAdapter) UpdateLeveragePosition(ctx context.Context, symbol string, leverage float64) error {
	payload := map[string]interface{}{
		"symbol":   symbol,
		"leverage": leverage,
	}
	if err := b.do(ctx, "POST", "/api/v1/position/leverage", nil, payload, nil); err != nil {
		return fmt.Errorf("update leverage %s: %w", symbol, err)
	}
	return nil
}

// --- realtime ---

// SubscribeInstruments opens the realtime instrument stream for the
// given symbols; updates fan out to callbacks registered with
// OnInstrumentUpdate.
func (b *BitmexAdapter) SubscribeInstruments(symbols []string) error {
	return b.ws.subscribe(symbols)
}

func (b *BitmexAdapter) OnInstrumentUpdate(cb func(symbol string, lastPrice float64)) {
	b.ws.onUpdate(cb)
}

func (b *BitmexAdapter) CloseStream() error {
	return b.ws.close()
}
