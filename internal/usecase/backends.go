package usecase

import (
	"context"
	"time"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
)

/*
 * Generic backend: the cross-exchange connection. No execution
 * instructions, no bulk submission, no leverage control.
 */

type genericBackend struct {
	conn domain.Exchange
}

func (b *genericBackend) placeLimitOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, price float64, postOnly, reduceOnly bool) (string, error) {
	return b.conn.PlaceLimitOrder(ctx, domain.LimitOrderSpec{
		Side:   side,
		Pair:   pair,
		Amount: amount,
		Price:  price,
	})
}

func (b *genericBackend) placeMarketOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount float64, reduceOnly bool) (string, error) {
	return b.conn.PlaceMarketOrder(ctx, domain.MarketOrderSpec{
		Side:   side,
		Pair:   pair,
		Amount: amount,
	})
}

func (b *genericBackend) placeStopOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, stopPrice float64, reduceOnly bool) (string, error) {
	return b.conn.PlaceStopOrder(ctx, domain.StopOrderSpec{
		Side:      side,
		Pair:      pair,
		Amount:    amount,
		StopPrice: stopPrice,
	})
}

func (b *genericBackend) placeBulkOrders(ctx context.Context, req BulkOrderRequest) ([]domain.Order, error) {
	return nil, domain.ErrUnsupported
}

func (b *genericBackend) updateLeverage(ctx context.Context, pair domain.CurrencyPair, leverage float64) error {
	return domain.ErrUnsupported
}

func (b *genericBackend) tickers(ctx context.Context) (map[domain.CurrencyPair]*domain.Ticker, error) {
	list, err := b.conn.GetTickers(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make(map[domain.CurrencyPair]*domain.Ticker, len(list))
	for i := range list {
		tickers[list[i].Pair] = &list[i]
	}
	return tickers, nil
}

/*
 * Derivatives backend: the venue-specific connection with raw symbol
 * placement, execution instructions, bulk submission and leverage.
 */

type derivativesBackend struct {
	conn         domain.DerivativesExchange
	tagClientIDs bool
}

func (b *derivativesBackend) placeLimitOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, price float64, postOnly, reduceOnly bool) (string, error) {
	execInst := JoinExecInstructions(postOnly, reduceOnly)
	order, err := b.conn.PlaceRawLimitOrder(ctx, pair.ToSymbol(), amount, price, side.Label(), "", execInst)
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (b *derivativesBackend) placeMarketOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount float64, reduceOnly bool) (string, error) {
	execInst := JoinExecInstructions(false, reduceOnly)
	order, err := b.conn.PlaceRawMarketOrder(ctx, pair.ToSymbol(), amount, side.Label(), execInst)
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (b *derivativesBackend) placeStopOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, stopPrice float64, reduceOnly bool) (string, error) {
	execInst := JoinExecInstructions(false, reduceOnly)
	order, err := b.conn.PlaceRawStopOrder(ctx, pair.ToSymbol(), amount, stopPrice, side.Label(), execInst)
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

func (b *derivativesBackend) placeBulkOrders(ctx context.Context, req BulkOrderRequest) ([]domain.Order, error) {
	ladder, err := BuildLadder(LadderParams{
		Pair:          req.Pair,
		Side:          req.Side,
		Amount:        req.Amount,
		MinimumAmount: req.MinimumAmount,
		PriceLow:      req.PriceLow,
		PriceHigh:     req.PriceHigh,
		Distribution:  req.Distribution,
		Parameter:     req.Parameter,
		PostOnly:      req.PostOnly,
		ReduceOnly:    req.ReduceOnly,
		Reversed:      req.Reversed,
		TagClientIDs:  b.tagClientIDs,
	})
	if err != nil {
		return nil, err
	}

	commands := make([]domain.PlaceOrderCommand, len(ladder))
	for i, o := range ladder {
		price := o.Price
		if req.Type == domain.OrderTypeStopLimit {
			// Offset the limit half a tick from the trigger, toward the
			// side where the order rests after triggering.
			if req.Side == domain.SideBid {
				price -= 0.5
			} else {
				price += 0.5
			}
		}

		cmd := domain.PlaceOrderCommand{
			Symbol:   o.Symbol,
			Side:     o.Side,
			Quantity: o.Quantity,
			Price:    &price,
			OrdType:  "Stop",
			ClOrdID:  o.ClOrdID,
			ExecInst: o.ExecInst,
		}
		if req.Type == domain.OrderTypeLimit {
			cmd.OrdType = "Limit"
		}
		if req.Type == domain.OrderTypeStop || req.Type == domain.OrderTypeStopLimit {
			stopPx := o.Price
			cmd.StopPx = &stopPx
		}
		commands[i] = cmd
	}

	raws, err := b.conn.PlaceOrderBulk(ctx, commands)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, len(raws))
	for i, raw := range raws {
		orders[i] = domain.Order{
			ID:               raw.ID,
			Pair:             req.Pair,
			Side:             req.Side,
			Price:            raw.Price,
			AveragePrice:     raw.AvgPx,
			CumulativeAmount: raw.CumQty,
			Status:           normalizeStatus(raw.OrdStatus),
			Timestamp:        raw.Timestamp,
		}
	}
	return orders, nil
}

func (b *derivativesBackend) updateLeverage(ctx context.Context, pair domain.CurrencyPair, leverage float64) error {
	return b.conn.UpdateLeveragePosition(ctx, pair.ToSymbol(), leverage)
}

func (b *derivativesBackend) tickers(ctx context.Context) (map[domain.CurrencyPair]*domain.Ticker, error) {
	active, err := b.conn.GetActiveTickers(ctx)
	if err != nil {
		return nil, err
	}
	tickers := make(map[domain.CurrencyPair]*domain.Ticker, len(active))
	for _, t := range active {
		pair, err := domain.PairFromSymbol(t.Symbol)
		if err != nil {
			continue
		}
		tickers[pair] = &domain.Ticker{
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
		}
	}
	return tickers, nil
}

// normalizeStatus maps the derivatives protocol's order-status labels
// onto the normalized enumeration.
func normalizeStatus(raw string) domain.OrderStatus {
	switch raw {
	case "New":
		return domain.StatusNew
	case "Filled":
		return domain.StatusFilled
	case "Canceled":
		return domain.StatusCanceled
	case "PartiallyFilled":
		return domain.StatusPartiallyFilled
	case "Rejected":
		return domain.StatusRejected
	case "Replaced":
		return domain.StatusReplaced
	default:
		return domain.StatusUnknown
	}
}
