package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
)

// BulkOrderRequest describes one atomic bulk submission: a ladder of
// orders spread across a price range.
type BulkOrderRequest struct {
	Pair          domain.CurrencyPair
	Side          domain.Side
	Type          domain.OrderType
	Amount        float64
	MinimumAmount float64
	PriceLow      float64
	PriceHigh     float64
	Distribution  domain.BulkDistribution
	Parameter     float64
	PostOnly      bool
	ReduceOnly    bool
	Reversed      bool
}

// tradingBackend is the per-protocol strategy behind TradingService.
// It is selected once at construction, so the service methods delegate
// instead of re-checking the connection subtype on every call.
type tradingBackend interface {
	placeLimitOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, price float64, postOnly, reduceOnly bool) (string, error)
	placeMarketOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount float64, reduceOnly bool) (string, error)
	placeStopOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, stopPrice float64, reduceOnly bool) (string, error)
	placeBulkOrders(ctx context.Context, req BulkOrderRequest) ([]domain.Order, error)
	updateLeverage(ctx context.Context, pair domain.CurrencyPair, leverage float64) error
	tickers(ctx context.Context) (map[domain.CurrencyPair]*domain.Ticker, error)
}

// TradingService is the single entry surface for order placement,
// leverage control, market data and balance reads over an injected
// exchange connection.
//
// A service instance has a single logical owner: the account-info cache
// is not locked, so concurrent callers must serialize mutating calls
// themselves.
type TradingService struct {
	conn    domain.Exchange
	backend tradingBackend
	logger  *zap.Logger

	walletID     string
	tagClientIDs bool

	account accountSnapshot
}

// accountSnapshot is the cached account state with its fetch time, so
// staleness and force-refresh semantics are inspectable.
type accountSnapshot struct {
	info      *domain.AccountInfo
	fetchedAt time.Time
}

type Option func(*TradingService)

// WithWalletID pins balance reads to one wallet instead of defaulting to
// the first enumerated wallet of a multi-wallet account.
func WithWalletID(id string) Option {
	return func(s *TradingService) { s.walletID = id }
}

// WithClientOrderIDs stamps every bulk ladder order with a generated
// client order id.
func WithClientOrderIDs() Option {
	return func(s *TradingService) { s.tagClientIDs = true }
}

func NewTradingService(conn domain.Exchange, logger *zap.Logger, opts ...Option) *TradingService {
	s := &TradingService{
		conn:   conn,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if deriv, ok := conn.(domain.DerivativesExchange); ok {
		s.backend = &derivativesBackend{conn: deriv, tagClientIDs: s.tagClientIDs}
	} else {
		s.backend = &genericBackend{conn: conn}
	}
	return s
}

// Name reports the connected exchange's name.
func (s *TradingService) Name() string {
	return s.conn.Name()
}

// SupportedSymbols lists the pairs tradable on the connected exchange.
// Read-path failures are logged and recovered into a nil result.
func (s *TradingService) SupportedSymbols(ctx context.Context) []domain.CurrencyPair {
	pairs, err := s.conn.GetSupportedSymbols(ctx)
	if err != nil {
		s.logger.Debug("get supported symbols failed", zap.Error(err))
		return nil
	}
	return pairs
}

/*
 * Orders
 */

func (s *TradingService) PlaceLimitOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, price float64, postOnly, reduceOnly bool) (string, error) {
	id, err := s.backend.placeLimitOrder(ctx, side, pair, amount, price, postOnly, reduceOnly)
	if err != nil {
		return "", fmt.Errorf("place limit order %s %s: %w", side, pair, err)
	}
	return id, nil
}

func (s *TradingService) PlaceMarketOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount float64, reduceOnly bool) (string, error) {
	id, err := s.backend.placeMarketOrder(ctx, side, pair, amount, reduceOnly)
	if err != nil {
		return "", fmt.Errorf("place market order %s %s: %w", side, pair, err)
	}
	return id, nil
}

func (s *TradingService) PlaceStopOrder(ctx context.Context, side domain.Side, pair domain.CurrencyPair, amount, stopPrice float64, reduceOnly bool) (string, error) {
	id, err := s.backend.placeStopOrder(ctx, side, pair, amount, stopPrice, reduceOnly)
	if err != nil {
		return "", fmt.Errorf("place stop order %s %s: %w", side, pair, err)
	}
	return id, nil
}

// PlaceBulkOrders submits a whole ladder in one backend call and returns
// the normalized per-order results; a partially accepted ladder comes
// back as a mixed status list, never collapsed into one outcome. On a
// connection without bulk support it logs and returns
// domain.ErrUnsupported.
func (s *TradingService) PlaceBulkOrders(ctx context.Context, req BulkOrderRequest) ([]domain.Order, error) {
	orders, err := s.backend.placeBulkOrders(ctx, req)
	if err != nil {
		if errors.Is(err, domain.ErrUnsupported) {
			s.logger.Warn("bulk orders not supported", zap.String("exchange", s.conn.Name()))
			return nil, domain.ErrUnsupported
		}
		return nil, fmt.Errorf("place bulk orders %s %s: %w", req.Side, req.Pair, err)
	}
	return orders, nil
}

// UpdateLeverage sets the position leverage for a pair. On a connection
// without leverage control it logs and returns domain.ErrUnsupported.
func (s *TradingService) UpdateLeverage(ctx context.Context, pair domain.CurrencyPair, leverage float64) error {
	err := s.backend.updateLeverage(ctx, pair, leverage)
	if errors.Is(err, domain.ErrUnsupported) {
		s.logger.Warn("leverage update not supported", zap.String("exchange", s.conn.Name()))
		return domain.ErrUnsupported
	}
	if err != nil {
		return fmt.Errorf("update leverage %s: %w", pair, err)
	}
	return nil
}

/*
 * Market data
 */

// GetTicker fetches one ticker. Read-path failures are logged and
// recovered into a nil result, never propagated.
func (s *TradingService) GetTicker(ctx context.Context, pair domain.CurrencyPair) *domain.Ticker {
	ticker, err := s.conn.GetTicker(ctx, pair)
	if err != nil {
		s.logger.Debug("get ticker failed", zap.String("pair", pair.String()), zap.Error(err))
		return nil
	}
	return ticker
}

// GetTickers fetches a snapshot of every active market, keyed by pair.
// Failures recover into a nil map.
func (s *TradingService) GetTickers(ctx context.Context) map[domain.CurrencyPair]*domain.Ticker {
	tickers, err := s.backend.tickers(ctx)
	if err != nil {
		s.logger.Debug("get tickers failed", zap.Error(err))
		return nil
	}
	return tickers
}

/*
 * Balances
 */

// AccountFetchedAt reports when the cached account snapshot was taken;
// zero when no snapshot has been fetched yet. Unforced balance reads
// serve the snapshot unchanged, so the timestamp only moves on refresh.
func (s *TradingService) AccountFetchedAt() time.Time {
	return s.account.fetchedAt
}

func (s *TradingService) accountInfo(ctx context.Context, forceRefresh bool) (*domain.AccountInfo, error) {
	if s.account.info == nil || forceRefresh {
		info, err := s.conn.GetAccountInfo(ctx)
		if err != nil {
			return nil, err
		}
		s.account = accountSnapshot{info: info, fetchedAt: time.Now()}
	}
	return s.account.info, nil
}

func (s *TradingService) wallet(ctx context.Context, forceRefresh bool) (domain.Wallet, bool) {
	info, err := s.accountInfo(ctx, forceRefresh)
	if err != nil {
		s.logger.Debug("get account info failed", zap.Error(err))
		return domain.Wallet{}, false
	}
	return info.Wallet(s.walletID)
}

// GetAvailableAmount reads the available balance of a currency from the
// cached account snapshot, refreshing it when forced or absent. ok is
// false when the account read fails or the wallet holds no such balance.
func (s *TradingService) GetAvailableAmount(ctx context.Context, currency string, forceRefresh bool) (float64, bool) {
	w, ok := s.wallet(ctx, forceRefresh)
	if !ok {
		return 0, false
	}
	balance, ok := w.Balance(currency)
	if !ok {
		return 0, false
	}
	return balance.Available, true
}

// GetTotalAmount reads the total balance of a currency; same cache and
// wallet-selection rules as GetAvailableAmount.
func (s *TradingService) GetTotalAmount(ctx context.Context, currency string, forceRefresh bool) (float64, bool) {
	w, ok := s.wallet(ctx, forceRefresh)
	if !ok {
		return 0, false
	}
	balance, ok := w.Balance(currency)
	if !ok {
		return 0, false
	}
	return balance.Total, true
}
