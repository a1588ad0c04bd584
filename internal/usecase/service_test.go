package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
	"github.com/vitos/crypto_bulk_orders/internal/usecase"
)

// mockExchange implements the generic connection and records calls.
type mockExchange struct {
	accountCalls int
	accountInfo  *domain.AccountInfo
	accountErr   error

	ticker    *domain.Ticker
	tickerErr error
	tickers   []domain.Ticker

	symbols    []domain.CurrencyPair
	symbolsErr error

	lastLimit  domain.LimitOrderSpec
	lastMarket domain.MarketOrderSpec
	lastStop   domain.StopOrderSpec
	orderErr   error
}

func (m *mockExchange) Name() string { return "MockExchange" }

func (m *mockExchange) GetSupportedSymbols(ctx context.Context) ([]domain.CurrencyPair, error) {
	if m.symbolsErr != nil {
		return nil, m.symbolsErr
	}
	return m.symbols, nil
}

func (m *mockExchange) GetAccountInfo(ctx context.Context) (*domain.AccountInfo, error) {
	m.accountCalls++
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	return m.accountInfo, nil
}

func (m *mockExchange) GetTicker(ctx context.Context, pair domain.CurrencyPair) (*domain.Ticker, error) {
	if m.tickerErr != nil {
		return nil, m.tickerErr
	}
	return m.ticker, nil
}

func (m *mockExchange) GetTickers(ctx context.Context) ([]domain.Ticker, error) {
	return m.tickers, nil
}

func (m *mockExchange) PlaceLimitOrder(ctx context.Context, spec domain.LimitOrderSpec) (string, error) {
	m.lastLimit = spec
	return "generic-limit-1", m.orderErr
}

func (m *mockExchange) PlaceMarketOrder(ctx context.Context, spec domain.MarketOrderSpec) (string, error) {
	m.lastMarket = spec
	return "generic-market-1", m.orderErr
}

func (m *mockExchange) PlaceStopOrder(ctx context.Context, spec domain.StopOrderSpec) (string, error) {
	m.lastStop = spec
	return "generic-stop-1", m.orderErr
}

// mockDerivatives adds the specialized surface on top of mockExchange.
type mockDerivatives struct {
	mockExchange

	active    []domain.InstrumentTicker
	activeErr error

	lastSymbol   string
	lastSide     string
	lastExecInst string
	lastCommands []domain.PlaceOrderCommand
	bulkResult   []domain.RawOrder
	bulkErr      error

	leverageSymbol string
	leverageValue  float64
}

func (m *mockDerivatives) GetActiveTickers(ctx context.Context) ([]domain.InstrumentTicker, error) {
	if m.activeErr != nil {
		return nil, m.activeErr
	}
	return m.active, nil
}

func (m *mockDerivatives) PlaceRawLimitOrder(ctx context.Context, symbol string, quantity, price float64, side, clOrdID, execInst string) (*domain.RawOrder, error) {
	m.lastSymbol, m.lastSide, m.lastExecInst = symbol, side, execInst
	return &domain.RawOrder{ID: "raw-limit-1"}, nil
}

func (m *mockDerivatives) PlaceRawMarketOrder(ctx context.Context, symbol string, quantity float64, side, execInst string) (*domain.RawOrder, error) {
	m.lastSymbol, m.lastSide, m.lastExecInst = symbol, side, execInst
	return &domain.RawOrder{ID: "raw-market-1"}, nil
}

func (m *mockDerivatives) PlaceRawStopOrder(ctx context.Context, symbol string, quantity, stopPrice float64, side, execInst string) (*domain.RawOrder, error) {
	m.lastSymbol, m.lastSide, m.lastExecInst = symbol, side, execInst
	return &domain.RawOrder{ID: "raw-stop-1"}, nil
}

func (m *mockDerivatives) PlaceOrderBulk(ctx context.Context, commands []domain.PlaceOrderCommand) ([]domain.RawOrder, error) {
	m.lastCommands = commands
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	return m.bulkResult, nil
}

func (m *mockDerivatives) UpdateLeveragePosition(ctx context.Context, symbol string, leverage float64) error {
	m.leverageSymbol, m.leverageValue = symbol, leverage
	return nil
}

var xbtusd = domain.NewCurrencyPair("XBT", "USD")

func TestPlaceLimitOrderGenericDispatch(t *testing.T) {
	mock := &mockExchange{}
	service := usecase.NewTradingService(mock, zap.NewNop())

	id, err := service.PlaceLimitOrder(context.Background(), domain.SideBid, xbtusd, 100, 9000, true, false)
	require.NoError(t, err)
	assert.Equal(t, "generic-limit-1", id)
	assert.Equal(t, domain.LimitOrderSpec{Side: domain.SideBid, Pair: xbtusd, Amount: 100, Price: 9000}, mock.lastLimit)
}

func TestPlaceLimitOrderDerivativesDispatch(t *testing.T) {
	mock := &mockDerivatives{}
	service := usecase.NewTradingService(mock, zap.NewNop())

	id, err := service.PlaceLimitOrder(context.Background(), domain.SideAsk, xbtusd, 100, 9000, true, true)
	require.NoError(t, err)
	assert.Equal(t, "raw-limit-1", id)
	assert.Equal(t, "XBTUSD", mock.lastSymbol)
	assert.Equal(t, "Sell", mock.lastSide)
	assert.Equal(t, "ParticipateDoNotInitiate,ReduceOnly", mock.lastExecInst)
}

func TestPlaceMarketOrderNeverPostOnly(t *testing.T) {
	mock := &mockDerivatives{}
	service := usecase.NewTradingService(mock, zap.NewNop())

	_, err := service.PlaceMarketOrder(context.Background(), domain.SideBid, xbtusd, 100, true)
	require.NoError(t, err)
	assert.Equal(t, "Buy", mock.lastSide)
	assert.Equal(t, "ReduceOnly", mock.lastExecInst)
}

func TestPlaceOrderPropagatesBackendFault(t *testing.T) {
	mock := &mockExchange{orderErr: errors.New("rejected")}
	service := usecase.NewTradingService(mock, zap.NewNop())

	_, err := service.PlaceLimitOrder(context.Background(), domain.SideBid, xbtusd, 100, 9000, false, false)
	assert.Error(t, err)
}

func bulkRequest() usecase.BulkOrderRequest {
	return usecase.BulkOrderRequest{
		Pair:          xbtusd,
		Side:          domain.SideBid,
		Type:          domain.OrderTypeLimit,
		Amount:        100,
		MinimumAmount: 10,
		PriceLow:      9000,
		PriceHigh:     9100,
		Distribution:  domain.DistributionMultMin,
		Parameter:     2.0,
	}
}

func TestPlaceBulkOrdersUnsupportedOnGeneric(t *testing.T) {
	service := usecase.NewTradingService(&mockExchange{}, zap.NewNop())

	orders, err := service.PlaceBulkOrders(context.Background(), bulkRequest())
	assert.Nil(t, orders)
	assert.True(t, errors.Is(err, domain.ErrUnsupported))
}

func TestUpdateLeverageUnsupportedOnGeneric(t *testing.T) {
	service := usecase.NewTradingService(&mockExchange{}, zap.NewNop())

	err := service.UpdateLeverage(context.Background(), xbtusd, 25)
	assert.True(t, errors.Is(err, domain.ErrUnsupported))
}

func TestUpdateLeverageDerivatives(t *testing.T) {
	mock := &mockDerivatives{}
	service := usecase.NewTradingService(mock, zap.NewNop())

	require.NoError(t, service.UpdateLeverage(context.Background(), xbtusd, 25))
	assert.Equal(t, "XBTUSD", mock.leverageSymbol)
	assert.Equal(t, 25.0, mock.leverageValue)
}

func TestPlaceBulkOrdersLimit(t *testing.T) {
	mock := &mockDerivatives{
		bulkResult: []domain.RawOrder{
			{ID: "o1", Price: 9000, OrdStatus: "New", Timestamp: time.Unix(1, 0)},
			{ID: "o2", Price: 9050, OrdStatus: "Rejected"},
			{ID: "o3", Price: 9100, OrdStatus: "PartiallyFilled", AvgPx: 9099.5, CumQty: 5},
		},
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	orders, err := service.PlaceBulkOrders(context.Background(), bulkRequest())
	require.NoError(t, err)

	// MULT_MIN(100, 10, x2) ladder: quantities 10, 20, 40.
	require.Len(t, mock.lastCommands, 3)
	for i, want := range []int{10, 20, 40} {
		cmd := mock.lastCommands[i]
		assert.Equal(t, want, cmd.Quantity)
		assert.Equal(t, "XBTUSD", cmd.Symbol)
		assert.Equal(t, "Buy", cmd.Side)
		assert.Equal(t, "Limit", cmd.OrdType)
		require.NotNil(t, cmd.Price)
		assert.Nil(t, cmd.StopPx)
	}
	assert.Equal(t, 9000.0, *mock.lastCommands[0].Price)
	assert.Equal(t, 9050.0, *mock.lastCommands[1].Price)
	assert.Equal(t, 9100.0, *mock.lastCommands[2].Price)

	// A partially accepted ladder surfaces as a mixed status list.
	require.Len(t, orders, 3)
	assert.Equal(t, domain.StatusNew, orders[0].Status)
	assert.Equal(t, domain.StatusRejected, orders[1].Status)
	assert.Equal(t, domain.StatusPartiallyFilled, orders[2].Status)
	assert.Equal(t, 9099.5, orders[2].AveragePrice)
	assert.Equal(t, 5.0, orders[2].CumulativeAmount)
}

func TestPlaceBulkOrdersStopLimitOffsets(t *testing.T) {
	mock := &mockDerivatives{}
	service := usecase.NewTradingService(mock, zap.NewNop())

	req := bulkRequest()
	req.Type = domain.OrderTypeStopLimit
	_, err := service.PlaceBulkOrders(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, mock.lastCommands, 3)
	for i, cmd := range mock.lastCommands {
		assert.Equal(t, "Stop", cmd.OrdType)
		require.NotNil(t, cmd.Price)
		require.NotNil(t, cmd.StopPx)
		// Bid ladders rest half a tick below the trigger.
		assert.Equal(t, *cmd.StopPx-0.5, *cmd.Price, "command %d", i)
	}

	req.Side = domain.SideAsk
	_, err = service.PlaceBulkOrders(context.Background(), req)
	require.NoError(t, err)
	for i, cmd := range mock.lastCommands {
		assert.Equal(t, *cmd.StopPx+0.5, *cmd.Price, "command %d", i)
	}
}

func TestPlaceBulkOrdersStop(t *testing.T) {
	mock := &mockDerivatives{}
	service := usecase.NewTradingService(mock, zap.NewNop())

	req := bulkRequest()
	req.Type = domain.OrderTypeStop
	_, err := service.PlaceBulkOrders(context.Background(), req)
	require.NoError(t, err)

	for _, cmd := range mock.lastCommands {
		assert.Equal(t, "Stop", cmd.OrdType)
		require.NotNil(t, cmd.StopPx)
		require.NotNil(t, cmd.Price)
		// The trigger carries the ladder price unchanged.
		assert.Equal(t, *cmd.Price, *cmd.StopPx)
	}
}

func TestGetTickerRecoversBackendFault(t *testing.T) {
	mock := &mockExchange{tickerErr: errors.New("network down")}
	service := usecase.NewTradingService(mock, zap.NewNop())

	assert.Nil(t, service.GetTicker(context.Background(), xbtusd))
}

func TestGetTickersDerivativesConversion(t *testing.T) {
	mock := &mockDerivatives{
		active: []domain.InstrumentTicker{
			{Symbol: "XBTUSD", Ask: 9001, Bid: 9000, Last: 9000.5, VWAP: 8999.5, Timestamp: 1500000000000},
			{Symbol: "USD", Last: 1}, // untranslatable symbol is skipped
		},
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	tickers := service.GetTickers(context.Background())
	require.Len(t, tickers, 1)

	ticker, ok := tickers[xbtusd]
	require.True(t, ok)
	assert.Equal(t, 9001.0, ticker.Ask)
	assert.Equal(t, 9000.0, ticker.Bid)
	assert.Equal(t, 9000.5, ticker.Last)
	assert.Equal(t, 8999.5, ticker.VWAP)
	assert.Equal(t, time.UnixMilli(1500000000000), ticker.Timestamp)
}

func TestGetTickersRecoversBackendFault(t *testing.T) {
	mock := &mockDerivatives{activeErr: errors.New("boom")}
	service := usecase.NewTradingService(mock, zap.NewNop())

	assert.Nil(t, service.GetTickers(context.Background()))
}

func TestSupportedSymbols(t *testing.T) {
	mock := &mockExchange{
		symbols: []domain.CurrencyPair{
			xbtusd,
			domain.NewCurrencyPair("ETH", "USD"),
		},
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	pairs := service.SupportedSymbols(context.Background())
	require.Len(t, pairs, 2)
	assert.Equal(t, xbtusd, pairs[0])
}

func TestSupportedSymbolsRecoversBackendFault(t *testing.T) {
	mock := &mockExchange{symbolsErr: errors.New("boom")}
	service := usecase.NewTradingService(mock, zap.NewNop())

	assert.Nil(t, service.SupportedSymbols(context.Background()))
}

func accountWith(wallets ...domain.Wallet) *domain.AccountInfo {
	return &domain.AccountInfo{Wallets: wallets}
}

func TestBalanceReadsUseCachedSnapshot(t *testing.T) {
	mock := &mockExchange{
		accountInfo: accountWith(domain.Wallet{
			ID: "main",
			Balances: map[string]domain.Balance{
				"XBT": {Currency: "XBT", Available: 1.5, Total: 2.0},
			},
		}),
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	available, ok := service.GetAvailableAmount(context.Background(), "XBT", true)
	require.True(t, ok)
	assert.Equal(t, 1.5, available)
	assert.Equal(t, 1, mock.accountCalls)

	// Unforced reads hit the cache, not the backend.
	total, ok := service.GetTotalAmount(context.Background(), "XBT", false)
	require.True(t, ok)
	assert.Equal(t, 2.0, total)
	assert.Equal(t, 1, mock.accountCalls)

	// Forcing refreshes.
	_, _ = service.GetAvailableAmount(context.Background(), "XBT", true)
	assert.Equal(t, 2, mock.accountCalls)
}

func TestAccountFetchedAtTracksRefreshes(t *testing.T) {
	mock := &mockExchange{
		accountInfo: accountWith(domain.Wallet{
			ID: "main",
			Balances: map[string]domain.Balance{
				"XBT": {Currency: "XBT", Available: 1.5, Total: 2.0},
			},
		}),
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	assert.True(t, service.AccountFetchedAt().IsZero())

	_, _ = service.GetAvailableAmount(context.Background(), "XBT", true)
	first := service.AccountFetchedAt()
	require.False(t, first.IsZero())

	// Cached reads leave the snapshot timestamp untouched.
	_, _ = service.GetTotalAmount(context.Background(), "XBT", false)
	assert.Equal(t, first, service.AccountFetchedAt())

	// A forced refresh moves it forward.
	_, _ = service.GetAvailableAmount(context.Background(), "XBT", true)
	assert.False(t, service.AccountFetchedAt().Before(first))
}

func TestBalanceDefaultsToFirstWallet(t *testing.T) {
	mock := &mockExchange{
		accountInfo: accountWith(
			domain.Wallet{ID: "first", Balances: map[string]domain.Balance{
				"XBT": {Currency: "XBT", Available: 1},
			}},
			domain.Wallet{ID: "second", Balances: map[string]domain.Balance{
				"XBT": {Currency: "XBT", Available: 9},
			}},
		),
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	available, ok := service.GetAvailableAmount(context.Background(), "XBT", true)
	require.True(t, ok)
	assert.Equal(t, 1.0, available)
}

func TestBalanceWithPinnedWallet(t *testing.T) {
	mock := &mockExchange{
		accountInfo: accountWith(
			domain.Wallet{ID: "first", Balances: map[string]domain.Balance{
				"XBT": {Currency: "XBT", Available: 1},
			}},
			domain.Wallet{ID: "second", Balances: map[string]domain.Balance{
				"XBT": {Currency: "XBT", Available: 9},
			}},
		),
	}
	service := usecase.NewTradingService(mock, zap.NewNop(), usecase.WithWalletID("second"))

	available, ok := service.GetAvailableAmount(context.Background(), "XBT", true)
	require.True(t, ok)
	assert.Equal(t, 9.0, available)
}

func TestBalanceRecoversBackendFault(t *testing.T) {
	mock := &mockExchange{accountErr: errors.New("auth")}
	service := usecase.NewTradingService(mock, zap.NewNop())

	_, ok := service.GetAvailableAmount(context.Background(), "XBT", true)
	assert.False(t, ok)
}

func TestBalanceUnknownCurrency(t *testing.T) {
	mock := &mockExchange{
		accountInfo: accountWith(domain.Wallet{ID: "main", Balances: map[string]domain.Balance{}}),
	}
	service := usecase.NewTradingService(mock, zap.NewNop())

	_, ok := service.GetAvailableAmount(context.Background(), "ETH", true)
	assert.False(t, ok)
}

func TestBulkOrdersClientIDTagging(t *testing.T) {
	mock := &mockDerivatives{}
	service := usecase.NewTradingService(mock, zap.NewNop(), usecase.WithClientOrderIDs())

	_, err := service.PlaceBulkOrders(context.Background(), bulkRequest())
	require.NoError(t, err)
	for _, cmd := range mock.lastCommands {
		assert.NotEmpty(t, cmd.ClOrdID)
	}
}
