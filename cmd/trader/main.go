package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitos/crypto_bulk_orders/internal/domain"
	"github.com/vitos/crypto_bulk_orders/internal/infrastructure/exchange"
	"github.com/vitos/crypto_bulk_orders/internal/infrastructure/logger"
	"github.com/vitos/crypto_bulk_orders/internal/usecase"
)

type Config struct {
	Exchange struct {
		APIKey       string `yaml:"api_key"`
		APISecret    string `yaml:"api_secret"`
		RESTEndpoint string `yaml:"rest_endpoint"`
		WSEndpoint   string `yaml:"ws_endpoint"`
		WalletID     string `yaml:"wallet_id"`
	} `yaml:"exchange"`
	Trading struct {
		MinimumAmount  float64 `yaml:"minimum_amount"`
		TagClientIDs   bool    `yaml:"tag_client_ids"`
		PollIntervalMs int     `yaml:"poll_interval_ms"`
	} `yaml:"trading"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func main() {
	var (
		configPath = flag.String("config", "config/config.yaml", "path to config file")
		mode       = flag.String("mode", "watch", "watch | order | bulk | leverage | balance")
		symbol     = flag.String("symbol", "XBTUSD", "flat instrument symbol")
		side       = flag.String("side", "buy", "buy | sell")
		orderType  = flag.String("type", "limit", "limit | market | stop | stoplimit")
		amount     = flag.Float64("amount", 0, "total contract amount")
		price      = flag.Float64("price", 0, "limit price / stop price")
		priceLow   = flag.Float64("price-low", 0, "bulk ladder low price")
		priceHigh  = flag.Float64("price-high", 0, "bulk ladder high price")
		dist       = flag.String("dist", "FLAT", "FLAT | MULT_MIN | DIV_AMOUNT")
		param      = flag.Float64("param", 2.0, "distribution parameter")
		postOnly   = flag.Bool("post-only", false, "participate do not initiate")
		reduceOnly = flag.Bool("reduce-only", false, "reduce position only")
		reversed   = flag.Bool("reversed", false, "apply quantities in reverse order")
		leverage   = flag.Float64("leverage", exchange.BitmexCrossLeverage, "position leverage, 0 for cross")
		currency   = flag.String("currency", "XBt", "balance currency")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pair, err := domain.PairFromSymbol(*symbol)
	if err != nil {
		log.Fatal("Bad symbol", zap.String("symbol", *symbol), zap.Error(err))
	}

	orderSide := domain.SideBid
	if *side == "sell" {
		orderSide = domain.SideAsk
	}

	adapter := exchange.NewBitmexAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret,
		cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint)

	opts := []usecase.Option{}
	if cfg.Exchange.WalletID != "" {
		opts = append(opts, usecase.WithWalletID(cfg.Exchange.WalletID))
	}
	if cfg.Trading.TagClientIDs {
		opts = append(opts, usecase.WithClientOrderIDs())
	}
	service := usecase.NewTradingService(adapter, log, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch *mode {
	case "watch":
		adapter.OnInstrumentUpdate(func(symbol string, lastPrice float64) {
			fmt.Printf("%s last=%f\n", symbol, lastPrice)
		})
		if err := adapter.SubscribeInstruments([]string{pair.ToSymbol()}); err != nil {
			log.Warn("Realtime stream unavailable, falling back to polling", zap.Error(err))
			interval := time.Duration(cfg.Trading.PollIntervalMs) * time.Millisecond
			if interval <= 0 {
				interval = time.Second
			}
			service.PollTicker(ctx, pair, interval, func(t *domain.Ticker) {
				fmt.Printf("%s last=%f bid=%f ask=%f vwap=%f\n", t.Pair, t.Last, t.Bid, t.Ask, t.VWAP)
			})
		} else {
			defer adapter.CloseStream()
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down")

	case "order":
		var id string
		var err error
		switch *orderType {
		case "limit":
			id, err = service.PlaceLimitOrder(ctx, orderSide, pair, *amount, *price, *postOnly, *reduceOnly)
		case "market":
			id, err = service.PlaceMarketOrder(ctx, orderSide, pair, *amount, *reduceOnly)
		case "stop":
			id, err = service.PlaceStopOrder(ctx, orderSide, pair, *amount, *price, *reduceOnly)
		default:
			log.Fatal("Unknown order type", zap.String("type", *orderType))
		}
		if err != nil {
			log.Fatal("Order failed", zap.Error(err))
		}
		fmt.Printf("Order placed: %s\n", id)

	case "bulk":
		bulkType := domain.OrderTypeLimit
		switch *orderType {
		case "stop":
			bulkType = domain.OrderTypeStop
		case "stoplimit":
			bulkType = domain.OrderTypeStopLimit
		}
		orders, err := service.PlaceBulkOrders(ctx, usecase.BulkOrderRequest{
			Pair:          pair,
			Side:          orderSide,
			Type:          bulkType,
			Amount:        *amount,
			MinimumAmount: cfg.Trading.MinimumAmount,
			PriceLow:      *priceLow,
			PriceHigh:     *priceHigh,
			Distribution:  domain.BulkDistribution(*dist),
			Parameter:     *param,
			PostOnly:      *postOnly,
			ReduceOnly:    *reduceOnly,
			Reversed:      *reversed,
		})
		if err != nil {
			log.Fatal("Bulk order failed", zap.Error(err))
		}
		for _, o := range orders {
			fmt.Printf("%s %s price=%f status=%s\n", o.ID, o.Side, o.Price, o.Status)
		}

	case "leverage":
		if err := service.UpdateLeverage(ctx, pair, *leverage); err != nil {
			log.Fatal("Leverage update failed", zap.Error(err))
		}
		fmt.Printf("Leverage for %s set to %f\n", pair, *leverage)

	case "balance":
		available, ok := service.GetAvailableAmount(ctx, *currency, true)
		if !ok {
			log.Fatal("Balance read failed", zap.String("currency", *currency))
		}
		total, _ := service.GetTotalAmount(ctx, *currency, false)
		fmt.Printf("%s available=%f total=%f\n", *currency, available, total)

	default:
		log.Fatal("Unknown mode", zap.String("mode", *mode))
	}
}
