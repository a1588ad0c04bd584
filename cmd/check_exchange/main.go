package main

import (
	"context"
	"fmt"
	"os"

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
	} `yaml:"exchange"`
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
	cfg, err := loadConfig("config/config.yaml")
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

	adapter := exchange.NewBitmexAdapter(cfg.Exchange.APIKey, cfg.Exchange.APISecret,
		cfg.Exchange.RESTEndpoint, cfg.Exchange.WSEndpoint)
	service := usecase.NewTradingService(adapter, log)
	ctx := context.Background()

	fmt.Printf("Testing %s interaction...\n", service.Name())

	// Public endpoint: active tickers.
	tickers := service.GetTickers(ctx)
	if tickers == nil {
		fmt.Println("Failed to get tickers")
	} else {
		fmt.Printf("Got %d active tickers\n", len(tickers))
		if t, ok := tickers[domain.NewCurrencyPair("XBT", "USD")]; ok {
			fmt.Printf("XBT/USD last=%f bid=%f ask=%f\n", t.Last, t.Bid, t.Ask)
		}
	}

	// Private endpoint: balance.
	if available, ok := service.GetAvailableAmount(ctx, "XBt", true); ok {
		fmt.Printf("Available XBt: %f\n", available)
	} else {
		fmt.Println("Failed to get balance (check API keys)")
	}
}
