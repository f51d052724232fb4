package binance

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

const (
	defaultSymbol  = "BTCUSDT"
	requestTimeout = 10 * time.Second
)

// BinanceDataSource implements collector.MarketSource from the public 24h ticker.
type BinanceDataSource struct {
	client *binance.Client
	symbol string
}

// NewBinanceDataSource needs no keys; the ticker endpoint is public.
func NewBinanceDataSource() *BinanceDataSource {
	return &BinanceDataSource{
		client: binance.NewClient("", ""),
		symbol: defaultSymbol,
	}
}

func (b *BinanceDataSource) Name() string {
	return "binance"
}

func (b *BinanceDataSource) Sentiment(ctx context.Context) (*models.MarketSentiment, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	stats, err := b.client.NewListPriceChangeStatsService().Symbol(b.symbol).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get 24h ticker: %w", err)
	}

	if len(stats) == 0 || stats[0] == nil {
		return nil, fmt.Errorf("symbol not found: %s", b.symbol)
	}

	price, err := strconv.ParseFloat(stats[0].LastPrice, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price: %w", err)
	}

	change, err := strconv.ParseFloat(stats[0].PriceChangePercent, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse price change: %w", err)
	}

	return &models.MarketSentiment{
		Sentiment:    models.SentimentFromChange(change),
		BTCPrice:     price,
		BTCChange24h: change,
	}, nil
}
