package collector

import (
	"context"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// MarketSource reports BTC price and 24h change.
type MarketSource interface {
	Name() string
	Sentiment(ctx context.Context) (*models.MarketSentiment, error)
}

// MultiSourceMarket implements data.MarketCollector by trying sources in order.
type MultiSourceMarket struct {
	sources []MarketSource
	logger  Logger
}

func NewMultiSourceMarket(sources []MarketSource, logger Logger) *MultiSourceMarket {
	return &MultiSourceMarket{
		sources: sources,
		logger:  logger,
	}
}

// Sentiment implements data.MarketCollector interface
func (c *MultiSourceMarket) Sentiment(ctx context.Context) models.MarketSentiment {
	for _, source := range c.sources {
		result, err := source.Sentiment(ctx)
		if err == nil && result != nil {
			c.logger.Info("collected market sentiment", "source", source.Name(), "sentiment", result.Sentiment)
			return *result
		}
		c.logger.Error("failed to collect market sentiment", "source", source.Name(), "error", err)
	}

	c.logger.Warn("market sentiment degraded to neutral")
	return models.NeutralSentiment
}
