package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/songzhibin97/cryptotherapist/internal/models"
	"github.com/songzhibin97/cryptotherapist/internal/utils/request"
)

const (
	DefaultBaseURL = "https://api.coingecko.com/api/v3"
	requestTimeout = 10 * time.Second
)

// CoinGeckoDataSource implements collector.MarketSource from the simple/price endpoint.
type CoinGeckoDataSource struct {
	baseURL    string
	httpClient *resty.Client
}

func NewCoinGeckoDataSource(baseURL string) *CoinGeckoDataSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &CoinGeckoDataSource{
		baseURL:    baseURL,
		httpClient: request.Request,
	}
}

func (c *CoinGeckoDataSource) Name() string {
	return "coingecko"
}

func (c *CoinGeckoDataSource) Sentiment(ctx context.Context) (*models.MarketSentiment, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 "bitcoin",
			"vs_currencies":       "usd",
			"include_24hr_change": "true",
		}).
		Get(c.baseURL + "/simple/price")
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	var result struct {
		Bitcoin *struct {
			USD          *float64 `json:"usd"`
			USD24hChange *float64 `json:"usd_24h_change"`
		} `json:"bitcoin"`
	}

	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if result.Bitcoin == nil || result.Bitcoin.USD == nil || result.Bitcoin.USD24hChange == nil {
		return nil, fmt.Errorf("bitcoin price missing from response")
	}

	change := *result.Bitcoin.USD24hChange
	return &models.MarketSentiment{
		Sentiment:    models.SentimentFromChange(change),
		BTCPrice:     *result.Bitcoin.USD,
		BTCChange24h: change,
	}, nil
}
