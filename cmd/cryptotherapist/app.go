package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
	"github.com/songzhibin97/cryptotherapist/internal/ai/deepseek"
	"github.com/songzhibin97/cryptotherapist/internal/ai/gemini"
	"github.com/songzhibin97/cryptotherapist/internal/ai/huggingface"
	"github.com/songzhibin97/cryptotherapist/internal/ai/openai"
	"github.com/songzhibin97/cryptotherapist/internal/chaos"
	"github.com/songzhibin97/cryptotherapist/internal/configs"
	"github.com/songzhibin97/cryptotherapist/internal/data"
	"github.com/songzhibin97/cryptotherapist/internal/data/cache"
	"github.com/songzhibin97/cryptotherapist/internal/data/collector"
	"github.com/songzhibin97/cryptotherapist/internal/data/collector/binance"
	"github.com/songzhibin97/cryptotherapist/internal/data/collector/coingecko"
	"github.com/songzhibin97/cryptotherapist/internal/data/collector/rss"
	"github.com/songzhibin97/cryptotherapist/internal/data/storage"
	"github.com/songzhibin97/cryptotherapist/internal/httpapi"
	"github.com/songzhibin97/cryptotherapist/internal/satire"
	"github.com/songzhibin97/cryptotherapist/internal/synthesis"
)

// App holds every wired component.
type App struct {
	config   *configs.Config
	registry *prometheus.Registry
	gateway  *ai.Gateway
	market   data.MarketCollector
	news     *cache.NewsCache
	store    data.DataStorage

	therapist *synthesis.Therapist
	satirist  *satire.Satirist
	chaos     *chaos.Analyzer
}

func newApp(ctx context.Context, config *configs.Config, logger *slog.Logger) (*App, error) {
	if config.Proxy != "" {
		_ = os.Setenv("HTTP_PROXY", config.Proxy)
		_ = os.Setenv("HTTPS_PROXY", config.Proxy)
		logger.Debug("set proxy ok", "proxy", config.Proxy)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if !config.HasTextProvider() {
		logger.Warn("no text provider configured, every reply will be degraded")
	}
	text, err := textProviders(ctx, config.AIConfig)
	if err != nil {
		return nil, err
	}
	gateway := ai.NewGateway(text, imageProviders(config.AIConfig), logger, ai.NewMetrics(registry))
	logger.Debug("init gateway", "text_providers", len(text))

	sources := config.News.Sources
	if len(sources) == 0 {
		sources = rss.DefaultSources()
	}
	feeds := make([]collector.NewsSource, 0, len(sources))
	for _, s := range sources {
		feeds = append(feeds, rss.NewFeed(s))
	}
	news := cache.NewNewsCache(collector.NewNewsCollector(feeds, nil, logger), config.TTL(), logger)
	logger.Debug("init news cache", "sources", len(feeds))

	markets := []collector.MarketSource{coingecko.NewCoinGeckoDataSource(config.Market.CoinGeckoURL)}
	if config.Market.EnableBinance {
		markets = append(markets, binance.NewBinanceDataSource())
	}
	market := collector.NewMultiSourceMarket(markets, logger)

	store, err := storage.Open(config.Database.Driver, config.Database.ConnStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	logger.Debug("init storage", "driver", config.Database.Driver)

	return &App{
		config:    config,
		registry:  registry,
		gateway:   gateway,
		market:    market,
		news:      news,
		store:     store,
		therapist: synthesis.NewTherapist(gateway, market, store, logger),
		satirist:  satire.NewSatirist(news, gateway, logger),
		chaos:     chaos.NewAnalyzer(gateway, logger),
	}, nil
}

func (a *App) server(logger *slog.Logger) *httpapi.Server {
	return httpapi.New(httpapi.Deps{
		Market:    a.market,
		Therapist: a.therapist,
		Satirist:  a.satirist,
		Chaos:     a.chaos,
	}, httpapi.Options{
		Addr:           a.config.Server.Addr,
		RateLimit:      a.config.Server.RateLimit,
		RateLimitBurst: a.config.Server.RateLimitBurst,
	}, logger, httpapi.NewMetrics(a.registry))
}

func (a *App) Close() error {
	return a.store.Close()
}

// textProviders builds the text chain in fallback order, skipping providers without a key.
func textProviders(ctx context.Context, c configs.AIConfig) ([]ai.TextProvider, error) {
	var providers []ai.TextProvider
	if c.OpenAIKey != "" {
		providers = append(providers, openai.NewProvider(c.OpenAIKey))
	}
	if c.DeepSeekKey != "" {
		providers = append(providers, deepseek.NewProvider(c.DeepSeekKey, c.DeepSeekModel))
	}
	if c.GeminiKey != "" {
		p, err := gemini.NewProvider(ctx, c.GeminiKey, c.GeminiModel, "")
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, nil
}

func imageProviders(c configs.AIConfig) []ai.ImageProvider {
	var providers []ai.ImageProvider
	if c.OpenAIKey != "" {
		providers = append(providers, openai.NewProvider(c.OpenAIKey))
	}
	if c.HuggingFaceKey != "" {
		providers = append(providers, huggingface.NewProvider(c.HuggingFaceKey, c.ImageModel))
	}
	return providers
}
