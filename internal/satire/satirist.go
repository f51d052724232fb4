package satire

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// Canned satire used when a headline cannot be transformed.
const (
	FallbackTitle    = "AI Comedy Writers On Strike"
	FallbackContent  = "Our humor algorithms are experiencing a temporary bear market"
	FallbackAnalysis = "Technical Analysis: Joke generation showing bearish divergence. Support at 'Hello World' broken. 📉🤖"
)

const systemPrompt = `You are a crypto satirist combining sharp market insights with humor.
Transform real crypto news into entertaining satire with these components:
1. A satirical headline (The Onion meets CoinDesk style)
2. A witty one-liner about the situation
3. A humorous yet insightful analysis with crypto community references and emojis

Return your response in this exact JSON format:
{
  "title": "satirical headline",
  "content": "one-liner satire",
  "analysis": "entertaining analysis with emojis and crypto lingo"
}`

type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// NewsSource supplies the headline batch; *cache.NewsCache satisfies it.
type NewsSource interface {
	Get(ctx context.Context, forceFresh bool) []models.NewsItem
}

// Satirist rewrites a batch of headlines into satire cards.
type Satirist struct {
	news    NewsSource
	gateway *ai.Gateway
	logger  Logger
}

func NewSatirist(news NewsSource, gateway *ai.Gateway, logger Logger) *Satirist {
	return &Satirist{
		news:    news,
		gateway: gateway,
		logger:  logger,
	}
}

// Cards returns one card per headline, in the order the cache returned them.
func (s *Satirist) Cards(ctx context.Context, forceFresh bool) []models.SatireCard {
	items := s.news.Get(ctx, forceFresh)
	cards := make([]models.SatireCard, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		g.Go(func() error {
			cards[i] = s.transform(gctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return cards
}

func (s *Satirist) transform(ctx context.Context, item models.NewsItem) models.SatireCard {
	user := fmt.Sprintf("Transform this crypto news into satire: %q", item.Title)

	reply, err := ai.GenerateText[ai.SatireReply](ctx, s.gateway, ai.SatireCall, systemPrompt, user)
	if err != nil {
		s.logger.Warn("satire degraded", "news_id", item.ID, "error", err)
		return models.SatireCard{
			NewsItem:       item,
			SatiricalTitle: FallbackTitle,
			Satire:         FallbackContent,
			Analysis:       FallbackAnalysis,
		}
	}

	return models.SatireCard{
		NewsItem:       item,
		SatiricalTitle: reply.Title,
		Satire:         reply.Content,
		Analysis:       reply.Analysis,
	}
}
