package chaos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// ErrInvalidHandle is returned for an empty influencer handle.
var ErrInvalidHandle = errors.New("twitter handle is required")

const systemPrompt = `You are an expert crypto analyst specializing in the "Crypto Chaos Index" (CCI), a framework for measuring crypto influencers' behavior.

Analyze the tweets based on these metrics and their max scores:

1. Meme Density (max 10): share of tweets with memes, ALL CAPS, emojis.
2. Crypto Hype Score (max 20): frequency of terms like MOON, HODL, APE IN, WAGMI, weighted by hype factor.
3. Chaos Coefficient (max 10): erratic behavior, late-night tweets, deleted posts, market-moving claims.
4. Controversy Level (max 15): engagement in debates and bold claims.
5. Prophet Factor (max 10): track record of predictions and market influence.

Return a JSON object with:
{
  "metrics": {
    "memeDensity": number (0-10),
    "cryptoHypeScore": number (0-20),
    "chaosCoefficient": number (0-10),
    "controversyLevel": number (0-15),
    "prophetFactor": number (0-10)
  },
  "breakdown": {"<metric>": "explanation of score"},
  "emoji": "single most representative emoji",
  "recentActivity": "one-line summary of behavior",
  "topTweet": "most notable tweet"
}

Be humorous and satirical while maintaining analytical accuracy.`

// Analyzer scores influencers on the Crypto Chaos Index.
type Analyzer struct {
	gateway *ai.Gateway
	logger  Logger
}

func NewAnalyzer(gateway *ai.Gateway, logger Logger) *Analyzer {
	return &Analyzer{gateway: gateway, logger: logger}
}

// AnalyzeFigures scores every built-in figure concurrently. Each figure degrades on its own.
func (a *Analyzer) AnalyzeFigures(ctx context.Context) []models.FigureAnalysis {
	results := make([]models.FigureAnalysis, len(Figures))

	g, gctx := errgroup.WithContext(ctx)
	for i, figure := range Figures {
		g.Go(func() error {
			results[i] = models.FigureAnalysis{
				CryptoFigure: figure,
				Analysis:     a.analyze(gctx, figure.Handle, tweetsFor(figure.Handle)),
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// AnalyzeHandle scores an arbitrary handle. Only an empty handle is an error.
func (a *Analyzer) AnalyzeHandle(ctx context.Context, handle string) (models.FigureAnalysis, error) {
	handle = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
	if handle == "" {
		return models.FigureAnalysis{}, ErrInvalidHandle
	}

	return models.FigureAnalysis{
		CryptoFigure: models.CryptoFigure{
			Handle:     handle,
			Name:       handle,
			Title:      "Custom Analysis",
			Avatar:     "https://unavatar.io/twitter/" + handle,
			TwitterURL: "https://x.com/" + handle,
			NewsURL:    "https://cointelegraph.com/search?query=" + handle,
		},
		Analysis: a.analyze(ctx, handle, tweetsFor(handle)),
	}, nil
}

func (a *Analyzer) analyze(ctx context.Context, handle string, tweets []string) models.TweetAnalysis {
	user := fmt.Sprintf("Analyze these recent tweets from @%s:\n%s", handle, strings.Join(tweets, "\n"))

	reply, err := ai.GenerateText[ai.ChaosReply](ctx, a.gateway, ai.ChaosCall, systemPrompt, user)
	if err != nil {
		a.logger.Warn("chaos analysis degraded", "handle", handle, "err", err)
		return FallbackAnalysis()
	}

	// Upstream rawScore/normalizedScore are never trusted.
	score, err := Normalize(reply.Metrics)
	if err != nil {
		a.logger.Warn("chaos metrics rejected", "handle", handle, "err", err)
		return FallbackAnalysis()
	}

	return models.TweetAnalysis{
		ChaosScore:     score,
		Breakdown:      reply.Breakdown,
		Emoji:          reply.Emoji,
		RecentActivity: reply.RecentActivity,
		TopTweet:       reply.TopTweet,
	}
}

// FallbackAnalysis is served when a figure cannot be analysed.
func FallbackAnalysis() models.TweetAnalysis {
	return models.TweetAnalysis{
		ChaosScore:     FallbackScore(),
		Breakdown:      map[string]string{"error": "Failed to analyze tweets"},
		Emoji:          "🤖",
		RecentActivity: "Our AI is taking a break from crypto twitter",
		TopTweet:       "Failed to load tweet",
		Degraded:       true,
	}
}
