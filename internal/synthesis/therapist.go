package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
	"github.com/songzhibin97/cryptotherapist/internal/data"
	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// ErrInvalidRequest is the only error a caller should present as its own fault.
var ErrInvalidRequest = errors.New("invalid request")

// DegradedReply is stored and returned when no text provider could answer.
const DegradedReply = "I'm experiencing some technical difficulties. Must be the market volatility affecting my neural networks."

const (
	// MaxMessageLength bounds a user message in characters.
	MaxMessageLength = 2000

	persistTimeout = 10 * time.Second
)

type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// ChatRequest 一次聊天请求
type ChatRequest struct {
	UserID      int64                `json:"userId"`
	Message     string               `json:"message"`
	Personality string               `json:"personality,omitempty"`
	Wallet      *models.WalletSignal `json:"walletMood,omitempty"`
}

func (r ChatRequest) Validate() error {
	if r.UserID <= 0 {
		return fmt.Errorf("%w: userId must be positive", ErrInvalidRequest)
	}
	if strings.TrimSpace(r.Message) == "" {
		return fmt.Errorf("%w: message is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(r.Message) > MaxMessageLength {
		return fmt.Errorf("%w: message exceeds %d characters", ErrInvalidRequest, MaxMessageLength)
	}
	if r.Personality != "" && !models.KnownPersonality(r.Personality) {
		return fmt.Errorf("%w: unknown personality %q", ErrInvalidRequest, r.Personality)
	}
	if w := r.Wallet; w != nil {
		if !w.Mood.Valid() {
			return fmt.Errorf("%w: unknown wallet mood %q", ErrInvalidRequest, w.Mood)
		}
		if w.TransactionCount < 0 {
			return fmt.Errorf("%w: negative transaction count", ErrInvalidRequest)
		}
	}
	return nil
}

// Therapist turns a chat message into a reply, an optional meme and an optional achievement.
type Therapist struct {
	gateway *ai.Gateway
	market  data.MarketCollector
	store   data.DataStorage
	logger  Logger
	locks   *userLocks
}

func NewTherapist(gateway *ai.Gateway, market data.MarketCollector, store data.DataStorage, logger Logger) *Therapist {
	return &Therapist{
		gateway: gateway,
		market:  market,
		store:   store,
		logger:  logger,
		locks:   newUserLocks(),
	}
}

// Respond handles one chat turn. Provider failures degrade the result instead of failing it.
// Requests from the same user run one at a time, in arrival order. If ctx is cancelled
// before persistence starts nothing is stored; once started, both turns are stored.
func (t *Therapist) Respond(ctx context.Context, req ChatRequest) (models.SynthesisResult, error) {
	if err := req.Validate(); err != nil {
		return models.SynthesisResult{}, err
	}

	release, err := t.locks.acquire(ctx, req.UserID)
	if err != nil {
		return models.SynthesisResult{}, err
	}
	defer release()

	sentiment := t.market.Sentiment(ctx)
	system := buildSystemPrompt(sentiment.Sentiment, req.Wallet, req.Personality)

	result := models.SynthesisResult{ReplyText: DegradedReply, Degraded: true}
	var draft *models.AchievementDraft

	reply, err := ai.GenerateText[ai.TherapyReply](ctx, t.gateway, ai.TherapyCall, system, req.Message)
	if err != nil {
		t.logger.Warn("therapy reply degraded", "user_id", req.UserID, "error", err)
	} else {
		result.ReplyText = reply.Message
		result.Degraded = false
		result.MemeURL = t.gateway.GenerateImage(ctx, reply.MemeContext)
		draft = reply.Achievement
	}

	if err := ctx.Err(); err != nil {
		return models.SynthesisResult{}, err
	}

	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	turns, err := t.store.SaveTurns(pctx,
		models.ConversationTurn{
			UserID:      req.UserID,
			Text:        req.Message,
			Personality: req.Personality,
		},
		models.ConversationTurn{
			UserID:      req.UserID,
			Text:        result.ReplyText,
			IsBot:       true,
			Personality: req.Personality,
			MemeURL:     result.MemeURL,
		},
	)
	if err != nil {
		return models.SynthesisResult{}, fmt.Errorf("failed to save chat turns: %w", err)
	}
	result.Turn = &turns[len(turns)-1]

	if draft != nil {
		achievement, err := t.store.SaveAchievement(pctx, req.UserID, *draft)
		if err != nil {
			t.logger.Error("failed to save achievement", "user_id", req.UserID, "error", err)
		} else {
			result.Achievement = achievement
		}
	}

	t.logger.Info("chat turn completed",
		"user_id", req.UserID,
		"degraded", result.Degraded,
		"meme", result.MemeURL != nil,
		"achievement", result.Achievement != nil,
	)
	return result, nil
}

// History returns the user's conversation oldest first.
func (t *Therapist) History(ctx context.Context, userID int64) ([]models.ConversationTurn, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId must be positive", ErrInvalidRequest)
	}
	return t.store.GetTurns(ctx, userID)
}

// Achievements returns the user's achievements in the order they were earned.
func (t *Therapist) Achievements(ctx context.Context, userID int64) ([]models.StoredAchievement, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userId must be positive", ErrInvalidRequest)
	}
	return t.store.GetAchievements(ctx, userID)
}
