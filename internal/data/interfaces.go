package data

import (
	"context"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// NewsCollector 负责收集一批新闻
type NewsCollector interface {
	// Collect returns the next batch of headlines. It reports collector.ErrBatchDegraded
	// when no source produced anything.
	Collect(ctx context.Context) ([]models.NewsItem, error)
}

// MarketCollector 负责市场情绪
type MarketCollector interface {
	// Sentiment never fails; it degrades to models.NeutralSentiment.
	Sentiment(ctx context.Context) models.MarketSentiment
}

// DataStorage 处理对话与成就的持久化
type DataStorage interface {
	// SaveTurns appends turns in order and returns them with ID and Timestamp assigned.
	SaveTurns(ctx context.Context, turns ...models.ConversationTurn) ([]models.ConversationTurn, error)

	// GetTurns returns a user's turns oldest first.
	GetTurns(ctx context.Context, userID int64) ([]models.ConversationTurn, error)

	// SaveAchievement persists a draft; EarnedAt is assigned here.
	SaveAchievement(ctx context.Context, userID int64, draft models.AchievementDraft) (*models.StoredAchievement, error)

	// GetAchievements returns a user's achievements in the order they were earned.
	GetAchievements(ctx context.Context, userID int64) ([]models.StoredAchievement, error)

	Close() error
}
