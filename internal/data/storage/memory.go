package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

// MemoryStorage keeps everything in process. It is the default driver.
type MemoryStorage struct {
	mu           sync.RWMutex
	turns        map[int64][]models.ConversationTurn
	achievements map[int64][]models.StoredAchievement
	nextTurnID   int64
	nextAchID    int64
	now          func() time.Time
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		turns:        make(map[int64][]models.ConversationTurn),
		achievements: make(map[int64][]models.StoredAchievement),
		now:          time.Now,
	}
}

// SaveTurns implements DataStorage interface
func (s *MemoryStorage) SaveTurns(ctx context.Context, turns ...models.ConversationTurn) ([]models.ConversationTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ts := s.now()
	saved := make([]models.ConversationTurn, 0, len(turns))
	for _, turn := range turns {
		s.nextTurnID++
		turn.ID = s.nextTurnID
		turn.Timestamp = ts
		s.turns[turn.UserID] = append(s.turns[turn.UserID], turn)
		saved = append(saved, turn)
	}
	return saved, nil
}

// GetTurns implements DataStorage interface
func (s *MemoryStorage) GetTurns(ctx context.Context, userID int64) ([]models.ConversationTurn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	out := append([]models.ConversationTurn(nil), s.turns[userID]...)
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveAchievement implements DataStorage interface
func (s *MemoryStorage) SaveAchievement(ctx context.Context, userID int64, draft models.AchievementDraft) (*models.StoredAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextAchID++
	a := models.StoredAchievement{
		ID:          s.nextAchID,
		UserID:      userID,
		Type:        draft.Type,
		Title:       draft.Title,
		Description: draft.Description,
		ImageURL:    draft.ImageURL,
		EarnedAt:    s.now(),
	}
	s.achievements[userID] = append(s.achievements[userID], a)
	return &a, nil
}

// GetAchievements implements DataStorage interface
func (s *MemoryStorage) GetAchievements(ctx context.Context, userID int64) ([]models.StoredAchievement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.StoredAchievement(nil), s.achievements[userID]...), nil
}

func (s *MemoryStorage) Close() error { return nil }
