package ai

import (
	"errors"
	"fmt"
	"strings"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

var errMissingField = errors.New("missing required field")

func required(fields map[string]string) error {
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s", errMissingField, name)
		}
	}
	return nil
}

// TherapyReply 心理咨询回复
type TherapyReply struct {
	Message     string                   `json:"message"`
	MemeContext string                   `json:"memeContext"`
	Achievement *models.AchievementDraft `json:"achievement"`
}

func (r *TherapyReply) Validate() error {
	if err := required(map[string]string{"message": r.Message, "memeContext": r.MemeContext}); err != nil {
		return err
	}
	if a := r.Achievement; a != nil {
		return required(map[string]string{
			"achievement.type":        a.Type,
			"achievement.title":       a.Title,
			"achievement.description": a.Description,
			"achievement.imageUrl":    a.ImageURL,
		})
	}
	return nil
}

// SatireReply 讽刺新闻改写
type SatireReply struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Analysis string `json:"analysis"`
}

func (r *SatireReply) Validate() error {
	return required(map[string]string{"title": r.Title, "content": r.Content, "analysis": r.Analysis})
}

// ChaosReply is the influencer analysis payload. Metrics is kept as a map so that a
// missing metric can be told apart from a zero score. RawScore and NormalizedScore are
// accepted on the wire only; callers recompute them.
type ChaosReply struct {
	Metrics         map[string]float64 `json:"metrics"`
	RawScore        *float64           `json:"rawScore,omitempty"`
	NormalizedScore *float64           `json:"normalizedScore,omitempty"`
	Breakdown       map[string]string  `json:"breakdown"`
	Emoji           string             `json:"emoji"`
	RecentActivity  string             `json:"recentActivity"`
	TopTweet        string             `json:"topTweet"`
}

// chaosMetrics are the sub-scores every ChaosReply must carry.
var chaosMetrics = []string{
	models.MetricMemeDensity,
	models.MetricCryptoHypeScore,
	models.MetricChaosCoefficient,
	models.MetricControversyLevel,
	models.MetricProphetFactor,
}

func (r *ChaosReply) Validate() error {
	for _, name := range chaosMetrics {
		if _, ok := r.Metrics[name]; !ok {
			return fmt.Errorf("%w: metrics.%s", errMissingField, name)
		}
	}
	return required(map[string]string{"emoji": r.Emoji, "recentActivity": r.RecentActivity, "topTweet": r.TopTweet})
}
