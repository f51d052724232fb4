package synthesis

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

func TestBuildSystemPrompt(t *testing.T) {
	tests := []struct {
		name        string
		sentiment   int
		wallet      *models.WalletSignal
		personality string
		contains    []string
		excludes    []string
	}{
		{
			name:      "sentiment only",
			sentiment: 1,
			contains:  []string{"The current market sentiment is 1 (1-5 scale)."},
			excludes:  []string{"wallet shows", "Your personality", "<nil>"},
		},
		{
			name:      "wallet",
			sentiment: 3,
			wallet:    &models.WalletSignal{Mood: models.WalletMoodBearish, TransactionCount: 0},
			contains:  []string{"The user's wallet shows BEARISH behavior with 0 transactions."},
			excludes:  []string{"Your personality"},
		},
		{
			name:        "personality keeps emoji intact",
			sentiment:   4,
			personality: "🧘‍♂️ Calm Crypto Monk",
			contains:    []string{"Your personality is \"🧘‍♂️ Calm Crypto Monk\". Emphasizes mindfulness"},
			excludes:    []string{"wallet shows", `‍`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildSystemPrompt(tt.sentiment, tt.wallet, tt.personality)
			assert.Contains(t, got, "\"memeContext\"")
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}
