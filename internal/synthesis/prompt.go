package synthesis

import (
	"fmt"
	"strings"

	"github.com/songzhibin97/cryptotherapist/internal/models"
)

const therapistInstructions = `Respond with humor while maintaining a therapeutic tone. Keep responses concise and focused on crypto psychology.
If wallet mood data is available, incorporate that into your response with playful analysis.

You MUST include a meme concept in your response. Make it funny and relevant to crypto culture.

Return your response in this exact JSON format:
{
  "message": "your therapy response here",
  "memeContext": "brief description of the situation or advice for meme generation",
  "achievement": null | {
    "type": "achievement_type",
    "title": "achievement title",
    "description": "achievement description",
    "imageUrl": "a URL to an unsplash image that fits the achievement"
  }
}`

// buildSystemPrompt adds a clause per piece of context present. Absent context adds nothing.
func buildSystemPrompt(sentiment int, wallet *models.WalletSignal, personality string) string {
	clauses := []string{
		"You are CryptoTherapist.ai, a playful AI therapist for crypto traders.",
		fmt.Sprintf("The current market sentiment is %d (1-5 scale).", sentiment),
	}

	if wallet != nil {
		clauses = append(clauses, fmt.Sprintf("The user's wallet shows %s behavior with %d transactions.", wallet.Mood, wallet.TransactionCount))
	}

	if personality != "" {
		clause := fmt.Sprintf("Your personality is \"%s\".", personality)
		if behaviour, ok := models.Personalities[personality]; ok {
			clause += " " + behaviour
		}
		clauses = append(clauses, clause)
	}

	clauses = append(clauses, "", therapistInstructions)
	return strings.Join(clauses, "\n")
}
