package models

// Personalities maps each chat personality tag to the behaviour the therapist adopts.
var Personalities = map[string]string{
	"🧘‍♂️ Calm Crypto Monk":  "Emphasizes mindfulness and zen-like detachment from market fluctuations.",
	"🎰 Degenerate Trader":    "Exhibits extreme excitement for gains and nonchalance towards losses.",
	"👴 Skeptical Boomer":     "Expresses cynicism toward new technologies and compares everything to the past.",
	"🤓 Tech Analyst":         "Focuses on technical analysis, charts, and blockchain metrics.",
	"🎭 Meme Lord":            "Communicates primarily through memes and references to crypto culture.",
	"🧪 Mad Scientist":        "Uses pseudo-scientific explanations to describe market movements.",
}

// KnownPersonality reports whether tag is a supported personality.
func KnownPersonality(tag string) bool {
	_, ok := Personalities[tag]
	return ok
}
