package ai

import "time"

// Call fixes the generation parameters of one kind of text request. They are not user configurable.
type Call struct {
	Name        string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

const defaultTextModel = "gpt-4o"

var (
	// TherapyCall drives the chat therapist reply.
	TherapyCall = Call{
		Name:        "therapy",
		Model:       defaultTextModel,
		Temperature: 0.9,
		MaxTokens:   500,
		Timeout:     30 * time.Second,
	}

	// SatireCall rewrites one headline into satire.
	SatireCall = Call{
		Name:        "satire",
		Model:       defaultTextModel,
		Temperature: 0.8,
		MaxTokens:   400,
		Timeout:     20 * time.Second,
	}

	// ChaosCall scores an influencer's tweets.
	ChaosCall = Call{
		Name:        "chaos",
		Model:       defaultTextModel,
		Temperature: 0.7,
		MaxTokens:   700,
		Timeout:     30 * time.Second,
	}
)

// ImageTimeout bounds each image provider attempt.
const ImageTimeout = 60 * time.Second
