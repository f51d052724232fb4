package synthesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/songzhibin97/cryptotherapist/internal/ai"
	"github.com/songzhibin97/cryptotherapist/internal/ai/aitest"
	"github.com/songzhibin97/cryptotherapist/internal/data"
	"github.com/songzhibin97/cryptotherapist/internal/data/storage"
	"github.com/songzhibin97/cryptotherapist/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type fixedMarket struct{ sentiment int }

func (m fixedMarket) Sentiment(context.Context) models.MarketSentiment {
	return models.MarketSentiment{Sentiment: m.sentiment}
}

type fixture struct {
	therapist *Therapist
	store     *storage.MemoryStorage
	text      *aitest.TextProvider
	primary   *aitest.ImageProvider
	secondary *aitest.ImageProvider
}

func newFixture(text *aitest.TextProvider, primary, secondary *aitest.ImageProvider, sentiment int) *fixture {
	gw := ai.NewGateway(
		[]ai.TextProvider{text},
		[]ai.ImageProvider{primary, secondary},
		discard,
		ai.NewMetrics(prometheus.NewRegistry()),
	)
	store := storage.NewMemoryStorage()
	return &fixture{
		therapist: NewTherapist(gw, fixedMarket{sentiment: sentiment}, store, discard),
		store:     store,
		text:      text,
		primary:   primary,
		secondary: secondary,
	}
}

func therapyBody(message string, achievement *models.AchievementDraft) string {
	b, _ := json.Marshal(ai.TherapyReply{Message: message, MemeContext: "rocket", Achievement: achievement})
	return string(b)
}

func TestTherapist_Respond_SecondaryMeme(t *testing.T) {
	f := newFixture(
		aitest.StaticText("openai", `{"message":"HODL your feelings","memeContext":"rocket","achievement":null}`),
		&aitest.ImageProvider{ProviderName: "dalle", Err: aitest.ErrScripted},
		&aitest.ImageProvider{ProviderName: "huggingface", URL: "https://img/x.png"},
		5,
	)

	got, err := f.therapist.Respond(context.Background(), ChatRequest{UserID: 1, Message: "I bought the top"})
	require.NoError(t, err)

	assert.Equal(t, "HODL your feelings", got.ReplyText)
	require.NotNil(t, got.MemeURL)
	assert.Equal(t, "https://img/x.png", *got.MemeURL)
	assert.Nil(t, got.Achievement)
	assert.False(t, got.Degraded)

	reqs := f.text.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].SystemPrompt, "The current market sentiment is 5 (1-5 scale).")
	assert.NotContains(t, reqs[0].SystemPrompt, "wallet shows")
	assert.NotContains(t, reqs[0].SystemPrompt, "Your personality is")
	assert.Equal(t, "I bought the top", reqs[0].UserPrompt)
	assert.Equal(t, ai.TherapyCall.Temperature, reqs[0].Temperature)
	assert.Equal(t, 1, f.primary.Calls())
	assert.Equal(t, 1, f.secondary.Calls())
}

func TestTherapist_Respond_Degraded(t *testing.T) {
	f := newFixture(
		aitest.FailingText("openai"),
		&aitest.ImageProvider{ProviderName: "dalle", URL: "https://img/never.png"},
		&aitest.ImageProvider{ProviderName: "huggingface", URL: "https://img/never.png"},
		3,
	)

	got, err := f.therapist.Respond(context.Background(), ChatRequest{UserID: 7, Message: "rekt"})
	require.NoError(t, err)

	assert.Equal(t, DegradedReply, got.ReplyText)
	assert.True(t, got.Degraded)
	assert.Nil(t, got.MemeURL)
	assert.Nil(t, got.Achievement)
	assert.Zero(t, f.primary.Calls())
	assert.Zero(t, f.secondary.Calls())

	history, err := f.therapist.History(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "rekt", history[0].Text)
	assert.False(t, history[0].IsBot)
	assert.Equal(t, DegradedReply, history[1].Text)
	assert.True(t, history[1].IsBot)
	assert.Nil(t, history[1].MemeURL)
}

func TestTherapist_Respond_NoMeme(t *testing.T) {
	f := newFixture(
		aitest.StaticText("openai", therapyBody("deep breaths", nil)),
		&aitest.ImageProvider{ProviderName: "dalle", Err: aitest.ErrScripted},
		&aitest.ImageProvider{ProviderName: "huggingface", Err: aitest.ErrScripted},
		2,
	)

	got, err := f.therapist.Respond(context.Background(), ChatRequest{UserID: 3, Message: "help"})
	require.NoError(t, err)

	assert.Equal(t, "deep breaths", got.ReplyText)
	assert.Nil(t, got.MemeURL)
	assert.False(t, got.Degraded)
	require.NotNil(t, got.Turn)
	assert.True(t, got.Turn.IsBot)
}

func TestTherapist_Respond_Achievement(t *testing.T) {
	draft := &models.AchievementDraft{Type: "diamond_hands", Title: "Diamond Hands", Description: "Held through a 50% dip", ImageURL: "https://images.unsplash.com/x"}
	f := newFixture(
		aitest.StaticText("openai", therapyBody("proud of you", draft)),
		&aitest.ImageProvider{ProviderName: "dalle", URL: "https://img/meme.png"},
		&aitest.ImageProvider{ProviderName: "huggingface"},
		4,
	)

	got, err := f.therapist.Respond(context.Background(), ChatRequest{
		UserID:      9,
		Message:     "still holding",
		Personality: "🎭 Meme Lord",
		Wallet:      &models.WalletSignal{Mood: models.WalletMoodDegen, TransactionCount: 42},
	})
	require.NoError(t, err)

	require.NotNil(t, got.Achievement)
	assert.Equal(t, "Diamond Hands", got.Achievement.Title)
	assert.Equal(t, int64(9), got.Achievement.UserID)
	assert.False(t, got.Achievement.EarnedAt.IsZero())
	require.NotNil(t, got.MemeURL)
	assert.Equal(t, "https://img/meme.png", *got.MemeURL)
	assert.Zero(t, f.secondary.Calls())

	system := f.text.Requests()[0].SystemPrompt
	assert.Contains(t, system, "The user's wallet shows DEGEN behavior with 42 transactions.")
	assert.Contains(t, system, `Your personality is "🎭 Meme Lord". Communicates primarily through memes`)

	achievements, err := f.therapist.Achievements(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	assert.Equal(t, got.Achievement.ID, achievements[0].ID)

	history, err := f.therapist.History(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "🎭 Meme Lord", history[0].Personality)
	require.NotNil(t, history[1].MemeURL)
}

func TestTherapist_Respond_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  ChatRequest
	}{
		{name: "missing user", req: ChatRequest{Message: "hi"}},
		{name: "negative user", req: ChatRequest{UserID: -1, Message: "hi"}},
		{name: "blank message", req: ChatRequest{UserID: 1, Message: "  \n"}},
		{name: "too long", req: ChatRequest{UserID: 1, Message: strings.Repeat("a", MaxMessageLength+1)}},
		{name: "unknown personality", req: ChatRequest{UserID: 1, Message: "hi", Personality: "🦄 Unicorn"}},
		{name: "unknown mood", req: ChatRequest{UserID: 1, Message: "hi", Wallet: &models.WalletSignal{Mood: "SIDEWAYS"}}},
		{name: "negative transactions", req: ChatRequest{UserID: 1, Message: "hi", Wallet: &models.WalletSignal{Mood: models.WalletMoodBullish, TransactionCount: -2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(aitest.StaticText("openai", therapyBody("x", nil)), &aitest.ImageProvider{}, &aitest.ImageProvider{}, 3)

			_, err := f.therapist.Respond(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
			assert.Zero(t, f.text.Calls())
		})
	}
}

func TestTherapist_Respond_CancelledBeforePersistence(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	text := &aitest.TextProvider{
		ProviderName: "openai",
		Respond: func(context.Context, ai.TextRequest) (string, error) {
			cancel()
			return therapyBody("too late", nil), nil
		},
	}
	f := newFixture(text, &aitest.ImageProvider{ProviderName: "dalle", URL: "https://img/x.png"}, &aitest.ImageProvider{}, 3)

	_, err := f.therapist.Respond(ctx, ChatRequest{UserID: 5, Message: "hello"})
	assert.ErrorIs(t, err, context.Canceled)

	history, err := f.store.GetTurns(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Zero(t, f.therapist.locks.size())
}

func TestTherapist_Respond_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newFixture(aitest.StaticText("openai", therapyBody("x", nil)), &aitest.ImageProvider{}, &aitest.ImageProvider{}, 3)

	_, err := f.therapist.Respond(ctx, ChatRequest{UserID: 5, Message: "hello"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.text.Calls())
}

func TestTherapist_Respond_SameUserTurnsStayPaired(t *testing.T) {
	text := &aitest.TextProvider{
		ProviderName: "openai",
		Respond: func(_ context.Context, req ai.TextRequest) (string, error) {
			return therapyBody("re: "+req.UserPrompt, nil), nil
		},
	}
	f := newFixture(text, &aitest.ImageProvider{ProviderName: "dalle", URL: "https://img/x.png"}, &aitest.ImageProvider{}, 3)

	const n = 16
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.therapist.Respond(context.Background(), ChatRequest{UserID: 11, Message: fmt.Sprintf("msg-%d", i)})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := f.therapist.History(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, history, 2*n)

	for i := 0; i < len(history); i += 2 {
		assert.False(t, history[i].IsBot)
		assert.True(t, history[i+1].IsBot)
		assert.Equal(t, "re: "+history[i].Text, history[i+1].Text)
	}
	assert.Zero(t, f.therapist.locks.size())
}

type failingStore struct {
	data.DataStorage
}

func (failingStore) SaveTurns(context.Context, ...models.ConversationTurn) ([]models.ConversationTurn, error) {
	return nil, errors.New("disk full")
}

func TestTherapist_Respond_StoreFailure(t *testing.T) {
	gw := ai.NewGateway([]ai.TextProvider{aitest.StaticText("openai", therapyBody("x", nil))}, nil, discard, nil)
	therapist := NewTherapist(gw, fixedMarket{sentiment: 3}, failingStore{storage.NewMemoryStorage()}, discard)

	_, err := therapist.Respond(context.Background(), ChatRequest{UserID: 1, Message: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidRequest)
}

func TestTherapist_HistoryRejectsBadUser(t *testing.T) {
	f := newFixture(aitest.StaticText("openai", "{}"), &aitest.ImageProvider{}, &aitest.ImageProvider{}, 3)

	_, err := f.therapist.History(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = f.therapist.Achievements(context.Background(), -3)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
