package models

import (
	"fmt"
	"math"
	"time"
)

// ConversationTurn 一条对话记录，持久化后不可变
type ConversationTurn struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Text        string    `json:"message"`
	IsBot       bool      `json:"isBot"`
	Personality string    `json:"personality,omitempty"`
	MemeURL     *string   `json:"memeUrl"`
	Timestamp   time.Time `json:"timestamp"`
}

// WalletMood 钱包情绪标签
type WalletMood string

const (
	WalletMoodBullish  WalletMood = "BULLISH"
	WalletMoodBearish  WalletMood = "BEARISH"
	WalletMoodDegen    WalletMood = "DEGEN"
	WalletMoodInactive WalletMood = "INACTIVE"
)

// Valid reports whether m is one of the known moods.
func (m WalletMood) Valid() bool {
	switch m {
	case WalletMoodBullish, WalletMoodBearish, WalletMoodDegen, WalletMoodInactive:
		return true
	}
	return false
}

// WalletSignal advisory on-chain context attached to a chat request.
type WalletSignal struct {
	Mood             WalletMood `json:"mood"`
	TransactionCount int        `json:"transactionCount"`
}

// AchievementDraft 模型生成的成就，尚未持久化
type AchievementDraft struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

// StoredAchievement 已持久化的成就，EarnedAt 由存储层赋值
type StoredAchievement struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	EarnedAt    time.Time `json:"earnedAt"`
}

// SynthesisResult is what a chat request resolves to. ReplyText is never empty.
type SynthesisResult struct {
	ReplyText   string             `json:"replyText"`
	MemeURL     *string            `json:"memeUrl"`
	Achievement *StoredAchievement `json:"achievement"`
	Degraded    bool               `json:"degraded"`
	Turn        *ConversationTurn  `json:"chat,omitempty"`
}

// MarketSentiment BTC 市场情绪，Sentiment 取值 1-5
type MarketSentiment struct {
	Sentiment    int     `json:"sentiment"`
	BTCPrice     float64 `json:"btcPrice"`
	BTCChange24h float64 `json:"btcChange24h"`
}

// NeutralSentiment is served when every market source fails.
var NeutralSentiment = MarketSentiment{Sentiment: 3}

// SentimentFromChange maps a 24h percentage change onto the 1-5 scale.
func SentimentFromChange(change24h float64) int {
	s := int(math.Round(3 + change24h/10))
	if s < 1 {
		return 1
	}
	if s > 5 {
		return 5
	}
	return s
}

// NewsItem 新闻条目
type NewsItem struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	URL         string    `json:"url"`
	ImageURL    string    `json:"imageUrl"`
	PublishedAt time.Time `json:"publishedAt"`
}

// SatireCard 讽刺新闻卡片
type SatireCard struct {
	NewsItem
	SatiricalTitle string `json:"satiricalTitle"`
	Satire         string `json:"satire"`
	Analysis       string `json:"analysis"`
}

// Chaos index metric names.
const (
	MetricMemeDensity      = "memeDensity"
	MetricCryptoHypeScore  = "cryptoHypeScore"
	MetricChaosCoefficient = "chaosCoefficient"
	MetricControversyLevel = "controversyLevel"
	MetricProphetFactor    = "prophetFactor"
)

// ChaosMetrics the five Crypto Chaos Index sub-scores.
type ChaosMetrics struct {
	MemeDensity      float64 `json:"memeDensity"`
	CryptoHypeScore  float64 `json:"cryptoHypeScore"`
	ChaosCoefficient float64 `json:"chaosCoefficient"`
	ControversyLevel float64 `json:"controversyLevel"`
	ProphetFactor    float64 `json:"prophetFactor"`
}

// AsMap returns the metrics keyed by metric name.
func (m ChaosMetrics) AsMap() map[string]float64 {
	return map[string]float64{
		MetricMemeDensity:      m.MemeDensity,
		MetricCryptoHypeScore:  m.CryptoHypeScore,
		MetricChaosCoefficient: m.ChaosCoefficient,
		MetricControversyLevel: m.ControversyLevel,
		MetricProphetFactor:    m.ProphetFactor,
	}
}

// ChaosScore metrics plus their derived scores.
type ChaosScore struct {
	Metrics         ChaosMetrics `json:"metrics"`
	RawScore        float64      `json:"rawScore"`
	NormalizedScore float64      `json:"normalizedScore"`
}

// Display returns the normalized score rounded to one decimal.
func (s ChaosScore) Display() string {
	return fmt.Sprintf("%.1f", s.NormalizedScore)
}

// TweetAnalysis 影响者推文分析结果
type TweetAnalysis struct {
	ChaosScore
	Breakdown      map[string]string `json:"breakdown"`
	Emoji          string            `json:"emoji"`
	RecentActivity string            `json:"recentActivity"`
	TopTweet       string            `json:"topTweet"`
	Degraded       bool              `json:"degraded"`
}

// CryptoFigure 加密货币圈知名人物
type CryptoFigure struct {
	Handle     string `json:"handle"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Avatar     string `json:"avatar"`
	TwitterURL string `json:"twitterUrl"`
	NewsURL    string `json:"newsUrl"`
}

// FigureAnalysis a figure with its chaos analysis.
type FigureAnalysis struct {
	CryptoFigure
	Analysis TweetAnalysis `json:"analysis"`
}
