package chaos

import "github.com/songzhibin97/cryptotherapist/internal/models"

// Logger is satisfied by *slog.Logger.
type Logger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
}

// Figures are the influencers analysed on the chaos leaderboard.
var Figures = []models.CryptoFigure{
	{
		Handle:     "elonmusk",
		Name:       "Elon Musk",
		Title:      "Technoking of Crypto Volatility",
		Avatar:     "https://unavatar.io/twitter/elonmusk",
		TwitterURL: "https://x.com/elonmusk",
		NewsURL:    "https://cointelegraph.com/tags/elon-musk",
	},
	{
		Handle:     "VitalikButerin",
		Name:       "Vitalik Buterin",
		Title:      "Ethereum's Philosophy King",
		Avatar:     "https://unavatar.io/twitter/VitalikButerin",
		TwitterURL: "https://x.com/VitalikButerin",
		NewsURL:    "https://cointelegraph.com/tags/vitalik-buterin",
	},
	{
		Handle:     "realDonaldTrump",
		Name:       "Donald Trump",
		Title:      "Former POTUS & CBDC Critic",
		Avatar:     "https://unavatar.io/twitter/realDonaldTrump",
		TwitterURL: "https://x.com/realDonaldTrump",
		NewsURL:    "https://cointelegraph.com/tags/donald-trump",
	},
	{
		Handle:     "cz_binance",
		Name:       "CZ Binance",
		Title:      "Ex-CEO of You-Know-Where",
		Avatar:     "https://unavatar.io/twitter/cz_binance",
		TwitterURL: "https://x.com/cz_binance",
		NewsURL:    "https://cointelegraph.com/tags/changpeng-zhao",
	},
	{
		Handle:     "justinsuntron",
		Name:       "Justin Sun",
		Title:      "Tron's Master of Controversy",
		Avatar:     "https://unavatar.io/twitter/justinsuntron",
		TwitterURL: "https://x.com/justinsuntron",
		NewsURL:    "https://cointelegraph.com/tags/justin-sun",
	},
}

// sampleTweets stands in for a live timeline until a tweet source is wired.
var sampleTweets = map[string][]string{
	"elonmusk": {
		"Dogecoin to Mars! 🚀",
		"Who let the Doge out? 🐕",
		"Just bought $10B in BTC because I was bored",
	},
	"VitalikButerin": {
		"New proof-of-stake optimization reduces energy by 99.99999%",
		"Interesting paper on zk-SNARKs implementation in layer 2",
		"Working on Ethereum scalability, might delete later",
	},
	"realDonaldTrump": {
		"BITCOIN is HUGE! Nobody knows crypto better than me, maybe ever!",
		"The RADICAL LEFT wants to ban crypto. SAD!",
		"Make Crypto Great Again! #MCGA",
	},
	"cz_binance": {
		"4",
		"Funds are SAFU",
		"In blockchain we trust 🙏",
	},
	"justinsuntron": {
		"Just acquired another blockchain company! Details soon... 👀",
		"TRON ecosystem growing 1000x! More partnerships coming!",
		"Having lunch with @WarrenBuffett was just the beginning 🚀",
	},
}

func tweetsFor(handle string) []string {
	if tweets, ok := sampleTweets[handle]; ok {
		return tweets
	}
	return []string{
		"Analyzing custom Twitter handle...",
		"Note: This is a demo with mock data",
		"Custom analysis for @" + handle,
	}
}
