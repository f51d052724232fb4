package configs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/songzhibin97/cryptotherapist/internal/data/collector/rss"
	"github.com/songzhibin97/cryptotherapist/internal/data/storage"
)

type Config struct {
	// 日志级别 debug/info/warn/error
	LogLevel string `json:"log_level" yaml:"log_level"`
	// 出站代理，设置后写入 HTTP_PROXY/HTTPS_PROXY
	Proxy string `json:"proxy" yaml:"proxy"`

	Server   Server   `json:"server" yaml:"server"`
	Database Database `json:"database" yaml:"database"`

	// AI 服务参数
	AIConfig AIConfig `json:"ai_config" yaml:"ai_config"`

	News   News   `json:"news" yaml:"news"`
	Market Market `json:"market" yaml:"market"`
}

type Server struct {
	Addr           string  `json:"addr" yaml:"addr"`                         // 监听地址
	RateLimit      float64 `json:"rate_limit" yaml:"rate_limit"`             // 生成类接口每 IP 每秒请求数，0 关闭
	RateLimitBurst int     `json:"rate_limit_burst" yaml:"rate_limit_burst"` // 突发容量
}

type AIConfig struct {
	OpenAIKey      string `json:"openai_api_key" yaml:"openai_api_key"`
	DeepSeekKey    string `json:"deepseek_api_key" yaml:"deepseek_api_key"`
	DeepSeekModel  string `json:"deepseek_model" yaml:"deepseek_model"`
	GeminiKey      string `json:"gemini_api_key" yaml:"gemini_api_key"`
	GeminiModel    string `json:"gemini_model" yaml:"gemini_model"`
	HuggingFaceKey string `json:"huggingface_api_key" yaml:"huggingface_api_key"`
	ImageModel     string `json:"huggingface_model" yaml:"huggingface_model"`
}

type News struct {
	Sources  []rss.Source `json:"sources" yaml:"sources"`
	CacheTTL string       `json:"cache_ttl" yaml:"cache_ttl"` // 例如 5m
}

type Market struct {
	CoinGeckoURL  string `json:"coingecko_url" yaml:"coingecko_url"`
	EnableBinance bool   `json:"enable_binance" yaml:"enable_binance"`
}

type Database struct {
	Driver  string `json:"driver" yaml:"driver"`     // memory/postgres/sqlite
	ConnStr string `json:"conn_str" yaml:"conn_str"` // 数据库连接字符串
}

// Default returns a config that runs without any file: in-memory storage, the built-in feeds
// and both market sources.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: Server{
			Addr:           ":3000",
			RateLimit:      1,
			RateLimitBurst: 5,
		},
		Database: Database{Driver: storage.DriverMemory},
		News: News{
			Sources:  rss.DefaultSources(),
			CacheTTL: "5m",
		},
		Market: Market{EnableBinance: true},
	}
}

// Load reads path over Default. Files ending in .yaml or .yml are YAML, anything else JSON.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()
	if path == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, config)
	default:
		err = json.Unmarshal(raw, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return config, nil
}

// ApplyEnv lets secrets come from the environment. Set variables win over the file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	for env, dst := range map[string]*string{
		"OPENAI_API_KEY":      &c.AIConfig.OpenAIKey,
		"DEEPSEEK_API_KEY":    &c.AIConfig.DeepSeekKey,
		"GEMINI_API_KEY":      &c.AIConfig.GeminiKey,
		"HUGGINGFACE_API_KEY": &c.AIConfig.HuggingFaceKey,
		"DATABASE_URL":        &c.Database.ConnStr,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}
}

// TTL parses News.CacheTTL. Zero means the cache default.
func (c *Config) TTL() time.Duration {
	ttl, err := time.ParseDuration(c.News.CacheTTL)
	if err != nil {
		return 0
	}
	return ttl
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "", storage.DriverMemory:
	case storage.DriverPostgres, storage.DriverSQLite:
		if c.Database.ConnStr == "" {
			return fmt.Errorf("database.conn_str is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", c.Database.Driver)
	}

	if c.News.CacheTTL != "" {
		if ttl, err := time.ParseDuration(c.News.CacheTTL); err != nil || ttl <= 0 {
			return fmt.Errorf("invalid news.cache_ttl %q", c.News.CacheTTL)
		}
	}

	for i, s := range c.News.Sources {
		if s.Name == "" || s.URL == "" {
			return fmt.Errorf("news.sources[%d]: name and url are required", i)
		}
	}

	if c.Server.RateLimit < 0 || c.Server.RateLimitBurst < 0 {
		return fmt.Errorf("server rate limit must not be negative")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}

// HasTextProvider reports whether any text provider has a key.
func (c *Config) HasTextProvider() bool {
	a := c.AIConfig
	return a.OpenAIKey != "" || a.DeepSeekKey != "" || a.GeminiKey != ""
}
