package rss

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mmcdole/gofeed"

	"github.com/songzhibin97/cryptotherapist/internal/models"
	"github.com/songzhibin97/cryptotherapist/internal/utils/request"
)

const (
	summaryLength = 200
	fetchTimeout  = 15 * time.Second
)

var (
	inlineImage = regexp.MustCompile(`(?i)src="(https://[^"]+\.(jpg|jpeg|png|gif))"`)
	htmlTag     = regexp.MustCompile(`<[^>]+>`)
	cdata       = strings.NewReplacer("<![CDATA[", "", "]]>", "")
)

// Source 一个 RSS 新闻源配置
type Source struct {
	Name          string `json:"name" yaml:"name"`
	URL           string `json:"url" yaml:"url"`
	FallbackImage string `json:"fallback_image" yaml:"fallback_image"`
}

// DefaultSources are the feeds used when none are configured.
func DefaultSources() []Source {
	return []Source{
		{Name: "CoinDesk", URL: "https://www.coindesk.com/arc/outboundfeeds/rss/", FallbackImage: "https://images.unsplash.com/photo-1621761191319-c6fb62004040"},
		{Name: "CoinTelegraph", URL: "https://cointelegraph.com/rss", FallbackImage: "https://images.unsplash.com/photo-1518546305927-5a555bb7020d"},
		{Name: "The Defiant", URL: "https://thedefiant.io/rss", FallbackImage: "https://images.unsplash.com/photo-1605792657660-596af9009e82"},
		{Name: "CryptoSlate", URL: "https://cryptoslate.com/feed/", FallbackImage: "https://images.unsplash.com/photo-1516245834210-c4c142787335"},
	}
}

// Feed fetches one Source. It implements collector.NewsSource.
type Feed struct {
	source     Source
	httpClient *resty.Client
}

func NewFeed(source Source) *Feed {
	return &Feed{
		source:     source,
		httpClient: request.Request,
	}
}

func (f *Feed) Name() string { return f.source.Name }

// Fetch downloads and parses the feed. Items carry no ID; the collector assigns one per batch.
func (f *Feed) Fetch(ctx context.Context) ([]models.NewsItem, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	resp, err := f.httpClient.R().
		SetContext(ctx).
		SetHeader("Cache-Control", "no-cache").
		SetHeader("Pragma", "no-cache").
		Get(f.source.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode())
	}

	feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %w", f.source.Name, err)
	}

	now := time.Now()
	items := make([]models.NewsItem, 0, len(feed.Items))
	for _, item := range feed.Items {
		published := now
		if item.PublishedParsed != nil {
			published = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			published = *item.UpdatedParsed
		}

		items = append(items, models.NewsItem{
			Title:       strings.TrimSpace(cdata.Replace(item.Title)),
			Summary:     summarize(item.Description),
			Source:      f.source.Name,
			URL:         strings.TrimSpace(item.Link),
			ImageURL:    f.imageFor(item),
			PublishedAt: published,
		})
	}
	return items, nil
}

// imageFor picks media:content, then an enclosure, then an inline <img> in the
// description, then the source's fallback.
func (f *Feed) imageFor(item *gofeed.Item) string {
	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if url := content.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}

	if m := inlineImage.FindStringSubmatch(item.Description); m != nil {
		return m[1]
	}

	return f.source.FallbackImage
}

func summarize(description string) string {
	text := htmlTag.ReplaceAllString(cdata.Replace(description), "")
	text = strings.Join(strings.Fields(text), " ")

	runes := []rune(text)
	if len(runes) > summaryLength {
		runes = runes[:summaryLength]
	}
	return string(runes) + "..."
}
