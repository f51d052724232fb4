package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, status int, response interface{}) (*httptest.Server, *BinanceDataSource) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/24hr", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		err := json.NewEncoder(w).Encode(response)
		require.NoError(t, err)
	}))

	ds := NewBinanceDataSource()
	ds.client.BaseURL = server.URL
	ds.client.HTTPClient = server.Client()

	return server, ds
}

func TestBinanceDataSource_Name(t *testing.T) {
	ds := NewBinanceDataSource()
	assert.Equal(t, "binance", ds.Name())
}

func TestBinanceDataSource_Sentiment(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		response      interface{}
		expectError   bool
		wantSentiment int
		wantPrice     float64
		wantChange    float64
	}{
		{
			name:   "strong rally",
			status: http.StatusOK,
			response: map[string]string{
				"symbol":             "BTCUSDT",
				"lastPrice":          "71234.50",
				"priceChangePercent": "12.5",
			},
			wantSentiment: 4,
			wantPrice:     71234.50,
			wantChange:    12.5,
		},
		{
			name:   "crash clamps to one",
			status: http.StatusOK,
			response: map[string]string{
				"symbol":             "BTCUSDT",
				"lastPrice":          "20000",
				"priceChangePercent": "-45",
			},
			wantSentiment: 1,
			wantPrice:     20000,
			wantChange:    -45,
		},
		{
			name:   "bad price",
			status: http.StatusOK,
			response: map[string]string{
				"lastPrice":          "n/a",
				"priceChangePercent": "1",
			},
			expectError: true,
		},
		{
			name:        "api error",
			status:      http.StatusBadRequest,
			response:    map[string]interface{}{"code": -1121, "msg": "Invalid symbol."},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, ds := setupTestServer(t, tt.status, tt.response)
			defer server.Close()

			got, err := ds.Sentiment(context.Background())
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantSentiment, got.Sentiment)
			assert.Equal(t, tt.wantPrice, got.BTCPrice)
			assert.Equal(t, tt.wantChange, got.BTCChange24h)
		})
	}
}

func TestBinanceDataSource_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	got, err := NewBinanceDataSource().Sentiment(context.Background())
	if err != nil {
		t.Skipf("binance unreachable: %v", err)
	}
	assert.GreaterOrEqual(t, got.Sentiment, 1)
	assert.LessOrEqual(t, got.Sentiment, 5)
	assert.Greater(t, got.BTCPrice, 0.0)
}
