// Package sellersprite implements the keyword.DataProvider contract against
// the SellerSprite HTTP API: reverse-ASIN keyword extraction and keyword
// mining.
package sellersprite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BlockchainHB/launchfast-sub000/internal/domain/keyword"
	"github.com/BlockchainHB/launchfast-sub000/internal/infrastructure/monitoring/logging"
	"github.com/BlockchainHB/launchfast-sub000/pkg/errors"
)

const (
	reverseASINPath   = "/v1/traffic/keyword"
	keywordMinerPath  = "/v1/keyword/miner"
	secretKeyHeader   = "secret-key"
	responseCodeOK    = "OK"
	defaultRetryDelay = 500 * time.Millisecond
)

// Config holds the client's connection parameters.
type Config struct {
	BaseURL     string
	APIKey      string
	Marketplace string
	Timeout     time.Duration
	MaxRetries  int
}

// Client talks to the SellerSprite API.  It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient constructs a SellerSprite API client.
func NewClient(cfg Config, logger logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.NewValidation("sellersprite: base URL is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.NewValidation("sellersprite: API key is required")
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = "US"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("sellersprite"),
	}, nil
}

// envelope is the common SellerSprite response wrapper.
type envelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiItem is one keyword record as returned by both endpoints.  SellerSprite
// field naming is inconsistent between endpoints; the superset is decoded and
// zero values are treated as absent.
type apiItem struct {
	Keyword           string  `json:"keyword"`
	Searches          int     `json:"searches"`
	Bid               float64 `json:"bid"`
	BidMin            float64 `json:"bidMin"`
	BidMax            float64 `json:"bidMax"`
	Purchases         int     `json:"purchases"`
	PurchaseRate      float64 `json:"purchaseRate"`
	Products          int     `json:"products"`
	SupplyDemandRatio float64 `json:"supplyDemandRatio"`
	AdProducts        float64 `json:"adProducts"`
	TitleDensity      float64 `json:"titleDensity"`
	MonopolyClickRate float64 `json:"monopolyClickRate"`
	AvgPrice          float64 `json:"avgPrice"`
	AvgRating         float64 `json:"avgRating"`
	AvgReviews        int     `json:"avgReviews"`
	Relevancy         float64 `json:"relevancy"`
	TrafficShare      float64 `json:"trafficPercentage"`
	CPRExact          int     `json:"cprExact"`
	SearchesTrend     float64 `json:"searchesTrend"`
	WordCount         int     `json:"wordCount"`
	AmazonChoice      bool    `json:"amazonChoice"`
	ConversionShare   float64 `json:"conversionShare"`

	RankPosition *struct {
		Position int `json:"position"`
		Page     int `json:"page"`
	} `json:"rankPosition"`
}

type itemsPayload struct {
	Items []apiItem `json:"items"`
}

func (it apiItem) occurrence() keyword.Occurrence {
	occ := keyword.Occurrence{
		Keyword:           it.Keyword,
		SearchVolume:      it.Searches,
		CPC:               it.Bid,
		TrafficShare:      it.TrafficShare,
		Products:          it.Products,
		AdProducts:        it.AdProducts,
		Purchases:         it.Purchases,
		PurchaseRate:      it.PurchaseRate,
		BidMin:            it.BidMin,
		BidMax:            it.BidMax,
		SupplyDemandRatio: it.SupplyDemandRatio,
		TitleDensity:      it.TitleDensity,
		Relevancy:         it.Relevancy,
		MonopolyClickRate: it.MonopolyClickRate,
		AvgPrice:          it.AvgPrice,
		AvgRating:         it.AvgRating,
		AvgReviews:        it.AvgReviews,
		SPR:               it.CPRExact,
		VolumeTrend:       it.SearchesTrend,
		WordCount:         it.WordCount,
		AmazonChoice:      it.AmazonChoice,
		ConversionShare:   it.ConversionShare,
	}
	if it.RankPosition != nil {
		occ.Position = it.RankPosition.Position
	}
	return occ
}

// ReverseASIN returns the keywords the given product receives traffic from.
func (c *Client) ReverseASIN(ctx context.Context, asin string, page, pageSize int) ([]keyword.Occurrence, error) {
	body := map[string]interface{}{
		"asin":        asin,
		"marketplace": c.cfg.Marketplace,
		"page":        page,
		"size":        pageSize,
	}
	items, err := c.post(ctx, reverseASINPath, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderFailed,
			fmt.Sprintf("reverse ASIN lookup failed for %s", asin))
	}
	return toOccurrences(items), nil
}

// KeywordMining returns related keywords for a seed keyword, pre-filtered by
// the provider where the API supports it.
func (c *Client) KeywordMining(ctx context.Context, kw string, filters keyword.MiningFilters) ([]keyword.Occurrence, error) {
	body := map[string]interface{}{
		"keyword":     kw,
		"marketplace": c.cfg.Marketplace,
		"size":        filters.Size,
	}
	if filters.MinSearchVolume > 0 {
		body["minSearches"] = filters.MinSearchVolume
	}
	if filters.MaxSupplyDemandRatio > 0 {
		body["maxSupplyDemandRatio"] = filters.MaxSupplyDemandRatio
	}
	items, err := c.post(ctx, keywordMinerPath, body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeProviderFailed,
			fmt.Sprintf("keyword mining failed for %q", kw))
	}
	return toOccurrences(items), nil
}

func toOccurrences(items []apiItem) []keyword.Occurrence {
	out := make([]keyword.Occurrence, 0, len(items))
	for _, it := range items {
		if it.Keyword == "" {
			continue
		}
		out = append(out, it.occurrence())
	}
	return out
}

// post sends one JSON request with bounded retries.  Retries cover transport
// errors, 5xx responses, and 429s; 4xx responses other than 429 fail
// immediately.
func (c *Client) post(ctx context.Context, path string, body interface{}) ([]apiItem, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode request body")
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(defaultRetryDelay * time.Duration(attempt)):
			}
			c.logger.Debug("retrying provider request",
				logging.String("path", path),
				logging.Int("attempt", attempt),
			)
		}

		items, retryable, err := c.doPost(ctx, path, payload)
		if err == nil {
			return items, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) doPost(ctx context.Context, path string, payload []byte) (items []apiItem, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(secretKeyHeader, c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, errors.New(errors.ErrCodeProviderRateLimit, "provider rate limit exceeded")
	case resp.StatusCode >= 500:
		return nil, true, errors.Newf(errors.ErrCodeExternalService,
			"provider returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, errors.Newf(errors.ErrCodeExternalService,
			"provider returned status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode provider response")
	}
	if env.Code != responseCodeOK {
		return nil, false, errors.Newf(errors.ErrCodeExternalService,
			"provider error %s: %s", env.Code, env.Message)
	}

	var data itemsPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, false, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode provider payload")
		}
	}
	return data.Items, false, nil
}
