// Package zillow provides a client for the ZenRows Zillow property data
// API.
package zillow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/homescout/listings-cli/internal/model"
)

// Client defines the property data operations.
type Client interface {
	// FetchExtract fetches market data for a single property.
	FetchExtract(ctx context.Context, zpid string) (*model.MarketExtract, error)
	// FetchExtracts fetches market data for a batch of properties.
	// Per-property failures are logged and skipped; the returned slice
	// holds the extracts that succeeded.
	FetchExtracts(ctx context.Context, zpids []string) ([]model.MarketExtract, error)
}

// Config configures the client.
type Config struct {
	APIKey          string        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	RequestsPerSec  float64       `mapstructure:"requests_per_sec"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	CacheMaxEntries int           `mapstructure:"cache_max_entries"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithClock sets the clock used for cache expiry (for testing).
func WithClock(now func() time.Time) Option {
	return func(c *httpClient) {
		c.now = now
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cache   *extractCache
	now     func() time.Time
}

// NewClient creates a property data client.
func NewClient(cfg Config, opts ...Option) Client {
	c := &httpClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		now:     time.Now,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	if c.baseURL == "" {
		c.baseURL = "https://api.zenrows.com/v1"
	}
	if c.http.Timeout == 0 {
		c.http.Timeout = 30 * time.Second
	}

	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 2
	}
	c.limiter = rate.NewLimiter(rate.Limit(rps), 1)

	for _, opt := range opts {
		opt(c)
	}

	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c.cache = newExtractCache(ttl, cfg.CacheMaxEntries, c.now)

	return c
}

// propertyResponse mirrors the fields we read from the provider's
// property payload.
type propertyResponse struct {
	Price struct {
		Value *float64 `json:"value"`
	} `json:"price"`
	Zestimate struct {
		Value *float64 `json:"value"`
	} `json:"zestimate"`
	DaysOnZillow *int `json:"daysOnZillow"`
	PriceHistory []struct {
		EventName string  `json:"eventName"`
		Date      string  `json:"date"`
		Price     float64 `json:"price"`
	} `json:"priceHistory"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   struct {
		Zipcode string `json:"zipcode"`
	} `json:"address"`
}

func (c *httpClient) FetchExtract(ctx context.Context, zpid string) (*model.MarketExtract, error) {
	if c.apiKey == "" {
		return nil, eris.New("zillow: api key is not configured")
	}

	if extract, ok := c.cache.get(zpid); ok {
		zap.L().Debug("zillow: cache hit", zap.String("zpid", zpid))
		return &extract, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "zillow: rate limit wait")
	}

	reqURL := fmt.Sprintf("%s/targets/zillow/properties/%s?%s",
		c.baseURL, url.PathEscape(zpid),
		url.Values{"apikey": {c.apiKey}}.Encode(),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "zillow: build request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "zillow: fetch zpid %s", zpid)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrapf(err, "zillow: read response for zpid %s", zpid)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("zillow: zpid %s returned status %d", zpid, resp.StatusCode)
	}

	var payload propertyResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, eris.Wrapf(err, "zillow: parse response for zpid %s", zpid)
	}

	extract := mapExtract(zpid, &payload)
	c.cache.set(zpid, extract)
	return &extract, nil
}

func (c *httpClient) FetchExtracts(ctx context.Context, zpids []string) ([]model.MarketExtract, error) {
	extracts := make([]model.MarketExtract, 0, len(zpids))
	for _, zpid := range zpids {
		if err := ctx.Err(); err != nil {
			return extracts, eris.Wrap(err, "zillow: batch canceled")
		}
		extract, err := c.FetchExtract(ctx, zpid)
		if err != nil {
			zap.L().Warn("zillow: fetch failed",
				zap.String("zpid", zpid),
				zap.Error(err),
			)
			continue
		}
		extracts = append(extracts, *extract)
	}
	return extracts, nil
}

// mapExtract converts the provider payload to a MarketExtract. Price
// history dates arrive as YYYY-MM-DD strings; unparseable dates drop the
// event rather than poisoning the recent-cut check.
func mapExtract(zpid string, p *propertyResponse) model.MarketExtract {
	extract := model.MarketExtract{
		ZPID:       zpid,
		ListPrice:  p.Price.Value,
		Zestimate:  p.Zestimate.Value,
		DaysOnSite: p.DaysOnZillow,
		Latitude:   p.Latitude,
		Longitude:  p.Longitude,
		ZipCode:    p.Address.Zipcode,
	}
	for _, e := range p.PriceHistory {
		date, err := time.Parse("2006-01-02", e.Date)
		if err != nil {
			zap.L().Warn("zillow: bad price history date",
				zap.String("zpid", zpid),
				zap.String("date", e.Date),
			)
			continue
		}
		extract.PriceHistory = append(extract.PriceHistory, model.PriceHistoryEvent{
			Event: e.EventName,
			Date:  date,
			Price: e.Price,
		})
	}
	return extract
}
