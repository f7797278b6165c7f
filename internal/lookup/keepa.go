package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"listingmatch/internal/marketplace"
	"listingmatch/internal/observability"
)

const (
	keepaBaseURL = "https://api.keepa.com"
	// Keepa rejects product requests with more than 100 ASINs.
	keepaMaxBatch = 100
)

type keepaResponse struct {
	TokensLeft int            `json:"tokensLeft"`
	Products   []keepaProduct `json:"products"`
	Error      *keepaError    `json:"error"`
}

type keepaError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type keepaProduct struct {
	ASIN      string `json:"asin"`
	ImagesCSV string `json:"imagesCSV"`
}

// KeepaClient looks images up through the Keepa product API.
type KeepaClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewKeepaClient(apiKey string) *KeepaClient {
	return &KeepaClient{
		APIKey:  strings.TrimSpace(apiKey),
		BaseURL: keepaBaseURL,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *KeepaClient) Available() bool { return c.APIKey != "" }

func (c *KeepaClient) Source() string { return "keepa" }

// FirstImages queries Keepa for the given ASINs. Any failure empties the
// whole affected batch.
func (c *KeepaClient) FirstImages(ctx context.Context, asins []string, mp string) Result {
	asins = CleanASINs(asins)
	if len(asins) == 0 {
		return emptyResult(nil)
	}
	if !c.Available() {
		observability.LookupRequests.WithLabelValues(c.Source(), "unconfigured").Inc()
		return failedResult(asins, "KEEPA_KEY not configured")
	}
	domain, ok := marketplace.KeepaDomain(mp)
	if !ok {
		observability.LookupRequests.WithLabelValues(c.Source(), "unsupported").Inc()
		return failedResult(asins, fmt.Sprintf("Keepa does not serve marketplace %q", mp))
	}

	out := emptyResult(asins)
	Batch(asins, keepaMaxBatch, func(batch []string) {
		products, err := c.query(ctx, batch, domain)
		if err != nil {
			log.Printf("[Lookup] Keepa query failed for %d ASINs on %s: %v", len(batch), mp, err)
			observability.LookupRequests.WithLabelValues(c.Source(), "error").Inc()
			if out.Failed == nil {
				out.Failed = make(map[string]bool, len(asins))
			}
			for _, a := range batch {
				out.Failed[a] = true
			}
			out.Warning = "Keepa lookup failed, try again later"
			return
		}
		observability.LookupRequests.WithLabelValues(c.Source(), "ok").Inc()
		for _, p := range products {
			asin := strings.TrimSpace(p.ASIN)
			if _, requested := out.Images[asin]; !requested {
				continue
			}
			out.Images[asin] = firstImage(p.ImagesCSV)
		}
	})
	return out
}

func (c *KeepaClient) query(ctx context.Context, asins []string, domain int) ([]keepaProduct, error) {
	q := url.Values{}
	q.Set("key", c.APIKey)
	q.Set("domain", strconv.Itoa(domain))
	q.Set("asin", strings.Join(asins, ","))
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/product?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("keepa status %d", resp.StatusCode)
	}

	var result keepaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("keepa error %s: %s", result.Error.Type, result.Error.Message)
	}
	return result.Products, nil
}

// firstImage takes the first entry of Keepa's comma separated image list.
func firstImage(imagesCSV string) string {
	imagesCSV = strings.TrimSpace(imagesCSV)
	if imagesCSV == "" {
		return ""
	}
	first, _, _ := strings.Cut(imagesCSV, ",")
	return marketplace.ImageURL(first)
}
