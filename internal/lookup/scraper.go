package lookup

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"listingmatch/internal/marketplace"
	"listingmatch/internal/observability"
)

// PageScraper reads the primary image straight from the marketplace product
// page. It needs no credentials but costs one request per ASIN.
type PageScraper struct {
	HTTP      *http.Client
	UserAgent string
	// URLFor builds the product page URL; defaults to marketplace.ProductURL.
	URLFor func(asin, mp string) string
}

func NewPageScraper() *PageScraper {
	return &PageScraper{
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		UserAgent: "Mozilla/5.0",
		URLFor:    marketplace.ProductURL,
	}
}

func (s *PageScraper) Available() bool { return true }

func (s *PageScraper) Source() string { return "page" }

// FirstImages fetches each product page in turn. A failed page only empties
// its own ASIN.
func (s *PageScraper) FirstImages(ctx context.Context, asins []string, mp string) Result {
	asins = CleanASINs(asins)
	out := emptyResult(asins)
	if len(asins) == 0 {
		return out
	}
	if !marketplace.IsKnown(mp) {
		observability.LookupRequests.WithLabelValues(s.Source(), "unsupported").Inc()
		return failedResult(asins, fmt.Sprintf("unknown marketplace %q", mp))
	}

	for _, asin := range asins {
		img, err := s.fetchImage(ctx, s.URLFor(asin, mp))
		if err != nil {
			log.Printf("[Lookup] product page for %s on %s: %v", asin, mp, err)
			observability.LookupRequests.WithLabelValues(s.Source(), "error").Inc()
			if out.Failed == nil {
				out.Failed = make(map[string]bool)
			}
			out.Failed[asin] = true
			out.Warning = "some product pages could not be fetched"
			continue
		}
		observability.LookupRequests.WithLabelValues(s.Source(), "ok").Inc()
		out.Images[asin] = img
	}
	return out
}

func (s *PageScraper) fetchImage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}
	return ParseProductImage(doc), nil
}

// ParseProductImage extracts the primary product image from a product page,
// "" when none is found.
func ParseProductImage(doc *goquery.Document) string {
	candidates := []struct {
		selector, attr string
	}{
		{"#landingImage", "data-old-hires"},
		{"#landingImage", "src"},
		{"#imgBlkFront", "src"},
		{`meta[property="og:image"]`, "content"},
	}
	for _, c := range candidates {
		v, ok := doc.Find(c.selector).First().Attr(c.attr)
		v = strings.TrimSpace(v)
		if ok && v != "" && !strings.HasPrefix(v, "data:") {
			return v
		}
	}
	return ""
}
