// Package marketplace maps marketplace codes to storefront domains and builds
// product-page and image CDN URLs.
package marketplace

import (
	"strings"
)

// ImageCDN is the base path for product image tokens.
const ImageCDN = "https://m.media-amazon.com/images/I/"

const defaultImageExt = ".jpg"

// codes keeps the display order of the supported marketplaces.
var codes = []string{"it", "de", "fr", "es", "uk", "us", "nl", "se", "pl"}

var domains = map[string]string{
	"it": "amazon.it",
	"de": "amazon.de",
	"fr": "amazon.fr",
	"es": "amazon.es",
	"uk": "amazon.co.uk",
	"us": "amazon.com",
	"nl": "amazon.nl",
	"se": "amazon.se",
	"pl": "amazon.pl",
}

// Keepa domain ids. Storefronts missing here are not served by Keepa.
var keepaDomains = map[string]int{
	"us": 1,
	"uk": 2,
	"de": 3,
	"fr": 4,
	"it": 8,
	"es": 9,
}

// Codes returns the supported marketplace codes in display order.
func Codes() []string {
	return append([]string(nil), codes...)
}

// Normalize lowercases and trims a marketplace code.
func Normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Domain returns the storefront domain for a code.
func Domain(code string) (string, bool) {
	d, ok := domains[Normalize(code)]
	return d, ok
}

// IsKnown reports whether code is a supported marketplace.
func IsKnown(code string) bool {
	_, ok := Domain(code)
	return ok
}

// ProductURL builds https://www.<domain>/dp/<asin>. It returns "" when the
// ASIN is blank or the code is not a supported marketplace.
func ProductURL(asin, code string) string {
	asin = strings.TrimSpace(asin)
	domain, ok := Domain(code)
	if asin == "" || !ok {
		return ""
	}
	return "https://www." + domain + "/dp/" + asin
}

// ProductURLWithSuffix builds a product URL from a free-text storefront
// suffix. "it", ".it", "amazon.it" and "www.amazon.it" all resolve to
// amazon.it; "co.uk" resolves to amazon.co.uk.
func ProductURLWithSuffix(asin, suffix string) string {
	asin = strings.TrimSpace(asin)
	domain := suffixDomain(suffix)
	if asin == "" || domain == "" {
		return ""
	}
	return "https://www." + domain + "/dp/" + asin
}

func suffixDomain(suffix string) string {
	s := strings.ToLower(strings.TrimSpace(suffix))
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "www.")
	s = strings.Trim(s, "./")
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "amazon.") {
		return s
	}
	return "amazon." + s
}

// ImageURL turns an image token into a CDN URL, appending .jpg when the
// token has no extension. Absolute URLs are returned unchanged.
func ImageURL(token string) string {
	img := strings.TrimSpace(token)
	if img == "" {
		return ""
	}
	if strings.HasPrefix(img, "http://") || strings.HasPrefix(img, "https://") {
		return img
	}
	if !strings.Contains(img, ".") {
		img += defaultImageExt
	}
	return ImageCDN + img
}

// KeepaDomain returns the Keepa domain id for a marketplace code.
func KeepaDomain(code string) (int, bool) {
	id, ok := keepaDomains[Normalize(code)]
	return id, ok
}
