// Package lookup resolves the primary marketplace image for a batch of ASINs.
//
// Lookups never fail as a whole: a missing credential, an unsupported
// marketplace, a network or quota error all degrade to empty image URLs for
// the affected ASINs, flagged in Result.Failed so callers can tell "lookup
// failed" from "no image".
package lookup

import (
	"context"
	"strings"
)

// Lookup fetches the first product image for each ASIN on one marketplace.
type Lookup interface {
	FirstImages(ctx context.Context, asins []string, marketplace string) Result
	// Available reports whether the lookup is configured at all.
	Available() bool
	Source() string
}

// Result maps each requested ASIN to an image URL, "" when unavailable.
type Result struct {
	Images map[string]string
	Failed map[string]bool
	// Warning is a human readable reason for failed ASINs.
	Warning string
}

// Image returns the URL for an ASIN, "" when there is none.
func (r Result) Image(asin string) string {
	return r.Images[strings.TrimSpace(asin)]
}

// FailedFor reports whether the lookup for asin failed, as opposed to
// returning no image.
func (r Result) FailedFor(asin string) bool {
	return r.Failed[strings.TrimSpace(asin)]
}

// HasFailures reports whether any ASIN of the batch failed.
func (r Result) HasFailures() bool {
	return len(r.Failed) > 0
}

func emptyResult(asins []string) Result {
	out := Result{Images: make(map[string]string, len(asins))}
	for _, a := range asins {
		out.Images[a] = ""
	}
	return out
}

func failedResult(asins []string, warning string) Result {
	out := emptyResult(asins)
	out.Warning = warning
	out.Failed = make(map[string]bool, len(asins))
	for _, a := range asins {
		out.Failed[a] = true
	}
	return out
}

// CleanASINs trims, drops blanks and de-duplicates while keeping order.
func CleanASINs(asins []string) []string {
	seen := make(map[string]bool, len(asins))
	out := make([]string, 0, len(asins))
	for _, a := range asins {
		a = strings.TrimSpace(a)
		if a == "" || seen[a] {
			continue
		}
		seen[a] = true
		out = append(out, a)
	}
	return out
}

// Disabled is the lookup used when no source is configured. Every ASIN
// comes back empty and failed.
type Disabled struct {
	Reason string
}

func (d Disabled) FirstImages(_ context.Context, asins []string, _ string) Result {
	asins = CleanASINs(asins)
	if len(asins) == 0 {
		return emptyResult(nil)
	}
	return failedResult(asins, d.Reason)
}

func (Disabled) Available() bool { return false }

func (Disabled) Source() string { return "disabled" }
