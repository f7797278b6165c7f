package review

import (
	"context"
	"sort"

	"listingmatch/internal/lookup"
	"listingmatch/internal/marketplace"
	"listingmatch/internal/model"
	"listingmatch/internal/table"
)

type ImageState string

const (
	ImageOK           ImageState = "ok"
	ImageEmpty        ImageState = "empty"
	ImageDisabled     ImageState = "disabled"
	ImageLookupFailed ImageState = "lookup-failed"
)

type Image struct {
	URL   string
	State ImageState
}

// Field is an extra display column of a row.
type Field struct {
	Label string
	Value string
}

// RowView is everything the review page shows for one table row.
type RowView struct {
	Index            int // 0-based row index, the MATCH key
	Number           int // 1-based, for display
	ASIN             string
	Match            bool
	ProductURL       string
	Marketplace      string
	MarketplaceImage Image
	WholesaleImage   Image
	Extra            []Field
}

// PageInput is the state needed to render one page. Lookups holds lookup
// results keyed by normalized marketplace code.
type PageInput struct {
	Table    *table.Table
	Mapping  model.ColumnMapping
	Settings model.Settings
	Matches  *MatchState
	Page     int
	Lookups  map[string]lookup.Result
}

func (in PageInput) pager() Pager {
	return Pager{Rows: in.Table.Len(), Size: in.Settings.PageSize}
}

// RenderPage builds the views of the rows in the current page window, in
// table order. It performs no I/O.
func RenderPage(in PageInput) []RowView {
	start, end := in.pager().Window(in.Page)
	views := make([]RowView, 0, end-start)
	for i := start; i < end; i++ {
		views = append(views, renderRow(in, i))
	}
	return views
}

func renderRow(in PageInput, i int) RowView {
	t, m, s := in.Table, in.Mapping, in.Settings
	asin := t.Value(i, m.ASIN)
	mp := rowMarketplace(in, i)

	v := RowView{
		Index:       i,
		Number:      i + 1,
		ASIN:        asin,
		Match:       in.Matches.Get(i),
		ProductURL:  productURL(in, i, asin),
		Marketplace: mp,
	}
	if v.ASIN == "" {
		v.ASIN = "-"
	}

	switch {
	case !s.ShowMarketplaceImages:
		v.MarketplaceImage = Image{State: ImageDisabled}
	case directImage(in, i) != "":
		v.MarketplaceImage = Image{URL: marketplace.ImageURL(directImage(in, i)), State: ImageOK}
	case asin == "":
		v.MarketplaceImage = Image{State: ImageEmpty}
	default:
		res := in.Lookups[mp]
		switch {
		case res.Image(asin) != "":
			v.MarketplaceImage = Image{URL: res.Image(asin), State: ImageOK}
		case res.FailedFor(asin):
			v.MarketplaceImage = Image{State: ImageLookupFailed}
		default:
			v.MarketplaceImage = Image{State: ImageEmpty}
		}
	}

	switch wholesale := t.Value(i, m.WholesaleImage); {
	case !s.ShowWholesaleImages:
		v.WholesaleImage = Image{State: ImageDisabled}
	case wholesale == "":
		v.WholesaleImage = Image{State: ImageEmpty}
	default:
		v.WholesaleImage = Image{URL: wholesale, State: ImageOK}
	}

	for _, col := range m.Extra {
		v.Extra = append(v.Extra, Field{Label: col, Value: t.Value(i, col)})
	}
	return v
}

func directImage(in PageInput, i int) string {
	if in.Mapping.MarketplaceImage == "" {
		return ""
	}
	return in.Table.Value(i, in.Mapping.MarketplaceImage)
}

// rowMarketplace is the row's own code when a marketplace column is mapped
// and holds a known code, else the session default.
func rowMarketplace(in PageInput, i int) string {
	if col := in.Mapping.Marketplace; col != "" {
		if code := marketplace.Normalize(in.Table.Value(i, col)); marketplace.IsKnown(code) {
			return code
		}
	}
	return marketplace.Normalize(in.Settings.Marketplace)
}

// productURL prefers a mapped URL cell, then the row's marketplace code,
// then the free-text suffix, then the session marketplace.
func productURL(in PageInput, i int, asin string) string {
	if col := in.Mapping.ProductURL; col != "" {
		if u := in.Table.Value(i, col); u != "" {
			return u
		}
	}
	if col := in.Mapping.Marketplace; col != "" {
		if code := in.Table.Value(i, col); marketplace.IsKnown(code) {
			return marketplace.ProductURL(asin, code)
		}
	}
	if in.Settings.Suffix != "" {
		return marketplace.ProductURLWithSuffix(asin, in.Settings.Suffix)
	}
	return marketplace.ProductURL(asin, in.Settings.Marketplace)
}

// ResolveImages looks up marketplace images for the ASINs of the current
// page that have no direct image, one request per marketplace. It returns
// nil when marketplace images are hidden.
func ResolveImages(ctx context.Context, l lookup.Lookup, in PageInput) map[string]lookup.Result {
	if !in.Settings.ShowMarketplaceImages || in.Table.Len() == 0 {
		return nil
	}

	start, end := in.pager().Window(in.Page)
	byMarket := make(map[string][]string)
	for i := start; i < end; i++ {
		asin := in.Table.Value(i, in.Mapping.ASIN)
		if asin == "" || directImage(in, i) != "" {
			continue
		}
		mp := rowMarketplace(in, i)
		byMarket[mp] = append(byMarket[mp], asin)
	}

	markets := make([]string, 0, len(byMarket))
	for mp := range byMarket {
		markets = append(markets, mp)
	}
	sort.Strings(markets)

	out := make(map[string]lookup.Result, len(markets))
	for _, mp := range markets {
		out[mp] = l.FirstImages(ctx, byMarket[mp], mp)
	}
	return out
}

// Warnings collects the distinct lookup warnings in marketplace order.
func Warnings(results map[string]lookup.Result) []string {
	markets := make([]string, 0, len(results))
	for mp := range results {
		markets = append(markets, mp)
	}
	sort.Strings(markets)

	seen := make(map[string]bool)
	var out []string
	for _, mp := range markets {
		w := results[mp].Warning
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}
