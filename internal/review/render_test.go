package review

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingmatch/internal/lookup"
	"listingmatch/internal/marketplace"
	"listingmatch/internal/model"
	"listingmatch/internal/table"
)

type recordingLookup struct {
	calls map[string][]string
	fail  bool
}

func (r *recordingLookup) FirstImages(_ context.Context, asins []string, mp string) lookup.Result {
	if r.calls == nil {
		r.calls = make(map[string][]string)
	}
	r.calls[mp] = append(r.calls[mp], asins...)

	res := lookup.Result{Images: map[string]string{}}
	if r.fail {
		res.Failed = map[string]bool{}
		res.Warning = "lookup down"
	}
	for _, a := range asins {
		if r.fail {
			res.Images[a] = ""
			res.Failed[a] = true
			continue
		}
		res.Images[a] = "https://img/" + mp + "/" + a + ".jpg"
	}
	return res
}

func (r *recordingLookup) Available() bool { return true }

func (r *recordingLookup) Source() string { return "recording" }

func pageInput(tbl *table.Table) PageInput {
	return PageInput{
		Table:    tbl,
		Mapping:  model.ColumnMapping{ASIN: "ASIN", WholesaleImage: "Image URL", Marketplace: "Country", Extra: []string{"Brand"}},
		Settings: DefaultSettings("it"),
		Matches:  NewMatchState(),
		Page:     1,
	}
}

func TestRenderPage_RowViews(t *testing.T) {
	in := pageInput(sampleTable())
	in.Matches.Set(1, true)
	in.Lookups = map[string]lookup.Result{
		"de": {Images: map[string]string{"B001": "https://img/de/B001.jpg"}},
		"it": {Images: map[string]string{"B002": ""}},
	}

	views := RenderPage(in)
	require.Len(t, views, 3)

	v := views[0]
	assert.Equal(t, 0, v.Index)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, "B001", v.ASIN)
	assert.False(t, v.Match)
	assert.Equal(t, "de", v.Marketplace)
	assert.Equal(t, "https://www.amazon.de/dp/B001", v.ProductURL)
	assert.Equal(t, Image{URL: "https://img/de/B001.jpg", State: ImageOK}, v.MarketplaceImage)
	assert.Equal(t, Image{URL: "https://w/1.jpg", State: ImageOK}, v.WholesaleImage)
	assert.Equal(t, []Field{{Label: "Brand", Value: "Acme"}}, v.Extra)

	v = views[1]
	assert.True(t, v.Match)
	assert.Equal(t, "it", v.Marketplace)
	assert.Equal(t, "https://www.amazon.it/dp/B002", v.ProductURL)
	assert.Equal(t, ImageEmpty, v.MarketplaceImage.State)
	assert.Equal(t, []Field{{Label: "Brand", Value: ""}}, v.Extra)

	v = views[2]
	assert.Equal(t, "-", v.ASIN)
	assert.Empty(t, v.ProductURL)
	assert.Equal(t, ImageEmpty, v.MarketplaceImage.State)
	assert.Equal(t, ImageEmpty, v.WholesaleImage.State)
}

func TestRenderPage_LookupFailureStillRenders(t *testing.T) {
	in := pageInput(sampleTable())
	l := &recordingLookup{fail: true}
	in.Lookups = ResolveImages(context.Background(), l, in)

	views := RenderPage(in)
	require.Len(t, views, 3)
	assert.Equal(t, ImageLookupFailed, views[0].MarketplaceImage.State)
	assert.Equal(t, ImageLookupFailed, views[1].MarketplaceImage.State)
	assert.Equal(t, ImageOK, views[0].WholesaleImage.State)
	assert.Equal(t, []string{"lookup down"}, Warnings(in.Lookups))
}

func TestRenderPage_DisabledToggles(t *testing.T) {
	in := pageInput(sampleTable())
	in.Settings.ShowMarketplaceImages = false
	in.Settings.ShowWholesaleImages = false

	l := &recordingLookup{}
	assert.Nil(t, ResolveImages(context.Background(), l, in))
	assert.Empty(t, l.calls)

	for _, v := range RenderPage(in) {
		assert.Equal(t, ImageDisabled, v.MarketplaceImage.State)
		assert.Equal(t, ImageDisabled, v.WholesaleImage.State)
	}
}

func TestRenderPage_DirectImageColumn(t *testing.T) {
	tbl := &table.Table{
		Headers: []string{"ASIN", "Image URL", "Amazon Image"},
		Rows: [][]string{
			{"B001", "https://w/1.jpg", "41abc"},
			{"B002", "https://w/2.jpg", ""},
		},
	}
	in := pageInput(tbl)
	in.Mapping = model.ColumnMapping{ASIN: "ASIN", WholesaleImage: "Image URL", MarketplaceImage: "Amazon Image"}

	l := &recordingLookup{}
	in.Lookups = ResolveImages(context.Background(), l, in)
	assert.Equal(t, map[string][]string{"it": {"B002"}}, l.calls)

	views := RenderPage(in)
	assert.Equal(t, Image{URL: marketplace.ImageCDN + "41abc.jpg", State: ImageOK}, views[0].MarketplaceImage)
	assert.Equal(t, Image{URL: "https://img/it/B002.jpg", State: ImageOK}, views[1].MarketplaceImage)
}

func TestRenderPage_ProductURLPriority(t *testing.T) {
	tbl := &table.Table{
		Headers: []string{"ASIN", "Image URL", "Link"},
		Rows: [][]string{
			{"B001", "", "https://shop/B001"},
			{"B002", "", ""},
		},
	}
	in := pageInput(tbl)
	in.Mapping = model.ColumnMapping{ASIN: "ASIN", WholesaleImage: "Image URL", ProductURL: "Link"}
	in.Settings.Suffix = "co.uk"

	views := RenderPage(in)
	assert.Equal(t, "https://shop/B001", views[0].ProductURL)
	assert.Equal(t, "https://www.amazon.co.uk/dp/B002", views[1].ProductURL)
}

func TestResolveImages_OnlyCurrentPageGroupedByMarketplace(t *testing.T) {
	tbl := &table.Table{Headers: []string{"ASIN", "Image URL", "Country"}}
	for i := 0; i < 25; i++ {
		country := "it"
		if i%2 == 1 {
			country = "DE"
		}
		tbl.Rows = append(tbl.Rows, []string{fmt.Sprintf("B%03d", i), "", country})
	}
	in := pageInput(tbl)
	in.Mapping.Extra = nil
	in.Settings.PageSize = 10
	in.Page = 3

	l := &recordingLookup{}
	in.Lookups = ResolveImages(context.Background(), l, in)

	assert.Equal(t, map[string][]string{
		"it": {"B020", "B022", "B024"},
		"de": {"B021", "B023"},
	}, l.calls)

	views := RenderPage(in)
	require.Len(t, views, 5)
	assert.Equal(t, 20, views[0].Index)
	assert.Equal(t, "https://img/de/B021.jpg", views[1].MarketplaceImage.URL)
}

func TestRenderPage_MatchStateSurvivesPageSizeChange(t *testing.T) {
	tbl := &table.Table{Headers: []string{"ASIN", "Image URL"}}
	for i := 0; i < 30; i++ {
		tbl.Rows = append(tbl.Rows, []string{fmt.Sprintf("B%03d", i), ""})
	}
	in := pageInput(tbl)
	in.Mapping = model.ColumnMapping{ASIN: "ASIN", WholesaleImage: "Image URL"}
	in.Matches.Set(25, true)

	in.Settings.PageSize = 10
	in.Page = 3
	assert.True(t, RenderPage(in)[5].Match)

	in.Settings.PageSize = 50
	in.Page = 1
	assert.True(t, RenderPage(in)[25].Match)
}
