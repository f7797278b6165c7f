package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingmatch/internal/config"
	"listingmatch/internal/lookup"
	"listingmatch/internal/table"
)

type countingLookup struct {
	batches [][]string
}

func (c *countingLookup) FirstImages(_ context.Context, asins []string, mp string) lookup.Result {
	c.batches = append(c.batches, append([]string(nil), asins...))
	res := lookup.Result{Images: map[string]string{}}
	for _, a := range asins {
		if a == "B002" {
			res.Images[a] = ""
			res.Failed = map[string]bool{a: true}
			res.Warning = "B002 unavailable"
			continue
		}
		res.Images[a] = "https://img.test/" + mp + "/" + a + ".jpg"
	}
	return res
}

func (c *countingLookup) Available() bool { return true }

func (c *countingLookup) Source() string { return "counting" }

func TestAnnotateImages(t *testing.T) {
	tbl := &table.Table{
		Headers: []string{"ASIN", "Title"},
		Rows: [][]string{
			{"B001", "one"},
			{"B002", "two"},
			{" B001 ", "again"},
			{"NaN", "none"},
		},
	}
	l := &countingLookup{}

	out, warnings, err := annotateImages(context.Background(), l, tbl, "ASIN", "de")
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"B001", "B002"}}, l.batches)
	assert.Equal(t, []string{"B002 unavailable"}, warnings)
	assert.Equal(t, []string{"ASIN", "Title", ImageColumn}, out.Headers)
	assert.Equal(t, "https://img.test/de/B001.jpg", out.Raw(0, ImageColumn))
	assert.Equal(t, "", out.Raw(1, ImageColumn))
	assert.Equal(t, "https://img.test/de/B001.jpg", out.Raw(2, ImageColumn))
	assert.Equal(t, "", out.Raw(3, ImageColumn))

	// The input table is untouched.
	assert.Equal(t, []string{"ASIN", "Title"}, tbl.Headers)

	_, _, err = annotateImages(context.Background(), l, tbl, "SKU", "de")
	assert.Error(t, err)
}

func TestNewLookup(t *testing.T) {
	cfg := &config.Config{LookupSource: config.LookupSourceKeepa}
	l, err := newLookup(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "keepa", l.Source())
	assert.False(t, l.Available())

	cfg.LookupSource = config.LookupSourcePage
	l, err = newLookup(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "page", l.Source())

	cfg.LookupSource = "ocr"
	_, err = newLookup(cfg, nil)
	assert.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	client, err := connectRedis(context.Background(), &config.Config{})
	require.NoError(t, err)
	assert.Nil(t, client)

	mr := miniredis.RunT(t)
	client, err = connectRedis(context.Background(), &config.Config{RedisURL: mr.Addr()})
	require.NoError(t, err)
	require.NotNil(t, client)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	_, err = connectRedis(context.Background(), &config.Config{RedisURL: addr})
	assert.Error(t, err)
}

func TestLookupCommand_WithoutKeyWritesEmptyColumn(t *testing.T) {
	t.Setenv("KEEPA_KEY", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOOKUP_SOURCE", "keepa")

	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("ASIN;Title\nB001;one\n"), 0o644))

	rootCmd.SetArgs([]string{"lookup", "--file", in, "--marketplace", "it", "--out", out})
	require.NoError(t, rootCmd.Execute())

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "ASIN,Title,MARKETPLACE_IMAGE\nB001,one,\n", string(b))
}
