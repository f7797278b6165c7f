package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"listingmatch/internal/config"
	"listingmatch/internal/lookup"
	"listingmatch/internal/marketplace"
	"listingmatch/internal/table"
)

// ImageColumn is the column the lookup command appends.
const ImageColumn = "MARKETPLACE_IMAGE"

// cliBatchSize bounds one lookup call so progress is visible on large files.
const cliBatchSize = 100

var (
	lookupFile        string
	lookupASINCol     string
	lookupMarketplace string
	lookupOut         string
)

var lookupCmd = &cobra.Command{
	Use:   "lookup",
	Short: "Add marketplace image URLs to a CSV",
	Long:  "Look up the primary marketplace image for every ASIN of a CSV or XLSX file and write the table with an extra MARKETPLACE_IMAGE column.",
	RunE:  runLookup,
}

func init() {
	lookupCmd.Flags().StringVarP(&lookupFile, "file", "f", "", "Input CSV or XLSX file")
	lookupCmd.Flags().StringVar(&lookupASINCol, "asin-col", "ASIN", "Column holding the ASIN")
	lookupCmd.Flags().StringVarP(&lookupMarketplace, "marketplace", "m", "", "Marketplace code (default DEFAULT_MARKETPLACE)")
	lookupCmd.Flags().StringVarP(&lookupOut, "out", "o", "", "Output CSV (default stdout)")
	_ = lookupCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(lookupCmd)
}

func runLookup(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	mp := lookupMarketplace
	if mp == "" {
		mp = cfg.DefaultMarketplace
	}
	if !marketplace.IsKnown(mp) {
		return fmt.Errorf("unsupported marketplace %q", mp)
	}

	f, err := os.Open(lookupFile)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	t, err := table.LoadFile(lookupFile, f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", lookupFile, err)
	}

	client, err := connectRedis(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	l, err := newLookup(cfg, client)
	if err != nil {
		return err
	}

	annotated, warnings, err := annotateImages(cmd.Context(), l, t, lookupASINCol, mp)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	var out io.Writer = cmd.OutOrStdout()
	if lookupOut != "" {
		of, err := os.Create(lookupOut)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer of.Close()
		out = of
	}
	return table.WriteCSV(out, annotated)
}

// annotateImages looks up every distinct ASIN of asinCol and returns a copy of
// t with the image URL of each row in ImageColumn, plus the distinct lookup
// warnings.
func annotateImages(ctx context.Context, l lookup.Lookup, t *table.Table, asinCol, mp string) (*table.Table, []string, error) {
	if !t.HasColumn(asinCol) {
		return nil, nil, fmt.Errorf("column %q not found", asinCol)
	}

	asins := make([]string, t.Len())
	for i := range asins {
		asins[i] = t.Value(i, asinCol)
	}
	distinct := lookup.CleanASINs(asins)

	images := make(map[string]string, len(distinct))
	var warnings []string
	seen := make(map[string]bool)
	batches := (len(distinct) + cliBatchSize - 1) / cliBatchSize
	n := 0
	lookup.Batch(distinct, cliBatchSize, func(batch []string) {
		n++
		log.Printf("[Lookup] batch %d/%d (%d ASINs)", n, batches, len(batch))
		res := l.FirstImages(ctx, batch, mp)
		for _, a := range batch {
			images[a] = res.Image(a)
		}
		if res.Warning != "" && !seen[res.Warning] {
			seen[res.Warning] = true
			warnings = append(warnings, res.Warning)
		}
	})

	values := make([]string, t.Len())
	for i, a := range asins {
		values[i] = images[a]
	}
	return t.WithColumn(ImageColumn, values), warnings, nil
}
