// Command matcher serves the listing review UI and offers batch helpers.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"listingmatch/internal/config"
	"listingmatch/internal/lookup"
)

var rootCmd = &cobra.Command{
	Use:   "matcher",
	Short: "Visual listing matcher",
	Long:  "Review marketplace listings against wholesale images, mark matches and export the annotated CSV.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connectRedis returns nil when no REDIS_URL is configured.
func connectRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisURL, err)
	}
	return client, nil
}

// newLookup builds the configured image source behind a cache.
func newLookup(cfg *config.Config, client *redis.Client) (lookup.Lookup, error) {
	var source lookup.Lookup
	switch cfg.LookupSource {
	case config.LookupSourceKeepa:
		if cfg.KeepaKey == "" {
			log.Println("[Lookup] KEEPA_KEY not set, marketplace images will be empty")
		}
		source = lookup.NewKeepaClient(cfg.KeepaKey)
	case config.LookupSourcePage:
		source = lookup.NewPageScraper()
	default:
		return nil, fmt.Errorf("unknown LOOKUP_SOURCE %q", cfg.LookupSource)
	}

	var cache lookup.Cache = lookup.NewMemoryCache()
	if client != nil {
		cache = lookup.NewRedisCache(client)
	}
	return lookup.NewCached(source, cache, cfg.LookupCacheTTL), nil
}
