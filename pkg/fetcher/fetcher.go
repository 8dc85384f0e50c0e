// Package fetcher retrieves value set definitions and expansions from the
// vocabulary service, paging through expansion results and caching every
// page.
package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"vsacfetch/pkg/cache"
	"vsacfetch/pkg/client"
	"vsacfetch/pkg/fhir"
)

// DefaultPageSize is the expansion page size requested from VSAC.
const DefaultPageSize = 1000

// Config holds fetcher configuration.
type Config struct {
	// PageSize is the number of expansion items requested per page.
	PageSize int

	// Filter is an optional text filter forwarded to $expand.
	Filter string

	// DryRun substitutes stub resources for all fetches. No network
	// traffic is issued and no cache entries are created.
	DryRun bool
}

// Fetcher retrieves one logical resource per call, resolving each request
// through the page cache before the network.
type Fetcher struct {
	client *client.Client
	store  cache.Store
	config Config
	logger zerolog.Logger
}

// New creates a fetcher. The client may be nil only in dry-run mode.
func New(c *client.Client, store cache.Store, cfg Config) *Fetcher {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	return &Fetcher{
		client: c,
		store:  store,
		config: cfg,
		logger: log.With().Str("component", "fetcher").Logger(),
	}
}

// Definition fetches the ValueSet definition resource for one OID. A
// single request, no pagination.
func (f *Fetcher) Definition(ctx context.Context, oid, version string) (*fhir.ValueSet, error) {
	if f.config.DryRun {
		return stubValueSet(oid, version), nil
	}

	key := cache.Key{OID: oid, Version: version, Definition: true}
	query := url.Values{}
	if version != "" {
		query.Set("valueSetVersion", version)
	}

	payload, err := f.fetch(ctx, key, "/ValueSet/"+oid, query)
	if err != nil {
		return nil, fmt.Errorf("definition %s: %w", oid, err)
	}

	var vs fhir.ValueSet
	if err := json.Unmarshal(payload, &vs); err != nil {
		return nil, fmt.Errorf("definition %s: decode: %w", oid, err)
	}
	return &vs, nil
}

// Expansion fetches all pages of the $expand result for one OID and
// merges them into a single ValueSet. Pages are requested strictly in
// increasing offset order. Paging stops only when a page returns zero
// items or the cumulative item count reaches the declared total; a short
// page without a declared total does not stop paging.
func (f *Fetcher) Expansion(ctx context.Context, oid, version string) (*fhir.ValueSet, error) {
	if f.config.DryRun {
		return stubValueSet(oid, version), nil
	}

	var pages []*fhir.ValueSet
	fetched := 0

	for offset := 0; ; offset += f.config.PageSize {
		key := cache.Key{OID: oid, Version: version, Offset: offset}
		query := url.Values{}
		query.Set("offset", strconv.Itoa(offset))
		query.Set("count", strconv.Itoa(f.config.PageSize))
		if version != "" {
			query.Set("valueSetVersion", version)
		}
		if f.config.Filter != "" {
			query.Set("filter", f.config.Filter)
		}

		payload, err := f.fetch(ctx, key, "/ValueSet/"+oid+"/$expand", query)
		if err != nil {
			return nil, fmt.Errorf("expansion %s offset %d: %w", oid, offset, err)
		}

		var page fhir.ValueSet
		if err := json.Unmarshal(payload, &page); err != nil {
			return nil, fmt.Errorf("expansion %s offset %d: decode: %w", oid, offset, err)
		}
		pages = append(pages, &page)

		returned := 0
		if page.Expansion != nil {
			returned = len(page.Expansion.Contains)
		}
		fetched += returned

		f.logger.Debug().
			Str("oid", oid).
			Int("offset", offset).
			Int("returned", returned).
			Int("fetched", fetched).
			Msg("Expansion page")

		if returned == 0 {
			break
		}
		if page.Expansion != nil && page.Expansion.Total != nil && fetched >= *page.Expansion.Total {
			break
		}
	}

	return fhir.MergeExpansionPages(pages)
}

// fetch resolves one request through the cache, hitting the network only
// on a miss. A successful fetch is written to the cache before the
// payload is returned.
func (f *Fetcher) fetch(ctx context.Context, key cache.Key, path string, query url.Values) ([]byte, error) {
	payload, err := f.store.Get(ctx, key)
	if err == nil {
		f.logger.Debug().
			Str("key", key.String()).
			Bool("cache_hit", true).
			Msg("Cache hit")
		return payload, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		f.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache read error")
	}

	payload, err = f.client.GetJSON(ctx, path, query)
	if err != nil {
		return nil, err
	}

	if err := f.store.Put(ctx, key, payload); err != nil {
		f.logger.Warn().Err(err).Str("key", key.String()).Msg("Cache write failed")
	}

	return payload, nil
}

// stubValueSet is the dry-run placeholder for a fetched resource.
func stubValueSet(oid, version string) *fhir.ValueSet {
	return &fhir.ValueSet{
		ResourceType: "ValueSet",
		ID:           oid,
		Version:      version,
		Name:         "DryRunPlaceholder",
		Status:       "unknown",
	}
}
