// Command vsac-fetch retrieves value sets from the NLM Value Set
// Authority Center, caches response pages on disk, merges paginated
// expansions, and optionally republishes the results to a downstream
// FHIR server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"vsacfetch/pkg/cache"
	"vsacfetch/pkg/client"
	"vsacfetch/pkg/fetcher"
	"vsacfetch/pkg/logging"
	"vsacfetch/pkg/output"
	"vsacfetch/pkg/progress"
	"vsacfetch/pkg/runner"
	"vsacfetch/pkg/upload"
)

func main() {
	_ = godotenv.Load()

	var (
		concurrency = flag.Int("concurrency", 4, "number of concurrent fetch workers")
		retries     = flag.Int("retries", 3, "max retries per request on 429/5xx responses")
		retryBase   = flag.Duration("retry-base", time.Second, "backoff unit; delay before retry k is base*2^k")
		retryJitter = flag.Bool("retry-jitter", false, "randomize each backoff delay by ±20%")
		pageSize    = flag.Int("page-size", fetcher.DefaultPageSize, "expansion page size")
		filter      = flag.String("filter", "", "text filter forwarded to $expand")
		vsVersion   = flag.String("valueset-version", "", "pin a valueSetVersion for every identifier")
		outputDir   = flag.String("output-dir", "output", "directory for fetched resources")
		cacheDir    = flag.String("cache-dir", ".vsac-cache", "directory for cached response pages")
		cacheRedis  = flag.String("cache-redis", "", "redis address for a shared page cache (overrides -cache-dir)")
		apiKey      = flag.String("api-key", os.Getenv("UMLS_API_KEY"), "UMLS API key (default $UMLS_API_KEY)")
		baseURL     = flag.String("base-url", client.DefaultBaseURL, "VSAC FHIR base URL")
		rateLimit   = flag.Float64("rate-limit", 0, "max requests per second across workers (0 = unlimited)")
		defOnly     = flag.Bool("definition", false, "fetch definitions only")
		expOnly     = flag.Bool("expansion", false, "fetch expansions only")
		fhirServer  = flag.String("fhir-server", "", "downstream FHIR base URL to upload fetched resources to")
		bundled     = flag.Bool("bundle", false, "upload all resources as a single transaction bundle")
		dryRun      = flag.Bool("dry-run", false, "log intended actions; no network calls, no cache writes")
		logLevel    = flag.String("log-level", "info", "log level (debug, info, warn, error)")
		logPretty   = flag.Bool("log-pretty", false, "human-readable console logs")
	)
	flag.Parse()

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(*logLevel),
		Pretty: *logPretty,
		Output: os.Stderr,
	})

	identifiers := flag.Args()
	if len(identifiers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: vsac-fetch [flags] <oid> [<oid> ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	// Neither mode flag set means both.
	fetchDefinition := *defOnly || !*expOnly
	fetchExpansion := *expOnly || !*defOnly

	// Run-fatal precondition: a real fetch or upload needs the key.
	if *apiKey == "" && !*dryRun {
		logger.Fatal().Msg("UMLS API key is required (set -api-key or UMLS_API_KEY)")
	}

	ctx := context.Background()

	var vsacClient *client.Client
	var store cache.Store
	if !*dryRun {
		cfg := client.DefaultConfig(*apiKey)
		cfg.BaseURL = *baseURL
		cfg.Retry = client.RetryConfig{
			MaxRetries: *retries,
			BaseDelay:  *retryBase,
			Jitter:     *retryJitter,
		}
		cfg.RateLimit = *rateLimit

		var err error
		vsacClient, err = client.New(cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create VSAC client")
		}

		if *cacheRedis != "" {
			redisClient := redis.NewClient(&redis.Options{Addr: *cacheRedis})
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Fatal().Err(err).Str("addr", *cacheRedis).Msg("Failed to connect to Redis")
			}
			store = cache.NewRedisStore(redisClient, 0)
		} else {
			store, err = cache.NewFileStore(*cacheDir)
			if err != nil {
				logger.Fatal().Err(err).Msg("Failed to create cache directory")
			}
		}
	}

	writer, err := output.NewWriter(*outputDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create output directory")
	}

	pipeline := &runner.Pipeline{
		Fetcher: fetcher.New(vsacClient, store, fetcher.Config{
			PageSize: *pageSize,
			Filter:   *filter,
			DryRun:   *dryRun,
		}),
		Writer:     writer,
		Version:    *vsVersion,
		Definition: fetchDefinition,
		Expansion:  fetchExpansion,
	}

	tracker := progress.NewTracker(len(identifiers))
	pool := runner.NewPool(*concurrency)
	results := pool.Run(ctx, identifiers, pipeline.Run, func(res runner.Result) {
		tracker.JobDone(res.Input, res.Err)
	})

	if *fhirServer != "" {
		uploader, err := upload.New(upload.Config{
			BaseURL: *fhirServer,
			Bundled: *bundled,
			DryRun:  *dryRun,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to create uploader")
		}

		var resources []upload.Resource
		for _, res := range results {
			if res.Err != nil {
				continue
			}
			vs := res.Expanded
			if vs == nil {
				vs = res.Definition
			}
			if vs != nil {
				resources = append(resources, upload.Resource{OID: res.OID, ValueSet: vs})
			}
		}

		if err := uploader.Upload(ctx, resources); err != nil {
			logger.Error().Err(err).Msg("Upload failed")
		}
	}

	// Per-identifier failures are reflected in the summary only; the run
	// itself exits 0.
	tracker.LogSummary()
}
