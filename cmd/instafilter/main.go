package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/DMarby/instafilter/internal/api"
	"github.com/DMarby/instafilter/internal/cache"
	"github.com/DMarby/instafilter/internal/cache/memory"
	"github.com/DMarby/instafilter/internal/cache/redis"
	"github.com/DMarby/instafilter/internal/cmd"
	"github.com/DMarby/instafilter/internal/counter"
	"github.com/DMarby/instafilter/internal/filter"
	"github.com/DMarby/instafilter/internal/health"
	"github.com/DMarby/instafilter/internal/hmac"
	"github.com/DMarby/instafilter/internal/library"
	"github.com/DMarby/instafilter/internal/logger"
	"github.com/DMarby/instafilter/internal/metrics"
	"github.com/DMarby/instafilter/internal/pipeline"
	"github.com/DMarby/instafilter/internal/review"
	"github.com/DMarby/instafilter/internal/session"
	"github.com/DMarby/instafilter/internal/storage"
	"github.com/DMarby/instafilter/internal/storage/spaces"
	"github.com/DMarby/instafilter/internal/tracing"

	fileCounter "github.com/DMarby/instafilter/internal/counter/file"
	fileLibrary "github.com/DMarby/instafilter/internal/library/file"
	fileStorage "github.com/DMarby/instafilter/internal/storage/file"

	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
)

// Comandline flags
var (
	// Global
	listen        = flag.String("listen", ":8080", "listen address")
	metricsListen = flag.String("metrics-listen", "127.0.0.1:8082", "metrics listen address")
	rootURL       = flag.String("root-url", "http://localhost:8080", "root url, used for share and pagination links")
	loglevel      = zap.LevelFlag("log-level", zap.InfoLevel, "log level (default \"info\") (debug, info, warn, error, dpanic, panic, fatal)")
	tracingOTLP   = flag.Bool("tracing", false, "export traces over otlp, configured through the OTEL_EXPORTER_OTLP_* environment variables")

	// Processing
	workers       = flag.Int("workers", 3, "number of concurrent renders")
	outputFormat  = flag.String("output-format", "jpeg", "output image format (jpeg, png)")
	outputQuality = flag.Int("output-quality", 90, "jpeg output quality")
	maxImageSize  = flag.Int("max-image-size", 2048, "imported images are scaled down to fit within this many pixels, 0 to disable")
	maxUploadSize = flag.Int64("max-upload-size", 20<<20, "maximum size of an uploaded image in bytes")

	// Sessions
	sessionIdleTimeout   = flag.Duration("session-idle-timeout", 30*time.Minute, "how long an unused session is kept")
	sessionEvictInterval = flag.Duration("session-evict-interval", time.Minute, "how often idle sessions are evicted")

	// Review requests
	reviewThreshold = flag.Int("review-threshold", counter.DefaultThreshold, "number of filter selections between review requests")

	// Counter
	counterBackend  = flag.String("counter", "file", "which counter store to use (file, redis)")
	counterFilePath = flag.String("counter-file-path", "./test/fixtures/counter.json", "path to the counter file")

	// Storage
	storageBackend = flag.String("storage", "file", "which storage backend to use for the photo library (file, spaces)")

	// Storage - File
	storageFilePath = flag.String("storage-file-path", "./test/fixtures/library", "path to the file storage")

	// Storage - Spaces
	storageSpacesSpace          = flag.String("storage-spaces-space", "", "digitalocean space to use")
	storageSpacesEndpoint       = flag.String("storage-spaces-endpoint", "", "spaces endpoint")
	storageSpacesAccessKey      = flag.String("storage-spaces-access-key", "", "spaces access key")
	storageSpacesSecretKey      = flag.String("storage-spaces-secret-key", "", "spaces secret key")
	storageSpacesForcePathStyle = flag.Bool("storage-spaces-force-path-style", false, "use path style addressing, for s3 compatible servers such as minio")

	// Library
	libraryFilePath = flag.String("library-file-path", "./test/fixtures/library/library.json", "path to the library manifest")

	// Cache
	cacheBackend    = flag.String("cache", "memory", "which cache backend to use for rendered outputs (memory, redis)")
	cacheMemorySize = flag.Int("cache-memory-size", 512, "maximum number of outputs kept in the memory cache")

	// Cache - Redis
	cacheRedisAddress  = flag.String("cache-redis-address", "redis://127.0.0.1:6379", "redis address, may contain authentication details")
	cacheRedisPoolSize = flag.Int("cache-redis-pool-size", 10, "redis connection pool size")
	cacheRedisTTL      = flag.Duration("cache-redis-ttl", 24*time.Hour, "how long rendered outputs are kept in redis")

	// Healthcheck
	healthCheckPhotoID = flag.String("health-check-photo-id", "1", "library photo ID to request to check library and storage health")

	// Sharing
	hmacKey  = flag.String("hmac-key", "", "hmac key used to sign share links")
	shareTTL = flag.Duration("share-ttl", 24*time.Hour, "how long share links are valid")
)

type backends struct {
	storage      storage.Provider
	library      library.Provider
	cache        cache.Provider
	counterStore counter.Store
	shutdown     []func()
}

func main() {
	// Parse environment variables, from the environment and an optional .env file
	if err := cmd.LoadEnv("INSTAFILTER", ".env"); err != nil {
		panic(err)
	}

	// Parse commandline flags
	flag.Parse()

	// Initialize the logger
	log := logger.New(*loglevel)
	defer log.Sync()

	// Set GOMAXPROCS
	maxprocs.Set(maxprocs.Logger(log.Infof))

	// Set up context for shutting down
	shutdownCtx, shutdown := context.WithCancel(context.Background())
	defer shutdown()

	// Initialize tracing
	tracer := tracing.Noop(log, "instafilter")
	if *tracingOTLP {
		var err error
		tracer, err = tracing.New(shutdownCtx, log, "instafilter")
		if err != nil {
			log.Fatalf("error initializing tracing: %s", err)
		}
	}
	defer tracer.Shutdown(context.Background())

	format, err := pipeline.ParseFormat(*outputFormat)
	if err != nil {
		log.Fatalf("error parsing output format: %s", err)
	}

	h, err := hmac.New(*hmacKey)
	if err != nil {
		log.Fatalf("error initializing hmac: %s", err)
	}

	// Initialize the storage, library, cache and counter store
	b, err := setupBackends(shutdownCtx, tracer)
	if err != nil {
		log.Fatalf("error initializing backends: %s", err)
	}
	defer b.close()

	// Initialize the render pipeline
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	processor := pipeline.New(processorCtx, log, tracer, *workers, b.cache, *outputQuality)

	// Initialize the sessions, evicting idle ones in the background
	registry := filter.Default()
	sessions := session.NewStore(session.Config{
		Log:          log,
		Registry:     registry,
		Processor:    processor,
		Counter:      counter.New(b.counterStore, *reviewThreshold, review.Logging(log)),
		Format:       format,
		MaxImageSize: *maxImageSize,
	}, *sessionIdleTimeout)
	go sessions.Run(shutdownCtx, *sessionEvictInterval)

	// Initialize and start the health checker
	checkerCtx, checkerCancel := context.WithCancel(context.Background())
	defer checkerCancel()

	checker := &health.Checker{
		Ctx:          checkerCtx,
		Storage:      b.storage,
		Library:      b.library,
		PhotoID:      *healthCheckPhotoID,
		Cache:        b.cache,
		CounterStore: b.counterStore,
		Log:          log,
	}
	go checker.Run()

	// Start the metrics http server
	go metrics.Serve(shutdownCtx, log, checker, *metricsListen)

	// Start and listen on http
	api := &api.API{
		Sessions:       sessions,
		Registry:       registry,
		Library:        b.library,
		Storage:        b.storage,
		Outputs:        processor,
		HealthChecker:  checker,
		Log:            log,
		Tracer:         tracer,
		RootURL:        *rootURL,
		HandlerTimeout: cmd.HandlerTimeout,
		HMAC:           h,
		ShareTTL:       *shareTTL,
		MaxUploadSize:  *maxUploadSize,
	}
	server := &http.Server{
		Addr:         *listen,
		Handler:      api.Router(),
		ReadTimeout:  cmd.ReadTimeout,
		WriteTimeout: cmd.WriteTimeout,
		ErrorLog:     logger.NewHTTPErrorLog(log),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Infof("shutting down the http server: %s", err)
			shutdown()
		}
	}()

	log.Infof("http server listening on %s", *listen)

	// Wait for shutdown or error
	err = cmd.WaitForInterrupt(shutdownCtx)
	log.Infof("shutting down: %s", err)

	// Shut down http server
	serverCtx, serverCancel := context.WithTimeout(context.Background(), cmd.WriteTimeout)
	defer serverCancel()
	if err := server.Shutdown(serverCtx); err != nil {
		log.Warnf("error shutting down: %s", err)
	}
}

func setupBackends(ctx context.Context, tracer *tracing.Tracer) (b *backends, err error) {
	b = &backends{}

	// Storage
	switch *storageBackend {
	case "file":
		b.storage, err = fileStorage.New(*storageFilePath)
	case "spaces":
		b.storage, err = spaces.New(ctx, *storageSpacesSpace, *storageSpacesEndpoint, *storageSpacesAccessKey, *storageSpacesSecretKey, *storageSpacesForcePathStyle)
	default:
		err = fmt.Errorf("invalid storage backend")
	}

	if err != nil {
		return
	}

	// Library
	b.library, err = fileLibrary.New(*libraryFilePath)
	if err != nil {
		return
	}

	// Cache
	switch *cacheBackend {
	case "memory":
		b.cache = memory.New(*cacheMemorySize)
	case "redis":
		b.cache, err = redis.New(ctx, tracer, *cacheRedisAddress, *cacheRedisPoolSize, "output:", *cacheRedisTTL)
	default:
		err = fmt.Errorf("invalid cache backend")
	}

	if err != nil {
		return
	}
	b.shutdown = append(b.shutdown, b.cache.Shutdown)

	// Counter
	switch *counterBackend {
	case "file":
		b.counterStore, err = fileCounter.New(*counterFilePath)
	case "redis":
		var provider *redis.Provider
		provider, err = redis.New(ctx, tracer, *cacheRedisAddress, 1, "counter:", 0)
		if err == nil {
			b.counterStore = &counter.CacheStore{Provider: provider}
			b.shutdown = append(b.shutdown, provider.Shutdown)
		}
	default:
		err = fmt.Errorf("invalid counter backend")
	}

	return
}

func (b *backends) close() {
	for _, shutdown := range b.shutdown {
		shutdown()
	}
}
