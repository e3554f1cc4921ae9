package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/cache"
	"github.com/introduceourtown/townrec/pkg/llms"
	"github.com/introduceourtown/townrec/pkg/memory"
	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/parser"
	"github.com/introduceourtown/townrec/pkg/places"
	"github.com/introduceourtown/townrec/pkg/recommend"
	"github.com/introduceourtown/townrec/pkg/server"
	"github.com/introduceourtown/townrec/pkg/store"
	"github.com/introduceourtown/townrec/pkg/store/postgres"
	"github.com/introduceourtown/townrec/pkg/tasks"
	"github.com/introduceourtown/townrec/pkg/telemetry"
)

const shutdownTimeout = 10 * time.Second

// closer is anything released on shutdown.
type closer struct {
	name string
	c    interface{ Close() error }
}

// run is the entrypoint for the townrec server
func run() {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		log.Fatalf("Error configuring townrec: %s", err)
	}

	handleCLIOptions(cfg)

	log.Infof("Starting townrec server version %s", config.VersionString)

	config.ConfigureLogging(cfg)

	ctx, cancel := context.WithCancel(context.Background())

	shutdownTracer, err := telemetry.InitTracer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	appState, closers, err := NewAppState(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	srv := server.Create(appState)
	setupSignalHandler(cancel, shutdownTracer, closers)

	log.Infof("Listening on: %s", srv.Addr)
	err = srv.ListenAndServe()
	if err != nil {
		log.Fatal(err)
	}
}

// NewAppState builds the LLM client, conversation memory, parser and
// recommendation service from cfg, plus the optional cache, persistence and
// vision components. The returned closers release what was opened.
func NewAppState(ctx context.Context, cfg *config.Config) (*models.AppState, []closer, error) {
	var closers []closer

	llmClient, err := llms.NewLLMClient(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	responseParser, err := parser.NewFromConfig(cfg)
	if err != nil {
		return nil, nil, err
	}

	appState := &models.AppState{
		LLMClient: llmClient,
		MemoryStore: memory.NewStore(
			memory.NewLLMSummarizer(llmClient),
			llmClient,
			memory.Options{
				MaxTokenLimit:    cfg.Memory.MaxTokenLimit,
				SummaryMaxTokens: cfg.Memory.SummaryMaxTokens,
				SummaryTimeout:   cfg.LLM.Timeout,
			},
		),
		Parser: responseParser,
		Config: cfg,
	}

	if cfg.Persistence.Enabled {
		c, err := initializePersistence(ctx, appState)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, c...)
	}

	if cfg.Reference.Enabled {
		appState.ReferenceProvider = places.NewOpenDataReferences(cfg)
		log.Infof("Reference data enabled: %s", cfg.Reference.Dataset)
	}

	var recommender models.Recommender = recommend.NewServiceFromAppState(appState)
	if cfg.Cache.Enabled {
		responseCache, err := cache.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		if c, ok := responseCache.(interface{ Close() error }); ok {
			closers = append(closers, closer{name: "response cache", c: c})
		}
		recommender = recommend.NewCachedRecommender(recommender, responseCache)
	}
	appState.Recommender = recommender

	if cfg.Vision.Enabled {
		detector, err := places.NewVisionLabelDetector(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		appState.PlaceFinder = places.NewFinder(
			detector,
			places.NewPlacesTextSearch(cfg),
			cfg.Vision.MaxLabels,
		)
		log.Info("Vision label detection enabled")
	}

	return appState, closers, nil
}

// initializePersistence connects to postgres, creates the schema and starts
// the task router that writes recommendation records.
func initializePersistence(ctx context.Context, appState *models.AppState) ([]closer, error) {
	cfg := appState.Config
	if cfg.Persistence.Postgres.DSN == "" {
		return nil, errors.New(store.ErrPostgresDSNNotSet)
	}

	db, err := postgres.NewPostgresConn(cfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.CreateSchema(ctx, db); err != nil {
		return nil, err
	}
	appState.RecommendationStore = postgres.NewRecommendationDAO(db)

	backend, err := tasks.NewBackend(cfg)
	if err != nil {
		return nil, err
	}
	if err := tasks.RunTaskRouter(ctx, appState, backend); err != nil {
		return nil, err
	}

	log.Infof("Persisting recommendations through the %s task queue", cfg.Persistence.Queue)

	// The router closes the backend, so it goes before the store.
	return []closer{
		{name: "task router", c: appState.TaskRouter},
		{name: "recommendation store", c: appState.RecommendationStore},
	}, nil
}

// handleCLIOptions handles CLI options that don't require the server to run
func handleCLIOptions(cfg *config.Config) {
	if showVersion {
		fmt.Println(config.VersionString)
		os.Exit(0)
	}
	if dumpConfig {
		redacted := *cfg
		redacted.LLM.OpenAIAPIKey = redact(redacted.LLM.OpenAIAPIKey)
		redacted.Places.APIKey = redact(redacted.Places.APIKey)
		redacted.Vision.APIKey = redact(redacted.Vision.APIKey)
		redacted.Reference.APIKey = redact(redacted.Reference.APIKey)
		redacted.Cache.Redis.Password = redact(redacted.Cache.Redis.Password)
		redacted.Persistence.Postgres.DSN = redact(redacted.Persistence.Postgres.DSN)
		out, err := json.MarshalIndent(redacted, "", "  ")
		if err != nil {
			log.Fatalf("Error dumping config: %v", err)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}

// setupSignalHandler releases the task router, stores and tracer on termination
func setupSignalHandler(
	cancel context.CancelFunc,
	shutdownTracer func(context.Context) error,
	closers []closer,
) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signalCh
		cancel()
		for _, c := range closers {
			store.LogClose(c.name, c.c)
		}

		ctx, done := context.WithTimeout(context.Background(), shutdownTimeout)
		defer done()
		if err := shutdownTracer(ctx); err != nil {
			log.Errorf("Error shutting down tracer: %v", err)
		}
		os.Exit(0)
	}()
}
