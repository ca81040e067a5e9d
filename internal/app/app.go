package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/launchpane/querybox/internal/chat"
	"github.com/launchpane/querybox/internal/config"
	"github.com/launchpane/querybox/internal/gateway"
	"github.com/launchpane/querybox/internal/httpserver"
	"github.com/launchpane/querybox/internal/httpserver/deps"
	"github.com/launchpane/querybox/internal/index"
	"github.com/launchpane/querybox/internal/llm"
	"github.com/launchpane/querybox/internal/logger"
	"github.com/launchpane/querybox/internal/redis"
	"github.com/launchpane/querybox/internal/scheduler"
	redisstore "github.com/launchpane/querybox/internal/store/redis"
	"github.com/launchpane/querybox/internal/suggest"
	"github.com/launchpane/querybox/internal/version"
	"github.com/launchpane/querybox/internal/websearch"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	memIndex    *index.Memory
	reloader    *scheduler.CuratedReloader
	gc          *scheduler.HistoryGC
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	// Initialize Redis early - fail fast if unavailable
	loggerClient.Infof("Connecting to Redis at %s", cfg.RedisAddr)
	redisClient, err := redis.New(redis.ConnectOptions{
		Addr:           cfg.RedisAddr,
		User:           cfg.RedisUser,
		Password:       cfg.RedisPassword,
		RedisDB:        cfg.RedisDB,
		DialTimeout:    cfg.RedisDT,
		ReadTimeout:    cfg.RedisRT,
		WriteTimeout:   cfg.RedisWT,
		PoolSize:       cfg.RedisPoolSize,
		ConnectTimeout: cfg.RedisConnectTimeout,
		RetryInterval:  cfg.RedisRetryInterval,
		MaxWait:        cfg.RedisMaxWait,
		PingTimeout:    cfg.RedisPingTimeout,
		WarnThreshold:  cfg.RedisWarnThreshold,
	}, loggerClient)
	if err != nil {
		loggerClient.Errorf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	loggerClient.Info("Redis initialized successfully")

	// Initialize memory index
	memIndex := index.NewMemory()

	// Initialize Redis store
	store := redisstore.NewStore(redisClient)

	// Sync persisted suggestion state into memory on startup
	syncer := scheduler.NewRedisSyncer(store, memIndex, loggerClient)
	if err := syncer.Sync(context.Background()); err != nil {
		loggerClient.Warn("failed to sync from redis on startup, starting with an empty index",
			logger.Error(err))
	}

	// Remote autocomplete (optional)
	var remote suggest.RemoteCompleter
	if cfg.AutocompleteURL != "" {
		remote = gateway.NewClient(cfg.AutocompleteURL, cfg.AutocompleteTimeout, loggerClient)
		loggerClient.Info("remote autocomplete enabled",
			logger.String("endpoint", cfg.AutocompleteURL),
			logger.Duration("timeout", cfg.AutocompleteTimeout))
	} else {
		loggerClient.Info("remote autocomplete not configured, suggestions are local only")
	}

	// Suggestion engine
	engine := suggest.NewEngine(memIndex, remote, store, loggerClient, suggest.Options{
		MaxVisible: cfg.MaxVisible,
		MaxTotal:   cfg.MaxTotal,
		EdgeBias:   cfg.EdgeBias,
	})

	// Web search with optional fallback provider
	searcher := buildSearcher(cfg, loggerClient)

	// Chat sessions and orchestrator
	sessions := chat.NewStore(store, loggerClient)
	if err := sessions.Load(context.Background()); err != nil {
		loggerClient.Warn("failed to load chat sessions", logger.Error(err))
	}

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout, loggerClient)
	orchestrator := chat.NewOrchestrator(sessions, llmClient, searcher, chat.RoutingTable{
		Default: cfg.ModelDefault,
		Code:    cfg.ModelCode,
		Long:    cfg.ModelLong,
	}, loggerClient)

	// Create manual reload trigger channel
	reloadTrigger := make(chan struct{}, 1)

	// Initialize curated reloader
	reloader := scheduler.NewCuratedReloader(
		cfg.CuratedFile,
		memIndex,
		loggerClient,
		cfg.ReloadInterval,
		reloadTrigger,
	)

	// Initialize history garbage collector
	gc := scheduler.NewHistoryGC(
		store,
		memIndex,
		loggerClient,
		cfg.GCInterval,
		cfg.GCThreshold,
	)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		RedisClient:   redisClient,
		MemoryIndex:   memIndex,
		Engine:        engine,
		Sessions:      sessions,
		Orchestrator:  orchestrator,
		RemoteWait:    cfg.AutocompleteTimeout + 50*time.Millisecond,
		ReloadTrigger: reloadTrigger,
	}

	server := httpserver.New(cfg, loggerClient, d)

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      server,
		redisClient: redisClient,
		memIndex:    memIndex,
		reloader:    reloader,
		gc:          gc,
	}
}

// buildSearcher wires the configured web search providers, primary
// plus optional fallback. Returns nil when search is disabled.
func buildSearcher(cfg *config.Config, log logger.Logger) websearch.Searcher {
	primary := newProvider(cfg.SearchProvider, cfg.SearchAPIKey)
	if primary == nil {
		log.Info("web search not configured, AI answers are never augmented")
		return nil
	}

	secondary := newProvider(cfg.FallbackProvider, cfg.FallbackAPIKey)
	log.Info("web search enabled",
		logger.String("provider", cfg.SearchProvider),
		logger.String("fallback", cfg.FallbackProvider))

	return websearch.NewFallbackSearcher(primary, secondary, cfg.SearchBudget, log)
}

func newProvider(name, apiKey string) websearch.Searcher {
	switch name {
	case "serper":
		return websearch.NewSerperSearcher(apiKey)
	case "brave":
		return websearch.NewBraveSearcher(apiKey)
	default:
		return nil
	}
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting QueryBox v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("QueryBox %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start curated reloader (loads entries and starts periodic refresh)
	if err := a.reloader.Start(ctx); err != nil {
		return fmt.Errorf("failed to start curated reloader: %w", err)
	}
	a.logger.Info("curated reloader started",
		logger.Duration("interval", a.cfg.ReloadInterval))

	// Start history garbage collector
	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.logger.Info("garbage collector started",
		logger.Duration("interval", a.cfg.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	// Stop reloader
	a.reloader.Stop()

	// Stop garbage collector
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ QueryBox stopped cleanly")
	return nil
}
