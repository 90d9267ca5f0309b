package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lumenlearn/tutorcore/internal/achievement"
	"github.com/lumenlearn/tutorcore/internal/cache"
	"github.com/lumenlearn/tutorcore/internal/config"
	"github.com/lumenlearn/tutorcore/internal/content"
	"github.com/lumenlearn/tutorcore/internal/httpapi"
	"github.com/lumenlearn/tutorcore/internal/lesson"
	"github.com/lumenlearn/tutorcore/internal/observability"
	"github.com/lumenlearn/tutorcore/internal/profile"
	"github.com/lumenlearn/tutorcore/internal/provider"
	"github.com/lumenlearn/tutorcore/internal/rag"
	"github.com/lumenlearn/tutorcore/internal/session"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("dotenv load skipped: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()

	profiles, err := profile.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("profile store init failed: %v", err)
	}
	defer profiles.Close()

	lessons, err := lesson.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("lesson store init failed: %v", err)
	}
	defer lessons.Close()

	sessionStore, err := session.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		// Presence must never block on the durability layer.
		log.Printf("session store unavailable, using in-memory sessions: %v", err)
		sessionStore = session.NewMemoryStore()
	}
	defer sessionStore.Close()

	gen, err := provider.New(provider.Config{
		Mode:         cfg.ProviderMode,
		HTTPURL:      cfg.ProviderHTTPURL,
		APIKey:       cfg.ProviderAPIKey,
		DefaultModel: cfg.DefaultModel,
		CheapModel:   cfg.CheapModel,
	})
	if err != nil {
		log.Fatalf("generation provider init failed: %v", err)
	}
	log.Printf("generation provider: %s", gen.Name())

	var scriptCache content.ScriptCache
	if cfg.RedisAddr != "" {
		redisStore, rerr := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "script", cfg.CacheTTL)
		if rerr != nil {
			log.Printf("redis unavailable, using in-memory script cache: %v", rerr)
		} else {
			defer redisStore.Close()
			scriptCache = content.NewRedisScriptCache(redisStore)
			log.Printf("script cache: redis at %s", cfg.RedisAddr)
		}
	}
	if scriptCache == nil {
		scriptCache = content.NewMemoryScriptCache(cfg.CacheTTL, cfg.CacheMaxSize)
	}

	var ragClient rag.Client
	if cfg.RAGURL != "" {
		ragClient = rag.NewHTTPClient(cfg.RAGURL)
		log.Printf("rag collaborator: %s", cfg.RAGURL)
	}

	achievements := achievement.NewService()

	sessions := session.NewManager(session.Options{
		Store:             sessionStore,
		Profiles:          profiles,
		Achievements:      achievements,
		Metrics:           metrics,
		HeartbeatInterval: cfg.HeartbeatInterval,
		MaxIdle:           cfg.SessionMaxIdle,
		Retention:         cfg.SessionRetention,
	})

	orchestrator := content.NewOrchestrator(content.Options{
		Provider:         gen,
		Lessons:          lessons,
		Profiles:         profiles,
		RAG:              ragClient,
		Cache:            scriptCache,
		Achievements:     achievements,
		Metrics:          metrics,
		DefaultModel:     cfg.DefaultModel,
		CheapModel:       cfg.CheapModel,
		CallTimeout:      cfg.GenerationTimeout,
		MinRAGConfidence: cfg.MinRAGConfidence,
	})

	api := httpapi.New(cfg, sessions, orchestrator, profiles, achievements, metrics)
	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	sessions.StartJanitor(runCtx, cfg.JanitorInterval)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}

	log.Printf("shutdown complete")
}
