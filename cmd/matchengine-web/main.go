package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/retreivo/matchengine/internal/config"
	"github.com/retreivo/matchengine/internal/engine"
	"github.com/retreivo/matchengine/internal/ports"
	"github.com/retreivo/matchengine/internal/server"
	"github.com/retreivo/matchengine/internal/storage"
	"github.com/retreivo/matchengine/internal/storage/postgres"
	"github.com/retreivo/matchengine/internal/storage/sqlite"
	"github.com/retreivo/matchengine/web/handlers"
)

func main() {
	// Parse command line flags
	rulesPath := flag.String("rules", "", "Path to fraud rules YAML file (overrides RETREIVO_RULES_PATH)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *rulesPath != "" {
		cfg.Rules.Path = *rulesPath
	}

	// Initialize storage
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer store.Close()

	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Fraud rules: built-in word lists unless an override file is configured
	rules := engine.DefaultRules()
	if cfg.Rules.Path != "" {
		rules, err = engine.LoadRules(cfg.Rules.Path)
		if err != nil {
			log.Fatalf("Failed to load fraud rules from %s: %v", cfg.Rules.Path, err)
		}
		log.Printf("Loaded fraud rules from %s", cfg.Rules.Path)
	}

	// Optional remote ports. Each one degrades gracefully when absent.
	var textEmbedder ports.TextEmbedder
	if cfg.Ports.OpenAIAPIKey != "" {
		embedder := ports.NewOpenAITextEmbedder(ports.OpenAIEmbedderConfig{
			APIKey:  cfg.Ports.OpenAIAPIKey,
			BaseURL: cfg.Ports.OpenAIBaseURL,
			Model:   cfg.Ports.EmbeddingModel,
		})
		textEmbedder = ports.NewCachingTextEmbedder(embedder, cfg.Ports.EmbeddingTTL, cfg.Ports.EmbeddingTTL/2)
		log.Printf("Text embeddings enabled (model %s)", cfg.Ports.EmbeddingModel)
	} else {
		log.Println("No OpenAI API key configured, using lexical text similarity")
	}

	var imageEmbedder ports.ImageEmbedder
	if cfg.Ports.ImageServiceURL != "" {
		imageEmbedder = ports.NewRemoteImageEmbedder(ports.RemoteConfig{BaseURL: cfg.Ports.ImageServiceURL})
		log.Printf("Image feature service: %s", cfg.Ports.ImageServiceURL)
	}

	var classifier ports.FraudClassifier
	if cfg.Ports.ClassifierURL != "" {
		classifier = ports.NewRemoteFraudClassifier(ports.RemoteConfig{BaseURL: cfg.Ports.ClassifierURL})
		log.Printf("Fraud classifier service: %s", cfg.Ports.ClassifierURL)
	}

	// Assemble the engines
	similarity := engine.NewSimilarityEngine(textEmbedder, imageEmbedder)
	fraud := engine.NewFraudEngine(rules, classifier)
	analyzer := engine.NewAnalyzer(similarity, fraud)
	searcher := engine.NewSearcher(store, imageEmbedder)

	hub := handlers.NewClaimEventHub(server.AllowedOrigins(cfg))
	api := handlers.NewAPIHandlers(handlers.APIDeps{
		Features:      store,
		Claims:        store,
		Analyzer:      analyzer,
		Fraud:         fraud,
		Searcher:      searcher,
		ImageEmbedder: imageEmbedder,
		Hub:           hub,
	}, cfg)

	addr := server.Start(ctx, cfg, api, hub)
	log.Printf("Match engine API running at http://%s", addr)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}

// itemStore is the combined storage surface the service needs from one backend.
type itemStore interface {
	storage.FeatureStore
	storage.ClaimStore
}

func openStore(cfg *config.Config) (itemStore, error) {
	switch cfg.Storage.StorageEngine {
	case "postgres":
		log.Println("Using PostgreSQL storage")
		return postgres.NewStore(cfg.Storage.PostgresDSN)
	default:
		if err := os.MkdirAll(cfg.Storage.DataPath, 0o755); err != nil {
			return nil, err
		}
		dbPath := cfg.Storage.DataPath + "/matchengine.db"
		log.Printf("Using SQLite storage at %s", dbPath)
		return sqlite.NewStore(dbPath)
	}
}
