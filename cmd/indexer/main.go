package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"courserag/internal/config"
	"courserag/internal/docbuilder"
	"courserag/internal/domain"
	embgemini "courserag/internal/embedding/gemini"
	"courserag/internal/indexer"
	"courserag/internal/logger"
	"courserag/internal/sources"
	"courserag/internal/sources/filecache"
	"courserag/internal/sources/sis"
	"courserag/internal/vectorstore/memory"
	"courserag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var (
		cfgPath     string
		term        string
		subjectsArg string
		force       bool
		reset       bool
	)
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/courserag/config.yaml if not provided)")
	flag.StringVar(&term, "term", "", "Term code to index (overrides config)")
	flag.StringVar(&subjectsArg, "subjects", "", "Comma-separated subject codes to index (overrides config)")
	flag.BoolVar(&force, "force", false, "Bypass the catalog file cache")
	flag.BoolVar(&reset, "reset", false, "Clear the index before indexing")
	flag.Parse()

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if term == "" {
		term = cfg.Index.Term
	}
	subjects := cfg.Index.Subjects
	if subjectsArg != "" {
		subjects = strings.Split(subjectsArg, ",")
		for i := range subjects {
			subjects[i] = strings.TrimSpace(subjects[i])
		}
	}

	lg, err := logger.New("dev")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Assemble components
	emb, err := embgemini.NewClient(embgemini.Config{
		BaseURL:   cfg.Embedder.BaseURL,
		APIKeyEnv: cfg.Embedder.APIKeyEnv,
		Model:     cfg.Embedder.Model,
		Dimension: cfg.Embedder.Dimension,
		Timeout:   time.Duration(cfg.Embedder.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("embedder init failed: %v", err)
	}

	var st domain.VectorStore
	switch cfg.VectorStore.Type {
	case "memory", "":
		st = memory.NewStore()
	case "qdrant":
		if cfg.VectorStore.Qdrant == nil {
			log.Fatalf("qdrant config missing")
		}
		st = qdrant.NewStore(lg, qdrant.Config{
			URL:        cfg.VectorStore.Qdrant.URL,
			APIKey:     cfg.VectorStore.Qdrant.APIKey,
			Collection: cfg.VectorStore.Qdrant.Collection,
			Timeout:    time.Duration(cfg.VectorStore.Qdrant.TimeoutSecs) * time.Second,
		})
	default:
		log.Fatalf("unknown vector store: %s", cfg.VectorStore.Type)
	}
	if reset {
		if err := st.Init(ctx, emb.Dimension()); err != nil {
			log.Fatalf("vector store init failed: %v", err)
		}
		if err := st.Clear(ctx); err != nil {
			log.Fatalf("vector store clear failed: %v", err)
		}
	}

	cache, err := filecache.New(cfg.Index.DataDir)
	if err != nil {
		log.Fatalf("data dir init failed: %v", err)
	}
	catalog := sis.NewClient(sis.Config{
		BaseURL: cfg.Index.CatalogBaseURL,
		Cache:   cache,
	})
	descriptors := sources.NewDescriptorStore(cache)
	reviews := sources.NewReviewStore(cache)

	clusters := make([]docbuilder.Cluster, 0, len(cfg.Clusters))
	for _, c := range cfg.Clusters {
		clusters = append(clusters, docbuilder.Cluster{
			Name:        c.Name,
			Description: c.Description,
			Courses:     c.Courses,
		})
	}
	builder := docbuilder.New(docbuilder.Weights{
		Description:   cfg.Weights.Description,
		Title:         cfg.Weights.Title,
		Prerequisites: cfg.Weights.Prerequisites,
		Subject:       cfg.Weights.Subject,
		Cluster:       cfg.Weights.Cluster,
	}, docbuilder.NewTable(clusters), cfg.Reviews.MatchThreshold)

	orch := indexer.New(catalog, descriptors, reviews, builder, emb, st, lg, indexer.Options{
		BatchSize:       cfg.Index.BatchSize,
		MaxBatchRetries: cfg.Index.MaxBatchRetries,
		OnProgress:      printProgress,
	})

	report, err := orch.Run(ctx, term, subjects, force)
	if err != nil {
		if report != nil {
			printReport(report)
		}
		log.Fatalf("indexing failed: %v", err)
	}
	printReport(report)
	if n, err := st.Count(ctx); err == nil {
		fmt.Printf("index now holds %d documents\n", n)
	}
}

func printProgress(p indexer.Progress) {
	if p.Total == 0 {
		fmt.Printf("[%s]\n", p.Phase)
		return
	}
	if p.ETASeconds > 0 {
		fmt.Printf("[%s] %d/%d (eta %.0fs)\n", p.Phase, p.Processed, p.Total, p.ETASeconds)
		return
	}
	fmt.Printf("[%s] %d/%d\n", p.Phase, p.Processed, p.Total)
}

func printReport(r *indexer.Report) {
	fmt.Printf("indexed %d sections in %s (skipped %d invalid, %d failed batches)\n",
		r.Indexed, r.Elapsed.Round(time.Millisecond), r.SkippedInvalid, r.FailedBatches)
	if len(r.FailedSubjects) > 0 {
		fmt.Printf("failed subjects: %s\n", strings.Join(r.FailedSubjects, ", "))
	}
}
