package main

import (
	"context"
	"flag"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"courserag/internal/chat"
	"courserag/internal/config"
	"courserag/internal/domain"
	embgemini "courserag/internal/embedding/gemini"
	llmgemini "courserag/internal/llm/gemini"
	"courserag/internal/logger"
	"courserag/internal/retriever"
	"courserag/internal/session"
	"courserag/internal/tui"
	"courserag/internal/vectorstore/memory"
	"courserag/internal/vectorstore/qdrant"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/courserag/config.yaml if not provided)")
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

	lg, err := logger.New("dev")
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer lg.Sync()

	ctx := context.Background()

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
	if err := st.Init(ctx, emb.Dimension()); err != nil {
		log.Fatalf("vector store init failed: %v", err)
	}

	gen, err := llmgemini.NewClient(llmgemini.Config{
		BaseURL:     cfg.Generator.BaseURL,
		APIKeyEnv:   cfg.Generator.APIKeyEnv,
		Model:       cfg.Generator.Model,
		Temperature: cfg.Generator.Temperature,
		Timeout:     time.Duration(cfg.Generator.TimeoutSecs) * time.Second,
	})
	if err != nil {
		log.Fatalf("generator init failed: %v", err)
	}

	var sessions session.Store
	switch cfg.Session.Type {
	case "memory", "":
		sessions = session.NewMemoryStore()
	case "redis":
		if cfg.Session.Redis == nil {
			log.Fatalf("redis config missing")
		}
		rs, err := session.NewRedisStore(ctx, session.RedisConfig{
			Addr: cfg.Session.Redis.Addr,
			DB:   cfg.Session.Redis.DB,
		})
		if err != nil {
			log.Fatalf("redis session store init failed: %v", err)
		}
		defer rs.Close()
		sessions = rs
	default:
		log.Fatalf("unknown session store: %s", cfg.Session.Type)
	}

	svc := chat.New(retriever.New(st, emb), gen, sessions, cfg.Chat.TopK, lg)

	indexed, err := st.Count(ctx)
	if err != nil {
		lg.Warn("index count unavailable", "error", err)
	}

	m := tui.New(svc, indexed)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
