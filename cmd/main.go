package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/uptrace/bun"

	"health-rag/internal/config"
	"health-rag/internal/corpus"
	"health-rag/internal/dataset"
	"health-rag/internal/db"
	"health-rag/internal/embedcache"
	"health-rag/internal/embedding"
	"health-rag/internal/helper"
	"health-rag/internal/llmservice"
	"health-rag/internal/parser"
	"health-rag/internal/rag"
	"health-rag/internal/server"
)

const configFilePath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).With().Caller().Logger()

	_ = godotenv.Load()

	configPath := flag.String("config", configFilePath, "Path to the config file")
	query := flag.String("query", "", "Answer a single query on the command line and exit")
	addr := flag.String("addr", "", "Listen address (host:port), overrides the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	log.Debug().Interface("config", cfg).Msg("Loaded config")

	ctx := context.Background()
	pipeline, dbInstance := buildPipeline(ctx, cfg)
	if dbInstance != nil {
		defer dbInstance.Close()
	}

	if *query != "" {
		answerQuery(ctx, pipeline, *query)
		return
	}

	serve(cfg, *addr, pipeline, dbInstance)
}

// buildPipeline loads the corpus, embeds it, and wires the request pipeline.
// Any failure here is fatal: the process refuses to start without a corpus.
func buildPipeline(ctx context.Context, cfg *config.Config) (*rag.RAG, *bun.DB) {
	snippets, err := dataset.NewLoader(&cfg.Dataset).Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading dataset")
	}

	if cfg.RAG.DocsDir != "" {
		local, err := parser.LoadCorpusDir(cfg.RAG.DocsDir, &cfg.RAG)
		if err != nil {
			log.Fatal().Err(err).Msg("Error loading local corpus documents")
		}
		log.Info().Int("snippets", len(local)).Str("dir", cfg.RAG.DocsDir).Msg("Loaded local corpus documents")
		snippets = append(snippets, local...)
	}

	embedder, err := embedding.NewEmbedder(&cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	matrix := embedCorpus(ctx, cfg, embedder, snippets)
	if err := embedding.VerifyDimension(matrix, cfg.EmbedLLM.Dimension); err != nil {
		log.Fatal().Err(err).Msg("Error verifying embedding dimension")
	}

	index, err := corpus.NewIndex(snippets, matrix)
	if err != nil {
		log.Fatal().Err(err).Msg("Error building corpus index")
	}
	log.Info().Int("snippets", index.Len()).Int("dimension", index.Dimension()).Msg("Corpus index ready")

	var dbInstance *bun.DB
	if cfg.Database.DSN != "" {
		dbClient, err := db.ConnectDB(&cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Error connecting to database")
		}
		dbInstance = db.NewDB(dbClient, cfg.Database.Debug)
		if err := db.InitDB(ctx, dbInstance); err != nil {
			log.Fatal().Err(err).Msg("Error initializing database")
		}
	}

	llm := llmservice.NewClient(&cfg.Inference)
	return rag.NewRAG(index, embedder, llm), dbInstance
}

// embedCorpus returns the embedding matrix, via the persistent cache when
// one is configured.
func embedCorpus(ctx context.Context, cfg *config.Config, embedder *embeddings.EmbedderImpl, snippets []string) [][]float32 {
	var cache *embedcache.Cache
	var fingerprint string
	if cfg.RAG.CacheDir != "" {
		if err := helper.CreateFolder(cfg.RAG.CacheDir); err != nil {
			log.Fatal().Err(err).Msg("Error creating cache folder")
		}
		var err error
		cache, err = embedcache.Open(cfg.RAG.CacheDir)
		if err != nil {
			log.Fatal().Err(err).Msg("Error opening embedding cache")
		}
		fingerprint = embedcache.Fingerprint(snippets, cfg.EmbedLLM.Model)
		if matrix, ok := cache.Load(ctx, fingerprint, len(snippets)); ok {
			log.Info().Str("fingerprint", fingerprint).Msg("Loaded embeddings from cache")
			return matrix
		}
	}

	log.Info().Int("snippets", len(snippets)).Msg("Generating embeddings (this may take a while)")
	matrix, err := embedding.EmbedCorpus(ctx, embedder, snippets, cfg.EmbedLLM.BatchSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Error generating embeddings")
	}

	if cache != nil {
		if err := cache.Store(ctx, fingerprint, snippets, matrix); err != nil {
			log.Warn().Err(err).Msg("Error writing embedding cache")
		}
	}
	return matrix
}

func answerQuery(ctx context.Context, pipeline *rag.RAG, query string) {
	response, err := pipeline.Query(ctx, query)
	if err != nil {
		log.Fatal().Err(err).Msg("Error querying")
	}

	log.Info().Msg("Query: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Query)

	log.Info().Msg("Source: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Source)

	log.Info().Msg("Assistant: ~~~~~~~~~~~~~~~~~~~~~~~~~>>>>>")
	fmt.Printf("%s\n\n", response.Content)
}

func serve(cfg *config.Config, addr string, pipeline *rag.RAG, dbInstance *bun.DB) {
	srv := server.Create(&cfg.HTTP, addr, &server.Handlers{RAG: pipeline, DB: dbInstance})

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
