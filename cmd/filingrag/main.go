package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finsight/filingrag/internal/ai"
	"github.com/finsight/filingrag/internal/config"
	"github.com/finsight/filingrag/internal/db"
	"github.com/finsight/filingrag/internal/embedcache"
	"github.com/finsight/filingrag/internal/filestore"
	"github.com/finsight/filingrag/internal/job"
	"github.com/finsight/filingrag/internal/model"
	appErr "github.com/finsight/filingrag/internal/pkg/errors"
	"github.com/finsight/filingrag/internal/repo"
	"github.com/finsight/filingrag/internal/schedule"
	"github.com/finsight/filingrag/internal/service"
)

type app struct {
	cfg    *config.Config
	db     *sqlx.DB
	cache  *repo.EmbeddingCacheRepo
	ingest *service.IngestService
	answer *service.AnswerService
}

func newApp(configPath string) (*app, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger.Init(
		cfg.LogConfig.File,
		cfg.LogConfig.Level,
		int(cfg.LogConfig.FileCount),
		int(cfg.LogConfig.FileSize),
		int(cfg.LogConfig.KeepDays),
		cfg.LogConfig.Console,
	)
	logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

	conn, err := db.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.ApplyMigrations(conn); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	chunkRepo := repo.NewChunkRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	generator, err := buildGenerator(cfg.AI)
	if err != nil {
		return nil, err
	}
	embedder, err := buildEmbedder(cfg.AI)
	if err != nil {
		return nil, err
	}
	embedder = embedcache.WrapDBCacheToEmbedder(embedder, cacheRepo)
	embedder = embedcache.WrapLruCacheToEmbedder(embedder, cfg.AI.EmbedCacheLRU, 2*time.Hour)

	var archive filestore.Store
	if cfg.Archive.Type != "" {
		archive, err = filestore.New(cfg.Archive)
		if err != nil {
			return nil, fmt.Errorf("init archive store: %w", err)
		}
	}

	ingest := service.NewIngestService(chunkRepo, embedder, cfg.Chunker, archive)
	answer := service.NewAnswerService(chunkRepo, embedder, generator, service.AnswerOptions{
		TopK:            cfg.Retrieval.TopK,
		SectionBoost:    cfg.Retrieval.SectionBoost,
		MaxContextChars: cfg.Retrieval.MaxContextChars,
		MaxChunkChars:   cfg.Retrieval.MaxChunkChars,
	})

	return &app{
		cfg:    cfg,
		db:     conn,
		cache:  cacheRepo,
		ingest: ingest,
		answer: answer,
	}, nil
}

func buildGenerator(cfg config.AIConfig) (ai.IGenerator, error) {
	pcs := append([]config.ProviderConfig{cfg.Generate}, cfg.GenerateFallbacks...)
	entries := make([]ai.GeneratorEntry, 0, len(pcs))
	for _, pc := range pcs {
		provider, err := ai.NewProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init generate provider %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.GeneratorEntry{
			Name:      pc.Model,
			Generator: ai.NewGenerator(provider, pc.Model),
		})
	}
	if len(entries) == 1 {
		return entries[0].Generator, nil
	}
	return ai.NewGroupGenerator(entries), nil
}

func buildEmbedder(cfg config.AIConfig) (ai.IEmbedder, error) {
	pcs := append([]config.ProviderConfig{cfg.Embed}, cfg.EmbedFallbacks...)
	entries := make([]ai.EmbedderEntry, 0, len(pcs))
	for _, pc := range pcs {
		provider, err := ai.NewEmbedProvider(pc.Provider, pc.Data)
		if err != nil {
			return nil, fmt.Errorf("init embed provider %s: %w", pc.Provider, err)
		}
		entries = append(entries, ai.EmbedderEntry{
			Name:     pc.Model,
			Embedder: ai.NewEmbedder(provider, pc.Model),
		})
	}
	if len(entries) == 1 {
		return entries[0].Embedder, nil
	}
	return ai.NewGroupEmbedder(entries), nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "filingrag",
		Short: "RAG pipeline over SEC filings",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config.json")

	rootCmd.AddCommand(
		ingestCmd(&configPath),
		askCmd(&configPath),
		deleteCmd(&configPath),
		statsCmd(&configPath),
		cronCmd(&configPath),
	)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("command failed", zap.Error(err))
	}
}

func ingestCmd(configPath *string) *cobra.Command {
	var replace bool
	cmd := &cobra.Command{
		Use:   "ingest <document.json> [more.json ...]",
		Short: "chunk, embed and index parsed filings",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			for _, path := range args {
				doc, err := loadDocument(path)
				if err != nil {
					return fmt.Errorf("load %s: %w", path, err)
				}
				res, err := a.ingest.Ingest(ctx, doc, replace)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				fmt.Printf("%s %s (%s): %d chunks built, %d inserted, %d replaced\n",
					doc.Ticker, doc.FilingType, doc.FilingDate,
					res.ChunksBuilt, res.ChunksInserted, res.ChunksReplaced)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "delete previously indexed chunks of the same filing first")
	return cmd
}

func askCmd(configPath *string) *cobra.Command {
	var (
		ticker     string
		filingType string
		topK       int
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "answer a question over the indexed filings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			resp, err := a.answer.Answer(cmd.Context(), service.AskRequest{
				Query:      args[0],
				Ticker:     ticker,
				FilingType: filingType,
				TopK:       topK,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(resp)
			}
			printAnswer(resp)
			return nil
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "restrict to one ticker")
	cmd.Flags().StringVar(&filingType, "filing-type", "", "restrict to one filing type (10-K, 10-Q)")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to use as context")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw response as JSON")
	return cmd
}

func deleteCmd(configPath *string) *cobra.Command {
	var (
		ticker     string
		filingType string
		filingDate string
	)
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "remove one filing's chunks from the index",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ingest.Delete(cmd.Context(), ticker, filingType, filingDate)
			if appErr.IsNotFound(err) {
				fmt.Println("no chunks matched")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("%d chunks deleted\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker of the filing")
	cmd.Flags().StringVar(&filingType, "filing-type", "", "filing type (10-K, 10-Q)")
	cmd.Flags().StringVar(&filingDate, "filing-date", "", "filing date (YYYY-MM-DD)")
	return cmd
}

func statsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "show corpus statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.ingest.Stats(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("total chunks: %d\n", stats.TotalChunks)
			for _, tc := range stats.Tickers {
				fmt.Printf("  %-6s %d\n", tc.Ticker, tc.Count)
			}
			return nil
		},
	}
}

func cronCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "cron",
		Short: "run maintenance jobs on schedule until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sched := schedule.NewCronScheduler()
			cleanup := job.NewEmbeddingCacheCleanupJob(a.cache, a.cfg.Schedule.CacheKeepDays)
			if err := sched.AddJob(cleanup, a.cfg.Schedule.CacheCleanupCron); err != nil {
				return err
			}
			sched.Start(ctx)
			logutil.GetLogger(ctx).Info("scheduler running")

			<-ctx.Done()
			logutil.GetLogger(context.Background()).Info("scheduler stopping...")
			sched.Stop()
			return nil
		},
	}
}

func loadDocument(path string) (*model.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	var doc model.Document
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func printAnswer(resp *model.AnswerResponse) {
	fmt.Printf("Query: %s\n", resp.Query)
	fmt.Printf("Confidence: %.2f\n", resp.Confidence)
	fmt.Printf("Chunks retrieved: %d, used: %d\n", resp.ChunksRetrieved, resp.ChunksUsed)
	fmt.Printf("\nAnswer:\n%s\n", resp.Answer)
	if len(resp.Citations) > 0 {
		fmt.Printf("\nCitations:\n")
		for _, c := range resp.Citations {
			fmt.Printf("  [%d] %s - %s (relevance %.2f)\n", c.Index, c.Source, c.Section, c.Relevance)
		}
	}
}
