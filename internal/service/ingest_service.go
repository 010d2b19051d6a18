package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finsight/filingrag/internal/ai"
	"github.com/finsight/filingrag/internal/chunker"
	"github.com/finsight/filingrag/internal/filestore"
	"github.com/finsight/filingrag/internal/model"
	appErr "github.com/finsight/filingrag/internal/pkg/errors"
	"github.com/finsight/filingrag/internal/repo"
)

// IngestService turns parsed filings into embedded chunks in the vector
// index. The archive store is optional; when present every ingested filing's
// chunk set is written there as JSON for offline inspection.
type IngestService struct {
	chunks     *repo.ChunkRepo
	embedder   ai.IEmbedder
	chunkerCfg chunker.Config
	archive    filestore.Store
}

func NewIngestService(chunks *repo.ChunkRepo, embedder ai.IEmbedder, cfg chunker.Config, archive filestore.Store) *IngestService {
	return &IngestService{
		chunks:     chunks,
		embedder:   embedder,
		chunkerCfg: cfg,
		archive:    archive,
	}
}

// IngestResult summarizes one filing ingestion.
type IngestResult struct {
	ChunksBuilt    int           `json:"chunks_built"`
	ChunksInserted int           `json:"chunks_inserted"`
	ChunksReplaced int64         `json:"chunks_replaced"`
	Stats          chunker.Stats `json:"stats"`
}

// Ingest chunks, embeds and stores one filing. With replace set, any chunks
// previously stored for the same (ticker, filing type, filing date) are
// removed first; otherwise re-ingestion is a no-op thanks to stable chunk IDs.
func (s *IngestService) Ingest(ctx context.Context, doc *model.Document, replace bool) (*IngestResult, error) {
	if err := validateDocument(doc); err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(
		zap.String("ticker", doc.Ticker),
		zap.String("filing_type", doc.FilingType),
		zap.String("filing_date", doc.FilingDate))

	chunks := chunker.ChunkDocument(doc, s.chunkerCfg)
	if len(chunks) == 0 {
		logger.Warn("document produced no chunks")
		return &IngestResult{Stats: chunker.ComputeStats(chunks)}, nil
	}

	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		logger.Error("failed to embed chunks", zap.Error(err))
		return nil, err
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: embedding count %d does not match chunk count %d",
			appErr.ErrInternal, len(embeddings), len(chunks))
	}

	embedded := make([]*model.EmbeddedChunk, 0, len(chunks))
	for i, c := range chunks {
		embedded = append(embedded, &model.EmbeddedChunk{Chunk: c, Embedding: embeddings[i]})
	}

	var replaced int64
	if replace {
		replaced, err = s.chunks.DeleteByFiling(ctx, doc.Ticker, doc.FilingType, doc.FilingDate)
		if err != nil {
			logger.Error("failed to delete existing chunks", zap.Error(err))
			return nil, err
		}
	}

	inserted, err := s.chunks.Upsert(ctx, embedded)
	if err != nil {
		logger.Error("failed to store chunks", zap.Error(err))
		return nil, err
	}

	s.archiveChunks(ctx, doc, chunks)

	stats := chunker.ComputeStats(chunks)
	logger.Info("filing ingested",
		zap.Int("chunks_built", len(chunks)),
		zap.Int("chunks_inserted", inserted),
		zap.Int64("chunks_replaced", replaced))
	return &IngestResult{
		ChunksBuilt:    len(chunks),
		ChunksInserted: inserted,
		ChunksReplaced: replaced,
		Stats:          stats,
	}, nil
}

// Delete removes all stored chunks for one filing. Returns ErrNotFound when
// no chunk matched.
func (s *IngestService) Delete(ctx context.Context, ticker, filingType, filingDate string) (int64, error) {
	if ticker == "" || filingType == "" || filingDate == "" {
		return 0, fmt.Errorf("%w: ticker, filing type and filing date are required", appErr.ErrInvalid)
	}
	n, err := s.chunks.DeleteByFiling(ctx, ticker, filingType, filingDate)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("%w: no chunks indexed for %s %s %s", appErr.ErrNotFound, ticker, filingType, filingDate)
	}
	return n, nil
}

// CorpusStats describes the indexed corpus as a whole.
type CorpusStats struct {
	TotalChunks int64              `json:"total_chunks"`
	Tickers     []repo.TickerCount `json:"tickers"`
}

// Stats reports corpus-wide counts.
func (s *IngestService) Stats(ctx context.Context) (*CorpusStats, error) {
	total, err := s.chunks.Count(ctx)
	if err != nil {
		return nil, err
	}
	tickers, err := s.chunks.ListTickers(ctx)
	if err != nil {
		return nil, err
	}
	return &CorpusStats{TotalChunks: total, Tickers: tickers}, nil
}

// archiveChunks writes the chunk set to the archive store as JSON. Failures
// are logged and swallowed; the index is already consistent at this point.
func (s *IngestService) archiveChunks(ctx context.Context, doc *model.Document, chunks []*model.Chunk) {
	if s.archive == nil {
		return
	}
	logger := logutil.GetLogger(ctx)
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		logger.Warn("failed to marshal chunk archive", zap.Error(err))
		return
	}
	key := fmt.Sprintf("chunks/%s_%s_%s.json", doc.Ticker, doc.FilingType, doc.FilingDate)
	rd := nopReadSeekCloser{bytes.NewReader(data)}
	if err := s.archive.Save(ctx, key, rd, int64(len(data))); err != nil {
		logger.Warn("failed to archive chunks", zap.String("key", key), zap.Error(err))
	}
}

type nopReadSeekCloser struct {
	*bytes.Reader
}

func (nopReadSeekCloser) Close() error { return nil }

func validateDocument(doc *model.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", appErr.ErrInvalid)
	}
	if doc.Ticker == "" || doc.FilingType == "" || doc.FilingDate == "" {
		return fmt.Errorf("%w: ticker, filing type and filing date are required", appErr.ErrInvalid)
	}
	if doc.FilingType != model.FilingType10K && doc.FilingType != model.FilingType10Q {
		return fmt.Errorf("%w: unsupported filing type %q", appErr.ErrInvalid, doc.FilingType)
	}
	if len(doc.Sections) == 0 {
		return fmt.Errorf("%w: document has no sections", appErr.ErrInvalid)
	}
	return nil
}
