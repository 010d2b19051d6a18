package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/finsight/filingrag/internal/ai"
	"github.com/finsight/filingrag/internal/model"
	appErr "github.com/finsight/filingrag/internal/pkg/errors"
)

const defaultTopK = 5

var citationPattern = regexp.MustCompile(`\[(\d+)\]`)

// VectorIndex is the retrieval side of the chunk store.
type VectorIndex interface {
	Query(ctx context.Context, vector []float32, k int, filters model.QueryFilters) ([]*model.RetrievalResult, error)
}

// AnswerOptions tune retrieval and context assembly. Zero values fall back to
// defaults.
type AnswerOptions struct {
	TopK            int
	SectionBoost    float64
	MaxContextChars int
	MaxChunkChars   int
}

// AnswerService runs the full question-answering pipeline: filter extraction,
// embedding, retrieval, rerank, context assembly, generation and citation
// validation.
type AnswerService struct {
	index     VectorIndex
	embedder  ai.IEmbedder
	generator ai.IGenerator
	opts      AnswerOptions
}

func NewAnswerService(index VectorIndex, embedder ai.IEmbedder, generator ai.IGenerator, opts AnswerOptions) *AnswerService {
	if opts.TopK <= 0 {
		opts.TopK = defaultTopK
	}
	return &AnswerService{
		index:     index,
		embedder:  embedder,
		generator: generator,
		opts:      opts,
	}
}

// AskRequest is one question plus optional explicit filters. Explicit values
// override anything extracted from the query text.
type AskRequest struct {
	Query      string
	Ticker     string
	FilingType string
	TopK       int
}

// Answer runs one query end to end.
func (s *AnswerService) Answer(ctx context.Context, req AskRequest) (*model.AnswerResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", appErr.ErrInvalid)
	}
	topK := req.TopK
	if topK <= 0 {
		topK = s.opts.TopK
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", query))

	filters := ExtractFilters(query).Merge(model.QueryFilters{
		Ticker:     req.Ticker,
		FilingType: req.FilingType,
	})
	if !filters.IsEmpty() {
		logger.Debug("query filters resolved",
			zap.String("ticker", filters.Ticker),
			zap.String("filing_type", filters.FilingType))
	}

	queryEmb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("failed to embed query", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrUpstream, err)
	}

	// Over-fetch so reranking has room to reorder.
	results, err := s.index.Query(ctx, queryEmb, topK*2, filters)
	if err != nil {
		logger.Error("vector query failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrUpstream, err)
	}
	if len(results) == 0 {
		return &model.AnswerResponse{
			Query:      query,
			Answer:     noInformationAnswer,
			Confidence: 0.0,
			Citations:  []model.Citation{},
			ModelUsed:  s.generator.ModelName(),
		}, nil
	}

	reranked := Rerank(query, results, topK, s.opts.SectionBoost)
	contextBlock := FormatContext(reranked, s.opts.MaxContextChars, s.opts.MaxChunkChars)
	prompt := BuildAnswerPrompt(query, contextBlock)

	answer, err := s.generator.Generate(ctx, ragSystemPrompt, prompt)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", appErr.ErrUpstream, err)
	}

	citations := extractCitations(answer, reranked)
	confidence := estimateConfidence(answer, citations)
	logger.Info("answer generated",
		zap.Int("chunks_retrieved", len(results)),
		zap.Int("chunks_used", len(reranked)),
		zap.Int("citations", len(citations)),
		zap.Float64("confidence", confidence))

	return &model.AnswerResponse{
		Query:           query,
		Answer:          answer,
		Confidence:      confidence,
		Citations:       citations,
		ChunksRetrieved: len(results),
		ChunksUsed:      len(reranked),
		ModelUsed:       s.generator.ModelName(),
	}, nil
}

// AnswerBatch processes queries sequentially with shared filters.
func (s *AnswerService) AnswerBatch(ctx context.Context, queries []string, ticker, filingType string, topK int) ([]*model.AnswerResponse, error) {
	responses := make([]*model.AnswerResponse, 0, len(queries))
	for _, q := range queries {
		resp, err := s.Answer(ctx, AskRequest{
			Query:      q,
			Ticker:     ticker,
			FilingType: filingType,
			TopK:       topK,
		})
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// extractCitations collects the distinct in-range [n] markers from the answer
// and resolves each against the numbered sources. Out-of-range markers are
// ignored.
func extractCitations(answer string, sources []*model.RetrievalResult) []model.Citation {
	seen := make(map[int]struct{})
	for _, m := range citationPattern.FindAllStringSubmatch(answer, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		seen[idx] = struct{}{}
	}
	indices := make([]int, 0, len(seen))
	for idx := range seen {
		if idx >= 1 && idx <= len(sources) {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	citations := make([]model.Citation, 0, len(indices))
	for _, idx := range indices {
		src := sources[idx-1]
		snippet := src.Text
		if len(snippet) > 200 {
			snippet = snippet[:200]
		}
		citations = append(citations, model.Citation{
			Index:     idx,
			Text:      snippet + "...",
			Source:    fmt.Sprintf("%s %s (%s)", orUnknown(src.Ticker), src.FilingType, orUnknown(src.FilingDate)),
			Section:   orUnknown(src.Section),
			Relevance: 1.0 - src.Distance,
		})
	}
	return citations
}

// estimateConfidence applies a fixed ladder: answers that disclaim knowledge
// score low, uncited answers score middling, cited answers scale with the
// average source relevance.
func estimateConfidence(answer string, citations []model.Citation) float64 {
	answerLower := strings.ToLower(answer)
	if strings.Contains(answerLower, "don't have information") || strings.Contains(answerLower, "not found") {
		return 0.3
	}
	if len(citations) == 0 {
		return 0.5
	}
	var sum float64
	for _, c := range citations {
		sum += c.Relevance
	}
	avg := sum / float64(len(citations))
	confidence := 0.6 + avg*0.4
	if confidence > 0.95 {
		confidence = 0.95
	}
	return confidence
}
