package repo

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/didi/gendry/builder"
	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"github.com/finsight/filingrag/internal/model"
	"github.com/finsight/filingrag/internal/pkg/dbutil"
)

// ChunkRepo is the vector index: it stores embedded chunks and serves
// nearest-neighbor queries with exact-match metadata filtering.
type ChunkRepo struct {
	db *sqlx.DB
}

func NewChunkRepo(db *sqlx.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Upsert writes embedded chunks, skipping IDs that already exist. Chunk IDs
// are deterministic, so re-ingesting a filing is a no-op for unchanged
// chunks. Returns the number of newly inserted rows.
func (r *ChunkRepo) Upsert(ctx context.Context, chunks []*model.EmbeddedChunk) (int, error) {
	const query = `
		INSERT INTO filing_chunks
			(id, text, ticker, filing_type, filing_date, section, chunk_index, char_start, char_end, embedding, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`
	added := 0
	now := time.Now().Unix()
	for _, ec := range chunks {
		c := ec.Chunk
		res, err := r.db.ExecContext(ctx, query,
			c.ID, c.Text, c.Ticker, c.FilingType, c.FilingDate,
			c.Section, c.ChunkIndex, c.CharStart, c.CharEnd,
			pgvector.NewVector(ec.Embedding), now,
		)
		if err != nil {
			return added, fmt.Errorf("upsert chunk %s: %w", c.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return added, err
		}
		added += int(n)
	}
	return added, nil
}

// Query returns the k nearest chunks by cosine distance, restricted to rows
// matching every present filter field.
func (r *ChunkRepo) Query(ctx context.Context, vector []float32, k int, filters model.QueryFilters) ([]*model.RetrievalResult, error) {
	query := `
		SELECT id, text, ticker, filing_type, filing_date, section,
			embedding <=> $1 AS distance
		FROM filing_chunks
	`
	args := []interface{}{pgvector.NewVector(vector)}
	if filters.Ticker != "" {
		args = append(args, filters.Ticker)
		query += " WHERE ticker = $" + strconv.Itoa(len(args))
	}
	if filters.FilingType != "" {
		args = append(args, filters.FilingType)
		if filters.Ticker != "" {
			query += " AND filing_type = $" + strconv.Itoa(len(args))
		} else {
			query += " WHERE filing_type = $" + strconv.Itoa(len(args))
		}
	}
	args = append(args, k)
	query += " ORDER BY distance LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.RetrievalResult
	for rows.Next() {
		var item model.RetrievalResult
		if err := rows.Scan(&item.ID, &item.Text, &item.Ticker, &item.FilingType,
			&item.FilingDate, &item.Section, &item.Distance); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, rows.Err()
}

// DeleteByFiling removes every chunk of one filing, used before re-ingesting
// a filing whose chunking config changed.
func (r *ChunkRepo) DeleteByFiling(ctx context.Context, ticker, filingType, filingDate string) (int64, error) {
	where := map[string]interface{}{
		"ticker":      ticker,
		"filing_type": filingType,
		"filing_date": filingDate,
	}
	sqlStr, args, err := builder.BuildDelete("filing_chunks", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByFiling returns the stored chunk records of one filing in section and
// index order, without embeddings. Used for inspection and archive rebuild.
func (r *ChunkRepo) ListByFiling(ctx context.Context, ticker, filingType, filingDate string) ([]model.Chunk, error) {
	where := map[string]interface{}{
		"ticker":      ticker,
		"filing_type": filingType,
		"filing_date": filingDate,
		"_orderby":    "section, chunk_index",
	}
	fields := []string{"id", "text", "ticker", "filing_type", "filing_date", "section", "chunk_index", "char_start", "char_end"}
	sqlStr, args, err := builder.BuildSelect("filing_chunks", where, fields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	var chunks []model.Chunk
	if err := r.db.SelectContext(ctx, &chunks, sqlStr, args...); err != nil {
		return nil, err
	}
	return chunks, nil
}

// TickerCount is the per-ticker chunk count used by corpus stats.
type TickerCount struct {
	Ticker string `db:"ticker" json:"ticker"`
	Count  int64  `db:"count" json:"count"`
}

func (r *ChunkRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM filing_chunks`); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) ListTickers(ctx context.Context) ([]TickerCount, error) {
	const query = `
		SELECT ticker, COUNT(*) AS count
		FROM filing_chunks
		GROUP BY ticker
		ORDER BY ticker
	`
	var items []TickerCount
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, err
	}
	return items, nil
}
