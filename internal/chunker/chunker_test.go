package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/finsight/filingrag/internal/model"
)

func testDoc(sections map[string]string) *model.Document {
	return &model.Document{
		Ticker:     "AAPL",
		FilingType: model.FilingType10K,
		FilingDate: "2023-10-27",
		Sections:   sections,
	}
}

func paragraph(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func TestChunkDocumentSkipsTinySections(t *testing.T) {
	doc := testDoc(map[string]string{
		"item_1":  paragraph("business", 200),
		"item_1a": "too short",
	})
	chunks := ChunkDocument(doc, DefaultConfig())
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.Equal(t, "item_1", c.Section)
	}
}

func TestChunkDocumentUnknownSectionsDropped(t *testing.T) {
	doc := testDoc(map[string]string{
		"item_7":      paragraph("revenue", 200),
		"exhibit_foo": paragraph("noise", 200),
	})
	chunks := ChunkDocument(doc, DefaultConfig())
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		require.Equal(t, "item_7", c.Section)
	}
}

func TestChunkDocumentStableIDsAndOffsets(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		fmt.Fprintf(&sb, "Paragraph %d talks about quarterly revenue growth and margins in some detail.\n\n", i)
	}
	doc := testDoc(map[string]string{"item_7": sb.String()})

	first := ChunkDocument(doc, DefaultConfig())
	second := ChunkDocument(doc, DefaultConfig())
	require.NotEmpty(t, first)
	require.Equal(t, len(first), len(second))

	offset := 0
	for i, c := range first {
		require.Equal(t, model.ChunkID("AAPL", model.FilingType10K, "2023-10-27", "item_7", i), c.ID)
		require.Equal(t, c.ID, second[i].ID)
		require.Equal(t, c.Text, second[i].Text)
		require.Equal(t, offset, c.CharStart)
		require.Greater(t, c.CharEnd, c.CharStart)
		require.Equal(t, c.CharEnd-c.CharStart, len(c.Text))
		offset = c.CharEnd
	}
}

func TestChunkDocumentOverlapPrefix(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, "Sentence group %d covers operations and liquidity over the reporting period.\n\n", i)
	}
	doc := testDoc(map[string]string{"item_7": sb.String()})

	chunks := ChunkDocument(doc, Config{ChunkSize: 500, ChunkOverlap: 100, MinChunkSize: 50})
	require.Greater(t, len(chunks), 1)
	require.False(t, strings.HasPrefix(chunks[0].Text, "..."))
	for _, c := range chunks[1:] {
		require.True(t, strings.HasPrefix(c.Text, "..."), "chunk %d should carry an overlap prefix", c.ChunkIndex)
		// The prefix must not start mid-word.
		rest := strings.TrimPrefix(c.Text, "...")
		require.NotEmpty(t, rest)
		require.NotEqual(t, byte(' '), rest[0])
	}
}

func TestSplitSentencesKeepsTerminators(t *testing.T) {
	got := splitSentences("First point. Second point! Third point? Tail without end")
	require.Equal(t, []string{"First point.", "Second point!", "Third point?", "Tail without end"}, got)
}

func TestSplitSentencesIgnoresDecimalPoints(t *testing.T) {
	got := splitSentences("Revenue grew 3.5 percent. Margins held.")
	require.Equal(t, []string{"Revenue grew 3.5 percent.", "Margins held."}, got)
}

func TestSplitLargeTextHardSplit(t *testing.T) {
	// One unbroken "sentence" far beyond the limit.
	text := strings.Repeat("x", 3000)
	pieces := splitLargeText(text, 1000)
	require.Greater(t, len(pieces), 1)
	total := 0
	for _, p := range pieces {
		require.LessOrEqual(t, len(p), 1000)
		total += len(p)
	}
	require.Equal(t, len(text), total)
}

func TestSplitLargeTextTinyLimit(t *testing.T) {
	// Limits at or below the hard-split headroom must still terminate
	// and cover the whole input.
	text := strings.Repeat("x", 300)
	for _, limit := range []int{100, 50} {
		pieces := splitLargeText(text, limit)
		require.NotEmpty(t, pieces, "limit %d", limit)
		require.Equal(t, text, strings.Join(pieces, ""), "limit %d", limit)
	}
}

func TestChunkDocumentReconstructsSectionText(t *testing.T) {
	// Single-line paragraphs longer than the overlap keep blank lines out
	// of the overlap prefixes, so stripping is unambiguous.
	paras := make([]string, 6)
	for i := range paras {
		paras[i] = paragraph(fmt.Sprintf("section%02d", i), 40)
	}
	section := strings.Join(paras, "\n\n")
	doc := testDoc(map[string]string{"item_1": section})

	chunks := ChunkDocument(doc, Config{ChunkSize: 500, ChunkOverlap: 100, MinChunkSize: 100})
	require.Greater(t, len(chunks), 1)

	bodies := make([]string, 0, len(chunks))
	for _, c := range chunks {
		body := c.Text
		if strings.HasPrefix(body, "...") {
			sep := strings.Index(body, "\n\n")
			require.GreaterOrEqual(t, sep, 0, "chunk %d overlap prefix is unterminated", c.ChunkIndex)
			body = body[sep+2:]
		}
		bodies = append(bodies, body)
	}
	require.Equal(t, section, strings.Join(bodies, "\n\n"))
}

func TestMergeParagraphsGreedy(t *testing.T) {
	paras := []string{
		strings.Repeat("a", 400),
		strings.Repeat("b", 400),
		strings.Repeat("c", 400),
	}
	merged := mergeParagraphs(paras, 900)
	require.Len(t, merged, 2)
	require.Contains(t, merged[0], "\n\n")
}

func TestComputeStats(t *testing.T) {
	doc := testDoc(map[string]string{
		"item_1": paragraph("business", 200),
		"item_7": paragraph("revenue", 200),
	})
	chunks := ChunkDocument(doc, DefaultConfig())
	stats := ComputeStats(chunks)
	require.Equal(t, len(chunks), stats.Count)
	require.Greater(t, stats.AvgSize, 0.0)
	require.LessOrEqual(t, stats.MinSize, stats.MaxSize)
	require.Equal(t, len(chunks), stats.SectionCounts["item_1"]+stats.SectionCounts["item_7"])
}
