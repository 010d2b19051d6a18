// Package chunker splits parsed SEC filings into chunks suitable for
// embedding and vector retrieval. Chunking is semantic:
//  1. Section boundaries are respected (item_1, item_1a, ...), chunks never
//     merge across sections.
//  2. Within a section, text splits on paragraph breaks and merges greedily
//     toward the target size.
//  3. Consecutive chunks carry a backward overlap prefix for context
//     continuity.
package chunker

import (
	"regexp"
	"strings"

	"github.com/finsight/filingrag/internal/model"
)

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 200
	DefaultMinChunkSize = 100
)

// Config controls chunking behavior.
type Config struct {
	ChunkSize       int  `json:"chunk_size"`
	ChunkOverlap    int  `json:"chunk_overlap"`
	MinChunkSize    int  `json:"min_chunk_size"`
	RespectSections bool `json:"respect_sections"`
	IncludeTables   bool `json:"include_tables"`
}

// DefaultConfig returns the standard chunking parameters.
func DefaultConfig() Config {
	return Config{
		ChunkSize:       DefaultChunkSize,
		ChunkOverlap:    DefaultChunkOverlap,
		MinChunkSize:    DefaultMinChunkSize,
		RespectSections: true,
		IncludeTables:   true,
	}
}

func (c Config) withDefaults() Config {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.ChunkOverlap < 0 {
		c.ChunkOverlap = DefaultChunkOverlap
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}
	return c
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

// splitIntoParagraphs splits text on blank-line boundaries, dropping empty
// paragraphs.
func splitIntoParagraphs(text string) []string {
	parts := paragraphBreak.Split(text, -1)
	paragraphs := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences splits after '.', '!' or '?' followed by whitespace. The
// terminator stays with the sentence; the whitespace run is consumed.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 < len(text) && isSpace(text[i+1]) {
				sentences = append(sentences, text[start:i+1])
				i++
				for i < len(text) && isSpace(text[i]) {
					i++
				}
				start = i
				i--
			}
		}
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
	}
	return sentences
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// splitLargeText breaks text that exceeds maxSize into pieces, preferring
// sentence boundaries. A single sentence longer than maxSize is hard-split at
// maxSize-100 intervals, leaving room for the overlap prefix added later.
func splitLargeText(text string, maxSize int) []string {
	if len(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	current := ""

	for _, sentence := range splitSentences(text) {
		if len(current)+len(sentence)+1 <= maxSize {
			current = strings.TrimSpace(current + " " + sentence)
			continue
		}
		if current != "" {
			chunks = append(chunks, current)
		}
		if len(sentence) > maxSize {
			step := maxSize - 100
			if step < 1 {
				// Chunk sizes at or below the overlap headroom would
				// otherwise make the step non-positive.
				step = 1
			}
			for i := 0; i < len(sentence); i += step {
				end := i + step
				if end > len(sentence) {
					end = len(sentence)
				}
				chunks = append(chunks, sentence[i:end])
			}
			current = ""
		} else {
			current = sentence
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// mergeParagraphs greedily accumulates paragraphs into chunks of roughly
// targetSize characters. A chunk may overshoot by one paragraph.
func mergeParagraphs(paragraphs []string, targetSize int) []string {
	if len(paragraphs) == 0 {
		return nil
	}
	var chunks []string
	var current []string
	currentSize := 0

	for _, para := range paragraphs {
		if currentSize+len(para) > targetSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n\n"))
			current = nil
			currentSize = 0
		}
		current = append(current, para)
		currentSize += len(para)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, "\n\n"))
	}
	return chunks
}

// addOverlap prepends the tail of each preceding chunk to its successor,
// trimmed forward to the next word or line boundary, rendered as an
// ellipsis-prefixed continuation block.
func addOverlap(chunks []string, overlapSize int) []string {
	if len(chunks) <= 1 || overlapSize <= 0 {
		return chunks
	}
	out := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		if i == 0 {
			out = append(out, chunk)
			continue
		}
		prev := chunks[i-1]
		overlap := prev
		if len(prev) > overlapSize {
			overlap = prev[len(prev)-overlapSize:]
		}
		// Do not start the prefix mid-word.
		for j := 0; j < len(overlap); j++ {
			if overlap[j] == ' ' || overlap[j] == '\n' {
				overlap = overlap[j+1:]
				break
			}
		}
		out = append(out, "..."+overlap+"\n\n"+chunk)
	}
	return out
}

// chunkSection chunks one section independently. Returns the overlap-adjusted
// chunk texts, already filtered by the minimum viable size.
func chunkSection(sectionText string, cfg Config) []string {
	paragraphs := splitIntoParagraphs(sectionText)
	if len(paragraphs) == 0 {
		return nil
	}

	split := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		if len(para) > cfg.ChunkSize*2 {
			split = append(split, splitLargeText(para, cfg.ChunkSize)...)
		} else {
			split = append(split, para)
		}
	}

	merged := mergeParagraphs(split, cfg.ChunkSize)
	overlapped := addOverlap(merged, cfg.ChunkOverlap)

	kept := overlapped[:0]
	for _, c := range overlapped {
		if len(c) >= cfg.MinChunkSize {
			kept = append(kept, c)
		}
	}
	return kept
}

// ChunkDocument splits a parsed filing into chunks. Sections are processed in
// document order and independently; a section shorter than the minimum chunk
// size yields no chunks. The result is deterministic for a given document and
// config.
func ChunkDocument(doc *model.Document, cfg Config) []*model.Chunk {
	cfg = cfg.withDefaults()

	var all []*model.Chunk
	for _, section := range model.SectionOrder {
		text, ok := doc.Sections[section]
		if !ok || len(text) < cfg.MinChunkSize {
			continue
		}
		charOffset := 0
		for i, chunkText := range chunkSection(text, cfg) {
			all = append(all, &model.Chunk{
				ID:         model.ChunkID(doc.Ticker, doc.FilingType, doc.FilingDate, section, i),
				Text:       chunkText,
				Ticker:     doc.Ticker,
				FilingType: doc.FilingType,
				FilingDate: doc.FilingDate,
				Section:    section,
				ChunkIndex: i,
				CharStart:  charOffset,
				CharEnd:    charOffset + len(chunkText),
			})
			charOffset += len(chunkText)
		}
	}
	return all
}
