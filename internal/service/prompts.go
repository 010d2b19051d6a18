package service

import (
	"fmt"
	"strings"

	"github.com/finsight/filingrag/internal/model"
)

const (
	defaultMaxContextChars = 8000
	defaultMaxChunkChars   = 2000
)

const ragSystemPrompt = `You are a financial research assistant with access to SEC filings.
Your role is to answer questions accurately using ONLY the provided context.

CRITICAL RULES:
1. ONLY use information from the provided context
2. ALWAYS cite your sources using [1], [2], etc. format
3. If the context doesn't contain the answer, say "I don't have information about this in the provided filings"
4. NEVER make up financial figures - if unsure, say so
5. When comparing across time periods, note the dates of each source
6. Distinguish between forward-looking statements and reported facts
7. Be precise with numbers - include units and time periods

Your answers should be clear, direct, and well-sourced.`

const ragUserPromptTemplate = `Question: %s

Context from SEC filings:
%s

Instructions:
- Answer the question using ONLY the context above
- Cite sources using [1], [2], etc. format matching the source numbers
- If the answer isn't in the context, say "I don't have information about this"
- Be precise with numbers and dates
- Keep your answer concise but complete`

const noInformationAnswer = "I don't have any information about this in the indexed SEC filings. " +
	"Please make sure the relevant filings have been ingested."

// FormatContext renders reranked hits as a numbered context block. Entries
// are numbered from 1 in rank order and joined with "---" separators. A chunk
// longer than maxChunkChars is cut and marked; assembly stops at the first
// entry that would push the total past maxChars, so later entries are dropped
// even if they would fit.
func FormatContext(results []*model.RetrievalResult, maxChars, maxChunkChars int) string {
	if maxChars <= 0 {
		maxChars = defaultMaxContextChars
	}
	if maxChunkChars <= 0 {
		maxChunkChars = defaultMaxChunkChars
	}

	parts := make([]string, 0, len(results))
	total := 0
	for i, res := range results {
		text := res.Text
		if len(text) > maxChunkChars {
			text = text[:maxChunkChars] + "... [truncated]"
		}
		entry := fmt.Sprintf("[%d] Source: %s %s (%s) - %s\n%s\n",
			i+1, orUnknown(res.Ticker), orUnknown(res.FilingType),
			orUnknown(res.FilingDate), orUnknown(res.Section), text)
		if total+len(entry) > maxChars {
			break
		}
		parts = append(parts, entry)
		total += len(entry)
	}
	return strings.Join(parts, "\n---\n")
}

// BuildAnswerPrompt assembles the user prompt for a query and its context.
func BuildAnswerPrompt(query, context string) string {
	return fmt.Sprintf(ragUserPromptTemplate, query, context)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
