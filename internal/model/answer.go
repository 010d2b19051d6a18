package model

// Citation ties an inline [n] marker in the generated answer back to one
// numbered context entry.
type Citation struct {
	Index     int     `json:"index"`
	Text      string  `json:"text"`
	Source    string  `json:"source"`
	Section   string  `json:"section"`
	Relevance float64 `json:"relevance"`
}

// AnswerResponse is the structured result of one RAG query. Immutable once
// constructed.
type AnswerResponse struct {
	Query           string     `json:"query"`
	Answer          string     `json:"answer"`
	Confidence      float64    `json:"confidence"`
	Citations       []Citation `json:"citations"`
	ChunksRetrieved int        `json:"chunks_retrieved"`
	ChunksUsed      int        `json:"chunks_used"`
	ModelUsed       string     `json:"model_used"`
}
