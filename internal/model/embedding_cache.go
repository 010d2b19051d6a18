package model

// EmbeddingCache is one cached embedding, keyed by (model, content hash).
// Writes are last-write-wins; a concurrent duplicate computation is accepted.
type EmbeddingCache struct {
	ModelName   string    `json:"model_name"`
	ContentHash string    `json:"content_hash"`
	Embedding   []float32 `json:"embedding"`
	Ctime       int64     `json:"ctime"`
}
