package domain

// Chunk is a bounded span of source-document text, the unit of embedding and
// retrieval. Chunks are immutable once indexed: they are only ever added or
// deleted wholesale with their collection.
type Chunk struct {
	ID      string
	Text    string
	Source  string // originating file name inside the upload
	Ordinal int    // position of the chunk within its file
}

// ScoredChunk is a retrieved chunk with its similarity score in [0,1].
type ScoredChunk struct {
	Chunk
	Score float64
}
