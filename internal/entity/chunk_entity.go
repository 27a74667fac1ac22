package entity

type SourceType string

const (
	SourceTypeWebpage SourceType = "webpage"
	SourceTypePDF     SourceType = "pdf"
	SourceTypeDOCX    SourceType = "docx"
)

type ChunkMetadata struct {
	URL          string     `json:"url"`
	Title        string     `json:"title"`
	Type         SourceType `json:"type"`
	DocumentId   string     `json:"document_id"`
	ChunkIndex   int        `json:"chunk_index"`
	TotalChunks  int        `json:"total_chunks"`
	CharCount    int        `json:"char_count"`
	WordCount    int        `json:"word_count"`
	SectionIndex int        `json:"section_index,omitempty"`
}

type Chunk struct {
	ChunkId    string        `json:"chunk_id"`
	DocumentId string        `json:"document_id"`
	Text       string        `json:"text"`
	Metadata   ChunkMetadata `json:"metadata"`
}

// ChunkEmbedding is a chunk paired with its vector, as handed to the chunk store.
type ChunkEmbedding struct {
	Chunk
	Vector []float32
}

// ScoredChunk is a nearest-neighbour hit. Distance is cosine distance.
type ScoredChunk struct {
	Chunk
	Distance float64
}
