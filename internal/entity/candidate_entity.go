package entity

type MatchType string

const (
	MatchTypeSemantic        MatchType = "semantic"
	MatchTypeKeyword         MatchType = "keyword"
	MatchTypeSemanticKeyword MatchType = "semantic+keyword"
)

// CandidateDocument is a document surfaced by retrieval before validation.
type CandidateDocument struct {
	DocumentId    string     `json:"document_id"`
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Type          SourceType `json:"type"`
	Confidence    float64    `json:"confidence"`
	MatchType     MatchType  `json:"match_type"`
	SemanticScore float64    `json:"semantic_score"`
	KeywordScore  float64    `json:"keyword_score"`
	Chunks        []Chunk    `json:"chunks"`
}
