package entity

import "time"

type Document struct {
	DocumentId string
	URL        string
	Title      string
	Type       SourceType
	IndexedAt  time.Time
	ChunkCount int
}
