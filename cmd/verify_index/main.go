package main

import (
	"log"
	"os"
	"strings"

	"legal-indexer-be/internal/model"
	"legal-indexer-be/pkg/database"

	"github.com/joho/godotenv"
)

type chunkCount struct {
	DocumentId string
	Stored     int
	Actual     int
}

func main() {
	// 1. Load Environment
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	// 2. Connect to DB
	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}
	defer database.Close(db)

	log.Println("🔍 INDEX INTEGRITY CHECK")
	problems := 0

	// 3. Documents whose recorded chunk_count disagrees with the stored chunks
	var mismatched []chunkCount
	if err := db.Model(&model.Document{}).
		Select("documents.document_id, documents.chunk_count AS stored, COUNT(chunk_embeddings.chunk_id) AS actual").
		Joins("LEFT JOIN chunk_embeddings ON chunk_embeddings.document_id = documents.document_id").
		Group("documents.document_id, documents.chunk_count").
		Having("documents.chunk_count <> COUNT(chunk_embeddings.chunk_id)").
		Scan(&mismatched).Error; err != nil {
		log.Fatal("Query failed:", err)
	}
	for _, m := range mismatched {
		log.Println(strings.Repeat("─", 50))
		log.Printf("⚠️  %s: chunk_count=%d, stored chunks=%d", m.DocumentId, m.Stored, m.Actual)
	}
	problems += len(mismatched)

	// 4. Chunks whose document row is missing
	var orphanChunks []string
	if err := db.Model(&model.ChunkEmbedding{}).
		Distinct("chunk_embeddings.document_id").
		Joins("LEFT JOIN documents ON documents.document_id = chunk_embeddings.document_id").
		Where("documents.document_id IS NULL").
		Pluck("chunk_embeddings.document_id", &orphanChunks).Error; err != nil {
		log.Fatal("Query failed:", err)
	}
	for _, id := range orphanChunks {
		log.Printf("⚠️  chunks stored for unknown document %s", id)
	}
	problems += len(orphanChunks)

	// 5. Flags pointing at documents that are no longer indexed
	var orphanFlags []string
	if err := db.Model(&model.Flag{}).
		Joins("LEFT JOIN documents ON documents.document_id = flags.document_id").
		Where("documents.document_id IS NULL").
		Pluck("flags.document_id", &orphanFlags).Error; err != nil {
		log.Fatal("Query failed:", err)
	}
	for _, id := range orphanFlags {
		log.Printf("⚠️  flag for unknown document %s", id)
	}
	problems += len(orphanFlags)

	log.Println(strings.Repeat("─", 50))
	if problems > 0 {
		log.Printf("❌ %d integrity problems found", problems)
		os.Exit(1)
	}
	log.Println("✅ Index is consistent")
}
