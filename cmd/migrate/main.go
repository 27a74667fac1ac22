package main

import (
	"os"

	"legal-indexer-be/internal/model"
	"legal-indexer-be/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load Environment Variables
	if err := godotenv.Load(); err != nil {
		color.Yellow("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		color.Red("Error: DB_CONNECTION_STRING is not set")
		os.Exit(1)
	}

	// 2. Connect
	db, err := database.NewGormDBFromDSN(dsn, database.DefaultPoolConfig())
	if err != nil {
		color.Red("Error: Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer database.Close(db)

	color.Cyan("Starting GORM migration...")

	// 3. Extensions AutoMigrate cannot create
	color.Cyan("Step 1: Setting up extensions...")
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		color.Red("Error: pgvector extension is required: %v", err)
		os.Exit(1)
	}

	// 4. Tables
	models := []interface{}{
		&model.Document{},
		&model.ChunkEmbedding{},
		&model.Job{},
		&model.Flag{},
	}
	color.Cyan("Step 2: Running AutoMigrate for %d tables...", len(models))
	if err := db.AutoMigrate(models...); err != nil {
		color.Red("Error: AutoMigrate failed: %v", err)
		os.Exit(1)
	}

	// 5. Indexes used by the keyword scan and the flag list
	color.Cyan("Step 3: Creating indexes...")
	postMigrationSQL := []string{
		`CREATE INDEX IF NOT EXISTS idx_chunk_embeddings_document_chunk ON chunk_embeddings (document_id, chunk_index);`,
		`CREATE INDEX IF NOT EXISTS idx_flags_status_flagged_at ON flags (status, flagged_at DESC);`,
	}
	for _, sql := range postMigrationSQL {
		if err := db.Exec(sql).Error; err != nil {
			color.Yellow("Warn: Failed to execute post-migration SQL: %v", err)
		}
	}

	color.Green("✅ Success: Database migration completed.")
}
