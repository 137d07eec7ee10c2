package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"cuckoo-backend/internal/config"
	"cuckoo-backend/internal/database"
	"cuckoo-backend/internal/importer"
	"cuckoo-backend/internal/repository"
	"cuckoo-backend/internal/services"
	"cuckoo-backend/migrations"
)

func main() {
	file := flag.String("f", "questions.csv", "CSV file with a title,text[,tags] header")
	flag.Parse()

	ctx := context.Background()
	cfg := config.LoadDatabase()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("✗ Open %s: %v", *file, err)
	}
	rows, err := importer.ReadCSV(f)
	f.Close()
	if err != nil {
		log.Fatalf("✗ Read %s: %v", *file, err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()

	var migrationFS fs.FS = migrations.FS
	if cfg.MigrationsDir != "" {
		migrationFS = os.DirFS(cfg.MigrationsDir)
	}
	if err := database.RunMigrations(ctx, pool, migrationFS); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}

	svc := services.NewQuestionService(repository.NewQuestionRepo(pool), repository.NewCommentRepo(pool), nil)
	rep, err := importer.Load(ctx, svc, rows, func(row int, err error) {
		log.Printf("skip row %d (%q): %v", row+2, rows[row].Title, describe(err))
	})
	if err != nil {
		log.Fatalf("✗ Load stopped after %d questions: %v", rep.Loaded, err)
	}

	fmt.Printf("%d questions loaded, %d skipped\n", rep.Loaded, rep.Skipped)
}

func describe(err error) string {
	if vErr, ok := err.(*services.ValidationError); ok {
		for field, msg := range vErr.Fields {
			return field + ": " + msg
		}
	}
	return err.Error()
}
