package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/bisbi/internal/api"
	"github.com/example/bisbi/internal/bot"
	"github.com/example/bisbi/internal/database"
	"github.com/example/bisbi/internal/excel"
	"github.com/example/bisbi/internal/progression"
	"github.com/example/bisbi/internal/scheduler"
	"github.com/joho/godotenv"
)

func main() {
	importPath := flag.String("import", "", "import a vocabulary pack (xlsx or csv) and exit")
	flag.Parse()

	// Missing .env is fine, variables may come from the environment directly
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	if err := database.Connect(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if *importPath != "" {
		runImport(*importPath)
		return
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine := progression.New(database.NewStatsRepository(), database.NewAchievementRepository())
	if err := engine.Seed(); err != nil {
		log.Fatalf("Failed to seed progression data: %v", err)
	}

	client, err := api.New()
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	b, err := bot.New(engine, client)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	s := scheduler.New(b)
	s.Start()
	defer s.Stop()

	done := make(chan struct{})

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := b.Stop(shutdownCtx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}

		close(done)
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Bot error: %v", err)
		}
	}()

	<-done
	log.Println("Bot stopped successfully")
}

// runImport loads a vocabulary pack into the database
func runImport(path string) {
	config := excel.DefaultImportConfig()
	config.FilePath = path

	result, err := excel.ImportWords(config)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	log.Printf("Import finished: %d processed, %d created, %d updated, %d skipped",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	for _, e := range result.Errors {
		log.Printf("  %s", e)
	}
}
