package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/tesfayh/ulss9-assistant/internal/bootstrap"
	"github.com/tesfayh/ulss9-assistant/internal/config"
	"github.com/tesfayh/ulss9-assistant/internal/core/domain"
	"github.com/tesfayh/ulss9-assistant/internal/core/ports"
)

// ingest uploads the sample document set into the general_info store,
// creating it first if missing. Intended for seeding demo deployments.
func main() {
	cfg := config.Load()

	dir := flag.String("dir", cfg.SampleDocsPath, "directory with .md/.txt documents to upload")
	storeID := flag.String("store", domain.DefaultStoreID, "target store id")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(cfg, "ingest")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}

	if _, err := app.AdminUC.CreateStore(ctx, *storeID, ""); err != nil {
		log.Fatalf("ensure store %q: %v", *storeID, err)
	}

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("read sample dir: %v", err)
	}

	uploaded := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".txt" {
			continue
		}
		if strings.EqualFold(name, "readme.md") {
			continue
		}

		result, err := app.AdminUC.UploadDocument(ctx, ports.UploadRequest{
			FilePath: filepath.Join(*dir, name),
			Domain:   *storeID,
		})
		if err != nil {
			log.Printf("upload %s failed: %v", name, err)
			continue
		}
		log.Printf("uploaded %s as %q", name, result.Title)
		uploaded++
	}
	log.Printf("done: %d documents uploaded into %q", uploaded, *storeID)
}
