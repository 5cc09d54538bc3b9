package main

import (
	"context"
	"fmt"
	"log"

	"github.com/receipthealth/receipt-processor-service/internal/classify"
	"github.com/receipthealth/receipt-processor-service/internal/config"
	"github.com/receipthealth/receipt-processor-service/internal/database"
	"github.com/receipthealth/receipt-processor-service/internal/extraction"
	"github.com/receipthealth/receipt-processor-service/internal/handler"
	"github.com/receipthealth/receipt-processor-service/internal/openrouter"
	"github.com/receipthealth/receipt-processor-service/internal/parser"
	"github.com/receipthealth/receipt-processor-service/internal/repository"
	"github.com/receipthealth/receipt-processor-service/internal/server"
	"github.com/receipthealth/receipt-processor-service/internal/service"
	"github.com/receipthealth/receipt-processor-service/internal/status"
	"github.com/receipthealth/receipt-processor-service/internal/storage"
)

// @title Receipt Health Processing API
// @version 1.0
// @description Upload grocery receipts, track their processing, and read health-scored results.
// @BasePath /
func main() {
	// Load configuration
	log.Println("Loading configuration...")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to PostgreSQL
	log.Println("Connecting to database...")
	db, err := database.NewPostgresDB(context.Background(), cfg.PostgresDBURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := repository.NewPostgresReceiptRepository(db.Pool())

	// Local content-addressed store for uploaded files
	store, err := storage.NewContentStore(cfg.StorageRoot)
	if err != nil {
		log.Fatalf("Failed to initialize content store: %v", err)
	}

	// OpenRouter client backs vision OCR and the optional AI parser/classifier
	openRouterClient := openrouter.NewClient(&openrouter.Config{
		APIKey:  cfg.OpenRouterAPIKey,
		ModelID: cfg.OpenRouterModelID,
		Timeout: cfg.OpenRouterTimeout,
	})

	// Optional S3-compatible archive; extraction falls back to inline image
	// bytes when it is absent.
	var archiver extraction.Archiver
	if cfg.ArchiveEndpoint != "" {
		s3Archiver, err := storage.NewS3Archiver(&storage.S3Config{
			Endpoint:        cfg.ArchiveEndpoint,
			AccessKeyID:     cfg.ArchiveAccessKeyID,
			AccessKeySecret: cfg.ArchiveAccessKeySecret,
			Bucket:          cfg.ArchiveBucket,
			Region:          cfg.ArchiveRegion,
		})
		if err != nil {
			log.Printf("Archive storage disabled: %v", err)
		} else {
			archiver = s3Archiver
		}
	}

	extractor := extraction.NewService(store, openRouterClient, archiver)

	var receiptParser parser.Parser = parser.NewHeuristicParser()
	if cfg.UseAIParser && openRouterClient.Configured() {
		log.Println("Using AI receipt parser with heuristic fallback...")
		receiptParser = parser.NewAIParser(openRouterClient, nil)
	}

	var classifier classify.Classifier = classify.NewKeywordClassifier()
	if cfg.UseAIClassifier && openRouterClient.Configured() {
		log.Println("Using external AI classifier...")
		classifier = classify.NewExternalClassifier(openRouterClient)
	}

	tracker := status.NewTracker()

	log.Println("Creating processing service...")
	processingService := service.NewProcessingService(repo, store, extractor, receiptParser,
		classifier, tracker, cfg.MaxFileSizeBytes, cfg.AllowedMediaTypes, cfg.MaxWorkers)
	receiptService := service.NewReceiptService(repo)

	documentHandler := handler.NewDocumentHandler(processingService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	analyticsHandler := handler.NewAnalyticsHandler(receiptService)

	// Create and configure server
	log.Println("Configuring server...")
	appServer := server.NewServer(cfg, documentHandler, receiptHandler, analyticsHandler)
	appServer.SetProcessingService(processingService)

	// Start server (blocking call)
	log.Printf("Starting server on port %d...", cfg.Port)
	if err := appServer.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server shutdown complete")
}
