package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/receipthealth/receipt-processor-service/internal/config"
	"github.com/receipthealth/receipt-processor-service/internal/handler"
	"github.com/receipthealth/receipt-processor-service/internal/middleware"
	"github.com/receipthealth/receipt-processor-service/internal/service"
)

// Server represents the HTTP server for the receipt processing service
type Server struct {
	router            *gin.Engine
	httpServer        *http.Server
	processingService service.ProcessingService
	config            *config.Config
}

// NewServer creates and configures a new server instance
func NewServer(cfg *config.Config, documentHandler *handler.DocumentHandler, receiptHandler *handler.ReceiptHandler, analyticsHandler *handler.AnalyticsHandler) *Server {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestResponseLogger(middleware.LoggerConfig{
		Format: cfg.LogFormat,
	}))

	server := &Server{
		router: router,
		config: cfg,
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Port),
			Handler: router,
		},
	}

	server.setupRoutes(documentHandler, receiptHandler, analyticsHandler)

	return server
}

// SetProcessingService sets the processing service for clean shutdown
func (s *Server) SetProcessingService(processingService service.ProcessingService) {
	s.processingService = processingService
}

// GetRouter returns the gin router instance
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}

// setupRoutes configures all application routes
func (s *Server) setupRoutes(documentHandler *handler.DocumentHandler, receiptHandler *handler.ReceiptHandler, analyticsHandler *handler.AnalyticsHandler) {
	// Health check endpoint
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// API documentation endpoints
	// Access the Swagger UI at http://localhost:8080/api-docs/index.html
	swaggerHandler := ginSwagger.WrapHandler(swaggerFiles.Handler)
	s.router.GET("/api-docs/*any", swaggerHandler)

	s.router.GET("/api-docs", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/api-docs/index.html")
	})

	v1 := s.router.Group("/v1")
	{
		documents := v1.Group("/documents")
		{
			documents.POST("/upload", documentHandler.Upload)
			documents.GET("", documentHandler.ListDocuments)
			documents.GET("/:documentId/status", documentHandler.GetStatus)
		}

		receipts := v1.Group("/receipts")
		{
			receipts.GET("", receiptHandler.ListReceipts)
			receipts.GET("/:receiptId", receiptHandler.GetReceipt)
			receipts.DELETE("/:receiptId", receiptHandler.DeleteReceipt)
			receipts.PUT("/:receiptId/items/:itemId/category", receiptHandler.CorrectItemCategory)
		}

		analytics := v1.Group("/analytics")
		{
			analytics.GET("/monthly-spend", analyticsHandler.GetMonthlySpend)
			analytics.GET("/category-breakdown", analyticsHandler.GetCategoryBreakdown)
		}
	}
}

// Start begins listening for requests and handles graceful shutdown
func (s *Server) Start() error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server listening on port %d", s.config.Port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	// Let in-flight background processing settle before exiting.
	if s.processingService != nil {
		s.processingService.Shutdown()
	}

	log.Println("Server exited gracefully")
	return nil
}
