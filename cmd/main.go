package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/dishcast/dishcast/adapters/approval"
	"github.com/dishcast/dishcast/adapters/llm"
	"github.com/dishcast/dishcast/adapters/mongo"
	"github.com/dishcast/dishcast/adapters/stt"
	"github.com/dishcast/dishcast/domain/repositories"
	"github.com/dishcast/dishcast/internal/api"
	"github.com/dishcast/dishcast/internal/audio"
	"github.com/dishcast/dishcast/internal/websocket"
	"github.com/dishcast/dishcast/usecase"
)

func main() {
	// Load .env if present, real env wins
	_ = godotenv.Load()

	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	ctx := context.Background()

	// Initialize adapters, falling back to mocks when providers are not
	// configured so the server stays runnable in development.
	var generator repositories.TextGenerator
	geminiConfig := llm.NewGeminiConfigFromEnv()
	if err := llm.ValidateGeminiConfig(geminiConfig); err == nil {
		gemini, err := llm.NewGeminiGenerator(geminiConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Gemini generator", zap.Error(err))
		}
		generator = gemini
	} else {
		logger.Warn("Gemini not configured, using mock generator", zap.Error(err))
		generator = llm.NewMockGenerator(logger)
	}

	var speechToText repositories.SpeechToText
	if google, err := stt.NewGoogleSpeechToText(ctx, logger); err == nil {
		speechToText = google
	} else {
		logger.Warn("Google Speech not configured, using mock transcription", zap.Error(err))
		speechToText = stt.NewMockSpeechToText(logger)
	}

	mongoClient, err := mongo.NewClient(mongo.NewMongoConfigFromEnv(), logger)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mongoClient.Close(shutdownCtx)
	}()
	contentRepo := mongo.NewContentRepository(mongoClient, logger)

	var dispatcher repositories.ApprovalDispatcher
	twilioConfig := approval.NewTwilioConfigFromEnv()
	if err := approval.ValidateTwilioConfig(twilioConfig); err == nil {
		twilio, err := approval.NewTwilioDispatcher(twilioConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Twilio dispatcher", zap.Error(err))
		}
		dispatcher = twilio
	} else {
		logger.Warn("Twilio not configured, approval SMS disabled", zap.Error(err))
		dispatcher = approval.NewNoopDispatcher(logger)
	}

	// Initialize usecase services
	analyzer := audio.NewAnalyzer(audio.DefaultQualityThresholds())
	postProcessor := audio.NewPostProcessor(logger)
	transcriptionService := usecase.NewTranscriptionService(speechToText, logger)
	contentService := usecase.NewContentService(generator, logger)
	validator := usecase.NewContentValidator()
	pipelineService := usecase.NewPipelineService(
		postProcessor,
		transcriptionService,
		contentService,
		validator,
		contentRepo,
		contentRepo,
		dispatcher,
		logger,
	)

	// Initialize WebSocket hub with the content pipeline
	hub := websocket.NewHub(pipelineService, analyzer, logger)
	go hub.Run()

	// Initialize API routes
	api.InitRoutes(e, hub, pipelineService, contentRepo, logger)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Graceful shutdown
	go func() {
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("port", port))

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
