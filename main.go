package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/itish2003/simplybot/config"
	"github.com/itish2003/simplybot/controller"
	"github.com/itish2003/simplybot/logger"
	"github.com/itish2003/simplybot/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("FATAL: Invalid configuration: %v", err)
	}

	zl := logger.New(cfg.LogLevel, cfg.LogFile, gin.Mode() == gin.ReleaseMode)
	defer func() { _ = zl.Sync() }()

	if err := services.SetPDFLicense(cfg.UnidocLicenseKey); err != nil {
		zl.Fatal("FATAL: Failed to set PDF license", zap.Error(err))
	}

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}

	embedder, err := newEmbedder(cfg, httpClient)
	if err != nil {
		zl.Fatal("FATAL: Failed to create embedder", zap.Error(err))
	}

	store, err := newVectorStore(cfg, zl)
	if err != nil {
		zl.Fatal("FATAL: Failed to create vector store", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			zl.Warn("failed to close vector store", zap.Error(err))
		}
	}()

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	if err := store.EnsureCollection(startupCtx, embedder.Dimension()); err != nil {
		cancelStartup()
		zl.Fatal("FATAL: Failed to prepare collection", zap.Error(err))
	}

	llm, err := newLLM(startupCtx, cfg)
	cancelStartup()
	if err != nil {
		zl.Fatal("FATAL: Failed to create LLM client", zap.Error(err))
	}
	zl.Info("connected to LLM provider", zap.String("provider", llm.Name()))

	metrics := services.NewMetrics()

	speech, err := services.NewSpeechService(services.SpeechConfig{
		APIKey:   cfg.ElevenLabsAPIKey,
		VoiceID:  cfg.ElevenLabsVoiceID,
		Model:    cfg.ElevenLabsModel,
		BaseURL:  cfg.ElevenLabsBaseURL,
		AudioDir: filepath.Join(cfg.StaticDir, "audio"),
	}, httpClient, metrics, zl)
	if err != nil {
		zl.Fatal("FATAL: Failed to create speech service", zap.Error(err))
	}

	files, err := services.NewFileActions(cfg.UploadDir)
	if err != nil {
		zl.Fatal("FATAL: Failed to prepare upload directory", zap.Error(err))
	}

	triage, err := services.NewTriageService(llm, zl)
	if err != nil {
		zl.Fatal("FATAL: Failed to create triage service", zap.Error(err))
	}
	retrieval := services.NewRetrievalService(embedder, store, metrics, zl)
	answers := services.NewAnswerService(llm, zl)
	ingestion := services.NewIngestionService(embedder, store, metrics, zl)
	ragService := services.NewRAGService(triage, retrieval, answers, speech, metrics, zl)

	ragController := controller.NewRAGController(ragService, speech, cfg.AudioMaxAge)
	documentController := controller.NewDocumentController(ingestion, files, store, cfg.MaxFileSizeBytes())
	healthController := controller.NewHealthController(llm, store, speech, embedder)

	router := gin.New()
	router.Use(recoverWithError(zl), requestLogger(zl))
	router.MaxMultipartMemory = cfg.MaxFileSizeBytes()

	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", healthController.Health)
	router.GET("/health", healthController.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	router.POST("/get_more_information", ragController.GetMoreInformation)
	router.POST("/chat-with-json", ragController.ChatWithJSON)
	router.POST("/generate-audio", ragController.GenerateAudio)
	router.POST("/cleanup-audio", ragController.CleanupAudio)
	router.GET("/audio/:filename", ragController.GetAudio)
	router.Static("/static", cfg.StaticDir)

	router.POST("/upload_documents", documentController.UploadDocuments)
	router.GET("/documents/info", documentController.DocumentsInfo)
	router.POST("/files/upload", documentController.UploadFile)
	router.GET("/files", documentController.ListFiles)
	router.DELETE("/files/:filename", documentController.DeleteFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AudioCleanupInterval > 0 {
		go speech.RunCleanup(ctx, cfg.AudioCleanupInterval, cfg.AudioMaxAge)
	}
	if cfg.WatchUploads {
		go ingestion.WatchDirectory(ctx, cfg.UploadDir)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		zl.Info("SimplyBot server starting",
			zap.String("addr", "http://localhost:"+cfg.Port),
			zap.String("embeddings", embedder.Name()),
			zap.String("vector_store", cfg.VectorStore),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("FATAL: Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("server shutdown", zap.Error(err))
	}
}

func newEmbedder(cfg *config.Config, httpClient *http.Client) (services.Embedder, error) {
	if cfg.EmbeddingModel == config.EmbeddingBGE {
		bge, err := services.NewBGEEmbedder(cfg.OllamaHost, cfg.BGEModelName, httpClient)
		if err != nil {
			return nil, err
		}
		return bge, nil
	}
	return services.NewOpenAIEmbedder(cfg.OpenAIAPIKey, "", cfg.OpenAIEmbeddingModel), nil
}

func newVectorStore(cfg *config.Config, zl *zap.Logger) (services.VectorStore, error) {
	if cfg.VectorStore == config.StoreChroma {
		chroma, err := services.NewChromaStore(cfg.ChromaURL, cfg.QdrantCollection, zl)
		if err != nil {
			return nil, err
		}
		return chroma, nil
	}
	qdrant, err := services.NewQdrantStore(cfg.QdrantURL, cfg.QdrantAPIKey, cfg.QdrantCollection, zl)
	if err != nil {
		return nil, err
	}
	return qdrant, nil
}

func newLLM(ctx context.Context, cfg *config.Config) (services.LLMClient, error) {
	provider, err := cfg.ResolvedProvider()
	if err != nil {
		return nil, err
	}

	var (
		apiKey  = cfg.OpenAIAPIKey
		baseURL string
		model   = cfg.OpenAIModel
	)
	switch provider {
	case config.ProviderGemini:
		gemini, err := services.NewGeminiLLM(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, "", cfg.MaxTokens, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		return gemini, nil
	case config.ProviderOpenRouter:
		apiKey, baseURL, model = cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterModel
	}

	chat, err := services.NewChatLLM(provider, apiKey, baseURL, model, cfg.MaxTokens, cfg.Temperature)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// recoverWithError turns a handler panic into a 500 carrying the panic value.
func recoverWithError(zl *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		zl.Error("handler panic", zap.String("path", c.Request.URL.Path), zap.Any("panic", recovered))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprint(recovered)})
	})
}

// requestLogger logs one line per request.
func requestLogger(zl *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		zl.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
