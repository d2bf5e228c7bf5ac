package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/seoblog-api/internal/config"
	"github.com/noah-isme/seoblog-api/internal/database"
	"github.com/noah-isme/seoblog-api/internal/handler"
	"github.com/noah-isme/seoblog-api/internal/middleware"
	"github.com/noah-isme/seoblog-api/internal/prompt"
	"github.com/noah-isme/seoblog-api/internal/repository"
	"github.com/noah-isme/seoblog-api/internal/router"
	"github.com/noah-isme/seoblog-api/internal/seo"
	"github.com/noah-isme/seoblog-api/internal/service"
	"github.com/noah-isme/seoblog-api/pkg/ai"
	cloud "github.com/noah-isme/seoblog-api/pkg/cloudinary"
	"github.com/noah-isme/seoblog-api/pkg/webfetch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	rootCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName, logger)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	provider, imageGenerator, err := buildProvider(rootCtx, cfg)
	if err != nil {
		log.Fatalf("failed to create ai provider: %v", err)
	}

	aiClient, err := ai.NewClient(provider, ai.ClientConfig{
		CallTimeout:   cfg.AICallTimeout,
		RatePerSecond: cfg.AIRatePerSecond,
		Burst:         cfg.AIBurst,
		Logger:        logger,
	})
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}

	var storage service.FileStorage
	if cfg.ImagesConfigured() {
		uploader, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		storage = uploader
	} else {
		imageGenerator = nil
		logger.Warn().Msg("image generation disabled: openai key or cloudinary credentials missing")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	prompts := prompt.NewBuilder(prompt.Limits{
		EvaluationContent: cfg.EvaluationContentChars,
		GenerationContent: cfg.GenerationContentChars,
	})
	checker := seo.NewChecker(cfg.SEOTargets)
	fetcher := webfetch.New(&http.Client{Timeout: 10 * time.Second}, 0)

	projectRepo := repository.NewProjectRepository(db)
	chatRepo := repository.NewChatRepository(db)

	titleService := service.NewTitleService(
		service.NewTitleGenerator(aiClient, prompts, cfg.TitleBatchSize, logger),
		service.NewTitleEvaluator(aiClient, prompts, cfg.TitleEvalConcurrency, logger),
		cfg.TitleTopK,
		logger,
	)
	progressService := service.NewProgressService(redisClient, cfg.ProgressChannel, natsConn, validate, logger)
	progressService.Start(rootCtx)

	contentGenerator := service.NewContentGenerator(aiClient, prompts, checker, cfg.SEOMaxAttempts, logger)

	projectService := service.NewProjectService(service.ProjectDependencies{
		Repo:     projectRepo,
		Keywords: service.NewKeywordService(aiClient, prompts, redisClient, cfg.KeywordCacheTTL, logger),
		Research: service.NewResearchService(aiClient, prompts, fetcher, logger),
		Content:  contentGenerator,
		Titles:   titleService,
		Images:   service.NewImageService(imageGenerator, storage, fetcher, prompts, cfg.AIImageSize, logger),
		Progress: progressService,
		Invoker:  aiClient,
		Prompts:  prompts,
	}, validate, cfg.PipelineTimeout, cfg.MobileWidth, logger)

	chatService := service.NewChatService(service.ChatDependencies{
		Projects: projectRepo,
		Chats:    chatRepo,
		Titles:   titleService,
		Content:  contentGenerator,
		Progress: progressService,
		Invoker:  aiClient,
		Prompts:  prompts,
		Targets:  cfg.SEOTargets,
	}, validate, cfg.PipelineTimeout, logger)

	titleHandler := handler.NewTitleHandler(titleService, validate, cfg.TitleTimeout, logger)
	projectHandler := handler.NewProjectHandler(projectService, logger)
	progressHandler := handler.NewProgressHandler(projectService, progressService, cfg.SSEKeepAlive, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		TitleHandler:      titleHandler,
		ProjectHandler:    projectHandler,
		ProgressHandler:   progressHandler,
		ChatHandler:       chatHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		GenerationLimiter: middleware.RateLimit("generation", cfg.GenerationLimit, cfg.GenerationWindow),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Str("ai_provider", provider.Name()).
		Str("ai_model", provider.Model()).
		Bool("images", cfg.ImagesConfigured()).
		Msg("server started")

	waitForShutdown(app, stopBackground)
}

// buildProvider selects the text provider. The image generator is always OpenAI
// and is nil when no OpenAI key is configured.
func buildProvider(ctx context.Context, cfg config.Config) (ai.Provider, ai.ImageGenerator, error) {
	var images ai.ImageGenerator
	var openAI *ai.OpenAIProvider
	if cfg.OpenAIAPIKey != "" {
		provider, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			APIKey:     cfg.OpenAIAPIKey,
			Model:      openAIModel(cfg),
			ImageModel: cfg.AIImageModel,
			MaxTokens:  cfg.AIMaxTokens,
			BaseURL:    cfg.OpenAIBaseURL,
		})
		if err != nil {
			return nil, nil, err
		}
		openAI = provider
		images = provider
	}

	if cfg.AIProvider == config.ProviderGemini {
		gemini, err := ai.NewGeminiProvider(ctx, ai.GeminiConfig{
			APIKey:    cfg.GeminiAPIKey,
			Model:     cfg.AIModel,
			MaxTokens: cfg.AIMaxTokens,
		})
		if err != nil {
			return nil, nil, err
		}
		return gemini, images, nil
	}

	if openAI == nil {
		return nil, nil, fmt.Errorf("openai api key is required for provider %q", cfg.AIProvider)
	}
	return openAI, images, nil
}

func openAIModel(cfg config.Config) string {
	if cfg.AIProvider == config.ProviderOpenAI {
		return cfg.AIModel
	}
	return ""
}

func waitForShutdown(app *fiber.App, stopBackground context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
