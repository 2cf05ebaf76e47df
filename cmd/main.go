package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/connecthub/roadmap-backend/internal/db"
	"github.com/connecthub/roadmap-backend/internal/handlers"
	"github.com/connecthub/roadmap-backend/internal/logger"
	"github.com/connecthub/roadmap-backend/internal/observability"
	"github.com/connecthub/roadmap-backend/internal/repos"
	"github.com/connecthub/roadmap-backend/internal/server"
	"github.com/connecthub/roadmap-backend/internal/services"
	"github.com/connecthub/roadmap-backend/internal/sources"
	"github.com/connecthub/roadmap-backend/internal/utils"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "roadmap-backend",
		Environment: utils.GetEnv("APP_ENV", "development", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Postgres (optional; roadmaps are served from the job store either way)
	var roadmapRepo repos.RoadmapRepo
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Warn("Postgres init failed, roadmap persistence disabled", "error", err)
	} else {
		if err := postgresService.AutoMigrateAll(); err != nil {
			log.Warn("Postgres auto migration failed", "error", err)
		}
		roadmapRepo = repos.NewRoadmapRepo(postgresService.DB(), log)
	}

	// Oracle
	log.Info("Setting up Services from main...")
	geminiClient, err := services.NewGeminiClient(log)
	if err != nil {
		log.Error("Could not init GeminiClient", "error", err)
		os.Exit(1)
	}

	// Sources
	srcs := []sources.Source{sources.NewClassCentralSource(log)}
	youtubeSource, err := sources.NewYouTubeSource(log)
	if err != nil {
		log.Warn("Could not init YouTubeSource, continuing without it", "error", err)
	} else {
		srcs = append(srcs, youtubeSource)
	}

	// Services
	topicService := services.NewTopicService(log, geminiClient)
	selectorService := services.NewSelectorService(log, geminiClient)
	roadmapService := services.NewRoadmapService(log, topicService, selectorService, srcs, roadmapRepo)

	var jobStore services.JobStore
	if utils.GetEnv("REDIS_ADDR", "", log) != "" {
		jobStore, err = services.NewRedisJobStore(log)
		if err != nil {
			log.Warn("Redis init failed, falling back to in-memory job store", "error", err)
			jobStore = services.NewMemoryJobStore()
		}
	} else {
		jobStore = services.NewMemoryJobStore()
	}

	jobService := services.NewJobService(log, jobStore, roadmapService)
	chatService := services.NewChatService(log, geminiClient, jobStore)

	// Handlers
	roadmapHandler := handlers.NewRoadmapHandler(jobService)
	chatHandler := handlers.NewChatHandler(chatService)

	// Router
	router := server.NewRouter(server.RouterConfig{
		RoadmapHandler: roadmapHandler,
		ChatHandler:    chatHandler,
		Log:            log,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Starting server", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server exited", "error", err)
	}
}
