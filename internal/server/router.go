package server

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/connecthub/roadmap-backend/internal/handlers"
	"github.com/connecthub/roadmap-backend/internal/logger"
	"github.com/connecthub/roadmap-backend/internal/utils"
)

type RouterConfig struct {
	RoadmapHandler *handlers.RoadmapHandler
	ChatHandler    *handlers.ChatHandler
	Log            *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("roadmap-backend"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(cfg.Log),
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	// Roadmap
	router.POST("/generate-roadmap", cfg.RoadmapHandler.StartGeneration)
	router.GET("/roadmap/:id", cfg.RoadmapHandler.GetRoadmap)

	// Chat
	router.POST("/chat", cfg.ChatHandler.Chat)
	router.GET("/messages/:id", cfg.ChatHandler.Messages)
	router.POST("/clear", cfg.ChatHandler.Clear)

	return router
}

func allowedOrigins(log *logger.Logger) []string {
	raw := utils.GetEnv("CORS_ALLOW_ORIGINS", "", log)
	if strings.TrimSpace(raw) == "" {
		return []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		}
	}
	var origins []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			origins = append(origins, part)
		}
	}
	return origins
}
