// main.go
package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jungha-dev/newsVideo-sub000/assembly"
	"github.com/jungha-dev/newsVideo-sub000/auth"
	"github.com/jungha-dev/newsVideo-sub000/encoder"
	"github.com/jungha-dev/newsVideo-sub000/internal/config"
	"github.com/jungha-dev/newsVideo-sub000/internal/platform"
	"github.com/jungha-dev/newsVideo-sub000/processing"
	"github.com/jungha-dev/newsVideo-sub000/providers"
	"github.com/jungha-dev/newsVideo-sub000/render"
	"github.com/jungha-dev/newsVideo-sub000/safesource"
	scenariohandlers "github.com/jungha-dev/newsVideo-sub000/scenario"
	"github.com/jungha-dev/newsVideo-sub000/session"
	"github.com/jungha-dev/newsVideo-sub000/storage"
	"github.com/jungha-dev/newsVideo-sub000/worker"
	"gorm.io/gorm"
)

type Server struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Router *gin.Engine
	Config *config.Config
}

func NewServer() (*Server, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}

	db := platform.NewDBConnection()
	rdb := platform.NewRedisClient()

	router := gin.Default()

	// Add database to context middleware
	router.Use(func(c *gin.Context) {
		c.Set("db", db)
		c.Next()
	})

	// CORS for the frontend
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", os.Getenv("FRONTEND_URL"))
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	server := &Server{
		DB:     db,
		Redis:  rdb,
		Router: router,
		Config: cfg,
	}

	server.setupRoutes()

	return server, nil
}

func configPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (s *Server) sessionManager() (*session.Manager, error) {
	cfg := s.Config

	completer, err := processing.NewOpenAICompleter(cfg.Scenario.Model)
	if err != nil {
		return nil, err
	}

	adapters := []providers.Adapter{
		providers.NewKlingAdapter(cfg.Providers.Kling.BaseURL, os.Getenv(cfg.Providers.Kling.APIKeyEnv), cfg.RenderTimeout()),
		providers.NewHeygenAdapter(cfg.Providers.Heygen.BaseURL, os.Getenv(cfg.Providers.Heygen.APIKeyEnv), cfg.RenderTimeout()),
		providers.NewMinimaxAdapter(cfg.Providers.Minimax.BaseURL, os.Getenv(cfg.Providers.Minimax.APIKeyEnv), cfg.RenderTimeout()),
	}

	blobs, err := storage.NewLocalStorage(cfg.Storage.UploadDir, cfg.Storage.BaseURL)
	if err != nil {
		return nil, err
	}

	deps := session.Deps{
		DB:        s.DB,
		Completer: completer,
		Adapters:  adapters,
		Filter:    safesource.New(cfg.Sources.ExtraDeniedHosts...),
		Publisher: &render.RedisPublisher{RDB: s.Redis},
		Engine: assembly.NewEngine(
			encoder.NewClient(cfg.Encoder.BaseURL, cfg.EncoderTimeout()),
			cfg.HandleTTL(),
			cfg.Merge.TempDir,
		),
		Blobs:                blobs,
		Queue:                worker.NewProcessor(s.DB, s.Redis, blobs),
		MaxConcurrentRenders: cfg.Render.MaxConcurrent,
		SceneDurationSec:     cfg.Scenario.SceneDurationSec,
	}

	return session.NewManager(deps), nil
}

func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.Router.GET("/health", func(c *gin.Context) {
		sqlDB, err := s.DB.DB()
		if err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		if err := sqlDB.Ping(); err != nil {
			c.JSON(500, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}

		c.JSON(200, gin.H{
			"status":   "healthy",
			"database": "connected",
		})
	})

	sessions, err := s.sessionManager()
	if err != nil {
		log.Fatalf("Failed to build session manager: %v", err)
	}

	authHandler := auth.NewHandler(s.DB)
	scenarioHandler := scenariohandlers.NewHandler(s.DB, sessions)

	s.Router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "newsVideo API v1"})
	})

	// Auth routes (public - no auth middleware)
	authRoutes := s.Router.Group("/auth")
	{
		authRoutes.POST("/sessions", authHandler.CreateSession)
		authRoutes.POST("/logout", authHandler.Logout)
		authRoutes.GET("/me", auth.AuthMiddleware(), authHandler.GetCurrentUser)
	}

	// Durable blobs written by storage.LocalStorage
	s.Router.Static("/uploads", s.Config.Storage.UploadDir)

	// Protected routes that require authentication
	protected := s.Router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		scenarioRoutes := protected.Group("/scenarios")
		{
			scenarioRoutes.POST("", scenarioHandler.CreateScenario)
			scenarioRoutes.GET("", scenarioHandler.ListScenarios)
			scenarioRoutes.GET("/:id", scenarioHandler.GetScenario)
			scenarioRoutes.DELETE("/:id", scenarioHandler.DeleteScenario)

			scenarioRoutes.POST("/:id/scenes", scenarioHandler.AddScene)
			scenarioRoutes.PUT("/:id/scenes/:n", scenarioHandler.UpdateScene)
			scenarioRoutes.DELETE("/:id/scenes/:n", scenarioHandler.DeleteScene)
			scenarioRoutes.POST("/:id/scenes/:n/prompt", scenarioHandler.ComposePrompt)
			scenarioRoutes.POST("/:id/scenes/:n/seed", scenarioHandler.AttachSeed)
			scenarioRoutes.POST("/:id/scenes/:n/announcer", scenarioHandler.SetAnnouncer)
			scenarioRoutes.POST("/:id/scenes/:n/render", scenarioHandler.RenderScene)

			scenarioRoutes.POST("/:id/render", scenarioHandler.RenderAll)
			scenarioRoutes.GET("/:id/jobs", scenarioHandler.GetJobs)

			scenarioRoutes.GET("/:id/clips", scenarioHandler.ListClips)
			scenarioRoutes.POST("/:id/clips", scenarioHandler.AddClip)
			scenarioRoutes.PUT("/:id/clips/:pos", scenarioHandler.UpdateClip)
			scenarioRoutes.DELETE("/:id/clips/:pos", scenarioHandler.RemoveClip)

			scenarioRoutes.POST("/:id/merge", scenarioHandler.Merge)
			scenarioRoutes.GET("/:id/merges/:handle", scenarioHandler.DownloadMerge)
			scenarioRoutes.POST("/:id/merges/:handle/persist", scenarioHandler.PersistMerge)
		}
	}
}

func (s *Server) Run() error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	return s.Router.Run(":" + port)
}

func main() {
	server, err := NewServer()
	if err != nil {
		log.Fatal("Failed to create server:", err)
	}

	if err := server.Run(); err != nil {
		log.Fatal("Failed to run server:", err)
	}
}
