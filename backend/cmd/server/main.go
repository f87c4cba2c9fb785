package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"groupme-analyzer/backend/internal/analysis"
	"groupme-analyzer/backend/internal/constants"
	"groupme-analyzer/backend/internal/discord"
	"groupme-analyzer/backend/internal/graph"
	"groupme-analyzer/backend/internal/groupme"
	"groupme-analyzer/backend/pkg/config"
	"groupme-analyzer/backend/pkg/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...", zap.String("source", cfg.Source))

	source, err := buildSource(cfg, log)
	if err != nil {
		log.Fatal("Failed to configure message source", zap.Error(err))
	}
	svc := analysis.NewService(source, cfg.PageSize, log)

	var store analysisStore
	if cfg.GraphEnabled() {
		repo, err := graph.Connect(context.Background(), cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
		if err != nil {
			log.Fatal("Failed to connect to Neo4j", zap.Error(err))
		}
		defer repo.Close()
		store = repo
	} else {
		log.Info("NEO4J_URI not set, analyses will not be stored")
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(newHandler(svc, store, log), log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// buildSource picks the message source from configuration.
// The server never prompts, so the token must come from the environment.
func buildSource(cfg *config.Config, log *zap.Logger) (analysis.Source, error) {
	switch cfg.Source {
	case constants.SourceDiscord:
		if cfg.DiscordBotToken == "" {
			return nil, fmt.Errorf("DISCORD_BOT_TOKEN is required when SOURCE=discord")
		}
		session, err := discordgo.New("Bot " + cfg.DiscordBotToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		return discord.NewSource(session, cfg.DiscordGuildID, cfg.DiscordMessageLimit, log), nil
	default:
		if cfg.GroupMeToken == "" {
			return nil, fmt.Errorf("GROUPME_TOKEN is required")
		}
		return groupme.NewClient(cfg.GroupMeAPIURL, cfg.GroupMeToken, cfg.HTTPTimeout), nil
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}
