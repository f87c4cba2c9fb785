package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"groupme-analyzer/backend/internal/graph"
	"groupme-analyzer/backend/internal/paginator"
	"groupme-analyzer/backend/internal/report"
	"groupme-analyzer/backend/internal/state"
	"groupme-analyzer/backend/internal/stats"
	apperrors "groupme-analyzer/backend/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// analysisTimeout bounds a single shared analysis, independent of the
// requests waiting on it
const analysisTimeout = 10 * time.Minute

type analyzer interface {
	Groups(ctx context.Context) ([]state.Group, error)
	FindGroup(ctx context.Context, groupID string) (*state.Group, error)
	Analyze(ctx context.Context, group state.Group, onProgress paginator.ProgressFunc) (*stats.Stats, error)
}

type analysisStore interface {
	SaveAnalysis(ctx context.Context, analysisID string, group state.Group, s *stats.Stats) error
	FetchAnalysis(ctx context.Context, analysisID string) (*graph.Analysis, error)
}

type handler struct {
	svc      analyzer
	store    analysisStore // nil when persistence is disabled
	inflight singleflight.Group
	logger   *zap.Logger
}

type analysisResult struct {
	id    string
	group state.Group
	stats *stats.Stats
}

type memberResponse struct {
	*state.MemberStats
	LikesPerMessage float64 `json:"likes_per_message"`
}

type statsResponse struct {
	AnalysisID        string           `json:"analysis_id"`
	GroupID           string           `json:"group_id"`
	GroupName         string           `json:"group_name"`
	MessagesProcessed int              `json:"messages_processed"`
	Stored            bool             `json:"stored"`
	Members           []memberResponse `json:"members"`
}

func newHandler(svc analyzer, store analysisStore, log *zap.Logger) *handler {
	return &handler{svc: svc, store: store, logger: log}
}

func newRouter(h *handler, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Authorization, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.GET("/groups", h.listGroups)
		api.GET("/groups/:id/stats", h.groupStats)
		api.GET("/analyses/:id", h.getAnalysis)
	}

	return router
}

func (h *handler) listGroups(c *gin.Context) {
	groups, err := h.svc.Groups(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list groups", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func (h *handler) groupStats(c *gin.Context) {
	groupID := c.Param("id")

	format := c.DefaultQuery("format", "json")
	if format != "json" && format != "csv" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
		return
	}

	// Concurrent requests for the same group share one pass over its history
	v, err, shared := h.inflight.Do(groupID, func() (interface{}, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), analysisTimeout)
		defer cancel()
		return h.runAnalysis(ctx, groupID)
	})
	if err != nil {
		h.fail(c, "Failed to analyze group", err)
		return
	}
	result := v.(*analysisResult)
	if shared {
		h.logger.Debug("Analysis shared between requests", zap.String("analysis_id", result.id))
	}

	if format == "csv" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, result.stats); err != nil {
			h.fail(c, "Failed to render CSV", err)
			return
		}
		c.Header("Content-Disposition", `attachment; filename="users.csv"`)
		c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, h.toResponse(result))
}

func (h *handler) runAnalysis(ctx context.Context, groupID string) (*analysisResult, error) {
	group, err := h.svc.FindGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	s, err := h.svc.Analyze(ctx, *group, nil)
	if err != nil {
		return nil, err
	}

	result := &analysisResult{id: uuid.NewString(), group: *group, stats: s}
	if h.store != nil {
		// A failed save still returns the statistics
		if err := h.store.SaveAnalysis(ctx, result.id, result.group, s); err != nil {
			h.logger.Error("Failed to store analysis",
				zap.Error(err),
				zap.String("analysis_id", result.id),
			)
			result.id = ""
		}
	}
	return result, nil
}

func (h *handler) toResponse(result *analysisResult) statsResponse {
	members := result.stats.Members()
	resp := statsResponse{
		AnalysisID:        result.id,
		GroupID:           result.group.ID,
		GroupName:         result.group.Name,
		MessagesProcessed: result.stats.MessagesProcessed(),
		Stored:            h.store != nil && result.id != "",
		Members:           make([]memberResponse, 0, len(members)),
	}
	for _, m := range members {
		resp.Members = append(resp.Members, memberResponse{
			MemberStats:     m,
			LikesPerMessage: stats.LikesPerMessage(m),
		})
	}
	return resp
}

func (h *handler) getAnalysis(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Analysis storage is not configured"})
		return
	}

	stored, err := h.store.FetchAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		var notFound *apperrors.ErrAnalysisNotFound
		if errors.As(err, &notFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
			return
		}
		h.fail(c, "Failed to fetch analysis", err)
		return
	}
	c.JSON(http.StatusOK, stored)
}

// fail maps an error onto a status code and logs anything that is not the caller's fault
func (h *handler) fail(c *gin.Context, msg string, err error) {
	switch {
	case apperrors.IsInput(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsTransport(err):
		h.logger.Warn(msg, zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": msg})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}
