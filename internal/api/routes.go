package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fraudnets/detection-engine/internal/config"
	"github.com/fraudnets/detection-engine/internal/db"
	"github.com/fraudnets/detection-engine/internal/engine"
	"github.com/fraudnets/detection-engine/pkg/models"
)

// APIHandler carries the collaborators shared by all HTTP handlers.
type APIHandler struct {
	engine        *engine.Engine
	dbStore       *db.PostgresStore
	wsHub         *Hub
	logger        *zap.Logger
	signalEnabled bool
}

// SetupRouter wires middleware and routes. dbStore may be nil; the history
// endpoint then reports the store as unavailable.
func SetupRouter(eng *engine.Engine, dbStore *db.PostgresStore, wsHub *Hub, cfg config.ServerConfig, signalEnabled bool, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.AllowedOrigins))

	handler := &APIHandler{
		engine:        eng,
		dbStore:       dbStore,
		wsHub:         wsHub,
		logger:        logger,
		signalEnabled: signalEnabled,
	}

	limiter := NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitBurst)
	auth := AuthMiddleware(cfg.AuthToken, logger)

	r.GET("/", handler.handleRoot)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1", limiter.Middleware())
	{
		api.GET("/health", handler.handleHealth)
		api.GET("/graph", handler.handleGraph)
		api.GET("/stats", handler.handleStats)
		api.GET("/blacklist", handler.handleBlacklist)
		api.GET("/detections", handler.handleDetections)
		api.GET("/stream", wsHub.Subscribe)

		api.POST("/analyze", auth, handler.handleAnalyze)
		api.POST("/reset", auth, handler.handleReset)
		api.POST("/demo/generate-sample", handler.handleGenerateSample)
	}

	return r
}

// corsMiddleware mirrors the origin policy of the dashboard deployment:
// a comma-separated allowlist, or * when unset.
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *APIHandler) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "FraudNets Detection Engine", "status": "running"})
}

// handleHealth reports engine status and collaborator availability for
// service discovery.
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api": "healthy",
		"signal": gin.H{
			"loaded": h.signalEnabled,
		},
		"dbConnected": h.dbStore != nil,
	})
}

// BroadcastFraudAlert adapts the hub into the engine's fraud callback: every
// positive detection is pushed to connected dashboards.
func BroadcastFraudAlert(wsHub *Hub, logger *zap.Logger) func(models.DetectionResult) {
	return func(result models.DetectionResult) {
		payload := gin.H{
			"type":   "fraud_alert",
			"result": result,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			logger.Warn("failed to marshal fraud alert", zap.Error(err))
			return
		}
		wsHub.Broadcast(data)
		logger.Info("fraud alert broadcast",
			zap.String("fraud_type", string(result.FraudType)),
			zap.Int("flagged_accounts", len(result.FlaggedAccounts)))
	}
}
