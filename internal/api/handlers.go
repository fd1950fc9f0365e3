package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fraudnets/detection-engine/internal/engine"
	"github.com/fraudnets/detection-engine/pkg/models"
)

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	Transactions []models.Transaction `json:"transactions"`
	BankID       string               `json:"bank_id,omitempty"`
}

// handleAnalyze runs one batch through the detection pipeline. A validation
// failure is a 400 with structured detail, never conflated with a clean
// no-fraud verdict.
func (h *APIHandler) handleAnalyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.engine.Analyze(c.Request.Context(), req.Transactions)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Batch rejected",
				"validation": gin.H{
					"index":  verr.Index,
					"field":  verr.Field,
					"reason": verr.Reason,
				},
			})
			return
		}
		h.logger.Error("analysis failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Analysis failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleGraph serves the read-only graph export for visualization.
func (h *APIHandler) handleGraph(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.ExportGraph())
}

// handleStats serves the counters plus live node/edge counts.
func (h *APIHandler) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Stats())
}

// handleBlacklist dumps the current blacklist ledger.
func (h *APIHandler) handleBlacklist(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"blacklist": h.engine.Blacklist()})
}

// handleReset clears all session state: graph, blacklist and stats.
func (h *APIHandler) handleReset(c *gin.Context) {
	h.engine.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// handleDetections serves the stored detection history when the optional
// store is connected.
func (h *APIHandler) handleDetections(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Detection store not connected"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.dbStore.RecentDetections(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("failed to fetch detection history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch detection history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "count": len(records)})
}
