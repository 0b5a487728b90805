package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/verisense/internal/model"
	"github.com/ppiankov/verisense/internal/pipeline"
	"github.com/ppiankov/verisense/internal/store"
)

func (s *Server) analyze(c *gin.Context) {
	var in pipeline.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.AnalysisTimeout)
	defer cancel()

	result, err := s.analyzer.Analyze(ctx, in)
	if err != nil {
		c.JSON(analysisStatus(err), gin.H{"err": err.Error()})
		return
	}

	rec := model.NewHistoryRecord(c.GetString(ctxUserID), result)
	if err := s.store.SaveAnalysis(c.Request.Context(), &rec); err != nil {
		slog.Error("[Server] Failed to save analysis", "id", result.ID, "error", err)
		result.Warnings = append(result.Warnings, "history: analysis was not saved")
	}
	c.JSON(http.StatusOK, result)
}

func analysisStatus(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrEmptyInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, pipeline.ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	// Remaining failures come from fetching the article
	return http.StatusBadGateway
}

func (s *Server) listHistory(c *gin.Context) {
	limit := s.historyLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"err": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := s.store.ListHistory(c.Request.Context(), c.GetString(ctxUserID), limit)
	if err != nil {
		slog.Error("[Server] Failed to list history", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to load history"})
		return
	}
	for i := range records {
		records[i].Analysis = nil
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}

func (s *Server) getHistory(c *gin.Context) {
	rec, err := s.store.GetAnalysis(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "analysis not found"})
		return
	}
	if err != nil {
		slog.Error("[Server] Failed to load analysis", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to load analysis"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) deleteHistory(c *gin.Context) {
	err := s.store.DeleteAnalysis(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "analysis not found"})
		return
	}
	if err != nil {
		slog.Error("[Server] Failed to delete analysis", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"err": "failed to delete analysis"})
		return
	}
	c.Status(http.StatusNoContent)
}
