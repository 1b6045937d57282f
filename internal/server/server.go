// Package server exposes the pipelines over HTTP. Handlers are thin:
// bind the request, call the pipeline, translate the error kind.
package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"qarag/internal/domain"
	"qarag/internal/service"
)

// askFailureMessage is the fixed user-facing message for any failure on
// the /ask path; upstream detail stays in the server log.
const askFailureMessage = "An error occurred while processing your question. The service might be temporarily unavailable."

// Handler wires the three pipelines to their routes.
type Handler struct {
	search   *service.Search
	question *service.Question
	updater  *service.Updater
	log      *zap.Logger
}

func NewHandler(search *service.Search, question *service.Question, updater *service.Updater, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{search: search, question: question, updater: updater, log: log}
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.POST("/query", h.Query)
	router.POST("/ask", h.Ask)
	router.POST("/update", h.Update)
	router.GET("/health", h.Health)
	return router
}

// QueryRequest is the body for POST /query.
type QueryRequest struct {
	Query   string `json:"query" binding:"required"`
	Product string `json:"product"`
}

// Query handles POST /query.
func (h *Handler) Query(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Product == "" {
		req.Product = domain.ProductAll
	}
	result, err := h.search.QueryRAG(c.Request.Context(), req.Query, req.Product)
	if err != nil {
		h.log.Error("query endpoint failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process query"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// AskRequest is the body for POST /ask.
type AskRequest struct {
	Query string `json:"query" binding:"required"`
}

// Ask handles POST /ask. Every pipeline failure maps to the same fixed
// message; detail is logged, never returned.
func (h *Handler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.question.Ask(c.Request.Context(), req.Query)
	if err != nil {
		h.log.Error("ask endpoint failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": askFailureMessage})
		return
	}
	c.JSON(http.StatusOK, result)
}

// UpdateRequest is the body for POST /update.
type UpdateRequest struct {
	NodeID string `json:"node_id" binding:"required"`
	Answer string `json:"answer" binding:"required"`
}

// Update handles POST /update. Unlike /ask, failure detail is exposed
// to the caller; this endpoint is used by internal tooling.
func (h *Handler) Update(c *gin.Context) {
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.updater.UpdateAnswer(c.Request.Context(), req.NodeID, req.Answer)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.log.Error("update endpoint failed", zap.String("node_id", req.NodeID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Document updated successfully",
		"result":  result,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
