package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/services/shopify"
)

type GraphHandler struct {
	graph  Templater
	logger *zap.Logger
}

func NewGraphHandler(graph Templater, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		graph:  graph,
		logger: logger,
	}
}

// Query runs a read-only template query. Results are cached unless the
// caller opts out with "cache": false.
func (h *GraphHandler) Query(c *gin.Context) {
	var request struct {
		API       string         `json:"api"`
		Query     string         `json:"query" binding:"required"`
		Variables map[string]any `json:"variables"`
		Cache     *bool          `json:"cache"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cacheable := request.Cache == nil || *request.Cache

	res, err := h.graph.Template(c.Request.Context(), request.API, request.Query, request.Variables, cacheable)
	if errors.Is(err, shopify.ErrMutationNotAllowed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		remoteFailure(c, h.logger, "Failed to run template query", err)
		return
	}
	c.JSON(http.StatusOK, res)
}
