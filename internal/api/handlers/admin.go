package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/queue"
)

const renderQuery = `query ($id: ID!) {
	node(id: $id) {
		id
		... on Product { title handle tags }
		... on Collection { title handle }
		... on Customer { email displayName }
	}
}`

// AdminHandler serves the maintenance routes. Jobs go to the queue when a
// publisher is set and run inline otherwise.
type AdminHandler struct {
	cache     CacheClearer
	render    Renders
	graph     Templater
	installer Installer
	importer  Importer
	publisher queue.Publisher
	logger    *zap.Logger
}

type AdminDeps struct {
	Cache     CacheClearer
	Render    Renders
	Graph     Templater
	Installer Installer
	Importer  Importer
	Publisher queue.Publisher
}

func NewAdminHandler(d AdminDeps, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		cache:     d.Cache,
		render:    d.Render,
		graph:     d.Graph,
		installer: d.Installer,
		importer:  d.Importer,
		publisher: d.Publisher,
		logger:    logger,
	}
}

func (h *AdminHandler) ClearCache(c *gin.Context) {
	if h.publisher != nil {
		h.enqueue(c, queue.EventCacheClear)
		return
	}
	if err := h.cache.InvalidateAll(c.Request.Context()); err != nil {
		h.logger.Error("Failed to clear cache", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear cache"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cache cleared"})
}

func (h *AdminHandler) ImportProducts(c *gin.Context) {
	if h.publisher != nil {
		h.enqueue(c, queue.EventImportProducts)
		return
	}
	n, err := h.importer.ImportProducts(c.Request.Context())
	if err != nil {
		remoteFailure(c, h.logger, "Failed to import products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (h *AdminHandler) InstallWebhooks(c *gin.Context) {
	errs, err := h.installer.Install(c.Request.Context())
	if err != nil {
		remoteFailure(c, h.logger, "Failed to install webhooks", err)
		return
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": nil})
}

func (h *AdminHandler) UninstallWebhooks(c *gin.Context) {
	errs, err := h.installer.Uninstall(c.Request.Context())
	if err != nil {
		remoteFailure(c, h.logger, "Failed to uninstall webhooks", err)
		return
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": nil})
}

// Render returns the cached summary of one remote node, fetching it on a
// miss. Entries are dropped when the node is invalidated.
func (h *AdminHandler) Render(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	if body, ok := h.render.Render(c.Request.Context(), id); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
		return
	}

	res, err := h.graph.Template(c.Request.Context(), "admin", renderQuery, map[string]any{"id": id}, false)
	if err != nil {
		remoteFailure(c, h.logger, "Failed to render node", err)
		return
	}
	if res.HasErrors() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": res.Errors})
		return
	}
	node := res.At("node")
	if node == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Node not found"})
		return
	}

	body, err := json.Marshal(node)
	if err != nil {
		h.logger.Error("Failed to encode node", zap.String("remote_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render node"})
		return
	}
	h.render.SetRender(c.Request.Context(), id, body)
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *AdminHandler) enqueue(c *gin.Context, typ queue.EventType) {
	event := queue.Event{Type: typ, Timestamp: time.Now().UTC()}
	if err := h.publisher.Publish(c.Request.Context(), event); err != nil {
		h.logger.Error("Failed to queue job", zap.String("type", string(typ)), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to queue job"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Job queued", "type": typ})
}
