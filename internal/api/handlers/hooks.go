package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/queue"
)

// HookHandler receives webhook deliveries. When a publisher is set the
// delivery is queued for the worker instead of being handled inline.
type HookHandler struct {
	listener  Listener
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewHookHandler(listener Listener, publisher queue.Publisher, logger *zap.Logger) *HookHandler {
	return &HookHandler{
		listener:  listener,
		publisher: publisher,
		logger:    logger,
	}
}

// Listen always answers 200 with an empty body, whatever happened.
func (h *HookHandler) Listen(c *gin.Context) {
	c.Status(http.StatusOK)

	topic := c.Query("hook")
	raw, err := c.GetRawData()
	if err != nil {
		h.logger.Error("Failed to read webhook body", zap.String("topic", topic), zap.Error(err))
		return
	}
	if !h.listener.Handles(topic) {
		h.logger.Debug("Ignoring webhook", zap.String("topic", topic))
		return
	}

	ctx := c.Request.Context()
	if h.publisher != nil {
		if !json.Valid(raw) {
			h.logger.Error("Webhook body is not JSON", zap.String("topic", topic))
			return
		}
		event := queue.Event{
			Type:      queue.EventWebhook,
			Topic:     topic,
			Payload:   raw,
			Timestamp: time.Now().UTC(),
		}
		if err := h.publisher.Publish(ctx, event); err != nil {
			h.logger.Error("Failed to queue webhook", zap.String("topic", topic), zap.Error(err))
		}
		return
	}

	if err := h.listener.Listen(ctx, topic, raw); err != nil {
		h.logger.Error("Failed to handle webhook", zap.String("topic", topic), zap.Error(err))
	}
}
