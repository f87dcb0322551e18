package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/services/shopify"
	"storefront/internal/session"
)

type CheckoutHandler struct {
	carts  Carts
	open   session.Opener
	logger *zap.Logger
}

func NewCheckoutHandler(carts Carts, open session.Opener, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		carts:  carts,
		open:   open,
		logger: logger,
	}
}

// Get returns the id of the visitor's open checkout, creating one if needed.
func (h *CheckoutHandler) Get(c *gin.Context) {
	cart, err := h.carts.Open(c.Request.Context(), h.open(c.Writer, c.Request))
	if err != nil {
		remoteFailure(c, h.logger, "Failed to open checkout", err)
		return
	}

	id, err := cart.CheckoutID(c.Request.Context())
	if err != nil {
		remoteFailure(c, h.logger, "Failed to get checkout", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkout_id": id})
}

func (h *CheckoutHandler) AddLineItem(c *gin.Context) {
	var request struct {
		VariantID string `json:"variant_id" binding:"required"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if request.Quantity <= 0 {
		request.Quantity = 1
	}

	h.run(c, "add line item", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.AddLineItem(ctx, request.VariantID, request.Quantity)
	})
}

func (h *CheckoutHandler) UpdateLineItem(c *gin.Context) {
	var request struct {
		LineItemID string `json:"line_item_id" binding:"required"`
		Quantity   int    `json:"quantity" binding:"min=0"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "update line item", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.UpdateLineItem(ctx, request.LineItemID, request.Quantity)
	})
}

func (h *CheckoutHandler) RemoveLineItem(c *gin.Context) {
	var request struct {
		LineItemID string `json:"line_item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "remove line item", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.RemoveLineItem(ctx, request.LineItemID)
	})
}

func (h *CheckoutHandler) ApplyDiscount(c *gin.Context) {
	var request struct {
		Code string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "apply discount code", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.ApplyDiscountCode(ctx, request.Code)
	})
}

func (h *CheckoutHandler) RemoveDiscount(c *gin.Context) {
	h.run(c, "remove discount code", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.RemoveDiscountCode(ctx)
	})
}

func (h *CheckoutHandler) SetNote(c *gin.Context) {
	var request struct {
		Note string `json:"note"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "set note", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.SetNote(ctx, request.Note)
	})
}

func (h *CheckoutHandler) SetAttributes(c *gin.Context) {
	var request struct {
		Attributes map[string]string `json:"attributes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.run(c, "set custom attributes", func(ctx context.Context, cart Cart) (shopify.Errors, error) {
		return cart.SetCustomAttributes(ctx, request.Attributes)
	})
}

// run opens the visitor's cart and applies one mutation to it.
func (h *CheckoutHandler) run(c *gin.Context, action string, fn func(ctx context.Context, cart Cart) (shopify.Errors, error)) {
	ctx := c.Request.Context()
	cart, err := h.carts.Open(ctx, h.open(c.Writer, c.Request))
	if err != nil {
		remoteFailure(c, h.logger, "Failed to open checkout", err)
		return
	}

	errs, err := fn(ctx, cart)
	if err != nil {
		remoteFailure(c, h.logger, "Failed to "+action, err)
		return
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": nil})
}
