package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/session"
)

type CustomerHandler struct {
	accounts Accounts
	open     session.Opener
	logger   *zap.Logger
}

func NewCustomerHandler(accounts Accounts, open session.Opener, logger *zap.Logger) *CustomerHandler {
	return &CustomerHandler{
		accounts: accounts,
		open:     open,
		logger:   logger,
	}
}

// Login stores a customer access token for the visitor.
func (h *CustomerHandler) Login(c *gin.Context) {
	var request struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	errs, err := h.accounts.Login(c.Request.Context(), h.open(c.Writer, c.Request), request.Email, request.Password)
	if err != nil {
		remoteFailure(c, h.logger, "Failed to log customer in", err)
		return
	}
	if len(errs) > 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": errs})
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": nil})
}

func (h *CustomerHandler) Logout(c *gin.Context) {
	if err := h.accounts.Logout(c.Request.Context(), h.open(c.Writer, c.Request)); err != nil {
		remoteFailure(c, h.logger, "Failed to log customer out", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"errors": nil})
}

// Current reports the logged in customer. customer_id is empty for guests.
func (h *CustomerHandler) Current(c *gin.Context) {
	id, err := h.accounts.CurrentCustomerID(c.Request.Context(), h.open(c.Writer, c.Request))
	if err != nil {
		remoteFailure(c, h.logger, "Failed to get current customer", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer_id": id})
}
