package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/api/handlers"
	"storefront/internal/api/middleware"
	"storefront/internal/config"
	"storefront/internal/queue"
	"storefront/internal/session"
)

// Deps are the collaborators the routes are built from. Publisher is nil
// unless webhooks and jobs are queued.
type Deps struct {
	Listener  handlers.Listener
	Carts     handlers.Carts
	Accounts  handlers.Accounts
	Graph     handlers.Templater
	Installer handlers.Installer
	Importer  handlers.Importer
	Cache     handlers.CacheClearer
	Render    handlers.Renders
	Sessions  session.Opener
	Publisher queue.Publisher
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *zap.Logger, d Deps) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	// Initialize handlers
	hookHandler := handlers.NewHookHandler(d.Listener, d.Publisher, logger)
	checkoutHandler := handlers.NewCheckoutHandler(d.Carts, d.Sessions, logger)
	customerHandler := handlers.NewCustomerHandler(d.Accounts, d.Sessions, logger)
	graphHandler := handlers.NewGraphHandler(d.Graph, logger)
	adminHandler := handlers.NewAdminHandler(handlers.AdminDeps{
		Cache:     d.Cache,
		Render:    d.Render,
		Graph:     d.Graph,
		Installer: d.Installer,
		Importer:  d.Importer,
		Publisher: d.Publisher,
	}, logger)

	// Routes
	router.POST("/hooks/listen", hookHandler.Listen)

	v1 := router.Group("/api/v1")
	{
		// Checkout
		checkout := v1.Group("/checkout")
		{
			checkout.GET("", checkoutHandler.Get)
			checkout.POST("/line-items", checkoutHandler.AddLineItem)
			checkout.POST("/line-items/update", checkoutHandler.UpdateLineItem)
			checkout.POST("/line-items/remove", checkoutHandler.RemoveLineItem)
			checkout.POST("/discount", checkoutHandler.ApplyDiscount)
			checkout.POST("/discount/remove", checkoutHandler.RemoveDiscount)
			checkout.POST("/note", checkoutHandler.SetNote)
			checkout.POST("/attributes", checkoutHandler.SetAttributes)
		}

		// Customer
		customer := v1.Group("/customer")
		{
			customer.GET("", customerHandler.Current)
			customer.POST("/login", customerHandler.Login)
			customer.POST("/logout", customerHandler.Logout)
		}

		v1.POST("/graph", graphHandler.Query)
		v1.GET("/render", adminHandler.Render)

		// Maintenance
		v1.POST("/cache/clear", adminHandler.ClearCache)
		v1.POST("/import/products", adminHandler.ImportProducts)
		webhooks := v1.Group("/webhooks")
		{
			webhooks.POST("/install", adminHandler.InstallWebhooks)
			webhooks.POST("/uninstall", adminHandler.UninstallWebhooks)
		}
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router, for tests and embedding.
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
