// Package http exposes the ledger services over a small JSON API.
// Handlers only translate requests and errors; all rules live in the services.
package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/projectledger/finance-engine/internal/application/service"
	"github.com/projectledger/finance-engine/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// WorkbookWriter renders a dashboard as a spreadsheet
type WorkbookWriter interface {
	WriteFinancialHealth(health *entity.FinancialHealth, w io.Writer) error
}

// StatusReporter reports whether the components behind the API are usable
type StatusReporter interface {
	Status() (healthy bool, components interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Services groups the application services served over HTTP
type Services struct {
	Invoices  service.InvoiceService
	Resources service.ResourceService
	Projects  service.ProjectService
	Health    service.FinancialHealthService
	Workbooks WorkbookWriter
	Status    StatusReporter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"request_id", c.GetString(requestIDKey),
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

func (s *Server) setupRoutes() {
	h := NewHandlers(s.services, s.logger)

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api")
	{
		api.POST("/invoices", h.CreateInvoice)
		api.GET("/invoices", h.ListInvoices)
		api.GET("/invoices/:id", h.GetInvoice)
		api.PATCH("/invoices/:id", h.UpdateInvoice)
		api.DELETE("/invoices/:id", h.DeleteInvoice)
		api.POST("/invoices/:id/items", h.AddItem)
		api.DELETE("/invoices/:id/items/:position", h.RemoveItem)
		api.PUT("/invoices/:id/tax-rate", h.SetTaxRate)
		api.PUT("/invoices/:id/paid-amount", h.SetPaidAmount)
		api.POST("/invoices/:id/payments", h.RecordPayment)
		api.PUT("/invoices/:id/status", h.UpdateStatus)

		api.POST("/assignments", h.CreateAssignment)
		api.PUT("/assignments/:id", h.UpdateAssignment)
		api.DELETE("/assignments/:id", h.DeleteAssignment)
		api.GET("/phases/:id/assignments", h.ListAssignments)
		api.GET("/phases/:id/availability", h.GetAvailability)

		api.POST("/projects/:id/advance-stage", h.AdvanceStage)
		api.GET("/projects/:id/billing-position", h.GetBillingPosition)

		api.GET("/organizations/:id/financial-health", h.GetFinancialHealth)
		api.GET("/organizations/:id/financial-health/export", h.ExportFinancialHealth)
		api.DELETE("/organizations/:id/financial-health/cache", h.InvalidateFinancialHealth)
	}
}

// Start starts the HTTP server and blocks until ctx is done or serving fails
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
