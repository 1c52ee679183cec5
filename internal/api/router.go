package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/tradeworks/contractor-hub/internal/api/handler"
	"github.com/tradeworks/contractor-hub/internal/api/middleware"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

// Dependencies are the services the router wires into handlers.
type Dependencies struct {
	Portal     ports.PortalService
	AccessKeys ports.AccessKeyService
	Billing    ports.BillingService
	Dispatcher handler.BillingDispatcher
	Readiness  *handler.HealthDependenciesHandler

	JWTSecret     string
	WebhookSecret string
	Log           zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("contractor"))

	// --- Health probes and metrics (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	if deps.Readiness != nil {
		e.GET("/health/ready", deps.Readiness.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())

	v1 := e.Group("/v1")

	// --- Client portal and approval links: the key in the path authenticates ---
	portal := handler.NewPortalHandler(deps.Portal)
	v1.GET("/portal/:key", portal.Bundle)
	v1.POST("/portal/:key/documents/:id/sign", portal.Sign)
	v1.GET("/approvals/:token", portal.Approval)
	v1.POST("/approvals/:token/sign", portal.SignApproval)

	// --- Billing webhook: HMAC signed by the provider ---
	billing := handler.NewBillingHandler(deps.Dispatcher, deps.Billing, deps.WebhookSecret)
	v1.POST("/webhooks/billing", billing.Webhook)

	// --- Contractor key management ---
	auth := middleware.Auth(deps.JWTSecret)
	keys := handler.NewAccessKeyHandler(deps.AccessKeys)
	owner := v1.Group("", auth, middleware.RBAC(middleware.RoleContractor, middleware.RoleAdmin))
	owner.POST("/clients/:id/portal-key", keys.IssuePortalKey)
	owner.DELETE("/clients/:id/portal-key", keys.RevokePortalKey)
	owner.POST("/documents/:id/token", keys.IssueDocumentToken)

	// --- Admin ---
	admin := v1.Group("/admin", auth, middleware.RBAC(middleware.RoleAdmin))
	admin.PUT("/accounts/:account_id/tier", billing.SetTier)

	return e
}
