// Package handlers wires the checkout workflow's HTTP surface: the action
// endpoint that turns a multipart submission into a payment order, the
// verification endpoint the gateway callback reports to, and checkout
// cancellation.
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jobilist/batch-checkout/internal/checkout"
	"github.com/jobilist/batch-checkout/internal/gateway"
	"github.com/jobilist/batch-checkout/internal/ingest"
	"github.com/jobilist/batch-checkout/internal/platform"
	"github.com/jobilist/batch-checkout/internal/validation"
)

// HandlerConfig groups dependencies for the checkout handlers.
type HandlerConfig struct {
	Uploader   ingest.Uploader
	Gateway    gateway.Client
	Signatures gateway.SignatureVerifier
	Checkouts  *checkout.Store
	Publisher  *platform.PlacementPublisher
	Metrics    *platform.Metrics
	// GatewayKey is the process-wide publishable key echoed to the client at
	// order-creation time. Never mutated per request.
	GatewayKey string
	// GatewayWindow bounds the open-gateway to callback span; the reaper
	// expires checkouts past it.
	GatewayWindow time.Duration
	Log           *zap.SugaredLogger
}

// RegisterRoutes registers the checkout routes.
func RegisterRoutes(r *gin.Engine, cfg HandlerConfig) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop().Sugar()
	}
	v := validation.New()

	r.POST("/post", postAction(cfg, v))
	r.POST("/api/payments/verify", verifyPayment(cfg))
	r.POST("/api/checkouts/:orderID/cancel", cancelCheckout(cfg))
}
