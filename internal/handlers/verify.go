package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jobilist/batch-checkout/internal/checkout"
)

// verifyPayment is the atomic point where payment proof and the batch payload
// commit together: check the gateway signature, advance the checkout
// CREATED -> CONFIRMED, and hand the batch to the placement worker. The
// conditional status write makes a duplicate confirmation harmless — it
// observes the already-advanced status and responds success without
// publishing again.
func verifyPayment(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		var conf checkout.PaymentConfirmation
		if err := c.ShouldBindJSON(&conf); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if conf.OrderCreationID == "" || conf.PaymentID == "" || conf.Signature == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing payment identifiers"})
			return
		}

		if !cfg.Signatures.VerifyPayment(conf.OrderCreationID, conf.PaymentID, conf.Signature) {
			// Possibly tampering; the checkout stays retryable but the
			// rejection is recorded and counted.
			cfg.Log.Warnw("payment signature mismatch",
				"order_id", conf.OrderCreationID, "payment_id", conf.PaymentID)
			err := cfg.Checkouts.RecordVerificationFailure(ctx, conf.OrderCreationID, "signature mismatch")
			if errors.Is(err, checkout.ErrNotFound) {
				// Rejection for an order that was never created; nothing to
				// record against.
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown order"})
				return
			}
			if err != nil {
				cfg.Log.Errorw("record verification failure", "order_id", conf.OrderCreationID, "err", err)
			}
			if cfg.Metrics != nil {
				if err := cfg.Metrics.CountVerificationFailure(ctx, "signature_mismatch"); err != nil {
					cfg.Log.Errorw("emit verification metric", "err", err)
				}
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "signature mismatch"})
			return
		}

		err := cfg.Checkouts.Confirm(ctx, conf.OrderCreationID, conf.PaymentID)
		if errors.Is(err, checkout.ErrStatusMismatch) {
			cur, gerr := cfg.Checkouts.Get(ctx, conf.OrderCreationID)
			if gerr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout lookup failed"})
				return
			}
			if cur == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown order"})
				return
			}
			if cur.PaymentID == conf.PaymentID &&
				(cur.Status == checkout.StatusConfirmed || cur.Status == checkout.StatusPlaced) {
				// Duplicate delivery of the same confirmation.
				c.JSON(http.StatusOK, gin.H{"success": true})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "order is not payable"})
			return
		}
		if err != nil {
			cfg.Log.Errorw("confirm checkout failed", "order_id", conf.OrderCreationID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "confirmation failed"})
			return
		}

		msg := checkout.PlacementMessage{
			OrderID:       conf.OrderCreationID,
			PaymentID:     conf.PaymentID,
			ReceiptID:     uuid.NewString(),
			CorrelationID: c.GetHeader("X-Request-Id"),
			Batch:         conf.Batch,
			Posts:         conf.Posts,
		}
		body, _ := json.Marshal(msg)
		attrs := map[string]string{
			"order_id":       msg.OrderID,
			"correlation_id": msg.CorrelationID,
		}
		if err := cfg.Publisher.SendPlacement(ctx, string(body), attrs); err != nil {
			// Roll the status back so the buyer's retry re-runs the full
			// confirm-and-enqueue path.
			cfg.Log.Errorw("placement enqueue failed", "order_id", conf.OrderCreationID, "err", err)
			_ = cfg.Checkouts.UpdateStatus(ctx, conf.OrderCreationID, checkout.StatusConfirmed, checkout.StatusCreated)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "placement enqueue failed"})
			return
		}

		cfg.Log.Infow("payment confirmed", "order_id", conf.OrderCreationID, "payment_id", conf.PaymentID)
		c.JSON(http.StatusOK, gin.H{"success": true})
	}
}

// cancelCheckout marks a checkout the buyer abandoned for good. A mere modal
// dismissal is client-side and keeps the order retryable; this endpoint is
// the explicit give-up.
func cancelCheckout(cfg HandlerConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		orderID := c.Param("orderID")

		err := cfg.Checkouts.UpdateStatus(ctx, orderID, checkout.StatusCreated, checkout.StatusCancelled)
		if errors.Is(err, checkout.ErrStatusMismatch) {
			cur, gerr := cfg.Checkouts.Get(ctx, orderID)
			if gerr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout lookup failed"})
				return
			}
			if cur == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "unknown order"})
				return
			}
			if cur.Status == checkout.StatusCancelled {
				c.JSON(http.StatusOK, gin.H{"status": checkout.StatusCancelled})
				return
			}
			c.JSON(http.StatusConflict, gin.H{"error": "checkout is not cancellable"})
			return
		}
		if err != nil {
			cfg.Log.Errorw("cancel checkout failed", "order_id", orderID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "cancel failed"})
			return
		}

		cfg.Log.Infow("checkout cancelled", "order_id", orderID)
		c.JSON(http.StatusOK, gin.H{"status": checkout.StatusCancelled})
	}
}
