package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/jobilist/batch-checkout/internal/checkout"
	"github.com/jobilist/batch-checkout/internal/ingest"
	"github.com/jobilist/batch-checkout/internal/pricing"
	"github.com/jobilist/batch-checkout/internal/validation"
)

// postAction is the workflow's entry point: ingest the multipart submission,
// validate batch and entries, price the batch and create the gateway order.
// The response is either a keyed error map or everything the client needs to
// run the payment handshake. Order creation is only attempted once the error
// map came back empty.
func postAction(cfg HandlerConfig, v *validatorv10.Validate) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		res, err := ingest.Parse(ctx, c.Request, cfg.Uploader)
		if err != nil {
			if errors.Is(err, ingest.ErrUpload) {
				cfg.Log.Errorw("logo upload failed", "err", err)
				c.JSON(http.StatusBadRequest, checkout.ActionResponse{
					Errors: map[string]string{validation.KeyOther: "We could not store your logo. Please try again."},
				})
				return
			}
			if errors.Is(err, ingest.ErrFieldTooLarge) {
				c.JSON(http.StatusBadRequest, checkout.ActionResponse{
					Errors: map[string]string{validation.KeyOther: "One of the form fields is too large."},
				})
				return
			}
			cfg.Log.Warnw("unreadable submission", "err", err)
			c.JSON(http.StatusBadRequest, checkout.ActionResponse{
				Errors: map[string]string{validation.KeyOther: "We could not read your submission. Please try again."},
			})
			return
		}

		if errs := validation.Validate(v, res.Batch, res.Posts); len(errs) > 0 {
			c.JSON(http.StatusBadRequest, checkout.ActionResponse{Errors: errs})
			return
		}

		amount, err := pricing.Amount(res.Batch.PostCount, res.Batch.Currency)
		if err != nil {
			// Validation admits only table-backed currencies, so this is a
			// configuration fault, not user error.
			cfg.Log.Errorw("price lookup failed", "currency", res.Batch.Currency, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pricing_unavailable"})
			return
		}

		order, err := cfg.Gateway.CreateOrder(ctx, amount, res.Batch.Currency)
		if err != nil {
			cfg.Log.Errorw("gateway order creation failed", "err", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment_gateway_unavailable"})
			return
		}

		err = cfg.Checkouts.Create(ctx, checkout.Checkout{
			OrderID:   order.ID,
			Amount:    order.Amount,
			Currency:  order.Currency,
			PostCount: res.Batch.PostCount,
			ExpiresAt: time.Now().Add(cfg.GatewayWindow).Unix(),
		})
		if err != nil {
			cfg.Log.Errorw("checkout create failed", "order_id", order.ID, "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout_create_failed"})
			return
		}

		cfg.Log.Infow("order created",
			"order_id", order.ID, "amount", order.Amount, "currency", order.Currency, "posts", res.Batch.PostCount)

		c.JSON(http.StatusCreated, checkout.ActionResponse{
			Order: order,
			Batch: &res.Batch,
			Posts: res.Posts,
			Key:   cfg.GatewayKey,
		})
	}
}
