package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// RazorpayClient implements Client and SignatureVerifier against the Razorpay
// Orders API.
type RazorpayClient struct {
	api    *razorpay.Client
	secret string
}

func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		api:    razorpay.NewClient(keyID, keySecret),
		secret: keySecret,
	}
}

// CreateOrder creates a provider order for the computed amount. The receipt
// id is generated here; Razorpay requires it to be unique per order.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amountMinorUnits int64, currency string) (*OrderDescriptor, error) {
	_ = ctx // the razorpay SDK does not take a context

	data := map[string]interface{}{
		"amount":   amountMinorUnits,
		"currency": currency,
		"receipt":  uuid.NewString(),
	}
	body, err := c.api.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	id, _ := body["id"].(string)
	if id == "" {
		return nil, errors.New("gateway order response missing id")
	}

	return &OrderDescriptor{
		ID:       id,
		Amount:   amountMinorUnits,
		Currency: currency,
	}, nil
}

// VerifyPayment checks the HMAC signature Razorpay attaches to a completed
// payment against the order and payment ids.
func (c *RazorpayClient) VerifyPayment(orderID, paymentID, signature string) bool {
	params := map[string]interface{}{
		"razorpay_order_id":   orderID,
		"razorpay_payment_id": paymentID,
	}
	return utils.VerifyPaymentSignature(params, signature, c.secret)
}
