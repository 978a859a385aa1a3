// Package gateway wraps the payment provider: order creation and payment
// signature verification.
package gateway

import "context"

// OrderDescriptor is the provider's order as shown to the client and carried
// through the payment handshake. It is passed along unmodified.
type OrderDescriptor struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Client creates payment orders with the provider. Amounts are in minor
// units. A failure here is fatal to the checkout attempt; the caller must
// only invoke it once validation produced an empty error map.
type Client interface {
	CreateOrder(ctx context.Context, amountMinorUnits int64, currency string) (*OrderDescriptor, error)
}

// SignatureVerifier checks a gateway-signed payment confirmation.
type SignatureVerifier interface {
	VerifyPayment(orderID, paymentID, signature string) bool
}
