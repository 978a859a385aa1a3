package checkout

import (
	"time"

	"github.com/jobilist/batch-checkout/internal/batch"
	"github.com/jobilist/batch-checkout/internal/gateway"
)

// Checkout statuses. CREATED is retryable: verification failures and modal
// dismissals leave the checkout there, with the same gateway order id.
const (
	StatusCreated   = "CREATED"
	StatusConfirmed = "CONFIRMED"
	StatusPlaced    = "PLACED"
	StatusCancelled = "CANCELLED"
	StatusExpired   = "EXPIRED"
)

// Checkout is the item stored in the checkouts DynamoDB table. The gateway
// order id doubles as the primary key and the handshake's resumption token.
type Checkout struct {
	OrderID             string    `dynamodbav:"order_id"` // PK
	Status              string    `dynamodbav:"status"`
	Amount              int64     `dynamodbav:"amount"` // minor units
	Currency            string    `dynamodbav:"currency"`
	PostCount           int       `dynamodbav:"post_count"`
	PaymentID           string    `dynamodbav:"payment_id,omitempty"`
	FailedVerifications int       `dynamodbav:"failed_verifications,omitempty"`
	Note                string    `dynamodbav:"note,omitempty"`
	CreatedAt           time.Time `dynamodbav:"created_at"`
	UpdatedAt           time.Time `dynamodbav:"updated_at"`
	ExpiresAt           int64     `dynamodbav:"expires_at"` // gateway window deadline, epoch seconds
}

// ActionResponse is the action endpoint's payload: either a validation error
// map, or everything the client needs to run the payment handshake. Batch and
// Posts are echoed back so the confirmation can round-trip the originals
// rather than re-reading a form that may have changed.
type ActionResponse struct {
	Errors map[string]string        `json:"errors,omitempty"`
	Order  *gateway.OrderDescriptor `json:"order,omitempty"`
	Batch  *batch.Submission        `json:"batch,omitempty"`
	Posts  []batch.PostEntry        `json:"posts,omitempty"`
	Key    string                   `json:"key,omitempty"`
}

// PaymentConfirmation is built the moment the gateway's completion callback
// fires and is consumed exactly once by the verification endpoint, which
// persists batch and posts atomically with the payment proof. It is never
// stored by the handshake itself.
type PaymentConfirmation struct {
	OrderCreationID string            `json:"orderCreationId"`
	PaymentID       string            `json:"razorpayPaymentId"`
	Signature       string            `json:"razorpaySignature"`
	Batch           batch.Submission  `json:"batch"`
	Posts           []batch.PostEntry `json:"posts"`
}

// PlacementMessage is the payload sent from the verification endpoint through
// SQS to the placement worker.
type PlacementMessage struct {
	OrderID       string            `json:"order_id"`
	PaymentID     string            `json:"payment_id"`
	ReceiptID     string            `json:"receipt_id"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Batch         batch.Submission  `json:"batch"`
	Posts         []batch.PostEntry `json:"posts"`
}
