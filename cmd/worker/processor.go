package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/jobilist/batch-checkout/internal/checkout"
	"github.com/jobilist/batch-checkout/internal/platform"
)

// Processor consumes placement messages and settles confirmed checkouts.
// Persisting the postings themselves happens downstream of the placement; the
// worker's job is the CONFIRMED -> PLACED transition and its race handling.
type Processor struct {
	checkouts *checkout.Store
	log       *zap.SugaredLogger
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *platform.Clients, checkoutsTable string, log *zap.SugaredLogger) *Processor {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Processor{
		checkouts: checkout.NewStore(clients.DynamoDB, checkoutsTable),
		log:       log,
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, the
			// message goes to the DLQ.
			p.log.Errorw("worker error", "err", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var msg checkout.PlacementMessage
	if err := json.Unmarshal([]byte(rec.Body), &msg); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	p.log.Infow("received placement",
		"order_id", msg.OrderID, "receipt_id", msg.ReceiptID, "corr", msg.CorrelationID)

	co, err := p.checkouts.Get(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("failed to fetch checkout: %w", err)
	}
	if co == nil {
		// Should never happen: the verification endpoint confirmed it first.
		return fmt.Errorf("checkout not found: %s", msg.OrderID)
	}

	err = p.checkouts.UpdateStatus(ctx, msg.OrderID, checkout.StatusConfirmed, checkout.StatusPlaced)
	if errors.Is(err, checkout.ErrStatusMismatch) {
		c2, gerr := p.checkouts.Get(ctx, msg.OrderID)
		if gerr != nil || c2 == nil {
			return fmt.Errorf("failed to re-fetch checkout %s after mismatch: %v", msg.OrderID, gerr)
		}
		switch c2.Status {
		case checkout.StatusPlaced:
			// Duplicate delivery; the batch is already placed.
			p.log.Infow("already placed", "order_id", msg.OrderID)
			return nil
		case checkout.StatusCancelled, checkout.StatusExpired:
			return fmt.Errorf("checkout %s is %s, refusing placement", msg.OrderID, c2.Status)
		default:
			return fmt.Errorf("checkout %s not confirmed yet: %s", msg.OrderID, c2.Status)
		}
	}
	if err != nil {
		return fmt.Errorf("failed to update status to PLACED: %w", err)
	}

	p.log.Infow("batch placed",
		"order_id", msg.OrderID, "posts", len(msg.Posts),
		"company", msg.Batch.Name, "expires_after_days", msg.Batch.ExpiresAfter)
	return nil
}
