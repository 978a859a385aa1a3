package checkout

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestCheckout(orderID string) Checkout {
	return Checkout{
		OrderID:   orderID,
		Amount:    5800,
		Currency:  "USD",
		PostCount: 2,
		ExpiresAt: time.Now().Add(30 * time.Minute).Unix(),
	}
}

func TestStore_Create_DefaultsAndDuplicate(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "checkouts")
	ctx := context.Background()

	if err := s.Create(ctx, newTestCheckout("order-1")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := s.Get(ctx, "order-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil {
		t.Fatalf("expected checkout, got nil")
	}
	if got.Status != StatusCreated {
		t.Fatalf("expected status CREATED, got %s", got.Status)
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("expected CreatedAt to be set")
	}

	err = s.Create(ctx, newTestCheckout("order-1"))
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists on duplicate create, got %v", err)
	}
}

func TestStore_Get_Missing(t *testing.T) {
	s := NewStore(newMockDynamo(), "checkouts")

	got, err := s.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil for missing checkout, got %+v", got)
	}
}

func TestStore_Confirm_GuardsDuplicates(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "checkouts")
	ctx := context.Background()

	if err := s.Create(ctx, newTestCheckout("order-2")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := s.Confirm(ctx, "order-2", "pay-1"); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	got, _ := s.Get(ctx, "order-2")
	if got.Status != StatusConfirmed {
		t.Fatalf("expected CONFIRMED, got %s", got.Status)
	}
	if got.PaymentID != "pay-1" {
		t.Fatalf("expected payment id recorded, got %q", got.PaymentID)
	}

	// second confirmation hits the conditional write
	err := s.Confirm(ctx, "order-2", "pay-1")
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch on duplicate confirm, got %v", err)
	}
}

func TestStore_Confirm_UnknownOrder(t *testing.T) {
	s := NewStore(newMockDynamo(), "checkouts")

	err := s.Confirm(context.Background(), "ghost", "pay-1")
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch for unknown order, got %v", err)
	}
}

func TestStore_UpdateStatus_ConditionSuccessAndFail(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "checkouts")
	ctx := context.Background()

	if err := s.Create(ctx, newTestCheckout("order-3")); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := s.Confirm(ctx, "order-3", "pay-9"); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	if err := s.UpdateStatus(ctx, "order-3", StatusConfirmed, StatusPlaced); err != nil {
		t.Fatalf("expected success, got %v", err)
	}

	err := s.UpdateStatus(ctx, "order-3", StatusConfirmed, StatusPlaced)
	if !errors.Is(err, ErrStatusMismatch) {
		t.Fatalf("expected ErrStatusMismatch, got %v", err)
	}
}

func TestStore_RecordVerificationFailure_KeepsStatus(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "checkouts")
	ctx := context.Background()

	if err := s.Create(ctx, newTestCheckout("order-4")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := s.RecordVerificationFailure(ctx, "order-4", "signature mismatch"); err != nil {
		t.Fatalf("RecordVerificationFailure error: %v", err)
	}
	if err := s.RecordVerificationFailure(ctx, "order-4", "signature mismatch"); err != nil {
		t.Fatalf("RecordVerificationFailure error: %v", err)
	}

	got, _ := s.Get(ctx, "order-4")
	if got.Status != StatusCreated {
		t.Fatalf("status must stay CREATED after a failed verification, got %s", got.Status)
	}
	if got.FailedVerifications != 2 {
		t.Fatalf("expected 2 failed verifications, got %d", got.FailedVerifications)
	}
	if got.Note != "signature mismatch" {
		t.Fatalf("expected note recorded, got %q", got.Note)
	}
}

func TestStore_RecordVerificationFailure_UnknownOrderWritesNothing(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "checkouts")
	ctx := context.Background()

	err := s.RecordVerificationFailure(ctx, "order-ghost", "signature mismatch")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown order, got %v", err)
	}

	// the update must not upsert a ghost item
	got, err := s.Get(ctx, "order-ghost")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected no item for unknown order, got %+v", got)
	}
}

func TestStore_ExpireStale(t *testing.T) {
	mock := newMockDynamo()
	s := NewStore(mock, "checkouts")
	ctx := context.Background()

	stale := newTestCheckout("order-stale")
	stale.ExpiresAt = time.Now().Add(-time.Hour).Unix()
	fresh := newTestCheckout("order-fresh")

	confirmedStale := newTestCheckout("order-confirmed")
	confirmedStale.ExpiresAt = stale.ExpiresAt

	for _, c := range []Checkout{stale, fresh, confirmedStale} {
		if err := s.Create(ctx, c); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
	if err := s.Confirm(ctx, "order-confirmed", "pay-1"); err != nil {
		t.Fatalf("Confirm error: %v", err)
	}

	n, err := s.ExpireStale(ctx)
	if err != nil {
		t.Fatalf("ExpireStale error: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired checkout, got %d", n)
	}

	got, _ := s.Get(ctx, "order-stale")
	if got.Status != StatusExpired {
		t.Fatalf("expected EXPIRED, got %s", got.Status)
	}
	got, _ = s.Get(ctx, "order-fresh")
	if got.Status != StatusCreated {
		t.Fatalf("fresh checkout must stay CREATED, got %s", got.Status)
	}
	got, _ = s.Get(ctx, "order-confirmed")
	if got.Status != StatusConfirmed {
		t.Fatalf("confirmed checkout must not expire, got %s", got.Status)
	}
}
