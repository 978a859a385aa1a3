package checkout

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Handshake states. The machine is Idle -> OrderCreated -> GatewayOpened ->
// {Confirmed | VerificationFailed | back to OrderCreated on dismissal} ->
// Settled. A dismissal or an expired gateway window returns straight to
// OrderCreated: the order id stays valid and the modal may be reopened.
type State int

const (
	StateIdle State = iota
	StateOrderCreated
	StateGatewayOpened
	StateConfirmed
	StateVerificationFailed
	StateSettled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOrderCreated:
		return "order_created"
	case StateGatewayOpened:
		return "gateway_opened"
	case StateConfirmed:
		return "confirmed"
	case StateVerificationFailed:
		return "verification_failed"
	case StateSettled:
		return "settled"
	default:
		return "unknown"
	}
}

var (
	// ErrBusy means a create-order or verify call is still outstanding.
	ErrBusy = errors.New("checkout call already in flight")
	// ErrBadState means the requested transition is not legal from the
	// current state.
	ErrBadState = errors.New("invalid handshake transition")
	// ErrMissingOrder means the action response carried neither errors nor a
	// usable order descriptor.
	ErrMissingOrder = errors.New("action response missing order")
)

// GatewayOptions is what the hosted payment UI is opened with. Completion
// arrives only through the callbacks; there is no return value.
type GatewayOptions struct {
	Key        string
	Amount     int64
	Currency   string
	OrderID    string
	OnComplete func(paymentID, signature string)
	OnDismiss  func()
}

// GatewayUI opens the provider's hosted payment modal.
type GatewayUI interface {
	Open(opts GatewayOptions)
}

// Verifier submits a payment confirmation to the verification endpoint. A nil
// return settles the checkout; ErrVerificationRejected keeps it retryable.
type Verifier interface {
	VerifyPayment(ctx context.Context, conf PaymentConfirmation) error
}

// Handshake drives the client side of the payment flow. It holds the action
// response as returned by the server, so the confirmation round-trips those
// originals rather than re-reading a form that may have changed, and treats
// the order id as the resumption token across retries.
type Handshake struct {
	ui       GatewayUI
	verifier Verifier
	window   time.Duration
	log      *zap.SugaredLogger

	// OnSettled, if set, runs after a successful verification (navigation,
	// typically).
	OnSettled func()

	mu      sync.Mutex
	state   State
	busy    bool
	resp    *ActionResponse
	lastErr error
	gen     int
	timer   *time.Timer
}

// NewHandshake builds a handshake. window bounds the gateway-open to
// callback span; expiry is treated as a dismissal.
func NewHandshake(ui GatewayUI, verifier Verifier, window time.Duration, log *zap.SugaredLogger) *Handshake {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handshake{
		ui:       ui,
		verifier: verifier,
		window:   window,
		log:      log,
		state:    StateIdle,
	}
}

// Start feeds the action endpoint's response into the machine. If the
// response carries a validation error map the machine stays Idle and the map
// is returned for display. The gateway is never opened in that case, even if
// an order-shaped field is also present.
func (h *Handshake) Start(resp *ActionResponse) (map[string]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.busy {
		return nil, ErrBusy
	}
	if h.state != StateIdle {
		return nil, ErrBadState
	}
	if len(resp.Errors) > 0 {
		return resp.Errors, nil
	}
	if resp.Order == nil || resp.Order.ID == "" {
		return nil, ErrMissingOrder
	}

	h.resp = resp
	h.state = StateOrderCreated
	return nil, nil
}

// Open launches the gateway UI. Legal from OrderCreated and, for retries
// after a rejected verification, from VerificationFailed. The same order id
// is reused; no second order is created.
func (h *Handshake) Open(ctx context.Context) error {
	h.mu.Lock()
	if h.busy {
		h.mu.Unlock()
		return ErrBusy
	}
	if h.state != StateOrderCreated && h.state != StateVerificationFailed {
		h.mu.Unlock()
		return ErrBadState
	}

	h.state = StateGatewayOpened
	h.gen++
	g := h.gen
	if h.window > 0 {
		h.timer = time.AfterFunc(h.window, func() { h.expire(g) })
	}
	opts := GatewayOptions{
		Key:      h.resp.Key,
		Amount:   h.resp.Order.Amount,
		Currency: h.resp.Order.Currency,
		OrderID:  h.resp.Order.ID,
		OnComplete: func(paymentID, signature string) {
			h.complete(ctx, g, paymentID, signature)
		},
		OnDismiss: func() { h.dismiss(g) },
	}
	h.mu.Unlock()

	h.log.Infow("opening payment gateway", "order_id", opts.OrderID, "amount", opts.Amount, "currency", opts.Currency)
	h.ui.Open(opts)
	return nil
}

// complete handles the gateway's completion callback: package the
// confirmation with the original batch and posts and submit it for
// verification. The confirmation is built transiently and discarded once the
// call resolves.
func (h *Handshake) complete(ctx context.Context, gen int, paymentID, signature string) {
	h.mu.Lock()
	if gen != h.gen || h.state != StateGatewayOpened {
		h.mu.Unlock()
		return // stale callback from a superseded open
	}
	h.stopTimer()
	h.state = StateConfirmed
	h.busy = true
	conf := PaymentConfirmation{
		OrderCreationID: h.resp.Order.ID,
		PaymentID:       paymentID,
		Signature:       signature,
		Batch:           *h.resp.Batch,
		Posts:           h.resp.Posts,
	}
	h.mu.Unlock()

	err := h.verifier.VerifyPayment(ctx, conf)

	h.mu.Lock()
	h.busy = false
	if err != nil {
		// No automatic retry: the payment was captured, so a blind re-verify
		// could double up. The buyer must act.
		h.state = StateVerificationFailed
		h.lastErr = err
		h.mu.Unlock()
		h.log.Warnw("payment verification failed", "order_id", conf.OrderCreationID, "err", err)
		return
	}
	h.state = StateSettled
	h.lastErr = nil
	done := h.OnSettled
	h.mu.Unlock()

	h.log.Infow("checkout settled", "order_id", conf.OrderCreationID)
	if done != nil {
		done()
	}
}

// Cancel programmatically closes an open gateway without a payment. The order
// id stays valid and Open may be called again; any callback from the cancelled
// open is ignored.
func (h *Handshake) Cancel() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.busy {
		return ErrBusy
	}
	if h.state != StateGatewayOpened {
		return ErrBadState
	}
	h.gen++
	h.stopTimer()
	h.state = StateOrderCreated
	h.log.Infow("payment gateway cancelled", "order_id", h.resp.Order.ID)
	return nil
}

// dismiss handles the buyer closing the modal without paying.
func (h *Handshake) dismiss(gen int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen || h.state != StateGatewayOpened {
		return
	}
	h.stopTimer()
	h.state = StateOrderCreated
	h.log.Infow("payment gateway dismissed", "order_id", h.resp.Order.ID)
}

// expire fires when the gateway window lapses without a callback.
func (h *Handshake) expire(gen int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gen != h.gen || h.state != StateGatewayOpened {
		return
	}
	h.state = StateOrderCreated
	h.log.Warnw("payment gateway window expired", "order_id", h.resp.Order.ID)
}

func (h *Handshake) stopTimer() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
}

// State returns the current handshake state.
func (h *Handshake) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Busy reports whether a verify call is outstanding; the UI must disable
// resubmission while it is.
func (h *Handshake) Busy() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.busy
}

// Err returns the last verification error, if any.
func (h *Handshake) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// OrderID returns the resumption token, or "" before an order exists.
func (h *Handshake) OrderID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.resp == nil || h.resp.Order == nil {
		return ""
	}
	return h.resp.Order.ID
}
