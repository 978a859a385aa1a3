package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrVerificationRejected marks an explicit rejection by the verification
// endpoint, as opposed to a transport failure.
var ErrVerificationRejected = errors.New("payment verification rejected")

// HTTPVerifier submits confirmations to the verification endpoint over HTTP.
type HTTPVerifier struct {
	Endpoint string
	Client   *http.Client
}

func NewHTTPVerifier(endpoint string) *HTTPVerifier {
	return &HTTPVerifier{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// VerifyPayment posts the confirmation and interprets the
// {success:true} / {error: msg} contract.
func (v *HTTPVerifier) VerifyPayment(ctx context.Context, conf PaymentConfirmation) error {
	body, err := json.Marshal(conf)
	if err != nil {
		return fmt.Errorf("marshal confirmation: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.Endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.Client.Do(req)
	if err != nil {
		return fmt.Errorf("verify request: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("decode verify response: %w", err)
	}
	if out.Success {
		return nil
	}

	msg := out.Error
	if msg == "" {
		msg = resp.Status
	}
	return fmt.Errorf("%w: %s", ErrVerificationRejected, msg)
}
