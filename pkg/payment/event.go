package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const EventCheckoutCompleted = "checkout.session.completed"

// SignatureHeader carries the webhook signature in the form
// "t=<unix>,v1=<hex hmac>". The HMAC-SHA256 is computed over
// "<unix>.<payload>" with the shared webhook secret.
const SignatureHeader = "X-Payment-Signature"

var (
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrInvalidPayload   = errors.New("webhook payload is malformed")
)

// Event is a webhook event delivered by the payment processor. Delivery is
// at-least-once: the same event may arrive any number of times.
type Event struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Object SessionObject `json:"object"`
}

// SessionObject echoes the checkout session, including the metadata bag set
// at session creation.
type SessionObject struct {
	ID            string            `json:"id"`
	PaymentIntent string            `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// Amount converts the session's minor-unit total back to a decimal amount
func (s SessionObject) Amount() float64 {
	return float64(s.AmountTotal) / 100
}

// ConstructEvent verifies the signature header against the shared secret and
// parses the payload. Nothing about the payload is trusted before the
// signature checks out.
func ConstructEvent(payload []byte, sigHeader, secret string, tolerance time.Duration) (*Event, error) {
	if err := verifySignature(payload, sigHeader, secret, tolerance, time.Now()); err != nil {
		return nil, err
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if event.ID == "" || event.Type == "" {
		return nil, fmt.Errorf("%w: missing event id or type", ErrInvalidPayload)
	}

	return &event, nil
}

// Sign produces a signature header for a payload. Used by tests and by the
// processor simulator in development.
func Sign(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := computeMAC(payload, ts, secret)
	return fmt.Sprintf("t=%s,v1=%s", ts, mac)
}

func verifySignature(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) error {
	var ts string
	var sigs []string

	for _, part := range strings.Split(sigHeader, ",") {
		k, v, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}

	if ts == "" || len(sigs) == 0 {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}

	// Reject stale timestamps to limit replay of captured deliveries
	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return ErrInvalidSignature
		}
	}

	expected := computeMAC(payload, ts, secret)
	for _, sig := range sigs {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return nil
		}
	}

	return ErrInvalidSignature
}

func computeMAC(payload []byte, ts, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
