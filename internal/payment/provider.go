// Package payment integrates the external hosted-checkout collaborator.
//
// The provider is deliberately a thin port: core state (the Purchase row) is
// only written after the collaborator confirms payment via the signed
// callback, so a failed or abandoned checkout never leaves partial commerce
// state behind.
package payment

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// CheckoutRequest describes a payment handshake for a single sticker pack.
type CheckoutRequest struct {
	OrderRef    string // unique reference, echoed back in the notification
	Subject     string // human-readable line item
	AmountCents int64
	NotifyURL   string // server callback the provider invokes on completion
}

// Notification is the parsed, signature-verified payment callback.
type Notification struct {
	OrderRef    string
	AmountCents int64
	Succeeded   bool
}

// Provider is the hosted-checkout collaborator port.
type Provider interface {
	// Checkout opens a payment session and returns the redirect URL the
	// client should be sent to.
	Checkout(ctx context.Context, req CheckoutRequest) (string, error)
	// VerifyNotification authenticates and parses a provider callback.
	// An invalid signature must return an error, never a Notification.
	VerifyNotification(params url.Values) (*Notification, error)
}

// NewOrderRef builds a unique order reference that encodes the purchasing
// user and pack, so the callback can be resolved without a pending-order
// table.
func NewOrderRef(userID, packID uint) string {
	return fmt.Sprintf("%d-%d-%s", userID, packID, uuid.New().String()[:8])
}

// ParseOrderRef extracts the user and pack IDs from an order reference.
func ParseOrderRef(ref string) (userID, packID uint, err error) {
	parts := strings.SplitN(ref, "-", 3)
	if len(parts) != 3 {
		return 0, 0, fmt.Errorf("malformed order ref %q", ref)
	}
	u, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed order ref %q: %w", ref, err)
	}
	p, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed order ref %q: %w", ref, err)
	}
	return uint(u), uint(p), nil
}
