package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// HostedProvider talks to an HTTP hosted-checkout gateway. Requests and
// callbacks are authenticated with an HMAC-SHA256 signature over the payload,
// keyed by the shared secret.
type HostedProvider struct {
	endpoint string
	secret   string
	client   *http.Client
}

// NewHostedProvider creates a provider for the given gateway endpoint.
func NewHostedProvider(endpoint, secret string) *HostedProvider {
	return &HostedProvider{
		endpoint: endpoint,
		secret:   secret,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (p *HostedProvider) Checkout(ctx context.Context, req CheckoutRequest) (string, error) {
	if p.endpoint == "" {
		return "", errors.New("payment provider not configured")
	}
	if req.AmountCents <= 0 {
		return "", fmt.Errorf("invalid checkout amount %d", req.AmountCents)
	}

	payload := map[string]string{
		"order_ref":  req.OrderRef,
		"subject":    req.Subject,
		"amount":     strconv.FormatInt(req.AmountCents, 10),
		"notify_url": req.NotifyURL,
	}
	payload["signature"] = p.sign(payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/v1/checkout", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("payment gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("payment gateway returned status %d", resp.StatusCode)
	}

	var out struct {
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("malformed gateway response: %w", err)
	}
	if out.RedirectURL == "" {
		return "", errors.New("gateway response missing redirect_url")
	}
	return out.RedirectURL, nil
}

// VerifyNotification checks the callback signature and parses the payment
// outcome. The signature covers every parameter except "signature" itself,
// sorted by key, so a tampered amount or order ref fails verification.
func (p *HostedProvider) VerifyNotification(params url.Values) (*Notification, error) {
	got := params.Get("signature")
	if got == "" {
		return nil, errors.New("notification missing signature")
	}

	flat := make(map[string]string, len(params))
	for k := range params {
		if k == "signature" {
			continue
		}
		flat[k] = params.Get(k)
	}
	want := p.sign(flat)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return nil, errors.New("notification signature mismatch")
	}

	amount, err := strconv.ParseInt(params.Get("amount"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed notification amount: %w", err)
	}

	return &Notification{
		OrderRef:    params.Get("order_ref"),
		AmountCents: amount,
		Succeeded:   params.Get("status") == "paid",
	}, nil
}

// sign computes the HMAC-SHA256 hex digest over key=value pairs sorted by key.
func (p *HostedProvider) sign(payload map[string]string) string {
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(payload[k])
	}

	mac := hmac.New(sha256.New, []byte(p.secret))
	mac.Write([]byte(sb.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
