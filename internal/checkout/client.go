package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/gogift/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const preferencePath = "/mercadopago/create_preference_cart"

// PaymentError is a non-2xx answer from the payment-preference service.
type PaymentError struct {
	Status int
	Detail string
}

func (e *PaymentError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("payment service returned status %d", e.Status)
	}
	return fmt.Sprintf("payment service returned status %d: %s", e.Status, e.Detail)
}

func (e *PaymentError) Unwrap() error { return ErrPaymentFailed }

// PreferenceClient creates payment preferences over HTTP behind a circuit breaker.
type PreferenceClient struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker[*domain.Preference]
}

func NewPreferenceClient(baseURL string, timeout time.Duration, log logrus.FieldLogger) *PreferenceClient {
	st := gobreaker.Settings{
		Name:        "PaymentPreference",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warnf("CircuitBreaker[%s] state changed from %s to %s", name, from, to)
		},
		// a rejected cart is the buyer's problem, not an outage
		IsSuccessful: func(err error) bool {
			var pe *PaymentError
			return err == nil || (errors.As(err, &pe) && pe.Status < http.StatusInternalServerError)
		},
	}

	return &PreferenceClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		cb: gobreaker.NewCircuitBreaker[*domain.Preference](st),
	}
}

func (c *PreferenceClient) CreatePreference(ctx context.Context, payload domain.CheckoutPayload) (*domain.Preference, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal checkout payload failed: %w", err)
	}
	idempotencyKey := uuid.NewString()

	pref, err := c.cb.Execute(func() (*domain.Preference, error) {
		return c.post(ctx, body, idempotencyKey)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return pref, nil
}

func (c *PreferenceClient) post(ctx context.Context, body []byte, idempotencyKey string) (*domain.Preference, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+preferencePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build preference request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &PaymentError{Status: resp.StatusCode, Detail: errorDetail(resp.Body)}
	}

	var pref domain.Preference
	if err := json.NewDecoder(resp.Body).Decode(&pref); err != nil {
		return nil, fmt.Errorf("decode preference failed: %w", err)
	}
	return &pref, nil
}

// errorDetail pulls the "detail" field the payment service puts in error bodies.
func errorDetail(r io.Reader) string {
	var body struct {
		Detail string `json:"detail"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 64<<10))
	if err != nil || json.Unmarshal(data, &body) != nil {
		return ""
	}
	return body.Detail
}
