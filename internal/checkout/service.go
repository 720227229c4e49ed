package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/notify"
	"github.com/fjod/gogift/internal/store"
	"github.com/sirupsen/logrus"
)

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrMissingInitPoint   = errors.New("payment preference has no init point")
	ErrMissingPaymentRef  = errors.New("payment reference is required")
	ErrPaymentFailed      = errors.New("payment preference rejected")
	ErrPaymentUnavailable = errors.New("payment service unavailable")
)

// PreferenceCreator starts a payment for a checkout payload.
type PreferenceCreator interface {
	CreatePreference(ctx context.Context, payload domain.CheckoutPayload) (*domain.Preference, error)
}

// Cart is the part of the cart engine checkout needs.
type Cart interface {
	CheckoutPayload() domain.CheckoutPayload
	Clear(ctx context.Context) error
}

type Service struct {
	cart    Cart
	payment PreferenceCreator
	kv      store.KeyValueStore
	sink    notify.Sink
	log     logrus.FieldLogger

	approvals sync.Mutex
}

func NewService(cart Cart, payment PreferenceCreator, kv store.KeyValueStore, sink notify.Sink, log logrus.FieldLogger) *Service {
	return &Service{
		cart:    cart,
		payment: payment,
		kv:      kv,
		sink:    sink,
		log:     log,
	}
}

// Checkout sends the cart to the payment service and returns the preference the
// buyer should be redirected to.
func (s *Service) Checkout(ctx context.Context) (*domain.Preference, error) {
	payload := s.cart.CheckoutPayload()
	if len(payload.Items) == 0 {
		s.sink.Show("Your cart is empty!", notify.SeverityWarning)
		return nil, ErrEmptyCart
	}

	s.sink.Show("Redirecting to payment...", notify.SeverityInfo)

	pref, err := s.payment.CreatePreference(ctx, payload)
	if err != nil {
		s.log.WithError(err).WithField("items", len(payload.Items)).Error("create payment preference failed")
		s.sink.Show("Error: "+failureDetail(err), notify.SeverityError)
		return nil, fmt.Errorf("create payment preference: %w", err)
	}
	if pref == nil || pref.InitPoint == "" {
		s.sink.Show("Could not start the payment. Please try again.", notify.SeverityError)
		return nil, ErrMissingInitPoint
	}

	s.log.WithField("preference_id", pref.PreferenceID).Info("payment preference created")
	return pref, nil
}

// PaymentApproved clears the cart once per approved payment. It reports whether
// this call did the work; replays of the same reference are ignored.
func (s *Service) PaymentApproved(ctx context.Context, paymentRef string) (bool, error) {
	if paymentRef == "" {
		return false, ErrMissingPaymentRef
	}

	s.approvals.Lock()
	defer s.approvals.Unlock()

	log := s.log.WithField("payment_id", paymentRef)
	key := processedKey(paymentRef)

	_, err := s.kv.Get(ctx, key)
	if err == nil {
		log.Debug("payment already processed")
		return false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("failed to check payment marker: %w", err)
	}

	s.sink.Show("Payment approved!", notify.SeveritySuccess)
	if err := s.cart.Clear(ctx); err != nil {
		return false, fmt.Errorf("clear cart: %w", err)
	}
	if err := s.kv.Set(ctx, key, []byte(time.Now().UTC().Format(time.RFC3339))); err != nil {
		log.WithError(err).Warn("failed to record processed payment")
	}

	log.Info("payment approved, cart cleared")
	return true, nil
}

// ProcessedKeyPrefix marks approvals already applied. Stores must not expire these
// keys or a replayed approval would clear the cart again.
const ProcessedKeyPrefix = "paymentProcessed:"

func processedKey(paymentRef string) string {
	return ProcessedKeyPrefix + paymentRef
}

func failureDetail(err error) string {
	var pe *PaymentError
	if errors.As(err, &pe) && pe.Detail != "" {
		return pe.Detail
	}
	return "An unknown error occurred."
}
