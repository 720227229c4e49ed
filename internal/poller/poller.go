package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTopic   = "payment-events"
	DefaultGroupID = "giftcart"
)

// PaymentEvent is published by the payment service whenever a payment changes state.
type PaymentEvent struct {
	PaymentID string `json:"payment_id"`
	Status    string `json:"status"`
}

// MessageReader is the subset of *kafka.Reader the poller uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Approver interface {
	PaymentApproved(ctx context.Context, paymentRef string) (bool, error)
}

type Poller struct {
	reader     MessageReader
	approver   Approver
	log        logrus.FieldLogger
	retryDelay time.Duration
}

func NewPoller(approver Approver, log logrus.FieldLogger, topic, groupID string, brokers ...string) *Poller {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return NewPollerWithReader(reader, approver, log)
}

func NewPollerWithReader(reader MessageReader, approver Approver, log logrus.FieldLogger) *Poller {
	return &Poller{
		reader:     reader,
		approver:   approver,
		log:        log,
		retryDelay: time.Second,
	}
}

// Run consumes payment events until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := p.handleNext(ctx); err != nil && ctx.Err() == nil {
			p.log.WithError(err).Warn("payment event poll failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(p.retryDelay):
			}
		}
	}
}

func (p *Poller) Close() {
	if err := p.reader.Close(); err != nil {
		p.log.WithError(err).Warn("error closing reader")
	}
}

func (p *Poller) handleNext(ctx context.Context) error {
	m, err := p.reader.FetchMessage(ctx)
	if err != nil {
		return err
	}
	log := p.log.WithFields(logrus.Fields{
		"topic":     m.Topic,
		"partition": m.Partition,
		"offset":    m.Offset,
	})

	var event PaymentEvent
	if errUnmarshal := json.Unmarshal(m.Value, &event); errUnmarshal != nil {
		log.WithError(errUnmarshal).Warn("skipping malformed payment event")
		return p.reader.CommitMessages(ctx, m)
	}
	if event.PaymentID == "" {
		log.Warn("skipping payment event without payment_id")
		return p.reader.CommitMessages(ctx, m)
	}

	log = log.WithFields(logrus.Fields{"payment_id": event.PaymentID, "status": event.Status})
	if !strings.EqualFold(event.Status, "approved") {
		log.Debug("ignoring payment event")
		return p.reader.CommitMessages(ctx, m)
	}

	if err := p.approve(ctx, event.PaymentID, log); err != nil {
		return err
	}
	return p.reader.CommitMessages(ctx, m)
}

// approve retries the same payment until it is applied or ctx is done. The
// message stays uncommitted meanwhile; the reader would otherwise move on and a
// later commit would skip past it.
func (p *Poller) approve(ctx context.Context, paymentID string, log logrus.FieldLogger) error {
	for {
		processed, err := p.approver.PaymentApproved(ctx, paymentID)
		if err == nil {
			if processed {
				log.Info("approved payment applied")
			}
			return nil
		}

		log.WithError(err).Warn("approved payment failed, retrying")
		select {
		case <-ctx.Done():
			return fmt.Errorf("handle approved payment %s: %w", paymentID, err)
		case <-time.After(p.retryDelay):
		}
	}
}
