package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/store"
	"github.com/sirupsen/logrus"
)

// Load hydrates the engine from the store and publishes the result. A missing
// snapshot yields an empty cart. On a read or decode failure the cart starts
// empty and keeps working in memory; the error is returned for the caller to log.
func (e *Engine) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	data, err := e.store.Get(ctx, e.key)

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.publish()

	e.lines = []domain.CartLine{}
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read cart snapshot: %w", err)
	}

	lines, err := Decode(data)
	if err != nil {
		return err
	}
	e.lines = e.normalize(lines)
	return nil
}

// Encode serializes lines into the persisted snapshot format.
func Encode(lines []domain.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal cart failed: %w", err)
	}
	return data, nil
}

// Decode parses a persisted snapshot. Lines stored before gifts existed get an
// empty recipient list.
func Decode(data []byte) ([]domain.CartLine, error) {
	var lines []domain.CartLine
	if err := json.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if lines == nil {
		lines = []domain.CartLine{}
	}
	for i := range lines {
		if lines[i].Gifts == nil {
			lines[i].Gifts = []domain.GiftRecipient{}
		}
	}
	return lines, nil
}

// normalize repairs a hydrated snapshot so the cart invariants hold again.
func (e *Engine) normalize(lines []domain.CartLine) []domain.CartLine {
	out := make([]domain.CartLine, 0, len(lines))
	seen := make(map[string]bool, len(lines))

	for _, l := range lines {
		log := e.log.WithField("product_id", l.Product.ID)
		if l.Product.ID == "" || seen[l.Product.ID] {
			log.Warn("dropping duplicate or anonymous cart line")
			continue
		}
		if l.Quantity > l.Product.AvailableStock {
			log.WithFields(logrus.Fields{
				"quantity": l.Quantity,
				"stock":    l.Product.AvailableStock,
			}).Warn("clamping stored quantity to stock")
			l.Quantity = l.Product.AvailableStock
		}
		if l.Quantity < 1 {
			log.Warn("dropping empty cart line")
			continue
		}

		gifts := l.Gifts[:0]
		for _, g := range l.Gifts {
			if g.Quantity >= 1 {
				gifts = append(gifts, g)
			}
		}
		l.Gifts = gifts
		if l.AllocatedGifts() > l.Quantity {
			log.Warn("stored gift allocation exceeds quantity, resetting gifts")
			l.Gifts = []domain.GiftRecipient{}
		}

		seen[l.Product.ID] = true
		out = append(out, l)
	}
	return out
}

// persist writes the current state through to the store and publishes it. A
// failed write is logged and the engine carries on in memory; the next
// mutation writes the full state again. Callers hold e.mu.
func (e *Engine) persist(ctx context.Context) {
	defer e.publish()

	data, err := Encode(e.lines)
	if err != nil {
		e.log.WithError(err).Error("failed to encode cart")
		return
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.store.Set(ctx, e.key, data); err != nil {
		e.log.WithError(err).Warn("failed to persist cart, continuing in memory")
	}
}

func (e *Engine) publish() {
	e.bc.Publish(domain.CloneLines(e.lines))
}
