package catalog

import (
	"context"
	"errors"

	"github.com/fjod/gogift/internal/domain"
)

// Lookup resolves a gift card by id from the marketplace catalog.
type Lookup interface {
	GetGiftCard(ctx context.Context, id string) (*domain.GiftCard, error)
}

var (
	ErrNotFound    = errors.New("gift card not found")
	ErrUnavailable = errors.New("catalog unavailable")
)
