package cart

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/gogift/internal/broadcast"
	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/notify"
	"github.com/fjod/gogift/internal/pricing"
	"github.com/fjod/gogift/internal/store"
	"github.com/sirupsen/logrus"
)

// DefaultKey is the storage key the cart snapshot lives under.
const DefaultKey = "shoppingCart"

// Engine owns one buyer's cart. Every mutation runs to completion under the
// engine lock, is written through to the store and then published to subscribers.
type Engine struct {
	mu    sync.Mutex
	lines []domain.CartLine

	store   store.KeyValueStore
	sink    notify.Sink
	log     logrus.FieldLogger
	key     string
	timeout time.Duration
	bc      *broadcast.Broadcaster[[]domain.CartLine]
}

type Option func(*Engine)

func WithKey(key string) Option {
	return func(e *Engine) { e.key = key }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = log }
}

// WithPersistTimeout bounds each write to the store.
func WithPersistTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// New builds an empty engine. Call Load to hydrate it from the store.
func New(kv store.KeyValueStore, sink notify.Sink, opts ...Option) *Engine {
	e := &Engine{
		lines:   []domain.CartLine{},
		store:   kv,
		sink:    sink,
		log:     logrus.StandardLogger(),
		key:     DefaultKey,
		timeout: 2 * time.Second,
		bc:      broadcast.New[[]domain.CartLine](),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = e.log.WithField("cart_key", e.key)
	return e
}

func (e *Engine) AddItem(ctx context.Context, product domain.GiftCard, quantity int) error {
	if product.ID == "" || quantity < 1 {
		e.sink.Show("Quantity must be at least 1.", notify.SeverityWarning)
		return fmt.Errorf("add %q x%d: %w", product.ID, quantity, ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stock := product.AvailableStock
	if i := e.indexOf(product.ID); i > -1 {
		line := &e.lines[i]
		// keep the freshest catalog copy so the stock bound matches what we enforce
		line.Product = product
		newQuantity := line.Quantity + quantity
		if newQuantity > stock {
			e.sink.Show(fmt.Sprintf("Maximum stock (%d) reached for this item.", stock), notify.SeverityWarning)
			newQuantity = stock
		}
		if newQuantity < 1 {
			e.removeAt(i)
			e.persist(ctx)
			e.sink.Show("Item removed from cart.", notify.SeverityInfo)
			return fmt.Errorf("add %q: %w", product.ID, ErrStockExceeded)
		}
		line.Quantity = newQuantity
		e.reconcileGifts(line)
	} else {
		if quantity > stock {
			e.sink.Show(fmt.Sprintf("Insufficient stock. Only %d units available.", stock), notify.SeverityWarning)
			return fmt.Errorf("add %q x%d: %w", product.ID, quantity, ErrStockExceeded)
		}
		e.lines = append(e.lines, domain.CartLine{
			Product:  product,
			Quantity: quantity,
			Gifts:    []domain.GiftRecipient{},
		})
	}

	e.persist(ctx)
	e.sink.Show(fmt.Sprintf("%s added to cart!", product.DisplayName()), notify.SeveritySuccess)
	return nil
}

// UpdateQuantity sets a line's quantity, clamping to stock. A quantity below 1
// removes the line. Unknown products are ignored.
func (e *Engine) UpdateQuantity(ctx context.Context, productID string, newQuantity int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		e.log.WithField("product_id", productID).Debug("update quantity: product not in cart")
		return nil
	}
	line := &e.lines[i]

	stock := line.Product.AvailableStock
	if newQuantity > stock {
		e.sink.Show(fmt.Sprintf("Maximum stock (%d) reached.", stock), notify.SeverityWarning)
		newQuantity = stock
	}
	if newQuantity < 1 {
		e.removeAt(i)
		e.persist(ctx)
		e.sink.Show("Item removed from cart.", notify.SeverityInfo)
		return nil
	}

	line.Quantity = newQuantity
	e.reconcileGifts(line)
	e.persist(ctx)
	return nil
}

func (e *Engine) RemoveItem(ctx context.Context, productID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		e.log.WithField("product_id", productID).Debug("remove item: product not in cart")
		return nil
	}

	e.removeAt(i)
	e.persist(ctx)
	e.sink.Show("Item removed from cart.", notify.SeverityInfo)
	return nil
}

// AddGift allocates part of a line to a recipient. The recipient is copied.
func (e *Engine) AddGift(ctx context.Context, productID string, recipient domain.GiftRecipient) error {
	recipient.Name = strings.TrimSpace(recipient.Name)
	recipient.Email = strings.TrimSpace(recipient.Email)
	if recipient.Name == "" || recipient.Email == "" {
		e.sink.Show("Fill in name and e-mail.", notify.SeverityWarning)
		return fmt.Errorf("gift recipient name and email are required: %w", ErrInvalidInput)
	}
	if recipient.Quantity < 1 {
		e.sink.Show("Gift quantity must be at least 1.", notify.SeverityWarning)
		return fmt.Errorf("gift quantity %d: %w", recipient.Quantity, ErrInvalidInput)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		e.log.WithField("product_id", productID).Debug("add gift: product not in cart")
		return nil
	}
	line := &e.lines[i]

	remaining := e.remaining(*line)
	if recipient.Quantity > remaining {
		e.sink.Show(fmt.Sprintf("You only have %d more units available for gifts.", remaining), notify.SeverityWarning)
		return fmt.Errorf("gift quantity %d, remaining %d: %w", recipient.Quantity, remaining, ErrStockExceeded)
	}

	line.Gifts = append(line.Gifts, recipient)
	e.persist(ctx)
	e.sink.Show("Recipient added!", notify.SeveritySuccess)
	return nil
}

// RemoveGift drops the recipient at index. An out-of-range index changes nothing.
func (e *Engine) RemoveGift(ctx context.Context, productID string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		e.log.WithField("product_id", productID).Debug("remove gift: product not in cart")
		return nil
	}
	line := &e.lines[i]

	if index < 0 || index >= len(line.Gifts) {
		e.log.WithFields(logrus.Fields{
			"product_id": productID,
			"index":      index,
			"gifts":      len(line.Gifts),
		}).Warn("remove gift: index out of range")
		return fmt.Errorf("remove gift %d of %d: %w", index, len(line.Gifts), ErrGiftIndexOutOfRange)
	}

	line.Gifts = append(line.Gifts[:index], line.Gifts[index+1:]...)
	e.persist(ctx)
	return nil
}

// RemainingQuantity is the part of a line not allocated to gifts; 0 for unknown products.
func (e *Engine) RemainingQuantity(productID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		return 0
	}
	return e.remaining(e.lines[i])
}

// Clear empties the cart unconditionally.
func (e *Engine) Clear(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lines = []domain.CartLine{}
	e.persist(ctx)
	return nil
}

// Snapshot returns a deep copy of the current lines.
func (e *Engine) Snapshot() []domain.CartLine {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.CloneLines(e.lines)
}

func (e *Engine) Line(productID string) (domain.CartLine, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := e.indexOf(productID)
	if i < 0 {
		return domain.CartLine{}, false
	}
	return e.lines[i].Clone(), true
}

// ItemCount is the total number of units in the cart.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, l := range e.lines {
		n += l.Quantity
	}
	return n
}

func (e *Engine) Totals() domain.Totals {
	return pricing.ComputeTotals(e.Snapshot())
}

func (e *Engine) CheckoutPayload() domain.CheckoutPayload {
	return BuildCheckoutPayload(e.Snapshot())
}

// Subscribe delivers the current state to fn, then every later state in the
// order mutations were applied.
func (e *Engine) Subscribe(fn func([]domain.CartLine)) (unsubscribe func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bc.Subscribe(fn, domain.CloneLines(e.lines))
}

// Close stops deliveries to all subscribers.
func (e *Engine) Close() {
	e.bc.Close()
}

func (e *Engine) indexOf(productID string) int {
	for i := range e.lines {
		if e.lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (e *Engine) removeAt(i int) {
	e.lines = append(e.lines[:i], e.lines[i+1:]...)
}

func (e *Engine) remaining(line domain.CartLine) int {
	r := line.Quantity - line.AllocatedGifts()
	if r < 0 {
		e.log.WithFields(logrus.Fields{
			"product_id": line.Product.ID,
			"quantity":   line.Quantity,
			"allocated":  line.AllocatedGifts(),
		}).Error("gift allocation exceeds line quantity")
		return 0
	}
	return r
}

// reconcileGifts clears all recipients when they no longer fit in the line.
func (e *Engine) reconcileGifts(line *domain.CartLine) {
	if line.AllocatedGifts() <= line.Quantity {
		return
	}
	line.Gifts = []domain.GiftRecipient{}
	e.sink.Show("Item quantity decreased. Gift recipients were reset.", notify.SeverityInfo)
}
