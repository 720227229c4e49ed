package cart

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/notify"
	"github.com/fjod/gogift/internal/pricing"
	"github.com/fjod/gogift/internal/store"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
)

type cartTestContext struct {
	engine  *Engine
	sink    *mockSink
	cards   map[string]domain.GiftCard
	lastErr error
}

func (tc *cartTestContext) reset() error {
	logger, _ := test.NewNullLogger()
	tc.sink = &mockSink{}
	tc.engine = New(store.NewMemory(), tc.sink, WithLogger(logger))
	tc.cards = map[string]domain.GiftCard{}
	tc.lastErr = nil
	return tc.engine.Load(context.Background())
}

func (tc *cartTestContext) card(id string) (domain.GiftCard, error) {
	c, ok := tc.cards[id]
	if !ok {
		return domain.GiftCard{}, fmt.Errorf("unknown gift card %q", id)
	}
	return c, nil
}

func (tc *cartTestContext) aGiftCard(id, selling, desired string, stock int) error {
	sp, err := decimal.NewFromString(selling)
	if err != nil {
		return err
	}
	da, err := decimal.NewFromString(desired)
	if err != nil {
		return err
	}
	tc.cards[id] = domain.GiftCard{ID: id, Title: "Card " + id, SellingPrice: sp, DesiredAmount: da, AvailableStock: stock}
	return nil
}

func (tc *cartTestContext) iAdd(quantity int, id string) error {
	c, err := tc.card(id)
	if err != nil {
		return err
	}
	tc.lastErr = tc.engine.AddItem(context.Background(), c, quantity)
	return nil
}

func (tc *cartTestContext) iGift(quantity int, id, name, email string) error {
	tc.lastErr = tc.engine.AddGift(context.Background(), id, domain.GiftRecipient{
		Name:     name,
		Email:    email,
		Quantity: quantity,
	})
	return nil
}

func (tc *cartTestContext) iSetTheQuantity(id string, quantity int) error {
	tc.lastErr = tc.engine.UpdateQuantity(context.Background(), id, quantity)
	return nil
}

func (tc *cartTestContext) theLineHasQuantity(id string, quantity int) error {
	line, ok := tc.engine.Line(id)
	if !ok {
		return fmt.Errorf("line %q not in cart", id)
	}
	if line.Quantity != quantity {
		return fmt.Errorf("expected quantity %d, got %d", quantity, line.Quantity)
	}
	return nil
}

func (tc *cartTestContext) theLineHasGifts(id string, gifts int) error {
	line, ok := tc.engine.Line(id)
	if !ok {
		return fmt.Errorf("line %q not in cart", id)
	}
	if len(line.Gifts) != gifts {
		return fmt.Errorf("expected %d gifts, got %d", gifts, len(line.Gifts))
	}
	return nil
}

func (tc *cartTestContext) theRemainingQuantityIs(id string, remaining int) error {
	if got := tc.engine.RemainingQuantity(id); got != remaining {
		return fmt.Errorf("expected remaining %d, got %d", remaining, got)
	}
	return nil
}

func (tc *cartTestContext) theCartHasLines(n int) error {
	if got := len(tc.engine.Snapshot()); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (tc *cartTestContext) aNotificationWasShown(severity string) error {
	got := tc.sink.severities()
	for _, s := range got {
		if s == notify.Severity(severity) {
			return nil
		}
	}
	return fmt.Errorf("no %q notification among %v", severity, got)
}

var featureErrors = map[string]error{
	"stock exceeded": ErrStockExceeded,
	"invalid input":  ErrInvalidInput,
}

func (tc *cartTestContext) theLastOperationFailedWith(kind string) error {
	want, ok := featureErrors[kind]
	if !ok {
		return fmt.Errorf("unknown error kind %q", kind)
	}
	if !errors.Is(tc.lastErr, want) {
		return fmt.Errorf("expected %v, got %v", want, tc.lastErr)
	}
	return nil
}

func (tc *cartTestContext) totalIs(pick func(domain.Totals) decimal.Decimal) func(string) error {
	return func(want string) error {
		got := pricing.Format(pick(pricing.Rounded(tc.engine.Totals())))
		if got != want {
			return fmt.Errorf("expected %s, got %s", want, got)
		}
		return nil
	}
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		return ctx, tc.reset()
	})
	ctx.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		tc.engine.Close()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a gift card "([^"]*)" selling for "([^"]*)" with desired amount "([^"]*)" and stock (\d+)$`, tc.aGiftCard)

	// When steps
	ctx.Step(`^I add (\d+) of "([^"]*)"$`, tc.iAdd)
	ctx.Step(`^I gift (\d+) of "([^"]*)" to "([^"]*)" at "([^"]*)"$`, tc.iGift)
	ctx.Step(`^I set the quantity of "([^"]*)" to (-?\d+)$`, tc.iSetTheQuantity)

	// Then steps
	ctx.Step(`^the line "([^"]*)" has quantity (\d+)$`, tc.theLineHasQuantity)
	ctx.Step(`^the line "([^"]*)" has (\d+) gifts$`, tc.theLineHasGifts)
	ctx.Step(`^the remaining quantity of "([^"]*)" is (\d+)$`, tc.theRemainingQuantityIs)
	ctx.Step(`^the cart has (\d+) lines$`, tc.theCartHasLines)
	ctx.Step(`^a "([^"]*)" notification was shown$`, tc.aNotificationWasShown)
	ctx.Step(`^the last operation failed with "([^"]*)"$`, tc.theLastOperationFailedWith)
	ctx.Step(`^the subtotal is "([^"]*)"$`, tc.totalIs(func(t domain.Totals) decimal.Decimal { return t.Subtotal }))
	ctx.Step(`^the service fee is "([^"]*)"$`, tc.totalIs(func(t domain.Totals) decimal.Decimal { return t.ServiceFee }))
	ctx.Step(`^the grand total is "([^"]*)"$`, tc.totalIs(func(t domain.Totals) decimal.Decimal { return t.GrandTotal }))
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
