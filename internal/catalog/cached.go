package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/gogift/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const DefaultCacheTTL = 5 * time.Minute

// sharedLookupTimeout bounds a collapsed lookup, which no longer follows any
// single caller's context.
const sharedLookupTimeout = 10 * time.Second

// Cached is a read-through Redis cache in front of another Lookup.
type Cached struct {
	next    Lookup
	client  *redis.Client
	baseTTL time.Duration
	log     logrus.FieldLogger
	sfg     singleflight.Group // collapses concurrent misses for one id
}

func NewCached(next Lookup, client *redis.Client, baseTTL time.Duration, log logrus.FieldLogger) *Cached {
	return &Cached{
		next:    next,
		client:  client,
		baseTTL: baseTTL,
		log:     log,
	}
}

func (c *Cached) GetGiftCard(ctx context.Context, id string) (*domain.GiftCard, error) {
	ch := c.sfg.DoChan(id, func() (interface{}, error) {
		// a cancelled first caller must not fail the callers waiting on it
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()

		card, err := c.get(ctx, id)
		if err == nil {
			return card, nil
		}
		if !errors.Is(err, redis.Nil) {
			c.log.WithError(err).WithField("giftcard_id", id).Warn("catalog cache get failed")
		}

		card, err = c.next.GetGiftCard(ctx, id)
		if err != nil {
			return nil, err
		}

		go func(card domain.GiftCard) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := c.set(ctx, &card); err != nil {
				c.log.WithError(err).WithField("giftcard_id", card.ID).Warn("catalog cache set failed")
			}
		}(*card)

		return card, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		card := *res.Val.(*domain.GiftCard)
		return &card, nil
	}
}

// Invalidate drops a cached card, e.g. after its stock changed.
func (c *Cached) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, cacheKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *Cached) get(ctx context.Context, id string) (*domain.GiftCard, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var card domain.GiftCard
	if err := json.Unmarshal(data, &card); err != nil {
		return nil, fmt.Errorf("unmarshal gift card failed: %w", err)
	}
	return &card, nil
}

func (c *Cached) set(ctx context.Context, card *domain.GiftCard) error {
	data, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal gift card failed: %w", err)
	}

	jitter := time.Duration(rand.Int63n(int64(time.Minute)))
	if err := c.client.Set(ctx, cacheKey(card.ID), data, c.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(id string) string {
	return fmt.Sprintf("giftcard:%s", id)
}
