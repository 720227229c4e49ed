package store

import (
	"context"
	"errors"
	"strings"
)

var ErrNotFound = errors.New("key not found")

// KeyValueStore persists serialized blobs under string keys.
type KeyValueStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// Option configures the backends that expire keys (Redis, Mongo).
type Option func(*retention)

type retention struct {
	persistent []string
}

// WithPersistentPrefix exempts keys starting with prefix from expiry.
func WithPersistentPrefix(prefix string) Option {
	return func(r *retention) {
		r.persistent = append(r.persistent, prefix)
	}
}

func newRetention(opts []Option) retention {
	var r retention
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func (r retention) expires(key string) bool {
	for _, p := range r.persistent {
		if strings.HasPrefix(key, p) {
			return false
		}
	}
	return true
}
