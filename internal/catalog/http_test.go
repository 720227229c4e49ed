package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPClient_GetGiftCard(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/giftcards/gc-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"gc-1","title":"Coffee","valor":"103.00","desired_amount":"100","quantityavailable":7}`))
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL+"/", time.Second)
	card, err := client.GetGiftCard(context.Background(), "gc-1")

	require.NoError(t, err)
	assert.Equal(t, "gc-1", card.ID)
	assert.Equal(t, "Coffee", card.Title)
	assert.Equal(t, 7, card.AvailableStock)
	assert.Equal(t, "103.00", card.SellingPrice.StringFixed(2))
}

func TestHTTPClient_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).GetGiftCard(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).GetGiftCard(context.Background(), "gc-1")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := NewHTTPClient(addr, time.Second).GetGiftCard(context.Background(), "gc-1")

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHTTPClient_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL, time.Second).GetGiftCard(context.Background(), "gc-1")

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
