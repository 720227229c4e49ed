package http

import (
	"net/http"
	"time"

	"github.com/fjod/gogift/internal/domain"
	"github.com/fjod/gogift/internal/notify"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

type NotificationFeed interface {
	Subscribe(fn func(notify.Notification)) (unsubscribe func())
}

// FeedMessage is one frame on the live feed: either a cart state or a notification.
type FeedMessage struct {
	Type         string               `json:"type"`
	Cart         *CartResponse        `json:"cart,omitempty"`
	Notification *notify.Notification `json:"notification,omitempty"`
}

// FeedHandler streams cart states and notifications over a WebSocket.
type FeedHandler struct {
	cart     CartEngine
	notes    NotificationFeed
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewFeedHandler(cart CartEngine, notes NotificationFeed, log logrus.FieldLogger) *FeedHandler {
	return &FeedHandler{
		cart:  cart,
		notes: notes,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// GET /api/v1/ws
func (h *FeedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	out := make(chan FeedMessage, 16)
	quit := make(chan struct{})
	send := func(m FeedMessage) {
		select {
		case out <- m:
		case <-quit:
		}
	}

	unsubscribeCart := h.cart.Subscribe(func(lines []domain.CartLine) {
		resp := newCartResponse(lines)
		send(FeedMessage{Type: "cart", Cart: &resp})
	})
	defer unsubscribeCart()
	if h.notes != nil {
		unsubscribeNotes := h.notes.Subscribe(func(n notify.Notification) {
			send(FeedMessage{Type: "notification", Notification: &n})
		})
		defer unsubscribeNotes()
	}
	defer close(quit)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case m := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(m); err != nil {
				h.log.WithError(err).Debug("websocket write failed")
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			return
		}
	}
}
