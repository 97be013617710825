package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/alexbotov/hypixel/internal/audit"
	"github.com/alexbotov/hypixel/internal/domain"
	"github.com/alexbotov/hypixel/pkg/hypixel"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSClient is one bazaar feed connection
type WSClient struct {
	conn    *websocket.Conn
	send    chan []byte
	refresh chan struct{}
	session *domain.Session

	mu       sync.Mutex
	products map[string]bool
	sequence int64
}

// watching returns the product filter; nil means every product
func (c *WSClient) watching() map[string]bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.products
}

func (c *WSClient) watch(products []string) {
	var filter map[string]bool
	if len(products) > 0 {
		filter = make(map[string]bool, len(products))
		for _, p := range products {
			filter[p] = true
		}
	}
	c.mu.Lock()
	c.products = filter
	c.mu.Unlock()
}

// HandleBazaarFeed handles GET /api/v1/ws/bazaar. Each connection polls the
// bazaar on its own ticker and receives a "tick" per snapshot.
func (h *Handler) HandleBazaarFeed(w http.ResponseWriter, r *http.Request) {
	session, _ := SessionFromContext(r.Context())
	ip := getClientIP(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		conn:    conn,
		send:    make(chan []byte, 16),
		refresh: make(chan struct{}, 1),
		session: session,
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	opts := []audit.EventOption{audit.WithIP(ip), audit.WithComponent("feed")}
	if session != nil {
		opts = append(opts, audit.WithClient(session.ClientID), audit.WithSession(session.ID))
	}
	h.audit.Log(ctx, audit.EventFeedOpened, domain.SeverityInfo, "Bazaar feed opened", nil, opts...)

	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			client.writePump(ctx)
		}()
		go func() {
			defer wg.Done()
			h.pollBazaar(ctx, client)
		}()

		h.readPump(ctx, client)
		cancel()
		wg.Wait()

		h.audit.Log(context.WithoutCancel(ctx), audit.EventFeedClosed, domain.SeverityInfo, "Bazaar feed closed",
			map[string]int64{"ticks": client.sequence}, opts...)
	}()
}

// writePump is the only writer on the connection
func (c *WSClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// readPump handles client messages until the connection fails or closes
func (h *Handler) readPump(ctx context.Context, c *WSClient) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	h.sendMessage(ctx, c, "connected", map[string]interface{}{
		"interval": h.feedInterval.String(),
		"message":  "Connected to bazaar feed",
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				h.logger.WarnContext(ctx, "websocket read failed", "error", err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.sendError(ctx, c, "INVALID_MESSAGE", "Invalid message format")
			continue
		}
		h.handleWSMessage(ctx, c, &msg)
	}
}

func (h *Handler) handleWSMessage(ctx context.Context, c *WSClient, msg *WSMessage) {
	switch msg.Type {
	case "subscribe":
		var payload struct {
			Products []string `json:"products"`
		}
		if len(msg.Payload) > 0 {
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				h.sendError(ctx, c, "INVALID_PAYLOAD", "Invalid subscribe payload")
				return
			}
		}
		c.watch(payload.Products)
		h.sendMessage(ctx, c, "subscribed", map[string]interface{}{"products": payload.Products})
		c.requestRefresh()

	case "refresh":
		c.requestRefresh()

	case "ping":
		h.sendMessage(ctx, c, "pong", map[string]interface{}{
			"timestamp": time.Now().Unix(),
		})

	default:
		h.sendError(ctx, c, "UNKNOWN_MESSAGE", "Unknown message type: "+msg.Type)
	}
}

func (c *WSClient) requestRefresh() {
	select {
	case c.refresh <- struct{}{}:
	default:
	}
}

// pollBazaar fetches the bazaar immediately and then once per feed interval
func (h *Handler) pollBazaar(ctx context.Context, c *WSClient) {
	ticker := time.NewTicker(h.feedInterval)
	defer ticker.Stop()

	for {
		h.pushTick(ctx, c)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-c.refresh:
		}
	}
}

func (h *Handler) pushTick(ctx context.Context, c *WSClient) {
	if err := h.control.CheckAccess("skyblock/bazaar"); err != nil {
		_, code, msg := accessError(err)
		h.sendError(ctx, c, code, msg)
		return
	}

	bazaar, err := h.client.Skyblock().Bazaar(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		_, code, msg := upstreamError(err)
		h.logger.WarnContext(ctx, "bazaar poll failed", "error", err)
		h.sendError(ctx, c, code, msg)
		return
	}

	c.mu.Lock()
	c.sequence++
	seq := c.sequence
	c.mu.Unlock()

	h.sendMessage(ctx, c, "tick", newBazaarTick(seq, bazaar, c.watching(), time.Now().UTC()))
}

// newBazaarTick builds the quotes for the watched products, in bazaar order
func newBazaarTick(seq int64, bazaar *hypixel.Bazaar, products map[string]bool, now time.Time) domain.BazaarTick {
	tick := domain.BazaarTick{
		Sequence:   seq,
		LastUpdate: bazaar.LastUpdate,
		FetchedAt:  now,
		Quotes:     []domain.ProductQuote{},
	}
	for _, p := range bazaar.Products {
		if products != nil && !products[p.ID] {
			continue
		}
		quote := domain.ProductQuote{ProductID: p.ID}
		if qs := p.QuickStatus; qs != nil {
			quote.BuyPrice = qs.BuyPrice
			quote.SellPrice = qs.SellPrice
			quote.BuyVolume = qs.BuyVolume
			quote.SellVolume = qs.SellVolume
		}
		tick.Quotes = append(tick.Quotes, quote)
	}
	return tick
}

// sendMessage queues a message; it is dropped if the client is not keeping up
func (h *Handler) sendMessage(ctx context.Context, c *WSClient, msgType string, payload interface{}) {
	payloadBytes, _ := json.Marshal(payload)
	msgBytes, _ := json.Marshal(WSMessage{
		Type:    msgType,
		Payload: payloadBytes,
	})

	select {
	case c.send <- msgBytes:
	case <-ctx.Done():
	default:
		h.logger.DebugContext(ctx, "websocket message dropped", "type", msgType)
	}
}

// sendError sends an error message to the client
func (h *Handler) sendError(ctx context.Context, c *WSClient, code, message string) {
	h.sendMessage(ctx, c, "error", map[string]string{
		"code":    code,
		"message": message,
	})
}
