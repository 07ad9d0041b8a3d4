package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"SlipScope/internal/domain/models"
	drepo "SlipScope/internal/domain/repository"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by a trade/quote WebSocket feed.
type Client struct {
	token          string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

// New creates a new market data stream client.
func New(token, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration) drepo.MarketStream {
	return &Client{
		token:          token,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := c.websocketURL
	if c.token != "" {
		u = fmt.Sprintf("%s?token=%s", c.websocketURL, c.token)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("feed connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	log.Printf("feed: connected")
	return nil
}

// Subscribe subscribes to trades and quotes for configured symbols.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("feed not connected")
	}
	for _, s := range c.symbols {
		for _, ch := range []string{"trade", "quote"} {
			msg := map[string]string{"type": "subscribe", "channel": ch, "symbol": s}
			if err := c.conn.WriteJSON(msg); err != nil {
				return fmt.Errorf("subscribe %s %s: %w", ch, s, err)
			}
		}
		log.Printf("feed: subscribed %s", s)
	}
	return nil
}

type wsTrade struct {
	S string  `json:"s"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsQuote struct {
	S  string  `json:"s"`
	B  float64 `json:"b"`
	BS float64 `json:"bs"`
	A  float64 `json:"a"`
	AS float64 `json:"as"`
	T  int64   `json:"t"` // ms
}

type wsMessage struct {
	Type   string    `json:"type"`
	Trades []wsTrade `json:"data"`
	Quotes []wsQuote `json:"quotes"`
}

// Read streams observations and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	obs := make(chan *models.Observation, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(obs)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("feed conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("feed read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-data frames
					continue
				}
				switch m.Type {
				case "trade":
					for _, t := range m.Trades {
						o := models.NewTrade(t.S, msToTime(t.T), t.P, t.V)
						obs <- &o
					}
				case "quote":
					for _, q := range m.Quotes {
						o := models.NewQuote(q.S, msToTime(q.T), q.B, q.BS, q.A, q.AS)
						obs <- &o
					}
				}
			}
		}
	}()

	return obs, errs
}

// Reconnect closes and re-establishes the connection after a delay.
func (c *Client) Reconnect(ctx context.Context) error {
	c.connected = false
	if c.conn != nil {
		_ = c.conn.Close()
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.reconnectDelay):
	}
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close terminates the connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected reports connection state.
func (c *Client) IsConnected() bool { return c.connected }

func msToTime(ms int64) time.Time {
	if ms > 1e11 { // ms precision
		return time.UnixMilli(ms)
	}
	return time.Unix(ms, 0)
}
