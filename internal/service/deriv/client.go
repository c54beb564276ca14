package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digitpulse/internal/domain/models"
	drepo "digitpulse/internal/domain/repository"
	"digitpulse/pkg/logger"
	"digitpulse/pkg/util"

	"github.com/gorilla/websocket"
)

// Client implements a MarketStream backed by the Deriv WebSocket API.
type Client struct {
	appID          string
	websocketURL   string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger

	conn      *websocket.Conn
	connected bool
}

// NewStream creates a new Deriv MarketStream.
func NewStream(appID, websocketURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger) drepo.MarketStream {
	return &Client{
		appID:          appID,
		websocketURL:   websocketURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
	}
}

// Connect establishes the WebSocket connection.
func (c *Client) Connect(ctx context.Context) error {
	u := fmt.Sprintf("%s?app_id=%s", c.websocketURL, c.appID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("deriv connect: %w", err)
	}
	c.conn = conn
	c.connected = true
	c.log.Info("deriv: connected", logger.String("url", c.websocketURL))
	return nil
}

// Subscribe requests a tick stream for every configured symbol.
func (c *Client) Subscribe(ctx context.Context) error {
	if c.conn == nil || !c.connected {
		return fmt.Errorf("deriv not connected")
	}
	for _, s := range c.symbols {
		msg := map[string]any{"ticks": s, "subscribe": 1}
		if err := c.conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("subscribe %s: %w", s, err)
		}
		c.log.Info("deriv: subscribed", logger.String("symbol", s))
	}
	return nil
}

// tickPayload keeps the quote as json.Number so the last significant digit
// survives exactly as the server printed it.
type tickPayload struct {
	Symbol string      `json:"symbol"`
	Quote  json.Number `json:"quote"`
	Epoch  int64       `json:"epoch"`
}

type tickMessage struct {
	MsgType string       `json:"msg_type"`
	Tick    *tickPayload `json:"tick"`
	Error   *apiError    `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Read streams tick samples and errors.
func (c *Client) Read(ctx context.Context) (<-chan *models.TickSample, <-chan error) {
	ticks := make(chan *models.TickSample, 1024)
	errs := make(chan error, 1)
	done := make(chan struct{})

	// keepalive, tied to the read loop so a reconnect does not stack pingers
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteJSON(map[string]any{"ping": 1})
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(done)
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("deriv conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("deriv read: %w", err)
					return
				}
				var m tickMessage
				if err := json.Unmarshal(b, &m); err != nil {
					continue
				}
				if m.Error != nil {
					c.log.Warn("deriv: api error",
						logger.String("code", m.Error.Code),
						logger.String("message", m.Error.Message))
					continue
				}
				if m.MsgType != "tick" || m.Tick == nil {
					continue
				}
				sample := toSample(m.Tick)
				if sample == nil {
					continue
				}
				select {
				case ticks <- sample:
				default:
					// drop on backpressure
				}
			}
		}
	}()

	return ticks, errs
}

func toSample(t *tickPayload) *models.TickSample {
	price, err := t.Quote.Float64()
	if err != nil {
		return nil
	}
	return &models.TickSample{
		Symbol:    t.Symbol,
		Price:     price,
		Epoch:     t.Epoch,
		Timestamp: time.Unix(t.Epoch, 0),
		LastDigit: util.LastDigitString(t.Quote.String()),
	}
}

// Reconnect closes and reconnects.
func (c *Client) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	if err := c.Connect(ctx); err != nil {
		return err
	}
	return c.Subscribe(ctx)
}

// Close closes the WS connection.
func (c *Client) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *Client) IsConnected() bool { return c.connected }
