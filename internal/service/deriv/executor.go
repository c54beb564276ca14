package deriv

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"digitpulse/internal/domain/models"
	"digitpulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// contractType maps a signal direction onto the Deriv digit contract codes.
func contractType(d models.Direction) (string, error) {
	switch d {
	case models.DirEven:
		return "DIGITEVEN", nil
	case models.DirOdd:
		return "DIGITODD", nil
	case models.DirOver:
		return "DIGITOVER", nil
	case models.DirUnder:
		return "DIGITUNDER", nil
	case models.DirMatch:
		return "DIGITMATCH", nil
	case models.DirDiffer:
		return "DIGITDIFF", nil
	}
	return "", fmt.Errorf("unknown direction %q", d)
}

// barrier returns the digit barrier parameter, empty when the contract type
// takes none.
func barrier(sig models.TradeSignal) string {
	switch sig.Direction {
	case models.DirOver, models.DirUnder, models.DirMatch, models.DirDiffer:
		return strconv.Itoa(sig.TargetDigit)
	}
	return ""
}

// Executor submits real contracts over a dedicated Deriv WebSocket
// connection and blocks until settlement. One contract is in flight at a
// time; the mutex serializes the request/response exchange on the wire.
type Executor struct {
	appID         string
	token         string
	websocketURL  string
	settleTimeout time.Duration
	log           *logger.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	authorized bool
}

func NewExecutor(appID, token, websocketURL string, settleTimeout time.Duration, log *logger.Logger) *Executor {
	return &Executor{
		appID:         appID,
		token:         token,
		websocketURL:  websocketURL,
		settleTimeout: settleTimeout,
		log:           log,
	}
}

func (e *Executor) ensureConnected(ctx context.Context) error {
	if e.conn != nil && e.authorized {
		return nil
	}
	u := fmt.Sprintf("%s?app_id=%s", e.websocketURL, e.appID)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("deriv executor connect: %w", err)
	}
	e.conn = conn

	if err := conn.WriteJSON(map[string]any{"authorize": e.token}); err != nil {
		e.reset()
		return fmt.Errorf("deriv authorize send: %w", err)
	}
	var resp struct {
		MsgType string    `json:"msg_type"`
		Error   *apiError `json:"error"`
	}
	if err := conn.ReadJSON(&resp); err != nil {
		e.reset()
		return fmt.Errorf("deriv authorize read: %w", err)
	}
	if resp.Error != nil {
		e.reset()
		return fmt.Errorf("deriv authorize: %s (%s)", resp.Error.Message, resp.Error.Code)
	}
	e.authorized = true
	e.log.Info("deriv executor: authorized")
	return nil
}

func (e *Executor) reset() {
	if e.conn != nil {
		_ = e.conn.Close()
	}
	e.conn = nil
	e.authorized = false
}

type buyResult struct {
	ContractID int64   `json:"contract_id"`
	BuyPrice   float64 `json:"buy_price"`
}

type buyResponse struct {
	MsgType string     `json:"msg_type"`
	Buy     *buyResult `json:"buy"`
	Error   *apiError  `json:"error"`
}

type pocResponse struct {
	MsgType string `json:"msg_type"`
	POC     *struct {
		ContractID int64   `json:"contract_id"`
		IsSold     int     `json:"is_sold"`
		Profit     float64 `json:"profit"`
	} `json:"proposal_open_contract"`
	Error *apiError `json:"error"`
}

// SubmitDecision buys a one-tick digit contract and waits until it settles.
func (e *Executor) SubmitDecision(ctx context.Context, d models.Decision) (models.Outcome, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureConnected(ctx); err != nil {
		return models.Outcome{}, err
	}

	ct, err := contractType(d.Signal.Direction)
	if err != nil {
		return models.Outcome{}, err
	}

	params := map[string]any{
		"amount":        d.Stake,
		"basis":         "stake",
		"contract_type": ct,
		"currency":      "USD",
		"duration":      1,
		"duration_unit": "t",
		"symbol":        d.Signal.Symbol,
	}
	if b := barrier(d.Signal); b != "" {
		params["barrier"] = b
	}
	req := map[string]any{"buy": 1, "price": d.Stake, "parameters": params}
	if err := e.conn.WriteJSON(req); err != nil {
		e.reset()
		return models.Outcome{}, fmt.Errorf("deriv buy send: %w", err)
	}

	buy, err := e.awaitBuy(ctx)
	if err != nil {
		return models.Outcome{}, err
	}

	sub := map[string]any{"proposal_open_contract": 1, "contract_id": buy.ContractID, "subscribe": 1}
	if err := e.conn.WriteJSON(sub); err != nil {
		e.reset()
		return models.Outcome{}, fmt.Errorf("deriv contract subscribe: %w", err)
	}

	return e.awaitSettlement(ctx, d.ID, buy.ContractID)
}

func (e *Executor) awaitBuy(ctx context.Context) (*buyResult, error) {
	deadline := time.Now().Add(e.settleTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		_ = e.conn.SetReadDeadline(deadline)
		_, b, err := e.conn.ReadMessage()
		if err != nil {
			e.reset()
			return nil, fmt.Errorf("deriv buy read: %w", err)
		}
		var resp buyResponse
		if err := json.Unmarshal(b, &resp); err != nil {
			continue
		}
		if resp.Error != nil {
			return nil, fmt.Errorf("deriv buy: %s (%s)", resp.Error.Message, resp.Error.Code)
		}
		if resp.MsgType == "buy" && resp.Buy != nil {
			return resp.Buy, nil
		}
	}
}

func (e *Executor) awaitSettlement(ctx context.Context, decisionID string, contractID int64) (models.Outcome, error) {
	deadline := time.Now().Add(e.settleTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return models.Outcome{}, err
		}
		_ = e.conn.SetReadDeadline(deadline)
		_, b, err := e.conn.ReadMessage()
		if err != nil {
			e.reset()
			return models.Outcome{}, fmt.Errorf("deriv settlement read: %w", err)
		}
		var resp pocResponse
		if err := json.Unmarshal(b, &resp); err != nil {
			continue
		}
		if resp.Error != nil {
			return models.Outcome{}, fmt.Errorf("deriv contract: %s (%s)", resp.Error.Message, resp.Error.Code)
		}
		if resp.POC == nil || resp.POC.ContractID != contractID || resp.POC.IsSold == 0 {
			continue
		}
		result := models.OutcomeLoss
		if resp.POC.Profit > 0 {
			result = models.OutcomeWin
		}
		return models.Outcome{
			DecisionID: decisionID,
			Result:     result,
			Profit:     resp.POC.Profit,
			SettledAt:  time.Now(),
		}, nil
	}
}

// Close tears down the executor connection.
func (e *Executor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
	return nil
}
