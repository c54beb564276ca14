package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"digitpulse/internal/domain/models"
	pkgch "digitpulse/pkg/clickhouse"
	applogger "digitpulse/pkg/logger"
)

// TradeRecord is one settled trade as read back from history.
type TradeRecord struct {
	Timestamp  time.Time `json:"timestamp"`
	DecisionID string    `json:"decision_id"`
	BotID      string    `json:"bot_id"`
	Symbol     string    `json:"symbol"`
	Family     string    `json:"family"`
	Direction  string    `json:"direction"`
	Target     int       `json:"target"`
	Confidence float64   `json:"confidence"`
	Score      float64   `json:"score"`
	Stake      float64   `json:"stake"`
	Result     string    `json:"result"`
	Profit     float64   `json:"profit"`
}

// CHTradeStore persists settled trades to ClickHouse.
type CHTradeStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHTradeStore(ch *pkgch.Client, l *applogger.Logger) *CHTradeStore {
	return &CHTradeStore{db: ch.DB(), l: l}
}

func (s *CHTradeStore) PersistTrade(ctx context.Context, d models.Decision, o models.Outcome) error {
	const q = `INSERT INTO dp_trades
		(ts, decision_id, bot_id, symbol, family, direction, target, confidence, score, stake, result, profit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q,
		o.SettledAt,
		d.ID,
		d.BotID,
		d.Signal.Symbol,
		d.Signal.Family.String(),
		string(d.Signal.Direction),
		int8(d.Signal.TargetDigit),
		d.Signal.Confidence,
		d.Signal.Score,
		d.Stake,
		o.Result,
		o.Profit,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse persist_trade error",
				applogger.String("bot_id", d.BotID),
				applogger.String("symbol", d.Signal.Symbol),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("persist trade: %w", err)
	}
	return nil
}

// RecentTrades returns the latest settled trades for a bot, newest first.
func (s *CHTradeStore) RecentTrades(ctx context.Context, botID string, limit int) ([]TradeRecord, error) {
	const q = `SELECT ts, decision_id, bot_id, symbol, family, direction, target, confidence, score, stake, result, profit
		FROM dp_trades WHERE bot_id = ? ORDER BY ts DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, botID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent trades: %w", err)
	}
	defer rows.Close()

	out := make([]TradeRecord, 0, limit)
	for rows.Next() {
		var r TradeRecord
		var target int8
		if err := rows.Scan(&r.Timestamp, &r.DecisionID, &r.BotID, &r.Symbol, &r.Family,
			&r.Direction, &target, &r.Confidence, &r.Score, &r.Stake, &r.Result, &r.Profit); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		r.Target = int(target)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *CHTradeStore) Close() error {
	return nil // pool owned by pkg/clickhouse
}
