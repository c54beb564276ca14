package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"digitpulse/internal/domain/models"
	pkgch "digitpulse/pkg/clickhouse"
)

// CHTickArchive stores raw ticks in ClickHouse for offline analysis.
type CHTickArchive struct {
	db *sql.DB
}

func NewCHTickArchive(ch *pkgch.Client) *CHTickArchive {
	return &CHTickArchive{db: ch.DB()}
}

func (a *CHTickArchive) Store(ctx context.Context, t *models.TickSample) error {
	const q = "INSERT INTO dp_ticks (ts, symbol, price, digit) VALUES (?, ?, ?, ?)"
	_, err := a.db.ExecContext(ctx, q, t.Timestamp, t.Symbol, t.Price, uint8(t.LastDigit))
	return err
}

func (a *CHTickArchive) StoreBatch(ctx context.Context, ticks []*models.TickSample) error {
	if len(ticks) == 0 {
		return nil
	}
	// multi-row VALUES insert, chunked to bound statement size
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, t := range ticks[start:end] {
			if t == nil || t.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, t.Timestamp, t.Symbol, t.Price, uint8(t.LastDigit))
		}
		if len(values) == 0 {
			continue
		}
		q := fmt.Sprintf("INSERT INTO dp_ticks (ts, symbol, price, digit) VALUES %s", strings.Join(values, ","))
		if _, err := a.db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}
	return nil
}

func (a *CHTickArchive) Close() error {
	return nil // pool owned by pkg/clickhouse
}
