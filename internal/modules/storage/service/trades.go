package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ladder_bot/internal/models"
	"ladder_bot/pkg/db"
)

// Trades — журнал закрытых сделок в постгресе.
type Trades struct {
	tm db.TxManager
}

func NewTrades(tm *db.PgTxManager) *Trades {
	return &Trades{tm: tm}
}

func (t *Trades) EnsureSchema(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.EnsureSchema: %w", err)
		}
	}()
	return t.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS closed_trades (
				id         BIGSERIAL PRIMARY KEY,
				symbol     TEXT             NOT NULL,
				side       TEXT             NOT NULL,
				entry      DOUBLE PRECISION NOT NULL,
				exit       DOUBLE PRECISION NOT NULL,
				qty        DOUBLE PRECISION NOT NULL,
				pnl        DOUBLE PRECISION NOT NULL,
				reason     TEXT             NOT NULL,
				opened_at  TIMESTAMPTZ      NOT NULL,
				closed_at  TIMESTAMPTZ      NOT NULL
			)`)
		return err
	})
}

func (t *Trades) RecordClose(ctx context.Context, trade models.ClosedTrade) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.RecordClose: %w", err)
		}
	}()
	return t.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO closed_trades (symbol, side, entry, exit, qty, pnl, reason, opened_at, closed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			trade.Symbol, string(trade.Side), trade.Entry, trade.Exit,
			trade.Qty, trade.Pnl, trade.Reason, trade.OpenedAt, trade.ClosedAt,
		)
		return err
	})
}

func (t *Trades) TotalTrades(ctx context.Context) (n int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Trades.TotalTrades: %w", err)
		}
	}()
	err = t.tm.RunMaster(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return tx.QueryRow(ctx, `SELECT COUNT(*) FROM closed_trades`).Scan(&n)
	})
	return n, err
}
