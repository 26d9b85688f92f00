package engine

import (
	"context"
	"time"

	"ladder_bot/internal/models"
)

// Gateway — всё, что движку нужно от биржи. Реализация живёт в okx_client.
type Gateway interface {
	LastPrice(ctx context.Context, instID string) (float64, error)
	SetLeverage(ctx context.Context, instID string, lever int) error
	GetInstrumentMeta(ctx context.Context, instID string) (models.Instrument, error)

	PlaceLimit(ctx context.Context, instID string, side models.Side, px, sz float64) (string, error)
	CancelOrder(ctx context.Context, instID, ordID string) error
	OpenOrders(ctx context.Context, instID string) ([]models.OpenOrder, error)

	PlaceSingleAlgo(ctx context.Context, instID string, posSide models.Side, size, triggerPx float64, isTP bool) (string, error)
	AmendAlgo(ctx context.Context, instID, algoID string, newTriggerPx float64, isTP bool) error
	CancelAlgo(ctx context.Context, instID, algoID string) error
	OpenAlgoOrders(ctx context.Context, instID string) ([]models.AlgoOrder, error)

	OpenPositions(ctx context.Context, instID string) ([]models.OpenPosition, error)
	CloseMarket(ctx context.Context, instID string, posSide models.Side, size float64) (string, error)
	Balance(ctx context.Context) (models.Balance, error)
}

// Emitter отдаёт события дашборду. Реализация живёт в webserver.
type Emitter interface {
	Emit(event string, payload any)
}

// Journal пишет закрытые сделки в хранилище.
type Journal interface {
	RecordClose(ctx context.Context, t models.ClosedTrade) error
	TotalTrades(ctx context.Context) (int64, error)
}

// Notifier шлёт сообщения оператору (телеграм). Nil-безопасен.
type Notifier interface {
	Sendf(format string, args ...interface{})
}

// ConfigProvider отдаёт атомарный снапшот параметров стратегии.
type ConfigProvider interface {
	Snapshot() models.StrategyConfig
}

const (
	readAttempts  = 4
	writeAttempts = 3
)

// readRetry — чтения безопасно повторять; экспоненциальная пауза в рамках тика.
func readRetry[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var err error
	for i := 0; i < readAttempts; i++ {
		var v T
		v, err = fn(ctx)
		if err == nil {
			return v, nil
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-time.After(time.Duration(1<<i) * 250 * time.Millisecond):
		}
	}
	return zero, err
}

// writeRetry — записи повторяем ограниченно; успех только по подтверждению биржи.
func writeRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for i := 0; i < writeAttempts; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * 500 * time.Millisecond):
		}
	}
	return err
}
