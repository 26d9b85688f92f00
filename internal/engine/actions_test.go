package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder_bot/internal/models"
)

// Аварийное закрытие в IDLE — no-op без единого вызова шлюза.
func TestEmergencyCloseIdleIsNoop(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e, _, _ := newTestEngine(cfg, gw)

	require.NoError(t, e.EmergencyClose(context.Background()))
	assert.Zero(t, gw.callCount())
	assert.Equal(t, models.StateIdle, e.state)
}

func TestEmergencyCloseFlushesEverything(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{
		price: 100,
		positions: []models.OpenPosition{
			{InstID: cfg.Symbol, PosSide: models.SideLong, Size: 0.26, Entry: 93},
		},
		orders: []models.OpenOrder{{OrdID: "ord-9", Side: "buy", Px: 91, Sz: 0.26, State: "live"}},
		algos: []models.AlgoOrder{
			{AlgoID: "algo-tp", IsTP: true, TriggerPx: 103, State: "live"},
			{AlgoID: "algo-sl", IsTP: false, TriggerPx: 88, State: "live"},
		},
	}
	e, _, _ := newTestEngine(cfg, gw)
	e.state = models.StateInPosition
	e.position = &models.Position{
		Side: models.SideLong, Entry: 93, Qty: 0.26,
		TP: 103, SL: 88, TPAlgoID: "algo-tp", SLAlgoID: "algo-sl",
		OpenedAt: time.Now(),
	}

	require.NoError(t, e.EmergencyClose(context.Background()))

	assert.Contains(t, gw.calls, "CloseMarket")
	assert.Contains(t, gw.cancelled, "ord-9")
	assert.Contains(t, gw.cancelled, "algo-tp")
	assert.Contains(t, gw.cancelled, "algo-sl")
	assert.Nil(t, e.position)
	assert.Empty(t, e.pending)
	assert.Equal(t, models.StateIdle, e.state)
	require.NoError(t, checkInvariants(e))
}

func TestBatchModifyRequiresPosition(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e, _, _ := newTestEngine(cfg, gw)

	err := e.BatchModifyTPSL(context.Background())
	assert.ErrorIs(t, err, ErrStateConflict)
	assert.Zero(t, gw.callCount())
}

func TestBatchModifyAmendsInPlace(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e := inPositionEngine(cfg, gw)

	require.NoError(t, e.BatchModifyTPSL(context.Background()))

	// пересчёт от текущей цены 100, не от входа 93
	assert.InDelta(t, 110, e.position.TP, 1e-9)
	assert.InDelta(t, 95, e.position.SL, 1e-9)
	assert.Contains(t, gw.calls, "AmendAlgo")
	// те же algoId, пересоздания не было
	assert.Equal(t, "algo-tp", e.position.TPAlgoID)
	assert.Equal(t, "algo-sl", e.position.SLAlgoID)
	require.NoError(t, checkInvariants(e))
}

func TestBatchModifyFallsBackToRecreate(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e := inPositionEngine(cfg, gw)

	// amend по неизвестным algoId будет отвергнут
	gw.algos = nil

	require.NoError(t, e.BatchModifyTPSL(context.Background()))

	assert.NotEqual(t, "algo-tp", e.position.TPAlgoID)
	assert.NotEqual(t, "algo-sl", e.position.SLAlgoID)
	assert.NotEmpty(t, e.position.TPAlgoID)
	assert.NotEmpty(t, e.position.SLAlgoID)
	assert.InDelta(t, 110, e.position.TP, 1e-9)
	assert.InDelta(t, 95, e.position.SL, 1e-9)
	require.NoError(t, checkInvariants(e))
}

// Пересоздание пары провалилось: позиция закрыта защитно, и вызывающему
// возвращается причина, а не конфликт состояния.
func TestBatchModifyReportsRearmFailure(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100, failSL: true}
	e := inPositionEngine(cfg, gw)
	jr := e.journal.(*fakeJournal)

	gw.algos = nil

	err := e.BatchModifyTPSL(context.Background())
	assert.ErrorIs(t, err, ErrRearmFailed)
	assert.NotErrorIs(t, err, ErrStateConflict)

	assert.Nil(t, e.position)
	assert.Equal(t, models.StateIdle, e.state)
	require.Len(t, jr.closed, 1)
	assert.Equal(t, "tp/sl rearm failed", jr.closed[0].Reason)
	require.NoError(t, checkInvariants(e))
}

func TestBatchCancelClearsPendingEntries(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{
		price:  100,
		orders: []models.OpenOrder{{OrdID: "ord-1", Side: "buy", Px: 95, Sz: 0.26, State: "live"}},
	}
	e, _, _ := newTestEngine(cfg, gw)
	e.state = models.StateEntering
	e.pending = []*models.PendingEntry{
		{OrderID: "ord-1", Side: models.SideLong, LimitPrice: 95, Qty: 0.26, PlacedAt: time.Now()},
	}

	require.NoError(t, e.BatchCancelOrders(context.Background()))

	assert.Contains(t, gw.cancelled, "ord-1")
	assert.Empty(t, e.pending)
	assert.Equal(t, models.StateIdle, e.state)
	require.NoError(t, checkInvariants(e))
}

// Снос TP/SL при живой позиции немедленно перевыставляет пару.
func TestBatchCancelRearmsProtectionPair(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e := inPositionEngine(cfg, gw)

	require.NoError(t, e.BatchCancelOrders(context.Background()))

	require.NotNil(t, e.position)
	assert.Equal(t, models.StateInPosition, e.state)
	assert.NotEmpty(t, e.position.TPAlgoID)
	assert.NotEmpty(t, e.position.SLAlgoID)
	require.NoError(t, checkInvariants(e))
}

func TestBatchCancelRearmFailureEscalatesToClose(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100, failSL: true}
	e := inPositionEngine(cfg, gw)

	require.NoError(t, e.BatchCancelOrders(context.Background()))

	assert.Nil(t, e.position)
	assert.Equal(t, models.StateIdle, e.state)
	assert.Contains(t, gw.calls, "CloseMarket")
	require.NoError(t, checkInvariants(e))
}

func TestBatchCancelRejectedWhenStopped(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e, _, _ := newTestEngine(cfg, gw)
	e.state = models.StateStopped

	err := e.BatchCancelOrders(context.Background())
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.Zero(t, gw.callCount())
}
