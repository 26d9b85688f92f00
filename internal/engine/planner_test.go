package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder_bot/internal/models"
)

func TestSignalSide(t *testing.T) {
	cfg := baseConfig()
	cfg.LongSafetyLinePrice = 100
	cfg.ShortSafetyLinePrice = 50

	tests := []struct {
		name      string
		direction models.Direction
		price     float64
		wantSide  models.Side
		wantFire  bool
	}{
		{"long fires at line", models.DirectionBoth, 100, models.SideLong, true},
		{"long fires above line", models.DirectionBoth, 120, models.SideLong, true},
		{"short fires at line", models.DirectionBoth, 50, models.SideShort, true},
		{"short fires below line", models.DirectionBoth, 40, models.SideShort, true},
		{"no signal between lines", models.DirectionBoth, 75, "", false},
		{"long blocked by filter", models.DirectionShort, 120, "", false},
		{"short blocked by filter", models.DirectionLong, 40, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg.Direction = tt.direction
			side, ok := signalSide(cfg, tt.price)
			assert.Equal(t, tt.wantFire, ok)
			if tt.wantFire {
				assert.Equal(t, tt.wantSide, side)
			}
		})
	}
}

func TestSignalSideBothLinesFired(t *testing.T) {
	cfg := baseConfig()
	// вырожденная конфигурация: обе линии срабатывают одновременно
	cfg.LongSafetyLinePrice = 100
	cfg.ShortSafetyLinePrice = 200

	cfg.Direction = models.DirectionShort
	side, ok := signalSide(cfg, 150)
	require.True(t, ok)
	assert.Equal(t, models.SideShort, side)

	cfg.Direction = models.DirectionLong
	side, ok = signalSide(cfg, 150)
	require.True(t, ok)
	assert.Equal(t, models.SideLong, side)
}

func TestBatchPricesLong(t *testing.T) {
	cfg := baseConfig()
	prices := batchPrices(cfg, models.SideLong, 100, 0.1)
	require.Len(t, prices, 3)
	assert.InDelta(t, 95, prices[0], 1e-9)
	assert.InDelta(t, 93, prices[1], 1e-9)
	assert.InDelta(t, 91, prices[2], 1e-9)
}

func TestBatchPricesShort(t *testing.T) {
	cfg := baseConfig()
	prices := batchPrices(cfg, models.SideShort, 100, 0.1)
	require.Len(t, prices, 3)
	assert.InDelta(t, 105, prices[0], 1e-9)
	assert.InDelta(t, 107, prices[1], 1e-9)
	assert.InDelta(t, 109, prices[2], 1e-9)
}

func TestOrderQtySizing(t *testing.T) {
	cfg := baseConfig()
	// 100 / 4 = 25 USDT на ступень
	assert.InDelta(t, 25, cfg.MaxAmount(), 1e-9)

	// 25 USDT при цене 95 и ctVal=1: 0.26 контракта при лоте 0.01
	qty := orderQty(cfg.MaxAmount(), 95, 1, 0.01)
	assert.InDelta(t, 0.26, qty, 1e-9)
}

func TestPlanBatchPlacesLadder(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 100}
	e, _, _ := newTestEngine(cfg, gw)
	e.snapshot = models.MarketSnapshot{Price: 100}

	e.planBatch(context.Background(), cfg)

	require.Len(t, gw.placedLimits, 3)
	assert.InDelta(t, 95, gw.placedLimits[0].px, 1e-9)
	assert.InDelta(t, 93, gw.placedLimits[1].px, 1e-9)
	assert.InDelta(t, 91, gw.placedLimits[2].px, 1e-9)
	assert.Equal(t, models.StateEntering, e.state)
	assert.Len(t, e.pending, 3)
	require.NoError(t, checkInvariants(e))
}

func TestPlanBatchBelowMinAmount(t *testing.T) {
	cfg := baseConfig()
	cfg.MinOrderAmount = 30 // больше чем 100/4

	gw := &fakeGateway{price: 100}
	e, _, _ := newTestEngine(cfg, gw)
	e.snapshot = models.MarketSnapshot{Price: 100}

	e.planBatch(context.Background(), cfg)

	assert.Empty(t, gw.placedLimits)
	assert.Equal(t, models.StateIdle, e.state)
	assert.Empty(t, e.pending)
}

func TestPlanBatchNoSignal(t *testing.T) {
	cfg := baseConfig()
	gw := &fakeGateway{price: 90} // ниже long safety line
	e, _, _ := newTestEngine(cfg, gw)
	e.snapshot = models.MarketSnapshot{Price: 90}

	e.planBatch(context.Background(), cfg)

	assert.Empty(t, gw.placedLimits)
	assert.Equal(t, models.StateIdle, e.state)
}
