package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() StrategyConfig {
	return StrategyConfig{
		Symbol:                "BTC-USDT-SWAP",
		Direction:             DirectionBoth,
		Leverage:              10,
		LongSafetyLinePrice:   100,
		ShortSafetyLinePrice:  50,
		EntryPriceOffset:      5,
		BatchOffset:           2,
		TPPriceOffset:         10,
		SLPriceOffset:         5,
		MaxAllowedUsed:        100,
		RateDivisor:           4,
		MinOrderAmount:        5,
		BatchSizePerLoop:      3,
		LoopTimeSeconds:       5,
		CancelUnfilledSeconds: 60,
	}
}

func TestValidateOK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StrategyConfig)
	}{
		{"empty symbol", func(c *StrategyConfig) { c.Symbol = "" }},
		{"bad direction", func(c *StrategyConfig) { c.Direction = "sideways" }},
		{"zero leverage", func(c *StrategyConfig) { c.Leverage = 0 }},
		{"negative offset", func(c *StrategyConfig) { c.BatchOffset = -1 }},
		{"zero max allowed", func(c *StrategyConfig) { c.MaxAllowedUsed = 0 }},
		{"divisor below one", func(c *StrategyConfig) { c.RateDivisor = 0.5 }},
		{"zero batch size", func(c *StrategyConfig) { c.BatchSizePerLoop = 0 }},
		{"zero loop time", func(c *StrategyConfig) { c.LoopTimeSeconds = 0 }},
		{"zero cancel timeout", func(c *StrategyConfig) { c.CancelUnfilledSeconds = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMaxAmount(t *testing.T) {
	cfg := validConfig()
	assert.InDelta(t, 25, cfg.MaxAmount(), 1e-9)

	cfg.RateDivisor = 0
	assert.Zero(t, cfg.MaxAmount())
}

func TestDirectionFilter(t *testing.T) {
	assert.True(t, DirectionBoth.AllowsLong())
	assert.True(t, DirectionBoth.AllowsShort())
	assert.True(t, DirectionLong.AllowsLong())
	assert.False(t, DirectionLong.AllowsShort())
	assert.False(t, DirectionShort.AllowsLong())
	assert.True(t, DirectionShort.AllowsShort())
}

func TestEngineStateString(t *testing.T) {
	assert.Equal(t, "STOPPED", StateStopped.String())
	assert.Equal(t, "IDLE", StateIdle.String())
	assert.Equal(t, "ENTERING", StateEntering.String())
	assert.Equal(t, "IN_POSITION", StateInPosition.String())
	assert.Equal(t, "EXITING", StateExiting.String())
}
