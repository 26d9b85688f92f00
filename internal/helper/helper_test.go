package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundDownToTick(t *testing.T) {
	assert.InDelta(t, 95.0, RoundDownToTick(95.04, 0.1), 1e-9)
	assert.InDelta(t, 95.0, RoundDownToTick(95.0, 0.1), 1e-9)
	assert.InDelta(t, 27123.5, RoundDownToTick(27123.57, 0.5), 1e-9)
	// нулевой тик оставляет цену как есть
	assert.InDelta(t, 95.04, RoundDownToTick(95.04, 0), 1e-9)
}

func TestRoundUpToTick(t *testing.T) {
	assert.InDelta(t, 95.1, RoundUpToTick(95.04, 0.1), 1e-9)
	assert.InDelta(t, 95.0, RoundUpToTick(95.0, 0.1), 1e-9)
	assert.InDelta(t, 27124.0, RoundUpToTick(27123.57, 0.5), 1e-9)
}

func TestRoundDownToLot(t *testing.T) {
	assert.InDelta(t, 0.26, RoundDownToLot(0.2631, 0.01), 1e-9)
	assert.InDelta(t, 3.0, RoundDownToLot(3.999, 1), 1e-9)
	assert.InDelta(t, 0.26, RoundDownToLot(0.26, 0.01), 1e-9)
}
