package helper

import "math"

func RoundDownToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Floor(px/tick + 1e-12)
	return steps * tick
}

func RoundUpToTick(px, tick float64) float64 {
	if tick <= 0 {
		return px
	}
	steps := math.Ceil(px/tick - 1e-12)
	return steps * tick
}

// RoundDownToLot округляет размер в контрактах вниз под шаг лота.
func RoundDownToLot(sz, lot float64) float64 {
	if lot <= 0 {
		return sz
	}
	steps := math.Floor(sz/lot + 1e-9)
	return steps * lot
}
