package models

// Instrument — метаданные контракта SWAP, распарсенные из /public/instruments.
type Instrument struct {
	InstID string

	LastPx float64
	TickSz float64
	LotSz  float64
	MinSz  float64
	// номинал контракта в базовой валюте (ctVal * ctMult)
	CtVal float64
}
