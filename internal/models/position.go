package models

import "time"

// EngineState — состояние машины жизненного цикла. Ровно одно значение в любой момент.
type EngineState int32

const (
	StateStopped EngineState = iota
	StateIdle
	StateEntering
	StateInPosition
	StateExiting
)

func (s EngineState) String() string {
	switch s {
	case StateStopped:
		return "STOPPED"
	case StateIdle:
		return "IDLE"
	case StateEntering:
		return "ENTERING"
	case StateInPosition:
		return "IN_POSITION"
	case StateExiting:
		return "EXITING"
	}
	return "UNKNOWN"
}

// PendingEntry — выставленный, но ещё не исполненный лимитный ордер батча.
type PendingEntry struct {
	OrderID    string    `json:"order_id"`
	Side       Side      `json:"side"`
	LimitPrice float64   `json:"limit_price"`
	Qty        float64   `json:"qty"`
	PlacedAt   time.Time `json:"placed_at"`
}

// Position — единственная открытая позиция движка (single-symbol, single-position).
// До перехода в IN_POSITION оба algoId обязаны быть заполнены.
type Position struct {
	Side     Side
	Entry    float64
	Qty      float64
	TP       float64
	SL       float64
	TPAlgoID string
	SLAlgoID string
	OpenedAt time.Time
}

// MarketSnapshot — последняя опрошенная цена, обновляется раз в тик.
type MarketSnapshot struct {
	Price float64
	At    time.Time
}

// OpenPosition — позиция, как её отдаёт биржа (усечённый маппинг ответа OKX).
type OpenPosition struct {
	InstID  string
	PosSide Side
	Size    float64
	Entry   float64
	LastPx  float64
}

// OpenOrder — висящий в стакане ордер с биржи.
type OpenOrder struct {
	OrdID string
	Side  string // "buy"/"sell"
	Px    float64
	Sz    float64
	State string
}

// AlgoOrder — условный (TP/SL) ордер с биржи.
type AlgoOrder struct {
	AlgoID    string
	IsTP      bool
	TriggerPx float64
	State     string
}

// Balance аккаунта в USDT.
type Balance struct {
	TotalEq float64
	AvailEq float64
}
