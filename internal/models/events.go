package models

import "time"

// События в сторону дашборда. Имена совпадают с тем, что слушает фронт.
const (
	EventBotStatus      = "bot_status"
	EventAccountUpdate  = "account_update"
	EventPositionUpdate = "position_update"
	EventTradesUpdate   = "trades_update"
	EventConsoleLog     = "console_log"
)

type BotStatus struct {
	Running bool `json:"running"`
}

type AccountUpdate struct {
	TotalBalance     float64 `json:"total_balance"`
	AvailableBalance float64 `json:"available_balance"`
	MaxAllowedUsed   float64 `json:"max_allowed_used"`
	MaxAmount        float64 `json:"max_amount"`
	UsedAmount       float64 `json:"used_amount"`
	RemainingAmount  float64 `json:"remaining_amount"`
	TotalTrades      int64   `json:"total_trades"`
}

type PositionUpdate struct {
	InPosition bool    `json:"in_position"`
	EntryPrice float64 `json:"position_entry_price"`
	Qty        float64 `json:"position_qty"`
	TakeProfit float64 `json:"current_take_profit"`
	StopLoss   float64 `json:"current_stop_loss"`
}

type TradesUpdate struct {
	Trades []PendingEntry `json:"trades"`
}

type ConsoleLog struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Message   string `json:"message"`
}

// ClosedTrade — запись журнала по закрытой позиции.
type ClosedTrade struct {
	Symbol   string
	Side     Side
	Entry    float64
	Exit     float64
	Qty      float64
	Pnl      float64
	Reason   string
	OpenedAt time.Time
	ClosedAt time.Time
}
