package models

import "fmt"

// Direction — фильтр направления входа.
type Direction string

const (
	DirectionLong  Direction = "long"
	DirectionShort Direction = "short"
	DirectionBoth  Direction = "both"
)

func (d Direction) AllowsLong() bool  { return d == DirectionLong || d == DirectionBoth }
func (d Direction) AllowsShort() bool { return d == DirectionShort || d == DirectionBoth }

// Side позиции: "long"/"short" как у OKX posSide.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// StrategyConfig — иммутабельный снапшот параметров на один цикл.
// Движок берёт копию в начале тика и до конца тика работает с ней.
type StrategyConfig struct {
	Symbol    string    `mapstructure:"symbol" json:"symbol"`
	Direction Direction `mapstructure:"direction" json:"direction"`
	Leverage  int       `mapstructure:"leverage" json:"leverage"`

	LongSafetyLinePrice  float64 `mapstructure:"long_safety_line_price" json:"long_safety_line_price"`
	ShortSafetyLinePrice float64 `mapstructure:"short_safety_line_price" json:"short_safety_line_price"`

	EntryPriceOffset float64 `mapstructure:"entry_price_offset" json:"entry_price_offset"`
	BatchOffset      float64 `mapstructure:"batch_offset" json:"batch_offset"`
	TPPriceOffset    float64 `mapstructure:"tp_price_offset" json:"tp_price_offset"`
	SLPriceOffset    float64 `mapstructure:"sl_price_offset" json:"sl_price_offset"`

	MaxAllowedUsed float64 `mapstructure:"max_allowed_used" json:"max_allowed_used"`
	RateDivisor    float64 `mapstructure:"rate_divisor" json:"rate_divisor"`
	MinOrderAmount float64 `mapstructure:"min_order_amount" json:"min_order_amount"`

	BatchSizePerLoop      int `mapstructure:"batch_size_per_loop" json:"batch_size_per_loop"`
	LoopTimeSeconds       int `mapstructure:"loop_time_seconds" json:"loop_time_seconds"`
	CancelUnfilledSeconds int `mapstructure:"cancel_unfilled_seconds" json:"cancel_unfilled_seconds"`

	CancelOnTPUnfavorable    bool `mapstructure:"cancel_on_tp_unfavorable" json:"cancel_on_tp_unfavorable"`
	CancelOnEntryUnfavorable bool `mapstructure:"cancel_on_entry_unfavorable" json:"cancel_on_entry_unfavorable"`
}

// MaxAmount — бюджет одного ордера в USDT.
func (c StrategyConfig) MaxAmount() float64 {
	if c.RateDivisor <= 0 {
		return 0
	}
	return c.MaxAllowedUsed / c.RateDivisor
}

// Validate проверяет границы при загрузке, а не в момент использования.
func (c StrategyConfig) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	switch c.Direction {
	case DirectionLong, DirectionShort, DirectionBoth:
	default:
		return fmt.Errorf("direction must be long/short/both, got %q", c.Direction)
	}
	if c.Leverage <= 0 {
		return fmt.Errorf("leverage must be positive, got %d", c.Leverage)
	}
	if c.LongSafetyLinePrice < 0 || c.ShortSafetyLinePrice < 0 {
		return fmt.Errorf("safety line prices must be non-negative")
	}
	if c.EntryPriceOffset < 0 || c.BatchOffset < 0 || c.TPPriceOffset < 0 || c.SLPriceOffset < 0 {
		return fmt.Errorf("price offsets must be non-negative")
	}
	if c.MaxAllowedUsed <= 0 {
		return fmt.Errorf("max_allowed_used must be positive, got %.4f", c.MaxAllowedUsed)
	}
	if c.RateDivisor < 1 {
		return fmt.Errorf("rate_divisor must be >= 1, got %.4f", c.RateDivisor)
	}
	if c.MinOrderAmount < 0 {
		return fmt.Errorf("min_order_amount must be non-negative")
	}
	if c.BatchSizePerLoop <= 0 {
		return fmt.Errorf("batch_size_per_loop must be positive, got %d", c.BatchSizePerLoop)
	}
	if c.LoopTimeSeconds <= 0 {
		return fmt.Errorf("loop_time_seconds must be positive, got %d", c.LoopTimeSeconds)
	}
	if c.CancelUnfilledSeconds <= 0 {
		return fmt.Errorf("cancel_unfilled_seconds must be positive, got %d", c.CancelUnfilledSeconds)
	}
	return nil
}
