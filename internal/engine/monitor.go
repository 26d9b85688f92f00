package engine

import (
	"context"
	"time"

	"ladder_bot/internal/models"
)

// cancelReason возвращает причину снятия висящей лимитки или пустую строку.
// Проверки невыгодной цены идут раньше таймаута и работают на каждом тике.
func cancelReason(cfg models.StrategyConfig, p *models.PendingEntry, market float64, now time.Time) string {
	if cfg.CancelOnTPUnfavorable {
		// TP, который получился бы из этой ступени, уже не по ту сторону рынка
		if p.Side == models.SideLong {
			if p.LimitPrice+cfg.TPPriceOffset <= market {
				return "tp unfavorable"
			}
		} else {
			if p.LimitPrice-cfg.TPPriceOffset >= market {
				return "tp unfavorable"
			}
		}
	}
	if cfg.CancelOnEntryUnfavorable {
		if p.Side == models.SideLong && p.LimitPrice > market {
			return "entry unfavorable"
		}
		if p.Side == models.SideShort && p.LimitPrice < market {
			return "entry unfavorable"
		}
	}
	if now.Sub(p.PlacedAt) >= time.Duration(cfg.CancelUnfilledSeconds)*time.Second {
		return "timeout"
	}
	return ""
}

// monitorPending снимает лимитки по таймауту и невыгодной цене.
// Ордер выбывает из трекинга только после подтверждённого снятия:
// при ошибке шлюза остаётся до следующего тика.
func (e *Engine) monitorPending(ctx context.Context, cfg models.StrategyConfig) {
	if len(e.pending) == 0 {
		e.state = models.StateIdle
		return
	}

	now := time.Now()
	market := e.snapshot.Price
	kept := e.pending[:0]
	changed := false

	for _, p := range e.pending {
		reason := cancelReason(cfg, p, market, now)
		if reason == "" {
			kept = append(kept, p)
			continue
		}

		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelOrder(ctx, cfg.Symbol, p.OrderID)
		}); err != nil {
			e.logf("error", "cancel %s (%s): %v", p.OrderID, reason, err)
			kept = append(kept, p)
			continue
		}
		changed = true
		e.logf("info", "❌ лимитка %s снята: %s (px=%.4f)", p.OrderID, reason, p.LimitPrice)
	}
	e.pending = kept

	if changed {
		e.emitTrades()
	}
	if len(e.pending) == 0 {
		// батч рассосался без исполнения
		e.state = models.StateIdle
		e.logf("info", "все лимитки сняты, возвращаемся в ожидание сигнала")
	}
}
