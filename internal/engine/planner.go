package engine

import (
	"context"
	"time"

	"ladder_bot/internal/helper"
	"ladder_bot/internal/models"
)

// signalSide проверяет линии безопасности против текущей цены.
// Лонг: цена дошла до long_safety_line сверху, шорт зеркально.
// Если сработали обе, решает фильтр direction.
func signalSide(cfg models.StrategyConfig, price float64) (models.Side, bool) {
	longFires := cfg.LongSafetyLinePrice > 0 && price >= cfg.LongSafetyLinePrice && cfg.Direction.AllowsLong()
	shortFires := cfg.ShortSafetyLinePrice > 0 && price <= cfg.ShortSafetyLinePrice && cfg.Direction.AllowsShort()

	switch {
	case longFires && shortFires:
		if cfg.Direction == models.DirectionShort {
			return models.SideShort, true
		}
		return models.SideLong, true
	case longFires:
		return models.SideLong, true
	case shortFires:
		return models.SideShort, true
	}
	return "", false
}

// batchPrices — цены лесенки: первая ступень отстоит от рынка на
// entry_price_offset, каждая следующая на batch_offset дальше от рынка.
func batchPrices(cfg models.StrategyConfig, side models.Side, market, tickSz float64) []float64 {
	prices := make([]float64, 0, cfg.BatchSizePerLoop)
	for k := 0; k < cfg.BatchSizePerLoop; k++ {
		step := cfg.EntryPriceOffset + float64(k)*cfg.BatchOffset
		var px float64
		if side == models.SideLong {
			px = helper.RoundDownToTick(market-step, tickSz)
		} else {
			px = helper.RoundUpToTick(market+step, tickSz)
		}
		prices = append(prices, px)
	}
	return prices
}

// orderQty переводит бюджет одного ордера в контракты.
func orderQty(amount, price, ctVal, lotSz float64) float64 {
	if price <= 0 || ctVal <= 0 {
		return 0
	}
	return helper.RoundDownToLot(amount/(price*ctVal), lotSz)
}

// planBatch ставит лесенку лимиток при сработавшем сигнале.
// Падение отдельной ступени не откатывает уже поставленные:
// частичный батч легален. ENTERING только если встала хотя бы одна.
func (e *Engine) planBatch(ctx context.Context, cfg models.StrategyConfig) {
	side, ok := signalSide(cfg, e.snapshot.Price)
	if !ok {
		return
	}

	amount := cfg.MaxAmount()
	if amount < cfg.MinOrderAmount {
		e.logf("warn", "⚠️ сумма ордера %.2f USDT ниже минимума %.2f, батч не ставим", amount, cfg.MinOrderAmount)
		return
	}

	prices := batchPrices(cfg, side, e.snapshot.Price, e.inst.TickSz)
	placed := 0
	for _, px := range prices {
		qty := orderQty(amount, px, e.inst.CtVal, e.inst.LotSz)
		if qty < e.inst.MinSz {
			e.logf("warn", "⚠️ qty %.8f < minSz %.8f по цене %.4f, ступень пропущена", qty, e.inst.MinSz, px)
			continue
		}

		var ordID string
		err := writeRetry(ctx, func(ctx context.Context) error {
			var err error
			ordID, err = e.gw.PlaceLimit(ctx, cfg.Symbol, side, px, qty)
			return err
		})
		if err != nil {
			e.logf("error", "place limit %s %.4f x %.4f: %v", side, px, qty, err)
			continue
		}

		e.pending = append(e.pending, &models.PendingEntry{
			OrderID:    ordID,
			Side:       side,
			LimitPrice: px,
			Qty:        qty,
			PlacedAt:   time.Now(),
		})
		placed++
		e.logf("info", "📥 лимитка %s: %.4f x %.4f (ordId=%s)", side, px, qty, ordID)
	}

	if placed > 0 {
		e.state = models.StateEntering
		e.emitTrades()
		e.logf("info", "сигнал %s при цене %.4f: поставлено %d/%d", side, e.snapshot.Price, placed, len(prices))
	}
}
