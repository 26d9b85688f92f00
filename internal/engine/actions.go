package engine

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"ladder_bot/internal/helper"
	"ladder_bot/internal/models"
)

// EmergencyClose закрывает всё по символу маркетом и снимает все
// ордера. В IDLE это no-op без единого похода на биржу.
func (e *Engine) EmergencyClose(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.StateIdle {
		return nil
	}

	span := opentracing.StartSpan("emergency_close")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	cfg := e.cfgSrc.Snapshot()
	e.logf("warn", "🚨 аварийное закрытие")

	if err := e.closeAllOnExchange(ctx, cfg.Symbol); err != nil {
		e.logf("error", "emergency close: %v", err)
		return err
	}

	e.pending = nil
	e.position = nil
	e.exitReason = ""
	if e.state != models.StateStopped {
		e.state = models.StateIdle
	}

	if bal, err := readRetry(ctx, func(ctx context.Context) (models.Balance, error) {
		return e.gw.Balance(ctx)
	}); err == nil {
		e.balance = bal
	}

	e.emitTrades()
	e.emitPosition()
	e.emitAccount(cfg)
	e.notify.Sendf("🚨 Аварийное закрытие выполнено")
	return nil
}

// BatchModifyTPSL пересчитывает TP/SL от текущей цены и двигает живые
// условные ордера. Amend на месте; при отказе пара снимается и
// пересоздаётся целиком, позицию с одним плечом защиты не оставляем.
func (e *Engine) BatchModifyTPSL(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.StateInPosition {
		return ErrStateConflict
	}

	span := opentracing.StartSpan("batch_modify_tpsl")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	cfg := e.cfgSrc.Snapshot()
	pos := e.position

	market, err := readRetry(ctx, func(ctx context.Context) (float64, error) {
		return e.gw.LastPrice(ctx, cfg.Symbol)
	})
	if err != nil {
		return err
	}

	var tp, sl float64
	if pos.Side == models.SideLong {
		tp = helper.RoundDownToTick(market+cfg.TPPriceOffset, e.inst.TickSz)
		sl = helper.RoundUpToTick(market-cfg.SLPriceOffset, e.inst.TickSz)
	} else {
		tp = helper.RoundUpToTick(market-cfg.TPPriceOffset, e.inst.TickSz)
		sl = helper.RoundDownToTick(market+cfg.SLPriceOffset, e.inst.TickSz)
	}

	tpErr := e.gw.AmendAlgo(ctx, cfg.Symbol, pos.TPAlgoID, tp, true)
	slErr := e.gw.AmendAlgo(ctx, cfg.Symbol, pos.SLAlgoID, sl, false)
	if tpErr != nil || slErr != nil {
		e.logf("warn", "amend rejected (tp=%v sl=%v), пересоздаём пару", tpErr, slErr)
		if err := e.gw.CancelAlgo(ctx, cfg.Symbol, pos.TPAlgoID); err != nil {
			e.logf("error", "cancel TP algo: %v", err)
		}
		if err := e.gw.CancelAlgo(ctx, cfg.Symbol, pos.SLAlgoID); err != nil {
			e.logf("error", "cancel SL algo: %v", err)
		}
		pos.TPAlgoID, pos.SLAlgoID = "", ""
		pos.TP, pos.SL = tp, sl
		if !e.armExits(ctx, cfg, pos) {
			e.beginExit(ctx, cfg, "tp/sl rearm failed")
			return ErrRearmFailed
		}
	}

	pos.TP, pos.SL = tp, sl
	e.emitPosition()
	e.logf("info", "🔧 TP/SL обновлены от цены %.4f: tp=%.4f sl=%.4f", market, tp, sl)
	return nil
}

// BatchCancelOrders снимает все ордера по символу, не трогая позицию.
// Если при живой позиции снесло её TP/SL, пара немедленно
// перевыставляется; при неудаче эскалация до аварийного закрытия.
func (e *Engine) BatchCancelOrders(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.StateStopped {
		return ErrNotRunning
	}

	span := opentracing.StartSpan("batch_cancel_orders")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	cfg := e.cfgSrc.Snapshot()

	orders, err := readRetry(ctx, func(ctx context.Context) ([]models.OpenOrder, error) {
		return e.gw.OpenOrders(ctx, cfg.Symbol)
	})
	if err != nil {
		return err
	}
	for _, o := range orders {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelOrder(ctx, cfg.Symbol, o.OrdID)
		}); err != nil {
			e.logf("error", "batch cancel %s: %v", o.OrdID, err)
		}
	}

	algos, err := readRetry(ctx, func(ctx context.Context) ([]models.AlgoOrder, error) {
		return e.gw.OpenAlgoOrders(ctx, cfg.Symbol)
	})
	if err != nil {
		return err
	}
	for _, a := range algos {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelAlgo(ctx, cfg.Symbol, a.AlgoID)
		}); err != nil {
			e.logf("error", "batch cancel algo %s: %v", a.AlgoID, err)
		}
	}

	e.pending = nil
	e.emitTrades()
	e.logf("info", "🧹 все ордера сняты (%d лимиток, %d условных)", len(orders), len(algos))

	if e.position != nil {
		// позиция осталась голой, пару защиты возвращаем сразу
		e.position.TPAlgoID, e.position.SLAlgoID = "", ""
		if !e.armExits(ctx, cfg, e.position) {
			e.logf("error", "rearm after batch cancel failed, закрываем позицию")
			if err := e.closeAllOnExchange(ctx, cfg.Symbol); err != nil {
				return err
			}
			e.position = nil
			e.state = models.StateIdle
			e.emitPosition()
		}
		return nil
	}

	if e.state == models.StateEntering {
		e.state = models.StateIdle
	}
	return nil
}
