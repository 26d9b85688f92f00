package engine

import (
	"context"
	"time"

	"ladder_bot/internal/helper"
	"ladder_bot/internal/models"
)

// confirmFill опрашивает позиции и переводит ENTERING → IN_POSITION,
// когда биржа показывает ненулевой объём. Возвращает true, если тик
// на этом закончен (исполнение было).
func (e *Engine) confirmFill(ctx context.Context, cfg models.StrategyConfig) bool {
	positions, err := readRetry(ctx, func(ctx context.Context) ([]models.OpenPosition, error) {
		return e.gw.OpenPositions(ctx, cfg.Symbol)
	})
	if err != nil {
		e.logf("error", "positions poll: %v", err)
		return false
	}

	var filled *models.OpenPosition
	for i := range positions {
		if positions[i].Size > 0 {
			filled = &positions[i]
			break
		}
	}
	if filled == nil {
		return false
	}

	// исполнение завершает батч: остальные ступени снимаем безусловно
	for _, p := range e.pending {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelOrder(ctx, cfg.Symbol, p.OrderID)
		}); err != nil {
			e.logf("error", "cancel leftover %s: %v", p.OrderID, err)
		}
	}
	e.pending = nil
	e.emitTrades()

	// вход/объём/сторона только из ответа биржи, локальная заявка не в счёт
	entry, qty, side := filled.Entry, filled.Size, filled.PosSide
	var tp, sl float64
	if side == models.SideLong {
		tp = helper.RoundDownToTick(entry+cfg.TPPriceOffset, e.inst.TickSz)
		sl = helper.RoundUpToTick(entry-cfg.SLPriceOffset, e.inst.TickSz)
	} else {
		tp = helper.RoundUpToTick(entry-cfg.TPPriceOffset, e.inst.TickSz)
		sl = helper.RoundDownToTick(entry+cfg.SLPriceOffset, e.inst.TickSz)
	}

	e.logf("info", "✅ исполнение: %s %.4f x %.4f, tp=%.4f sl=%.4f", side, entry, qty, tp, sl)

	pos := &models.Position{
		Side:     side,
		Entry:    entry,
		Qty:      qty,
		TP:       tp,
		SL:       sl,
		OpenedAt: time.Now(),
	}
	if !e.armExits(ctx, cfg, pos) {
		// позицию без защиты не держим
		e.position = pos
		e.beginExit(ctx, cfg, "tp/sl attach failed")
		return true
	}

	e.position = pos
	e.state = models.StateInPosition
	e.emitPosition()
	e.notify.Sendf("✅ Позиция открыта: %s %.4f x %.4f\n🎯 TP %.4f / 🛑 SL %.4f", side, entry, qty, tp, sl)
	return true
}

// armExits ставит TP и SL как одну атомарную пару: если SL не встал,
// уже поставленный TP откатывается и пара пробуется заново. Успех
// только когда живы оба algoId.
func (e *Engine) armExits(ctx context.Context, cfg models.StrategyConfig, pos *models.Position) bool {
	for attempt := 0; attempt < writeAttempts; attempt++ {
		tpID, err := e.gw.PlaceSingleAlgo(ctx, cfg.Symbol, pos.Side, pos.Qty, pos.TP, true)
		if err != nil {
			e.logf("error", "place TP (attempt %d): %v", attempt+1, err)
			continue
		}
		slID, err := e.gw.PlaceSingleAlgo(ctx, cfg.Symbol, pos.Side, pos.Qty, pos.SL, false)
		if err != nil {
			e.logf("error", "place SL (attempt %d): %v", attempt+1, err)
			if cErr := e.gw.CancelAlgo(ctx, cfg.Symbol, tpID); cErr != nil {
				e.logf("error", "rollback TP %s: %v", tpID, cErr)
			}
			continue
		}
		pos.TPAlgoID, pos.SLAlgoID = tpID, slID
		return true
	}
	return false
}

// checkExits ищет срабатывание TP/SL тремя путями: позиция исчезла,
// условный ордер пропал из живых, цена пересекла триггер. При
// одновременном совпадении приоритет у SL.
func (e *Engine) checkExits(ctx context.Context, cfg models.StrategyConfig) {
	pos := e.position

	positions, err := readRetry(ctx, func(ctx context.Context) ([]models.OpenPosition, error) {
		return e.gw.OpenPositions(ctx, cfg.Symbol)
	})
	if err != nil {
		e.logf("error", "positions poll: %v", err)
		return
	}

	var live *models.OpenPosition
	for i := range positions {
		if positions[i].Size > 0 {
			live = &positions[i]
			break
		}
	}

	if live == nil {
		// позиции нет: смотрим, какой из условных ордеров исчез
		e.beginExit(ctx, cfg, e.resolveFlatReason(ctx, cfg))
		return
	}

	algos, err := readRetry(ctx, func(ctx context.Context) ([]models.AlgoOrder, error) {
		return e.gw.OpenAlgoOrders(ctx, cfg.Symbol)
	})
	if err == nil {
		tpLive, slLive := false, false
		for _, a := range algos {
			if a.AlgoID == pos.TPAlgoID {
				tpLive = true
			}
			if a.AlgoID == pos.SLAlgoID {
				slLive = true
			}
		}
		if !slLive {
			e.beginExit(ctx, cfg, "sl hit")
			return
		}
		if !tpLive {
			e.beginExit(ctx, cfg, "tp hit")
			return
		}
	} else {
		e.logf("error", "algo poll: %v", err)
	}

	// вторичный путь: пересечение цены, если опрос ордеров отстаёт
	px := e.snapshot.Price
	if pos.Side == models.SideLong {
		if px <= pos.SL {
			e.beginExit(ctx, cfg, "sl crossed")
			return
		}
		if px >= pos.TP {
			e.beginExit(ctx, cfg, "tp crossed")
			return
		}
	} else {
		if px >= pos.SL {
			e.beginExit(ctx, cfg, "sl crossed")
			return
		}
		if px <= pos.TP {
			e.beginExit(ctx, cfg, "tp crossed")
			return
		}
	}
}

// resolveFlatReason: позиция пропала без подтверждения — по остаткам
// условных ордеров решаем, TP это был или SL. При полной неясности
// считаем SL.
func (e *Engine) resolveFlatReason(ctx context.Context, cfg models.StrategyConfig) string {
	algos, err := e.gw.OpenAlgoOrders(ctx, cfg.Symbol)
	if err != nil {
		return "sl hit"
	}
	tpLive, slLive := false, false
	for _, a := range algos {
		if a.AlgoID == e.position.TPAlgoID {
			tpLive = true
		}
		if a.AlgoID == e.position.SLAlgoID {
			slLive = true
		}
	}
	if !slLive {
		return "sl hit"
	}
	if !tpLive && slLive {
		return "tp hit"
	}
	return "sl hit"
}

// beginExit переводит машину в EXITING и сразу пытается довести выход.
func (e *Engine) beginExit(ctx context.Context, cfg models.StrategyConfig, reason string) {
	e.state = models.StateExiting
	e.exitReason = reason
	e.logf("info", "🔚 выход из позиции: %s", reason)
	e.finishExit(ctx, cfg)
}

// finishExit: снять оба условных ордера, закрыть остаток маркетом,
// записать сделку, обновить баланс. Неудача оставляет EXITING, шаги
// повторяются на следующем тике.
func (e *Engine) finishExit(ctx context.Context, cfg models.StrategyConfig) {
	pos := e.position
	if pos == nil {
		e.state = models.StateIdle
		return
	}

	if pos.TPAlgoID != "" {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelAlgo(ctx, cfg.Symbol, pos.TPAlgoID)
		}); err != nil {
			e.logf("error", "exit: cancel TP algo: %v", err)
			return
		}
		pos.TPAlgoID = ""
	}
	if pos.SLAlgoID != "" {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelAlgo(ctx, cfg.Symbol, pos.SLAlgoID)
		}); err != nil {
			e.logf("error", "exit: cancel SL algo: %v", err)
			return
		}
		pos.SLAlgoID = ""
	}

	positions, err := readRetry(ctx, func(ctx context.Context) ([]models.OpenPosition, error) {
		return e.gw.OpenPositions(ctx, cfg.Symbol)
	})
	if err != nil {
		e.logf("error", "exit: positions poll: %v", err)
		return
	}
	for i := range positions {
		if positions[i].Size <= 0 {
			continue
		}
		p := positions[i]
		if err := writeRetry(ctx, func(ctx context.Context) error {
			_, err := e.gw.CloseMarket(ctx, cfg.Symbol, p.PosSide, p.Size)
			return err
		}); err != nil {
			e.logf("error", "exit: market close %.4f: %v", p.Size, err)
			return
		}
	}

	exit := e.snapshot.Price
	pnl := (exit - pos.Entry) * pos.Qty * e.inst.CtVal
	if pos.Side == models.SideShort {
		pnl = -pnl
	}
	if err := e.journal.RecordClose(ctx, models.ClosedTrade{
		Symbol:   cfg.Symbol,
		Side:     pos.Side,
		Entry:    pos.Entry,
		Exit:     exit,
		Qty:      pos.Qty,
		Pnl:      pnl,
		Reason:   e.exitReason,
		OpenedAt: pos.OpenedAt,
		ClosedAt: time.Now(),
	}); err != nil {
		e.logf("error", "journal: %v", err)
	}
	e.tradeCount++

	e.position = nil
	e.exitReason = ""
	e.state = models.StateIdle

	if bal, err := readRetry(ctx, func(ctx context.Context) (models.Balance, error) {
		return e.gw.Balance(ctx)
	}); err == nil {
		e.balance = bal
	}

	e.emitPosition()
	e.emitAccount(cfg)
	e.logf("info", "позиция закрыта, pnl=%.4f USDT, всего сделок %d", pnl, e.tradeCount)
	e.notify.Sendf("💰 Сделка закрыта, PnL %.4f USDT", pnl)
}

// closeAllOnExchange зачищает символ: маркет-закрытие всех позиций,
// снятие всех лимиток и условных ордеров.
func (e *Engine) closeAllOnExchange(ctx context.Context, instID string) error {
	positions, err := readRetry(ctx, func(ctx context.Context) ([]models.OpenPosition, error) {
		return e.gw.OpenPositions(ctx, instID)
	})
	if err != nil {
		return err
	}
	for i := range positions {
		if positions[i].Size <= 0 {
			continue
		}
		p := positions[i]
		if err := writeRetry(ctx, func(ctx context.Context) error {
			_, err := e.gw.CloseMarket(ctx, instID, p.PosSide, p.Size)
			return err
		}); err != nil {
			return err
		}
	}

	orders, err := readRetry(ctx, func(ctx context.Context) ([]models.OpenOrder, error) {
		return e.gw.OpenOrders(ctx, instID)
	})
	if err != nil {
		return err
	}
	for _, o := range orders {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelOrder(ctx, instID, o.OrdID)
		}); err != nil {
			return err
		}
	}

	algos, err := readRetry(ctx, func(ctx context.Context) ([]models.AlgoOrder, error) {
		return e.gw.OpenAlgoOrders(ctx, instID)
	})
	if err != nil {
		return err
	}
	for _, a := range algos {
		if err := writeRetry(ctx, func(ctx context.Context) error {
			return e.gw.CancelAlgo(ctx, instID, a.AlgoID)
		}); err != nil {
			return err
		}
	}
	return nil
}
