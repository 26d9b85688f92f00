package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"ladder_bot/internal/models"
	"ladder_bot/pkg/logger"
)

// Engine владеет всем изменяемым состоянием стратегии. Один мьютекс
// накрывает тик целиком, включая сетевые вызовы: одновременно в полёте
// не больше одной мутирующей операции.
type Engine struct {
	mu sync.Mutex

	gw      Gateway
	emitter Emitter
	journal Journal
	notify  Notifier
	cfgSrc  ConfigProvider

	state      models.EngineState
	pending    []*models.PendingEntry
	position   *models.Position
	snapshot   models.MarketSnapshot
	balance    models.Balance
	inst       models.Instrument
	tradeCount int64

	// причина выхода, переживает неудавшийся шаг EXITING до следующего тика
	exitReason string
}

func New(gw Gateway, emitter Emitter, journal Journal, notify Notifier, cfgSrc ConfigProvider) *Engine {
	return &Engine{
		gw:      gw,
		emitter: emitter,
		journal: journal,
		notify:  notify,
		cfgSrc:  cfgSrc,
		state:   models.StateStopped,
	}
}

// Start выводит движок из STOPPED: плечо, спецификация контракта, зачистка
// чужих позиций по символу, баланс. Любая ошибка откатывает в STOPPED.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != models.StateStopped {
		return ErrAlreadyRunning
	}

	cfg := e.cfgSrc.Snapshot()

	if err := writeRetry(ctx, func(ctx context.Context) error {
		return e.gw.SetLeverage(ctx, cfg.Symbol, cfg.Leverage)
	}); err != nil {
		return fmt.Errorf("start: set leverage: %w", err)
	}

	inst, err := readRetry(ctx, func(ctx context.Context) (models.Instrument, error) {
		return e.gw.GetInstrumentMeta(ctx, cfg.Symbol)
	})
	if err != nil {
		return fmt.Errorf("start: instrument meta: %w", err)
	}
	e.inst = inst

	// позиция, оставшаяся с прошлого запуска, не наша: закрываем сразу
	if err := e.closeAllOnExchange(ctx, cfg.Symbol); err != nil {
		return fmt.Errorf("start: close leftovers: %w", err)
	}

	bal, err := readRetry(ctx, func(ctx context.Context) (models.Balance, error) {
		return e.gw.Balance(ctx)
	})
	if err != nil {
		return fmt.Errorf("start: balance: %w", err)
	}
	e.balance = bal

	if n, err := e.journal.TotalTrades(ctx); err == nil {
		e.tradeCount = n
	}

	e.pending = nil
	e.position = nil
	e.state = models.StateIdle

	e.emitter.Emit(models.EventBotStatus, models.BotStatus{Running: true})
	e.emitAccount(cfg)
	e.logf("info", "🚀 bot started: %s lev=%dx balance=%.2f USDT", cfg.Symbol, cfg.Leverage, bal.TotalEq)
	e.notify.Sendf("🚀 Бот запущен: %s, плечо %dx", cfg.Symbol, cfg.Leverage)
	return nil
}

// Stop замораживает машину. Текущие pending/position остаются как есть,
// только для чтения; новых сетевых вызовов не будет.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.StateStopped {
		return ErrNotRunning
	}
	e.state = models.StateStopped
	e.emitter.Emit(models.EventBotStatus, models.BotStatus{Running: false})
	e.logf("info", "⏹ bot stopped")
	e.notify.Sendf("⏹ Бот остановлен")
	return nil
}

// Running сообщает, крутится ли цикл. Используется вебслоем для
// отклонения замены конфига на ходу.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != models.StateStopped
}

// Status — снимок для /api/status.
func (e *Engine) Status() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := map[string]any{
		"running":        e.state != models.StateStopped,
		"state":          e.state.String(),
		"pending_orders": len(e.pending),
		"in_position":    e.position != nil,
		"last_price":     e.snapshot.Price,
		"total_trades":   e.tradeCount,
	}
	if e.position != nil {
		st["position_entry_price"] = e.position.Entry
		st["position_qty"] = e.position.Qty
		st["current_take_profit"] = e.position.TP
		st["current_stop_loss"] = e.position.SL
	}
	return st
}

// Tick — один проход цикла: цена, затем диспетчеризация по состоянию.
// Ошибка чтения цены пропускает тик, состояние не меняется.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.StateStopped {
		return
	}

	span := opentracing.StartSpan("strategy_tick")
	defer span.Finish()
	ctx = opentracing.ContextWithSpan(ctx, span)

	cfg := e.cfgSrc.Snapshot()

	px, err := readRetry(ctx, func(ctx context.Context) (float64, error) {
		return e.gw.LastPrice(ctx, cfg.Symbol)
	})
	if err != nil {
		e.logf("error", "tick: price poll failed, skipping: %v", err)
		return
	}
	e.snapshot = models.MarketSnapshot{Price: px, At: time.Now()}
	span.SetTag("price", px)
	span.SetTag("state", e.state.String())

	switch e.state {
	case models.StateIdle:
		e.planBatch(ctx, cfg)
	case models.StateEntering:
		if e.confirmFill(ctx, cfg) {
			return
		}
		e.monitorPending(ctx, cfg)
	case models.StateInPosition:
		e.checkExits(ctx, cfg)
	case models.StateExiting:
		// прошлый тик не довёл выход до конца, добиваем
		e.finishExit(ctx, cfg)
	}
}

// RefreshAccount обновляет баланс и шлёт account_update. Дёргается
// отдельным таймером, реже основного цикла.
func (e *Engine) RefreshAccount(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == models.StateStopped {
		return
	}
	bal, err := readRetry(ctx, func(ctx context.Context) (models.Balance, error) {
		return e.gw.Balance(ctx)
	})
	if err != nil {
		e.logf("error", "account refresh failed: %v", err)
		return
	}
	e.balance = bal
	e.emitAccount(e.cfgSrc.Snapshot())
}

// usedAmount — маржа, занятая позицией и висящими лимитками, в USDT.
func (e *Engine) usedAmount(cfg models.StrategyConfig) float64 {
	lev := float64(cfg.Leverage)
	if lev <= 0 {
		lev = 1
	}
	var used float64
	if e.position != nil {
		used += e.position.Entry * e.position.Qty * e.inst.CtVal / lev
	}
	for _, p := range e.pending {
		used += p.LimitPrice * p.Qty * e.inst.CtVal / lev
	}
	return used
}

func (e *Engine) emitAccount(cfg models.StrategyConfig) {
	used := e.usedAmount(cfg)
	e.emitter.Emit(models.EventAccountUpdate, models.AccountUpdate{
		TotalBalance:     e.balance.TotalEq,
		AvailableBalance: e.balance.AvailEq,
		MaxAllowedUsed:   cfg.MaxAllowedUsed,
		MaxAmount:        cfg.MaxAmount(),
		UsedAmount:       used,
		RemainingAmount:  cfg.MaxAllowedUsed - used,
		TotalTrades:      e.tradeCount,
	})
}

func (e *Engine) emitPosition() {
	upd := models.PositionUpdate{}
	if e.position != nil {
		upd = models.PositionUpdate{
			InPosition: true,
			EntryPrice: e.position.Entry,
			Qty:        e.position.Qty,
			TakeProfit: e.position.TP,
			StopLoss:   e.position.SL,
		}
	}
	e.emitter.Emit(models.EventPositionUpdate, upd)
}

func (e *Engine) emitTrades() {
	list := make([]models.PendingEntry, 0, len(e.pending))
	for _, p := range e.pending {
		list = append(list, *p)
	}
	e.emitter.Emit(models.EventTradesUpdate, models.TradesUpdate{Trades: list})
}

// logf пишет в zap и дублирует строку в консоль дашборда.
func (e *Engine) logf(level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if level == "error" {
		logger.Error("%s", msg)
	} else {
		logger.Info("%s", msg)
	}
	e.emitter.Emit(models.EventConsoleLog, models.ConsoleLog{
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
		Level:     level,
		Message:   msg,
	})
}
