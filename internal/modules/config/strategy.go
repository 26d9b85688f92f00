package config

import (
	"sync"

	"ladder_bot/internal/models"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// ErrEngineRunning — замена конфига запрошена, пока бот работает.
var ErrEngineRunning = errors.New("strategy config is locked while the bot is running")

// StrategyStore держит текущие параметры стратегии и умеет
// перечитывать/сохранять их через viper. Движок каждый тик берёт Snapshot.
type StrategyStore struct {
	mu      sync.RWMutex
	current models.StrategyConfig
	v       *viper.Viper
}

func NewStrategyStore(cfg *Config) (*StrategyStore, error) {
	v := viper.New()
	v.SetConfigFile(cfg.StrategyFile)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "read strategy config")
	}

	var sc models.StrategyConfig
	if err := v.Unmarshal(&sc); err != nil {
		return nil, errors.Wrap(err, "unmarshal strategy config")
	}
	if err := sc.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate strategy config")
	}

	return &StrategyStore{current: sc, v: v}, nil
}

// Snapshot — копия параметров; безопасно держать весь тик.
func (s *StrategyStore) Snapshot() models.StrategyConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Replace атомарно меняет параметры и сохраняет файл.
// Вызывающий обязан заранее убедиться, что бот остановлен (ConfigConflict).
func (s *StrategyStore) Replace(sc models.StrategyConfig) error {
	if err := sc.Validate(); err != nil {
		return errors.Wrap(err, "validate strategy config")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.v.Set("symbol", sc.Symbol)
	s.v.Set("direction", string(sc.Direction))
	s.v.Set("leverage", sc.Leverage)
	s.v.Set("long_safety_line_price", sc.LongSafetyLinePrice)
	s.v.Set("short_safety_line_price", sc.ShortSafetyLinePrice)
	s.v.Set("entry_price_offset", sc.EntryPriceOffset)
	s.v.Set("batch_offset", sc.BatchOffset)
	s.v.Set("tp_price_offset", sc.TPPriceOffset)
	s.v.Set("sl_price_offset", sc.SLPriceOffset)
	s.v.Set("max_allowed_used", sc.MaxAllowedUsed)
	s.v.Set("rate_divisor", sc.RateDivisor)
	s.v.Set("min_order_amount", sc.MinOrderAmount)
	s.v.Set("batch_size_per_loop", sc.BatchSizePerLoop)
	s.v.Set("loop_time_seconds", sc.LoopTimeSeconds)
	s.v.Set("cancel_unfilled_seconds", sc.CancelUnfilledSeconds)
	s.v.Set("cancel_on_tp_unfavorable", sc.CancelOnTPUnfavorable)
	s.v.Set("cancel_on_entry_unfavorable", sc.CancelOnEntryUnfavorable)

	if err := s.v.WriteConfig(); err != nil {
		return errors.Wrap(err, "write strategy config")
	}

	s.current = sc
	return nil
}
