package engine

import "github.com/pkg/errors"

var (
	// ErrStateConflict — операция несовместима с текущим состоянием машины.
	ErrStateConflict = errors.New("engine: state conflict")

	// ErrAlreadyRunning — повторный start без stop.
	ErrAlreadyRunning = errors.New("engine: already running")

	// ErrNotRunning — stop/тик при остановленном движке.
	ErrNotRunning = errors.New("engine: not running")

	// ErrRearmFailed — не удалось переставить TP/SL, позиция закрыта защитно.
	ErrRearmFailed = errors.New("engine: tp/sl rearm failed, position closed")
)
