package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder_bot/internal/modules/config"
)

type fakeStatus struct {
	running bool
}

func (f fakeStatus) Status() map[string]any {
	return map[string]any{"running": f.running, "state": "IDLE"}
}

func (f fakeStatus) Running() bool { return f.running }

const strategyYAML = `symbol: "BTC-USDT-SWAP"
direction: "both"
leverage: 10
long_safety_line_price: 100
short_safety_line_price: 50
entry_price_offset: 5
batch_offset: 2
tp_price_offset: 10
sl_price_offset: 5
max_allowed_used: 100
rate_divisor: 4
min_order_amount: 5
batch_size_per_loop: 3
loop_time_seconds: 5
cancel_unfilled_seconds: 60
cancel_on_tp_unfavorable: true
cancel_on_entry_unfavorable: true
`

func newStore(t *testing.T) *config.StrategyStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strategy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(strategyYAML), 0o644))

	cfg := &config.Config{StrategyFile: path}
	store, err := config.NewStrategyStore(cfg)
	require.NoError(t, err)
	return store
}

func TestConfigGet(t *testing.T) {
	mux := NewMux(NewHub(), newStore(t), fakeStatus{})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConfigPostRejectedWhileRunning(t *testing.T) {
	store := newStore(t)
	mux := NewMux(NewHub(), store, fakeStatus{running: true})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	before := store.Snapshot()

	body := strings.NewReader(`{"symbol":"ETH-USDT-SWAP","direction":"long","leverage":5,
		"long_safety_line_price":10,"short_safety_line_price":5,
		"entry_price_offset":1,"batch_offset":1,"tp_price_offset":2,"sl_price_offset":1,
		"max_allowed_used":50,"rate_divisor":2,"min_order_amount":1,
		"batch_size_per_loop":2,"loop_time_seconds":3,"cancel_unfilled_seconds":30,
		"cancel_on_tp_unfavorable":false,"cancel_on_entry_unfavorable":false}`)
	resp, err := http.Post(srv.URL+"/api/config", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	// параметры не тронуты
	assert.Equal(t, before, store.Snapshot())
}

func TestConfigPostAppliedWhenStopped(t *testing.T) {
	store := newStore(t)
	mux := NewMux(NewHub(), store, fakeStatus{running: false})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	body := strings.NewReader(`{"symbol":"ETH-USDT-SWAP","direction":"long","leverage":5,
		"long_safety_line_price":10,"short_safety_line_price":5,
		"entry_price_offset":1,"batch_offset":1,"tp_price_offset":2,"sl_price_offset":1,
		"max_allowed_used":50,"rate_divisor":2,"min_order_amount":1,
		"batch_size_per_loop":2,"loop_time_seconds":3,"cancel_unfilled_seconds":30,
		"cancel_on_tp_unfavorable":false,"cancel_on_entry_unfavorable":false}`)
	resp, err := http.Post(srv.URL+"/api/config", "application/json", body)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ETH-USDT-SWAP", store.Snapshot().Symbol)
	assert.Equal(t, 5, store.Snapshot().Leverage)
}

func TestConfigPostInvalidRejected(t *testing.T) {
	store := newStore(t)
	mux := NewMux(NewHub(), store, fakeStatus{running: false})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/config", "application/json",
		strings.NewReader(`{"symbol":""}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestStatusEndpoint(t *testing.T) {
	mux := NewMux(NewHub(), newStore(t), fakeStatus{running: true})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
