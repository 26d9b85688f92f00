package service

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ladder_bot/internal/models"
)

func TestConsoleRingBufferCapped(t *testing.T) {
	h := NewHub()
	for i := 0; i < consoleBufSize+50; i++ {
		h.Emit(models.EventConsoleLog, models.ConsoleLog{
			Timestamp: "now", Level: "info", Message: fmt.Sprintf("line %d", i),
		})
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	require.Len(t, h.console, consoleBufSize)
	// остались именно последние строки
	assert.Equal(t, "line 50", h.console[0].Message)
}

func TestEmitReachesConnectedClient(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(newTestMux(h))
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	defer conn.Close()

	// дождаться регистрации клиента
	waitClients(t, h, 1)

	h.Emit(models.EventBotStatus, models.BotStatus{Running: true})

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var env envelope
	require.NoError(t, sonic.Unmarshal(raw, &env))
	assert.Equal(t, models.EventBotStatus, env.Event)
}

func TestConsoleReplayOnConnect(t *testing.T) {
	h := NewHub()
	h.Emit(models.EventConsoleLog, models.ConsoleLog{Timestamp: "t1", Level: "info", Message: "first"})
	h.Emit(models.EventConsoleLog, models.ConsoleLog{Timestamp: "t2", Level: "info", Message: "second"})

	srv := httptest.NewServer(newTestMux(h))
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	defer conn.Close()

	for _, want := range []string{"first", "second"} {
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var env envelope
		require.NoError(t, sonic.Unmarshal(raw, &env))
		require.Equal(t, models.EventConsoleLog, env.Event)
		data, _ := sonic.Marshal(env.Data)
		assert.Contains(t, string(data), want)
	}
}

// Подключение на полном буфере консоли при непрерывном Emit: у
// соединения не должно оказаться двух писателей, все кадры целы.
func TestConnectDuringEmitStorm(t *testing.T) {
	h := NewHub()
	for i := 0; i < consoleBufSize; i++ {
		h.Emit(models.EventConsoleLog, models.ConsoleLog{
			Timestamp: "t", Level: "info", Message: fmt.Sprintf("line %d", i),
		})
	}

	srv := httptest.NewServer(newTestMux(h))
	defer srv.Close()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			h.Emit(models.EventBotStatus, models.BotStatus{Running: i%2 == 0})
		}
	}()

	conn := dialWS(t, srv.URL)

	// реплей плюс хвост живого потока, каждый кадр валидный JSON
	for i := 0; i < consoleBufSize+100; i++ {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var env envelope
		require.NoError(t, sonic.Unmarshal(raw, &env))
		require.NotEmpty(t, env.Event)
	}

	// сначала закрыть соединение: Emit не должен зависнуть на записи
	close(stop)
	_ = conn.Close()
	wg.Wait()
}

type recordingCommands struct {
	mu    sync.Mutex
	calls []string
}

func (r *recordingCommands) add(name string) error {
	r.mu.Lock()
	r.calls = append(r.calls, name)
	r.mu.Unlock()
	return nil
}

func (r *recordingCommands) Start(context.Context) error             { return r.add("start") }
func (r *recordingCommands) Stop() error                             { return r.add("stop") }
func (r *recordingCommands) EmergencyClose(context.Context) error    { return r.add("emergency_close") }
func (r *recordingCommands) BatchModifyTPSL(context.Context) error   { return r.add("batch_modify_tpsl") }
func (r *recordingCommands) BatchCancelOrders(context.Context) error { return r.add("batch_cancel_orders") }

func TestCommandDispatch(t *testing.T) {
	h := NewHub()
	rec := &recordingCommands{}
	h.SetCommands(rec)

	srv := httptest.NewServer(newTestMux(h))
	defer srv.Close()

	conn := dialWS(t, srv.URL)
	defer conn.Close()
	waitClients(t, h, 1)

	for _, cmd := range []string{"start", "emergency_close", "batch_cancel_orders", "stop"} {
		require.NoError(t, conn.WriteJSON(inbound{Command: cmd}))
	}

	require.Eventually(t, func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.calls) == 4
	}, 2*time.Second, 10*time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"start", "emergency_close", "batch_cancel_orders", "stop"}, rec.calls)
}

func newTestMux(h *Hub) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleWS)
	return mux
}

func dialWS(t *testing.T, serverURL string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(serverURL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		h.mu.Lock()
		defer h.mu.Unlock()
		return len(h.clients) == n
	}, 2*time.Second, 10*time.Millisecond)
}
