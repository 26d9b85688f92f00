package service

import (
	"context"
	"log"
	"net/http"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"

	"ladder_bot/internal/models"
)

const consoleBufSize = 500

// Commands — то, что дашборд может попросить у движка.
type Commands interface {
	Start(ctx context.Context) error
	Stop() error
	EmergencyClose(ctx context.Context) error
	BatchModifyTPSL(ctx context.Context) error
	BatchCancelOrders(ctx context.Context) error
}

type envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type inbound struct {
	Command string `json:"command"`
}

// Hub раздаёт события всем подключённым дашбордам и принимает команды.
// Последние 500 строк консоли хранятся и проигрываются новому клиенту.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	console []models.ConsoleLog

	upgrader websocket.Upgrader
	cmds     Commands
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// SetCommands подключает движок после сборки графа: хаб нужен движку
// как эмиттер, движок хабу как исполнитель команд.
func (h *Hub) SetCommands(cmds Commands) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cmds = cmds
}

// Emit шлёт событие всем клиентам. Мёртвые соединения выбрасываются.
func (h *Hub) Emit(event string, payload any) {
	raw, err := sonic.Marshal(envelope{Event: event, Data: payload})
	if err != nil {
		log.Printf("[WS] marshal %s: %v", event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if event == models.EventConsoleLog {
		if cl, ok := payload.(models.ConsoleLog); ok {
			h.console = append(h.console, cl)
			if len(h.console) > consoleBufSize {
				h.console = h.console[len(h.console)-consoleBufSize:]
			}
		}
	}

	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
			log.Printf("[WS] write failed, dropping client: %v", err)
			_ = c.Close()
			delete(h.clients, c)
		}
	}
}

// HandleWS апгрейдит соединение, проигрывает буфер консоли и читает
// команды до разрыва.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WS] upgrade: %v", err)
		return
	}

	// Реплей и регистрация под одним мьютексом: Emit пишет клиентам
	// под h.mu, второго писателя у conn быть не должно.
	h.mu.Lock()
	for _, cl := range h.console {
		raw, _ := sonic.Marshal(envelope{Event: models.EventConsoleLog, Data: cl})
		if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
			h.mu.Unlock()
			_ = conn.Close()
			return
		}
	}
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	log.Printf("[WS] client connected (%s)", r.RemoteAddr)

	go h.readLoop(conn)
}

func (h *Hub) readLoop(conn *websocket.Conn) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		_ = conn.Close()
		log.Printf("[WS] client disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg inbound
		if err := sonic.Unmarshal(raw, &msg); err != nil {
			log.Printf("[WS] bad message: %v", err)
			continue
		}
		h.dispatch(msg.Command)
	}
}

func (h *Hub) dispatch(command string) {
	h.mu.Lock()
	cmds := h.cmds
	h.mu.Unlock()
	if cmds == nil {
		log.Printf("[WS] command %q before engine is wired", command)
		return
	}

	ctx := context.Background()

	var err error
	switch command {
	case "start":
		err = cmds.Start(ctx)
	case "stop":
		err = cmds.Stop()
	case "emergency_close":
		err = cmds.EmergencyClose(ctx)
	case "batch_modify_tpsl":
		err = cmds.BatchModifyTPSL(ctx)
	case "batch_cancel_orders":
		err = cmds.BatchCancelOrders(ctx)
	default:
		log.Printf("[WS] unknown command %q", command)
		return
	}
	if err != nil {
		log.Printf("[WS] command %s: %v", command, err)
	}
}
