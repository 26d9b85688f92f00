package service

import (
	"encoding/json"
	"net/http"

	"ladder_bot/internal/models"
	"ladder_bot/internal/modules/config"
)

// StatusSource — снимки состояния движка для HTTP-ручек.
type StatusSource interface {
	Status() map[string]any
	Running() bool
}

func NewMux(hub *Hub, store *config.StrategyStore, status StatusSource) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", hub.HandleWS)

	mux.HandleFunc("/api/status", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(status.Status())
	})

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(store.Snapshot())

		case http.MethodPost:
			// менять параметры под работающим циклом нельзя
			if status.Running() {
				http.Error(w, "bot is running, stop it before changing config", http.StatusConflict)
				return
			}
			var sc models.StrategyConfig
			if err := json.NewDecoder(r.Body).Decode(&sc); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := store.Replace(sc); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})

		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})

	return mux
}
