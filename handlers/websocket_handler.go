package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/soridam/contest-system/live"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin по списку
		// доверенных доменов фронтенда.
		return true
	},
}

type WebSocketHandler struct {
	hub    *live.Hub
	logger *slog.Logger
}

func NewWebSocketHandler(hub *live.Hub, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// ServeWs обрабатывает WebSocket-подключения к комнате конкурса.
// Клиент подключается к /ws/contests/{contestID} и получает уведомления
// об изменении коллекций, после чего перечитывает нужные списки по HTTP.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	contestID := chi.URLParam(r, "contestID")
	if contestID == "" {
		http.Error(w, "Missing contestID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP-ошибку клиенту.
		h.logger.Warn("failed to upgrade websocket connection",
			slog.String("contest_id", contestID), slog.Any("error", err))
		return
	}

	client := &live.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: live.RoomForContest(contestID),
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
