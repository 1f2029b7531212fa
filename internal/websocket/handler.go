package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"
)

// TopicResolver picks the topic for an incoming connection. ok=false rejects it.
type TopicResolver func(r *http.Request) (topic string, ok bool)

// HandleWebSocket upgrades connections and runs them as Hub clients on the
// topic chosen by resolve.
func HandleWebSocket(hub *Hub, resolve TopicResolver, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topic, ok := resolve(r)
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}

		NewClient(hub, conn, topic).Run(r.Context())
	}
}
