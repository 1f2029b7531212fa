package handler

import (
	"net/http"

	"github.com/dukerupert/taskchamp/internal/middleware"
	"github.com/dukerupert/taskchamp/internal/websocket"
)

// TopicResolver subscribes signed-in pages to their admin topic and share
// pages (?share=<id>) to that member's topic.
func TopicResolver(gw Gateway) websocket.TopicResolver {
	return func(r *http.Request) (string, bool) {
		if c, err := r.Cookie(middleware.SessionCookieName); err == nil && c.Value != "" {
			if ac, err := gw.Session(r.Context(), c.Value); err == nil {
				return websocket.AdminTopic(ac.AdminID), true
			}
		}
		if shareID := r.URL.Query().Get("share"); shareID != "" {
			if m, err := gw.GetMemberByShareID(r.Context(), shareID); err == nil {
				return websocket.ShareTopic(m.ShareID), true
			}
		}
		return "", false
	}
}
