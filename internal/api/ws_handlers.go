package api

import (
	"log"
	"net/http"

	"droply-server/internal/auth"
	"droply-server/internal/ws"
)

func (s *Server) ServeWsHandler(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		log.Println("WS connection attempt without token")
		return
	}

	identity, err := auth.VerifyToken(tokenString, s.config.Auth.Secret)
	if err != nil {
		log.Printf("WS connection attempt with invalid token: %v", err)
		return
	}

	conn, err := ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("WebSocket upgrade error:", err)
		return
	}

	client := ws.NewClient(s.hub, conn, identity.UserID)
	s.hub.Register <- client

	go client.ReadPump()
	go client.WritePump()
}
