package api

import (
	"droply-server/internal/config"
	"droply-server/internal/database"
	"droply-server/internal/media"
	"droply-server/internal/ws"
)

type Server struct {
	config *config.Config
	store  *database.Store
	media  *media.Client
	hub    *ws.Hub
}

func NewServer(cfg *config.Config, store *database.Store, mediaClient *media.Client, hub *ws.Hub) *Server {
	return &Server{
		config: cfg,
		store:  store,
		media:  mediaClient,
		hub:    hub,
	}
}
