// @title           Droply API
// @version         1.0
// @description     Personal cloud drive: file/folder metadata registry over an external identity provider and media store.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"

	"droply-server/internal/api"
	"droply-server/internal/config"
	"droply-server/internal/database"
	"droply-server/internal/media"
	"droply-server/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "droply-server/docs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbpool, err := pgxpool.New(context.Background(), cfg.DB.Source)
	if err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}
	defer dbpool.Close()

	if err := dbpool.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to ping the database: %v", err)
	}
	log.Println("Connected to the database")

	hub := ws.NewHub()
	go hub.Run()

	store := database.NewStore(dbpool)
	mediaClient := media.NewClient(cfg.Media)
	server := api.NewServer(cfg, store, mediaClient, hub)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))
	r.Use(api.MetricsMiddleware)

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Get("/ws", server.ServeWsHandler)

	r.Get("/health", server.HealthCheckHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(server.AuthMiddleware)
		r.Get("/me", server.GetCurrentUserHandler)
		r.Get("/files", server.ListFilesHandler)
		r.Post("/folders/create", server.CreateFolderHandler)
		r.Patch("/files/{fileId}", server.UpdateFileHandler)
		r.Post("/files/{fileId}/star", server.StarFileHandler)
		r.Delete("/files/{fileId}/star", server.UnstarFileHandler)
		r.Post("/files/{fileId}/trash", server.TrashFileHandler)
		r.Post("/files/{fileId}/restore", server.RestoreFileHandler)
		r.Get("/starred", server.ListStarredHandler)
		r.Get("/trash", server.ListTrashHandler)
		r.Delete("/trash/empty", server.EmptyTrashHandler)
		r.Get("/upload-credentials", server.UploadCredentialsHandler)
		r.Post("/upload", server.UploadHandler)
		r.Get("/events", server.GetEventsHandler)
	})

	log.Printf("Starting server on %s", cfg.AppHost)
	if err := http.ListenAndServe(cfg.AppHost, r); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
