package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"testing"
	"time"

	"droply-server/internal/auth"
	"droply-server/internal/config"
	"droply-server/internal/database"
	"droply-server/internal/media"
	"droply-server/internal/ws"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

var testServer *Server
var testToken string

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:14-alpine",
		postgres.WithDatabase("test_api_db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		log.Fatalf("Could not start postgres: %s", err)
	}
	defer pgContainer.Terminate(ctx)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		log.Fatalf("Could not get connection string: %s", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Could not connect to database: %s", err)
	}

	schema, err := os.ReadFile("../../db/init.sql")
	if err != nil {
		log.Fatalf("Could not read schema file: %s", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("Could not apply schema: %s", err)
	}

	cfg := &config.Config{
		Auth: config.AuthConfig{Secret: "api_test_secret"},
		Media: config.MediaConfig{
			URLEndpoint:     "https://ik.imagekit.io/testdrive",
			PublicKey:       "public_test",
			PrivateKey:      "private_test",
			TokenTTLSeconds: 600,
		},
	}

	hub := ws.NewHub()
	go hub.Run()

	store := database.NewStore(pool)
	testServer = NewServer(cfg, store, media.NewClient(cfg.Media), hub)

	testToken, err = auth.SignToken("user_api_test", cfg.Auth.Secret, time.Hour)
	if err != nil {
		log.Fatalf("Could not sign token: %s", err)
	}

	os.Exit(m.Run())
}

func requestAs(r *http.Request, userID string) *http.Request {
	identity := &auth.Identity{UserID: userID}
	return r.WithContext(context.WithValue(r.Context(), identityContextKey, identity))
}
