package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ggeraldodequeiroz/minhas-financas-backend/config"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/db"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/handlers"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/mq"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/services"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/storage"
	"github.com/ggeraldodequeiroz/minhas-financas-backend/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.EventBus
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	entryRepo := store.NewEntryRepository(dbConn)

	userService := services.NewUserService(userRepo, services.NewBcryptHasher())
	entryService := services.NewEntryService(entryRepo, userRepo)

	events, err := newEventBus(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if events != nil {
		entryService.WithEvents(events)
	}

	receipts, err := newReceiptStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if receipts != nil {
		if err := receipts.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
		entryService.WithReceipts(receipts)
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/entries", func(r chi.Router) {
		handlers.EntryRouter(r, entryService, userService, authMiddleware)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

func newEventBus(ctx context.Context, cfg config.Config) (*mq.EventBus, error) {
	switch cfg.MQ.Backend {
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.NewEventBus(backend, cfg.MQ.Channel), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.NewEventBus(backend, cfg.MQ.Channel), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}

func newReceiptStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Storage.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.Storage.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "", "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
