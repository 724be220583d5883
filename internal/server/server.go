package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fleetops/apiserver/config"
	"github.com/fleetops/apiserver/internal/db"
	"github.com/fleetops/apiserver/internal/handlers"
	"github.com/fleetops/apiserver/internal/mq"
	"github.com/fleetops/apiserver/internal/services"
	"github.com/fleetops/apiserver/internal/storage"
	"github.com/fleetops/apiserver/internal/store"
	"github.com/fleetops/apiserver/types"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *mq.MQ
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

	objectStore, err := newObjectStorage(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	bus, err := newEventBus(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	entityRepo := store.NewEntityRepository(dbConn)
	vehicleRepo := store.NewVehicleRepository(dbConn)
	assignmentRepo := store.NewAssignmentRepository(dbConn)
	tripRepo := store.NewTripRepository(dbConn)
	fuelRepo := store.NewFuelLogRepository(dbConn)
	reportRepo := store.NewReportRepository(dbConn)

	var publisher services.EventPublisher
	if bus != nil {
		publisher = bus
	}

	userService := services.NewUserService(userRepo)
	entityService := services.NewEntityService(entityRepo)
	vehicleService := services.NewVehicleService(vehicleRepo)
	assignmentService := services.NewAssignmentService(assignmentRepo, vehicleRepo, userRepo)
	tripService := services.NewTripService(tripRepo, assignmentRepo, vehicleRepo, publisher)
	fuelService := services.NewFuelService(fuelRepo, vehicleRepo)
	reportService := services.NewReportService(reportRepo, tripRepo, fuelRepo)

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
	router.Route("/mobile/driver", func(r chi.Router) {
		r.Use(authMiddleware)
		handlers.DriverRouter(r, tripService, assignmentService, fuelService)
	})
	router.Route("/mobile/supervisor", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(handlers.RequireRoles(types.RoleSupervisor, types.RoleAdmin, types.RoleSuperAdmin))
		handlers.SupervisorRouter(r, assignmentService)
	})
	router.Route("/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(handlers.RequireRoles(types.RoleAdmin, types.RoleSuperAdmin))
		r.Route("/users", func(r chi.Router) {
			handlers.UserRouter(r, userService)
		})
		r.Route("/entities", func(r chi.Router) {
			handlers.EntityRouter(r, entityService)
		})
		r.Route("/vehicles", func(r chi.Router) {
			handlers.VehicleRouter(r, vehicleService)
		})
		r.Route("/reports", func(r chi.Router) {
			handlers.ReportRouter(r, reportService)
		})
	})
	router.With(authMiddleware).Post("/upload", handlers.NewUploadHandler(objectStore).Upload)

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
		bus:        bus,
	}, nil
}

// newObjectStorage builds the configured receipt image backend. An empty
// backend disables uploads and returns nil.
func newObjectStorage(ctx context.Context, cfg config.StorageConfig) (*storage.Storage, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "minio":
		client, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("failed to init minio storage: %w", err)
		}
		store := storage.NewStorage(client)
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure storage bucket: %w", err)
		}
		return store, nil
	case "gcs":
		client, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, fmt.Errorf("failed to init gcs storage: %w", err)
		}
		return storage.NewStorage(client), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// newEventBus builds the configured trip event bus. An empty backend disables
// publishing and returns nil.
func newEventBus(ctx context.Context, cfg config.MQConfig) (*mq.MQ, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "rabbitmq":
		client, err := mq.NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("failed to init rabbitmq: %w", err)
		}
		return mq.New(client), nil
	case "pubsub":
		client, err := mq.NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("failed to init pubsub: %w", err)
		}
		return mq.New(client), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.Backend)
	}
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
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
