package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inventario/internal/config"
	"inventario/internal/form"
	"inventario/internal/handlers"
	"inventario/internal/images"
	"inventario/internal/middleware"
	"inventario/internal/models"
	"inventario/internal/repositories"
	"inventario/internal/services"
	"inventario/internal/store"
	"inventario/internal/viewmodel"
	"inventario/pkg/metrics"
	"inventario/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Deps are the collaborators the HTTP app is built from.
type Deps struct {
	Auth        *services.AuthService
	Catalog     *services.CatalogService
	Sessions    *viewmodel.Sessions
	Form        *form.Controller
	LocalImages *images.LocalStore
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	StoreDriver string
	Events      bool
}

// NewApp builds the fiber app and its routes.
func NewApp(d Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "inventario",
		BodyLimit:    10 * 1024 * 1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestIDHandler())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:request_id} ${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(cors.New())
	app.Use(middleware.Metrics(d.Metrics))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"store":    d.StoreDriver,
			"events":   d.Events,
			"sessions": d.Sessions.Len(),
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(d.Metrics.Handler()))

	apiV1 := app.Group("/api/v1")
	handlers.NewAuthHandler(d.Auth, d.Logger).RegisterRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(d.Auth, d.Logger))
	handlers.NewCatalogHandler(d.Sessions, d.Logger).RegisterRoutes(protected)
	handlers.NewProductHandler(d.Catalog, d.Form, d.Sessions, d.LocalImages, d.Logger).RegisterRoutes(protected)
	handlers.NewReferenceHandler(d.Catalog, d.Sessions, d.Logger).RegisterRoutes(protected)

	return app
}

// service owns every long-lived resource of the process.
type service struct {
	app      *fiber.App
	sessions *viewmodel.Sessions
	mq       *rabbitmq.Client
	log      *zap.Logger
	closers  []func() error
}

func newService(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *service, err error) {
	svc := &service{log: log}
	defer func() {
		if err != nil {
			svc.close()
		}
	}()

	m := metrics.New("inventario")

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, err
	}
	if sqlDB, dbErr := db.DB(); dbErr == nil {
		svc.closers = append(svc.closers, sqlDB.Close)
	}
	if err := db.AutoMigrate(&models.Operator{}); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	docs, err := openStore(ctx, cfg, db)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, docs.Close)
	docs = store.NewInstrumented(docs, m)

	var cache *repositories.ReferenceCache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if pingErr := client.Ping(ctx).Err(); pingErr != nil {
			log.Warn("redis unreachable, reference cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(pingErr))
			client.Close()
		} else {
			svc.closers = append(svc.closers, client.Close)
			cache = repositories.NewReferenceCache(client, cfg.RedisTTL, log)
		}
	}

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, mqErr := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchange: cfg.RabbitMQExchange}, log)
		if mqErr != nil {
			return nil, mqErr
		}
		svc.mq = mq
		svc.closers = append(svc.closers, mq.Close)
		events = mq
	}

	imageStore, err := images.Open(ctx, cfg.Images)
	if err != nil {
		return nil, err
	}
	svc.closers = append(svc.closers, imageStore.Close)
	localImages, _ := imageStore.(*images.LocalStore)

	repo := repositories.NewStoreCatalogRepository(docs, cfg.Collections, cache, log)
	catalog := services.NewCatalogService(repo, cfg.Collections, events, m, log)
	auth := services.NewAuthService(repositories.NewGORMOperatorRepository(db), cfg.JWTSecret, log)

	svc.sessions = viewmodel.NewSessions(catalog, viewmodel.Config{
		SearchDebounce: cfg.SearchDebounce,
		Logger:         log,
		Metrics:        m,
	})

	svc.app = NewApp(Deps{
		Auth:        auth,
		Catalog:     catalog,
		Sessions:    svc.sessions,
		Form:        form.NewController(catalog, imageStore, log),
		LocalImages: localImages,
		Metrics:     m,
		Logger:      log,
		StoreDriver: cfg.StoreDriver,
		Events:      svc.mq != nil,
	})
	return svc, nil
}

func openDatabase(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	}
	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(level)})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func openStore(ctx context.Context, cfg *config.Config, db *gorm.DB) (store.DocumentStore, error) {
	switch cfg.StoreDriver {
	case config.StoreFirestore:
		return store.NewFirestoreStore(ctx, store.FirestoreConfig{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
		})
	case config.StoreMemory:
		return store.NewMemoryStore(), nil
	default:
		return store.NewGORMStore(db)
	}
}

// consumeEvents refreshes every open catalog when another replica changes the
// catalog.
func (s *service) consumeEvents(ctx context.Context) error {
	if s.mq == nil {
		return nil
	}
	return s.mq.ConsumeCatalogEvents(ctx, func(ctx context.Context, ev rabbitmq.CatalogEvent) error {
		s.log.Debug("catalog event received", zap.String("type", ev.Type), zap.String("doc_id", ev.DocID))
		return s.sessions.RefreshAll(ctx)
	})
}

func (s *service) close() {
	if s.sessions != nil {
		s.sessions.Close()
	}
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Warn("errors while releasing resources", zap.Error(err))
	}
}
