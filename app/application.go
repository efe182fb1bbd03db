package app

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"
	"ramadantracker.app/api"
	"ramadantracker.app/config"
	"ramadantracker.app/database"
	"ramadantracker.app/errors"
	"ramadantracker.app/metrics"
	"ramadantracker.app/providers/store"
	"ramadantracker.app/push"
	"ramadantracker.app/repository"
	"ramadantracker.app/scheduler"
	"ramadantracker.app/service"
)

// Application represents the main application with all its dependencies
type Application struct {
	config    *config.Config
	db        *gorm.DB
	server    *api.Server
	scheduler *scheduler.Scheduler
}

// NewApplication creates and initializes a new application instance
func NewApplication() (*Application, error) {
	app := &Application{}

	if err := app.loadConfiguration(); err != nil {
		return nil, err
	}

	if err := app.initializeServices(); err != nil {
		return nil, err
	}

	return app, nil
}

func (app *Application) loadConfiguration() error {
	slog.Info("Loading configuration...")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		return fmt.Errorf("load application configuration: %w", err)
	}

	app.config = cfg
	slog.Info("Configuration loaded successfully")
	return nil
}

func (app *Application) initializeServices() error {
	slog.Info("Initializing services...")

	subscriptionStore, err := app.createSubscriptionStore()
	if err != nil {
		return fmt.Errorf("create subscription store: %w", err)
	}

	sender, err := push.NewSender(&app.config.Push)
	if err != nil {
		return fmt.Errorf("load push sender: %w", err)
	}

	dispatchMetrics := metrics.NewDispatchMetrics()
	subscriptionService := service.NewSubscriptionService(subscriptionStore)
	dispatcher := service.NewReminderDispatcher(subscriptionStore, sender, dispatchMetrics, &app.config.Scheduler)

	server, err := api.NewServer(api.ServerOptions{
		Config:              app.config,
		SubscriptionService: subscriptionService,
		DispatchMetrics:     dispatchMetrics,
		VAPIDPublicKey:      sender.Keys().PublicKey(),
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	app.server = server
	app.scheduler = scheduler.NewScheduler(&app.config.Scheduler, dispatcher)

	slog.Info("Services initialized successfully")
	return nil
}

// createSubscriptionStore builds the configured store backend.
// Follows Factory Method pattern: creates complex configured object
func (app *Application) createSubscriptionStore() (service.SubscriptionStore, error) {
	slog.Debug("Creating subscription store", "type", app.config.Storage.Type)

	switch app.config.Storage.Type {
	case config.StoragePostgres:
		db, err := database.InitDB(app.config.Database)
		if err != nil {
			return nil, fmt.Errorf("initialize database connection: %w", err)
		}
		if err := database.RunMigrations(db); err != nil {
			return nil, fmt.Errorf("run database migrations: %w", err)
		}
		app.db = db
		return repository.NewSubscriptionRepository(db), nil

	case config.StorageRedis:
		return store.NewRedisStore(&store.RedisStoreConfig{
			Addr:         app.config.Redis.Addr,
			Password:     app.config.Redis.Password,
			DB:           app.config.Redis.DB,
			DialTimeout:  app.config.Redis.DialTimeoutDuration(),
			ReadTimeout:  app.config.Redis.ReadTimeoutDuration(),
			WriteTimeout: app.config.Redis.WriteTimeoutDuration(),
		})

	case config.StorageMemory:
		slog.Warn("Using in-memory subscription store; records are lost on restart")
		return store.NewMemoryStore(), nil
	}

	return nil, errors.NewConfigurationError(
		fmt.Sprintf("unknown storage type: %s", app.config.Storage.Type), nil)
}

// Start starts the application
func (app *Application) Start() error {
	slog.Info("Starting application...")

	slog.Info("Starting scheduler...")
	app.scheduler.Start()

	slog.Info("Starting HTTP server", "port", app.config.Server.Port)
	return app.server.Start()
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	slog.Info("Shutting down application...")

	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	if app.db != nil {
		if err := database.CloseDB(app.db); err != nil {
			slog.Warn("Error closing database", "error", err)
		}
	}

	slog.Info("Application shutdown complete")
	return nil
}

// Config returns the application configuration
func (app *Application) Config() *config.Config {
	return app.config
}
