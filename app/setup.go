package app

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sahilchouksey/educa-api/api"
	"github.com/sahilchouksey/educa-api/config"
	"github.com/sahilchouksey/educa-api/database"
	"github.com/sahilchouksey/educa-api/router"
	"github.com/sahilchouksey/educa-api/services"
	"github.com/sahilchouksey/educa-api/services/cron"
	"github.com/sahilchouksey/educa-api/services/storage"
	"github.com/sahilchouksey/educa-api/utils"
	"github.com/sahilchouksey/educa-api/utils/auth"
	"github.com/sahilchouksey/educa-api/utils/cache"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		log.Printf("Warning: .env not loaded: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}
	if getEnv.JWT_SECRET == "" {
		return errors.New("JWT_SECRET environment variable is not set")
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		print("Connection settings come from DB_HOST, DB_PORT, DB_USER_NAME, DB_PASSWORD and DB_NAME\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		print("Error running migrations:\n")
		return err
	}

	redisCache, err := cache.NewRedisCache(getEnv.REDIS_URL)
	if err != nil {
		log.Printf("Warning: Failed to connect to Redis: %v", err)
		redisCache = nil
	}

	fileStorage, err := storage.New(getEnv)
	if err != nil {
		return fmt.Errorf("failed to initialize file storage: %w", err)
	}

	emailService := services.NewEmailService(getEnv.SENDGRID_API_KEY, getEnv.MAIL_FROM)
	if !emailService.IsConfigured() {
		log.Println("Warning: SENDGRID_API_KEY not set. Emails will be logged, not sent.")
	}

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		var catalogCache services.JSONCache
		if redisCache != nil {
			catalogCache = redisCache
		}
		catalog := services.NewCatalogService(store.GetDB(), catalogCache, getEnv.CATALOG_CACHE_TTL)
		cronManager = cron.NewCronManager(store.GetDB(), catalog)
		if err := cronManager.Start(); err != nil {
			log.Printf("Warning: Failed to start cron jobs: %v", err)
			cronManager = nil
		}
	}

	// Defer Closing DB, Redis and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret:        getEnv.JWT_SECRET,
		Expiry:        24 * time.Hour,
		RefreshExpiry: 7 * 24 * time.Hour,
		Issuer:        getEnv.JWT_ISSUER,
	})

	// Setup Routes
	router.SetupRoutes(app, store, router.Options{
		JWTManager:      jwtManager,
		Cache:           redisCache,
		Storage:         fileStorage,
		Email:           emailService,
		AuditLog:        utils.NewLogger(),
		CatalogCacheTTL: getEnv.CATALOG_CACHE_TTL,
		AllowedOrigins:  getEnv.ALLOWED_ORIGINS,
		RateLimit:       100,
		MediaURL:        getEnv.MEDIA_URL,
	})

	// Get the PORT & Start the Server
	return server.Run()
}
