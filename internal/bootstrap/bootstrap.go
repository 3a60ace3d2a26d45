package bootstrap

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	appControllers "github.com/edutrack/adminportal/internal/app/controllers"
	appMigrations "github.com/edutrack/adminportal/internal/app/migrations"
	appRepos "github.com/edutrack/adminportal/internal/app/repositories"
	"github.com/edutrack/adminportal/internal/app/repositories/memory"
	appRoutes "github.com/edutrack/adminportal/internal/app/routes"
	appServices "github.com/edutrack/adminportal/internal/app/services"
	"github.com/edutrack/adminportal/internal/config"
	"github.com/edutrack/adminportal/internal/db"
	appMiddleware "github.com/edutrack/adminportal/internal/middleware"
	pkgAuth "github.com/edutrack/adminportal/internal/pkg/auth"
	"github.com/edutrack/adminportal/internal/pkg/filestorage"
	"github.com/edutrack/adminportal/internal/pkg/imagetransfer"
	"github.com/edutrack/adminportal/internal/pkg/logger"
	"github.com/edutrack/adminportal/internal/pkg/metrics"
	"github.com/edutrack/adminportal/internal/seed"
	"github.com/edutrack/adminportal/migrations"
)

// DefaultConfigPath is used when CONFIG_PATH is not set
const DefaultConfigPath = "configs/config.yaml"

// Dependencies holds all the application dependencies
type Dependencies struct {
	Config  *config.Config
	Repos   *appRepos.Repositories
	Metrics *metrics.Metrics

	JWTService *pkgAuth.JWTService
	Storage    filestorage.ImageStorage

	IndexAllocator   *appServices.IndexAllocator
	ImportService    *appServices.ImportService
	StudentService   *appServices.StudentService
	TenantService    *appServices.TenantService
	DuplicateService *appServices.DuplicateService

	TenantController  *appControllers.TenantController
	StudentController *appControllers.StudentController
	AuthMiddleware    *appMiddleware.AuthMiddleware

	closers []func()
}

// ConfigPath returns CONFIG_PATH or the default config location
func ConfigPath() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultConfigPath
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: strings.ToLower(cfg.Logging.Format) == "text",
	})

	logger.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, nil
}

// SetupDatabase establishes the database connection and runs migrations.
func SetupDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, int, error) {
	logger.Info().Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to connect to database")
		return nil, 0, err
	}
	logger.Info().Msg("Database connection successfully established.")

	logger.Info().Msg("Running database migrations...")
	applied, err := appMigrations.NewMigrator(database.Pool).Migrate(ctx, migrations.FS)
	if err != nil {
		database.Close()
		logger.Error().Err(err).Msg("Database migration error")
		return nil, 0, fmt.Errorf("database migrations failed: %w", err)
	}
	logger.Info().Int("applied", applied).Msg("Database migrations successfully applied.")

	return database.Pool, applied, nil
}

// openRepositories selects the record store named by database.driver
func (d *Dependencies) openRepositories(ctx context.Context) error {
	switch d.Config.Database.Driver {
	case config.DatabaseDriverMemory:
		logger.Warn().Msg("Using in-memory store, data is lost on restart")
		d.Repos = memory.NewStore().Repositories()
		return nil
	default:
		pool, _, err := SetupDatabase(ctx, d.Config)
		if err != nil {
			return err
		}
		d.closers = append(d.closers, pool.Close)
		d.Repos = appRepos.NewRepositories(pool)
		return nil
	}
}

// openStorage selects the image store named by storage.driver
func (d *Dependencies) openStorage(ctx context.Context) error {
	cfg := d.Config
	switch cfg.Storage.Driver {
	case config.StorageDriverGCS:
		gcs, err := filestorage.NewGCSStorage(ctx, cfg.Storage.GCS.Bucket, cfg.Storage.GCS.CredentialsFile, cfg.Storage.GCS.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize gcs storage: %w", err)
		}
		d.closers = append(d.closers, func() {
			if err := gcs.Close(); err != nil {
				logger.Warn().Err(err).Msg("Failed to close gcs client")
			}
		})
		d.Storage = gcs
	default:
		local, err := filestorage.NewLocalStorage(cfg.Server.StoragePath, cfg.Server.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize file storage: %w", err)
		}
		d.Storage = local
	}
	return nil
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{Config: cfg}

	if err := deps.openRepositories(ctx); err != nil {
		return nil, err
	}
	if err := deps.openStorage(ctx); err != nil {
		deps.Close()
		return nil, err
	}

	deps.Metrics = metrics.New()

	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:      cfg.JWT.Secret,
		AccessTokenExp: cfg.AccessTokenTTL(),
		TokenIssuer:    cfg.JWT.Issuer,
	})

	transferer := imagetransfer.NewTransferer(deps.Storage, imagetransfer.Config{
		DownloadTimeout: cfg.Import.PhotoDownloadTimeout,
		UploadTimeout:   cfg.Import.PhotoUploadTimeout,
		MaxBytes:        cfg.Import.MaxUploadBytes,
		RatePerSecond:   cfg.Import.PhotoRatePerSecond,
	})

	storeTimeout := cfg.Import.StoreTimeout
	repos := deps.Repos

	deps.IndexAllocator = appServices.NewIndexAllocator(repos.Students, repos.Counters, deps.Metrics, storeTimeout)
	detector := appServices.NewDuplicateDetector(repos.Students, storeTimeout)
	deps.ImportService = appServices.NewImportService(repos.Tenants, detector, deps.IndexAllocator, transferer, deps.Metrics, storeTimeout)
	deps.StudentService = appServices.NewStudentService(repos.Tenants, repos.Students, deps.IndexAllocator, storeTimeout)
	deps.TenantService = appServices.NewTenantService(repos.Tenants, storeTimeout)
	deps.DuplicateService = appServices.NewDuplicateService(repos.Tenants, repos.Students, storeTimeout)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, cfg.SuperAdmin.Email)
	deps.TenantController = appControllers.NewTenantController(deps.TenantService)
	deps.StudentController = appControllers.NewStudentController(deps.StudentService, deps.ImportService, deps.DuplicateService, cfg.Import.MaxUploadBytes)

	if cfg.Database.SeedDemo {
		seedCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		// Log the error but don't fail the startup
		if err := seed.CreateDemoData(seedCtx, deps.TenantService, deps.ImportService); err != nil {
			logger.Error().Err(err).Msg("Failed to create demo data, proceeding anyway...")
		}
		cancel()
	}

	return deps, nil
}

// Close releases the database pool and storage clients
func (d *Dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies) *gin.Engine {
	if strings.ToLower(cfg.Server.Mode) == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger())
	router.MaxMultipartMemory = cfg.Import.MaxUploadBytes

	appRoutes.SetupRouter(router,
		deps.TenantController,
		deps.StudentController,
		deps.AuthMiddleware,
		deps.Metrics.Handler(),
	)

	if cfg.Storage.Driver == config.StorageDriverLocal {
		router.Static("/uploads", cfg.Server.StoragePath)
		logger.Info().Str("path", cfg.Server.StoragePath).Msg("Static file serving configured for uploads directory")
	}

	return router
}
