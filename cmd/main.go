package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"

	"github.com/sbilibin2017/gw-storefront/internal/handlers"
	"github.com/sbilibin2017/gw-storefront/internal/jwt"
	"github.com/sbilibin2017/gw-storefront/internal/logger"
	"github.com/sbilibin2017/gw-storefront/internal/middlewares"
	"github.com/sbilibin2017/gw-storefront/internal/repositories"
	"github.com/sbilibin2017/gw-storefront/internal/services"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/sbilibin2017/gw-storefront/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Build info variables, set via ldflags at build time.
var (
	buildVersion = "N/A" // Version of the service
	buildDate    = "N/A" // Build date
	buildCommit  = "N/A" // Git commit hash
)

// @title gw-storefront API
// @version 1.0.0
// @description Storefront service: users, products, orders and order lines
// @host localhost:8080
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	printBuildInfo()
	configPath := parseFlags()

	appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns, migrationsDir,
		redisAddr, redisDB, redisPassword, productCacheTTL,
		kafkaBrokers, kafkaTopic,
		jwtSecret, jwtExp, pepper,
		err := parseConfig(configPath)
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}

	if err := run(context.Background(),
		appHost, appPort, logLevel,
		pgHost, pgPort, pgUser, pgPassword, pgDB,
		pgMaxOpenConns, pgMaxIdleConns, migrationsDir,
		redisAddr, redisDB, redisPassword, productCacheTTL,
		kafkaBrokers, kafkaTopic,
		jwtSecret, jwtExp, pepper,
	); err != nil {
		log.Fatalf("application stopped with error: %v", err)
	}
}

// printBuildInfo prints the build version, commit hash, and build date.
func printBuildInfo() {
	fmt.Printf("Starting service version %s, commit %s, build %s\n", buildVersion, buildCommit, buildDate)
}

// parseFlags parses command-line flags and returns the config file path.
func parseFlags() string {
	c := flag.String("c", "config.env", "Path to configuration file")
	flag.Parse()
	return *c
}

// parseConfig loads environment variables from a file and returns all
// application, database, Redis, Kafka, logging, and auth configuration.
func parseConfig(path string) (
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int, migrationsDir string,
	redisAddr string, redisDB int, redisPassword string, productCacheTTL int,
	kafkaBrokers, kafkaTopic string,
	jwtSecretKey string, jwtExpSecond int, pepper string,
	err error,
) {
	_ = godotenv.Load(path)

	getEnv := func(key, defaultValue string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}
		return defaultValue
	}

	// Application config
	appHost = getEnv("APP_HOST", "localhost")
	appPort = getEnv("APP_PORT", "8080")
	logLevel = getEnv("APP_LOG_LEVEL", "info")

	// PostgreSQL config
	pgHost = getEnv("POSTGRES_HOST", "localhost")
	pgUser = getEnv("POSTGRES_USER", "user")
	pgPassword = getEnv("POSTGRES_PASSWORD", "password")
	pgDB = getEnv("POSTGRES_DB", "storefront")
	if pgPort, err = strconv.Atoi(getEnv("POSTGRES_PORT", "5432")); err != nil {
		return
	}
	if pgMaxOpenConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_OPEN_CONNS", "16")); err != nil {
		return
	}
	if pgMaxIdleConns, err = strconv.Atoi(getEnv("POSTGRES_MAX_IDLE_CONNS", "8")); err != nil {
		return
	}
	migrationsDir = getEnv("MIGRATIONS_DIR", "migrations")

	// Redis config; empty address disables the product cache
	redisAddr = getEnv("REDIS_ADDR", "")
	if redisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil {
		return
	}
	redisPassword = getEnv("REDIS_PASSWORD", "")
	if productCacheTTL, err = strconv.Atoi(getEnv("PRODUCT_CACHE_TTL_SECOND", "60")); err != nil {
		return
	}

	// Kafka config; empty broker list disables line event publishing
	kafkaBrokers = getEnv("KAFKA_BROKERS", "")
	kafkaTopic = getEnv("KAFKA_TOPIC", "order-line-events")

	// Auth config
	jwtSecretKey = getEnv("JWT_SECRET_KEY", "my_super_secret_key")
	if jwtExpSecond, err = strconv.Atoi(getEnv("JWT_EXP_SECOND", "3600")); err != nil {
		return
	}
	pepper = getEnv("BCRYPT_PEPPER", "")

	return
}

// run initializes the logger, database, Redis, Kafka, and HTTP server.
// It runs migrations, sets up routes, applies middleware, and handles
// graceful shutdown.
func run(ctx context.Context,
	appHost, appPort, logLevel string,
	pgHost string, pgPort int, pgUser, pgPassword, pgDB string,
	pgMaxOpenConns, pgMaxIdleConns int, migrationsDir string,
	redisAddr string, redisDB int, redisPassword string, productCacheTTL int,
	kafkaBrokers, kafkaTopic string,
	jwtSecretKey string, jwtExpSecond int, pepper string,
) error {
	// Initialize logger
	if err := logger.Initialize(logLevel); err != nil {
		fmt.Println("failed to initialize logger:", err)
		return err
	}
	defer logger.Sync()
	logger.Log.Infof("Logger initialized with level %s", logLevel)

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		pgUser, pgPassword, pgHost, pgPort, pgDB)
	logger.Log.Infof("Connecting to PostgreSQL at %s:%d/%s", pgHost, pgPort, pgDB)

	db, err := sqlx.ConnectContext(ctx, "pgx", dsn)
	if err != nil {
		logger.Log.Errorw("PostgreSQL connection error", "error", err)
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(pgMaxOpenConns)
	db.SetMaxIdleConns(pgMaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		logger.Log.Errorw("PostgreSQL ping failed", "error", err)
		return err
	}

	// Run migrations
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db.DB, migrationsDir); err != nil {
		logger.Log.Errorw("failed to run migrations", "error", err)
		return err
	}
	logger.Log.Info("Database migrations completed")

	// Connect to Redis when configured
	var productCache services.ProductCache
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     redisAddr,
			Password: redisPassword,
			DB:       redisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Log.Errorw("Redis connection error", "error", err)
			return err
		}
		defer rdb.Close()
		productCache = repositories.NewProductCacheRepository(rdb, time.Duration(productCacheTTL)*time.Second)
	}

	// Configure Kafka writer when brokers are given
	var kafkaWriter services.KafkaWriter
	if kafkaBrokers != "" {
		w := &kafka.Writer{
			Addr:     kafka.TCP(strings.Split(kafkaBrokers, ",")...),
			Topic:    kafkaTopic,
			Balancer: &kafka.LeastBytes{},
		}
		defer w.Close()
		kafkaWriter = w
	}

	// Initialize JWT service
	tokens := jwt.New(
		jwt.WithSecretKey(jwtSecretKey),
		jwt.WithExpiration(time.Duration(jwtExpSecond)*time.Second),
	)

	// Initialize repositories
	userReadRepo := repositories.NewUserReadRepository(db)
	userWriteRepo := repositories.NewUserWriteRepository(db)
	productReadRepo := repositories.NewProductReadRepository(db)
	productWriteRepo := repositories.NewProductWriteRepository(db)
	orderReadRepo := repositories.NewOrderReadRepository(db)
	orderWriteRepo := repositories.NewOrderWriteRepository(db)
	lineReadRepo := repositories.NewOrderProductReadRepository(db, middlewares.GetTxFromContext)
	lineWriteRepo := repositories.NewOrderProductWriteRepository(db, middlewares.GetTxFromContext)

	// Initialize services
	authService := services.NewAuthService(userReadRepo, userWriteRepo, tokens, pepper)
	userService := services.NewUserService(userReadRepo, userWriteRepo)
	productService := services.NewProductService(productReadRepo, productWriteRepo, productCache)
	orderService := services.NewOrderService(orderReadRepo, orderWriteRepo)
	lineService := services.NewOrderLineService(orderReadRepo, productReadRepo, lineReadRepo, lineWriteRepo, kafkaWriter)

	// Setup router
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middlewares.LoggingMiddleware(logger.Log))

	authMiddleware := middlewares.AuthMiddleware(tokens)
	txMiddleware := middlewares.TxMiddleware(db)

	// Public auth routes
	r.Post("/users/register", handlers.NewRegisterHandler(authService))
	r.Post("/users/login", handlers.NewLoginHandler(authService))

	// Protected user routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/users", handlers.NewListUsersHandler(userService))
		r.Get("/users/{id}", handlers.NewGetUserHandler(userService))
		r.Delete("/users/{id}", handlers.NewDeleteUserHandler(userService))
	})

	// Product routes
	r.Post("/products", handlers.NewCreateProductHandler(productService))
	r.Get("/products", handlers.NewListProductsHandler(productService))
	r.Get("/products/{id}", handlers.NewGetProductHandler(productService))
	r.Put("/products/{id}", handlers.NewUpdateProductHandler(productService))
	r.Delete("/products/{id}", handlers.NewDeleteProductHandler(productService))

	// Protected order routes
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/orders", handlers.NewCreateOrderHandler(orderService, tokens))
		r.Get("/orders", handlers.NewListOrdersHandler(orderService))
		r.Get("/orders/{id}", handlers.NewGetOrderHandler(orderService))
		r.Put("/orders/{id}", handlers.NewUpdateOrderHandler(orderService))
		r.Delete("/orders/{id}", handlers.NewDeleteOrderHandler(orderService))
	})

	// Order line routes; mutations run inside a request transaction
	r.Group(func(r chi.Router) {
		r.Use(txMiddleware)
		r.Post("/order-products", handlers.NewAddLineHandler(lineService))
		r.Put("/order-products/order/{orderId}/product/{productId}", handlers.NewUpdateLineHandler(lineService))
		r.Delete("/order-products/order/{orderId}/product/{productId}", handlers.NewRemoveLineHandler(lineService))
	})
	r.Get("/order-products/order/{orderId}", handlers.NewListOrderLinesHandler(lineService))
	r.Get("/order-products/order/{orderId}/product/{productId}", handlers.NewGetLineHandler(lineService))

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://%s:%s/swagger/doc.json", appHost, appPort)),
	))

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", appHost, appPort),
		Handler: r,
	}

	// Graceful shutdown
	errChan := make(chan error, 1)
	ctxShutdown, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	go func() {
		logger.Log.Infof("HTTP server listening on %s:%s", appHost, appPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	select {
	case <-ctxShutdown.Done():
		logger.Log.Info("Shutdown signal received, stopping HTTP server...")
	case serveErr := <-errChan:
		return serveErr
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorw("HTTP server shutdown error", "error", err)
	}

	logger.Log.Info("HTTP server stopped gracefully")
	return nil
}
