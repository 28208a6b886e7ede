package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ashtraymarket/internal/app/market/config"
	"ashtraymarket/internal/app/market/handler"
	"ashtraymarket/internal/app/market/processor"
	"ashtraymarket/internal/app/market/repository"
	"ashtraymarket/internal/app/market/service"
	"ashtraymarket/internal/app/market/util"
	"ashtraymarket/pkg/logger"
)

func main() {
	// === ИНИЦИАЛИЗАЦИЯ КОНФИГУРАЦИИ ===
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init("marketplace", cfg.LogLevel)

	ctx := context.Background()

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL (pgx) ===
	// Пул pgx обслуживает пользователей, магазины и адреса
	pgPool, err := connectPg(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to PostgreSQL (pgx)")

	// === ПОДКЛЮЧЕНИЕ К POSTGRESQL (GORM) ===
	// GORM обслуживает каталог, заказы и списки желаний поверх той же базы
	gormDB, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to PostgreSQL (gorm)")
	}
	logger.Info().Msg("connected to PostgreSQL (gorm)")

	// === ПОДКЛЮЧЕНИЕ К MONGODB ===
	// MongoDB хранит отзывы и голоса о полезности отзывов
	mongoClient, err := connectMongo(ctx, cfg.Mongo)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(ctx)
	logger.Info().Msg("connected to MongoDB")

	// === ПОДКЛЮЧЕНИЕ К REDIS ===
	// Redis хранит refresh токены и кеш списка категорий
	redisClient, err := util.NewRedisClient(cfg.Redis.Address(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redisClient.Close()
	logger.Info().Msg("connected to Redis")

	// === ИНИЦИАЛИЗАЦИЯ KAFKA PRODUCERS ===
	productProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.ProductTopic)
	defer productProducer.Close()
	orderProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic)
	defer orderProducer.Close()
	reviewProducer := util.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.ReviewTopic)
	defer reviewProducer.Close()
	logger.Info().Msg("kafka producers initialized")

	// === ИНИЦИАЛИЗАЦИЯ СЛОЯ РЕПОЗИТОРИЕВ ===
	userRepo := repository.NewUserRepository(pgPool)
	shopRepo := repository.NewShopRepository(pgPool)
	addressRepo := repository.NewAddressRepository(pgPool)
	tokenRepo := repository.NewRedisTokenRepository(redisClient.Client())
	productRepo := repository.NewProductRepository(gormDB)
	categoryRepo := repository.NewCategoryRepository(gormDB)
	orderRepo := repository.NewOrderRepository(gormDB)
	wishRepo := repository.NewWishListRepository(gormDB)

	reviewRepo, err := repository.NewReviewRepository(mongoClient.Database(cfg.Mongo.DBName))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize review repository")
	}

	// === ИНИЦИАЛИЗАЦИЯ БИЗНЕС-ЛОГИКИ ===
	jwtManager := util.NewJWTManager(
		cfg.JWT.SecretKey,
		cfg.JWT.AccessTokenDuration,
		cfg.JWT.RefreshTokenDuration,
	)

	accountService := service.NewAccountService(userRepo, addressRepo, tokenRepo, jwtManager, cfg.Password)
	shopService := service.NewShopService(shopRepo, userRepo)
	catalogService := service.NewCatalogService(
		productRepo, categoryRepo, shopRepo, wishRepo,
		redisClient, productProducer, cfg.Kafka.ProductTopic, cfg.Wishlist,
	)
	orderService := service.NewOrderService(orderRepo, productRepo, orderProducer, cfg.Kafka.OrderTopic)
	reviewService := service.NewReviewService(reviewRepo, reviewProducer, cfg.Kafka.ReviewTopic)

	// === ИНИЦИАЛИЗАЦИЯ HTTP HANDLERS ===
	userHandler := handler.NewUserHandler(accountService)
	shopHandler := handler.NewShopHandler(shopService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	orderHandler := handler.NewOrderHandler(orderService)
	reviewHandler := handler.NewReviewHandler(reviewService)

	imageStore, err := util.NewImageStore(cfg.Images.StorageDir, cfg.Images.MaxSizeBytes, cfg.Images.AllowedExts)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize image store")
	}
	uploadHandler := handler.NewUploadHandler(imageStore)
	authMiddleware := handler.NewAuthMiddleware(jwtManager)

	router := handler.SetupRoutes(
		userHandler, shopHandler, catalogHandler, orderHandler, reviewHandler,
		uploadHandler, authMiddleware,
	)

	// === ФОНОВЫЕ ПРОЦЕССЫ ===
	// Consumer статистики читает события заказов и обновляет счётчики
	statsConsumer := processor.NewStatsConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.OrderTopic,
		cfg.Kafka.ConsumerGroup,
		userRepo, shopRepo, productRepo,
	)
	statsConsumer.Start(ctx)
	defer statsConsumer.Stop()

	// Планировщик: сброс месячных счётчиков и сверка флагов shop_owner
	scheduler := processor.NewCronScheduler(shopRepo, userRepo)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start cron scheduler")
	}
	defer scheduler.Stop()

	// === НАСТРОЙКА HTTP СЕРВЕРА ===
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Address()).Msg("starting marketplace service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down marketplace service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("marketplace service stopped gracefully")
}

// connectPg устанавливает соединение с PostgreSQL через пул pgx
// Повторные попытки нужны при запуске в Docker, когда база еще не готова
func connectPg(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = 5 * time.Minute
	poolConfig.MaxConnIdleTime = 1 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	var pool *pgxpool.Pool
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		logger.Warn().Err(err).Int("attempt", i+1).Msg("failed to connect to database")
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect after 10 attempts: %w", err)
	}

	return pool, nil
}

// connectMongo устанавливает соединение с MongoDB и проверяет его ping-ом
func connectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client, nil
}
