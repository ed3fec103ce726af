package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/Freeeeeet/booking_desk/internal/app"
	"github.com/Freeeeeet/booking_desk/internal/config"
	"github.com/Freeeeeet/booking_desk/internal/controller/httpapi"
	"github.com/Freeeeeet/booking_desk/internal/controller/telegram"
	"github.com/Freeeeeet/booking_desk/internal/lock"
	"github.com/Freeeeeet/booking_desk/internal/notify"
	"github.com/Freeeeeet/booking_desk/internal/observability/metrics"
	"github.com/Freeeeeet/booking_desk/internal/repository"
	"github.com/Freeeeeet/booking_desk/internal/repository/memory"
	"github.com/Freeeeeet/booking_desk/internal/service"
)

type stores struct {
	users         repository.UserStore
	availability  repository.AvailabilityStore
	bookings      repository.BookingStore
	notifications repository.NotificationStore
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Sugar().Infow("Starting booking desk",
		"environment", cfg.Environment,
		"storage", cfg.Storage,
		"http_addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	locker := newLocker(cfg, logger)
	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	userService := service.NewUserService(st.users, logger)
	staffService := service.NewStaffService(st.users, logger)

	var telegramBot *bot.Bot
	if cfg.TelegramToken != "" {
		telegramBot, err = bot.New(cfg.TelegramToken)
		if err != nil {
			logger.Fatal("Failed to create telegram bot", zap.Error(err))
		}
	}

	sinks := notify.Fanout{notify.NewInbox(st.notifications, logger)}
	if telegramBot != nil {
		sinks = append(sinks, notify.NewTelegram(telegramBot, st.users, logger))
	}
	if brokers := notify.SplitBrokers(cfg.KafkaBrokers); len(brokers) > 0 {
		writer := &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		}
		defer writer.Close()
		sinks = append(sinks, notify.NewKafka(writer, cfg.KafkaTopic, logger))
		logger.Info("Kafka notifications enabled", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	}

	dispatcher := notify.NewDispatcher(sinks, cfg.NotifyQueueSize, logger)
	dispatcher.OnDrop(bookingMetrics.ObserveDropped)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	bookingService := service.NewBookingService(
		st.bookings, st.availability, st.users, staffService,
		locker, dispatcher, bookingMetrics, logger,
	)

	if telegramBot != nil {
		controller := telegram.NewBotController(telegramBot, userService, bookingService, logger)
		if err := controller.RegisterHandlers(ctx); err != nil {
			logger.Warn("Telegram commands not registered", zap.Error(err))
		}
		go controller.Start(ctx)
	}

	router := httpapi.NewRouter(httpapi.Config{
		Logger:         logger,
		Users:          userService,
		Staff:          staffService,
		Availability:   service.NewAvailabilityService(st.availability, st.users, staffService, logger),
		Slots:          service.NewSlotService(st.availability, st.bookings, st.users),
		Bookings:       bookingService,
		Notifications:  service.NewNotificationService(st.notifications, logger),
		MetricsHandler: promhttp.Handler(),
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*stores, error) {
	if cfg.Storage == config.StorageMemory {
		logger.Warn("Using in-memory storage, data is lost on restart")
		mem := memory.NewStore()
		return &stores{
			users:         mem.Users(),
			availability:  mem.Availability(),
			bookings:      mem.Bookings(),
			notifications: mem.Notifications(),
			close:         func() {},
		}, nil
	}

	pool, err := pgxpool.New(ctx, cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	migrator, err := app.NewMigrator(pool, cfg.MigrationsDir, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	defer migrator.Close()
	if err := migrator.Run(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return &stores{
		users:         repository.NewUserRepository(pool),
		availability:  repository.NewAvailabilityRepository(pool),
		bookings:      repository.NewBookingRepository(pool),
		notifications: repository.NewNotificationRepository(pool),
		close:         pool.Close,
	}, nil
}

func newLocker(cfg *config.Config, logger *zap.Logger) lock.Locker {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-process slot locks")
		return lock.NewLocal(cfg.LockWait)
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	logger.Info("Using redis slot locks", zap.String("addr", cfg.RedisAddr))
	return lock.NewRedis(client, cfg.LockWait, cfg.LockTTL)
}
