package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	arriveBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/arrive_booking"
	createBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/create_booking"
	endBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/end_booking"
	getBookingHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_user_bookings"
	getUserDuesHandler "github.com/m04kA/SMC-ParkingService/internal/api/handlers/get_user_dues"
	"github.com/m04kA/SMC-ParkingService/internal/api/middleware"
	"github.com/m04kA/SMC-ParkingService/internal/config"
	areaRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/area"
	bookingRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/booking"
	dueRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/due"
	paymentRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/payment"
	slotRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/slot"
	userRepo "github.com/m04kA/SMC-ParkingService/internal/infra/storage/user"
	notifyServiceClient "github.com/m04kA/SMC-ParkingService/internal/integrations/notifyservice"
	"github.com/m04kA/SMC-ParkingService/internal/scheduler"
	bookingsService "github.com/m04kA/SMC-ParkingService/internal/service/bookings"
	settlementService "github.com/m04kA/SMC-ParkingService/internal/service/settlement"
	createBookingUC "github.com/m04kA/SMC-ParkingService/internal/usecase/create_booking"
	endBookingUC "github.com/m04kA/SMC-ParkingService/internal/usecase/end_booking"
	expireReservationsUC "github.com/m04kA/SMC-ParkingService/internal/usecase/expire_reservations"
	handleArrivalUC "github.com/m04kA/SMC-ParkingService/internal/usecase/handle_arrival"
	"github.com/m04kA/SMC-ParkingService/pkg/dbmetrics"
	"github.com/m04kA/SMC-ParkingService/pkg/logger"
	"github.com/m04kA/SMC-ParkingService/pkg/metrics"
	"github.com/m04kA/SMC-ParkingService/pkg/simpletxmanager"
	"github.com/m04kA/SMC-ParkingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-ParkingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем клиента сервиса уведомлений
	notifyClient := notifyServiceClient.NewClient(
		cfg.NotifyService.URL,
		time.Duration(cfg.NotifyService.Timeout)*time.Second,
		log,
	)
	log.Info("NotifyService client initialized (url=%s, timeout=%ds)",
		cfg.NotifyService.URL, cfg.NotifyService.Timeout)

	// Инициализируем репозитории (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		slotRepository    *slotRepo.Repository
		areaRepository    *areaRepo.Repository
		userRepository    *userRepo.Repository
		dueRepository     *dueRepo.Repository
		paymentRepository *paymentRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases)
	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		slotRepository = slotRepo.NewRepository(wrappedDB)
		areaRepository = areaRepo.NewRepository(wrappedDB)
		userRepository = userRepo.NewRepository(wrappedDB)
		dueRepository = dueRepo.NewRepository(wrappedDB)
		paymentRepository = paymentRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		slotRepository = slotRepo.NewRepository(db)
		areaRepository = areaRepo.NewRepository(db)
		userRepository = userRepo.NewRepository(db)
		dueRepository = dueRepo.NewRepository(db)
		paymentRepository = paymentRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		bookingRepository,
		dueRepository,
		log,
	)
	settlementSvc := settlementService.NewService(
		userRepository,
		paymentRepository,
		dueRepository,
		bookingRepository,
		log,
	)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		areaRepository,
		userRepository,
		notifyClient,
		txMgr,
		log,
	)
	handleArrivalUseCase := handleArrivalUC.NewUseCase(
		bookingRepository,
		slotRepository,
		areaRepository,
		notifyClient,
		txMgr,
		log,
	)
	endBookingUseCase := endBookingUC.NewUseCase(
		bookingRepository,
		slotRepository,
		settlementSvc,
		notifyClient,
		txMgr,
		log,
	)
	expireReservationsUseCase := expireReservationsUC.NewUseCase(
		bookingRepository,
		slotRepository,
		dueRepository,
		settlementSvc,
		notifyClient,
		txMgr,
		log,
	)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	arriveBooking := arriveBookingHandler.NewHandler(handleArrivalUseCase, log)
	endBooking := endBookingHandler.NewHandler(endBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getUserDues := getUserDuesHandler.NewHandler(bookingSvc, log)

	// Запускаем планировщик обработки просроченных броней
	var sweepScheduler *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sweepScheduler = scheduler.New(
			expireReservationsUseCase,
			time.Duration(cfg.Scheduler.SweepInterval)*time.Second,
			log,
		)
		sweepScheduler.Start()
	} else {
		log.Warn("Expiry scheduler is disabled, reservations will not be swept")
	}

	// Настраиваем роутер
	r := mux.NewRouter()

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования (резерв или прямой въезд)
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Фиксация прибытия
	protected.HandleFunc("/bookings/{bookingId}/arrive", arriveBooking.Handle).Methods(http.MethodPatch)

	// Завершение парковки с расчетом
	protected.HandleFunc("/bookings/{bookingId}/end", endBooking.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// Непогашенные задолженности пользователя
	protected.HandleFunc("/users/{userId}/dues", getUserDues.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем планировщик (дожидается завершения текущего цикла)
	if sweepScheduler != nil {
		sweepScheduler.Stop()
	}

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
