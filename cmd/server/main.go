package main

import (
	"context"
	"log"

	"go-event-ticketing/config"
	"go-event-ticketing/internal/cache"
	"go-event-ticketing/internal/database"
	"go-event-ticketing/internal/handler"
	"go-event-ticketing/internal/mailer"
	"go-event-ticketing/internal/queue"
	"go-event-ticketing/internal/repository"
	"go-event-ticketing/internal/service"
	"go-event-ticketing/internal/worker"
	"go-event-ticketing/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer pool.Close()

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to initialize redis: %v", err)
	}
	defer rdb.Close()

	// Repository
	eventRepo := repository.NewEventRepository(pool)
	userRepo := repository.NewUserRepository(pool)
	participationRepo := repository.NewParticipationRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)

	// 名額預約快取
	capacityManager := cache.NewEventCapacityManager(rdb)

	// 通知隊列與寄信 worker
	notificationQueue, err := queue.NewRedisStreamNotificationQueue(rdb, "", nil)
	if err != nil {
		log.Fatalf("Failed to initialize notification queue: %v", err)
	}
	sender := mailer.NewSMTPSender(cfg.SMTP)
	notificationWorker := worker.NewNotificationWorker(sender, notificationQueue)
	if err := notificationWorker.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start notification worker: %v", err)
	}

	// Service
	eventService := service.NewEventService(eventRepo, participationRepo, capacityManager)
	registrationService := service.NewRegistrationService(eventRepo, userRepo, participationRepo, capacityManager, notificationQueue)
	paymentService := service.NewPaymentService(pool, eventRepo, userRepo, participationRepo, orderRepo, paymentRepo, notificationQueue)
	checkinService := service.NewCheckinService(eventRepo, participationRepo)
	attendanceService := service.NewAttendanceService(eventRepo, userRepo, participationRepo)

	// Handler
	router := gin.Default()
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	handler.NewEventHandler(eventService).RegisterRoutes(router)
	handler.NewRegistrationHandler(registrationService).RegisterRoutes(router)
	handler.NewPaymentHandler(paymentService).RegisterRoutes(router)
	handler.NewAttendanceHandler(checkinService, attendanceService).RegisterRoutes(router)

	defer logger.L.Sync()

	if err := router.Run(cfg.Server.Addr); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}
