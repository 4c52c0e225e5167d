package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldforce-attendance/internal/config"
	"fieldforce-attendance/internal/handler"
	"fieldforce-attendance/internal/repository"
	"fieldforce-attendance/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	logrus.Info("Initializing config...")
	cfg := config.GetEngineConfig()
	logrus.Info("Config initialized...")

	// Инициализируем SQLite базу данных
	db, err := gorm.Open(sqlite.Open(cfg.DatabaseURL), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true, // SQLite ограничения
	})
	if err != nil {
		logrus.Fatal("Failed to connect to database:", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logrus.Fatal("Failed to get database instance:", err)
	}

	// Включаем поддержку внешних ключей (требуется для SQLite)
	_, err = sqlDB.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		logrus.Infof("Warning: Failed to enable foreign keys: %v", err)
	}

	employeeRepo, err := repository.NewGormEmployeeRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create employee repository")
	}

	projectRepo, err := repository.NewGormProjectRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create project repository")
	}

	attendanceRepo, err := repository.NewGormAttendanceRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create attendance repository")
	}

	taskRepo, err := repository.NewGormTaskAssignmentRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create task assignment repository")
	}

	correctionRepo, err := repository.NewGormAttendanceCorrectionRepository(db)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create attendance correction repository")
	}

	// Собираем сервисы движка
	attendanceService := service.NewAttendanceService(attendanceRepo, projectRepo, cfg)
	taskService := service.NewTaskAssignmentService(taskRepo, attendanceRepo, cfg)
	summaryService := service.NewDailySummaryService(taskRepo, attendanceRepo)
	correctionService := service.NewCorrectionService(correctionRepo, attendanceRepo, employeeRepo)

	// Создаем HTTP-фасад
	router := gin.Default()
	engineHandler := handler.NewHandler(attendanceService, taskService, summaryService, correctionService)
	engineHandler.Register(router)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	// Обработка сигналов для graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logrus.Infof("HTTP server listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server failed")
		}
	}()

	logrus.Info("Engine started. Press Ctrl+C to stop.")
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Infof("Error shutting down HTTP server: %v", err)
	}

	// Закрываем соединение с БД
	if err := sqlDB.Close(); err != nil {
		logrus.Infof("Error closing database: %v", err)
	}

	logrus.Info("Engine stopped gracefully")
}
