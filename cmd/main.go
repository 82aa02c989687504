package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/AlekseyZapadovnikov/review-scheduler/conf"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/repository"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/service"
	"github.com/AlekseyZapadovnikov/review-scheduler/internal/web"
)

// main конфигурирует сервис, поднимает хранилище, сервисы и HTTP-сервер, а затем управляет их жизненным циклом.
func main() {
	// Подхватываем .env, если он есть; в проде переменные приходят из окружения.
	if err := godotenv.Load(); err == nil {
		slog.Info(".env file loaded")
	}

	// Берём путь до конфигурации из окружения либо используем значение по умолчанию.
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "./conf/config.json"
	}

	// Загружаем конфигурацию.
	config := conf.MustLoad(cfgPath)
	slog.Info("Configuration loaded successfully", "config_path", cfgPath)
	slog.Info("Database configuration", "host", config.DBConf.Host, "port", config.DBConf.Port, "user", config.DBConf.User, "database", config.DBConf.Name)

	// Создаём подключение к базе данных.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	storage, err := repository.NewStorage(ctx, &config.DBConf)
	if err != nil {
		slog.Error("Database initialization failed", "error", err)
		os.Exit(1)
	}
	defer storage.Close()
	slog.Info("Database storage initialized successfully")

	// Создаём планировщик выдачи ревьюеров.
	scheduler := service.NewSchedulerManager(storage)
	slog.Info("Scheduler manager created successfully")

	// Создаём менеджер каталога и менеджер статусов.
	directory := service.NewDirectoryManager(storage)
	lifecycle := service.NewLifecycleManager(storage)
	slog.Info("Directory and lifecycle managers created successfully")

	// Поднимаем HTTP-сервер.
	server := web.New(config.HTTPServConf, scheduler, directory, lifecycle)
	slog.Info("HTTP server created successfully", "address", server.Address)

	// Запускаем сервер в отдельной горутине.
	go func() {
		if err := server.Start(); err != nil && err.Error() != "http: Server closed" {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Фоновая уборка протухших статусов занятости.
	sweepInterval := time.Duration(config.SchedulerConf.SweepIntervalMinutes) * time.Minute
	go lifecycle.RunSweep(ctx, sweepInterval, config.SchedulerConf.StatusTimeoutDays)
	slog.Info("Status sweep started", "interval", sweepInterval, "timeout_days", config.SchedulerConf.StatusTimeoutDays)

	slog.Info("Review scheduler service started successfully", "address", server.Address)

	// Ожидаем сигнал остановки для плавного завершения работы.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server...")

	// Останавливаем фоновую уборку и корректно завершаем сервер с тайм-аутом.
	cancel()
	if err := server.Shutdown(context.Background()); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server exited properly")
}
