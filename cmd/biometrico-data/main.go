package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"biometrico-data/internal/config"
	"biometrico-data/internal/database"
	httpapi "biometrico-data/internal/http"
	"biometrico-data/internal/logger"
	"biometrico-data/internal/migrate"
	"biometrico-data/internal/repository"
	"biometrico-data/internal/service"
	"biometrico-data/internal/store"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "biometrico-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Warn("Invalid LOCAL_TIMEZONE, falling back to UTC",
			zap.String("timezone", cfg.Timezone), zap.Error(err))
		loc = time.UTC
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// 启动时自动跑一遍 schema 指令；部分失败不拦启动，结果都在日志里
	runner := migrate.NewRunner(db, log)
	for _, line := range runner.Run(context.Background()) {
		log.Info("Migration result", zap.String("outcome", line))
	}

	// Redis 可选：只承载最近一次对账结果
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	}

	branchesRepo := repository.NewPostgresBranchesRepository(db)
	employeesRepo := repository.NewPostgresEmployeesRepository(db)
	attendanceRepo := repository.NewPostgresAttendanceRepository(db)

	branchSvc := service.NewBranchService(branchesRepo, employeesRepo, log)
	employeeSvc := service.NewEmployeeService(employeesRepo, branchesRepo, attendanceRepo, log)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, employeesRepo, branchesRepo, loc, cfg.AdminSecret, log)

	router := httpapi.NewRouter(log)
	router.RegisterHealthRoutes()
	router.RegisterAttendanceRoutes(httpapi.NewAttendanceHandler(attendanceSvc, log))
	router.RegisterRegistryRoutes(
		httpapi.NewBranchHandler(branchSvc, log),
		httpapi.NewEmployeeHandler(employeeSvc, log),
	)
	router.RegisterDebugRoutes(httpapi.NewDebugHandler(runner, kv, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		log.Error("HTTP server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
