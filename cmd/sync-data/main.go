package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"biometrico-data/internal/config"
	"biometrico-data/internal/database"
	"biometrico-data/internal/logger"
	"biometrico-data/internal/repository"
	"biometrico-data/internal/service"
	"biometrico-data/internal/store"
)

// sync-data 从云端 registry 拉取分支和员工，按自然键合并进本地库
// 独立于请求服务进程跑（cron 或手动），云端慢不影响本地打卡
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "sync-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.Sync.RemoteURL == "" {
		log.Fatal("SYNC_REMOTE_URL is required")
	}

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	var kv store.KV
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		kv = store.NewRedisKV(redisClient)
	}

	branchesRepo := repository.NewPostgresBranchesRepository(db)
	employeesRepo := repository.NewPostgresEmployeesRepository(db)
	attendanceRepo := repository.NewPostgresAttendanceRepository(db)

	branchSvc := service.NewBranchService(branchesRepo, employeesRepo, log)
	employeeSvc := service.NewEmployeeService(employeesRepo, branchesRepo, attendanceRepo, log)

	remote := service.NewRegistryClient(
		cfg.Sync.RemoteURL,
		time.Duration(cfg.Sync.TimeoutSec)*time.Second,
		cfg.Sync.RetryCount,
		log,
	)
	sync := service.NewSyncService(remote, branchSvc, employeeSvc, kv, log)

	report, err := sync.Run(context.Background())
	if err != nil {
		log.Error("Sync failed", zap.Error(err))
	}
	if report != nil {
		fmt.Printf("Sync run %s\n", report.RunID)
		fmt.Printf("  branches:  %d synced, %d failed\n", report.BranchesSynced, report.BranchesFailed)
		fmt.Printf("  employees: %d synced, %d failed, %d skipped\n",
			report.EmployeesSynced, report.EmployeesFailed, report.EmployeesSkipped)
		for _, e := range report.Errors {
			fmt.Printf("  error: %s\n", e)
		}
	}
	// 部分失败也要让 cron 看见
	if err != nil {
		os.Exit(1)
	}
}
