package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"biometrico-data/internal/config"
	"biometrico-data/internal/database"
	"biometrico-data/internal/logger"
	"biometrico-data/internal/repository"
)

// clear-attendance 从控制台清空考勤台账（绕过 HTTP，直接操作库）
// 只给运维排障用；台账正常情况下只增不删
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, "console", "clear-attendance")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	repo := repository.NewPostgresAttendanceRepository(db)
	deleted, err := repo.DeleteAll(context.Background())
	if err != nil {
		log.Fatal("Failed to clear attendance", zap.Error(err))
	}
	fmt.Printf("Cleared attendance records: %d rows\n", deleted)
}
