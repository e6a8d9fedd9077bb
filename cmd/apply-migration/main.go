package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"biometrico-data/internal/config"
	"biometrico-data/internal/database"
	"biometrico-data/internal/logger"
	"biometrico-data/internal/migrate"
)

// apply-migration 在配置的库上跑一遍全部 schema 指令并打印结果
// 和服务启动时跑的是同一份指令列表，重放任意次都安全
func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, "console", "apply-migration")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Cannot connect to database", zap.Error(err))
	}
	defer database.Close(db)

	runner := migrate.NewRunner(db, log)
	for i, line := range runner.Run(context.Background()) {
		fmt.Printf("%2d. %s\n", i+1, line)
	}
}
