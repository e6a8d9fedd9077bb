package config

import (
	"os"
	"strconv"
)

// Config biometrico-data（HTTP API）配置
type Config struct {
	HTTP struct {
		Addr string
	}
	Database DatabaseConfig
	Redis    struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}
	Log struct {
		Level  string
		Format string
	}
	// Timezone 系统本地时区（IANA 名称），考勤时间戳统一归一化到这个时区
	Timezone string
	Sync     SyncConfig
	// AdminSecret 批量清除考勤的预共享密钥（不匹配直接 403）
	AdminSecret string
}

// DatabaseConfig PostgreSQL 连接配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 生成 lib/pq DSN
func (c *DatabaseConfig) GetDSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}

// SyncConfig 云端→本地 对账（Reconciler）配置
type SyncConfig struct {
	RemoteURL  string // 云端 registry 基础地址（如 "http://api.amorispa.cloud"）
	TimeoutSec int    // 单次远端调用超时（秒）
	RetryCount int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8000")

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = parseInt(getEnv("DB_PORT", "5432"), 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "biometrico")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = parseInt(getEnv("DB_MAX_CONNS", "10"), 10)
	cfg.Database.MaxIdle = parseInt(getEnv("DB_MAX_IDLE", "5"), 5)

	// Redis 仅用于记录最近一次对账结果；未配置时自动降级，不影响本地打卡
	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Enabled = cfg.Redis.Addr != ""
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.Timezone = getEnv("LOCAL_TIMEZONE", "America/Merida")

	cfg.Sync.RemoteURL = getEnv("SYNC_REMOTE_URL", "")
	cfg.Sync.TimeoutSec = parseInt(getEnv("SYNC_TIMEOUT_SEC", "30"), 30)
	cfg.Sync.RetryCount = parseInt(getEnv("SYNC_RETRY_COUNT", "3"), 3)

	cfg.AdminSecret = getEnv("ADMIN_SECRET", "")

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}
