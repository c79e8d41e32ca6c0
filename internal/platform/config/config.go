package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort string
	Env     string
	JWTKey  []byte
	JWTExp  time.Duration

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PistonURL                 string
	PistonCompileTimeoutMs    int
	PistonRunTimeoutMs        int
	PistonRunMemoryLimitBytes int
	PistonHTTPTimeout         time.Duration
	MaxCodeLength             int

	JudgeQueueName      string
	JudgeLockPrefix     string
	JudgeLockTTLSeconds int
	JudgeMaxAttempts    int

	LeaderboardCacheTTL time.Duration

	CORSAllowedOrigins []string

	RateLimitExecutePerMinute int
	RateLimitAuthPerMinute    int
}

var AppConfig *Config

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	AppConfig = FromEnv()
}

// FromEnv builds a Config from the current process environment without touching .env.
func FromEnv() *Config {
	cfg := &Config{
		APIPort: getEnv("API_PORT", "8080"),
		Env:     getEnv("APP_ENV", "development"),
		JWTKey:  []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:  time.Duration(getEnvAsInt("JWT_EXPIRATION_HOURS", 168)) * time.Hour,

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "user"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "algoryth"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		PistonURL:                 strings.TrimRight(getEnv("PISTON_URL", "https://emkc.org/api/v2/piston"), "/"),
		PistonCompileTimeoutMs:    getEnvAsInt("PISTON_COMPILE_TIMEOUT_MS", 10000),
		PistonRunTimeoutMs:        getEnvAsInt("PISTON_RUN_TIMEOUT_MS", 5000),
		PistonRunMemoryLimitBytes: getEnvAsInt("PISTON_RUN_MEMORY_LIMIT_BYTES", 256*1024*1024),
		PistonHTTPTimeout:         time.Duration(getEnvAsInt("PISTON_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		MaxCodeLength:             getEnvAsInt("MAX_CODE_LENGTH", 50000),

		JudgeQueueName:      getEnv("JUDGE_QUEUE_NAME", "judge_jobs_queue"),
		JudgeLockPrefix:     getEnv("JUDGE_LOCK_PREFIX", "judge_lock:"),
		JudgeLockTTLSeconds: getEnvAsInt("JUDGE_LOCK_TTL_SECONDS", 120),
		JudgeMaxAttempts:    getEnvAsInt("JUDGE_MAX_ATTEMPTS", 3),

		LeaderboardCacheTTL: time.Duration(getEnvAsInt("LEADERBOARD_CACHE_TTL_SECONDS", 30)) * time.Second,

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		RateLimitExecutePerMinute: getEnvAsInt("RATE_LIMIT_EXECUTE_PER_MINUTE", 60),
		RateLimitAuthPerMinute:    getEnvAsInt("RATE_LIMIT_AUTH_PER_MINUTE", 20),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode
	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key string, fallback []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
