// Pacote config centraliza o carregamento das variáveis de ambiente usadas pelos binários.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config agrega todos os parâmetros necessários para API e worker.
type Config struct {
	HTTPAddress string
	LogLevel    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LiquidacaoAssincrona   bool
	FilaLiquidacaoKey      string
	StatusLiquidacaoPrefix string
	StatusLiquidacaoTTL    time.Duration

	ProvedorBaseURL     string
	ProvedorAPIKey      string
	ProvedorTimeout     time.Duration
	ProvedorCachePrefix string
	ProvedorCacheTTL    time.Duration

	RateLimitEnabled       bool
	RateLimitMaxActions    int
	RateLimitWindowSeconds int
	RateLimitKeyPrefix     string

	AutoMigrate bool

	ReconciliacaoIntervalo time.Duration

	WorkerMetricsAddress string
	AdminToken           string
}

// Load lê o .env do diretório atual, se existir, e depois o ambiente.
// Variáveis já definidas no ambiente têm precedência sobre o arquivo.
func Load(arquivos ...string) (Config, error) {
	if err := godotenv.Load(arquivos...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: ler .env: %w", err)
	}

	cfg := Config{
		HTTPAddress:            getEnv("HTTP_ADDRESS", ":8080"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:           getEnv("POSTGRES_USER", "quiniela"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "quiniela"),
		PostgresDB:             getEnv("POSTGRES_DB", "quiniela"),
		PostgresSSLMode:        getEnv("POSTGRES_SSLMODE", "disable"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		LiquidacaoAssincrona:   getEnvAsBool("LIQUIDACAO_ASSINCRONA", false),
		FilaLiquidacaoKey:      getEnv("LIQUIDACAO_FILA_KEY", "fila:liquidacao"),
		StatusLiquidacaoPrefix: getEnv("LIQUIDACAO_STATUS_PREFIX", "liquidacao:status"),
		StatusLiquidacaoTTL:    time.Duration(getEnvAsInt("LIQUIDACAO_STATUS_TTL_SECONDS", 86400)) * time.Second,
		ProvedorBaseURL:        getEnv("PROVEDOR_BASE_URL", "https://v3.football.api-sports.io"),
		ProvedorAPIKey:         os.Getenv("PROVEDOR_API_KEY"),
		ProvedorTimeout:        time.Duration(getEnvAsInt("PROVEDOR_TIMEOUT_SECONDS", 10)) * time.Second,
		ProvedorCachePrefix:    getEnv("PROVEDOR_CACHE_PREFIX", "provedor"),
		ProvedorCacheTTL:       time.Duration(getEnvAsInt("PROVEDOR_CACHE_TTL_SECONDS", 300)) * time.Second,
		RateLimitEnabled:       getEnvAsBool("ANTIFRAUDE_RATE_LIMIT_ENABLED", true),
		RateLimitMaxActions:    getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_MAX", 3),
		RateLimitWindowSeconds: getEnvAsInt("ANTIFRAUDE_RATE_LIMIT_WINDOW", 10),
		RateLimitKeyPrefix:     getEnv("ANTIFRAUDE_RATE_LIMIT_PREFIX", "ratelimit:apostas"),
		AutoMigrate:            getEnvAsBool("DB_AUTO_MIGRATE", true),
		WorkerMetricsAddress:   getEnv("WORKER_METRICS_ADDRESS", ":9090"),
		AdminToken:             os.Getenv("ADMIN_TOKEN"),
	}

	dbStr := getEnv("REDIS_DB", "0")
	dbInt, err := strconv.Atoi(dbStr)
	if err != nil {
		return Config{}, fmt.Errorf("config: REDIS_DB invalido: %w", err)
	}
	cfg.RedisDB = dbInt

	intervalo, err := time.ParseDuration(getEnv("RECONCILIACAO_INTERVALO", "1h"))
	if err != nil {
		return Config{}, fmt.Errorf("config: RECONCILIACAO_INTERVALO invalido: %w", err)
	}
	cfg.ReconciliacaoIntervalo = intervalo

	return cfg, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.PostgresUser,
		c.PostgresPassword,
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDB,
		c.PostgresSSLMode,
	)
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getEnvAsBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	switch value {
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return true
	}
}
