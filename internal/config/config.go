// Package config loads the nested configuration tree from environment
// variables, generalizing flat getEnv/getEnvInt/getEnvFloat helpers
// onto grouped settings.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type CacheConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	LocalLRUSize  int
	Deadline      time.Duration
}

type BusConfig struct {
	Brokers         []string
	Topic           string
	ProbeTimeout    time.Duration
	PublishDeadline time.Duration
}

type SecurityConfig struct {
	AccessSecret string
}

type RateLimitConfig struct {
	Window time.Duration
}

type IDGeneratorConfig struct {
	CounterBatchSize int64
	MinCodeLength    int
}

type ExpiryConfig struct {
	SweepInterval time.Duration
	SweepBatch    int
	TombstoneTTL  time.Duration
}

type AnalyticsConfig struct {
	FlushInterval      time.Duration
	RingBufferCapacity int
	SummaryHourUTC     int
}

// Config is the top-level configuration tree.
type Config struct {
	BaseURL       string
	Server        ServerConfig
	Database      DatabaseConfig
	Cache         CacheConfig
	Bus           BusConfig
	Security      SecurityConfig
	RateLimit     RateLimitConfig
	IDGen         IDGeneratorConfig
	Expiry        ExpiryConfig
	Analytics     AnalyticsConfig
	StoreDeadline time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables or defaults")
	}

	return &Config{
		BaseURL: getEnv("BASE_URL", "https://short.ly"),
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxOpenConns:    getEnvInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DATABASE_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Cache: CacheConfig{
			RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("REDIS_DB", 0),
			LocalLRUSize:  getEnvInt("CACHE_LOCAL_LRU_SIZE", 10000),
			Deadline:      getEnvDuration("CACHE_DEADLINE", 500*time.Millisecond),
		},
		Bus: BusConfig{
			Brokers:         getEnvList("BUS_BROKERS", []string{"localhost:9092"}),
			Topic:           getEnv("BUS_TOPIC", "url_clicks"),
			ProbeTimeout:    getEnvDuration("BUS_PROBE_TIMEOUT", 3*time.Second),
			PublishDeadline: getEnvDuration("BUS_PUBLISH_DEADLINE", 5*time.Second),
		},
		Security: SecurityConfig{
			AccessSecret: getEnv("SECURITY_ACCESS_SECRET", ""),
		},
		RateLimit: RateLimitConfig{
			Window: getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		},
		IDGen: IDGeneratorConfig{
			CounterBatchSize: int64(getEnvInt("IDGEN_COUNTER_BATCH_SIZE", 10000)),
			MinCodeLength:    getEnvInt("IDGEN_MIN_CODE_LENGTH", 7),
		},
		Expiry: ExpiryConfig{
			SweepInterval: getEnvDuration("EXPIRY_SWEEP_INTERVAL", 60*time.Second),
			SweepBatch:    getEnvInt("EXPIRY_SWEEP_BATCH", 500),
			TombstoneTTL:  getEnvDuration("EXPIRY_TOMBSTONE_TTL", 7*24*time.Hour),
		},
		Analytics: AnalyticsConfig{
			FlushInterval:      getEnvDuration("ANALYTICS_FLUSH_INTERVAL", 1000*time.Millisecond),
			RingBufferCapacity: getEnvInt("ANALYTICS_RING_BUFFER_CAPACITY", 1000),
			SummaryHourUTC:     getEnvInt("ANALYTICS_SUMMARY_HOUR_UTC", 2),
		},
		StoreDeadline: getEnvDuration("STORE_DEADLINE", 2*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	start := 0
	for i := 0; i <= len(value); i++ {
		if i == len(value) || value[i] == ',' {
			if i > start {
				out = append(out, value[start:i])
			}
			start = i + 1
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
