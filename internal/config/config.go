// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Server ServerConfig `json:"server"`

	// Database Configuration
	Database DatabaseConfig `json:"database"`

	// Redis Configuration
	Redis RedisConfig `json:"redis"`

	// NATS / event bus Configuration
	NATS NATSConfig `json:"nats"`

	// JWT Configuration
	JWT JWTConfig `json:"jwt"`

	// Environment
	Environment string `json:"environment"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port            string        `json:"port"`
	Host            string        `json:"host"`
	Mode            string        `json:"mode"` // debug, release, test
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	MaxRequestSize  int64         `json:"max_request_size"`
	TrustedProxies  []string      `json:"trusted_proxies"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	MongoURI        string        `json:"mongo_uri"`
	DatabaseName    string        `json:"database_name"`
	MaxPoolSize     uint64        `json:"max_pool_size"`
	MinPoolSize     uint64        `json:"min_pool_size"`
	MaxConnIdleTime time.Duration `json:"max_conn_idle_time"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	ServerTimeout   time.Duration `json:"server_timeout"`
}

// RedisConfig contains Redis-related configuration
type RedisConfig struct {
	URL              string        `json:"url"`
	Host             string        `json:"host"`
	Port             string        `json:"port"`
	Password         string        `json:"password"`
	Database         int           `json:"database"`
	MaxRetries       int           `json:"max_retries"`
	MinRetryBackoff  time.Duration `json:"min_retry_backoff"`
	MaxRetryBackoff  time.Duration `json:"max_retry_backoff"`
	DialTimeout      time.Duration `json:"dial_timeout"`
	ReadTimeout      time.Duration `json:"read_timeout"`
	WriteTimeout     time.Duration `json:"write_timeout"`
	PoolSize         int           `json:"pool_size"`
	MinIdleConns     int           `json:"min_idle_conns"`
	MaxConnAge       time.Duration `json:"max_conn_age"`
	PoolTimeout      time.Duration `json:"pool_timeout"`
	IdleTimeout      time.Duration `json:"idle_timeout"`
	IdleCheckFreq    time.Duration `json:"idle_check_freq"`
	EnableCluster    bool          `json:"enable_cluster"`
	ClusterAddresses []string      `json:"cluster_addresses"`
}

// NATSConfig contains event bus connection settings for the producer and
// the durable consumer groups (engagement-stats, hourly-aggregator).
type NATSConfig struct {
	URL              string `json:"url"`
	MaxReconnects    int    `json:"max_reconnects"`
	ReconnectWaitSec int    `json:"reconnect_wait_seconds"`
	MaxDeliver       int    `json:"max_deliver"`
	MaxAckPending    int    `json:"max_ack_pending"`
}

// JWTConfig contains JWT-related configuration
type JWTConfig struct {
	SecretKey            string        `json:"secret_key"`
	RefreshSecretKey     string        `json:"refresh_secret_key"`
	AccessTokenDuration  time.Duration `json:"access_token_duration"`
	RefreshTokenDuration time.Duration `json:"refresh_token_duration"`
	Issuer               string        `json:"issuer"`
	Algorithm            string        `json:"algorithm"`
}

// Global config instance
var AppConfig *Config

// Load loads configuration from environment variables
func Load() *Config {
	config := &Config{
		Server:      loadServerConfig(),
		Database:    loadDatabaseConfig(),
		Redis:       loadRedisConfig(),
		NATS:        loadNATSConfig(),
		JWT:         loadJWTConfig(),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	AppConfig = config
	return config
}

// loadServerConfig loads server configuration
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnv("PORT", "8080"),
		Host:            getEnv("HOST", "0.0.0.0"),
		Mode:            getEnv("GIN_MODE", "debug"),
		ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
		WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		MaxRequestSize:  getEnvInt64("MAX_REQUEST_SIZE", 32<<20), // 32MB
		TrustedProxies:  getEnvStringSlice("TRUSTED_PROXIES", []string{}),
	}
}

// loadDatabaseConfig loads database configuration
func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:    getEnv("DB_NAME", "feedranker"),
		MaxPoolSize:     getEnvUint64("MONGO_MAX_POOL_SIZE", 100),
		MinPoolSize:     getEnvUint64("MONGO_MIN_POOL_SIZE", 5),
		MaxConnIdleTime: getEnvDuration("MONGO_MAX_CONN_IDLE_TIME", 30*time.Minute),
		ConnectTimeout:  getEnvDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		ServerTimeout:   getEnvDuration("MONGO_SERVER_TIMEOUT", 10*time.Second),
	}
}

// loadRedisConfig loads Redis configuration
func loadRedisConfig() RedisConfig {
	return RedisConfig{
		URL:              getEnv("REDIS_URL", ""),
		Host:             getEnv("REDIS_HOST", "localhost"),
		Port:             getEnv("REDIS_PORT", "6379"),
		Password:         getEnv("REDIS_PASSWORD", ""),
		Database:         getEnvInt("REDIS_DB", 0),
		MaxRetries:       getEnvInt("REDIS_MAX_RETRIES", 3),
		MinRetryBackoff:  getEnvDuration("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond),
		MaxRetryBackoff:  getEnvDuration("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond),
		DialTimeout:      getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:      getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout:     getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		PoolSize:         getEnvInt("REDIS_POOL_SIZE", 20),
		MinIdleConns:     getEnvInt("REDIS_MIN_IDLE_CONNS", 5),
		MaxConnAge:       getEnvDuration("REDIS_MAX_CONN_AGE", 0),
		PoolTimeout:      getEnvDuration("REDIS_POOL_TIMEOUT", 4*time.Second),
		IdleTimeout:      getEnvDuration("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		IdleCheckFreq:    getEnvDuration("REDIS_IDLE_CHECK_FREQ", 1*time.Minute),
		EnableCluster:    getEnvBool("REDIS_ENABLE_CLUSTER", false),
		ClusterAddresses: getEnvStringSlice("REDIS_CLUSTER_ADDRESSES", []string{}),
	}
}

// loadNATSConfig loads the event bus connection settings
func loadNATSConfig() NATSConfig {
	return NATSConfig{
		URL:              getEnv("NATS_URL", "nats://localhost:4222"),
		MaxReconnects:    getEnvInt("NATS_MAX_RECONNECTS", 10),
		ReconnectWaitSec: getEnvInt("NATS_RECONNECT_WAIT_SECONDS", 2),
		MaxDeliver:       getEnvInt("NATS_MAX_DELIVER", 5),
		MaxAckPending:    getEnvInt("NATS_MAX_ACK_PENDING", 256),
	}
}

// loadJWTConfig loads JWT configuration
func loadJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey:            getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		RefreshSecretKey:     getEnv("JWT_REFRESH_SECRET", "your-refresh-secret-key-change-in-production"),
		AccessTokenDuration:  getEnvDuration("JWT_ACCESS_DURATION", 24*time.Hour),
		RefreshTokenDuration: getEnvDuration("JWT_REFRESH_DURATION", 30*24*time.Hour),
		Issuer:               getEnv("JWT_ISSUER", "feedranker"),
		Algorithm:            getEnv("JWT_ALGORITHM", "HS256"),
	}
}

// getEnvInt gets environment variable as integer with default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid integer value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvInt64 gets environment variable as int64 with default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid int64 value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvUint64 gets environment variable as uint64 with default value
func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return intValue
		}
		log.Printf("Warning: Invalid uint64 value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvBool gets environment variable as boolean with default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Printf("Warning: Invalid boolean value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvDuration gets environment variable as duration with default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		log.Printf("Warning: Invalid duration value for %s: %s, using default: %v", key, value, defaultValue)
	}
	return defaultValue
}

// getEnvStringSlice gets environment variable as string slice with default value
func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" {
		log.Println("Warning: Using default JWT secret key. Please change in production!")
	}

	if c.JWT.RefreshSecretKey == "your-refresh-secret-key-change-in-production" {
		log.Println("Warning: Using default JWT refresh secret key. Please change in production!")
	}

	if c.Database.MongoURI == "" {
		return fmt.Errorf("database URI is required")
	}

	if c.Environment == "production" {
		if c.JWT.SecretKey == "your-secret-key-change-in-production" {
			return fmt.Errorf("JWT secret key must be set in production")
		}
		if c.Server.Mode != "release" {
			log.Println("Warning: Server should be in release mode for production")
		}
	}

	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsTest returns true if running in test mode
func (c *Config) IsTest() bool {
	return c.Environment == "test" || c.Environment == "testing"
}

// GetRedisAddr returns Redis address in host:port format
func (c *Config) GetRedisAddr() string {
	if c.Redis.URL != "" {
		return c.Redis.URL
	}
	return c.Redis.Host + ":" + c.Redis.Port
}

// GetServerAddr returns server address in host:port format
func (c *Config) GetServerAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetDatabaseURI returns the complete database URI
func (c *Config) GetDatabaseURI() string {
	return c.Database.MongoURI
}

// PrintConfig prints configuration (excluding sensitive data)
func (c *Config) PrintConfig() {
	log.Printf("=== Application Configuration ===")
	log.Printf("Environment: %s", c.Environment)
	log.Printf("Server: %s (mode: %s)", c.GetServerAddr(), c.Server.Mode)
	log.Printf("Database: %s", c.Database.DatabaseName)
	log.Printf("Redis: %s (DB: %d)", c.GetRedisAddr(), c.Redis.Database)
	log.Printf("NATS: %s", c.NATS.URL)
	log.Printf("================================")
}

// GetConfig returns the global configuration instance
func GetConfig() *Config {
	if AppConfig == nil {
		log.Println("Configuration not loaded, loading now...")
		return Load()
	}
	return AppConfig
}

// MustLoad loads configuration and panics if validation fails
func MustLoad() *Config {
	config := Load()
	if err := config.Validate(); err != nil {
		log.Fatalf("Configuration validation failed: %v", err)
	}
	return config
}

// ReloadConfig reloads configuration from environment
func ReloadConfig() *Config {
	log.Println("Reloading configuration...")
	return Load()
}
