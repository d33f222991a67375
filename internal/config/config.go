package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUser    string
	DBPass    string
	DBHost    string
	DBPort    string
	DBName    string
	SSLMode   string
	RedisHost string
	RedisPort string
	NatsHost  string
	NatsPort  string
	ApiPort   string

	JWTSecret   string
	JWTLifetime time.Duration

	SMSGatewayURL string
	SMSToken      string

	OTPTTL time.Duration
}

// New loads and validates configuration from environment variables.
// The SMS gateway is optional: if TAPCARD_SMS_GATEWAY_URL is empty the
// notification worker logs messages instead of sending them.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBUser:        os.Getenv("TAPCARD_POSTGRES_USER"),
		DBPass:        os.Getenv("TAPCARD_POSTGRES_PASSWORD"),
		DBHost:        os.Getenv("TAPCARD_POSTGRES_HOST"),
		DBPort:        os.Getenv("TAPCARD_POSTGRES_PORT"),
		DBName:        os.Getenv("TAPCARD_POSTGRES_DB"),
		SSLMode:       os.Getenv("TAPCARD_POSTGRES_SSLMODE"),
		RedisHost:     os.Getenv("TAPCARD_REDIS_HOST"),
		RedisPort:     os.Getenv("TAPCARD_REDIS_PORT"),
		NatsHost:      os.Getenv("TAPCARD_NATS_HOST"),
		NatsPort:      os.Getenv("TAPCARD_NATS_PORT"),
		ApiPort:       getEnv("TAPCARD_API_PORT", "8080"),
		JWTSecret:     os.Getenv("TAPCARD_JWT_SECRET"),
		JWTLifetime:   getEnvDuration("TAPCARD_JWT_LIFETIME", 24*time.Hour),
		SMSGatewayURL: os.Getenv("TAPCARD_SMS_GATEWAY_URL"),
		SMSToken:      os.Getenv("TAPCARD_SMS_TOKEN"),
		OTPTTL:        getEnvDuration("TAPCARD_OTP_TTL", 10*time.Minute),
	}

	// Required: database
	if cfg.DBUser == "" || cfg.DBHost == "" || cfg.DBName == "" || cfg.SSLMode == "" {
		return nil, fmt.Errorf("missing required env for database: TAPCARD_POSTGRES_USER/HOST/DB/SSLMODE")
	}

	// Required: redis (balance cache + OTP store)
	if cfg.RedisHost == "" || cfg.RedisPort == "" {
		return nil, fmt.Errorf("missing required env for redis: TAPCARD_REDIS_HOST/PORT")
	}

	// Required: nats (order events + recharge commands)
	if cfg.NatsHost == "" || cfg.NatsPort == "" {
		return nil, fmt.Errorf("missing required env for nats: TAPCARD_NATS_HOST/PORT")
	}

	// Required: token signing key
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("missing required env: TAPCARD_JWT_SECRET")
	}

	return cfg, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName, c.SSLMode)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

func (c *Config) NatsAddr() string {
	return fmt.Sprintf("nats://%s:%s", c.NatsHost, c.NatsPort)
}

func (c *Config) ApiAddr() string {
	return ":" + c.ApiPort
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
