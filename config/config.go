package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string        `mapstructure:"PORT"`
	MongoURI       string        `mapstructure:"MONGO_URI"`
	MongoDB        string        `mapstructure:"MONGO_DB"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	RedisPassword  string        `mapstructure:"REDIS_PASSWORD"`
	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTTTL         time.Duration `mapstructure:"JWT_TTL"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	CORSOrigins    []string      `mapstructure:"CORS_ORIGINS"`
	UploadDir      string        `mapstructure:"UPLOAD_DIR"`
	RateLimitRPS   float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `mapstructure:"RATE_LIMIT_BURST"`
	InvoiceSecret  string        `mapstructure:"INVOICE_SECRET"`
}

// LoadConfig reads .env (if present) and the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB", "tourbook")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "72h")
	v.SetDefault("CACHE_TTL", "60s")
	v.SetDefault("CORS_ORIGINS", []string{"*"})
	v.SetDefault("UPLOAD_DIR", "static/uploads")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("INVOICE_SECRET", "")

	for _, key := range []string{
		"PORT", "MONGO_URI", "MONGO_DB", "REDIS_URL", "REDIS_PASSWORD",
		"JWT_SECRET", "JWT_TTL", "CACHE_TTL", "CORS_ORIGINS", "UPLOAD_DIR",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "INVOICE_SECRET",
	} {
		v.BindEnv(key)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode config: %v", err)
	}

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is not set; using an insecure development secret")
		cfg.JWTSecret = "dev-secret-change-me"
	}
	if cfg.InvoiceSecret == "" {
		cfg.InvoiceSecret = cfg.JWTSecret
	}
	if cfg.Port != "" && cfg.Port[0] != ':' {
		cfg.Port = ":" + cfg.Port
	}

	return &cfg
}
