package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env  string
	Port int

	Provider   ProviderConfig
	Directory  DirectoryConfig
	Enrollment EnrollmentConfig
	Messaging  MessagingConfig
	Observer   ObserverConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Catalog    CatalogConfig
}

// ProviderConfig holds payment-provider (Mercado Pago) credentials and URLs.
type ProviderConfig struct {
	BaseURL            string
	AccessToken        string
	CheckoutAmount     float64
	SubscriptionAmount float64
	SuccessURL         string
	FailureURL         string
	NotificationURL    string
	Timeout            time.Duration
}

// DirectoryConfig points at the external LMS directory (OM API).
type DirectoryConfig struct {
	BaseURL         string
	BasicAuth       string
	UnitID          string
	CodePrefix      string
	DefaultPassword string
	Timeout         time.Duration
}

// EnrollmentConfig tunes the registration retry loop.
type EnrollmentConfig struct {
	MaxRegistrationAttempts int
}

// MessagingConfig configures the WhatsApp gateway used for welcome messages.
type MessagingConfig struct {
	Enabled    bool
	BaseURL    string
	APIKey     string
	Phone      string
	Attempts   int
	RetryDelay time.Duration
	Timeout    time.Duration
}

// ObserverConfig lists chat-ops webhooks notified on orchestration transitions.
type ObserverConfig struct {
	WebhookURLs []string
	Timeout     time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	// ReserveTTL bounds how long an in-flight ledger reservation survives
	// a crashed process before the transaction becomes eligible again.
	ReserveTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig optionally overrides the built-in course catalog.
type CatalogConfig struct {
	File string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")

	cfg.Provider = ProviderConfig{
		BaseURL:            v.GetString("MP_BASE_URL"),
		AccessToken:        v.GetString("MP_ACCESS_TOKEN"),
		CheckoutAmount:     v.GetFloat64("MP_CHECKOUT_AMOUNT"),
		SubscriptionAmount: v.GetFloat64("MP_SUBSCRIPTION_AMOUNT"),
		SuccessURL:         v.GetString("MP_SUCCESS_URL"),
		FailureURL:         v.GetString("MP_FAILURE_URL"),
		NotificationURL:    v.GetString("MP_NOTIFICATION_URL"),
		Timeout:            parseDuration(v.GetString("MP_TIMEOUT"), 20*time.Second),
	}

	cfg.Directory = DirectoryConfig{
		BaseURL:         v.GetString("OM_BASE"),
		BasicAuth:       v.GetString("OM_BASIC_B64"),
		UnitID:          v.GetString("OM_UNIDADE_ID"),
		CodePrefix:      v.GetString("OM_CODE_PREFIX"),
		DefaultPassword: v.GetString("OM_DEFAULT_PASSWORD"),
		Timeout:         parseDuration(v.GetString("OM_TIMEOUT"), 10*time.Second),
	}

	cfg.Enrollment = EnrollmentConfig{
		MaxRegistrationAttempts: v.GetInt("ENROLL_MAX_ATTEMPTS"),
	}

	cfg.Messaging = MessagingConfig{
		Enabled:    v.GetBool("WHATSAPP_ENABLED"),
		BaseURL:    v.GetString("WHATSAPP_BASE_URL"),
		APIKey:     v.GetString("WHATSAPP_APIKEY"),
		Phone:      v.GetString("WHATSAPP_PHONE"),
		Attempts:   v.GetInt("WHATSAPP_ATTEMPTS"),
		RetryDelay: parseDuration(v.GetString("WHATSAPP_RETRY_DELAY"), 2*time.Second),
		Timeout:    parseDuration(v.GetString("WHATSAPP_TIMEOUT"), 10*time.Second),
	}

	cfg.Observer = ObserverConfig{
		WebhookURLs: splitAndTrim(v.GetString("OBSERVER_WEBHOOK_URLS")),
		Timeout:     parseDuration(v.GetString("OBSERVER_TIMEOUT"), 4*time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:    v.GetBool("REDIS_ENABLED"),
		Host:       v.GetString("REDIS_HOST"),
		Port:       v.GetInt("REDIS_PORT"),
		Password:   v.GetString("REDIS_PASSWORD"),
		DB:         v.GetInt("REDIS_DB"),
		ReserveTTL: parseDuration(v.GetString("REDIS_RESERVE_TTL"), 15*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{File: v.GetString("CATALOG_FILE")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)

	v.SetDefault("MP_BASE_URL", "https://api.mercadopago.com")
	v.SetDefault("MP_ACCESS_TOKEN", "")
	v.SetDefault("MP_CHECKOUT_AMOUNT", 49.90)
	v.SetDefault("MP_SUBSCRIPTION_AMOUNT", 59.90)
	v.SetDefault("MP_SUCCESS_URL", "https://www.cedbrasilia.com.br/obrigado")
	v.SetDefault("MP_FAILURE_URL", "https://www.cedbrasilia.com.br/obrigado")
	v.SetDefault("MP_NOTIFICATION_URL", "https://api.cedbrasilia.com.br/webhooks/payments")
	v.SetDefault("MP_TIMEOUT", "20s")

	v.SetDefault("OM_BASE", "")
	v.SetDefault("OM_BASIC_B64", "")
	v.SetDefault("OM_UNIDADE_ID", "")
	v.SetDefault("OM_CODE_PREFIX", "20254158")
	v.SetDefault("OM_DEFAULT_PASSWORD", "123456")
	v.SetDefault("OM_TIMEOUT", "10s")

	v.SetDefault("ENROLL_MAX_ATTEMPTS", 60)

	v.SetDefault("WHATSAPP_ENABLED", false)
	v.SetDefault("WHATSAPP_BASE_URL", "https://api.callmebot.com/whatsapp.php")
	v.SetDefault("WHATSAPP_APIKEY", "")
	v.SetDefault("WHATSAPP_PHONE", "")
	v.SetDefault("WHATSAPP_ATTEMPTS", 3)
	v.SetDefault("WHATSAPP_RETRY_DELAY", "2s")
	v.SetDefault("WHATSAPP_TIMEOUT", "10s")

	v.SetDefault("OBSERVER_WEBHOOK_URLS", "")
	v.SetDefault("OBSERVER_TIMEOUT", "4s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_RESERVE_TTL", "15m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_FILE", "")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
