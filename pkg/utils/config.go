package utils

import (
	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Payment  PaymentConfig
	Reaper   ReaperConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host           string
	Port           string
	Name           string
	User           string
	Password       string
	MaxConns       int32
	MigrationsPath string
}

type PaymentConfig struct {
	BaseURL          string
	APIKey           string
	WebhookSecret    string
	Currency         string
	SuccessURL       string
	CancelURL        string
	ToleranceSeconds int
}

type ReaperConfig struct {
	PendingTTLMinutes    int
	SweepIntervalMinutes int
	SweepSecret          string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MIGRATIONS_PATH", "migrations")
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("PAYMENT_CURRENCY", "usd")
	viper.SetDefault("PAYMENT_TOLERANCE_SECONDS", 300)
	viper.SetDefault("RESERVATION_PENDING_TTL_MINUTES", 15)
	viper.SetDefault("RESERVATION_SWEEP_INTERVAL_MINUTES", 5)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:           viper.GetString("DB_HOST"),
			Port:           viper.GetString("DB_PORT"),
			Name:           viper.GetString("DB_NAME"),
			User:           viper.GetString("DB_USER"),
			Password:       viper.GetString("DB_PASS"),
			MaxConns:       viper.GetInt32("DB_MAX_CONNS"),
			MigrationsPath: viper.GetString("DB_MIGRATIONS_PATH"),
		},
		Payment: PaymentConfig{
			BaseURL:          viper.GetString("PAYMENT_BASE_URL"),
			APIKey:           viper.GetString("PAYMENT_API_KEY"),
			WebhookSecret:    viper.GetString("PAYMENT_WEBHOOK_SECRET"),
			Currency:         viper.GetString("PAYMENT_CURRENCY"),
			SuccessURL:       viper.GetString("PAYMENT_SUCCESS_URL"),
			CancelURL:        viper.GetString("PAYMENT_CANCEL_URL"),
			ToleranceSeconds: viper.GetInt("PAYMENT_TOLERANCE_SECONDS"),
		},
		Reaper: ReaperConfig{
			PendingTTLMinutes:    viper.GetInt("RESERVATION_PENDING_TTL_MINUTES"),
			SweepIntervalMinutes: viper.GetInt("RESERVATION_SWEEP_INTERVAL_MINUTES"),
			SweepSecret:          viper.GetString("SWEEP_SECRET"),
		},
	}

	return config, nil
}
