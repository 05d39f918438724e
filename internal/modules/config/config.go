package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
	backendBaseENV    = "BACKEND_BASE_URL"
	backendWSENV      = "BACKEND_WS_URL"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB string `yaml:"db_dsn"`

	Backend struct {
		BaseURL string  `yaml:"base_url"`
		WSURL   string  `yaml:"ws_url"`
		Account string  `yaml:"account"`
		RPS     float64 `yaml:"rps"` // лимит на исходящие запросы
		Burst   int     `yaml:"burst"`
	} `yaml:"backend"`

	Auth struct {
		TokenEnv  string `yaml:"token_env"`
		TokenFile string `yaml:"token_file"`
	} `yaml:"auth"`

	Health struct {
		Addr string `yaml:"addr"`
	} `yaml:"health"`

	Tracing struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"tracing"`

	// Кадансы синхронизации
	PriceEvery     time.Duration // опрос цен при открытых позициях
	PollEvery      time.Duration // poll-fallback статусов
	PositionsEvery time.Duration // обновление списка позиций
	// 0 — режим выбирается один раз при подписке (как в исходнике),
	// >0 — из поллинга периодически пробуем вернуться на push.
	RetryPush time.Duration
}

func NewConfig() (*Config, error) {

	configFileName := os.Getenv(configFilePathENV)
	if configFileName == "" {
		configFileName = "values_local.yaml"
	}
	file, err := os.Open("configs/" + configFileName)
	if err != nil {
		log.Fatalf("Failed to open config file: %v", err)
	}

	defer func() {
		_ = file.Close()
	}()

	decoder := yaml.NewDecoder(file)
	config := Config{
		PriceEvery:     durationFromEnv("PRICE_EVERY", "5s"),
		PollEvery:      durationFromEnv("POLL_EVERY", "5s"),
		PositionsEvery: durationFromEnv("POSITIONS_EVERY", "30s"),
		RetryPush:      durationFromEnv("RETRY_PUSH", "0s"),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if v := os.Getenv(backendBaseENV); v != "" {
		config.Backend.BaseURL = v
	}
	if v := os.Getenv(backendWSENV); v != "" {
		config.Backend.WSURL = v
	}

	if config.Backend.RPS <= 0 {
		config.Backend.RPS = floatFromEnv("BACKEND_RPS", 20)
	}
	if config.Backend.Burst <= 0 {
		config.Backend.Burst = intFromEnv("BACKEND_BURST", 10)
	}
	if config.Auth.TokenEnv == "" {
		config.Auth.TokenEnv = "DASH_AUTH_TOKEN"
	}
	if config.Health.Addr == "" {
		config.Health.Addr = ":8080"
	}

	return &config, nil
}

func intFromEnv(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func floatFromEnv(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	d, _ := time.ParseDuration(def)
	return d
}
