package config

import (
	"fmt"
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
	brokerSSIDENV     = "SSID"
)

// Config ...
type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
		AdminPort  int    `yaml:"admin_port"`
	} `yaml:"service"`

	Broker struct {
		// SSID — сессионный куки-блоб брокера, через него проходит auth
		// по вебсокету. Секрет, поэтому поверх yaml кроется env SSID.
		SSID string `yaml:"ssid"`
		URL  string `yaml:"url"`
		Demo bool   `yaml:"demo"`
	} `yaml:"broker"`

	Trading struct {
		// Канал сигналов из configs/channels.yaml
		Channel string `yaml:"channel"`
		// Вариант прогрессии: 3x2 / 4x2 / 5x2 / 3x3 / 2x3sum / 3step / single
		Strategy   string  `yaml:"strategy"`
		BaseAmount float64 `yaml:"base_amount"`
		Multiplier float64 `yaml:"multiplier"`

		// Лимиты по накопленному результату сессии, в долларах.
		// Значение <= 0 выключает соответствующий лимит.
		StopLoss   float64 `yaml:"stop_loss"`
		TakeProfit float64 `yaml:"take_profit"`

		// На сколько секунд раньше сигнального времени входить
		OffsetSeconds int `yaml:"offset_seconds"`
		// Максимальный возраст сигнала в CSV, старше — пропускаем.
		// Только из env (MAX_SIGNAL_AGE): yaml.v2 не разбирает duration.
		MaxSignalAge time.Duration `yaml:"-"`
	} `yaml:"trading"`
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
	config := Config{}
	config.Trading.Strategy = getenvDefault("STRATEGY", "3x2")
	config.Trading.BaseAmount = floatFromEnv("BASE_AMOUNT", 1.0)
	config.Trading.Multiplier = floatFromEnv("MULTIPLIER", 2.5)
	config.Trading.StopLoss = floatFromEnv("STOP_LOSS", 50)
	config.Trading.TakeProfit = floatFromEnv("TAKE_PROFIT", 100)
	config.Trading.OffsetSeconds = intFromEnv("TRADE_OFFSET_SECONDS", 0)
	config.Trading.MaxSignalAge = durationFromEnv("MAX_SIGNAL_AGE", "300s")
	config.Broker.Demo = boolFromEnv("BROKER_DEMO", true)

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

	ssid := os.Getenv(brokerSSIDENV)
	if ssid != "" {
		config.Broker.SSID = ssid
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if c.Trading.BaseAmount <= 0 {
		return fmt.Errorf("config: base_amount must be > 0")
	}
	if c.Trading.Channel == "" {
		return fmt.Errorf("config: trading.channel is required")
	}
	return nil
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

func boolFromEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if v == "1" || v == "true" || v == "TRUE" {
			return true
		}
		if v == "0" || v == "false" || v == "FALSE" {
			return false
		}
	}
	return def
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationFromEnv(key, def string) time.Duration {
	val := getenvDefault(key, def)
	d, err := time.ParseDuration(val)
	if err != nil {
		d, _ = time.ParseDuration(def)
	}
	return d
}
