package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"
)

const (
	configFilePathENV = "CONFIG_FILE"
	okxAPIKeyENV      = "OKX_API_KEY"
	okxAPISecretENV   = "OKX_API_SECRET"
	okxPassphraseENV  = "OKX_PASSPHRASE"
	tokenTelegramENV  = "TELEGRAM_TOKEN"
	databaseDSN       = "DATABASE_DSN"
)

// Config ...
type Config struct {
	OKX struct {
		APIKey     string `yaml:"api_key"`
		APISecret  string `yaml:"api_secret"`
		Passphrase string `yaml:"passphrase"`
		Testnet    bool   `yaml:"testnet"`
	} `yaml:"okx"`

	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`

	DB      string `yaml:"db_dsn"`
	Service struct {
		Host       string `yaml:"host"`
		PublicPort int    `yaml:"public_port"`
	} `yaml:"service"`

	Jaeger struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"jaeger"`

	// Файл с параметрами стратегии (редактируется с дашборда).
	StrategyFile string `yaml:"strategy_file"`

	// Интервал периодического обновления информации аккаунта.
	AccountUpdateIntervalSeconds int `yaml:"account_update_interval_seconds"`
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
		StrategyFile:                 getenvDefault("STRATEGY_FILE", "configs/strategy.yaml"),
		AccountUpdateIntervalSeconds: intFromEnv("ACCOUNT_UPDATE_INTERVAL", 10),
	}
	err = decoder.Decode(&config)
	if err != nil {
		log.Fatalf("Failed to decode config file: %v", err)
	}

	if v := os.Getenv(okxAPIKeyENV); v != "" {
		config.OKX.APIKey = v
	}
	if v := os.Getenv(okxAPISecretENV); v != "" {
		config.OKX.APISecret = v
	}
	if v := os.Getenv(okxPassphraseENV); v != "" {
		config.OKX.Passphrase = v
	}

	token := os.Getenv(tokenTelegramENV)
	if token != "" {
		config.Telegram.Token = token
	}

	dsn := os.Getenv(databaseDSN)
	if dsn != "" {
		config.DB = dsn
	}

	if config.Service.PublicPort == 0 {
		config.Service.PublicPort = 5000
	}
	if config.AccountUpdateIntervalSeconds <= 0 {
		config.AccountUpdateIntervalSeconds = 10
	}
	if config.OKX.APIKey == "" || config.OKX.APISecret == "" || config.OKX.Passphrase == "" {
		return nil, fmt.Errorf("okx credentials are not configured")
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

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
