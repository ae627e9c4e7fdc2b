package config

import (
	"github.com/vinittippanawar/click-clean-waste-reporting/internal/confload"
)

const (
	defaultPort          = "8080"
	defaultQuoteInterval = 7
)

type Config struct {
	Server ServerConfig `json:"server" hcl:"server,block"`
	API    APIConfig    `json:"api" hcl:"api,block"`
	Log    LogConfig    `json:"log" hcl:"log,block"`
}

type ServerConfig struct {
	Port string `json:"port" hcl:"port,optional"`
	// Seconds between quote banner rotations.
	QuoteIntervalSeconds int `json:"quote_interval_seconds" hcl:"quote_interval_seconds,optional"`
}

// APIConfig points at the report backend. BaseURL is the fixed endpoint that
// serves /upload-url and /reports.
type APIConfig struct {
	BaseURL string `json:"base_url" hcl:"base_url"`
}

type LogConfig struct {
	Level  string `json:"level" hcl:"level,optional"`
	Format string `json:"format" hcl:"format,optional"`
}

func LoadConfig(path string) (*Config, error) {
	var config Config
	if err := confload.Load(path, &config); err != nil {
		return nil, err
	}

	if config.Server.Port == "" {
		config.Server.Port = defaultPort
	}
	if config.Server.QuoteIntervalSeconds <= 0 {
		config.Server.QuoteIntervalSeconds = defaultQuoteInterval
	}

	return &config, nil
}
