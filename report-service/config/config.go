package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/confload"
)

const (
	StorageS3    = "s3"
	StorageLocal = "local"

	DriverPostgres = "postgres"
	DriverDynamoDB = "dynamodb"
)

type Config struct {
	Server   ServerConfig   `json:"server" hcl:"server,block"`
	Log      LogConfig      `json:"log" hcl:"log,block"`
	Storage  StorageConfig  `json:"storage" hcl:"storage,block"`
	Store    StoreConfig    `json:"store" hcl:"store,block"`
	Database DatabaseConfig `json:"database" hcl:"database,block"`
	DynamoDB DynamoDBConfig `json:"dynamodb" hcl:"dynamodb,block"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq" hcl:"rabbitmq,block"`
}

type ServerConfig struct {
	Port string `json:"port" hcl:"port,optional"`
}

type LogConfig struct {
	Level  string `json:"level" hcl:"level,optional"`
	Format string `json:"format" hcl:"format,optional"`
}

// StorageConfig selects where uploaded photos go. In local mode the service
// signs and accepts the uploads itself under PublicBaseURL/uploads.
type StorageConfig struct {
	Mode          string `json:"mode" hcl:"mode,optional"`
	Bucket        string `json:"bucket" hcl:"bucket,optional"`
	Region        string `json:"region" hcl:"region,optional"`
	LocalRoot     string `json:"local_root" hcl:"local_root,optional"`
	Secret        string `json:"secret" hcl:"secret,optional" paramName:"/clickclean/upload/secret,secret"`
	PublicBaseURL string `json:"public_base_url" hcl:"public_base_url,optional"`
}

type StoreConfig struct {
	Driver string `json:"driver" hcl:"driver,optional"`
}

type DatabaseConfig struct {
	Host     string `json:"host" hcl:"host,optional"`
	Port     string `json:"port" hcl:"port,optional"`
	User     string `json:"user" hcl:"user,optional"`
	Password string `json:"password" hcl:"password,optional" paramName:"/clickclean/db/password,secret"`
	DBName   string `json:"dbname" hcl:"dbname,optional"`
}

type DynamoDBConfig struct {
	Table  string `json:"table" hcl:"table,optional"`
	Region string `json:"region" hcl:"region,optional"`
}

type RabbitMQConfig struct {
	Host     string `json:"host" hcl:"host,optional"`
	Port     string `json:"port" hcl:"port,optional"`
	User     string `json:"user" hcl:"user,optional"`
	Password string `json:"password" hcl:"password,optional" paramName:"/clickclean/rabbitmq/password,secret"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

func LoadConfig(path string) (*Config, error) {
	return load(path, nil)
}

// LoadConfigWithParams overlays the secrets tagged with paramName from the
// SSM parameter store before defaults and validation run.
func LoadConfigWithParams(ctx context.Context, path string, svc ssmiface.SSMAPI) (*Config, error) {
	return load(path, func(c *Config) error {
		return confload.LoadParams(ctx, svc, c)
	})
}

func load(path string, overlay func(*Config) error) (*Config, error) {
	var config Config
	if err := confload.Load(path, &config); err != nil {
		return nil, err
	}
	if overlay != nil {
		if err := overlay(&config); err != nil {
			return nil, err
		}
	}

	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8081"
	}
	if c.Storage.Mode == "" {
		c.Storage.Mode = StorageLocal
	}
	if c.Storage.LocalRoot == "" {
		c.Storage.LocalRoot = "data/uploads"
	}
	if c.Storage.PublicBaseURL == "" {
		c.Storage.PublicBaseURL = "http://localhost:" + c.Server.Port
	}
	if c.Store.Driver == "" {
		c.Store.Driver = DriverPostgres
	}
	if c.DynamoDB.Region == "" {
		c.DynamoDB.Region = c.Storage.Region
	}
}

func (c *Config) validate() error {
	switch c.Storage.Mode {
	case StorageS3:
		if c.Storage.Bucket == "" || c.Storage.Region == "" {
			return fmt.Errorf("storage: s3 mode needs bucket and region")
		}
	case StorageLocal:
		if c.Storage.Secret == "" {
			return fmt.Errorf("storage: local mode needs a signing secret")
		}
	default:
		return fmt.Errorf("storage: unknown mode %q", c.Storage.Mode)
	}

	switch c.Store.Driver {
	case DriverPostgres:
	case DriverDynamoDB:
		if c.DynamoDB.Table == "" || c.DynamoDB.Region == "" {
			return fmt.Errorf("dynamodb: table and region are required")
		}
	default:
		return fmt.Errorf("store: unknown driver %q", c.Store.Driver)
	}
	return nil
}
