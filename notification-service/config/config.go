package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"

	"github.com/vinittippanawar/click-clean-waste-reporting/internal/confload"
)

const (
	MailerSES = "ses"
	MailerLog = "log"
)

type Config struct {
	Server   ServerConfig   `json:"server" hcl:"server,block"`
	Log      LogConfig      `json:"log" hcl:"log,block"`
	Database DatabaseConfig `json:"database" hcl:"database,block"`
	RabbitMQ RabbitMQConfig `json:"rabbitmq" hcl:"rabbitmq,block"`
	Mail     MailConfig     `json:"mail" hcl:"mail,block"`
}

type ServerConfig struct {
	Port string `json:"port" hcl:"port,optional"`
}

type LogConfig struct {
	Level  string `json:"level" hcl:"level,optional"`
	Format string `json:"format" hcl:"format,optional"`
}

type DatabaseConfig struct {
	Host     string `json:"host" hcl:"host,optional"`
	Port     string `json:"port" hcl:"port,optional"`
	User     string `json:"user" hcl:"user,optional"`
	Password string `json:"password" hcl:"password,optional" paramName:"/clickclean/db/password,secret"`
	DBName   string `json:"dbname" hcl:"dbname,optional"`
}

type RabbitMQConfig struct {
	Host     string `json:"host" hcl:"host,optional"`
	Port     string `json:"port" hcl:"port,optional"`
	User     string `json:"user" hcl:"user,optional"`
	Password string `json:"password" hcl:"password,optional" paramName:"/clickclean/rabbitmq/password,secret"`
}

// MailConfig configures outgoing email. The log driver writes mails to the
// service log instead of sending them.
type MailConfig struct {
	Driver     string `json:"driver" hcl:"driver,optional"`
	Region     string `json:"region" hcl:"region,optional"`
	Sender     string `json:"sender" hcl:"sender,optional" paramName:"/clickclean/mail/sender"`
	AdminEmail string `json:"admin_email" hcl:"admin_email,optional" paramName:"/clickclean/mail/admin_email"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Password, d.DBName)
}

func LoadConfig(path string) (*Config, error) {
	return load(path, nil)
}

// LoadConfigWithParams overlays the values tagged with paramName from the
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

	if config.Server.Port == "" {
		config.Server.Port = "8082"
	}
	if config.Mail.Driver == "" {
		config.Mail.Driver = MailerLog
	}

	switch config.Mail.Driver {
	case MailerSES:
		if config.Mail.Region == "" {
			return nil, fmt.Errorf("mail: ses driver needs a region")
		}
	case MailerLog:
	default:
		return nil, fmt.Errorf("mail: unknown driver %q", config.Mail.Driver)
	}
	if config.Mail.Sender == "" || config.Mail.AdminEmail == "" {
		return nil, fmt.Errorf("mail: sender and admin_email are required")
	}

	return &config, nil
}
