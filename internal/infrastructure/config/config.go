// Package config loads the process configuration of the checkout service.
// Values come from an optional YAML file and are overridden by environment
// variables.
package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Port    string `yaml:"port" env:"PORT" env-default:"8080"`
	GinMode string `yaml:"gin_mode" env:"GIN_MODE" env-default:"release"`

	AWS struct {
		Region           string `yaml:"region" env:"AWS_REGION" env-default:"us-east-1"`
		AccessKeyID      string `yaml:"access_key_id" env:"AWS_ACCESS_KEY_ID" env-default:"local"`
		SecretAccessKey  string `yaml:"secret_access_key" env:"AWS_SECRET_ACCESS_KEY" env-default:"local"`
		DynamoDBEndpoint string `yaml:"dynamodb_endpoint" env:"DYNAMODB_ENDPOINT" env-default:""`
	} `yaml:"aws"`

	Tables Tables `yaml:"tables"`

	// OrderNumberPrefix is the leading segment of human-readable order numbers.
	OrderNumberPrefix string `yaml:"order_number_prefix" env:"ORDER_NUMBER_PREFIX" env-default:"LJ"`
}

// Tables names every DynamoDB table the service touches.
type Tables struct {
	Orders          string `yaml:"orders" env:"ORDERS_TABLE" env-default:"orders"`
	OrderItems      string `yaml:"order_items" env:"ORDER_ITEMS_TABLE" env-default:"order_items"`
	OrderNumbers    string `yaml:"order_numbers" env:"ORDER_NUMBERS_TABLE" env-default:"order_numbers"`
	IdempotencyKeys string `yaml:"idempotency_keys" env:"IDEMPOTENCY_TABLE" env-default:"idempotency_keys"`
	PaymentAttempts string `yaml:"payment_attempts" env:"PAYMENT_ATTEMPTS_TABLE" env-default:"payment_attempts"`
	Products        string `yaml:"products" env:"PRODUCTS_TABLE" env-default:"products"`
	Settings        string `yaml:"settings" env:"SETTINGS_TABLE" env-default:"settings"`
	Addresses       string `yaml:"addresses" env:"ADDRESSES_TABLE" env-default:"addresses"`
	Buyers          string `yaml:"buyers" env:"BUYERS_TABLE" env-default:"buyers"`
	Sessions        string `yaml:"sessions" env:"SESSIONS_TABLE" env-default:"sessions"`
}

// Load reads the configuration. With an empty path only the environment is
// consulted.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(cfg)
	} else {
		err = cleanenv.ReadConfig(path, cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(cfg, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}
	return cfg, nil
}
