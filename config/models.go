package config

import "time"

type AuthConfig struct {
	Secret            string `mapstructure:"secret" validate:"required"`
	AdminPasswordHash string `mapstructure:"admin_password_hash" validate:"required"`
	ExpiryMin         int    `mapstructure:"expiry_min" validate:"gt=0"`
}

type DBConfig struct {
	URL             string        `mapstructure:"url" validate:"required"`
	MaxOpenConns    int32         `mapstructure:"max_open_conns"`
	MinIdleConns    int32         `mapstructure:"min_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	HealthTimeout   time.Duration `mapstructure:"health_timeout"`
}

// RedisConfig is optional, an empty Addr disables the status overview cache.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// WorkerConfig drives the evaluator loop. IntervalSec maps to the
// WORKER_INTERVAL_SEC environment variable.
type WorkerConfig struct {
	IntervalSec int `mapstructure:"interval_sec" validate:"gt=0"`
}

type NotifierConfig struct {
	TimeoutSec  int `mapstructure:"timeout_sec" validate:"gt=0"`
	WorkerCount int `mapstructure:"worker_count" validate:"gt=0"`
	ChannelSize int `mapstructure:"channel_size" validate:"gt=0"`
}

// RabbitMQConfig is optional, an empty BrokerLink disables transition
// event publishing.
type RabbitMQConfig struct {
	BrokerLink   string `mapstructure:"broker_link"`
	ExchangeName string `mapstructure:"exchange_name"`
	ExchangeType string `mapstructure:"exchange_type"`
	RoutingKey   string `mapstructure:"routing_key"`
}

type Config struct {
	Port        int             `mapstructure:"port"`
	Env         string          `mapstructure:"env"`
	ServiceName string          `mapstructure:"service_name"`
	DB          *DBConfig       `mapstructure:"db" validate:"required"`
	Auth        *AuthConfig     `mapstructure:"auth" validate:"required"`
	Worker      *WorkerConfig   `mapstructure:"worker"`
	Notifier    *NotifierConfig `mapstructure:"notifier"`
	Redis       *RedisConfig    `mapstructure:"redis"`
	RabbitMQ    *RabbitMQConfig `mapstructure:"rabbitmq"`
}
