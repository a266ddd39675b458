// internal/pkg/bootstrap/config.go
package bootstrap

import (
	"os"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// Config carries everything the binaries need to wire themselves up. Values
// come from an optional YAML file, with environment variables taking
// precedence for anything deployment-specific.
type Config struct {
	App struct {
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`
	Infra struct {
		Mysql struct {
			DSN string `yaml:"dsn"`
		} `yaml:"mysql"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
		Kafka struct {
			Brokers           []string `yaml:"brokers"`
			NotificationTopic string   `yaml:"notification_topic"`
		} `yaml:"kafka"`
		Mongo struct {
			URI      string `yaml:"uri"`
			Database string `yaml:"database"`
		} `yaml:"mongo"`
		Jaeger struct {
			Endpoint string `yaml:"endpoint"`
		} `yaml:"jaeger"`
	} `yaml:"infra"`
}

var currentConfig atomic.Pointer[Config]

// GetCurrentConfig returns the loaded configuration. Init must run first.
func GetCurrentConfig() *Config {
	return currentConfig.Load()
}

// Init loads configuration from the file named by CONFIG_PATH (if set) and
// then overlays environment variables. It is safe to call once at startup.
func Init() error {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return err
		}
	}

	overlayEnv(cfg)
	currentConfig.Store(cfg)
	return nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.App.LogLevel = "info"
	cfg.Infra.Mysql.DSN = "root:root@tcp(localhost:3306)/haggle?charset=utf8mb4&parseTime=True&loc=Local"
	cfg.Infra.Redis.Addr = "localhost:6379"
	cfg.Infra.Kafka.Brokers = []string{"localhost:9092"}
	cfg.Infra.Kafka.NotificationTopic = "offer-notifications"
	cfg.Infra.Mongo.URI = "mongodb://localhost:27017"
	cfg.Infra.Mongo.Database = "haggle"
	cfg.Infra.Jaeger.Endpoint = "http://localhost:14268/api/traces"
	return cfg
}

func overlayEnv(cfg *Config) {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.App.LogLevel = v
	}
	if v := os.Getenv("MYSQL_DSN"); v != "" {
		cfg.Infra.Mysql.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Infra.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Infra.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Infra.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("NOTIFICATION_TOPIC"); v != "" {
		cfg.Infra.Kafka.NotificationTopic = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		cfg.Infra.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.Infra.Mongo.Database = v
	}
	if v := os.Getenv("JAEGER_ENDPOINT"); v != "" {
		cfg.Infra.Jaeger.Endpoint = v
	}
}
