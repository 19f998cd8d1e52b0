package config

import (
	"time"

	yamlenv "github.com/ifuryst/go-yaml-env"

	"github.com/ifuryst/scriptforge/pkg/logger"
)

type Config struct {
	Server             ServerConfig             `yaml:"server"`
	Database           DatabaseConfig           `yaml:"database"`
	RestrictedDatabase RestrictedDatabaseConfig `yaml:"restricted_database"`
	Logger             logger.Config            `yaml:"logger"`
	Workflow           WorkflowConfig           `yaml:"workflow"`
	Help               HelpConfig               `yaml:"help"`
	RateLimit          RateLimitConfig          `yaml:"rate_limit"`
	Monitor            MonitorConfig            `yaml:"monitor"`
	Metrics            MetricsConfig            `yaml:"metrics"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Host     string `yaml:"host"`
	Mode     string `yaml:"mode"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// DatabaseConfig holds the elevated (service role) credentials.
type DatabaseConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	SSLMode     string `yaml:"ssl_mode"`
	TimeZone    string `yaml:"timezone"`
	SkipMigrate bool   `yaml:"skip_migrate"`
}

// RestrictedDatabaseConfig is the read-only fallback tier. An empty URL
// disables the fallback.
type RestrictedDatabaseConfig struct {
	URL string `yaml:"url"`
}

type WorkflowConfig struct {
	Transport  string        `yaml:"transport"` // webhook | amqp
	WebhookURL string        `yaml:"webhook_url"`
	AMQP       AMQPConfig    `yaml:"amqp"`
	Timeout    time.Duration `yaml:"timeout"`
	ETASeconds int           `yaml:"eta_seconds"`
}

type AMQPConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
}

type HelpConfig struct {
	WebhookURL string `yaml:"webhook_url"`
}

type RateLimitConfig struct {
	MaxSubmissions int           `yaml:"max_submissions"`
	Window         time.Duration `yaml:"window"`
}

type MonitorConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

func LoadConfig(configPath string) (*Config, error) {
	cfg, err := yamlenv.LoadConfig[Config](configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills every unset field with its default value.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5334
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "debug"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.TimeZone == "" {
		cfg.Database.TimeZone = "UTC"
	}
	if cfg.Workflow.Transport == "" {
		cfg.Workflow.Transport = "webhook"
	}
	if cfg.Workflow.Timeout == 0 {
		cfg.Workflow.Timeout = 30 * time.Second
	}
	if cfg.Workflow.ETASeconds == 0 {
		cfg.Workflow.ETASeconds = 90
	}
	if cfg.Workflow.AMQP.Exchange == "" {
		cfg.Workflow.AMQP.Exchange = "scriptforge.submissions"
	}
	if cfg.Workflow.AMQP.RoutingKey == "" {
		cfg.Workflow.AMQP.RoutingKey = "generate"
	}
	if cfg.RateLimit.MaxSubmissions == 0 {
		cfg.RateLimit.MaxSubmissions = 10
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = time.Hour
	}
	if cfg.Monitor.Interval == 0 {
		cfg.Monitor.Interval = 5 * time.Minute
	}
	if cfg.Monitor.StaleAfter == 0 {
		cfg.Monitor.StaleAfter = 30 * time.Minute
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}
