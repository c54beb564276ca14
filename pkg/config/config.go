package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"digitpulse/pkg/util"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Deriv struct {
		APIToken       string        `yaml:"api_token"`
		AppID          string        `yaml:"app_id"`
		WebSocketURL   string        `yaml:"websocket_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"deriv"`
	Ticks struct {
		WindowCapacity int           `yaml:"window_capacity"` // ring size per symbol
		FetchTimeout   time.Duration `yaml:"fetch_timeout"`
		StatsCacheTTL  time.Duration `yaml:"stats_cache_ttl"`
		MaxRPS         int           `yaml:"max_rps"`     // per-symbol pipeline throttle
		BufferSize     int           `yaml:"buffer_size"` // pipeline retry buffer
	} `yaml:"ticks"`
	Execution struct {
		// Mode selects the SubmitDecision backend: "simulated" or "deriv".
		Mode          string        `yaml:"mode"`
		Payout        float64       `yaml:"payout"` // win payout fraction of stake
		SettleTimeout time.Duration `yaml:"settle_timeout"`
	} `yaml:"execution"`
	History struct {
		// Backend routes PersistTrade: "clickhouse", "kafka", or "none".
		Backend      string        `yaml:"backend"`
		QueueWorkers int           `yaml:"queue_workers"`
		QueueSize    int           `yaml:"queue_size"`
		RetryLimit   int           `yaml:"retry_limit"`
		RetryDelay   time.Duration `yaml:"retry_delay"`
	} `yaml:"history"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.Server.Port = util.ParseIntDefault(os.Getenv("PORT"), c.Server.Port)

	if v := os.Getenv("DERIV_API_TOKEN"); v != "" {
		c.Deriv.APIToken = v
	}
	if v := os.Getenv("DERIV_APP_ID"); v != "" {
		c.Deriv.AppID = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Deriv.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("EXECUTION_MODE"); v != "" {
		c.Execution.Mode = v
	}
	if v := os.Getenv("HISTORY_BACKEND"); v != "" {
		c.History.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Enabled = true
		c.Redis.Addr = v
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
	if c.Deriv.WebSocketURL == "" {
		c.Deriv.WebSocketURL = "wss://ws.derivws.com/websockets/v3"
	}
	if c.Deriv.AppID == "" {
		c.Deriv.AppID = "1089"
	}
	if c.Deriv.ReconnectDelay == 0 {
		c.Deriv.ReconnectDelay = 5 * time.Second
	}
	if c.Deriv.PingInterval == 0 {
		c.Deriv.PingInterval = 30 * time.Second
	}
	if c.Ticks.WindowCapacity == 0 {
		c.Ticks.WindowCapacity = 2000
	}
	if c.Ticks.FetchTimeout == 0 {
		c.Ticks.FetchTimeout = 2 * time.Second
	}
	if c.Ticks.StatsCacheTTL == 0 {
		c.Ticks.StatsCacheTTL = time.Second
	}
	if c.Execution.Mode == "" {
		c.Execution.Mode = "simulated"
	}
	if c.Execution.Payout == 0 {
		c.Execution.Payout = 0.95
	}
	if c.Execution.SettleTimeout == 0 {
		c.Execution.SettleTimeout = 30 * time.Second
	}
	if c.History.Backend == "" {
		c.History.Backend = "none"
	}
	if c.History.QueueWorkers == 0 {
		c.History.QueueWorkers = 2
	}
	if c.History.QueueSize == 0 {
		c.History.QueueSize = 1000
	}
	if c.History.RetryLimit == 0 {
		c.History.RetryLimit = 3
	}
	if c.History.RetryDelay == 0 {
		c.History.RetryDelay = 2 * time.Second
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if len(c.Deriv.Symbols) == 0 {
		return fmt.Errorf("deriv.symbols cannot be empty")
	}
	switch c.Execution.Mode {
	case "simulated":
	case "deriv":
		if c.Deriv.APIToken == "" {
			return fmt.Errorf("deriv.api_token is required when execution.mode is 'deriv'")
		}
	default:
		return fmt.Errorf("execution.mode must be 'simulated' or 'deriv', got '%s'", c.Execution.Mode)
	}
	switch c.History.Backend {
	case "none", "clickhouse", "kafka":
	default:
		return fmt.Errorf("history.backend must be 'none', 'clickhouse' or 'kafka', got '%s'", c.History.Backend)
	}
	if c.Execution.Payout <= 0 || c.Execution.Payout > 1 {
		return fmt.Errorf("execution.payout must be in (0,1], got %v", c.Execution.Payout)
	}
	return nil
}
