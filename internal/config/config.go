package config

import (
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	Host             string        `yaml:"host" env:"RELAY_HOST"`
	Port             int           `yaml:"port" env:"RELAY_PORT"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
	MaxBodyBytes     int64         `yaml:"max_body_bytes"`
}

func (s ServerConfig) Addr() string {
	return s.Host + ":" + strconv.Itoa(s.Port)
}

// UpstreamConfig describes the generation service the relay forwards to.
// BaseURL and APIKey are normally supplied through the environment.
type UpstreamConfig struct {
	BaseURL            string        `yaml:"base_url" env:"API_BASE_URL"`
	APIKey             string        `yaml:"api_key" env:"API_KEY"`
	Timeout            time.Duration `yaml:"timeout" env:"RELAY_UPSTREAM_TIMEOUT"`
	UserAgent          string        `yaml:"user_agent" env:"RELAY_USER_AGENT"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" env:"RELAY_INSECURE_SKIP_VERIFY"`
	GeneratePath       string        `yaml:"generate_path"`
	RewritePath        string        `yaml:"rewrite_path"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	MaxResponseBytes   int64         `yaml:"max_response_bytes"`
}

type TelemetryConfig struct {
	LogLevel        string  `yaml:"log_level" env:"RELAY_LOG_LEVEL"`
	LogFormat       string  `yaml:"log_format" env:"RELAY_LOG_FORMAT"`
	DebugErrors     bool    `yaml:"debug_errors" env:"RELAY_DEBUG_ERRORS"`
	ServiceName     string  `yaml:"service_name"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint" env:"RELAY_OTLP_ENDPOINT"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeout:      10 * time.Second,
			WriteTimeout:     60 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 30 * time.Second,
			MaxBodyBytes:     1 << 20,
		},
		Upstream: UpstreamConfig{
			Timeout:          30 * time.Second,
			UserAgent:        "text-generator-api/1.0",
			GeneratePath:     "/webhook/generate-sms",
			RewritePath:      "/webhook/rewrite-sms",
			MaxIdleConns:     32,
			MaxResponseBytes: 4 << 20,
		},
		Telemetry: TelemetryConfig{
			LogLevel:        "info",
			LogFormat:       "json",
			ServiceName:     "campaign-relay",
			TraceSampleRate: 0.1,
		},
	}
}
