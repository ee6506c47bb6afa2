// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"video-dispatcher/internal/domain"
	"video-dispatcher/internal/tracing"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the dispatcher.
// The mapstructure tags are used by Viper to unmarshal the data.
type Config struct {
	// Compute launch
	TaskDefinition string   `mapstructure:"fargate_task_definition" validate:"required"`
	Cluster        string   `mapstructure:"fargate_cluster" validate:"required"`
	Subnets        []string `mapstructure:"fargate_subnet" validate:"required,min=1,dive,required"`
	SecurityGroups []string `mapstructure:"fargate_security_group" validate:"required,min=1,dive,required"`
	ContainerName  string   `mapstructure:"fargate_container_name" validate:"required"`
	OutputBucket   string   `mapstructure:"output_bucket" validate:"required"`

	// Tracking API
	APIBaseURL      string        `mapstructure:"api_base_url" validate:"required,url"`
	APIKey          string        `mapstructure:"internal_api_key" validate:"required"`
	TrackingTimeout time.Duration `mapstructure:"tracking_timeout" validate:"gt=0"`

	ContinueOnError bool `mapstructure:"dispatch_continue_on_error"`

	// Storage
	AWSRegion   string `mapstructure:"aws_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint" validate:"required"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`

	// Service intake
	HttpListenAddr   string   `mapstructure:"http_listen_addr"`
	WebhookAuthToken string   `mapstructure:"webhook_auth_token"`
	KafkaBrokers     []string `mapstructure:"kafka_brokers"`
	KafkaTopic       string   `mapstructure:"kafka_topic"`
	KafkaGroupID     string   `mapstructure:"kafka_group_id"`

	// Observability
	LogLevel         string  `mapstructure:"log_level" validate:"oneof=debug info warn warning error"`
	TraceExporter    string  `mapstructure:"trace_exporter" validate:"oneof=stdout none"`
	TraceSampleRatio float64 `mapstructure:"trace_sample_ratio" validate:"gt=0,max=1"`
	ServiceName      string  `mapstructure:"service_name"`
}

// keys lists every setting so that environment-only values reach Unmarshal.
// Each key is read from the upper-cased environment variable of the same name.
var keys = []string{
	"fargate_task_definition", "fargate_cluster", "fargate_subnet", "fargate_security_group",
	"fargate_container_name", "output_bucket", "api_base_url", "internal_api_key", "tracking_timeout",
	"dispatch_continue_on_error", "aws_region", "s3_endpoint", "s3_use_ssl", "s3_access_key",
	"s3_secret_key", "http_listen_addr", "webhook_auth_token", "kafka_brokers", "kafka_topic",
	"kafka_group_id", "log_level", "trace_exporter", "trace_sample_ratio", "service_name",
}

// Load loads configuration from file and environment variables and validates it.
// A missing required value is returned as an error; callers treat it as fatal.
func Load() (*Config, error) {
	vp := viper.New()

	// Set default values
	vp.SetDefault("fargate_container_name", domain.DefaultContainerName)
	vp.SetDefault("tracking_timeout", "10s")
	vp.SetDefault("dispatch_continue_on_error", false)
	vp.SetDefault("s3_endpoint", "s3.amazonaws.com")
	vp.SetDefault("s3_use_ssl", true)
	vp.SetDefault("http_listen_addr", ":8080")
	vp.SetDefault("kafka_topic", "bucket-events")
	vp.SetDefault("kafka_group_id", "video-dispatcher")
	vp.SetDefault("log_level", "info")
	vp.SetDefault("trace_exporter", "stdout")
	vp.SetDefault("trace_sample_ratio", 1.0)
	vp.SetDefault("service_name", "video-dispatcher")

	// Set config file details
	vp.SetConfigName("config")
	vp.SetConfigType("yaml")
	vp.AddConfigPath("./configs")
	vp.AddConfigPath(".")

	// Read the config file
	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables use the upper-case key, e.g. FARGATE_CLUSTER.
	for _, key := range keys {
		if err := vp.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.Subnets = splitList(cfg.Subnets)
	cfg.SecurityGroups = splitList(cfg.SecurityGroups)
	cfg.KafkaBrokers = splitList(cfg.KafkaBrokers)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("mapstructure")
	})

	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", strings.ToUpper(fe.Field()), fe.Tag()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(fields, ", "))
}

// LaunchSpec extracts the static launch parameters.
func (c *Config) LaunchSpec() domain.LaunchSpec {
	return domain.LaunchSpec{
		Cluster:        c.Cluster,
		TaskDefinition: c.TaskDefinition,
		Subnets:        c.Subnets,
		SecurityGroups: c.SecurityGroups,
		ContainerName:  c.ContainerName,
		OutputBucket:   c.OutputBucket,
		APIBaseURL:     c.APIBaseURL,
		APIKey:         c.APIKey,
	}
}

// TracingOptions maps the observability settings onto the tracer setup.
func (c *Config) TracingOptions() tracing.Options {
	return tracing.Options{
		ServiceName: c.ServiceName,
		Exporter:    c.TraceExporter,
		SampleRatio: c.TraceSampleRatio,
	}
}

// splitList flattens comma-separated entries and drops blanks.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
