package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type EventsCfg struct {
	Enabled   bool
	Brokers   []string `validate:"required_if=Enabled true,dive,hostname_port"`
	Topic     string   `validate:"required_if=Enabled true"`
	QueueSize int      `validate:"gte=0"`
}

type Config struct {
	Addr            string        `validate:"required"`
	MetricsAddr     string        // empty serves /metrics on Addr only
	LogLevel        string        `validate:"oneof=debug info warn error"`
	LogConsole      bool
	LogSampleN      int           `validate:"gte=0"`
	UpstreamTimeout time.Duration `validate:"gt=0"`
	ServicesFile    string
	H3Res           int `validate:"gte=0,lte=15"`
	FailureHistory  int `validate:"gt=0"`
	Events          EventsCfg
}

func FromEnv() Config {
	return Config{
		Addr:            getenv("ADDR", ":8090"),
		MetricsAddr:     getenv("METRICS_ADDR", ""),
		LogLevel:        strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogConsole:      getbool("LOG_CONSOLE", false),
		LogSampleN:      getint("LOG_SAMPLE_N", 0),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 30*time.Second),
		ServicesFile:    getenv("SERVICES_FILE", ""),
		H3Res:           getint("H3_RES", 6),
		FailureHistory:  getint("FAILURE_HISTORY", 256),
		Events: EventsCfg{
			Enabled:   getbool("EVENTS_ENABLED", false),
			Brokers:   splitList(getenv("KAFKA_BROKERS", "localhost:9092")),
			Topic:     getenv("KAFKA_TOPIC", "ogc-query-events"),
			QueueSize: getint("EVENTS_QUEUE", 1024),
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the loaded values and reports the first offending field.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parse "a:9092, b:9092" into a list
func splitList(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
