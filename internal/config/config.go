// Package config loads dashboard settings from an optional YAML file and the
// environment, then validates them.
package config

import (
	"fmt"
	"time"

	"github.com/Zachdehooge/pothole-dashboard/internal/serrors"
	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full set of dashboard settings. Every field has an
// env-default, so an empty environment and no file yields a working config.
type Config struct {
	// Environment selects the logger flavour: development or production.
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment" validate:"oneof=development production"` //nolint: lll

	Fetch struct {
		// BaseURL is the SODA resource endpoint.
		BaseURL string `env:"FETCH_BASE_URL" env-default:"https://data.littlerock.gov/resource/2x6n-j9fb.json" yaml:"baseURL" validate:"required,url"` //nolint: lll
		// Limit is sent as $limit.
		Limit int `env:"FETCH_LIMIT" env-default:"5000" yaml:"limit" validate:"gte=1,lte=50000"`
		// Where is sent as $where.
		Where string `env:"FETCH_WHERE" env-default:"issue_sub_category like '%Pothole%' AND ticket_status = 'Open' AND latitude IS NOT NULL" yaml:"where"` //nolint: lll
		// Order is sent as $order.
		Order string `env:"FETCH_ORDER" env-default:"ticket_created_date_time DESC" yaml:"order"`
		// CategoryLimit bounds the category listing used when a query matches nothing.
		CategoryLimit int `env:"FETCH_CATEGORY_LIMIT" env-default:"20" yaml:"categoryLimit" validate:"gte=1"`
		// Timeout bounds a single HTTP attempt.
		Timeout time.Duration `env:"FETCH_TIMEOUT" env-default:"30s" yaml:"timeout" validate:"gt=0"`
		// MaxRetries is the number of retries after the first attempt on transient failures.
		MaxRetries int `env:"FETCH_MAX_RETRIES" env-default:"3" yaml:"maxRetries" validate:"gte=0,lte=10"`
		// AppToken is sent as X-App-Token when set.
		AppToken string `env:"FETCH_APP_TOKEN" yaml:"appToken"`
		// UserAgent is sent with every request.
		UserAgent string `env:"FETCH_USER_AGENT" env-default:"pothole-dashboard/1.0 (github.com/Zachdehooge/pothole-dashboard)" yaml:"userAgent"` //nolint: lll
	} `yaml:"fetch"`

	Ranking struct {
		StreetLimit        int `env:"RANKING_STREET_LIMIT" env-default:"10" yaml:"streetLimit" validate:"gte=1"`
		IntersectionCutoff int `env:"RANKING_INTERSECTION_CUTOFF" env-default:"10" yaml:"intersectionCutoff" validate:"gte=1"`
	} `yaml:"ranking"`

	Map struct {
		CenterLat float64 `env:"MAP_CENTER_LAT" env-default:"34.7465" yaml:"centerLat" validate:"gte=-90,lte=90"`
		CenterLon float64 `env:"MAP_CENTER_LON" env-default:"-92.2896" yaml:"centerLon" validate:"gte=-180,lte=180"`
		Zoom      int     `env:"MAP_ZOOM" env-default:"12" yaml:"zoom" validate:"gte=1,lte=19"`
	} `yaml:"map"`

	Output struct {
		MapPath    string `env:"OUTPUT_MAP_PATH" env-default:"map.html" yaml:"mapPath" validate:"required"`
		ReportPath string `env:"OUTPUT_REPORT_PATH" env-default:"stats.html" yaml:"reportPath" validate:"required"`
		// MetricsTextfile, when set, receives a Prometheus text dump after each build.
		MetricsTextfile string `env:"OUTPUT_METRICS_TEXTFILE" yaml:"metricsTextfile"`
	} `yaml:"output"`

	Watch struct {
		// Interval between rebuilds in watch mode.
		Interval time.Duration `env:"WATCH_INTERVAL" env-default:"5m" yaml:"interval" validate:"gt=0"`
	} `yaml:"watch"`

	HTTP struct {
		Addr              string        `env:"HTTP_ADDR" env-default:":8080" yaml:"addr" validate:"required"`
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"shutdownTimeout"`
	} `yaml:"http"`
}

// Load reads configPath (YAML) when it is non-empty, otherwise only the
// environment, and validates the result.
func Load(configPath string) (*Config, error) {
	var (
		cfg Config
		err error
	)
	if configPath == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints. Call it again after applying flag overrides.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return serrors.Wrap(serrors.ErrInvalidConfig, err, "invalid config")
	}

	return nil
}
