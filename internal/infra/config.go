package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"trove_go/internal/domain"
	"trove_go/pkg/quant"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultUserAgent is sent by the HTTP price poller
	DefaultUserAgent = "trovecheck/1.0 (+https://github.com/liquity)"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수로 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Protocol struct {
		domain.Params `yaml:",inline"`
		// BorrowingRate is the rate used until the feed reports one.
		BorrowingRate decimal.Decimal `yaml:"borrowing_rate"`
	} `yaml:"protocol"`

	PriceFeed struct {
		WSURL           string `yaml:"ws_url"`
		Symbol          string `yaml:"symbol"`
		PollURL         string `yaml:"poll_url"`
		PollIntervalSec int    `yaml:"poll_interval_sec"`
	} `yaml:"price_feed"`

	Storage struct {
		Path string `yaml:"path"`
	} `yaml:"storage"`

	Server struct {
		Addr string `yaml:"addr"`
		// RateLimit is POST /validate requests per second; 0 disables.
		RateLimit float64 `yaml:"rate_limit"`
		Burst     int     `yaml:"burst"`
	} `yaml:"server"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// DefaultConfig returns a config with mainnet protocol params and local
// defaults for everything else.
func DefaultConfig() *Config {
	var cfg Config
	cfg.App.Name = "trovecheck"
	cfg.App.Version = "dev"
	cfg.Protocol.Params = domain.DefaultParams()
	cfg.Protocol.BorrowingRate = cfg.Protocol.MinimumBorrowingRate
	cfg.PriceFeed.Symbol = "ETH-USD"
	cfg.PriceFeed.PollIntervalSec = 60
	cfg.Storage.Path = "data/trove.db"
	cfg.Server.Addr = ":9100"
	cfg.Server.RateLimit = 50
	cfg.Server.Burst = 100
	cfg.Logging.Level = "info"
	cfg.Logging.Dir = "logs"
	return &cfg
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
// Fields missing from the file keep their DefaultConfig values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrConfigNotFound, path)
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := overrideWithEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	if err := c.Protocol.Params.Validate(); err != nil {
		return err
	}

	rate := c.Protocol.BorrowingRate
	if rate.LessThan(c.Protocol.MinimumBorrowingRate) || rate.GreaterThan(c.Protocol.MaximumBorrowingRate) {
		return &domain.ConfigError{
			Field: "protocol.borrowing_rate",
			Err:   fmt.Errorf("%s outside [%s, %s]", rate, c.Protocol.MinimumBorrowingRate, c.Protocol.MaximumBorrowingRate),
		}
	}

	if u := c.PriceFeed.WSURL; u != "" && !strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") {
		return &domain.ConfigError{Field: "price_feed.ws_url", Err: fmt.Errorf("invalid websocket URL: %s", u)}
	}
	if u := c.PriceFeed.PollURL; u != "" && !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return &domain.ConfigError{Field: "price_feed.poll_url", Err: fmt.Errorf("invalid HTTP URL: %s", u)}
	}
	if c.PriceFeed.PollURL != "" && c.PriceFeed.PollIntervalSec <= 0 {
		return &domain.ConfigError{Field: "price_feed.poll_interval_sec", Err: errors.New("poll interval must be positive")}
	}

	if c.Server.RateLimit < 0 {
		return &domain.ConfigError{Field: "server.rate_limit", Err: quant.ErrNegative}
	}
	if c.Server.RateLimit > 0 && c.Server.Burst <= 0 {
		return &domain.ConfigError{Field: "server.burst", Err: errors.New("must be positive when rate limiting")}
	}

	if c.Storage.Path == "" {
		return &domain.ConfigError{Field: "storage.path", Err: errors.New("required")}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return &domain.ConfigError{Field: "logging.level", Err: fmt.Errorf("unknown level %q", c.Logging.Level)}
	}

	return nil
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) error {
	if v := os.Getenv("TROVE_WS_URL"); v != "" {
		cfg.PriceFeed.WSURL = v
	}
	if v := os.Getenv("TROVE_POLL_URL"); v != "" {
		cfg.PriceFeed.PollURL = v
	}
	if v := os.Getenv("TROVE_POLL_INTERVAL_SEC"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return &domain.ConfigError{Field: "TROVE_POLL_INTERVAL_SEC", Err: err}
		}
		cfg.PriceFeed.PollIntervalSec = n
	}
	if v := os.Getenv("TROVE_DB_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("TROVE_HTTP_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TROVE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TROVE_BORROWING_RATE"); v != "" {
		rate, err := quant.Parse(v)
		if err != nil {
			return &domain.ConfigError{Field: "TROVE_BORROWING_RATE", Err: err}
		}
		cfg.Protocol.BorrowingRate = rate
	}
	return nil
}
