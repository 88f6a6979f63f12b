package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/maltedev/markaz-exporter/internal/browser"
	"github.com/maltedev/markaz-exporter/internal/events"
	"github.com/maltedev/markaz-exporter/internal/expand"
	"github.com/maltedev/markaz-exporter/internal/parser"
	"github.com/maltedev/markaz-exporter/internal/ratelimit"
	"github.com/maltedev/markaz-exporter/internal/render"
	"github.com/maltedev/markaz-exporter/internal/scraper"
)

type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Browser BrowserConfig  `mapstructure:"browser"`
	Scraper ScraperConfig  `mapstructure:"scraper"`
	Site    parser.Profile `mapstructure:"site"`
	Export  expand.Options `mapstructure:"export"`
	Redis   RedisConfig    `mapstructure:"redis"`
	Logging LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type BrowserConfig struct {
	Engine         string        `mapstructure:"engine" validate:"oneof=playwright chromedp static"`
	Headless       bool          `mapstructure:"headless"`
	Timeout        time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent      string        `mapstructure:"user_agent"`
	ViewportWidth  int           `mapstructure:"viewport_width" validate:"gte=0"`
	ViewportHeight int           `mapstructure:"viewport_height" validate:"gte=0"`
	AcceptLanguage string        `mapstructure:"accept_language"`
	TimezoneID     string        `mapstructure:"timezone"`
	Locale         string        `mapstructure:"locale"`
	ExecPath       string        `mapstructure:"exec_path"`
}

type ScraperConfig struct {
	MarkerTimeout time.Duration `mapstructure:"marker_timeout" validate:"gt=0"`
	AllowedHosts  []string      `mapstructure:"allowed_hosts"`
	DelayMin      time.Duration `mapstructure:"delay_min" validate:"gte=0"`
	DelayMax      time.Duration `mapstructure:"delay_max" validate:"gte=0"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"gte=0"`
	Stream   string `mapstructure:"stream"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	b := browser.DefaultOptions()
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Browser: BrowserConfig{
			Engine:         render.EnginePlaywright,
			Headless:       b.Headless,
			Timeout:        b.Timeout,
			UserAgent:      b.UserAgent,
			ViewportWidth:  b.ViewportWidth,
			ViewportHeight: b.ViewportHeight,
			AcceptLanguage: b.AcceptLanguage,
			TimezoneID:     b.TimezoneID,
			Locale:         b.Locale,
		},
		Scraper: ScraperConfig{
			MarkerTimeout: scraper.DefaultOptions().MarkerTimeout,
			AllowedHosts:  []string{"markaz.app"},
			DelayMin:      2 * time.Second,
			DelayMax:      5 * time.Second,
		},
		Site:   parser.DefaultProfile(),
		Export: expand.DefaultOptions(),
		Redis: RedisConfig{
			Stream: events.DefaultStream,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Option customizes the viper instance before the config is decoded.
type Option func(v *viper.Viper) error

// WithFlag binds a command-line flag to a config key. A flag that was set
// explicitly wins over every other source.
func WithFlag(key string, flag *pflag.Flag) Option {
	return func(v *viper.Viper) error {
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag.Name, err)
		}
		return nil
	}
}

// Load reads .env (if present), the optional YAML config file, the
// environment and bound flags, in increasing order of precedence.
// Environment keys are the config keys upper-cased with dots replaced by
// underscores, for example BROWSER_ENGINE or SCRAPER_MARKER_TIMEOUT.
func Load(configFile string, opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	cfg := Default()
	setDefaults(v, cfg)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setDefaults registers every overridable scalar key so AutomaticEnv can
// resolve it. Site profile lists are only overridable from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.allowed_origins", d.Server.AllowedOrigins)

	v.SetDefault("browser.engine", d.Browser.Engine)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.timeout", d.Browser.Timeout)
	v.SetDefault("browser.user_agent", d.Browser.UserAgent)
	v.SetDefault("browser.viewport_width", d.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", d.Browser.ViewportHeight)
	v.SetDefault("browser.accept_language", d.Browser.AcceptLanguage)
	v.SetDefault("browser.timezone", d.Browser.TimezoneID)
	v.SetDefault("browser.locale", d.Browser.Locale)
	v.SetDefault("browser.exec_path", d.Browser.ExecPath)

	v.SetDefault("scraper.marker_timeout", d.Scraper.MarkerTimeout)
	v.SetDefault("scraper.allowed_hosts", d.Scraper.AllowedHosts)
	v.SetDefault("scraper.delay_min", d.Scraper.DelayMin)
	v.SetDefault("scraper.delay_max", d.Scraper.DelayMax)

	v.SetDefault("site.typography_selector", d.Site.TypographySelector)
	v.SetDefault("site.container_selector", d.Site.ContainerSelector)
	v.SetDefault("site.currency_marker", d.Site.CurrencyMarker)
	v.SetDefault("site.breadcrumb_prefix", d.Site.BreadcrumbPrefix)
	v.SetDefault("site.product_code_label", d.Site.ProductCodeLabel)

	v.SetDefault("export.vendor", d.Export.Vendor)
	v.SetDefault("export.inventory_qty", d.Export.InventoryQty)
	v.SetDefault("export.inventory_tracker", d.Export.InventoryTracker)
	v.SetDefault("export.inventory_policy", d.Export.InventoryPolicy)
	v.SetDefault("export.fulfillment_service", d.Export.FulfillmentService)
	v.SetDefault("export.weight_unit", d.Export.WeightUnit)
	v.SetDefault("export.tiered_markup", d.Export.TieredMarkup)

	v.SetDefault("redis.addr", d.Redis.Addr)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.stream", d.Redis.Stream)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Scraper.DelayMin > c.Scraper.DelayMax {
		return fmt.Errorf("SCRAPER_DELAY_MIN cannot be greater than SCRAPER_DELAY_MAX")
	}

	return nil
}

// Enabled reports whether scrape events should be published.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

func (b BrowserConfig) PlaywrightOptions() *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = b.Headless
	opts.Timeout = b.Timeout
	opts.UserAgent = b.UserAgent
	opts.ViewportWidth = b.ViewportWidth
	opts.ViewportHeight = b.ViewportHeight
	opts.AcceptLanguage = b.AcceptLanguage
	opts.TimezoneID = b.TimezoneID
	opts.Locale = b.Locale
	return opts
}

func (b BrowserConfig) ChromedpOptions() render.ChromedpOptions {
	return render.ChromedpOptions{
		Headless:  b.Headless,
		UserAgent: b.UserAgent,
		Timeout:   b.Timeout,
		ExecPath:  b.ExecPath,
	}
}

func (s ScraperConfig) Options() scraper.Options {
	return scraper.Options{
		MarkerTimeout: s.MarkerTimeout,
		AllowedHosts:  s.AllowedHosts,
	}
}

func (s ScraperConfig) Limiter() ratelimit.Limiter {
	if s.DelayMax <= 0 {
		return ratelimit.Noop{}
	}
	return ratelimit.NewDelay(s.DelayMin, s.DelayMax)
}
