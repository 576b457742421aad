// File: internal/config/config.go
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Backend names accepted in drivers[].backend.
const (
	BackendChromedp   = "chromedp"
	BackendPlaywright = "playwright"
	BackendWebDriver  = "webdriver"
)

// Interface defines the contract for accessing application configuration.
type Interface interface {
	Logger() LoggerConfig
	Site() SiteConfig
	Drivers() []DriverConfig
	Driver(name string) (DriverConfig, bool)
	Timeouts() TimeoutsConfig
	Diagnostics() DiagnosticsConfig
	Run() RunConfig
	SetRunConfig(rc RunConfig)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg      LoggerConfig      `mapstructure:"logger" yaml:"logger"`
	SiteCfg        SiteConfig        `mapstructure:"site" yaml:"site"`
	DriversCfg     []DriverConfig    `mapstructure:"drivers" yaml:"drivers"`
	TimeoutsCfg    TimeoutsConfig    `mapstructure:"timeouts" yaml:"timeouts"`
	DiagnosticsCfg DiagnosticsConfig `mapstructure:"diagnostics" yaml:"diagnostics"`
	RunCfg         RunConfig         `mapstructure:"run" yaml:"run"`
}

var _ Interface = (*Config)(nil)

func (c *Config) Logger() LoggerConfig           { return c.LoggerCfg }
func (c *Config) Site() SiteConfig               { return c.SiteCfg }
func (c *Config) Drivers() []DriverConfig        { return c.DriversCfg }
func (c *Config) Timeouts() TimeoutsConfig       { return c.TimeoutsCfg }
func (c *Config) Diagnostics() DiagnosticsConfig { return c.DiagnosticsCfg }
func (c *Config) Run() RunConfig                 { return c.RunCfg }

// SetRunConfig replaces the run section, which the CLI fills from its flags.
func (c *Config) SetRunConfig(rc RunConfig) { c.RunCfg = rc }

// Driver returns the driver configured under name.
func (c *Config) Driver(name string) (DriverConfig, bool) {
	for _, d := range c.DriversCfg {
		if d.Name == name {
			return d, true
		}
	}
	return DriverConfig{}, false
}

// LoggerConfig holds the logging settings.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names used for each log level on the console.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// SiteConfig locates the application under test.
type SiteConfig struct {
	Scheme string `mapstructure:"scheme" yaml:"scheme"`
	Host   string `mapstructure:"host" yaml:"host"`
	Port   int    `mapstructure:"port" yaml:"port"`
	Path   string `mapstructure:"path" yaml:"path"`
}

// URL composes the site's base URL. A zero port is left out.
func (s SiteConfig) URL() string {
	host := s.Host
	if s.Port != 0 {
		host = net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	}
	u := url.URL{Scheme: s.Scheme, Host: host, Path: s.Path}
	if u.Path == "" {
		u.Path = "/"
	}
	return u.String()
}

// DriverConfig describes one named browser the suite can run against.
type DriverConfig struct {
	Name    string `mapstructure:"name" yaml:"name"`
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Browser picks the engine for backends that drive several
	// (playwright: chromium, firefox, webkit; webdriver: chrome, firefox).
	Browser   string   `mapstructure:"browser" yaml:"browser"`
	Headless  bool     `mapstructure:"headless" yaml:"headless"`
	Args      []string `mapstructure:"args" yaml:"args"`
	RemoteURL string   `mapstructure:"remote_url" yaml:"remote_url"`
	ExecPath  string   `mapstructure:"exec_path" yaml:"exec_path"`
	// DriverPath and DriverPort start a local chromedriver for the
	// webdriver backend when no remote_url is given.
	DriverPath    string        `mapstructure:"driver_path" yaml:"driver_path"`
	DriverPort    int           `mapstructure:"driver_port" yaml:"driver_port"`
	WindowWidth   int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight  int           `mapstructure:"window_height" yaml:"window_height"`
	Install       bool          `mapstructure:"install" yaml:"install"`
	ActionTimeout time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// BrowserName returns Browser, or the engine the backend launches when
// Browser is unset.
func (d DriverConfig) BrowserName() string {
	if d.Browser != "" {
		return d.Browser
	}
	if d.Backend == BackendPlaywright {
		return "chromium"
	}
	return "chrome"
}

// TimeoutsConfig holds the waits used by page objects and sessions.
type TimeoutsConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	PageIdentity time.Duration `mapstructure:"page_identity" yaml:"page_identity"`
	Click        time.Duration `mapstructure:"click" yaml:"click"`
	SessionStart time.Duration `mapstructure:"session_start" yaml:"session_start"`
	SessionClose time.Duration `mapstructure:"session_close" yaml:"session_close"`
}

// DiagnosticsConfig controls the artifacts written when a step fails.
type DiagnosticsConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	ScreenshotDir string        `mapstructure:"screenshot_dir" yaml:"screenshot_dir"`
	CaptureHTML   bool          `mapstructure:"capture_html" yaml:"capture_html"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// RunConfig controls one invocation of the feature suite.
type RunConfig struct {
	Features    []string `mapstructure:"features" yaml:"features"`
	Tags        string   `mapstructure:"tags" yaml:"tags"`
	Format      string   `mapstructure:"format" yaml:"format"`
	Drivers     []string `mapstructure:"drivers" yaml:"drivers"`
	Parallelism int      `mapstructure:"parallelism" yaml:"parallelism"`
	Strict      bool     `mapstructure:"strict" yaml:"strict"`
	StopOnFail  bool     `mapstructure:"stop_on_failure" yaml:"stop_on_failure"`
}

// NewDefaultConfig returns a configuration populated with the defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "uibdd")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Site --
	v.SetDefault("site.scheme", "http")
	v.SetDefault("site.host", "127.0.0.1")
	v.SetDefault("site.port", 8080)
	v.SetDefault("site.path", "")

	// -- Drivers --
	v.SetDefault("drivers", []map[string]any{
		{"name": "chrome-headless", "backend": BackendChromedp, "headless": true},
	})

	// -- Timeouts --
	v.SetDefault("timeouts.poll_interval", "500ms")
	v.SetDefault("timeouts.page_identity", "3s")
	v.SetDefault("timeouts.click", "10s")
	v.SetDefault("timeouts.session_start", "60s")
	v.SetDefault("timeouts.session_close", "15s")

	// -- Diagnostics --
	v.SetDefault("diagnostics.enabled", true)
	v.SetDefault("diagnostics.screenshot_dir", "")
	v.SetDefault("diagnostics.capture_html", true)
	v.SetDefault("diagnostics.timeout", "10s")

	// -- Run --
	v.SetDefault("run.features", []string{})
	v.SetDefault("run.tags", "")
	v.SetDefault("run.format", "pretty")
	v.SetDefault("run.drivers", []string{})
	v.SetDefault("run.parallelism", 1)
	v.SetDefault("run.strict", true)
	v.SetDefault("run.stop_on_failure", false)
}

// NewConfigFromViper decodes and validates the configuration held by v.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The screenshot directory keeps its historical variable name.
	_ = v.BindEnv("diagnostics.screenshot_dir", "UIBDD_DIAGNOSTICS_SCREENSHOT_DIR", "SCREENSHOT_DIR")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the harness cannot run with.
func (c *Config) Validate() error {
	if c.SiteCfg.Host == "" {
		return fmt.Errorf("site.host is a required configuration field")
	}
	switch c.SiteCfg.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("site.scheme must be http or https, got %q", c.SiteCfg.Scheme)
	}
	if c.SiteCfg.Port < 0 || c.SiteCfg.Port > 65535 {
		return fmt.Errorf("site.port %d is out of range", c.SiteCfg.Port)
	}

	if len(c.DriversCfg) == 0 {
		return fmt.Errorf("at least one driver must be configured")
	}
	seen := make(map[string]bool, len(c.DriversCfg))
	for i, d := range c.DriversCfg {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("drivers[%d]: %w", i, err)
		}
		if seen[d.Name] {
			return fmt.Errorf("drivers[%d]: duplicate driver name %q", i, d.Name)
		}
		seen[d.Name] = true
	}

	t := c.TimeoutsCfg
	for name, d := range map[string]time.Duration{
		"timeouts.poll_interval": t.PollInterval,
		"timeouts.page_identity": t.PageIdentity,
		"timeouts.click":         t.Click,
		"timeouts.session_start": t.SessionStart,
		"timeouts.session_close": t.SessionClose,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}
	}

	if c.RunCfg.Parallelism <= 0 {
		return fmt.Errorf("run.parallelism must be a positive integer")
	}
	for _, name := range c.RunCfg.Drivers {
		if !seen[name] {
			return fmt.Errorf("run.drivers: unknown driver %q", name)
		}
	}
	return nil
}

// Validate checks a single driver entry.
func (d DriverConfig) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("name is required")
	}
	switch d.Backend {
	case BackendChromedp, BackendPlaywright:
	case BackendWebDriver:
		if d.RemoteURL == "" && d.DriverPath == "" {
			return fmt.Errorf("driver %q: webdriver backend needs remote_url or driver_path", d.Name)
		}
	default:
		return fmt.Errorf("driver %q: unknown backend %q", d.Name, d.Backend)
	}
	return nil
}
