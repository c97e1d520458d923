// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Target() TargetConfig
	Artifacts() ArtifactsConfig
	Timing() TimingConfig
	Scenario() ScenarioConfig
	Contract() ContractConfig
	HTTP() HTTPConfig

	// Overrides applied from CLI flags.
	SetTargetURL(string)
	SetArtifactsDir(string)
	SetContractPath(string)
	SetBrowserHeadless(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	TargetCfg    TargetConfig    `mapstructure:"target" yaml:"target"`
	ArtifactsCfg ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	TimingCfg    TimingConfig    `mapstructure:"timing" yaml:"timing"`
	ScenarioCfg  ScenarioConfig  `mapstructure:"scenario" yaml:"scenario"`
	ContractCfg  ContractConfig  `mapstructure:"contract" yaml:"contract"`
	HTTPCfg      HTTPConfig      `mapstructure:"http" yaml:"http"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig { return c.BrowserCfg }
func (c *Config) Target() TargetConfig { return c.TargetCfg }
func (c *Config) Artifacts() ArtifactsConfig { return c.ArtifactsCfg }
func (c *Config) Timing() TimingConfig { return c.TimingCfg }
func (c *Config) Scenario() ScenarioConfig { return c.ScenarioCfg }
func (c *Config) Contract() ContractConfig { return c.ContractCfg }
func (c *Config) HTTP() HTTPConfig { return c.HTTPCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetTargetURL(u string) { c.TargetCfg.URL = u }
func (c *Config) SetArtifactsDir(d string) { c.ArtifactsCfg.Dir = d }
func (c *Config) SetContractPath(p string) { c.ContractCfg.Path = p }
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }

// LoggerConfig holds all the configuration for the logger.
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

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the single headless browser instance.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	LaunchTimeout     time.Duration  `mapstructure:"launch_timeout" yaml:"launch_timeout"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	PostLoadWait      time.Duration  `mapstructure:"post_load_wait" yaml:"post_load_wait"`
}

// ViewportConfig is the fixed browser viewport.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// TargetConfig points the harness at the application under test.
type TargetConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// ArtifactsConfig controls where screenshots and run summaries are written.
type ArtifactsConfig struct {
	Dir          string `mapstructure:"dir" yaml:"dir"`
	WriteSummary bool   `mapstructure:"write_summary" yaml:"write_summary"`
}

// TimingConfig is the named timing policy of the harness. Every wait and settle
// delay in the scenario is read from here rather than written inline.
type TimingConfig struct {
	// GenerationTimeout bounds the wait for the generate button to return to its idle label.
	GenerationTimeout time.Duration `mapstructure:"generation_timeout" yaml:"generation_timeout"`
	PollInterval      time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// BusyGrace bounds the (non-fatal) wait for the busy label after clicking generate.
	BusyGrace    time.Duration `mapstructure:"busy_grace" yaml:"busy_grace"`
	SelectSettle time.Duration `mapstructure:"select_settle" yaml:"select_settle"`
	RenderSettle time.Duration `mapstructure:"render_settle" yaml:"render_settle"`
	// RenderTimeout bounds the render-ready condition when the page contract defines one.
	RenderTimeout time.Duration `mapstructure:"render_timeout" yaml:"render_timeout"`
}

// ScenarioConfig parameterizes the OpenCraftShop scenario.
type ScenarioConfig struct {
	SelectionTypes        []string `mapstructure:"selection_types" yaml:"selection_types"`
	BaselineType          string   `mapstructure:"baseline_type" yaml:"baseline_type"`
	AdditionalTypes       []string `mapstructure:"additional_types" yaml:"additional_types"`
	CutSampleLines        int      `mapstructure:"cut_sample_lines" yaml:"cut_sample_lines"`
	VerifyToggleRoundTrip bool     `mapstructure:"verify_toggle_roundtrip" yaml:"verify_toggle_roundtrip"`
}

// ContractConfig locates an optional page contract override file.
type ContractConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// HTTPConfig tunes the client used by the browserless API checks.
type HTTPConfig struct {
	RequestTimeout        time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	DialTimeout           time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	ResponseHeaderTimeout time.Duration `mapstructure:"response_header_timeout" yaml:"response_header_timeout"`
	IgnoreTLSErrors       bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	ForceHTTP2            bool          `mapstructure:"force_http2" yaml:"force_http2"`
	FollowRedirects       bool          `mapstructure:"follow_redirects" yaml:"follow_redirects"`
	ProxyURL              string        `mapstructure:"proxy_url" yaml:"proxy_url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "craftcheck")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", false)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.viewport.width", 1920)
	v.SetDefault("browser.viewport.height", 1080)
	v.SetDefault("browser.launch_timeout", "60s")
	v.SetDefault("browser.navigation_timeout", "60s")
	v.SetDefault("browser.post_load_wait", "0s")

	// -- Target --
	v.SetDefault("target.url", "http://web:5000")

	// -- Artifacts --
	v.SetDefault("artifacts.dir", "./screenshots")
	v.SetDefault("artifacts.write_summary", true)

	// -- Timing --
	v.SetDefault("timing.generation_timeout", "30s")
	v.SetDefault("timing.poll_interval", "100ms")
	v.SetDefault("timing.busy_grace", "2s")
	v.SetDefault("timing.select_settle", "500ms")
	v.SetDefault("timing.render_settle", "2s")
	v.SetDefault("timing.render_timeout", "10s")

	// -- Scenario --
	v.SetDefault("scenario.selection_types", []string{"workbench", "bookshelf", "bed_frame", "storage_bench"})
	v.SetDefault("scenario.baseline_type", "workbench")
	v.SetDefault("scenario.additional_types", []string{"bookshelf", "storage_bench"})
	v.SetDefault("scenario.cut_sample_lines", 10)
	v.SetDefault("scenario.verify_toggle_roundtrip", false)

	// -- Contract --
	v.SetDefault("contract.path", "")

	// -- HTTP --
	v.SetDefault("http.request_timeout", "60s")
	v.SetDefault("http.dial_timeout", "5s")
	v.SetDefault("http.response_header_timeout", "30s")
	v.SetDefault("http.ignore_tls_errors", false)
	v.SetDefault("http.force_http2", true)
	v.SetDefault("http.follow_redirects", true)
	v.SetDefault("http.proxy_url", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.TargetCfg.URL) == "" {
		return fmt.Errorf("target.url is a required configuration field")
	}
	if c.ArtifactsCfg.Dir == "" {
		return fmt.Errorf("artifacts.dir is a required configuration field")
	}
	if c.BrowserCfg.Viewport.Width <= 0 || c.BrowserCfg.Viewport.Height <= 0 {
		return fmt.Errorf("browser.viewport width and height must be positive integers")
	}
	if err := c.TimingCfg.Validate(); err != nil {
		return fmt.Errorf("timing configuration invalid: %w", err)
	}
	if err := c.ScenarioCfg.Validate(); err != nil {
		return fmt.Errorf("scenario configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the timing policy. Settle delays may be zero, bounds may not.
func (t *TimingConfig) Validate() error {
	if t.GenerationTimeout <= 0 {
		return fmt.Errorf("generation_timeout must be a positive duration")
	}
	if t.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be a positive duration")
	}
	if t.PollInterval > t.GenerationTimeout {
		return fmt.Errorf("poll_interval (%s) must not exceed generation_timeout (%s)", t.PollInterval, t.GenerationTimeout)
	}
	if t.SelectSettle < 0 || t.RenderSettle < 0 || t.BusyGrace < 0 {
		return fmt.Errorf("settle delays must not be negative")
	}
	if t.RenderTimeout <= 0 {
		return fmt.Errorf("render_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the scenario parameters.
func (s *ScenarioConfig) Validate() error {
	if s.BaselineType == "" {
		return fmt.Errorf("baseline_type is required")
	}
	if len(s.SelectionTypes) == 0 {
		return fmt.Errorf("selection_types must list at least one furniture type")
	}
	if s.CutSampleLines <= 0 {
		return fmt.Errorf("cut_sample_lines must be a positive integer")
	}
	for name, types := range map[string][]string{"selection_types": s.SelectionTypes, "additional_types": s.AdditionalTypes} {
		seen := make(map[string]bool, len(types))
		for _, t := range types {
			if t == "" {
				return fmt.Errorf("%s must not contain empty entries", name)
			}
			if seen[t] {
				return fmt.Errorf("%s lists %q more than once", name, t)
			}
			seen[t] = true
		}
	}
	return nil
}
