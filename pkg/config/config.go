// Package config loads the reconnection service's settings from config.json.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/wifireconnect/wifireconnect-go/pkg/log"
	"github.com/wifireconnect/wifireconnect-go/pkg/reconnect"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "config.json"

// EnvPrefix prefixes environment overrides, e.g. WIFIRECONNECT_WIFIPASSWORD.
const EnvPrefix = "WIFIRECONNECT"

var (
	// ErrMissingSSID indicates the WifiSsid key is absent or empty.
	ErrMissingSSID = errors.New("config: WifiSsid is required")

	// ErrInvalid indicates a key holds a value outside its allowed range.
	ErrInvalid = errors.New("config: invalid value")
)

// Config holds every setting of the service. It is immutable once loaded.
type Config struct {
	WifiSsid     string `mapstructure:"wifissid"`
	WifiPassword string `mapstructure:"wifipassword"`

	Interface       string        `mapstructure:"interface"`
	AdapterPolicy   string        `mapstructure:"adapterpolicy"`
	RetryPolicy     string        `mapstructure:"retrypolicy"`
	RetryInitial    time.Duration `mapstructure:"retryinitial"`
	RetryMax        time.Duration `mapstructure:"retrymax"`
	RecheckInterval time.Duration `mapstructure:"recheckinterval"`
	CheckOnStart    bool          `mapstructure:"checkonstart"`

	LogFile  string `mapstructure:"logfile"`
	LogMode  string `mapstructure:"logmode"`
	LogLevel string `mapstructure:"loglevel"`
}

func setDefaults(v *viper.Viper) {
	// Listed so environment overrides apply even when the file omits them.
	v.SetDefault("WifiSsid", "")
	v.SetDefault("WifiPassword", "")

	v.SetDefault("Interface", "")
	v.SetDefault("AdapterPolicy", reconnect.AdapterPersistent.String())
	v.SetDefault("RetryPolicy", reconnect.PolicyHardened.String())
	v.SetDefault("RetryInitial", reconnect.InitialBackoff)
	v.SetDefault("RetryMax", reconnect.MaxBackoff)
	v.SetDefault("RecheckInterval", 5*time.Minute)
	v.SetDefault("CheckOnStart", true)

	v.SetDefault("LogFile", "log.txt")
	v.SetDefault("LogMode", log.ModeTruncate.String())
	v.SetDefault("LogLevel", "info")
}

// Load reads and validates the JSON config file at path.
// A missing or malformed file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values. WifiPassword is passed to
// NetworkManager as is; it decides what a valid key is.
func (c *Config) Validate() error {
	if c.WifiSsid == "" {
		return ErrMissingSSID
	}
	if len(c.WifiSsid) > 32 {
		return fmt.Errorf("%w: WifiSsid is %d bytes, at most 32 allowed", ErrInvalid, len(c.WifiSsid))
	}
	if _, err := reconnect.ParsePolicy(c.RetryPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := reconnect.ParseAdapterPolicy(c.AdapterPolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := log.ParseMode(c.LogMode); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.RetryInitial < 0 || c.RetryMax < 0 || c.RecheckInterval < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalid)
	}
	if c.LogFile == "" {
		return fmt.Errorf("%w: LogFile is empty", ErrInvalid)
	}
	return nil
}

// Engine returns the engine's view of the config.
func (c *Config) Engine() reconnect.Config {
	return reconnect.Config{SSID: c.WifiSsid, Password: c.WifiPassword}
}

// EngineOptions maps the tuning keys to engine options. The config must
// have passed Validate.
func (c *Config) EngineOptions() []reconnect.Option {
	policy, _ := reconnect.ParsePolicy(c.RetryPolicy)
	adapterPolicy, _ := reconnect.ParseAdapterPolicy(c.AdapterPolicy)

	return []reconnect.Option{
		reconnect.WithPolicy(policy),
		reconnect.WithAdapterPolicy(adapterPolicy),
		reconnect.WithInterface(c.Interface),
		reconnect.WithCheckOnStart(c.CheckOnStart),
		reconnect.WithRetryBackoff(reconnect.BackoffConfig{
			Initial:    c.RetryInitial,
			Max:        c.RetryMax,
			Multiplier: reconnect.BackoffMultiplier,
			Jitter:     reconnect.JitterFactor,
		}),
	}
}

// Log returns the log file mode and level options.
func (c *Config) Log() (log.Mode, string) {
	mode, _ := log.ParseMode(c.LogMode)
	return mode, c.LogLevel
}
