package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for tpom, stored in ~/.tpom/config.json.
// The file supports single-line // comments for documentation purposes.
type Config struct {
	Timer   TimerConfig   `mapstructure:"timer"`
	Remote  RemoteConfig  `mapstructure:"remote"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// TimerConfig holds the interval lengths and set behaviour.
type TimerConfig struct {
	WorkIntervalMinutes int  `mapstructure:"work_interval_minutes"`
	ShortRestMinutes    int  `mapstructure:"short_rest_minutes"`
	LongRestMinutes     int  `mapstructure:"long_rest_minutes"`
	WorkIntervalsInSet  int  `mapstructure:"work_intervals_in_set"`
	StopAfterBreak      bool `mapstructure:"stop_after_break"`
	// OverrunTimeLimitSeconds is negative: the most a countdown may be
	// overdue (e.g. after system sleep) and still count as completed.
	OverrunTimeLimitSeconds int `mapstructure:"overrun_time_limit_seconds"`
}

// RemoteConfig describes the optional upload endpoint. It is read-only to
// the timer core.
type RemoteConfig struct {
	APIEndpoint    string `mapstructure:"api_endpoint"`
	AppID          string `mapstructure:"app_id"`
	AppSecret      string `mapstructure:"app_secret"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// StorageConfig selects the journal backend.
type StorageConfig struct {
	// Backend is "file" (one JSON file per key) or "sqlite".
	Backend string `mapstructure:"backend"`
}

// MetricsConfig controls the optional Prometheus endpoint.
type MetricsConfig struct {
	// Address is a host:port to serve /metrics on. Empty disables it.
	Address string `mapstructure:"address"`
}

const (
	DefaultWorkIntervalMinutes     = 25
	DefaultShortRestMinutes        = 5
	DefaultLongRestMinutes         = 15
	DefaultWorkIntervalsInSet      = 4
	DefaultOverrunTimeLimitSeconds = -60
	DefaultRemoteTimeoutSeconds    = 30
	DefaultStorageBackend          = "file"

	// EnvPrefix is prepended to upper-cased keys for environment overrides,
	// e.g. TPOM_REMOTE_APP_SECRET.
	EnvPrefix = "TPOM"
)

// Sentinel errors returned by RemoteConfig.Validate.
var (
	ErrNoEndpoint         = errors.New("no api endpoint configured")
	ErrMissingCredentials = errors.New("api endpoint configured without app_id and app_secret")
)

// WorkDuration returns the work interval length.
func (t TimerConfig) WorkDuration() time.Duration {
	return time.Duration(t.WorkIntervalMinutes) * time.Minute
}

// ShortRestDuration returns the short rest length.
func (t TimerConfig) ShortRestDuration() time.Duration {
	return time.Duration(t.ShortRestMinutes) * time.Minute
}

// LongRestDuration returns the long rest length.
func (t TimerConfig) LongRestDuration() time.Duration {
	return time.Duration(t.LongRestMinutes) * time.Minute
}

// OverrunLimit returns the (negative) overrun threshold.
func (t TimerConfig) OverrunLimit() time.Duration {
	return time.Duration(t.OverrunTimeLimitSeconds) * time.Second
}

// Validate rejects settings the state machine cannot run with.
func (t TimerConfig) Validate() error {
	switch {
	case t.WorkIntervalMinutes <= 0:
		return fmt.Errorf("timer.work_interval_minutes must be positive, got %d", t.WorkIntervalMinutes)
	case t.ShortRestMinutes <= 0:
		return fmt.Errorf("timer.short_rest_minutes must be positive, got %d", t.ShortRestMinutes)
	case t.LongRestMinutes <= 0:
		return fmt.Errorf("timer.long_rest_minutes must be positive, got %d", t.LongRestMinutes)
	case t.WorkIntervalsInSet < 1:
		return fmt.Errorf("timer.work_intervals_in_set must be at least 1, got %d", t.WorkIntervalsInSet)
	case t.OverrunTimeLimitSeconds >= 0:
		return fmt.Errorf("timer.overrun_time_limit_seconds must be negative, got %d", t.OverrunTimeLimitSeconds)
	}
	return nil
}

// Enabled reports whether an upload endpoint is configured at all.
func (r RemoteConfig) Enabled() bool {
	return strings.TrimSpace(r.APIEndpoint) != ""
}

// Validate reports ErrNoEndpoint when uploads are disabled and
// ErrMissingCredentials when an endpoint is set without both credentials.
func (r RemoteConfig) Validate() error {
	if !r.Enabled() {
		return ErrNoEndpoint
	}
	if r.AppID == "" || r.AppSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// Timeout returns the upload timeout, falling back to the default.
func (r RemoteConfig) Timeout() time.Duration {
	if r.TimeoutSeconds <= 0 {
		return DefaultRemoteTimeoutSeconds * time.Second
	}
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// Default returns a Config pre-filled with sensible defaults.
func Default() Config {
	return Config{
		Timer: TimerConfig{
			WorkIntervalMinutes:     DefaultWorkIntervalMinutes,
			ShortRestMinutes:        DefaultShortRestMinutes,
			LongRestMinutes:         DefaultLongRestMinutes,
			WorkIntervalsInSet:      DefaultWorkIntervalsInSet,
			OverrunTimeLimitSeconds: DefaultOverrunTimeLimitSeconds,
		},
		Remote: RemoteConfig{
			TimeoutSeconds: DefaultRemoteTimeoutSeconds,
		},
		Storage: StorageConfig{
			Backend: DefaultStorageBackend,
		},
	}
}

// configTemplate is the annotated config written on first run.
// Lines whose trimmed content starts with // are stripped before JSON parsing,
// allowing human-readable documentation inside the file.
const configTemplate = `// tpom configuration – ~/.tpom/config.json
//
// Every key can be overridden from the environment with the TPOM_ prefix,
// e.g. TPOM_REMOTE_APP_SECRET or TPOM_TIMER_STOP_AFTER_BREAK=true.
{
  // ── Intervals ────────────────────────────────────────────────────────────
  "timer": {
    "work_interval_minutes": 25,
    "short_rest_minutes": 5,
    "long_rest_minutes": 15,

    // A long rest replaces the short one after this many work intervals.
    "work_intervals_in_set": 4,

    // Go idle instead of starting the next work interval when a rest ends.
    "stop_after_break": false,

    // How far past its end a countdown may be noticed (e.g. after the machine
    // slept) and still count as finished. Beyond this the timer just stops.
    "overrun_time_limit_seconds": -60
  },

  // ── Completion upload ────────────────────────────────────────────────────
  // Leave api_endpoint empty to keep records local only. When it is set,
  // app_id and app_secret are both required.
  "remote": {
    "api_endpoint": "",
    "app_id": "",
    "app_secret": "",
    "timeout_seconds": 30
  },

  // ── Local journal ────────────────────────────────────────────────────────
  // "file" keeps ~/.tpom/<key>.json, "sqlite" keeps ~/.tpom/tpom.db.
  "storage": {
    "backend": "file"
  },

  // host:port for a Prometheus /metrics endpoint while "tpom run" is active.
  "metrics": {
    "address": ""
  }
}
`

// FilePath returns the path to config.json inside base.
func FilePath(base string) string {
	return filepath.Join(base, "config.json")
}

// stripLineComments removes lines whose leading non-whitespace content starts
// with //. Only full-line comments are handled; inline comments are not stripped.
func stripLineComments(data []byte) []byte {
	var out []byte
	for _, line := range bytes.Split(data, []byte("\n")) {
		if bytes.HasPrefix(bytes.TrimLeft(line, " \t"), []byte("//")) {
			continue
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

// newViper returns a viper instance with every key defaulted so that
// environment overrides apply even when the file omits a key.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("timer.work_interval_minutes", d.Timer.WorkIntervalMinutes)
	v.SetDefault("timer.short_rest_minutes", d.Timer.ShortRestMinutes)
	v.SetDefault("timer.long_rest_minutes", d.Timer.LongRestMinutes)
	v.SetDefault("timer.work_intervals_in_set", d.Timer.WorkIntervalsInSet)
	v.SetDefault("timer.stop_after_break", d.Timer.StopAfterBreak)
	v.SetDefault("timer.overrun_time_limit_seconds", d.Timer.OverrunTimeLimitSeconds)
	v.SetDefault("remote.api_endpoint", "")
	v.SetDefault("remote.app_id", "")
	v.SetDefault("remote.app_secret", "")
	v.SetDefault("remote.timeout_seconds", d.Remote.TimeoutSeconds)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("metrics.address", "")
	return v
}

// Load reads base/config.json, creating it with annotated defaults on first
// run. Lines starting with // are treated as comments and stripped before
// JSON parsing. Environment variables override file values.
func Load(base string) (Config, error) {
	path := FilePath(base)
	v := newViper()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run: write the annotated template so users can discover options.
		if writeErr := writeDefault(path); writeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not create config file %s: %v\n", path, writeErr)
		}
	case err != nil:
		return Default(), fmt.Errorf("reading config file %s: %w", path, err)
	default:
		if err := v.ReadConfig(bytes.NewReader(stripLineComments(data))); err != nil {
			return Default(), fmt.Errorf("parsing config file %s: %w\nTip: delete the file to regenerate defaults", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Default(), fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Timer.Validate(); err != nil {
		return Default(), fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.Storage.Backend != "file" && cfg.Storage.Backend != "sqlite" {
		return Default(), fmt.Errorf("invalid config %s: storage.backend must be \"file\" or \"sqlite\", got %q", path, cfg.Storage.Backend)
	}
	return cfg, nil
}

// writeDefault creates the config directory and writes the annotated default
// config template.
func writeDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	return nil
}

// BaseDir returns the root data directory (~/.tpom).
func BaseDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".tpom"), nil
}
