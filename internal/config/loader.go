package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "CFD"

var (
	ErrConfigFileNotFound = errors.New("config: file not found")
	ErrConfigParseError   = errors.New("config: parse error")
	ErrConfigValidation   = errors.New("config: validation failed")
)

var global atomic.Pointer[Config]

// Get returns the configuration most recently produced by Load, or nil.
func Get() *Config { return global.Load() }

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

type loadOptions struct {
	path        string
	searchPaths []string
	overrides   map[string]any
}

// LoadOption customises Load.
type LoadOption func(*loadOptions)

// WithConfigPath reads exactly this file.
func WithConfigPath(path string) LoadOption {
	return func(o *loadOptions) { o.path = path }
}

// WithSearchPaths looks for config.yaml in each directory, first match wins.
func WithSearchPaths(dirs ...string) LoadOption {
	return func(o *loadOptions) { o.searchPaths = append(o.searchPaths, dirs...) }
}

// WithOverrides sets keys after file and environment, e.g. from CLI flags.
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) {
		if o.overrides == nil {
			o.overrides = map[string]any{}
		}
		for k, v := range values {
			o.overrides[k] = v
		}
	}
}

// newViper builds a Viper instance with YAML file type, the CFD_ env prefix
// and every Config key bound to its environment variable, so that
// "database.host" resolves to CFD_DATABASE_HOST even without a file.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeOf(Config{}), "")
	return v
}

// ─────────────────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────────────────

// Load reads the configured YAML file (if any), merges CFD_* environment
// overrides and explicit overrides, applies defaults and validates.
func Load(opts ...LoadOption) (*Config, error) {
	o := &loadOptions{}
	for _, opt := range opts {
		opt(o)
	}

	v := newViper()
	switch {
	case o.path != "":
		if _, err := os.Stat(o.path); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, o.path)
		}
		v.SetConfigFile(o.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	case len(o.searchPaths) > 0:
		v.SetConfigName("config")
		for _, dir := range o.searchPaths {
			v.AddConfigPath(dir)
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("%w: searched %v", ErrConfigFileNotFound, o.searchPaths)
			}
			return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
		}
	}
	for k, val := range o.overrides {
		v.Set(k, val)
	}

	cfg, err := unmarshalAndFinalize(v)
	if err != nil {
		return nil, err
	}
	global.Store(cfg)
	return cfg, nil
}

// LoadFromFile is Load(WithConfigPath(path)).
func LoadFromFile(path string) (*Config, error) {
	return Load(WithConfigPath(path))
}

// LoadFromEnv builds a Config entirely from CFD_* environment variables,
// with no config file required.
//
//	CFD_<SECTION>_<FIELD>   e.g.  CFD_DATABASE_HOST, CFD_DISPATCH_MODE
func LoadFromEnv() (*Config, error) {
	return Load()
}

// MustLoad is Load that panics on any error, for use in main().
func MustLoad(opts ...LoadOption) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigValidation, err)
	}
	return cfg, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Watching
// ─────────────────────────────────────────────────────────────────────────────

// Watch re-reads configPath whenever it changes on disk and passes the new
// Config to onChange. A change that fails to parse or validate goes to
// onError (when set) and the previous configuration stays in effect.
//
// Watch is non-blocking; viper runs the fsnotify loop in the background.
// Callers decide which parts of the new Config are safe to apply live; the
// detection profile is the one the service reloads.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: %v", ErrConfigParseError, err)
	}

	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		global.Store(cfg)
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Env binding
// ─────────────────────────────────────────────────────────────────────────────

// bindEnvs walks the mapstructure tags of t and binds every leaf key.
// Squashed structs contribute their fields to the parent prefix.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("mapstructure")
		name, opts, _ := strings.Cut(tag, ",")
		if name == "-" {
			continue
		}
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if strings.Contains(opts, "squash") && ft.Kind() == reflect.Struct {
			bindEnvs(v, ft, prefix)
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}
		if ft.Kind() == reflect.Struct && ft.PkgPath() != "time" {
			bindEnvs(v, ft, key)
			continue
		}
		if ft.Kind() == reflect.Func {
			continue
		}
		_ = v.BindEnv(key)
	}
}

//Personal.AI order the ending
