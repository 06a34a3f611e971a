package config

import (
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// EnvPrefix prefixes the environment override of every option, e.g. LMAPI_MAX_RAM.
const EnvPrefix = "LMAPI_"

// Recognized option names.
const (
	KeyName         = "name"
	KeyMaxTokens    = "max_tokens"
	KeyDevice       = "device"
	KeyMaxRAM       = "max_ram"
	KeyModelLicense = "model_license"
)

// Config is a validated snapshot of the options. Values are only produced by
// the field parsers, so a Config read from a Store always holds valid values.
type Config struct {
	Name         ModelName
	MaxTokens    MaxTokens
	Device       Device
	MaxRAM       RAMBudget
	ModelLicense LicenseFilter
}

// Options controls how a Store is built.
type Options struct {
	// KnownModels lists the model names the name option may take.
	KnownModels []string
	// DefaultModel is the schema default for name. Empty means the first known model.
	DefaultModel string
	// Overrides are explicit values applied after the environment.
	Overrides map[string]string
	// Getenv reads the environment; nil means os.Getenv.
	Getenv func(string) string
	// Chooser picks the model when name was not given by the environment or
	// an override. It sees the otherwise final configuration.
	Chooser func(Config) string
}

type field struct {
	def func(o Options, getenv func(string) string) string
	set func(c *Config, known map[string]struct{}, raw string) (any, error)
	get func(c Config) any
}

var schema = map[string]field{
	KeyName: {
		def: func(o Options, _ func(string) string) string {
			if o.DefaultModel != "" {
				return o.DefaultModel
			}
			if len(o.KnownModels) > 0 {
				return o.KnownModels[0]
			}
			return ""
		},
		set: func(c *Config, known map[string]struct{}, raw string) (any, error) {
			v, err := parseModelName(raw, known)
			if err != nil {
				return nil, err
			}
			c.Name = v
			return string(v), nil
		},
		get: func(c Config) any { return string(c.Name) },
	},
	KeyMaxTokens: {
		def: func(Options, func(string) string) string { return "200" },
		set: func(c *Config, _ map[string]struct{}, raw string) (any, error) {
			v, err := ParseMaxTokens(raw)
			if err != nil {
				return nil, err
			}
			c.MaxTokens = v
			return int(v), nil
		},
		get: func(c Config) any { return int(c.MaxTokens) },
	},
	KeyDevice: {
		def: func(_ Options, getenv func(string) string) string {
			// A Colab GPU runtime defaults to letting the backend pick the device.
			if getenv("COLAB_GPU") != "" {
				return string(DeviceAuto)
			}
			return string(DeviceCPU)
		},
		set: func(c *Config, _ map[string]struct{}, raw string) (any, error) {
			v, err := ParseDevice(raw)
			if err != nil {
				return nil, err
			}
			c.Device = v
			return string(v), nil
		},
		get: func(c Config) any { return string(c.Device) },
	},
	KeyMaxRAM: {
		def: func(Options, func(string) string) string { return "0.48" },
		set: func(c *Config, _ map[string]struct{}, raw string) (any, error) {
			v, err := ParseRAM(raw)
			if err != nil {
				return nil, err
			}
			c.MaxRAM = v
			return float64(v), nil
		},
		get: func(c Config) any { return float64(c.MaxRAM) },
	},
	KeyModelLicense: {
		def: func(Options, func(string) string) string { return ".*" },
		set: func(c *Config, _ map[string]struct{}, raw string) (any, error) {
			v, err := ParseLicenseFilter(raw)
			if err != nil {
				return nil, err
			}
			c.ModelLicense = v
			return v.String(), nil
		},
		get: func(c Config) any { return c.ModelLicense.String() },
	},
}

// Keys returns the recognized option names in a stable order.
func Keys() []string {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string { return EnvPrefix + strings.ToUpper(key) }

// Store holds the process configuration. It is built once and then only read,
// except for the RAM budget which has an explicit setter.
type Store struct {
	mu    sync.RWMutex
	cfg   Config
	known map[string]struct{}
}

// New builds a Store applying schema defaults, then environment overrides,
// then explicit overrides. Every rejected value is reported; the returned
// error aggregates KeyError and ValidationError values.
func New(opts Options) (*Store, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	s := &Store{known: make(map[string]struct{}, len(opts.KnownModels))}
	for _, n := range opts.KnownModels {
		s.known[n] = struct{}{}
	}

	var errs *multierror.Error
	keys := Keys()
	for _, key := range keys {
		def := schema[key].def(opts, getenv)
		if def == "" {
			continue
		}
		if _, err := s.Set(key, def); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	explicit := make(map[string]bool)
	for _, key := range keys {
		if v := getenv(EnvKey(key)); v != "" {
			explicit[key] = true
			if _, err := s.Set(key, v); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	overrideKeys := make([]string, 0, len(opts.Overrides))
	for k := range opts.Overrides {
		overrideKeys = append(overrideKeys, k)
	}
	sort.Strings(overrideKeys)
	for _, key := range overrideKeys {
		explicit[key] = true
		if _, err := s.Set(key, opts.Overrides[key]); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if opts.Chooser != nil && !explicit[KeyName] && errs.ErrorOrNil() == nil {
		if name := opts.Chooser(s.Snapshot()); name != "" {
			if _, err := s.Set(KeyName, name); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the validated value of key.
func (s *Store) Get(key string) (any, error) {
	f, ok := schema[key]
	if !ok {
		return nil, KeyError{Key: key}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f.get(s.cfg), nil
}

// Set validates raw and stores it under key, returning the stored value.
func (s *Store) Set(key, raw string) (any, error) {
	f, ok := schema[key]
	if !ok {
		return nil, KeyError{Key: key}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.cfg
	v, err := f.set(&next, s.known, raw)
	if err != nil {
		return nil, ValidationError{Key: key, Value: raw, Err: err}
	}
	s.cfg = next
	return v, nil
}

// SetMaxRAM replaces the RAM budget and returns the stored value in gigabytes.
func (s *Store) SetMaxRAM(raw string) (RAMBudget, error) {
	if _, err := s.Set(KeyMaxRAM, raw); err != nil {
		return 0, err
	}
	return s.Snapshot().MaxRAM, nil
}

// Snapshot returns a copy of the current configuration.
func (s *Store) Snapshot() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Values returns every option as a key/value map, for display.
func (s *Store) Values() map[string]any {
	c := s.Snapshot()
	out := make(map[string]any, len(schema))
	for k, f := range schema {
		out[k] = f.get(c)
	}
	return out
}
