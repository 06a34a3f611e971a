package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// File holds process settings read from a config file.
// Zero values mean "unspecified" and are replaced by flag defaults in main.
type File struct {
	Addr            string         `json:"addr" yaml:"addr" toml:"addr"`
	ArtifactDir     string         `json:"artifact_dir" yaml:"artifact_dir" toml:"artifact_dir"`
	BackendURL      string         `json:"backend_url" yaml:"backend_url" toml:"backend_url"`
	BackendRetries  int            `json:"backend_retries" yaml:"backend_retries" toml:"backend_retries"`
	Preload         *bool          `json:"preload" yaml:"preload" toml:"preload"`
	LogLevel        string         `json:"log_level" yaml:"log_level" toml:"log_level"`
	CORSOrigins     []string       `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	MaxBodyBytes    int64          `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	RateLimitRPS    float64        `json:"rate_limit_rps" yaml:"rate_limit_rps" toml:"rate_limit_rps"`
	RateLimitBurst  int            `json:"rate_limit_burst" yaml:"rate_limit_burst" toml:"rate_limit_burst"`
	MaxPromptTokens int            `json:"max_prompt_tokens" yaml:"max_prompt_tokens" toml:"max_prompt_tokens"`
	ScoreCacheTTL   string         `json:"score_cache_ttl" yaml:"score_cache_ttl" toml:"score_cache_ttl"`
	RequestTimeout  string         `json:"request_timeout" yaml:"request_timeout" toml:"request_timeout"`
	S3              S3             `json:"s3" yaml:"s3" toml:"s3"`
	Options         map[string]any `json:"options" yaml:"options" toml:"options"`
}

// S3 locates the bucket artifacts are fetched from.
type S3 struct {
	Endpoint  string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key" toml:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key" toml:"secret_key"`
	Bucket    string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Region    string `json:"region" yaml:"region" toml:"region"`
	Prefix    string `json:"prefix" yaml:"prefix" toml:"prefix"`
	UseSSL    bool   `json:"use_ssl" yaml:"use_ssl" toml:"use_ssl"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (File, error) {
	var f File
	if path == "" {
		return f, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &f); err != nil {
			return f, err
		}
	case ".json":
		if err := json.Unmarshal(b, &f); err != nil {
			return f, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &f); err != nil {
			return f, err
		}
	default:
		return f, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return f, nil
}

// OptionOverrides renders the file's options section as raw strings suitable
// for Options.Overrides.
func (f File) OptionOverrides() map[string]string {
	if len(f.Options) == 0 {
		return nil
	}
	out := make(map[string]string, len(f.Options))
	keys := make([]string, 0, len(f.Options))
	for k := range f.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = scalarString(f.Options[k])
	}
	return out
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return fmt.Sprint(t)
	}
}
