package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/archbase/archbase-cli/pkg/component"
	"github.com/archbase/archbase-cli/pkg/scanner"
)

const configDir = ".archbase"

// configNames are searched in configDir, in order, when --config is unset.
var configNames = []string{"config.yaml", "config.yml", "config.json", "config.toml"}

// Config holds the contents of .archbase/config.{yaml,json,toml}.
type Config struct {
	Log       LogConfig       `koanf:"log" yaml:"log"`
	Analyzer  AnalyzerConfig  `koanf:"analyzer" yaml:"analyzer"`
	Scan      ScanConfig      `koanf:"scan" yaml:"scan"`
	Watch     WatchConfig     `koanf:"watch" yaml:"watch"`
	Generator GeneratorConfig `koanf:"generator" yaml:"generator"`
	MCP       MCPConfig       `koanf:"mcp" yaml:"mcp"`
	Output    OutputConfig    `koanf:"output" yaml:"output"`
}

type LogConfig struct {
	Level  string `koanf:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" yaml:"format" validate:"oneof=text json"`
}

type AnalyzerConfig struct {
	// StrictParse rejects sources with syntax errors instead of analyzing
	// the partial tree.
	StrictParse bool   `koanf:"strict_parse" yaml:"strict_parse"`
	Pattern     string `koanf:"pattern" yaml:"pattern" validate:"required"`
}

type ScanConfig struct {
	Include    []string `koanf:"include" yaml:"include"`
	Exclude    []string `koanf:"exclude" yaml:"exclude"`
	Workers    int      `koanf:"workers" yaml:"workers" validate:"min=0"`
	ReportPath string   `koanf:"report_path" yaml:"report_path" validate:"required"`
}

type WatchConfig struct {
	DebounceMs int `koanf:"debounce_ms" yaml:"debounce_ms" validate:"min=0"`
	CacheSize  int `koanf:"cache_size" yaml:"cache_size" validate:"min=0"`
}

type GeneratorConfig struct {
	TemplatesDir      string `koanf:"templates_dir" yaml:"templates_dir"`
	OutputDir         string `koanf:"output_dir" yaml:"output_dir"`
	DataSourceVersion string `koanf:"datasource_version" yaml:"datasource_version" validate:"oneof=v1 v2"`
	Validation        string `koanf:"validation" yaml:"validation" validate:"oneof=yup zod none"`
}

type MCPConfig struct {
	// LogPath enables the JSONL tool call log when set.
	LogPath string `koanf:"log_path" yaml:"log_path"`
}

type OutputConfig struct {
	Format string `koanf:"format" yaml:"format" validate:"oneof=text json markdown md yaml yml toon"`
	Color  bool   `koanf:"color" yaml:"color"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{Level: "warn", Format: "text"},
		Analyzer: AnalyzerConfig{
			StrictParse: true,
			Pattern:     component.DefaultPattern,
		},
		Scan: ScanConfig{
			Include:    append([]string(nil), scanner.DefaultInclude...),
			Exclude:    append([]string(nil), scanner.DefaultExclude...),
			ReportPath: scanner.DefaultReportPath,
		},
		Watch: WatchConfig{
			DebounceMs: int(scanner.DefaultDebounce.Milliseconds()),
			CacheSize:  scanner.DefaultStateCacheSize,
		},
		Generator: GeneratorConfig{
			OutputDir:         ".",
			DataSourceVersion: "v2",
			Validation:        "yup",
		},
		Output: OutputConfig{Format: "text", Color: true},
	}
}

// envOverrides maps environment variables onto config keys.
var envOverrides = []struct {
	env string
	key string
}{
	{"ARCHBASE_LOG_LEVEL", "log.level"},
	{"ARCHBASE_LOG_FORMAT", "log.format"},
	{"ARCHBASE_OUTPUT", "output.format"},
}

// LoadConfig resolves configuration from defaults, the config file and the
// environment. path may be empty, in which case .archbase/config.* is
// searched in the working directory and a missing file is not an error.
// A .env file in the working directory is loaded first.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := DefaultConfig()
	k := koanf.New(".")

	if path == "" {
		path = findConfigFile(".")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), parserFor(path)); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	for _, o := range envOverrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			if err := k.Set(o.key, v); err != nil {
				return nil, fmt.Errorf("apply %s: %w", o.env, err)
			}
		}
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile(dir string) string {
	for _, name := range configNames {
		p := filepath.Join(dir, configDir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

func parserFor(path string) koanf.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser()
	case ".toml":
		return toml.Parser()
	default:
		return yaml.Parser()
	}
}

var validate = newValidator()

// newValidator reports fields by their config keys.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks enum and range constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := strings.TrimPrefix(fe.Namespace(), "Config.")
		switch fe.Tag() {
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value()))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", key, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is %s", key, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
