package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/chefscore-cli/internal/roster"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

const dirName = ".chefscore"

// Global configuration structure.
type Global struct {
	DatasetsDir string `mapstructure:"datasets_dir" yaml:"datasets_dir"`
	// Language is a BCP-47 tag used to collate player names.
	Language string `mapstructure:"language" yaml:"language"`

	// Normalizer
	Delimiter          string `mapstructure:"delimiter" yaml:"delimiter"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator"`
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator"`

	// Analytics
	HistogramBuckets int    `mapstructure:"histogram_buckets" yaml:"histogram_buckets" validate:"min=1,max=1000"`
	HistogramColumn  string `mapstructure:"histogram_column" yaml:"histogram_column"`

	// Remote exports; the URL must contain {week}
	SourceURL string `mapstructure:"source_url" yaml:"source_url" validate:"omitempty,contains={week}"`

	// HTTP/Retry configuration
	HTTPTimeoutSec   int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec" validate:"min=1"`
	RetryMaxAttempts int `mapstructure:"retry_max_attempts" yaml:"retry_max_attempts" validate:"min=1,max=20"`
	RetryBaseDelayMs int `mapstructure:"retry_base_delay_ms" yaml:"retry_base_delay_ms" validate:"min=0"`
	RetryMaxDelayMs  int `mapstructure:"retry_max_delay_ms" yaml:"retry_max_delay_ms" validate:"min=0"`

	// API server
	ServerAddr     string   `mapstructure:"server_addr" yaml:"server_addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format" validate:"omitempty,oneof=console json"`
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.chefscore/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := defaultDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("language", "en")
	v.SetDefault("delimiter", "")
	v.SetDefault("thousands_separator", ",")
	v.SetDefault("decimal_separator", ".")
	v.SetDefault("histogram_buckets", 10)
	v.SetDefault("histogram_column", "TOTAL_SCORE")
	v.SetDefault("source_url", "")
	// HTTP/retry defaults
	v.SetDefault("http_timeout_sec", 30)
	v.SetDefault("retry_max_attempts", 3)
	v.SetDefault("retry_base_delay_ms", 500)
	v.SetDefault("retry_max_delay_ms", 4000)
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. CLI flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CHEFSCORE")
	v.AutomaticEnv()
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; a broken one is not
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	// Resolve datasets_dir default: ~/.chefscore/datasets
	if c.DatasetsDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		c.DatasetsDir = filepath.Join(dir, "datasets")
	}
	return &c, nil
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var setters = map[string]func(c *Global, val string) error{
	"datasets_dir": func(c *Global, val string) error { c.DatasetsDir = val; return nil },
	"language": func(c *Global, val string) error {
		if _, err := language.Parse(val); err != nil {
			return fmt.Errorf("invalid language tag %q: %w", val, err)
		}
		c.Language = val
		return nil
	},
	"delimiter": func(c *Global, val string) error {
		if _, err := ParseDelimiter(val); err != nil {
			return err
		}
		c.Delimiter = val
		return nil
	},
	"thousands_separator": func(c *Global, val string) error {
		if _, err := parseSeparator(val); err != nil {
			return err
		}
		c.ThousandsSeparator = val
		return nil
	},
	"decimal_separator": func(c *Global, val string) error {
		if r, err := parseSeparator(val); err != nil || r <= 0 {
			return fmt.Errorf("invalid decimal_separator: %q", val)
		}
		c.DecimalSeparator = val
		return nil
	},
	"histogram_buckets": intSetter(func(c *Global, i int) { c.HistogramBuckets = i }, 1),
	"histogram_column":  func(c *Global, val string) error { c.HistogramColumn = val; return nil },
	"source_url": func(c *Global, val string) error {
		if val != "" && !strings.Contains(val, "{week}") {
			return fmt.Errorf("source_url must contain {week}")
		}
		c.SourceURL = val
		return nil
	},
	"http_timeout_sec":    intSetter(func(c *Global, i int) { c.HTTPTimeoutSec = i }, 1),
	"retry_max_attempts":  intSetter(func(c *Global, i int) { c.RetryMaxAttempts = i }, 1),
	"retry_base_delay_ms": intSetter(func(c *Global, i int) { c.RetryBaseDelayMs = i }, 0),
	"retry_max_delay_ms":  intSetter(func(c *Global, i int) { c.RetryMaxDelayMs = i }, 0),
	"server_addr":         func(c *Global, val string) error { c.ServerAddr = val; return nil },
	"allowed_origins": func(c *Global, val string) error {
		var out []string
		for _, o := range strings.Split(val, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
		c.AllowedOrigins = out
		return nil
	},
	"log_level": func(c *Global, val string) error {
		switch strings.ToLower(val) {
		case "debug", "info", "warn", "warning", "error":
			c.LogLevel = strings.ToLower(val)
			return nil
		}
		return fmt.Errorf("invalid log_level: %s (use debug, info, warn or error)", val)
	},
	"log_format": func(c *Global, val string) error {
		switch strings.ToLower(val) {
		case "console", "json":
			c.LogFormat = strings.ToLower(val)
			return nil
		}
		return fmt.Errorf("invalid log_format: %s (use console or json)", val)
	},
}

func intSetter(set func(*Global, int), lo int) func(*Global, string) error {
	return func(c *Global, val string) error {
		i, err := strconv.Atoi(val)
		if err != nil || i < lo {
			return fmt.Errorf("invalid int: %v (minimum %d)", val, lo)
		}
		set(c, i)
		return nil
	}
}

var validate = validator.New()

// Validate checks ranges and enumerations declared on the struct tags.
func (c *Global) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (got %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Set validates and applies one key. The change is rolled back when the
// resulting configuration is invalid.
func (c *Global) Set(key, val string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown key: %s", key)
	}
	prev := *c
	if err := set(c, val); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		*c = prev
		return err
	}
	return nil
}

// ParseDelimiter maps a config value to a CSV delimiter. Empty means sniff.
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`, "\t":
		return '\t', nil
	case ",", ";", "|":
		return rune(s[0]), nil
	}
	return 0, fmt.Errorf("invalid delimiter: %q (use \",\", \";\", \"|\" or tab)", s)
}

func parseSeparator(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "none":
		return roster.NoThousandsSeparator, nil
	case "space":
		return ' ', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("separator must be a single character: %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Separators returns the thousands and decimal separators as runes.
func (c *Global) Separators() (thousands, decimal rune) {
	thousands, _ = parseSeparator(c.ThousandsSeparator)
	decimal, _ = parseSeparator(c.DecimalSeparator)
	if decimal <= 0 {
		decimal = '.'
	}
	return thousands, decimal
}

// LanguageTag parses Language, falling back to English.
func (c *Global) LanguageTag() language.Tag {
	tag, err := language.Parse(c.Language)
	if err != nil {
		return language.English
	}
	return tag
}
