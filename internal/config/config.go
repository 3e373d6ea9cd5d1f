// Package config resolves the console's settings.
//
// Sources are applied in increasing precedence: built-in defaults, the
// console.yaml file in the config dir, a .env file, the process
// environment, and finally command-line flags.
//
//	ADMIN_API_URL        -api      API root (default http://localhost:3000)
//	ADMIN_TOKEN          -token    pre-issued bearer token
//	ADMIN_PAGE_SIZE      -limit    rows per page (default 50)
//	ADMIN_THEME          -theme    auto, dark or light
//	ADMIN_HTTP_TIMEOUT   -timeout  request timeout (default 30s)
//	ADMIN_LOG_LEVEL      -log-level debug, info, warn or error
//	ADMIN_RESOURCES      -resources comma-separated pages to show
//	ADMIN_CONFIG_DIR     -config-dir
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppName         = "admin-console"
	FileName        = "console.yaml"
	DefaultBaseURL  = "http://localhost:3000"
	DefaultPageSize = 50
	DefaultTimeout  = 30 * time.Second
	MaxPageSize     = 500
)

// Config is the resolved configuration.
type Config struct {
	BaseURL   string        `yaml:"base_url"`
	Token     string        `yaml:"token,omitempty"`
	PageSize  int           `yaml:"page_size"`
	Theme     string        `yaml:"theme"`
	Timeout   time.Duration `yaml:"timeout"`
	LogLevel  string        `yaml:"log_level"`
	Resources []string      `yaml:"resources,omitempty"`

	ConfigDir string `yaml:"-"`
	EnvFile   string `yaml:"-"`
}

var (
	ErrBaseURL  = errors.New("config: base url must be an absolute http(s) url")
	ErrPageSize = errors.New("config: page size must be between 1 and 500")
	ErrTheme    = errors.New("config: theme must be auto, dark or light")
	ErrTimeout  = errors.New("config: timeout must be positive")
)

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		PageSize:  DefaultPageSize,
		Theme:     "auto",
		Timeout:   DefaultTimeout,
		LogLevel:  "info",
		ConfigDir: DefaultDir(),
		EnvFile:   ".env",
	}
}

// DefaultDir is <user config dir>/admin-console.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, AppName)
}

// Parse resolves the configuration from args and the process environment.
func Parse(args []string) (Config, error) {
	return Load(args, os.LookupEnv, os.Stderr)
}

// Load is Parse with an injectable environment and flag output.
func Load(args []string, lookup func(string) (string, bool), output io.Writer) (Config, error) {
	if lookup == nil {
		lookup = func(string) (string, bool) { return "", false }
	}
	cfg := Defaults()

	var (
		flagAPI, flagToken, flagTheme, flagLevel string
		flagResources, flagDir, flagEnv          string
		flagLimit                                int
		flagTimeout                              time.Duration
	)
	fs := flag.NewFlagSet(AppName, flag.ContinueOnError)
	if output != nil {
		fs.SetOutput(output)
	}
	fs.StringVar(&flagAPI, "api", "", "API root URL")
	fs.StringVar(&flagToken, "token", "", "pre-issued bearer token (prefer ADMIN_TOKEN)")
	fs.IntVar(&flagLimit, "limit", 0, "rows per page")
	fs.StringVar(&flagTheme, "theme", "", "auto, dark or light")
	fs.DurationVar(&flagTimeout, "timeout", 0, "HTTP timeout")
	fs.StringVar(&flagLevel, "log-level", "", "debug, info, warn or error")
	fs.StringVar(&flagResources, "resources", "", "comma-separated pages to show")
	fs.StringVar(&flagDir, "config-dir", "", "directory holding console.yaml, logs and local state")
	fs.StringVar(&flagEnv, "env-file", "", "dotenv file to read (default .env)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if v, ok := lookup("ADMIN_CONFIG_DIR"); ok && strings.TrimSpace(v) != "" {
		cfg.ConfigDir = v
	}
	if set["config-dir"] {
		cfg.ConfigDir = flagDir
	}
	if set["env-file"] {
		cfg.EnvFile = flagEnv
	}

	if err := cfg.readFile(filepath.Join(cfg.ConfigDir, FileName)); err != nil {
		return Config{}, err
	}

	env, err := readEnv(cfg.EnvFile, lookup)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(env); err != nil {
		return Config{}, err
	}

	if set["api"] {
		cfg.BaseURL = flagAPI
	}
	if set["token"] {
		cfg.Token = flagToken
	}
	if set["limit"] {
		cfg.PageSize = flagLimit
	}
	if set["theme"] {
		cfg.Theme = flagTheme
	}
	if set["timeout"] {
		cfg.Timeout = flagTimeout
	}
	if set["log-level"] {
		cfg.LogLevel = flagLevel
	}
	if set["resources"] {
		cfg.Resources = splitList(flagResources)
	}

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.Theme = strings.ToLower(strings.TrimSpace(cfg.Theme))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// readEnv merges the dotenv file under the process environment.
func readEnv(path string, lookup func(string) (string, bool)) (func(string) string, error) {
	fileVars := map[string]string{}
	if strings.TrimSpace(path) != "" {
		vars, err := godotenv.Read(path)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}
	return func(key string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return fileVars[key]
	}, nil
}

func (c *Config) applyEnv(get func(string) string) error {
	if v := get("ADMIN_API_URL"); v != "" {
		c.BaseURL = v
	}
	if v := get("ADMIN_TOKEN"); v != "" {
		c.Token = v
	}
	if v := get("ADMIN_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid ADMIN_PAGE_SIZE %q", v)
		}
		c.PageSize = n
	}
	if v := get("ADMIN_THEME"); v != "" {
		c.Theme = v
	}
	if v := get("ADMIN_HTTP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid ADMIN_HTTP_TIMEOUT %q", v)
		}
		c.Timeout = d
	}
	if v := get("ADMIN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := get("ADMIN_RESOURCES"); v != "" {
		c.Resources = splitList(v)
	}
	return nil
}

// Validate checks the resolved values.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBaseURL
	}
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return ErrPageSize
	}
	switch c.Theme {
	case "auto", "dark", "light":
	default:
		return ErrTheme
	}
	if c.Timeout <= 0 {
		return ErrTimeout
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("config: invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// Save writes the file-backed settings to the config dir. The token is
// never written.
func (c Config) Save() error {
	if err := os.MkdirAll(c.ConfigDir, 0o755); err != nil {
		return err
	}
	out := c
	out.Token = ""
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(c.ConfigDir, FileName), data, 0o644)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
