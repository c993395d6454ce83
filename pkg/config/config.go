package config

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

// Config stores asset server runtime configuration.
type Config struct {
	ServerPort string
	LogLevel   string

	Server ServerConfig

	Assets AssetsConfig

	Compression bool

	RateLimit RateLimitConfig
}

// ServerConfig holds HTTP server timeouts.
type ServerConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// AssetsConfig describes the served directories and the default alias.
type AssetsConfig struct {
	WorkRoot  string
	IndexFile string
	JSDir     string
	CSSDir    string
	EPUBDir   string

	DefaultAlias string
	DefaultFile  string
	DefaultGlob  string
}

// RateLimitConfig controls global and per-IP limits.
type RateLimitConfig struct {
	Enabled bool
	RPS     float64
	Burst   int
}

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Load reads configuration from a .env file (if present), the environment
// and finally command-line flags. Flags only override values they set.
func Load(args []string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "5000"),
		LogLevel:   strings.ToLower(getEnv("LOG_LEVEL", "info")),
		Server: ServerConfig{
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 20*time.Second),
		},
		Assets: AssetsConfig{
			WorkRoot:     getEnv("ASSETS_WORK_ROOT", "."),
			IndexFile:    getEnv("ASSETS_INDEX_FILE", "index.html"),
			JSDir:        getEnv("ASSETS_JS_DIR", filepath.Join("static", "js")),
			CSSDir:       getEnv("ASSETS_CSS_DIR", filepath.Join("static", "css")),
			EPUBDir:      getEnv("ASSETS_EPUB_DIR", "attached_assets"),
			DefaultAlias: getEnv("ASSETS_DEFAULT_ALIAS", "default.epub"),
			DefaultFile:  getEnv("ASSETS_DEFAULT_FILE", "ebook.epub"),
			DefaultGlob:  getEnv("ASSETS_DEFAULT_GLOB", "*.epub"),
		},
		Compression: getEnvBool("COMPRESSION_ENABLED", true),
		RateLimit: RateLimitConfig{
			Enabled: getEnvBool("RATE_LIMIT_ENABLED", false),
			RPS:     getEnvFloat("RATE_LIMIT_RPS", 100),
			Burst:   getEnvInt("RATE_LIMIT_BURST", 200),
		},
	}

	if err := cfg.applyFlags(args); err != nil {
		return nil, err
	}

	cfg.Assets.JSDir = underRoot(cfg.Assets.WorkRoot, cfg.Assets.JSDir)
	cfg.Assets.CSSDir = underRoot(cfg.Assets.WorkRoot, cfg.Assets.CSSDir)
	cfg.Assets.EPUBDir = underRoot(cfg.Assets.WorkRoot, cfg.Assets.EPUBDir)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyFlags(args []string) error {
	fs := flag.NewFlagSet("reader-server", flag.ContinueOnError)
	fs.StringVarP(&c.ServerPort, "port", "p", c.ServerPort, "listen port (SERVER_PORT)")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error (LOG_LEVEL)")
	fs.StringVarP(&c.Assets.WorkRoot, "root", "r", c.Assets.WorkRoot, "working root for / and generic files (ASSETS_WORK_ROOT)")
	fs.StringVar(&c.Assets.IndexFile, "index", c.Assets.IndexFile, "index document served at / (ASSETS_INDEX_FILE)")
	fs.StringVar(&c.Assets.JSDir, "js-dir", c.Assets.JSDir, "directory served at /js/ (ASSETS_JS_DIR)")
	fs.StringVar(&c.Assets.CSSDir, "css-dir", c.Assets.CSSDir, "directory served at /css/ (ASSETS_CSS_DIR)")
	fs.StringVar(&c.Assets.EPUBDir, "epub-dir", c.Assets.EPUBDir, "directory served at /epub/ (ASSETS_EPUB_DIR)")
	fs.BoolVar(&c.Compression, "compress", c.Compression, "gzip compressible responses (COMPRESSION_ENABLED)")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	return nil
}

func (c *Config) validate() error {
	if _, ok := logLevels[c.LogLevel]; !ok {
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error; got %q", c.LogLevel)
	}

	port, err := strconv.Atoi(c.ServerPort)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a port number; got %q", c.ServerPort)
	}

	timeouts := map[string]time.Duration{
		"SERVER_READ_TIMEOUT":     c.Server.ReadTimeout,
		"SERVER_WRITE_TIMEOUT":    c.Server.WriteTimeout,
		"SERVER_IDLE_TIMEOUT":     c.Server.IdleTimeout,
		"SERVER_SHUTDOWN_TIMEOUT": c.Server.ShutdownTimeout,
	}
	for name, value := range timeouts {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	if c.Assets.IndexFile == "" {
		return fmt.Errorf("ASSETS_INDEX_FILE must not be empty")
	}
	if strings.ContainsAny(c.Assets.DefaultAlias, `/\`) || c.Assets.DefaultAlias == "" {
		return fmt.Errorf("ASSETS_DEFAULT_ALIAS must be a plain file name; got %q", c.Assets.DefaultAlias)
	}
	if _, err := path.Match(c.Assets.DefaultGlob, ""); err != nil {
		return fmt.Errorf("ASSETS_DEFAULT_GLOB is invalid: %w", err)
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.RPS <= 0 {
			return fmt.Errorf("RATE_LIMIT_RPS must be positive")
		}
		if c.RateLimit.Burst <= 0 {
			return fmt.Errorf("RATE_LIMIT_BURST must be positive")
		}
	}

	return nil
}

func underRoot(root, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(root, dir)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseBool(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return parsed
		}
	}
	return fallback
}
