package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrRootDirRequired        = errors.New("blog config: root directory is required")
	ErrContentDirRequired     = errors.New("blog config: content directory is required")
	ErrOutputDirRequired      = errors.New("blog config: output directory is required")
	ErrOutputDirOverlapsRoot  = errors.New("blog config: output directory must not be the site root or content directory")
	ErrPatternInvalid         = errors.New("blog config: content pattern is invalid")
	ErrWorkersInvalid         = errors.New("blog config: workers must be zero or positive")
	ErrWatchDebounceInvalid   = errors.New("blog config: watch debounce must be positive")
	ErrLoggingProviderUnknown = errors.New("blog config: logging provider is invalid")
	ErrLoggingLevelInvalid    = errors.New("blog config: logging level is invalid")
	ErrLoggingFormatInvalid   = errors.New("blog config: logging format is invalid")
	ErrEnvValueInvalid        = errors.New("blog config: environment value is invalid")
)

// EnvPrefix namespaces every environment override.
const EnvPrefix = "BLOG_"

// Config describes where the blog lives on disk and how the toolchain runs.
// Site-level settings (title, taxonomies, menus) live in the TOML site
// configuration instead.
type Config struct {
	RootDir    string
	ConfigFile string
	ContentDir string
	LayoutsDir string
	StaticDir  string
	ThemesDir  string
	OutputDir  string
	Pattern    string

	// BaseURL overrides the site configuration's baseURL when set.
	BaseURL string

	Workers       int
	CleanBuild    bool
	RenderTimeout time.Duration

	Markdown MarkdownConfig
	Logging  LoggingConfig
	Watch    WatchConfig
}

// MarkdownConfig mirrors interfaces.ParseOptions.
type MarkdownConfig struct {
	Extensions []string
	HardWraps  bool
	SafeMode   bool
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// WatchConfig tunes the rebuild watcher.
type WatchConfig struct {
	Debounce time.Duration
}

// DefaultConfig returns the layout used by a freshly scaffolded blog.
func DefaultConfig() Config {
	return Config{
		RootDir:    ".",
		ConfigFile: "config.toml",
		ContentDir: "content",
		LayoutsDir: "layouts",
		StaticDir:  "static",
		ThemesDir:  "themes",
		OutputDir:  "public",
		Pattern:    "*.md",
		CleanBuild: true,
		Markdown: MarkdownConfig{
			Extensions: []string{"gfm", "footnote", "definition"},
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Watch: WatchConfig{
			Debounce: 300 * time.Millisecond,
		},
	}
}

// Path resolves a configured directory against RootDir. Absolute values are
// returned untouched.
func (cfg Config) Path(dir string) string {
	if dir == "" || filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(cfg.RootDir, dir)
}

// Validate performs consistency checks and returns the first failure.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.RootDir) == "" {
		return ErrRootDirRequired
	}
	if strings.TrimSpace(cfg.ContentDir) == "" {
		return ErrContentDirRequired
	}
	output := strings.TrimSpace(cfg.OutputDir)
	if output == "" {
		return ErrOutputDirRequired
	}
	if out := filepath.Clean(cfg.Path(output)); out == filepath.Clean(cfg.RootDir) || out == filepath.Clean(cfg.Path(cfg.ContentDir)) {
		return fmt.Errorf("%w: %s", ErrOutputDirOverlapsRoot, output)
	}
	if _, err := filepath.Match(cfg.Pattern, "sample.md"); err != nil || strings.TrimSpace(cfg.Pattern) == "" {
		return fmt.Errorf("%w: %q", ErrPatternInvalid, cfg.Pattern)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrWorkersInvalid, cfg.Workers)
	}
	if cfg.Watch.Debounce <= 0 {
		return fmt.Errorf("%w: %s", ErrWatchDebounceInvalid, cfg.Watch.Debounce)
	}

	provider := normalize(cfg.Logging.Provider)
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, cfg.Logging.Provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// ApplyEnv overlays BLOG_* variables onto cfg. Values from envFile (a dotenv
// file, optional) are read first; the process environment wins over them.
func (cfg *Config) ApplyEnv(envFile string) error {
	values := map[string]string{}
	if envFile != "" {
		fileValues, err := godotenv.Read(envFile)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("blog config: read env file %s: %w", envFile, err)
		}
		for key, value := range fileValues {
			values[key] = value
		}
	}
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(key, EnvPrefix) {
			values[key] = value
		}
	}
	return cfg.applyValues(values)
}

func (cfg *Config) applyValues(values map[string]string) error {
	str := func(key string, dst *string) {
		if v, ok := values[EnvPrefix+key]; ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("ROOT", &cfg.RootDir)
	str("CONFIG", &cfg.ConfigFile)
	str("CONTENT_DIR", &cfg.ContentDir)
	str("LAYOUTS_DIR", &cfg.LayoutsDir)
	str("STATIC_DIR", &cfg.StaticDir)
	str("THEMES_DIR", &cfg.ThemesDir)
	str("OUTPUT_DIR", &cfg.OutputDir)
	str("PATTERN", &cfg.Pattern)
	str("BASE_URL", &cfg.BaseURL)
	str("LOG_PROVIDER", &cfg.Logging.Provider)
	str("LOG_LEVEL", &cfg.Logging.Level)
	str("LOG_FORMAT", &cfg.Logging.Format)

	if v, ok := values[EnvPrefix+"WORKERS"]; ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sWORKERS=%q", ErrEnvValueInvalid, EnvPrefix, v)
		}
		cfg.Workers = n
	}
	for key, dst := range map[string]*bool{
		"CLEAN_BUILD":    &cfg.CleanBuild,
		"LOG_ADD_SOURCE": &cfg.Logging.AddSource,
		"SAFE_MODE":      &cfg.Markdown.SafeMode,
		"HARD_WRAPS":     &cfg.Markdown.HardWraps,
	} {
		v, ok := values[EnvPrefix+key]
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q", ErrEnvValueInvalid, EnvPrefix, key, v)
		}
		*dst = b
	}
	if v, ok := values[EnvPrefix+"WATCH_DEBOUNCE"]; ok && v != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sWATCH_DEBOUNCE=%q", ErrEnvValueInvalid, EnvPrefix, v)
		}
		cfg.Watch.Debounce = d
	}
	if v, ok := values[EnvPrefix+"LOG_FOCUS"]; ok && v != "" {
		cfg.Logging.Focus = strings.Split(v, ",")
	}
	return nil
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch normalize(level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch normalize(format) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
