package runtimeconfig_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goliatone/go-blog/internal/runtimeconfig"
)

func TestDefaultConfigValidates(t *testing.T) {
	if err := runtimeconfig.DefaultConfig().Validate(); err != nil {
		t.Fatalf("Validate() returned unexpected error: %v", err)
	}
}

func TestConfigValidate_Sentinels(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*runtimeconfig.Config)
		want   error
	}{
		{"root", func(c *runtimeconfig.Config) { c.RootDir = " " }, runtimeconfig.ErrRootDirRequired},
		{"content", func(c *runtimeconfig.Config) { c.ContentDir = "" }, runtimeconfig.ErrContentDirRequired},
		{"output", func(c *runtimeconfig.Config) { c.OutputDir = "" }, runtimeconfig.ErrOutputDirRequired},
		{"output is root", func(c *runtimeconfig.Config) { c.OutputDir = "." }, runtimeconfig.ErrOutputDirOverlapsRoot},
		{"output is content", func(c *runtimeconfig.Config) { c.OutputDir = "content" }, runtimeconfig.ErrOutputDirOverlapsRoot},
		{"pattern", func(c *runtimeconfig.Config) { c.Pattern = "[" }, runtimeconfig.ErrPatternInvalid},
		{"workers", func(c *runtimeconfig.Config) { c.Workers = -1 }, runtimeconfig.ErrWorkersInvalid},
		{"debounce", func(c *runtimeconfig.Config) { c.Watch.Debounce = 0 }, runtimeconfig.ErrWatchDebounceInvalid},
		{"provider", func(c *runtimeconfig.Config) { c.Logging.Provider = "syslog" }, runtimeconfig.ErrLoggingProviderUnknown},
		{"level", func(c *runtimeconfig.Config) { c.Logging.Level = "loud" }, runtimeconfig.ErrLoggingLevelInvalid},
		{"format", func(c *runtimeconfig.Config) {
			c.Logging.Provider = "gologger"
			c.Logging.Format = "xml"
		}, runtimeconfig.ErrLoggingFormatInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runtimeconfig.DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestConfigPathResolvesAgainstRoot(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.RootDir = "/srv/blog"

	if got := cfg.Path(cfg.ContentDir); got != filepath.Join("/srv/blog", "content") {
		t.Fatalf("unexpected content path %q", got)
	}
	if got := cfg.Path("/tmp/out"); got != "/tmp/out" {
		t.Fatalf("absolute path should be untouched, got %q", got)
	}
}

func TestApplyEnv_FileThenProcess(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "BLOG_OUTPUT_DIR=dist\nBLOG_WORKERS=4\nBLOG_LOG_LEVEL=debug\nBLOG_WATCH_DEBOUNCE=1s\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("BLOG_LOG_LEVEL", "warn")
	t.Setenv("BLOG_SAFE_MODE", "true")

	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.ApplyEnv(envFile); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}

	if cfg.OutputDir != "dist" || cfg.Workers != 4 {
		t.Fatalf("expected file values, got output=%q workers=%d", cfg.OutputDir, cfg.Workers)
	}
	if cfg.Logging.Level != "warn" {
		t.Fatalf("expected process env to win, got %q", cfg.Logging.Level)
	}
	if !cfg.Markdown.SafeMode {
		t.Fatalf("expected safe mode from env")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Fatalf("expected 1s debounce, got %s", cfg.Watch.Debounce)
	}
}

func TestApplyEnv_MissingFileIsIgnored(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("expected missing env file to be ignored, got %v", err)
	}
}

func TestApplyEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("BLOG_WORKERS", "many")
	cfg := runtimeconfig.DefaultConfig()
	if err := cfg.ApplyEnv(""); !errors.Is(err, runtimeconfig.ErrEnvValueInvalid) {
		t.Fatalf("expected ErrEnvValueInvalid, got %v", err)
	}
}
