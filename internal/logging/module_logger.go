package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	rootModule      = "blog"
	siteModule      = "blog.site"
	contentModule   = "blog.content"
	generatorModule = "blog.generator"
	checkModule     = "blog.check"
	watchModule     = "blog.watch"
)

const (
	fieldDocumentPath = "document_path"
	fieldSection      = "section"
	fieldAction       = "action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per module.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// SiteLogger returns the logger namespace reserved for site configuration.
func SiteLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, siteModule)
}

// ContentLogger returns the logger namespace reserved for content loading.
func ContentLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, contentModule)
}

// GeneratorLogger returns the logger namespace reserved for site builds.
func GeneratorLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, generatorModule)
}

// CheckLogger returns the logger namespace reserved for corpus checks.
func CheckLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, checkModule)
}

// WatchLogger returns the logger namespace reserved for the file watcher.
func WatchLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, watchModule)
}

// WithDocumentContext enriches the logger with the document path, its section
// and the action being performed. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, path, section, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(section); trimmed != "" {
		fields[fieldSection] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every log entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
