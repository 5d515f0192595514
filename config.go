package blog

import "github.com/goliatone/go-blog/internal/runtimeconfig"

var (
	ErrRootDirRequired        = runtimeconfig.ErrRootDirRequired
	ErrContentDirRequired     = runtimeconfig.ErrContentDirRequired
	ErrOutputDirRequired      = runtimeconfig.ErrOutputDirRequired
	ErrOutputDirOverlapsRoot  = runtimeconfig.ErrOutputDirOverlapsRoot
	ErrPatternInvalid         = runtimeconfig.ErrPatternInvalid
	ErrWorkersInvalid         = runtimeconfig.ErrWorkersInvalid
	ErrWatchDebounceInvalid   = runtimeconfig.ErrWatchDebounceInvalid
	ErrLoggingProviderUnknown = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid    = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid   = runtimeconfig.ErrLoggingFormatInvalid
	ErrEnvValueInvalid        = runtimeconfig.ErrEnvValueInvalid
)

type (
	Config         = runtimeconfig.Config
	MarkdownConfig = runtimeconfig.MarkdownConfig
	LoggingConfig  = runtimeconfig.LoggingConfig
	WatchConfig    = runtimeconfig.WatchConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
