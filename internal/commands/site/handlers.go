package sitecmd

import (
	"context"
	"errors"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-blog/internal/check"
	"github.com/goliatone/go-blog/internal/commands"
	"github.com/goliatone/go-blog/internal/generator"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const textCodeUnknownRule = "CHECK_UNKNOWN_RULE"

// BuildSiteHandler orchestrates generator builds using the shared command handler foundation.
type BuildSiteHandler struct {
	inner *commands.Handler[BuildSiteCommand]
}

// NewBuildSiteHandler constructs a handler wired to the provided generator service.
func NewBuildSiteHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[BuildSiteCommand]) *BuildSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg BuildSiteCommand) error {
		if service == nil {
			return generator.ErrServiceDisabled
		}
		if msg.Clean {
			if err := service.Clean(ctx); err != nil {
				return err
			}
		}

		result, err := service.Build(ctx, generator.BuildOptions{
			DryRun:      msg.DryRun,
			BuildDrafts: msg.Drafts,
			BuildFuture: msg.Future,
		})
		if result != nil && msg.ResultCallback != nil {
			msg.ResultCallback(ResultEnvelope{
				Result: result,
				Metadata: map[string]any{
					"operation": "build",
					"clean":     msg.Clean,
				},
			})
		}
		return err
	}

	handlerOpts := []commands.HandlerOption[BuildSiteCommand]{
		commands.WithLogger[BuildSiteCommand](baseLogger),
		commands.WithOperation[BuildSiteCommand]("site.build"),
		commands.WithMessageFields(func(msg BuildSiteCommand) map[string]any {
			fields := map[string]any{}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			if msg.Drafts {
				fields["drafts"] = true
			}
			if msg.Future {
				fields["future"] = true
			}
			if msg.Clean {
				fields["clean"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[BuildSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &BuildSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[BuildSiteCommand].
func (h *BuildSiteHandler) Execute(ctx context.Context, msg BuildSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CheckSiteHandler runs hygiene rules and turns failing reports into validation errors.
type CheckSiteHandler struct {
	inner *commands.Handler[CheckSiteCommand]
}

// NewCheckSiteHandler constructs a handler wired to the provided checker.
func NewCheckSiteHandler(checker Checker, logger interfaces.Logger, opts ...commands.HandlerOption[CheckSiteCommand]) *CheckSiteHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg CheckSiteCommand) error {
		if checker == nil {
			return goerrors.New("site checker is not configured", goerrors.CategoryInternal)
		}
		report, err := checker.Check(ctx, msg.Rules)
		if err != nil {
			if errors.Is(err, check.ErrUnknownRule) {
				return goerrors.Wrap(err, goerrors.CategoryBadInput, "unknown check rule").
					WithTextCode(textCodeUnknownRule)
			}
			return err
		}
		if msg.ReportCallback != nil {
			msg.ReportCallback(report)
		}
		return report.Err(msg.Strict)
	}

	handlerOpts := []commands.HandlerOption[CheckSiteCommand]{
		commands.WithLogger[CheckSiteCommand](baseLogger),
		commands.WithOperation[CheckSiteCommand]("site.check"),
		commands.WithMessageFields(func(msg CheckSiteCommand) map[string]any {
			fields := map[string]any{"strict": msg.Strict}
			if len(msg.Rules) > 0 {
				fields["rules"] = len(msg.Rules)
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[CheckSiteCommand](baseLogger)),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CheckSiteHandler{
		inner: commands.NewHandler(exec, handlerOpts...),
	}
}

// Execute satisfies command.Commander[CheckSiteCommand].
func (h *CheckSiteHandler) Execute(ctx context.Context, msg CheckSiteCommand) error {
	return h.inner.Execute(ctx, msg)
}
