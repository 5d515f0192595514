package sitecmd

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/internal/check"
	"github.com/goliatone/go-blog/internal/generator"
)

const (
	buildSiteMessageType = "blog.site.build"
	checkSiteMessageType = "blog.site.check"
)

// ResultCallback receives build results produced by generator operations. It is
// invoked synchronously, also when the build fails with a partial result.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a build command.
type ResultEnvelope struct {
	Result   *generator.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand renders the site into the output directory.
type BuildSiteCommand struct {
	DryRun         bool           `json:"dry_run,omitempty"`
	Drafts         bool           `json:"drafts,omitempty"`
	Future         bool           `json:"future,omitempty"`
	Clean          bool           `json:"clean,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate rejects cleaning the output directory during a dry run.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	if m.Clean && m.DryRun {
		errs["clean"] = validation.NewError("blog.site.build.clean_dry_run", "clean cannot be combined with dry_run")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Checker runs corpus hygiene rules. An empty rule list runs all of them.
type Checker interface {
	Check(ctx context.Context, rules []string) (*check.Report, error)
}

// ReportCallback receives the report of a check command before its verdict is returned.
type ReportCallback func(*check.Report)

// CheckSiteCommand runs the hygiene rules over the configuration and articles.
type CheckSiteCommand struct {
	Rules          []string       `json:"rules,omitempty"`
	Strict         bool           `json:"strict,omitempty"`
	ReportCallback ReportCallback `json:"-"`
}

// Type implements command.Message.
func (CheckSiteCommand) Type() string { return checkSiteMessageType }

// Validate ensures every requested rule exists.
func (m CheckSiteCommand) Validate() error {
	known := make([]any, 0, len(check.DefaultRuleNames()))
	for _, name := range check.DefaultRuleNames() {
		known = append(known, name)
	}
	return validation.ValidateStruct(&m,
		validation.Field(&m.Rules, validation.Each(
			validation.Required,
			validation.In(known...).Error("must be one of the built-in rules"),
		)),
	)
}
