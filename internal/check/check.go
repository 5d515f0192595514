// Package check runs hygiene rules over the site configuration and the
// article corpus: metadata well-formedness, duplicate detection, taxonomy
// reachability, menu resolution, format round-trips and configuration keys.
package check

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/logging"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/siteconfig"
	"github.com/goliatone/go-blog/internal/validation"
	"github.com/goliatone/go-blog/pkg/interfaces"
)

const (
	RuleFrontMatter = "frontmatter"
	RuleDuplicates  = "duplicates"
	RuleTaxonomy    = "taxonomy"
	RuleMenus       = "menus"
	RuleRoundTrip   = "roundtrip"
	RuleConfig      = "config"
)

var ErrUnknownRule = errors.New("check: unknown rule")

// Input is everything a run inspects.
type Input struct {
	// ConfigPath labels configuration issues.
	ConfigPath  string
	Config      *siteconfig.Config
	UnknownKeys []string
	Documents   []*content.Document
	// LoadErrors are documents that could not be parsed at all.
	LoadErrors []*content.ParseError
	Router     *routes.Router
	// StaticFiles are extra site-relative paths (e.g. "/favicon.ico") menus may link to.
	StaticFiles []string
	Now         time.Time
}

// Rule is a single named check.
type Rule interface {
	Name() string
	Check(ctx context.Context, in *Input, report *Report) error
}

// Checker runs a set of rules.
type Checker struct {
	rules     []Rule
	logger    interfaces.Logger
	validator *validation.Validator
}

// Option customises a Checker.
type Option func(*Checker)

// WithLogger sets the logger used for run diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(c *Checker) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidator replaces the front matter schema validator.
func WithValidator(v *validation.Validator) Option {
	return func(c *Checker) {
		if v != nil {
			c.validator = v
		}
	}
}

// WithRules replaces the default rule set.
func WithRules(rules ...Rule) Option {
	return func(c *Checker) {
		c.rules = rules
	}
}

// New returns a Checker with every built-in rule.
func New(opts ...Option) *Checker {
	c := &Checker{logger: logging.NoOp()}
	for _, opt := range opts {
		opt(c)
	}
	if c.validator == nil {
		c.validator = validation.Default()
	}
	if c.rules == nil {
		c.rules = []Rule{
			frontMatterRule{validator: c.validator},
			duplicatesRule{},
			taxonomyRule{},
			menusRule{},
			roundTripRule{},
			configRule{},
		}
	}
	return c
}

// DefaultRuleNames lists the built-in rules in run order.
func DefaultRuleNames() []string {
	return []string{RuleFrontMatter, RuleDuplicates, RuleTaxonomy, RuleMenus, RuleRoundTrip, RuleConfig}
}

// RuleNames lists the rules the checker runs, in order.
func (c *Checker) RuleNames() []string {
	names := make([]string, 0, len(c.rules))
	for _, rule := range c.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Run executes the selected rules (all when names is empty) and returns the
// report. The error is non-nil only when a rule name is unknown, a rule
// cannot run, or ctx is cancelled; findings live in the report.
func (c *Checker) Run(ctx context.Context, in Input, names ...string) (*Report, error) {
	selected, err := c.selectRules(names)
	if err != nil {
		return nil, err
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}
	if in.ConfigPath == "" {
		in.ConfigPath = "config.toml"
	}

	report := &Report{Documents: len(in.Documents) + len(in.LoadErrors)}
	for _, rule := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := len(report.Issues)
		if err := rule.Check(ctx, &in, report); err != nil {
			return nil, fmt.Errorf("check %s: %w", rule.Name(), err)
		}
		report.Rules = append(report.Rules, rule.Name())
		c.logger.Debug("check.rule.completed", "rule", rule.Name(), "issues", len(report.Issues)-before)
	}
	report.sort()

	c.logger.Info("check.run.completed",
		"rules", strings.Join(report.Rules, ","),
		"documents", report.Documents,
		"errors", len(report.Errors()),
		"warnings", len(report.Warnings()),
	)
	return report, nil
}

func (c *Checker) selectRules(names []string) ([]Rule, error) {
	if len(names) == 0 {
		return c.rules, nil
	}
	var out []Rule
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		idx := slices.IndexFunc(c.rules, func(r Rule) bool { return r.Name() == name })
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownRule, name, strings.Join(c.RuleNames(), ", "))
		}
		if !slices.Contains(out, c.rules[idx]) {
			out = append(out, c.rules[idx])
		}
	}
	return out, nil
}

// published returns the documents a default build renders.
func (in *Input) published() []*content.Document {
	var out []*content.Document
	drafts, future := false, false
	if in.Config != nil {
		drafts, future = in.Config.BuildDrafts, in.Config.BuildFuture
	}
	for _, doc := range in.Documents {
		if doc.Published(in.Now, drafts, future) {
			out = append(out, doc)
		}
	}
	return out
}
