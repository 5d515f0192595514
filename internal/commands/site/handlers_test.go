package sitecmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/check"
	"github.com/goliatone/go-blog/internal/generator"
)

type fakeGeneratorService struct {
	calls     []string
	buildFunc func(context.Context, generator.BuildOptions) (*generator.BuildResult, error)
	cleanFunc func(context.Context) error
}

func (f *fakeGeneratorService) Build(ctx context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
	f.calls = append(f.calls, "build")
	if f.buildFunc != nil {
		return f.buildFunc(ctx, opts)
	}
	return &generator.BuildResult{}, nil
}

func (f *fakeGeneratorService) Clean(ctx context.Context) error {
	f.calls = append(f.calls, "clean")
	if f.cleanFunc != nil {
		return f.cleanFunc(ctx)
	}
	return nil
}

type fakeChecker struct {
	rules  []string
	report *check.Report
	err    error
}

func (f *fakeChecker) Check(_ context.Context, rules []string) (*check.Report, error) {
	f.rules = rules
	return f.report, f.err
}

func TestBuildSiteHandlerForwardsOptions(t *testing.T) {
	var captured generator.BuildOptions
	svc := &fakeGeneratorService{
		buildFunc: func(_ context.Context, opts generator.BuildOptions) (*generator.BuildResult, error) {
			captured = opts
			return &generator.BuildResult{PagesBuilt: 3}, nil
		},
	}

	var envelope ResultEnvelope
	handler := NewBuildSiteHandler(svc, nil)
	err := handler.Execute(context.Background(), BuildSiteCommand{
		Drafts:         true,
		Clean:          true,
		ResultCallback: func(env ResultEnvelope) { envelope = env },
	})
	if err != nil {
		t.Fatalf("execute build: %v", err)
	}

	if diff := cmp.Diff(generator.BuildOptions{BuildDrafts: true}, captured); diff != "" {
		t.Fatalf("build options mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"clean", "build"}, svc.calls); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	if envelope.Result == nil || envelope.Result.PagesBuilt != 3 {
		t.Fatalf("expected callback with build result, got %+v", envelope)
	}
	if envelope.Metadata["operation"] != "build" {
		t.Fatalf("expected operation build, got %v", envelope.Metadata["operation"])
	}
}

func TestBuildSiteHandlerRejectsCleanDryRun(t *testing.T) {
	svc := &fakeGeneratorService{}
	err := NewBuildSiteHandler(svc, nil).Execute(context.Background(), BuildSiteCommand{Clean: true, DryRun: true})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("expected no generator calls, got %v", svc.calls)
	}
}

func TestBuildSiteHandlerReportsPartialResults(t *testing.T) {
	pageErr := errors.New("render posts/broken.md")
	svc := &fakeGeneratorService{
		buildFunc: func(context.Context, generator.BuildOptions) (*generator.BuildResult, error) {
			return &generator.BuildResult{PagesBuilt: 2, Errors: []error{pageErr}}, pageErr
		},
	}

	called := false
	err := NewBuildSiteHandler(svc, nil).Execute(context.Background(), BuildSiteCommand{
		ResultCallback: func(env ResultEnvelope) { called = env.Result.PagesBuilt == 2 },
	})
	if !goerrors.IsCategory(err, goerrors.CategoryCommand) || !errors.Is(err, pageErr) {
		t.Fatalf("expected wrapped command error, got %v", err)
	}
	if !called {
		t.Fatal("expected callback with the partial result")
	}
}

func TestBuildSiteHandlerWithoutService(t *testing.T) {
	err := NewBuildSiteHandler(nil, nil).Execute(context.Background(), BuildSiteCommand{})
	if !errors.Is(err, generator.ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

func TestCheckSiteHandlerStrictMode(t *testing.T) {
	report := &check.Report{
		Rules:     []string{check.RuleConfig},
		Documents: 1,
		Issues: []check.Issue{{
			Rule:     check.RuleConfig,
			Path:     "config.toml",
			Field:    "googleAnalytics",
			Message:  "unknown configuration key",
			Severity: goerrors.SeverityWarning,
		}},
	}

	cases := []struct {
		strict  bool
		wantErr bool
	}{
		{strict: false, wantErr: false},
		{strict: true, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("strict=%v", tc.strict), func(t *testing.T) {
			checker := &fakeChecker{report: report}
			var seen *check.Report
			err := NewCheckSiteHandler(checker, nil).Execute(context.Background(), CheckSiteCommand{
				Rules:          []string{check.RuleConfig},
				Strict:         tc.strict,
				ReportCallback: func(r *check.Report) { seen = r },
			})
			if seen != report {
				t.Fatalf("expected the report to reach the callback")
			}
			if diff := cmp.Diff([]string{check.RuleConfig}, checker.rules); diff != "" {
				t.Fatalf("rules mismatch (-want +got):\n%s", diff)
			}
			if !tc.wantErr {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			fields, ok := goerrors.GetValidationErrors(err)
			if !ok || len(fields) != 1 || fields[0].Field != "config.toml#googleAnalytics" {
				t.Fatalf("unexpected field errors: %+v", fields)
			}
		})
	}
}

func TestCheckSiteHandlerValidatesRuleNames(t *testing.T) {
	checker := &fakeChecker{report: &check.Report{}}
	err := NewCheckSiteHandler(checker, nil).Execute(context.Background(), CheckSiteCommand{Rules: []string{"spelling"}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if checker.rules != nil {
		t.Fatalf("checker must not run for invalid rules")
	}
}

func TestCheckSiteHandlerMapsUnknownRuleErrors(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("%w: %q", check.ErrUnknownRule, "custom")}
	err := NewCheckSiteHandler(checker, nil).Execute(context.Background(), CheckSiteCommand{})
	if !goerrors.IsCategory(err, goerrors.CategoryBadInput) {
		t.Fatalf("expected bad input error, got %v", err)
	}
	if !errors.Is(err, check.ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule to stay reachable, got %v", err)
	}
}
