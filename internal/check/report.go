package check

import (
	"cmp"
	"fmt"
	"slices"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeCheckFailed tags the error returned by Report.Err.
const TextCodeCheckFailed = "CHECK_FAILED"

// Issue is one finding. Path is the document path or the configuration file;
// Field names the offending key when known.
type Issue struct {
	Rule     string
	Path     string
	Field    string
	Message  string
	Severity goerrors.Severity
}

func (i Issue) String() string {
	location := i.Path
	if i.Field != "" {
		location += "#" + i.Field
	}
	return fmt.Sprintf("[%s] %s %s: %s", i.Severity, i.Rule, location, i.Message)
}

// Report collects the issues of a run.
type Report struct {
	Rules     []string
	Documents int
	Issues    []Issue
}

func (r *Report) add(issue Issue) {
	r.Issues = append(r.Issues, issue)
}

func (r *Report) errorf(rule, path, field, format string, args ...any) {
	r.add(Issue{Rule: rule, Path: path, Field: field, Message: fmt.Sprintf(format, args...), Severity: goerrors.SeverityError})
}

func (r *Report) warnf(rule, path, field, format string, args ...any) {
	r.add(Issue{Rule: rule, Path: path, Field: field, Message: fmt.Sprintf(format, args...), Severity: goerrors.SeverityWarning})
}

// sort orders issues by path, rule, field and message so output is stable.
func (r *Report) sort() {
	slices.SortStableFunc(r.Issues, func(a, b Issue) int {
		return cmp.Or(
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(a.Rule, b.Rule),
			cmp.Compare(a.Field, b.Field),
			cmp.Compare(a.Message, b.Message),
		)
	})
}

// Errors returns issues at error severity or above.
func (r *Report) Errors() []Issue {
	return r.filter(func(i Issue) bool { return i.Severity >= goerrors.SeverityError })
}

// Warnings returns issues below error severity.
func (r *Report) Warnings() []Issue {
	return r.filter(func(i Issue) bool { return i.Severity < goerrors.SeverityError })
}

// ByRule returns the issues raised by rule.
func (r *Report) ByRule(rule string) []Issue {
	return r.filter(func(i Issue) bool { return i.Rule == rule })
}

func (r *Report) filter(keep func(Issue) bool) []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if keep(issue) {
			out = append(out, issue)
		}
	}
	return out
}

// Err returns a validation error listing every failing issue, or nil. Warnings
// fail the run only in strict mode.
func (r *Report) Err(strict bool) error {
	failing := r.Errors()
	if strict {
		failing = r.Issues
	}
	if len(failing) == 0 {
		return nil
	}

	fields := make([]goerrors.FieldError, 0, len(failing))
	for _, issue := range failing {
		field := issue.Path
		if issue.Field != "" {
			field += "#" + issue.Field
		}
		fields = append(fields, goerrors.FieldError{
			Field:   field,
			Message: issue.Rule + ": " + issue.Message,
		})
	}
	return goerrors.NewValidation(
		fmt.Sprintf("blog check found %d issue(s) in %d document(s)", len(failing), r.Documents),
		fields...,
	).WithTextCode(TextCodeCheckFailed).WithMetadata(map[string]any{
		"rules":    r.Rules,
		"errors":   len(r.Errors()),
		"warnings": len(r.Warnings()),
	})
}
