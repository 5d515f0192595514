// Package validation checks article metadata blocks against a JSON Schema.
package validation

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

//go:embed frontmatter.schema.json
var defaultSchema []byte

// ValidationIssue captures a single validation failure.
type ValidationIssue struct {
	Location string
	Message  string
}

// PayloadValidationError surfaces validation issues with schema-aware context.
type PayloadValidationError struct {
	Issues []ValidationIssue
	Cause  error
}

func (e *PayloadValidationError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Message == "" {
			parts = append(parts, issue.Pointer())
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Pointer(), issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadValidationError) Unwrap() error {
	return ErrSchemaValidation
}

// Pointer returns the JSON pointer of the issue, "#" for the document root.
func (i ValidationIssue) Pointer() string {
	location := strings.TrimSpace(i.Location)
	if location == "" {
		return "#"
	}
	if !strings.HasPrefix(location, "#") {
		return "#" + location
	}
	return location
}

// Field returns the top-level metadata key the issue refers to, if any.
func (i ValidationIssue) Field() string {
	location := strings.TrimPrefix(strings.TrimPrefix(i.Location, "#"), "/")
	field, _, _ := strings.Cut(location, "/")
	return field
}

// Issues extracts validation issues from an error.
func Issues(err error) []ValidationIssue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadValidationError
	if errors.As(err, &payloadErr) && payloadErr != nil {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []ValidationIssue{{Message: err.Error()}}
}

// Validator validates metadata blocks against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a JSON Schema document.
func NewValidator(schema []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("frontmatter.schema.json", bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile("frontmatter.schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Validator{schema: compiled}, nil
}

var defaultValidator = sync.OnceValues(func() (*Validator, error) {
	return NewValidator(defaultSchema)
})

// Default returns the validator for the built-in article schema.
func Default() *Validator {
	v, err := defaultValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// ValidateFrontMatter validates a decoded metadata block. Keys are matched
// case-insensitively and values are normalised through JSON first, so TOML
// datetimes are checked as strings.
func (v *Validator) ValidateFrontMatter(raw map[string]any) error {
	payload, err := normalizePayload(raw)
	if err != nil {
		return &PayloadValidationError{Issues: []ValidationIssue{{Message: err.Error()}}, Cause: err}
	}
	if err := v.schema.Validate(payload); err != nil {
		return &PayloadValidationError{Issues: Issues(err), Cause: err}
	}
	return nil
}

func normalizePayload(raw map[string]any) (any, error) {
	lowered := make(map[string]any, len(raw))
	for key, value := range raw {
		lowered[strings.ToLower(key)] = value
	}
	encoded, err := json.Marshal(lowered)
	if err != nil {
		return nil, fmt.Errorf("metadata is not representable as JSON: %w", err)
	}
	var payload any
	if err := json.Unmarshal(encoded, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func collectValidationIssues(err *jsonschema.ValidationError) []ValidationIssue {
	if err == nil {
		return nil
	}
	issues := []ValidationIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, ValidationIssue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	slices.SortStableFunc(issues, func(a, b ValidationIssue) int {
		return strings.Compare(a.Location, b.Location)
	})
	return issues
}
