package siteconfig

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var knownFormats = []any{FormatHTML, FormatRSS, FormatJSON}

var knownKinds = []any{KindHome, KindSection, KindPage, KindTaxonomy, KindTerm}

// Validate checks the configuration. Failures are returned as
// validation.Errors keyed by dotted field path.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("siteconfig: nil configuration")
	}

	errs := validation.Errors{}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL, validation.By(absoluteHTTP)),
		validation.Field(&c.Title, validation.Required),
		validation.Field(&c.SummaryLength, validation.Min(0)),
		validation.Field(&c.Paginate, validation.Min(0)),
		validation.Field(&c.RSSLimit, validation.Min(-1)),
	); err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for key, fieldErr := range fieldErrs {
			errs[key] = fieldErr
		}
	}

	for singular, plural := range c.Taxonomies {
		if strings.TrimSpace(singular) == "" || strings.TrimSpace(plural) == "" {
			errs["taxonomies."+singular] = validation.NewError("validation_taxonomy_name", "taxonomy names must not be empty")
		}
	}

	for kind, formats := range c.Outputs {
		if err := validation.Validate(strings.ToLower(kind), validation.In(knownKinds...)); err != nil {
			errs["outputs."+kind] = validation.NewError("validation_output_kind", fmt.Sprintf("unknown page kind %q", kind))
			continue
		}
		for _, format := range formats {
			if err := validation.Validate(strings.ToUpper(format), validation.In(knownFormats...)); err != nil {
				errs["outputs."+kind] = validation.NewError("validation_output_format", fmt.Sprintf("unsupported output format %q", format))
			}
		}
	}

	for location, entries := range c.AllMenus() {
		for i := range entries {
			if err := entries[i].Validate(); err != nil {
				errs[fmt.Sprintf("%s[%d]", location, i)] = err
			}
		}
	}

	if len(c.Languages) > 0 {
		codes := c.LanguageCodes()
		if !slices.Contains(codes, c.ContentLanguage()) {
			errs["defaultContentLanguage"] = validation.NewError("validation_default_language",
				fmt.Sprintf("language %q is not declared in [languages]", c.ContentLanguage()))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Validate checks a single menu entry.
func (m MenuEntry) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Name, validation.Required),
		validation.Field(&m.URL, validation.Required),
	)
}

func absoluteHTTP(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return validation.NewError("validation_base_url", "must be an absolute http(s) URL")
	}
	return nil
}
