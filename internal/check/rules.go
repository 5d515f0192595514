package check

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/siteconfig"
	"github.com/goliatone/go-blog/internal/taxonomy"
	schema "github.com/goliatone/go-blog/internal/validation"
)

// sectionIndexDate stands in for the date of _index.md files, which list a
// section and are not dated themselves.
const sectionIndexDate = "1970-01-01T00:00:00Z"

// frontMatterRule checks every metadata block against the schema and parses
// its timestamps.
type frontMatterRule struct {
	validator *schema.Validator
}

func (frontMatterRule) Name() string { return RuleFrontMatter }

func (r frontMatterRule) Check(ctx context.Context, in *Input, report *Report) error {
	for _, perr := range in.LoadErrors {
		field := ""
		if errors.Is(perr, content.ErrUnterminated) {
			field = "frontmatter"
		}
		report.errorf(RuleFrontMatter, perr.Path, field, "%v", perr.Err)
	}

	for _, doc := range in.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if doc.Format == content.FormatNone {
			report.errorf(RuleFrontMatter, doc.Path, "", "document has no metadata block")
			continue
		}

		raw := maps.Clone(doc.Raw)
		if raw == nil {
			raw = map[string]any{}
		}
		if doc.IsSectionIndex {
			if _, ok := doc.Get("date"); !ok {
				raw["date"] = sectionIndexDate
			}
		}
		if err := r.validator.ValidateFrontMatter(raw); err != nil {
			issues := schema.Issues(err)
			if len(issues) == 0 {
				return err
			}
			for _, issue := range issues {
				report.errorf(RuleFrontMatter, doc.Path, issue.Field(), "%s", issue.Message)
			}
		}

		for _, key := range []string{"date", "publishdate", "lastmod"} {
			value, ok := doc.Get(key)
			if !ok {
				continue
			}
			if _, err := content.ParseTime(value); err != nil {
				report.errorf(RuleFrontMatter, doc.Path, key, "%q is not a timestamp", fmt.Sprint(value))
			}
		}
	}
	return nil
}

// duplicatesRule flags documents sharing a title and timestamp.
type duplicatesRule struct{}

func (duplicatesRule) Name() string { return RuleDuplicates }

func (duplicatesRule) Check(_ context.Context, in *Input, report *Report) error {
	type key struct {
		title string
		date  time.Time
	}
	groups := map[key][]string{}
	var order []key
	for _, doc := range in.Documents {
		title := strings.TrimSpace(doc.Title)
		if title == "" || doc.Date.IsZero() {
			continue
		}
		k := key{title: title, date: doc.Date.UTC()}
		if _, seen := groups[k]; !seen {
			order = append(order, k)
		}
		groups[k] = append(groups[k], doc.Path)
	}

	for _, k := range order {
		paths := groups[k]
		if len(paths) < 2 {
			continue
		}
		for _, p := range paths {
			others := slices.DeleteFunc(slices.Clone(paths), func(o string) bool { return o == p })
			report.errorf(RuleDuplicates, p, "title",
				"title %q at %s is also used by %s", k.title, k.date.Format(time.RFC3339), strings.Join(others, ", "))
		}
	}
	return nil
}

// wellKnownTaxonomies are taxonomy-like keys reported when a document uses
// them without the configuration declaring them.
var wellKnownTaxonomies = []string{"tags", "categories", "series"}

// taxonomyRule checks that taxonomy fields are declared and that every
// published article can be reached from at least one term page.
type taxonomyRule struct{}

func (taxonomyRule) Name() string { return RuleTaxonomy }

func (taxonomyRule) Check(_ context.Context, in *Input, report *Report) error {
	if in.Config == nil {
		return nil
	}
	declared := in.Config.TaxonomyPlurals()

	for _, doc := range in.Documents {
		for _, plural := range wellKnownTaxonomies {
			if slices.Contains(declared, plural) {
				continue
			}
			if _, ok := doc.Get(plural); ok {
				report.errorf(RuleTaxonomy, doc.Path, plural, "taxonomy %q is not declared in the configuration", plural)
			}
		}
	}

	for _, doc := range in.published() {
		if doc.IsSectionIndex || doc.Section == "" {
			continue
		}
		reachable := 0
		for _, plural := range declared {
			for _, term := range doc.Terms(plural) {
				if !usableSlug(content.Slugify(term)) {
					report.errorf(RuleTaxonomy, doc.Path, plural, "term %q has no usable slug", term)
					continue
				}
				reachable++
			}
		}
		if reachable == 0 {
			report.errorf(RuleTaxonomy, doc.Path, "", "published document is not listed under any of %s", strings.Join(declared, ", "))
		}
	}
	return nil
}

// usableSlug reports whether a term slug can name a page.
func usableSlug(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0
}

// menusRule resolves every internal menu URL against the pages a default
// build produces.
type menusRule struct{}

func (menusRule) Name() string { return RuleMenus }

func (menusRule) Check(_ context.Context, in *Input, report *Report) error {
	if in.Config == nil {
		return nil
	}
	router := in.Router
	if router == nil {
		var err error
		if router, err = routes.New(in.Config.BaseURL); err != nil {
			report.errorf(RuleMenus, in.ConfigPath, "baseURL", "menu links cannot be resolved: %v", err)
			return nil
		}
	}

	known := resolvable(in, router)
	menus := in.Config.AllMenus()
	for _, location := range slices.Sorted(maps.Keys(menus)) {
		for i, entry := range menus[location] {
			if strings.TrimSpace(entry.URL) == "" {
				continue
			}
			// external links are skipped; absolute links to the site itself are not
			rel, ok := router.Normalize(entry.URL)
			if !ok {
				continue
			}
			if _, found := known[rel]; !found {
				report.errorf(RuleMenus, in.ConfigPath, fmt.Sprintf("%s[%d].url", location, i),
					"%q (%s) does not resolve to any page", entry.URL, entry.Name)
			}
		}
	}
	return nil
}

// resolvable lists every relative path a default build writes.
func resolvable(in *Input, router *routes.Router) map[string]struct{} {
	known := map[string]struct{}{}
	add := func(rel string, err error) {
		if err == nil {
			known[routes.Clean(rel)] = struct{}{}
		}
	}
	addList := func(rel string, kind string) {
		known[routes.Clean(rel)] = struct{}{}
		if in.Config.HasOutput(kind, siteconfig.FormatRSS) {
			known["/"+routes.OutputFile(rel, "index.xml")] = struct{}{}
		}
	}

	home := router.Home()
	addList(home, siteconfig.KindHome)
	if in.Config.HasOutput(siteconfig.KindHome, siteconfig.FormatJSON) {
		known["/index.json"] = struct{}{}
	}
	known["/sitemap.xml"] = struct{}{}
	if in.Config.EnableRobotsTXT {
		known["/robots.txt"] = struct{}{}
	}

	published := in.published()
	for _, doc := range published {
		if doc.Section != "" {
			if rel, err := router.Section(doc.Section); err == nil {
				addList(rel, siteconfig.KindSection)
			}
		}
		add(router.Page(doc))
	}

	index := taxonomy.Build(in.Config.TaxonomyPlurals(), published)
	for _, tax := range index.Taxonomies() {
		if rel, err := router.Taxonomy(tax.Plural); err == nil {
			addList(rel, siteconfig.KindTaxonomy)
		}
		for _, term := range tax.Terms {
			if rel, err := router.Term(tax.Plural, term.Slug); err == nil {
				addList(rel, siteconfig.KindTerm)
			}
		}
	}

	for _, file := range in.StaticFiles {
		known[routes.Clean(file)] = struct{}{}
	}
	return known
}

// roundTripRule re-encodes the configuration and every document and compares
// the re-parsed record with the original.
type roundTripRule struct{}

func (roundTripRule) Name() string { return RuleRoundTrip }

func (roundTripRule) Check(ctx context.Context, in *Input, report *Report) error {
	if in.Config != nil {
		var buf bytes.Buffer
		if err := siteconfig.Encode(&buf, in.Config); err != nil {
			report.errorf(RuleRoundTrip, in.ConfigPath, "", "encode: %v", err)
		} else if decoded, _, err := siteconfig.Decode(&buf); err != nil {
			report.errorf(RuleRoundTrip, in.ConfigPath, "", "decode re-encoded configuration: %v", err)
		} else if diff := siteconfig.Diff(in.Config, decoded); diff != "" {
			report.errorf(RuleRoundTrip, in.ConfigPath, "", "configuration changes after re-encoding (-original +decoded):\n%s", diff)
		}
	}

	for _, doc := range in.Documents {
		if err := ctx.Err(); err != nil {
			return err
		}
		encoded, err := content.Marshal(doc)
		if err != nil {
			report.errorf(RuleRoundTrip, doc.Path, "", "encode: %v", err)
			continue
		}
		parsed, err := content.Parse(doc.Path, encoded)
		if err != nil {
			report.errorf(RuleRoundTrip, doc.Path, "", "parse re-encoded document: %v", err)
			continue
		}
		if diff := content.Diff(doc, parsed); diff != "" {
			report.errorf(RuleRoundTrip, doc.Path, "", "document changes after re-encoding (-original +decoded):\n%s", diff)
		}
	}
	return nil
}

// configRule validates the configuration and reports unknown keys.
type configRule struct{}

func (configRule) Name() string { return RuleConfig }

func (configRule) Check(_ context.Context, in *Input, report *Report) error {
	if in.Config == nil {
		report.errorf(RuleConfig, in.ConfigPath, "", "site configuration is missing")
		return nil
	}
	if err := in.Config.Validate(); err != nil {
		var fieldErrs validation.Errors
		if !errors.As(err, &fieldErrs) {
			report.errorf(RuleConfig, in.ConfigPath, "", "%v", err)
		} else {
			flattenErrors(report, in.ConfigPath, "", fieldErrs)
		}
	}
	for _, key := range in.UnknownKeys {
		report.warnf(RuleConfig, in.ConfigPath, key, "unknown configuration key")
	}
	return nil
}

func flattenErrors(report *Report, path, prefix string, errs validation.Errors) {
	for _, key := range slices.Sorted(maps.Keys(errs)) {
		field := key
		if prefix != "" {
			field = prefix + "." + key
		}
		var nested validation.Errors
		if errors.As(errs[key], &nested) {
			flattenErrors(report, path, field, nested)
			continue
		}
		report.errorf(RuleConfig, path, field, "%v", errs[key])
	}
}
