package check_test

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/check"
	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/siteconfig"
)

const siteTOML = `baseURL = "https://blog.example.com/"
languageCode = "en-us"
title = "Gopher Notes"

[taxonomies]
  tag = "tags"
  category = "categories"

[[menu.main]]
  name = "Posts"
  url = "/posts/"
  weight = 1

[[menu.main]]
  name = "Tags"
  url = "/tags/"
  weight = 2

[[menu.main]]
  name = "GoLang"
  url = "https://blog.example.com/tags/golang/"
  weight = 3

[[menu.main]]
  name = "About"
  url = "/about/"
  weight = 4

[[menu.main]]
  name = "RSS"
  url = "/index.xml"
  weight = 5

[[menu.main]]
  name = "GitHub"
  url = "https://github.com/gopher"
  weight = 6
`

var cleanCorpus = map[string]string{
	"posts/_index.md": "---\ntitle: Posts\n---\n",
	"posts/hello-world.md": `---
title: Hello World
date: 2024-03-01T10:00:00Z
tags: ["GoLang"]
categories: ["intro"]
---
First post.
`,
	"posts/channels.md": `+++
title = "Channels"
date = 2024-04-01T10:00:00Z
tags = ["GoLang", "concurrency"]
+++
Channels body.
`,
	"posts/wip.md": `---
title: Work in progress
date: 2024-05-01T10:00:00Z
draft: true
---
Not ready.
`,
	"about.md": "---\ntitle: About\ndate: 2024-01-01\n---\nAbout me.\n",
}

var now = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func loadConfig(t *testing.T, src string) (*siteconfig.Config, []string) {
	t.Helper()
	cfg, unknown, err := siteconfig.Decode(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Decode config: %v", err)
	}
	return cfg, unknown
}

func parseCorpus(t *testing.T, corpus map[string]string) []*content.Document {
	t.Helper()
	var docs []*content.Document
	for path, src := range corpus {
		doc, err := content.Parse(path, []byte(src))
		if err != nil {
			t.Fatalf("Parse %s: %v", path, err)
		}
		docs = append(docs, doc)
	}
	slices.SortFunc(docs, func(a, b *content.Document) int { return strings.Compare(a.Path, b.Path) })
	return docs
}

func withDoc(corpus map[string]string, path, src string) map[string]string {
	out := make(map[string]string, len(corpus)+1)
	for k, v := range corpus {
		out[k] = v
	}
	out[path] = src
	return out
}

func run(t *testing.T, in check.Input, rules ...string) *check.Report {
	t.Helper()
	if in.Now.IsZero() {
		in.Now = now
	}
	report, err := check.New().Run(context.Background(), in, rules...)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func fields(issues []check.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		out = append(out, issue.Path+"#"+issue.Field)
	}
	return out
}

func TestCleanCorpusPassesEveryRule(t *testing.T) {
	cfg, unknown := loadConfig(t, siteTOML)
	report := run(t, check.Input{Config: cfg, UnknownKeys: unknown, Documents: parseCorpus(t, cleanCorpus)})

	if len(report.Issues) != 0 {
		t.Fatalf("expected a clean report, got %v", report.Issues)
	}
	want := []string{"frontmatter", "duplicates", "taxonomy", "menus", "roundtrip", "config"}
	if diff := cmp.Diff(want, report.Rules); diff != "" {
		t.Fatalf("rules mismatch (-want +got):\n%s", diff)
	}
	if report.Documents != len(cleanCorpus) {
		t.Fatalf("expected %d documents, got %d", len(cleanCorpus), report.Documents)
	}
	if err := report.Err(true); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestFrontMatterRuleFlagsMalformedMetadata(t *testing.T) {
	cfg, _ := loadConfig(t, siteTOML)
	corpus := withDoc(cleanCorpus, "posts/broken.md", "---\ndate: yesterday\ndraft: \"yes\"\ntags: [\"GoLang\"]\n---\nBody.\n")
	corpus = withDoc(corpus, "posts/bare.md", "Just markdown, no metadata.\n")

	report := run(t, check.Input{
		Config:     cfg,
		Documents:  parseCorpus(t, corpus),
		LoadErrors: []*content.ParseError{{Path: "posts/cut.md", Err: content.ErrUnterminated}},
	}, check.RuleFrontMatter)

	got := fields(report.ByRule(check.RuleFrontMatter))
	want := []string{
		"posts/bare.md#",
		"posts/broken.md#",
		"posts/broken.md#date",
		"posts/broken.md#draft",
		"posts/cut.md#frontmatter",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if report.Documents != len(corpus)+1 {
		t.Fatalf("expected load errors to count as documents, got %d", report.Documents)
	}
}

func TestFrontMatterRuleAcceptsUndatedSectionIndex(t *testing.T) {
	cfg, _ := loadConfig(t, siteTOML)
	docs := parseCorpus(t, map[string]string{"notes/_index.md": "---\ntitle: Notes\n---\n"})
	report := run(t, check.Input{Config: cfg, Documents: docs}, check.RuleFrontMatter)
	if len(report.Issues) != 0 {
		t.Fatalf("expected no issues, got %v", report.Issues)
	}
}

func TestDuplicatesRule(t *testing.T) {
	cfg, _ := loadConfig(t, siteTOML)
	corpus := withDoc(cleanCorpus, "posts/hello-again.md", `+++
title = "Hello World"
date = 2024-03-01T11:00:00+01:00
tags = ["GoLang"]
+++
`)
	corpus = withDoc(corpus, "posts/hello-later.md", "---\ntitle: Hello World\ndate: 2024-03-02\ntags: [\"GoLang\"]\n---\n")

	report := run(t, check.Input{Config: cfg, Documents: parseCorpus(t, corpus)}, check.RuleDuplicates)

	issues := report.ByRule(check.RuleDuplicates)
	want := []string{"posts/hello-again.md#title", "posts/hello-world.md#title"}
	if diff := cmp.Diff(want, fields(issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(issues[0].Message, "posts/hello-world.md") {
		t.Fatalf("expected the duplicate to be named, got %q", issues[0].Message)
	}
}

func TestTaxonomyRule(t *testing.T) {
	cfg, _ := loadConfig(t, siteTOML)
	corpus := withDoc(cleanCorpus, "posts/untagged.md", "---\ntitle: Untagged\ndate: 2024-06-01\n---\n")
	corpus = withDoc(corpus, "posts/series.md", "---\ntitle: Part One\ndate: 2024-06-02\ntags: [\"GoLang\"]\nseries: [\"Generics\"]\n---\n")
	corpus = withDoc(corpus, "posts/symbols.md", "---\ntitle: Symbols\ndate: 2024-06-03\ntags: [\"!!!\"]\n---\n")
	corpus = withDoc(corpus, "posts/draft-untagged.md", "---\ntitle: Later\ndate: 2024-06-04\ndraft: true\n---\n")

	report := run(t, check.Input{Config: cfg, Documents: parseCorpus(t, corpus)}, check.RuleTaxonomy)

	want := []string{
		"posts/series.md#series",
		"posts/symbols.md#",
		"posts/symbols.md#tags",
		"posts/untagged.md#",
	}
	if diff := cmp.Diff(want, fields(report.Issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestTaxonomyRuleHonoursBuildDrafts(t *testing.T) {
	cfg, _ := loadConfig(t, siteTOML)
	cfg.BuildDrafts = true
	corpus := withDoc(cleanCorpus, "posts/draft-untagged.md", "---\ntitle: Later\ndate: 2024-06-04\ndraft: true\n---\n")

	report := run(t, check.Input{Config: cfg, Documents: parseCorpus(t, corpus)}, check.RuleTaxonomy)

	want := []string{"posts/draft-untagged.md#", "posts/wip.md#"}
	if diff := cmp.Diff(want, fields(report.Issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestMenusRule(t *testing.T) {
	src := siteTOML + `
[[menu.footer]]
  name = "Archive"
  url = "/archive/"

[[menu.footer]]
  name = "Mail"
  url = "mailto:gopher@example.com"

[[menu.footer]]
  name = "Draft"
  url = "/posts/wip/"
`
	cfg, _ := loadConfig(t, src)
	report := run(t, check.Input{Config: cfg, Documents: parseCorpus(t, cleanCorpus), ConfigPath: "config.toml"}, check.RuleMenus)

	want := []string{"config.toml#menu.footer[0].url", "config.toml#menu.footer[2].url"}
	if diff := cmp.Diff(want, fields(report.Issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}

	cfg.BuildDrafts = true
	report = run(t, check.Input{
		Config:      cfg,
		Documents:   parseCorpus(t, cleanCorpus),
		StaticFiles: []string{"/archive/"},
	}, check.RuleMenus)
	if len(report.Issues) != 0 {
		t.Fatalf("expected drafts and static files to resolve, got %v", report.Issues)
	}
}

func TestConfigRuleAndStrictMode(t *testing.T) {
	src := strings.Replace(siteTOML, `title = "Gopher Notes"`, "title = \"\"\ngoogleAnalytics = \"G-123\"", 1)
	cfg, unknown := loadConfig(t, src)

	report := run(t, check.Input{Config: cfg, UnknownKeys: unknown, Documents: parseCorpus(t, cleanCorpus)}, check.RuleConfig)

	if diff := cmp.Diff([]string{"config.toml#Title"}, fields(report.Errors())); diff != "" {
		t.Fatalf("errors mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"config.toml#googleAnalytics"}, fields(report.Warnings())); diff != "" {
		t.Fatalf("warnings mismatch (-want +got):\n%s", diff)
	}

	err := report.Err(false)
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		t.Fatalf("expected go-errors error, got %T", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) || richErr.TextCode != check.TextCodeCheckFailed {
		t.Fatalf("unexpected error classification: %+v", richErr)
	}
	if len(richErr.ValidationErrors) != 1 {
		t.Fatalf("expected only errors outside strict mode, got %v", richErr.ValidationErrors)
	}

	cfg.Title = "Gopher Notes"
	report = run(t, check.Input{Config: cfg, UnknownKeys: unknown}, check.RuleConfig)
	if err := report.Err(false); err != nil {
		t.Fatalf("warnings must not fail a lenient run: %v", err)
	}
	if err := report.Err(true); err == nil {
		t.Fatalf("warnings must fail a strict run")
	}
}

func TestRoundTripRuleDetectsLossyDocument(t *testing.T) {
	cfg, _ := loadConfig(t, siteTOML)
	doc, err := content.Parse("posts/odd.md", []byte("Plain body.\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// a bare body that opens with a delimiter is read back as metadata
	doc.Body = []byte("+++\ntitle = \"Injected\"\n+++\n")

	report := run(t, check.Input{Config: cfg, Documents: []*content.Document{doc}}, check.RuleRoundTrip)
	if diff := cmp.Diff([]string{"posts/odd.md#"}, fields(report.Issues)); diff != "" {
		t.Fatalf("issues mismatch (-want +got):\n%s", diff)
	}
}

func TestRunRejectsUnknownRule(t *testing.T) {
	_, err := check.New().Run(context.Background(), check.Input{}, "spelling")
	if !errors.Is(err, check.ErrUnknownRule) {
		t.Fatalf("expected ErrUnknownRule, got %v", err)
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := check.New().Run(ctx, check.Input{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
