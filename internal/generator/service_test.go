package generator

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/content"
)

var buildNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

const testConfig = `baseURL = "https://blog.example.com/"
languageCode = "en-us"
title = "Gopher Notes"
paginate = 5

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
`

const helloPost = `---
title: Hello World
date: 2024-03-01T10:00:00Z
tags: ["GoLang"]
categories: ["intro"]
---
Welcome to the blog.
`

const draftPost = `---
title: Work In Progress
date: 2024-05-01T10:00:00Z
draft: true
tags: ["GoLang"]
---
Not ready yet.
`

type testSite struct {
	root string
	cfg  Config
}

func newTestSite(t *testing.T, config string, files map[string]string) testSite {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "config.toml", config)
	for name, data := range files {
		writeFile(t, root, name, data)
	}
	return testSite{
		root: root,
		cfg: Config{
			RootDir:        root,
			SiteConfigPath: filepath.Join(root, "config.toml"),
			ContentDir:     filepath.Join(root, "content"),
			LayoutsDir:     filepath.Join(root, "layouts"),
			StaticDir:      filepath.Join(root, "static"),
			ThemesDir:      filepath.Join(root, "themes"),
			OutputDir:      filepath.Join(root, "public"),
			Workers:        4,
		},
	}
}

func (s testSite) service() Service {
	return NewService(s.cfg, Dependencies{Now: func() time.Time { return buildNow }})
}

func (s testSite) output(t *testing.T, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(s.cfg.OutputDir, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("read output %s: %v", rel, err)
	}
	return string(data)
}

func (s testSite) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(s.cfg.OutputDir, filepath.FromSlash(rel)))
	return err == nil
}

func writeFile(t *testing.T, root, rel, data string) {
	t.Helper()
	target := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", rel, err)
	}
	if err := os.WriteFile(target, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func blogFiles() map[string]string {
	return map[string]string{
		"content/posts/_index.md":      "---\ntitle: Posts\n---\nAll the posts.\n",
		"content/posts/hello-world.md": helloPost,
		"content/posts/wip.md":         draftPost,
		"content/about.md":             "---\ntitle: About\ndate: 2024-01-01\n---\nAbout me.\n",
	}
}

func TestBuildExcludesDraftsFromListingsAndTerms(t *testing.T) {
	site := newTestSite(t, testConfig, blogFiles())

	result, err := site.service().Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.SkippedDraft != 1 {
		t.Fatalf("expected one skipped draft, got %d", result.SkippedDraft)
	}

	for _, rel := range []string{"posts/index.html", "tags/golang/index.html", "index.html"} {
		html := site.output(t, rel)
		if !strings.Contains(html, `href="/posts/hello-world/"`) {
			t.Fatalf("%s: expected the published post to be listed:\n%s", rel, html)
		}
		if strings.Contains(html, "Work In Progress") {
			t.Fatalf("%s: draft must not be listed:\n%s", rel, html)
		}
	}
	if site.exists("posts/wip/index.html") {
		t.Fatalf("draft page must not be written")
	}
	if _, ok := result.Page("/posts/wip/"); ok {
		t.Fatalf("draft page must not be rendered")
	}
	if feed := site.output(t, "tags/golang/index.xml"); strings.Contains(feed, "Work In Progress") {
		t.Fatalf("draft must not appear in the term feed:\n%s", feed)
	}

	for _, rel := range []string{
		"about/index.html",
		"posts/hello-world/index.html",
		"tags/index.html",
		"categories/intro/index.html",
		"index.xml",
		"posts/index.xml",
		"sitemap.xml",
	} {
		if !site.exists(rel) {
			t.Fatalf("expected %s to be written", rel)
		}
	}
	if site.exists("robots.txt") || site.exists("index.json") {
		t.Fatalf("robots.txt and index.json are opt-in")
	}
}

func TestBuildIncludesDraftsWhenRequested(t *testing.T) {
	cases := map[string]struct {
		config string
		opts   BuildOptions
	}{
		"build option": {config: testConfig, opts: BuildOptions{BuildDrafts: true}},
		"site config":  {config: strings.Replace(testConfig, "paginate = 5", "paginate = 5\nbuildDrafts = true", 1)},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			site := newTestSite(t, tc.config, blogFiles())
			result, err := site.service().Build(context.Background(), tc.opts)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if result.SkippedDraft != 0 {
				t.Fatalf("expected no skipped drafts, got %d", result.SkippedDraft)
			}
			for _, rel := range []string{"posts/index.html", "tags/golang/index.html"} {
				if html := site.output(t, rel); !strings.Contains(html, `href="/posts/wip/"`) {
					t.Fatalf("%s: expected the draft to be listed:\n%s", rel, html)
				}
			}
			if !strings.Contains(site.output(t, "posts/wip/index.html"), "Draft") {
				t.Fatalf("expected the draft page to carry a draft badge")
			}
		})
	}
}

func TestBuildSkipsFutureDocuments(t *testing.T) {
	files := blogFiles()
	files["content/posts/tomorrow.md"] = "---\ntitle: Tomorrow\ndate: 2025-06-02\ntags: [\"GoLang\"]\n---\nSoon.\n"
	site := newTestSite(t, testConfig, files)

	result, err := site.service().Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.SkippedFuture != 1 || site.exists("posts/tomorrow/index.html") {
		t.Fatalf("expected the future post to be skipped, skipped=%d", result.SkippedFuture)
	}

	result, err = site.service().Build(context.Background(), BuildOptions{BuildFuture: true})
	if err != nil {
		t.Fatalf("Build future: %v", err)
	}
	if result.SkippedFuture != 0 || !site.exists("posts/tomorrow/index.html") {
		t.Fatalf("expected the future post to be built")
	}
}

func TestBuildPaginatesLists(t *testing.T) {
	files := map[string]string{}
	for i, day := range []string{"01", "02", "03", "04", "05", "06", "07"} {
		files["content/posts/post-"+day+".md"] = "---\ntitle: Post " + day + "\ndate: 2024-02-" + day + "\ntags: [\"go\"]\n---\nBody " + string(rune('a'+i)) + "\n"
	}
	site := newTestSite(t, testConfig, files)

	if _, err := site.service().Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	first := site.output(t, "posts/index.html")
	second := site.output(t, "posts/page/2/index.html")
	if !strings.Contains(first, "Post 07") || strings.Contains(first, "Post 02") {
		t.Fatalf("first page should hold the newest posts:\n%s", first)
	}
	if !strings.Contains(second, "Post 01") || !strings.Contains(second, `href="/posts/"`) {
		t.Fatalf("second page should hold the oldest posts and link back:\n%s", second)
	}
	if !site.exists("page/2/index.html") || !site.exists("tags/go/page/2/index.html") {
		t.Fatalf("expected home and term pagination")
	}
}

func TestBuildUsesSiteLayoutsAndFrontMatterLayout(t *testing.T) {
	files := blogFiles()
	files["layouts/single.html"] = `CUSTOM {{.Page.Title}}`
	files["layouts/search.html"] = `SEARCH {{.Page.Title}} {{len .Site.Menus.main}}`
	files["content/search.md"] = "---\ntitle: Search\ndate: 2024-01-01\nlayout: search\n---\n"
	files["content/archives.md"] = "---\ntitle: Archives\ndate: 2024-01-01\nlayout: archives\n---\n"
	site := newTestSite(t, testConfig, files)

	result, err := site.service().Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	got := map[string]string{}
	for _, route := range []string{"/posts/hello-world/", "/search/"} {
		page, ok := result.Page(route)
		if !ok {
			t.Fatalf("expected %s to be rendered", route)
		}
		got[route] = string(page.HTML)
	}
	want := map[string]string{
		"/posts/hello-world/": "CUSTOM Hello World",
		"/search/":            "SEARCH Search 2",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("rendered pages mismatch (-want +got):\n%s", diff)
	}

	archives, ok := result.Page("/archives/")
	if !ok || archives.Template != "archives.html" {
		t.Fatalf("expected the embedded archives layout, got %+v", archives)
	}
	if !strings.Contains(string(archives.HTML), `href="/posts/"`) {
		t.Fatalf("archives should list sections:\n%s", archives.HTML)
	}
}

func TestBuildDryRunWritesNothing(t *testing.T) {
	files := blogFiles()
	files["static/css/site.css"] = "body{}"
	site := newTestSite(t, testConfig, files)

	result, err := site.service().Build(context.Background(), BuildOptions{DryRun: true})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !result.DryRun || result.PagesBuilt == 0 || result.Assets != 1 {
		t.Fatalf("unexpected dry run result: %+v", result)
	}
	if _, err := os.Stat(site.cfg.OutputDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("dry run must not create the output directory: %v", err)
	}
}

func TestBuildWritesFeedsSearchIndexAndRobots(t *testing.T) {
	config := strings.Replace(testConfig, "paginate = 5", "paginate = 5\nenableRobotsTXT = true\nrssLimit = 1", 1) + `
[outputs]
  home = ["HTML", "RSS", "JSON"]
`
	files := blogFiles()
	files["content/posts/second.md"] = "---\ntitle: Second Post\ndate: 2024-04-01\ntags: [\"GoLang\"]\n---\nSecond body text.\n"
	site := newTestSite(t, config, files)

	if _, err := site.service().Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	feed := site.output(t, "index.xml")
	if strings.Count(feed, "<item>") != 1 || !strings.Contains(feed, "<title>Second Post</title>") {
		t.Fatalf("expected the newest post only in the home feed:\n%s", feed)
	}
	if !strings.Contains(feed, "<link>https://blog.example.com/posts/second/</link>") {
		t.Fatalf("expected absolute item links:\n%s", feed)
	}

	var index []searchEntry
	if err := json.Unmarshal([]byte(site.output(t, "index.json")), &index); err != nil {
		t.Fatalf("decode index.json: %v", err)
	}
	var titles []string
	for _, entry := range index {
		titles = append(titles, entry.Title)
	}
	if diff := cmp.Diff([]string{"Second Post", "Hello World", "About"}, titles); diff != "" {
		t.Fatalf("search index mismatch (-want +got):\n%s", diff)
	}
	if index[0].Content != "Second body text." {
		t.Fatalf("expected plain text content, got %q", index[0].Content)
	}

	robots := site.output(t, "robots.txt")
	if !strings.Contains(robots, "Sitemap: https://blog.example.com/sitemap.xml") {
		t.Fatalf("unexpected robots.txt:\n%s", robots)
	}
}

func TestBuildCopiesThemeThenSiteStatic(t *testing.T) {
	config := strings.Replace(testConfig, `title = "Gopher Notes"`, "title = \"Gopher Notes\"\ntheme = \"paper\"", 1)
	files := blogFiles()
	files["themes/paper/static/css/site.css"] = "theme"
	files["themes/paper/static/js/app.js"] = "app"
	files["themes/paper/layouts/single.html"] = "THEME {{.Page.Title}}"
	files["static/css/site.css"] = "site"
	site := newTestSite(t, config, files)

	result, err := site.service().Build(context.Background(), BuildOptions{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Assets != 3 {
		t.Fatalf("expected 3 copied files, got %d", result.Assets)
	}
	if got := site.output(t, "css/site.css"); got != "site" {
		t.Fatalf("site static must override theme static, got %q", got)
	}
	if got := site.output(t, "js/app.js"); got != "app" {
		t.Fatalf("expected theme asset, got %q", got)
	}
	if got := site.output(t, "posts/hello-world/index.html"); got != "THEME Hello World" {
		t.Fatalf("expected theme layout, got %q", got)
	}
}

func TestBuildReportsBrokenDocumentsAndKeepsGoing(t *testing.T) {
	files := blogFiles()
	files["content/posts/broken.md"] = "---\ntitle: [unclosed\n---\nBody\n"
	site := newTestSite(t, testConfig, files)

	result, err := site.service().Build(context.Background(), BuildOptions{})
	if err == nil {
		t.Fatalf("expected an error for the broken document")
	}
	var parseErr *content.ParseError
	if !errors.As(err, &parseErr) || parseErr.Path != "posts/broken.md" {
		t.Fatalf("expected a parse error for posts/broken.md, got %v", err)
	}
	if result == nil || !site.exists("posts/hello-world/index.html") {
		t.Fatalf("expected the remaining pages to be built")
	}
}

func TestBuildRequiresContentDir(t *testing.T) {
	site := newTestSite(t, testConfig, nil)
	_, err := site.service().Build(context.Background(), BuildOptions{})
	if !errors.Is(err, ErrContentDirMissing) {
		t.Fatalf("expected ErrContentDirMissing, got %v", err)
	}
}

func TestBuildHonoursCancellation(t *testing.T) {
	site := newTestSite(t, testConfig, blogFiles())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := site.service().Build(ctx, BuildOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCleanBuildRemovesStaleFiles(t *testing.T) {
	site := newTestSite(t, testConfig, blogFiles())
	site.cfg.CleanBuild = true
	writeFile(t, site.cfg.OutputDir, "stale/index.html", "old")

	if _, err := site.service().Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if site.exists("stale/index.html") {
		t.Fatalf("expected stale output to be removed")
	}
}

func TestCleanRefusesUnsafeDirectories(t *testing.T) {
	root := t.TempDir()
	cases := map[string]Config{
		"empty":          {RootDir: root},
		"site root":      {RootDir: root, OutputDir: root},
		"parent of root": {RootDir: root, OutputDir: filepath.Dir(root)},
		"filesystem":     {RootDir: root, OutputDir: string(filepath.Separator)},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			err := NewService(cfg, Dependencies{}).Clean(context.Background())
			if !errors.Is(err, ErrUnsafeOutputDir) {
				t.Fatalf("expected ErrUnsafeOutputDir, got %v", err)
			}
		})
	}

	out := filepath.Join(root, "public")
	writeFile(t, out, "index.html", "x")
	if err := NewService(Config{RootDir: root, OutputDir: out}, Dependencies{}).Clean(context.Background()); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if _, err := os.Stat(out); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected output directory to be removed")
	}
}

func TestDisabledService(t *testing.T) {
	svc := NewDisabledService()
	if _, err := svc.Build(context.Background(), BuildOptions{}); !errors.Is(err, ErrServiceDisabled) {
		t.Fatalf("expected ErrServiceDisabled, got %v", err)
	}
}

const paperManifest = `name: paper-upstream
version: 1.0.0
tokens:
  color-bg: white
  color-fg: black
variants:
  dark:
    tokens:
      color-bg: black
      color-fg: white
`

func TestBuildAppliesThemeManifestVariant(t *testing.T) {
	cases := []struct {
		name     string
		mode     string
		fallback string
		want     string
	}{
		{name: "declared variant", mode: "dark", want: "paper/dark/dark|--color-bg=black;--color-fg=white;"},
		{name: "variant matched case-insensitively", mode: "Dark", want: "paper/Dark/dark|--color-bg=black;--color-fg=white;"},
		{name: "auto uses base tokens", mode: "auto", want: "paper/auto/|--color-bg=white;--color-fg=black;"},
		{name: "auto uses fallback variant", mode: "auto", fallback: "dark", want: "paper/auto/dark|--color-bg=black;--color-fg=white;"},
		{name: "no mode uses base tokens", want: "paper//|--color-bg=white;--color-fg=black;"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := strings.Replace(testConfig, `title = "Gopher Notes"`, "title = \"Gopher Notes\"\ntheme = \"paper\"", 1)
			if tc.mode != "" {
				config += "\n[params]\n  defaultTheme = \"" + tc.mode + "\"\n"
			}
			files := blogFiles()
			files["themes/paper/theme.yaml"] = paperManifest
			files["themes/paper/layouts/single.html"] = `{{.Theme.Name}}/{{.Theme.Mode}}/{{.Theme.Variant}}|{{range $k, $v := .Theme.CSSVars}}{{$k}}={{$v}};{{end}}`
			site := newTestSite(t, config, files)
			site.cfg.Theming = ThemingConfig{FallbackVariant: tc.fallback}

			if _, err := site.service().Build(context.Background(), BuildOptions{}); err != nil {
				t.Fatalf("Build: %v", err)
			}
			if got := site.output(t, "posts/hello-world/index.html"); got != tc.want {
				t.Fatalf("theme context mismatch\nwant %q\ngot  %q", tc.want, got)
			}
		})
	}
}

func TestBuildWritesThemeVariablesIntoDefaultHead(t *testing.T) {
	config := strings.Replace(testConfig, `title = "Gopher Notes"`, "title = \"Gopher Notes\"\ntheme = \"paper\"", 1)
	config += "\n[params]\n  defaultTheme = \"auto\"\n"
	files := blogFiles()
	files["themes/paper/theme.yaml"] = paperManifest
	site := newTestSite(t, config, files)
	site.cfg.Theming = ThemingConfig{VarPrefix: "--paper-"}

	if _, err := site.service().Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	page := site.output(t, "posts/hello-world/index.html")
	for _, want := range []string{`data-theme="auto"`, "--paper-color-bg: white;", "--paper-color-fg: black;"} {
		if !strings.Contains(page, want) {
			t.Fatalf("expected %q in rendered head:\n%s", want, page)
		}
	}
}

func TestThemeWithoutManifestRendersWithoutVariables(t *testing.T) {
	config := strings.Replace(testConfig, `title = "Gopher Notes"`, "title = \"Gopher Notes\"\ntheme = \"plain\"", 1)
	files := blogFiles()
	files["themes/plain/layouts/single.html"] = `[{{.Theme.Name}}|{{len .Theme.CSSVars}}]`
	site := newTestSite(t, config, files)

	if _, err := site.service().Build(context.Background(), BuildOptions{}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := site.output(t, "posts/hello-world/index.html"); got != "[|0]" {
		t.Fatalf("unexpected theme context %q", got)
	}
}

func TestDirManifestSourceReportsMissingManifest(t *testing.T) {
	dir := t.TempDir()
	if _, err := (dirManifestSource{}).Manifest(dir); !errors.Is(err, errNoManifest) {
		t.Fatalf("expected errNoManifest, got %v", err)
	}

	writeFile(t, dir, "theme.json", `{"name":"paper","tokens":{"color-bg":"white"}}`)
	if _, err := (dirManifestSource{}).Manifest(dir); err == nil || errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected a validation error for a manifest without version, got %v", err)
	}
}
