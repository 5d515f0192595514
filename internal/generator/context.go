package generator

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-blog/internal/content"
	"github.com/goliatone/go-blog/internal/identity"
	"github.com/goliatone/go-blog/internal/markdown"
	"github.com/goliatone/go-blog/internal/routes"
	"github.com/goliatone/go-blog/internal/siteconfig"
	"github.com/goliatone/go-blog/internal/taxonomy"
)

// BuildContext aggregates everything a static build renders.
type BuildContext struct {
	GeneratedAt   time.Time
	Site          *siteconfig.Config
	Router        *routes.Router
	Options       BuildOptions
	Documents     []*content.Document
	LoadErrors    []error
	SkippedDraft  int
	SkippedFuture int
	Pages         []*Page
	Taxonomies    *taxonomy.Index
	Jobs          []*renderJob
	Feeds         []feedSource
	SiteMeta      SiteMetadata
	BuildMeta     BuildMetadata
	Theme         ThemeContext
	ThemeDir      string
}

// feedSource is a list that also renders as RSS.
type feedSource struct {
	Kind  string
	Title string
	Rel   string
	Pages []*Page
}

func (s *service) loadContext(ctx context.Context, opts BuildOptions) (*BuildContext, error) {
	if strings.TrimSpace(s.cfg.SiteConfigPath) == "" {
		return nil, ErrSiteConfigMissing
	}
	site, unknown, err := siteconfig.Load(s.cfg.SiteConfigPath)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	if len(unknown) > 0 {
		s.logger.Warn("generator.config.unknown_keys", "keys", strings.Join(unknown, ","))
	}
	if s.cfg.BaseURL != "" {
		site.BaseURL = s.cfg.BaseURL
	}
	router, err := routes.New(site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}

	if info, err := os.Stat(s.cfg.ContentDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrContentDirMissing, s.cfg.ContentDir)
	}
	loader := content.NewLoader(os.DirFS(s.cfg.ContentDir), content.LoaderConfig{
		Pattern: s.cfg.Pattern,
		Logger:  s.logger,
	})
	docs, err := loader.Load(ctx)
	var loadErrors []error
	if err != nil {
		parseErrs := content.ParseErrors(err)
		if len(parseErrs) == 0 {
			return nil, err
		}
		for _, perr := range parseErrs {
			loadErrors = append(loadErrors, perr)
		}
	}

	buildCtx := &BuildContext{
		GeneratedAt: s.now(),
		Site:        site,
		Router:      router,
		Options:     opts,
		LoadErrors:  loadErrors,
	}
	drafts := opts.BuildDrafts || site.BuildDrafts
	future := opts.BuildFuture || site.BuildFuture
	buildCtx.BuildMeta = BuildMetadata{
		GeneratedAt: buildCtx.GeneratedAt,
		Drafts:      drafts,
		Future:      future,
		DryRun:      opts.DryRun,
	}

	for _, doc := range docs {
		switch {
		case doc.Draft && !drafts:
			buildCtx.SkippedDraft++
			s.logger.Debug("generator.page.skipped", "path", doc.Path, "reason", "draft")
		case doc.IsFuture(buildCtx.GeneratedAt) && !future:
			buildCtx.SkippedFuture++
			s.logger.Debug("generator.page.skipped", "path", doc.Path, "reason", "future")
		default:
			buildCtx.Documents = append(buildCtx.Documents, doc)
		}
	}

	pages, err := s.convertDocuments(ctx, buildCtx)
	if err != nil {
		return nil, err
	}
	buildCtx.Pages = pages

	s.loadTheme(buildCtx)
	buildCtx.SiteMeta = s.siteMetadata(buildCtx)
	if err := s.planJobs(buildCtx); err != nil {
		return nil, err
	}
	return buildCtx, nil
}

// convertDocuments renders the Markdown of every published document on the
// worker pool. Documents that fail are reported and left out.
func (s *service) convertDocuments(ctx context.Context, buildCtx *BuildContext) ([]*Page, error) {
	var (
		mu    sync.Mutex
		pages = make([]*Page, 0, len(buildCtx.Documents))
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.effectiveWorkerCount(len(buildCtx.Documents)))
	for _, doc := range buildCtx.Documents {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			page, err := s.pageFor(buildCtx, doc)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				buildCtx.LoadErrors = append(buildCtx.LoadErrors, err)
				return nil
			}
			pages = append(pages, page)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	slices.SortFunc(pages, func(a, b *Page) int { return taxonomy.ComparePages(a.doc, b.doc) })
	return pages, nil
}

func (s *service) pageFor(buildCtx *BuildContext, doc *content.Document) (*Page, error) {
	router := buildCtx.Router
	rel, err := router.Page(doc)
	if err != nil {
		return nil, fmt.Errorf("generator: route %s: %w", doc.Path, err)
	}
	html, err := s.deps.Markdown.ParseWithOptions(doc.Body, s.cfg.Markdown)
	if err != nil {
		return nil, fmt.Errorf("generator: markdown %s: %w", doc.Path, err)
	}

	summary, truncated := doc.Summary, false
	if summary == "" {
		summary, truncated = markdown.Summarize(doc.Body, buildCtx.Site.Summary())
	}
	lastmod := doc.LastMod
	if lastmod.IsZero() {
		lastmod = doc.Date
	}
	if lastmod.IsZero() {
		lastmod = doc.ModTime
	}

	kind := KindPage
	switch {
	case doc.IsSectionIndex && doc.Section == "":
		kind = KindHome
	case doc.IsSectionIndex:
		kind = KindSection
	}

	page := &Page{
		ID:           identity.DocumentUUID(doc.Path).String(),
		Kind:         kind,
		Title:        doc.Title,
		Section:      doc.Section,
		Slug:         doc.Slug,
		File:         doc.Path,
		RelPermalink: router.URL(rel),
		Permalink:    router.Permalink(rel),
		Date:         doc.Date,
		Lastmod:      lastmod,
		Draft:        doc.Draft,
		Description:  doc.Description,
		Summary:      summary,
		Truncated:    truncated,
		Content:      template.HTML(html),
		WordCount:    markdown.WordCount(doc.Body),
		ReadingTime:  markdown.ReadingTime(doc.Body),
		Weight:       doc.Weight,
		Layout:       doc.Layout,
		Params:       maps.Clone(doc.Params),
		Terms:        map[string][]Link{},
		doc:          doc,
		plain:        markdown.PlainText(doc.Body),
	}
	if page.Title == "" {
		page.Title = content.TitleFromPath(doc.Path)
	}
	for _, plural := range buildCtx.Site.TaxonomyPlurals() {
		for _, name := range doc.Terms(plural) {
			termSlug := content.Slugify(name)
			if termSlug == "" {
				continue
			}
			termRel, err := router.Term(plural, termSlug)
			if err != nil {
				return nil, fmt.Errorf("generator: route %s term %q: %w", doc.Path, name, err)
			}
			page.Terms[plural] = append(page.Terms[plural], Link{Name: name, Slug: termSlug, URL: router.URL(termRel)})
		}
	}
	page.Tags = page.Terms["tags"]
	page.Categories = page.Terms["categories"]
	return page, nil
}

// planJobs lays out every output page: articles, home, sections, taxonomies
// and terms, with pagination.
func (s *service) planJobs(buildCtx *BuildContext) error {
	site, router := buildCtx.Site, buildCtx.Router
	byPath := make(map[string]*Page, len(buildCtx.Pages))

	var (
		regular       []*Page
		home          *Page
		sectionIndex  = map[string]*Page{}
		sectionPages  = map[string][]*Page{}
		sectionsOrder []string
	)
	addSection := func(name string) {
		if _, ok := sectionPages[name]; !ok {
			sectionPages[name] = nil
			sectionsOrder = append(sectionsOrder, name)
		}
	}
	for _, page := range buildCtx.Pages {
		byPath[page.File] = page
		switch page.Kind {
		case KindHome:
			home = page
		case KindSection:
			sectionIndex[page.Section] = page
			addSection(page.Section)
		default:
			regular = append(regular, page)
			if page.Section != "" {
				addSection(page.Section)
				sectionPages[page.Section] = append(sectionPages[page.Section], page)
			}
		}
	}
	slices.Sort(sectionsOrder)

	for _, page := range regular {
		layouts := []string{}
		if page.Layout != "" {
			layouts = append(layouts, page.Layout+".html")
			if page.Section != "" {
				layouts = append(layouts, path.Join(page.Section, page.Layout+".html"))
			}
		}
		if page.Section != "" {
			layouts = append(layouts, path.Join(page.Section, "single.html"))
		}
		layouts = append(layouts, "single.html")
		rel, _ := router.Page(page.doc)
		buildCtx.Jobs = append(buildCtx.Jobs, &renderJob{Page: page, Layouts: layouts, Output: routes.OutputPath(rel)})
	}

	var listed []*Page
	for _, page := range regular {
		if page.Section != "" {
			listed = append(listed, page)
		}
	}
	if home == nil {
		home = &Page{Kind: KindHome, Title: site.Title, Params: map[string]any{}}
	}
	homeRel := router.Home()
	if err := s.planList(buildCtx, home, homeRel, listed, []string{"index.html", "list.html"}); err != nil {
		return err
	}
	if site.HasOutput(siteconfig.KindHome, siteconfig.FormatRSS) {
		buildCtx.Feeds = append(buildCtx.Feeds, feedSource{Kind: KindHome, Title: site.Title, Rel: homeRel, Pages: listed})
	}

	for _, name := range sectionsOrder {
		rel, err := router.Section(name)
		if err != nil {
			return fmt.Errorf("generator: route section %s: %w", name, err)
		}
		view := sectionIndex[name]
		if view == nil {
			view = &Page{Kind: KindSection, Section: name, Title: content.TitleFromPath(name), Params: map[string]any{}}
		}
		layouts := []string{path.Join(name, "list.html"), "section.html", "list.html"}
		if err := s.planList(buildCtx, view, rel, sectionPages[name], layouts); err != nil {
			return err
		}
		if site.HasOutput(siteconfig.KindSection, siteconfig.FormatRSS) {
			buildCtx.Feeds = append(buildCtx.Feeds, feedSource{Kind: KindSection, Title: view.Title, Rel: rel, Pages: sectionPages[name]})
		}
	}

	buildCtx.Taxonomies = taxonomy.Build(site.TaxonomyPlurals(), buildCtx.Documents)
	for _, tax := range buildCtx.Taxonomies.Taxonomies() {
		taxRel, err := router.Taxonomy(tax.Plural)
		if err != nil {
			return fmt.Errorf("generator: route taxonomy %s: %w", tax.Plural, err)
		}
		var (
			entries []TermEntry
			all     []*Page
			seen    = map[string]struct{}{}
		)
		for _, term := range tax.Terms {
			termRel, err := router.Term(tax.Plural, term.Slug)
			if err != nil {
				return fmt.Errorf("generator: route term %s/%s: %w", tax.Plural, term.Slug, err)
			}
			termPages := viewsFor(byPath, term.Pages)
			if len(termPages) == 0 {
				continue
			}
			link := Link{Name: term.Name, Slug: term.Slug, URL: router.URL(termRel)}
			entries = append(entries, TermEntry{Link: link, Count: len(termPages), Pages: termPages})
			for _, page := range termPages {
				if _, ok := seen[page.File]; !ok {
					seen[page.File] = struct{}{}
					all = append(all, page)
				}
			}

			view := &Page{
				ID:       identity.TermUUID(tax.Plural, term.Slug).String(),
				Kind:     KindTerm,
				Title:    term.Name,
				Slug:     term.Slug,
				Taxonomy: tax.Plural,
				Params:   map[string]any{},
			}
			layouts := []string{path.Join(tax.Plural, "term.html"), "term.html", "list.html"}
			if err := s.planList(buildCtx, view, termRel, termPages, layouts); err != nil {
				return err
			}
			if site.HasOutput(siteconfig.KindTerm, siteconfig.FormatRSS) {
				buildCtx.Feeds = append(buildCtx.Feeds, feedSource{Kind: KindTerm, Title: term.Name, Rel: termRel, Pages: termPages})
			}
		}

		slices.SortFunc(all, func(a, b *Page) int { return taxonomy.ComparePages(a.doc, b.doc) })
		view := &Page{
			Kind:         KindTaxonomy,
			Title:        content.TitleFromPath(tax.Plural),
			Slug:         content.Slugify(tax.Plural),
			Taxonomy:     tax.Plural,
			RelPermalink: router.URL(taxRel),
			Permalink:    router.Permalink(taxRel),
			Pages:        all,
			TermList:     entries,
			Params:       map[string]any{},
		}
		if site.HasOutput(siteconfig.KindTaxonomy, siteconfig.FormatRSS) {
			view.RSSLink = router.Permalink(routes.OutputFile(taxRel, "index.xml"))
			buildCtx.Feeds = append(buildCtx.Feeds, feedSource{Kind: KindTaxonomy, Title: view.Title, Rel: taxRel, Pages: all})
		}
		buildCtx.Jobs = append(buildCtx.Jobs, &renderJob{
			Page:    view,
			Layouts: []string{path.Join(tax.Plural, "terms.html"), "terms.html", "list.html"},
			Output:  routes.OutputPath(taxRel),
		})
	}
	return nil
}

// planList adds one job per pager page of a list. base carries the list's
// own metadata (title, content); each job gets a shallow copy.
func (s *service) planList(buildCtx *BuildContext, base *Page, rel string, pages []*Page, layouts []string) error {
	router := buildCtx.Router
	size := buildCtx.Site.PageSize()
	total := max((len(pages)+size-1)/size, 1)

	pagerURL := func(n int) (string, error) {
		if n < 1 || n > total {
			return "", nil
		}
		p, err := router.Pager(rel, n)
		if err != nil {
			return "", err
		}
		return router.URL(p), nil
	}

	kind := base.Kind
	rss := ""
	if buildCtx.Site.HasOutput(kind, siteconfig.FormatRSS) {
		rss = router.Permalink(routes.OutputFile(rel, "index.xml"))
	}

	for n := 1; n <= total; n++ {
		pageRel, err := router.Pager(rel, n)
		if err != nil {
			return fmt.Errorf("generator: route page %d of %s: %w", n, rel, err)
		}
		lo := min((n-1)*size, len(pages))
		hi := min(n*size, len(pages))

		pager := &Pager{Number: n, TotalPages: total, TotalItems: len(pages)}
		links := []struct {
			dst *string
			n   int
		}{{&pager.First, 1}, {&pager.Last, total}, {&pager.Prev, n - 1}, {&pager.Next, n + 1}}
		for _, link := range links {
			if *link.dst, err = pagerURL(link.n); err != nil {
				return fmt.Errorf("generator: route pager of %s: %w", rel, err)
			}
		}

		view := *base
		view.RelPermalink = router.URL(pageRel)
		view.Permalink = router.Permalink(pageRel)
		view.Pages = pages[lo:hi]
		view.Paginator = pager
		view.RSSLink = rss
		buildCtx.Jobs = append(buildCtx.Jobs, &renderJob{Page: &view, Layouts: layouts, Output: routes.OutputPath(pageRel)})
	}
	return nil
}

func viewsFor(byPath map[string]*Page, docs []*content.Document) []*Page {
	out := make([]*Page, 0, len(docs))
	for _, doc := range docs {
		if page, ok := byPath[doc.Path]; ok && page.Kind == KindPage {
			out = append(out, page)
		}
	}
	return out
}

func (s *service) siteMetadata(buildCtx *BuildContext) SiteMetadata {
	site, router := buildCtx.Site, buildCtx.Router
	meta := SiteMetadata{
		Title:        site.Title,
		BaseURL:      router.BaseURL(),
		LanguageCode: site.LanguageCode,
		Copyright:    site.Copyright,
		Params:       site.Params,
		Menus:        map[string][]MenuItem{},
		Taxonomies:   site.TaxonomyPlurals(),
	}
	if meta.Params == nil {
		meta.Params = map[string]any{}
	}
	if site.HasOutput(siteconfig.KindHome, siteconfig.FormatRSS) {
		meta.RSSLink = router.Permalink("/index.xml")
	}

	lang := site.ContentLanguage()
	names := map[string]struct{}{}
	for name := range site.Menus {
		names[name] = struct{}{}
	}
	if l, ok := site.Languages[lang]; ok {
		for name := range l.Menus {
			names[name] = struct{}{}
		}
	}
	for name := range names {
		for _, entry := range site.Menu(lang, name) {
			item := MenuItem{
				Identifier: entry.Identifier,
				Name:       entry.Name,
				URL:        entry.URL,
				Weight:     entry.Weight,
				Pre:        template.HTML(entry.Pre),
				Post:       template.HTML(entry.Post),
			}
			if rel, ok := router.Normalize(entry.URL); ok {
				item.Rel = router.URL(rel)
				item.URL = item.Rel
			}
			meta.Menus[name] = append(meta.Menus[name], item)
		}
	}

	seen := map[string]struct{}{}
	for _, page := range buildCtx.Pages {
		if page.Section == "" {
			continue
		}
		if _, ok := seen[page.Section]; ok {
			continue
		}
		seen[page.Section] = struct{}{}
		if rel, err := router.Section(page.Section); err == nil {
			meta.Sections = append(meta.Sections, Link{Name: content.TitleFromPath(page.Section), Slug: page.Section, URL: router.URL(rel)})
		}
	}
	slices.SortFunc(meta.Sections, func(a, b Link) int { return strings.Compare(a.Slug, b.Slug) })
	return meta
}

func (s *service) loadTheme(buildCtx *BuildContext) {
	mode := buildCtx.Site.ParamString("defaultTheme")
	buildCtx.Theme = buildThemeContext(nil, mode, s.cfg.Theming)
	name := strings.TrimSpace(buildCtx.Site.Theme)
	if name == "" || s.cfg.ThemesDir == "" {
		return
	}
	dir := filepath.Join(s.cfg.ThemesDir, name)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		s.logger.Warn("generator.theme.missing", "theme", name, "dir", dir)
		return
	}
	buildCtx.ThemeDir = dir

	selection, err := s.themes.Resolve(name, dir, mode)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("generator.theme.no_manifest", "theme", name)
		return
	case err != nil:
		s.logger.Warn("generator.theme.manifest_failed", "theme", name, "error", err)
		return
	}
	if mode != "" && selection.Variant == "" {
		s.logger.Debug("generator.theme.base_tokens", "theme", name, "requested", mode)
	}
	buildCtx.Theme = buildThemeContext(selection, mode, s.cfg.Theming)
}
