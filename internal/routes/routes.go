// Package routes builds site-relative paths and absolute permalinks for
// every page kind using a go-urlkit route group.
package routes

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	urlkit "github.com/goliatone/go-urlkit"

	"github.com/goliatone/go-blog/internal/content"
)

const groupName = "site"

const (
	RouteHome     = "home"
	RouteSection  = "section"
	RoutePage     = "page"
	RouteRootPage = "root_page"
	RouteTaxonomy = "taxonomy"
	RouteTerm     = "term"
	RouteHomePage = "home_pager"
)

var (
	ErrBaseURLInvalid = errors.New("routes: base URL must be an absolute http(s) URL")
	ErrUnknownRoute   = errors.New("routes: unknown route")
)

var routeTable = map[string]string{
	RouteHome:     "/",
	RouteSection:  "/:section/",
	RoutePage:     "/:section/:slug/",
	RouteRootPage: "/:slug/",
	RouteTaxonomy: "/:taxonomy/",
	RouteTerm:     "/:taxonomy/:term/",
	RouteHomePage: "/page/:page/",
}

// Router resolves routes against the site base URL. Relative paths returned
// by Rel exclude the base URL path; URL and Permalink include it.
type Router struct {
	manager  *urlkit.RouteManager
	group    *urlkit.Group
	origin   string
	basePath string
}

// New builds a router for baseURL, e.g. "https://example.com/blog/".
func New(baseURL string) (*Router, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrBaseURLInvalid, baseURL)
	}
	origin := u.Scheme + "://" + u.Host

	manager := urlkit.NewRouteManager(&urlkit.Config{
		Groups: []urlkit.GroupConfig{{
			Name:    groupName,
			BaseURL: origin,
			Paths:   routeTable,
		}},
	})
	group, err := lookupGroup(manager, groupName)
	if err != nil {
		return nil, err
	}

	return &Router{
		manager:  manager,
		group:    group,
		origin:   origin,
		basePath: strings.TrimSuffix(u.Path, "/"),
	}, nil
}

// BaseURL returns the base URL with a trailing slash.
func (r *Router) BaseURL() string {
	return r.origin + r.basePath + "/"
}

// Rel builds the site-relative path of route, always with a trailing slash.
func (r *Router) Rel(route string, params map[string]string) (string, error) {
	if _, ok := routeTable[route]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRoute, route)
	}
	builder, err := safeBuilder(r.group, route)
	if err != nil {
		return "", err
	}
	for key, value := range params {
		builder.WithParam(key, value)
	}
	built, err := builder.Build()
	if err != nil {
		return "", fmt.Errorf("routes: build %s: %w", route, err)
	}
	u, err := url.Parse(built)
	if err != nil {
		return "", fmt.Errorf("routes: parse %s: %w", built, err)
	}
	return Clean(u.Path), nil
}

// URL prefixes a relative path with the base URL path, for links in HTML.
func (r *Router) URL(rel string) string {
	return r.basePath + Clean(rel)
}

// Permalink returns the absolute URL of a relative path.
func (r *Router) Permalink(rel string) string {
	return r.origin + r.URL(rel)
}

// Absolute converts a site link (as written in a template or menu) to an
// absolute URL. External URLs are returned unchanged.
func (r *Router) Absolute(link string) string {
	if IsExternal(link) {
		return link
	}
	return r.origin + r.basePath + "/" + strings.TrimPrefix(link, "/")
}

// Home returns "/".
func (r *Router) Home() string {
	rel, err := r.Rel(RouteHome, nil)
	if err != nil {
		return "/"
	}
	return rel
}

// Section returns the list path of a section.
func (r *Router) Section(section string) (string, error) {
	return r.Rel(RouteSection, map[string]string{"section": content.Slugify(section)})
}

// Page returns the path of a document. Section indexes resolve to their
// section list and root-level pages live directly under the site root.
func (r *Router) Page(doc *content.Document) (string, error) {
	switch {
	case doc.IsSectionIndex && doc.Section == "":
		return r.Home(), nil
	case doc.IsSectionIndex:
		return r.Section(doc.Section)
	case doc.Section == "":
		return r.Rel(RouteRootPage, map[string]string{"slug": doc.Slug})
	}
	return r.Rel(RoutePage, map[string]string{"section": content.Slugify(doc.Section), "slug": doc.Slug})
}

// Taxonomy returns the list path of a taxonomy such as /tags/.
func (r *Router) Taxonomy(plural string) (string, error) {
	return r.Rel(RouteTaxonomy, map[string]string{"taxonomy": content.Slugify(plural)})
}

// Term returns the path of a term page such as /tags/golang/.
func (r *Router) Term(plural, termSlug string) (string, error) {
	return r.Rel(RouteTerm, map[string]string{"taxonomy": content.Slugify(plural), "term": termSlug})
}

// Pager returns the path of page n of a paginated list. Page 1 is the list itself.
func (r *Router) Pager(list string, n int) (string, error) {
	if n <= 1 {
		return Clean(list), nil
	}
	if Clean(list) == r.Home() {
		return r.Rel(RouteHomePage, map[string]string{"page": strconv.Itoa(n)})
	}
	return Clean(path.Join(list, "page", strconv.Itoa(n))), nil
}

// Normalize turns a link into a relative path comparable with Rel results.
// It strips the origin (when it matches), the base path, query and fragment.
// The second result is false for external links.
func (r *Router) Normalize(link string) (string, bool) {
	link = strings.TrimSpace(link)
	u, err := url.Parse(link)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		if u.Scheme+"://"+u.Host != r.origin {
			return "", false
		}
	}
	p := u.Path
	if r.basePath != "" && (p == r.basePath || strings.HasPrefix(p, r.basePath+"/")) {
		p = strings.TrimPrefix(p, r.basePath)
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return Clean(p), true
}

// IsExternal reports whether link carries a scheme or host, or is a mailto link.
func IsExternal(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return u.Scheme != "" || u.Host != ""
}

// Clean normalises a path to start with "/" and end with "/" unless the last
// segment has a file extension.
func Clean(p string) string {
	p = path.Clean("/" + strings.TrimSpace(p))
	if p == "/" || path.Ext(p) != "" {
		return p
	}
	return p + "/"
}

// OutputPath maps a relative path to the file written for it.
func OutputPath(rel string) string {
	rel = Clean(rel)
	if path.Ext(rel) != "" {
		return strings.TrimPrefix(rel, "/")
	}
	return strings.TrimPrefix(path.Join(rel, "index.html"), "/")
}

// OutputFile maps a relative list path and file name, e.g. ("/tags/", "index.xml").
func OutputFile(rel, name string) string {
	return strings.TrimPrefix(path.Join(Clean(rel), name), "/")
}

func safeBuilder(group *urlkit.Group, route string) (builder *urlkit.Builder, err error) {
	if group == nil {
		return nil, fmt.Errorf("routes: urlkit group is nil")
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("routes: urlkit builder panic: %v", rec)
		}
	}()
	builder = group.Builder(route)
	return builder, err
}

func lookupGroup(manager *urlkit.RouteManager, name string) (group *urlkit.Group, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("routes: route group %q not found", name)
		}
	}()
	group = manager.Group(name)
	return group, err
}
