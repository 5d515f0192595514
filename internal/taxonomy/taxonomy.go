// Package taxonomy groups documents into term indexes such as /tags/golang/.
package taxonomy

import (
	"cmp"
	"slices"
	"strings"

	"github.com/goliatone/go-blog/internal/content"
)

// Term is one value of a taxonomy and the pages that list it.
type Term struct {
	Name  string
	Slug  string
	Pages []*content.Document
}

// Taxonomy is one index (tags, categories, ...) and its terms ordered by name.
type Taxonomy struct {
	Plural string
	Terms  []*Term
}

// Index holds every configured taxonomy.
type Index struct {
	taxonomies map[string]*Taxonomy
	order      []string
}

// Build indexes docs under each plural. Terms whose names normalise to the
// same slug are merged; the first spelling seen (by page order) names the term.
// Section index documents are not indexed.
func Build(plurals []string, docs []*content.Document) *Index {
	idx := &Index{taxonomies: map[string]*Taxonomy{}}

	ordered := slices.Clone(docs)
	SortPages(ordered)

	for _, plural := range plurals {
		if _, exists := idx.taxonomies[plural]; exists || plural == "" {
			continue
		}
		tax := &Taxonomy{Plural: plural}
		bySlug := map[string]*Term{}

		for _, doc := range ordered {
			if doc.IsSectionIndex {
				continue
			}
			for _, name := range doc.Terms(plural) {
				slug := content.Slugify(name)
				if slug == "" {
					continue
				}
				term, ok := bySlug[slug]
				if !ok {
					term = &Term{Name: strings.TrimSpace(name), Slug: slug}
					bySlug[slug] = term
					tax.Terms = append(tax.Terms, term)
				}
				if !slices.Contains(term.Pages, doc) {
					term.Pages = append(term.Pages, doc)
				}
			}
		}

		slices.SortFunc(tax.Terms, func(a, b *Term) int {
			if n := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); n != 0 {
				return n
			}
			return strings.Compare(a.Slug, b.Slug)
		})
		idx.taxonomies[plural] = tax
		idx.order = append(idx.order, plural)
	}
	slices.Sort(idx.order)
	return idx
}

// Taxonomies returns the indexed taxonomies ordered by plural name.
func (i *Index) Taxonomies() []*Taxonomy {
	out := make([]*Taxonomy, 0, len(i.order))
	for _, plural := range i.order {
		out = append(out, i.taxonomies[plural])
	}
	return out
}

// Get returns the taxonomy for plural.
func (i *Index) Get(plural string) (*Taxonomy, bool) {
	tax, ok := i.taxonomies[plural]
	return tax, ok
}

// Term looks up a term by its slug or any spelling that normalises to it.
func (t *Taxonomy) Term(name string) (*Term, bool) {
	slug := content.Slugify(name)
	for _, term := range t.Terms {
		if term.Slug == slug {
			return term, true
		}
	}
	return nil, false
}

// Contains reports whether doc is listed under the term.
func (t *Term) Contains(doc *content.Document) bool {
	return slices.Contains(t.Pages, doc)
}

// ByCount returns terms ordered by page count, most used first, then name.
func (t *Taxonomy) ByCount() []*Term {
	out := slices.Clone(t.Terms)
	slices.SortStableFunc(out, func(a, b *Term) int {
		return cmp.Compare(len(b.Pages), len(a.Pages))
	})
	return out
}

// SortPages orders documents by date (newest first), then title, then path.
func SortPages(docs []*content.Document) {
	slices.SortStableFunc(docs, ComparePages)
}

// ComparePages is the ordering used by SortPages.
func ComparePages(a, b *content.Document) int {
	if n := b.Date.Compare(a.Date); n != 0 {
		return n
	}
	if n := strings.Compare(a.Title, b.Title); n != 0 {
		return n
	}
	return strings.Compare(a.Path, b.Path)
}
