package tags

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ListKeyword is the reserved tag name requesting the listing of a category
const ListKeyword = "list"

var (
	// ErrTagNotFound is returned when looking up a tag that isn't in the catalogue
	ErrTagNotFound = errors.New("tag not found")

	// ErrCategoryNotFound is returned when looking up a category that isn't in the catalogue
	ErrCategoryNotFound = errors.New("category not found")
)

// Catalogue is an immutable snapshot of all tags indexed by category, identifier and alias.
// Lookups are case-insensitive
type Catalogue struct {
	revision      string
	loadedAt      time.Time
	defaultLocale string

	// categories holds every variant by category, sorted by name and locale
	categories    map[string][]*Tag
	categoryNames []string
	categoryIndex map[string]string

	// logical holds one entry per tag (all of its locale variants), sorted by category and name
	logical      []logicalTag
	byIdentifier map[string]int
	byAlias      map[string]int
}

// logicalTag groups the locale variants of a tag
type logicalTag struct {
	category string
	name     string
	aliases  []string
	variants []*Tag
}

// LookupResult is either a single tag or, when the listing keyword was looked up, the listing
// of a category
type LookupResult struct {
	Tag     *Tag
	Listing []*Tag
}

// IsListing returns true if the result is a category listing
func (r LookupResult) IsListing() bool {
	return r.Tag == nil
}

// NewCatalogue builds a catalogue from tags by category. The default locale is used when looking
// up a tag in a locale it doesn't have
func NewCatalogue(revision string, defaultLocale string, loadedAt time.Time, categories map[string][]*Tag) (c *Catalogue) {
	c = new(Catalogue)
	c.revision = revision
	c.loadedAt = loadedAt
	c.defaultLocale = defaultLocale
	c.categories = make(map[string][]*Tag)
	c.categoryIndex = make(map[string]string)
	c.byIdentifier = make(map[string]int)
	c.byAlias = make(map[string]int)

	for category, tags := range categories {
		sorted := append([]*Tag(nil), tags...)
		sort.SliceStable(sorted, func(i, j int) bool {
			ni, nj := strings.ToLower(sorted[i].Name), strings.ToLower(sorted[j].Name)
			if ni != nj {
				return ni < nj
			}

			return sorted[i].Locale < sorted[j].Locale
		})

		c.categories[category] = sorted
		c.categoryNames = append(c.categoryNames, category)
		c.categoryIndex[strings.ToLower(category)] = category
	}

	sort.Strings(c.categoryNames)

	for _, category := range c.categoryNames {
		for _, t := range c.categories[category] {
			id := strings.ToLower(t.Identifier())

			i, ok := c.byIdentifier[id]
			if !ok {
				c.logical = append(c.logical, logicalTag{category: category, name: t.Name})
				i = len(c.logical) - 1
				c.byIdentifier[id] = i
			}

			lt := &c.logical[i]
			lt.variants = append(lt.variants, t)
			for _, a := range t.Aliases {
				if !contains(lt.aliases, strings.ToLower(a)) {
					lt.aliases = append(lt.aliases, strings.ToLower(a))
				}
			}
		}
	}

	// Names always win over aliases and the first tag to claim an alias keeps it
	for i, lt := range c.logical {
		for _, a := range lt.aliases {
			key := strings.ToLower(lt.category) + "." + a
			if _, taken := c.byIdentifier[key]; taken {
				continue
			}

			if _, taken := c.byAlias[key]; !taken {
				c.byAlias[key] = i
			}
		}
	}

	return c
}

// Revision returns the revision of the source the catalogue was built from
func (c *Catalogue) Revision() string {
	return c.revision
}

// LoadedAt returns the time at which the catalogue was built
func (c *Catalogue) LoadedAt() time.Time {
	return c.loadedAt
}

// Categories returns the sorted category names
func (c *Catalogue) Categories() []string {
	return append([]string(nil), c.categoryNames...)
}

// Tags returns every tag variant of a category
func (c *Catalogue) Tags(category string) []*Tag {
	name, ok := c.categoryIndex[strings.ToLower(category)]
	if !ok {
		return nil
	}

	return append([]*Tag(nil), c.categories[name]...)
}

// Size returns the number of tags (not counting locale variants)
func (c *Catalogue) Size() int {
	return len(c.logical)
}

// Lookup returns the tag with the given name (or alias) in a category in the preferred locale,
// falling back on the default locale and then on the first variant. Looking up ListKeyword returns
// the listing of the category instead
func (c *Catalogue) Lookup(category string, name string, locale string) (r LookupResult, err error) {
	if strings.EqualFold(name, ListKeyword) {
		listing, err := c.List(category, locale)
		return LookupResult{Listing: listing}, err
	}

	lt, ok := c.find(category, name)
	if !ok {
		return r, ErrTagNotFound
	}

	return LookupResult{Tag: c.variant(lt, locale)}, nil
}

// List returns one variant of every tag of a category, in the preferred locale when available
func (c *Catalogue) List(category string, locale string) (listing []*Tag, err error) {
	name, ok := c.categoryIndex[strings.ToLower(category)]
	if !ok {
		return nil, ErrCategoryNotFound
	}

	listing = make([]*Tag, 0)
	for _, lt := range c.logical {
		if lt.category == name {
			listing = append(listing, c.variant(lt, locale))
		}
	}

	return listing, nil
}

// Find returns the tag for a compound identifier (category.name) in the preferred locale
func (c *Catalogue) Find(identifier string, locale string) (t *Tag, ok bool) {
	category, name, found := strings.Cut(identifier, ".")
	if !found {
		return nil, false
	}

	lt, ok := c.find(category, name)
	if !ok {
		return nil, false
	}

	return c.variant(lt, locale), true
}

func (c *Catalogue) find(category string, name string) (lt logicalTag, ok bool) {
	key := strings.ToLower(category) + "." + strings.ToLower(name)

	if i, ok := c.byIdentifier[key]; ok {
		return c.logical[i], true
	}

	if i, ok := c.byAlias[key]; ok {
		return c.logical[i], true
	}

	return lt, false
}

func (c *Catalogue) variant(lt logicalTag, locale string) *Tag {
	for _, want := range []string{locale, c.defaultLocale} {
		if want == "" {
			continue
		}

		for _, t := range lt.variants {
			if t.Locale == want {
				return t
			}
		}
	}

	for _, t := range lt.variants {
		if t.Locale == "" {
			return t
		}
	}

	return lt.variants[0]
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}

	return false
}
