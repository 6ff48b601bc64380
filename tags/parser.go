package tags

import (
	"fmt"
	"strings"
)

// DuplicateError is reported when a document defines a tag that an earlier document of the
// same category already defined
type DuplicateError struct {
	Source     string
	Identifier string
	Locale     string
}

// Error returns the error message of a DuplicateError
func (e *DuplicateError) Error() string {
	if e.Locale == "" {
		return fmt.Sprintf("[%s] duplicates tag [%s]", e.Source, e.Identifier)
	}

	return fmt.Sprintf("[%s] duplicates tag [%s] for locale [%s]", e.Source, e.Identifier, e.Locale)
}

// Parse builds the tags of a category from its validated documents, one tag per variant. Documents
// are processed in order and a document defining a name (for a locale) already defined by an earlier
// one is skipped entirely and reported in errs. A document whose variants repeat a locale or don't
// share the same name is also skipped
func Parse(docs []Document, category string) (tags []*Tag, errs []error) {
	tags = make([]*Tag, 0)
	seen := make(map[string]bool)

	for _, d := range docs {
		docTags, err := parseDocument(d, category)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		var dup error
		for _, t := range docTags {
			if seen[variantKey(t.Name, t.Locale)] {
				dup = &DuplicateError{Source: d.Source, Identifier: t.Identifier(), Locale: t.Locale}
				break
			}
		}

		if dup != nil {
			errs = append(errs, dup)
			continue
		}

		for _, t := range docTags {
			seen[variantKey(t.Name, t.Locale)] = true
		}

		tags = append(tags, docTags...)
	}

	return tags, errs
}

func parseDocument(d Document, category string) (tags []*Tag, err error) {
	tags = make([]*Tag, 0, len(d.Entries))
	locales := make(map[string]bool)

	for _, e := range d.Entries {
		if first := d.Entries[0].Name; !strings.EqualFold(e.Name, first) {
			return nil, fmt.Errorf("[%s] mixes tags [%s.%s] and [%s.%s], variants must share a name", d.Source, category, first, category, e.Name)
		}

		key := variantKey(e.Name, e.Locale)
		if locales[key] {
			return nil, fmt.Errorf("[%s] defines [%s.%s] more than once for locale [%s]", d.Source, category, e.Name, e.Locale)
		}
		locales[key] = true

		tags = append(tags, newTag(e, category))
	}

	return tags, nil
}

func newTag(e Entry, category string) *Tag {
	t := &Tag{Name: e.Name, Category: category, Description: e.Description, Locale: e.Locale}

	if len(e.Aliases) > 0 {
		t.Aliases = append([]string(nil), e.Aliases...)
	}

	if len(e.Choices) > 0 {
		choices := make([]Choice, 0, len(e.Choices))
		for _, c := range e.Choices {
			choices = append(choices, Choice{Name: c.Name, Payload: Payload{Text: c.Content, Embeds: c.Embeds, Attachments: c.Attachments}})
		}

		t.Content = MultiChoice{Choices: choices}
	} else {
		t.Content = Single{Payload: Payload{Text: e.Content, Embeds: e.Embeds, Attachments: e.Attachments}}
	}

	return t
}

func variantKey(name string, locale string) string {
	return strings.ToLower(name) + "/" + locale
}
