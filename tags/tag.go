// Package tags implements the tag catalogue: categorized and localized canned answers loaded
// from a remote repository of documents, validated, indexed and kept in sync with their source.
//
// The pipeline for a single document is Decode, Inherit, Validate and then Parse. Parsed tags
// of every category are published together as an immutable Catalogue through a Store so readers
// never observe a partially refreshed state.
package tags

import (
	"fmt"
)

// Tag is a canned response. Tags are never mutated once built and are shared between
// snapshots of the catalogue
type Tag struct {
	Name        string
	Category    string
	Description string
	Aliases     []string

	// Locale is empty when the tag doesn't declare one
	Locale string

	Content Content
}

// Identifier returns the compound identifier of the tag (category.name)
func (t *Tag) Identifier() string {
	return fmt.Sprintf("%s.%s", t.Category, t.Name)
}

// String returns a friendly representation of the tag
func (t *Tag) String() string {
	if t.Locale == "" {
		return t.Identifier()
	}

	return fmt.Sprintf("%s [%s]", t.Identifier(), t.Locale)
}

// Content is the body of a tag. It is either a Single payload or a MultiChoice
type Content interface {
	isContent()
}

// Single is the content of a tag with a single payload
type Single struct {
	Payload
}

// MultiChoice is the content of a tag offering many named payloads, the first one being
// the default
type MultiChoice struct {
	Choices []Choice
}

func (Single) isContent() {}

func (MultiChoice) isContent() {}

// Payload holds what gets rendered for a tag (or one of its choices)
type Payload struct {
	Text        string
	Embeds      []Embed
	Attachments []Attachment
}

// Empty returns true if the payload has neither text nor embeds
func (p Payload) Empty() bool {
	return p.Text == "" && len(p.Embeds) == 0
}

// Embed is a rich block of content
type Embed struct {
	Title        string  `doc:"title" validate:"required"`
	Description  string  `doc:"description"`
	ImageURL     string  `doc:"image" validate:"omitempty,url"`
	ThumbnailURL string  `doc:"thumbnail" validate:"omitempty,url"`
	Fields       []Field `doc:"fields" validate:"dive"`
}

// Field is a titled value shown within an embed
type Field struct {
	Name   string `doc:"name" validate:"required"`
	Value  string `doc:"value" validate:"required"`
	Inline bool   `doc:"inline"`
}

// Attachment is a file linked from a payload
type Attachment struct {
	Filename    string `doc:"filename" validate:"required"`
	Description string `doc:"description"`
	URL         string `doc:"url" validate:"required,url"`
}

// Choice is one named payload of a MultiChoice
type Choice struct {
	Name string
	Payload
}
