package tags_test

import (
	"errors"
	"github.com/bugcenter/helpscot/tags"
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestValidateRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name    string
		entries []map[string]interface{}
		path    string
		reason  string
	}{
		{"missing name", []map[string]interface{}{{"description": "d", "content": "c"}}, "name", "is required"},
		{"missing description", []map[string]interface{}{{"name": "n", "content": "c"}}, "description", "is required"},
		{"neither content nor choices", []map[string]interface{}{{"name": "n", "description": "d"}}, "content", "content or at least one embed is required"},
		{"content and choices", []map[string]interface{}{{"name": "n", "description": "d", "content": "c", "choices": []interface{}{map[string]interface{}{"name": "a", "content": "x"}}}}, "choices", "can't be combined with content or embeds"},
		{"empty choice", []map[string]interface{}{{"name": "n", "description": "d", "choices": []interface{}{map[string]interface{}{"name": "a"}}}}, "choices[0].content", "content or at least one embed is required"},
		{"field without value", []map[string]interface{}{{"name": "n", "description": "d", "embeds": []interface{}{map[string]interface{}{"title": "t", "fields": []interface{}{map[string]interface{}{"name": "f"}}}}}}, "embeds[0].fields[0].value", "is required"},
		{"invalid attachment url", []map[string]interface{}{{"name": "n", "description": "d", "content": "c", "attachments": []interface{}{map[string]interface{}{"filename": "a.py", "url": "not a url"}}}}, "attachments[0].url", "must be a valid URL"},
		{"invalid locale", []map[string]interface{}{{"name": "n", "description": "d", "content": "c", "locale": "english"}}, "locale", "must be a locale such as en_US"},
		{"locale and lang", []map[string]interface{}{{"name": "n", "description": "d", "content": "c", "locale": "en_US", "lang": "en_US"}}, "lang", "can't be combined with locale"},
		{"unknown key", []map[string]interface{}{{"name": "n", "description": "d", "content": "c", "colour": "red"}}, "colour", "unknown key"},
		{"aliases not a list", []map[string]interface{}{{"name": "n", "description": "d", "content": "c", "aliases": "a"}}, "aliases", "must be a list of text values"},
		{"name not text", []map[string]interface{}{{"name": map[string]interface{}{}, "description": "d", "content": "c"}}, "name", "must be text"},
		{"blank name", []map[string]interface{}{{"name": "   ", "description": "d", "content": "c"}}, "name", "can't be blank"},
		{"dotted name", []map[string]interface{}{{"name": "discord.py", "description": "d", "content": "c"}}, "name", "can't contain `.`"},
		{"dotted alias", []map[string]interface{}{{"name": "dpy", "description": "d", "content": "c", "aliases": []interface{}{"discord.py"}}}, "aliases[0]", "can't contain `.`"},
		{"blank choice name", []map[string]interface{}{{"name": "n", "description": "d", "choices": []interface{}{map[string]interface{}{"name": " ", "content": "x"}}}}, "choices[0].name", "can't be blank"},
		{"duplicate choice", []map[string]interface{}{{"name": "n", "description": "d", "choices": []interface{}{
			map[string]interface{}{"name": "slow", "content": "first"},
			map[string]interface{}{"name": "fast", "content": "second"},
			map[string]interface{}{"name": "slow", "content": "third"},
		}}}, "choices[2].name", "duplicate choice"},
		{"second entry", []map[string]interface{}{{"name": "n", "description": "d", "content": "c"}, {"name": "n", "description": "d"}}, "[1].content", "content or at least one embed is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := tags.Validate(tc.entries)

			var verr *tags.ValidationError
			if assert.True(t, errors.As(err, &verr), "expected a validation error but got [%v]", err) {
				assert.Equal(t, tc.path, verr.Path)
				assert.Equal(t, tc.reason, verr.Reason)
			}
			assert.Empty(t, doc.Entries)
		})
	}
}

func TestValidateEmbedsOnlyPayload(t *testing.T) {
	doc, err := tags.Validate([]map[string]interface{}{{
		"name":        "markdown",
		"description": "Formatting messages",
		"embeds": []interface{}{map[string]interface{}{
			"title":     "Markdown",
			"thumbnail": "https://example.com/md.png",
			"fields":    []interface{}{map[string]interface{}{"name": "Bold", "value": "*text*", "inline": true}},
		}},
	}})

	if assert.NoError(t, err) {
		e := doc.Entries[0]
		assert.Equal(t, "https://example.com/md.png", e.Embeds[0].ThumbnailURL)
		assert.Equal(t, []tags.Field{{Name: "Bold", Value: "*text*", Inline: true}}, e.Embeds[0].Fields)
	}
}

func TestValidateNoEntries(t *testing.T) {
	_, err := tags.Validate(nil)

	assert.EqualError(t, err, "document has no entries")
}
