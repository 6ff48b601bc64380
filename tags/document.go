package tags

import (
	"encoding/json"
	"fmt"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"path"
	"strings"
)

const (
	// variantsKey is the toml table key holding the list of variants of a tag
	variantsKey = "variants"
)

// Supported document extensions
const (
	TOMLExtension = ".toml"
	JSONExtension = ".json"
)

// ErrUnsupportedFormat is returned when decoding a document with an unknown extension
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Document is a validated tag document. It holds one entry per variant of the tag
type Document struct {
	// Source is the name of the file the document was loaded from
	Source  string
	Entries []Entry
}

// SupportedDocument returns true if the file name has an extension that can be decoded
func SupportedDocument(filename string) bool {
	switch strings.ToLower(path.Ext(filename)) {
	case TOMLExtension, JSONExtension:
		return true
	}

	return false
}

// Decode decodes the raw content of a document into its list of untyped entries. The
// format is determined by the file extension. A toml document holds either a single tag or
// a list of variants under the variants key while a json document is either an object or
// a list of objects
func Decode(filename string, data []byte) (entries []map[string]interface{}, err error) {
	switch strings.ToLower(path.Ext(filename)) {
	case TOMLExtension:
		return decodeTOML(data)
	case JSONExtension:
		return decodeJSON(data)
	}

	return nil, errors.Wrapf(ErrUnsupportedFormat, "can't decode [%s]", filename)
}

func decodeTOML(data []byte) (entries []map[string]interface{}, err error) {
	var doc map[string]interface{}
	if err = toml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid toml")
	}

	variants, ok := doc[variantsKey]
	if !ok {
		return []map[string]interface{}{doc}, nil
	}

	if len(doc) > 1 {
		return nil, &ValidationError{Path: variantsKey, Reason: "can't be combined with other top-level keys"}
	}

	return toEntries(variants, variantsKey)
}

func decodeJSON(data []byte) (entries []map[string]interface{}, err error) {
	var doc interface{}
	if err = json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "invalid json")
	}

	if m, ok := doc.(map[string]interface{}); ok {
		return []map[string]interface{}{m}, nil
	}

	return toEntries(doc, "")
}

func toEntries(v interface{}, p string) (entries []map[string]interface{}, err error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, &ValidationError{Path: p, Reason: "must be a table or a list of tables"}
	}

	if len(list) == 0 {
		return nil, &ValidationError{Path: p, Reason: "must hold at least one entry"}
	}

	entries = make([]map[string]interface{}, 0, len(list))
	for i, e := range list {
		m, err := cast.ToStringMapE(e)
		if err != nil {
			return nil, &ValidationError{Path: indexPath(p, i), Reason: "must be a table"}
		}

		entries = append(entries, m)
	}

	return entries, nil
}

// Load runs the whole pipeline for a raw document: decoding, placeholder inheritance
// and validation
func Load(filename string, data []byte) (doc Document, err error) {
	raw, err := Decode(filename, data)
	if err != nil {
		return doc, err
	}

	resolved, err := Inherit(raw)
	if err != nil {
		return doc, err
	}

	doc, err = Validate(resolved)
	if err != nil {
		return doc, err
	}

	doc.Source = filename
	return doc, nil
}

func keyPath(parent string, key string) string {
	if parent == "" {
		return key
	}

	return parent + "." + key
}

func indexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
