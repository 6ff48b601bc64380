package tags

import (
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/spf13/cast"
	"reflect"
	"regexp"
	"sort"
	"strings"
)

// Document keys
const (
	nameKey        = "name"
	descriptionKey = "description"
	aliasesKey     = "aliases"
	localeKey      = "locale"
	langKey        = "lang"
	contentKey     = "content"
	embedsKey      = "embeds"
	attachmentsKey = "attachments"
	choicesKey     = "choices"
	choiceNameKey  = "choice_name"
	titleKey       = "title"
	imageKey       = "image"
	thumbnailKey   = "thumbnail"
	fieldsKey      = "fields"
	valueKey       = "value"
	inlineKey      = "inline"
	filenameKey    = "filename"
	urlKey         = "url"
)

var localeRegex = regexp.MustCompile(`^[a-z]{2}_[A-Z]{2}$`)

// Entry is one validated variant of a tag document
type Entry struct {
	Name        string        `doc:"name" validate:"required,notblank,excludes=."`
	Description string        `doc:"description"`
	Aliases     []string      `doc:"aliases" validate:"dive,required,notblank,excludes=."`
	Locale      string        `doc:"locale" validate:"omitempty,locale"`
	Content     string        `doc:"content"`
	Embeds      []Embed       `doc:"embeds" validate:"dive"`
	Attachments []Attachment  `doc:"attachments" validate:"dive"`
	Choices     []EntryChoice `doc:"choices" validate:"dive"`
}

// EntryChoice is a validated choice of an entry
type EntryChoice struct {
	Name        string       `doc:"name" validate:"required,notblank"`
	Content     string       `doc:"content"`
	Embeds      []Embed      `doc:"embeds" validate:"dive"`
	Attachments []Attachment `doc:"attachments" validate:"dive"`
}

// ValidationError describes the first constraint a document violates
type ValidationError struct {
	// Path locates the offending value (i.e. [1].embeds[0].title)
	Path   string
	Reason string
	Err    error
}

// Error returns the error message of a ValidationError
func (e *ValidationError) Error() string {
	if e.Path == "" {
		return e.Reason
	}

	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

// Unwrap returns the cause of the validation error, if any
func (e *ValidationError) Unwrap() error {
	return e.Err
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("doc"); name != "" {
			return name
		}

		return fld.Name
	})

	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "locale", func(fl validator.FieldLevel) bool {
		return localeRegex.MatchString(fl.Field().String())
	})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		e := sl.Current().Interface().(Entry)
		hasPayload := e.Content != "" || len(e.Embeds) > 0

		if hasPayload && len(e.Choices) > 0 {
			sl.ReportError(e.Choices, choicesKey, "Choices", "exclusive", "")
		} else if !hasPayload && len(e.Choices) == 0 {
			sl.ReportError(e.Content, contentKey, "Content", "payload", "")
		}

		seen := make(map[string]bool)
		for i, c := range e.Choices {
			if seen[c.Name] {
				sl.ReportError(c.Name, keyPath(indexPath(choicesKey, i), nameKey), "Name", "unique", "")
				return
			}
			seen[c.Name] = true
		}
	}, Entry{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		c := sl.Current().Interface().(EntryChoice)
		if c.Content == "" && len(c.Embeds) == 0 {
			sl.ReportError(c.Content, contentKey, "Content", "payload", "")
		}
	}, EntryChoice{})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("unable to register validation [%s]: %v", tag, err))
	}
}

// Validate converts untyped entries (with placeholders already resolved) to a Document,
// rejecting unknown keys and values of the wrong shape. The error, a *ValidationError, describes
// the first violation found
func Validate(entries []map[string]interface{}) (doc Document, err error) {
	if len(entries) == 0 {
		return doc, &ValidationError{Reason: "document has no entries"}
	}

	doc.Entries = make([]Entry, 0, len(entries))
	for i, raw := range entries {
		p := entryPath(len(entries), i)

		e, err := decodeEntry(raw, p)
		if err != nil {
			return Document{}, err
		}

		if err := validate.Struct(e); err != nil {
			return Document{}, toValidationError(err, p)
		}

		doc.Entries = append(doc.Entries, e)
	}

	return doc, nil
}

// toValidationError converts the first error reported by the validator to a ValidationError
func toValidationError(err error, entryPath string) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return &ValidationError{Path: entryPath, Reason: err.Error(), Err: err}
	}

	fe := verrs[0]

	// The namespace is prefixed with the struct name (i.e. Entry.embeds[0].title)
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}

	p := ns
	if entryPath != "" {
		p = keyPath(entryPath, ns)
	}

	return &ValidationError{Path: p, Reason: friendlyMessage(fe)}
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "locale":
		return "must be a locale such as en_US"
	case "exclusive":
		return "can't be combined with content or embeds"
	case "payload":
		return "content or at least one embed is required"
	case "notblank":
		return "can't be blank"
	case "excludes":
		return fmt.Sprintf("can't contain `%s`", fe.Param())
	case "unique":
		return "duplicate choice"
	}

	return "is invalid"
}

// shape decoding of untyped values into their typed counterparts. Keys are visited in
// sorted order so that the first violation reported is stable

func decodeEntry(raw map[string]interface{}, p string) (e Entry, err error) {
	if _, ok := raw[descriptionKey]; !ok {
		return e, &ValidationError{Path: keyPath(p, descriptionKey), Reason: "is required"}
	}

	if _, hasLocale := raw[localeKey]; hasLocale {
		if _, hasLang := raw[langKey]; hasLang {
			return e, &ValidationError{Path: keyPath(p, langKey), Reason: "can't be combined with locale"}
		}
	}

	for _, k := range sortedKeys(raw) {
		v := raw[k]
		kp := keyPath(p, k)

		switch k {
		case nameKey:
			e.Name, err = toText(v, kp)
		case descriptionKey:
			e.Description, err = toText(v, kp)
		case aliasesKey:
			e.Aliases, err = toStrings(v, kp)
		case localeKey, langKey:
			e.Locale, err = toScalar(v, kp)
		case contentKey:
			e.Content, err = toText(v, kp)
		case embedsKey:
			e.Embeds, err = toEmbeds(v, kp)
		case attachmentsKey:
			e.Attachments, err = toAttachments(v, kp)
		case choicesKey:
			e.Choices, err = toChoices(v, kp)
		default:
			err = unknownKey(kp)
		}

		if err != nil {
			return Entry{}, err
		}
	}

	return e, nil
}

func toChoices(v interface{}, p string) (choices []EntryChoice, err error) {
	err = eachTable(v, p, func(m map[string]interface{}, ep string) error {
		if _, hasName := m[nameKey]; hasName {
			if _, hasChoiceName := m[choiceNameKey]; hasChoiceName {
				return &ValidationError{Path: keyPath(ep, choiceNameKey), Reason: "can't be combined with name"}
			}
		}

		var c EntryChoice
		for _, k := range sortedKeys(m) {
			var err error
			kp := keyPath(ep, k)

			switch k {
			case nameKey, choiceNameKey:
				c.Name, err = toText(m[k], kp)
			case contentKey:
				c.Content, err = toText(m[k], kp)
			case embedsKey:
				c.Embeds, err = toEmbeds(m[k], kp)
			case attachmentsKey:
				c.Attachments, err = toAttachments(m[k], kp)
			default:
				err = unknownKey(kp)
			}

			if err != nil {
				return err
			}
		}

		choices = append(choices, c)
		return nil
	})

	return choices, err
}

func toEmbeds(v interface{}, p string) (embeds []Embed, err error) {
	err = eachTable(v, p, func(m map[string]interface{}, ep string) error {
		var e Embed
		for _, k := range sortedKeys(m) {
			var err error
			kp := keyPath(ep, k)

			switch k {
			case titleKey:
				e.Title, err = toText(m[k], kp)
			case descriptionKey:
				e.Description, err = toText(m[k], kp)
			case imageKey:
				e.ImageURL, err = toScalar(m[k], kp)
			case thumbnailKey:
				e.ThumbnailURL, err = toScalar(m[k], kp)
			case fieldsKey:
				e.Fields, err = toFields(m[k], kp)
			default:
				err = unknownKey(kp)
			}

			if err != nil {
				return err
			}
		}

		embeds = append(embeds, e)
		return nil
	})

	return embeds, err
}

func toFields(v interface{}, p string) (fields []Field, err error) {
	err = eachTable(v, p, func(m map[string]interface{}, ep string) error {
		var f Field
		for _, k := range sortedKeys(m) {
			var err error
			kp := keyPath(ep, k)

			switch k {
			case nameKey:
				f.Name, err = toText(m[k], kp)
			case valueKey:
				f.Value, err = toText(m[k], kp)
			case inlineKey:
				f.Inline, err = cast.ToBoolE(m[k])
				if err != nil {
					err = &ValidationError{Path: kp, Reason: "must be a boolean"}
				}
			default:
				err = unknownKey(kp)
			}

			if err != nil {
				return err
			}
		}

		fields = append(fields, f)
		return nil
	})

	return fields, err
}

func toAttachments(v interface{}, p string) (attachments []Attachment, err error) {
	err = eachTable(v, p, func(m map[string]interface{}, ep string) error {
		var a Attachment
		for _, k := range sortedKeys(m) {
			var err error
			kp := keyPath(ep, k)

			switch k {
			case filenameKey:
				a.Filename, err = toScalar(m[k], kp)
			case descriptionKey:
				a.Description, err = toText(m[k], kp)
			case urlKey:
				a.URL, err = toScalar(m[k], kp)
			default:
				err = unknownKey(kp)
			}

			if err != nil {
				return err
			}
		}

		attachments = append(attachments, a)
		return nil
	})

	return attachments, err
}

// eachTable calls fn for every table of a list value
func eachTable(v interface{}, p string, fn func(m map[string]interface{}, ep string) error) error {
	list, ok := v.([]interface{})
	if !ok {
		return &ValidationError{Path: p, Reason: "must be a list of tables"}
	}

	for i, item := range list {
		ep := indexPath(p, i)

		m, ok := item.(map[string]interface{})
		if !ok {
			return &ValidationError{Path: ep, Reason: "must be a table"}
		}

		if err := fn(m, ep); err != nil {
			return err
		}
	}

	return nil
}

// toText converts a scalar or a list of lines (joined with new lines) to a string
func toText(v interface{}, p string) (string, error) {
	if lines, ok := v.([]interface{}); ok {
		parts := make([]string, 0, len(lines))
		for i, l := range lines {
			s, err := toScalar(l, indexPath(p, i))
			if err != nil {
				return "", err
			}

			parts = append(parts, s)
		}

		return strings.Join(parts, "\n"), nil
	}

	return toScalar(v, p)
}

func toScalar(v interface{}, p string) (string, error) {
	switch v.(type) {
	case map[string]interface{}, []interface{}, nil:
		return "", &ValidationError{Path: p, Reason: "must be text"}
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return "", &ValidationError{Path: p, Reason: "must be text"}
	}

	return s, nil
}

func toStrings(v interface{}, p string) (values []string, err error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, &ValidationError{Path: p, Reason: "must be a list of text values"}
	}

	values = make([]string, 0, len(list))
	for i, item := range list {
		s, err := toScalar(item, indexPath(p, i))
		if err != nil {
			return nil, err
		}

		values = append(values, s)
	}

	return values, nil
}

func unknownKey(p string) error {
	return &ValidationError{Path: p, Reason: "unknown key"}
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}
