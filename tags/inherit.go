package tags

import (
	"errors"
)

// Placeholder is the value that, in any entry but the first of a document, stands for
// the value found at the same path in the first entry
const Placeholder = "*"

// ErrBrokenReference is the cause of a ValidationError for a placeholder that has no
// value to inherit from
var ErrBrokenReference = errors.New("placeholder refers to a missing value")

// Inherit resolves placeholders of a document's entries against its first entry. Tables
// are matched by key and lists by index. The first entry (and the only entry of a single
// tag document) is never resolved so a literal "*" stays as is there. The input entries
// are left untouched
func Inherit(entries []map[string]interface{}) (resolved []map[string]interface{}, err error) {
	resolved = make([]map[string]interface{}, 0, len(entries))

	for i, e := range entries {
		if i == 0 {
			resolved = append(resolved, deepCopy(e).(map[string]interface{}))
			continue
		}

		r, err := inherit(e, entries[0], true, entryPath(len(entries), i))
		if err != nil {
			return nil, err
		}

		resolved = append(resolved, r.(map[string]interface{}))
	}

	return resolved, nil
}

// inherit returns a copy of v with placeholders replaced by their value in ref. hasRef
// indicates whether the reference value exists at this path
func inherit(v interface{}, ref interface{}, hasRef bool, p string) (interface{}, error) {
	switch val := v.(type) {
	case string:
		if val != Placeholder {
			return val, nil
		}

		if !hasRef {
			return nil, &ValidationError{Path: p, Reason: ErrBrokenReference.Error(), Err: ErrBrokenReference}
		}

		return deepCopy(ref), nil

	case map[string]interface{}:
		refMap, _ := ref.(map[string]interface{})

		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			refSub, ok := refMap[k]
			r, err := inherit(sub, refSub, ok, keyPath(p, k))
			if err != nil {
				return nil, err
			}

			out[k] = r
		}

		return out, nil

	case []interface{}:
		refList, _ := ref.([]interface{})

		out := make([]interface{}, 0, len(val))
		for i, sub := range val {
			var refSub interface{}
			ok := i < len(refList)
			if ok {
				refSub = refList[i]
			}

			r, err := inherit(sub, refSub, ok, indexPath(p, i))
			if err != nil {
				return nil, err
			}

			out = append(out, r)
		}

		return out, nil
	}

	return v, nil
}

func deepCopy(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, sub := range val {
			out[k] = deepCopy(sub)
		}

		return out

	case []interface{}:
		out := make([]interface{}, 0, len(val))
		for _, sub := range val {
			out = append(out, deepCopy(sub))
		}

		return out
	}

	return v
}

// entryPath returns the path prefix of the entry at index i of a document with count entries
func entryPath(count int, i int) string {
	if count < 2 {
		return ""
	}

	return indexPath("", i)
}
