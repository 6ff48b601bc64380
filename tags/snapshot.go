package tags

import (
	"github.com/bugcenter/helpscot/store"
	"github.com/pkg/errors"
	"sort"
	"strings"
)

const (
	revisionKey   = "revision"
	categoriesKey = "categories"
	docKeyPrefix  = "doc/"
)

// Snapshotter persists the raw documents of the last refresh to a StringStorer so that a restarted
// bot can serve tags before its first refresh completes. It implements Persister
type Snapshotter struct {
	storer store.StringStorer
}

// NewSnapshotter returns a new Snapshotter saving to storer
func NewSnapshotter(storer store.StringStorer) (s *Snapshotter) {
	return &Snapshotter{storer: storer}
}

func docKey(ref DocumentRef) string {
	return docKeyPrefix + ref.Category + "/" + ref.Name
}

// Save writes the documents and categories of a refresh. Documents from an earlier refresh that
// are no longer present get deleted. The revision is written last so that an interrupted save
// leaves the previous revision in place
func (s *Snapshotter) Save(revision string, categories []string, docs []RawDocument) (err error) {
	existing, err := s.storer.Scan()
	if err != nil {
		return errors.Wrap(err, "failed to scan snapshot")
	}

	current := make(map[string]bool, len(docs))
	for _, d := range docs {
		k := docKey(d.Ref)
		current[k] = true

		if err = s.storer.PutString(k, string(d.Data)); err != nil {
			return errors.Wrapf(err, "failed to save [%s]", k)
		}
	}

	for k := range existing {
		if strings.HasPrefix(k, docKeyPrefix) && !current[k] {
			if err = s.storer.DeleteString(k); err != nil {
				return errors.Wrapf(err, "failed to delete [%s]", k)
			}
		}
	}

	if err = s.storer.PutString(categoriesKey, strings.Join(categories, "\n")); err != nil {
		return errors.Wrap(err, "failed to save categories")
	}

	return errors.Wrap(s.storer.PutString(revisionKey, revision), "failed to save revision")
}

// Restore rebuilds the catalogue of st from the saved documents. It returns false when nothing
// was saved yet
func (s *Snapshotter) Restore(st *Store) (restored bool, errs []error, err error) {
	entries, err := s.storer.Scan()
	if err != nil {
		return false, nil, errors.Wrap(err, "failed to scan snapshot")
	}

	revision, ok := entries[revisionKey]
	if !ok || revision == "" {
		return false, nil, nil
	}

	var categories []string
	if c := entries[categoriesKey]; c != "" {
		categories = strings.Split(c, "\n")
	}

	raws := make([]RawDocument, 0)
	for k, v := range entries {
		if !strings.HasPrefix(k, docKeyPrefix) {
			continue
		}

		parts := strings.SplitN(strings.TrimPrefix(k, docKeyPrefix), "/", 2)
		if len(parts) != 2 {
			continue
		}

		raws = append(raws, RawDocument{Ref: DocumentRef{Category: parts[0], Name: parts[1], Path: parts[0] + "/" + parts[1]}, Data: []byte(v)})
	}

	// Documents are parsed in name order, the same as when listed from the source
	sort.Slice(raws, func(i, j int) bool {
		return raws[i].Ref.Path < raws[j].Ref.Path
	})

	byCategory, _, errs := Build(categories, raws)
	st.Rebuild(revision, byCategory)

	return true, errs, nil
}
