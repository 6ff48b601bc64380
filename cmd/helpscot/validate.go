package main

import (
	"fmt"
	"github.com/bugcenter/helpscot/tags"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// validate loads every document under dir the way a refresh would and prints the errors found along
// with a summary. It returns the number of errors
func validate(dir string, out io.Writer) (failed int, err error) {
	root, err := homedir.Expand(dir)
	if err != nil {
		return 0, err
	}

	categories, raws, err := readRepository(root)
	if err != nil {
		return 0, err
	}

	byCategory, loaded, errs := tags.Build(categories, raws)

	for _, e := range errs {
		fmt.Fprintf(out, "✗ %v\n", e)
	}

	count := 0
	for _, c := range categories {
		count += len(byCategory[c])
	}

	fmt.Fprintf(out, "[%d] categories, [%d/%d] document(s) loaded, [%d] tag(s), [%d] error(s)\n", len(categories), loaded, len(raws), count, len(errs))

	return len(errs), nil
}

// readRepository reads the documents of a checkout laid out as <root>/<category>/<document>
func readRepository(root string) (categories []string, raws []tags.RawDocument, err error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to read [%s]", root)
	}

	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}

		category := e.Name()
		categories = append(categories, category)

		files, err := os.ReadDir(filepath.Join(root, category))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to read category [%s]", category)
		}

		for _, f := range files {
			if f.IsDir() || !tags.SupportedDocument(f.Name()) {
				continue
			}

			p := filepath.Join(root, category, f.Name())
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "failed to read [%s]", p)
			}

			raws = append(raws, tags.RawDocument{Ref: tags.DocumentRef{Category: category, Name: f.Name(), Path: filepath.ToSlash(filepath.Join(category, f.Name()))}, Data: data})
		}
	}

	sort.Strings(categories)

	return categories, raws, nil
}
