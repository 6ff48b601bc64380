package store

import (
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"path/filepath"
)

// LevelDB is a StringStorer backed by a leveldb database stored in a directory named after
// the storer
type LevelDB struct {
	Name     string
	database *leveldb.DB
}

// NewLevelDB opens the leveldb database for name under storagePath, creating it if it doesn't exist.
// A storagePath starting with ~ is expanded to the home directory
func NewLevelDB(name string, storagePath string) (ldb *LevelDB, err error) {
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err := leveldb.OpenFile(fullPath, nil)

	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return nil, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and restarting if you don't mind losing data", fullPath))
	} else if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	return &LevelDB{Name: name, database: db}, nil
}

// Close closes the database
func (ldb *LevelDB) Close() (err error) {
	return ldb.database.Close()
}

// GetString returns the value associated to the key
func (ldb *LevelDB) GetString(key string) (value string, err error) {
	data, err := ldb.database.Get([]byte(key), nil)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get [%s] from [%s]", key, ldb.Name)
	}

	return string(data), nil
}

// PutString adds or updates the value associated to the key
func (ldb *LevelDB) PutString(key string, value string) (err error) {
	return ldb.database.Put([]byte(key), []byte(value), nil)
}

// DeleteString deletes the entry for the key. Deleting a key that doesn't exist isn't an error
func (ldb *LevelDB) DeleteString(key string) (err error) {
	return ldb.database.Delete([]byte(key), nil)
}

// Scan returns all entries of the database
func (ldb *LevelDB) Scan() (entries map[string]string, err error) {
	entries = make(map[string]string)

	iter := ldb.database.NewIterator(nil, nil)
	for iter.Next() {
		entries[string(iter.Key())] = string(iter.Value())
	}

	iter.Release()
	if err = iter.Error(); err != nil {
		return nil, err
	}

	return entries, nil
}
