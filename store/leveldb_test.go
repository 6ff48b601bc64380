package store_test

import (
	"github.com/bugcenter/helpscot/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"testing"
)

func TestNewLevelDBWithInvalidPath(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "example")
	require.NoError(t, err)

	defer os.Remove(tmpfile.Name())

	_, err = store.NewLevelDB("test", tmpfile.Name())
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to open")
	}
}

func TestNewLevelDB(t *testing.T) {
	ldb, err := store.NewLevelDB("test", t.TempDir())
	require.NoError(t, err)
	defer ldb.Close()

	assert.Equal(t, "test", ldb.Name)
}

func TestGetAfterCloseShouldResultInError(t *testing.T) {
	ldb, err := store.NewLevelDB("test", t.TempDir())
	require.NoError(t, err)

	ldb.Close()
	_, err = ldb.GetString("revision")

	assert.Error(t, err)
}

func TestGetMissingKey(t *testing.T) {
	ldb, err := store.NewLevelDB("test", t.TempDir())
	require.NoError(t, err)
	defer ldb.Close()

	_, err = ldb.GetString("revision")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to get [revision] from [test]")
	}
}

func TestPutGetDeleteScan(t *testing.T) {
	var s store.StringStorer

	s, err := store.NewLevelDB("test", t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.PutString("doc/python/basics.toml", "name = \"basics\""))
	require.NoError(t, s.PutString("revision", "8c1f2a9"))

	v, err := s.GetString("revision")
	assert.NoError(t, err)
	assert.Equal(t, "8c1f2a9", v)

	entries, err := s.Scan()
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"doc/python/basics.toml": "name = \"basics\"", "revision": "8c1f2a9"}, entries)

	require.NoError(t, s.DeleteString("revision"))
	require.NoError(t, s.DeleteString("unknown"))

	entries, err = s.Scan()
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"doc/python/basics.toml": "name = \"basics\""}, entries)
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()

	ldb, err := store.NewLevelDB("tagger", dir)
	require.NoError(t, err)
	require.NoError(t, ldb.PutString("revision", "abc"))
	require.NoError(t, ldb.Close())

	ldb, err = store.NewLevelDB("tagger", dir)
	require.NoError(t, err)
	defer ldb.Close()

	v, err := ldb.GetString("revision")
	assert.NoError(t, err)
	assert.Equal(t, "abc", v)
}
