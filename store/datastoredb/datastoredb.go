package datastoredb

import (
	"cloud.google.com/go/datastore"
	"context"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"sync"
)

const (
	connectivityKey = "testConnectivity"
)

// DatastoreDB implements the store.StringStorer interface. The name given at creation maps
// to the datastore entity Kind so that different users of the same project don't see each
// other's entries.
//
// A failed call is retried once on a fresh client
type DatastoreDB struct {
	kind string

	mu sync.Mutex
	datastorer
}

// EntryValue is the entity stored for each key
type EntryValue struct {
	Value string `datastore:",noindex"`
}

// New returns a DatastoreDB for the given name (the entity kind) in the gcloud project.
// Client options usually carry the credentials
func New(name string, gcloudProjectID string, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	return newWithDatastorer(name, &gcdatastore{gcloudProjectID: gcloudProjectID, gcloudClientOpts: gcloudClientOpts})
}

func newWithDatastorer(name string, ds datastorer) (dsdb *DatastoreDB, err error) {
	dsdb = new(DatastoreDB)
	dsdb.kind = name
	dsdb.datastorer = ds

	if err = ds.connect(context.Background()); err != nil {
		return nil, err
	}

	if err = dsdb.testDB(); err != nil {
		dsdb.Close()
		return nil, err
	}

	return dsdb, nil
}

// testDB makes a lightweight call to validate connectivity and credentials
func (dsdb *DatastoreDB) testDB() (err error) {
	_, err = dsdb.GetString(connectivityKey)
	if err != nil && errors.Cause(err) != datastore.ErrNoSuchEntity {
		return err
	}

	return nil
}

// withRetry runs op and, if it fails with something other than a missing entity, reconnects
// and runs it one more time
func (dsdb *DatastoreDB) withRetry(op func(ctx context.Context) error) (err error) {
	dsdb.mu.Lock()
	defer dsdb.mu.Unlock()

	ctx := context.Background()

	err = op(ctx)
	if err == nil || err == datastore.ErrNoSuchEntity {
		return err
	}

	if cerr := dsdb.connect(ctx); cerr != nil {
		return errors.Wrapf(err, "reconnect to datastore failed [%s]", cerr.Error())
	}

	return op(ctx)
}

// GetString returns the value associated to a given key
func (dsdb *DatastoreDB) GetString(key string) (value string, err error) {
	var e EntryValue
	k := datastore.NameKey(dsdb.kind, key, nil)

	err = dsdb.withRetry(func(ctx context.Context) error {
		return dsdb.Get(ctx, k, &e)
	})
	if err != nil {
		return "", err
	}

	return e.Value, nil
}

// PutString stores the key/value
func (dsdb *DatastoreDB) PutString(key string, value string) (err error) {
	k := datastore.NameKey(dsdb.kind, key, nil)

	return dsdb.withRetry(func(ctx context.Context) error {
		_, err := dsdb.Put(ctx, k, &EntryValue{Value: value})
		return err
	})
}

// DeleteString deletes the entry for the given key
func (dsdb *DatastoreDB) DeleteString(key string) (err error) {
	k := datastore.NameKey(dsdb.kind, key, nil)

	return dsdb.withRetry(func(ctx context.Context) error {
		return dsdb.Delete(ctx, k)
	})
}

// Scan returns all key/values of this DatastoreDB's kind
func (dsdb *DatastoreDB) Scan() (entries map[string]string, err error) {
	var keys []*datastore.Key
	var vals []*EntryValue

	err = dsdb.withRetry(func(ctx context.Context) (err error) {
		vals = nil
		keys, err = dsdb.GetAll(ctx, datastore.NewQuery(dsdb.kind), &vals)
		return err
	})
	if err != nil {
		return nil, err
	}

	entries = make(map[string]string, len(keys))
	for i, key := range keys {
		entries[key.Name] = vals[i].Value
	}

	return entries, nil
}
