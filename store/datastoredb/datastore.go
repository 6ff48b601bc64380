package datastoredb

import (
	"cloud.google.com/go/datastore"
	"context"
	"google.golang.org/api/option"
	"io"
)

// gcdatastore wraps a google cloud datastore client and remembers how it was created so that
// it can be recreated after a failure
type gcdatastore struct {
	client           *datastore.Client
	gcloudProjectID  string
	gcloudClientOpts []option.ClientOption
}

// datastorer is the subset of the datastore client used by DatastoreDB plus the ability
// to (re)connect
type datastorer interface {
	io.Closer
	connect(ctx context.Context) (err error)
	Delete(ctx context.Context, k *datastore.Key) (err error)
	Get(ctx context.Context, k *datastore.Key, dest interface{}) (err error)
	GetAll(ctx context.Context, q *datastore.Query, dest interface{}) (keys []*datastore.Key, err error)
	Put(ctx context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error)
}

// connect creates a new client. Options such as option.WithCredentialsFile are evaluated again
// on every connect so rotated credentials get picked up
func (ds *gcdatastore) connect(ctx context.Context) (err error) {
	client, err := datastore.NewClient(ctx, ds.gcloudProjectID, ds.gcloudClientOpts...)
	if err != nil {
		return err
	}

	if ds.client != nil {
		ds.client.Close()
	}

	ds.client = client
	return nil
}

func (ds *gcdatastore) Close() (err error) {
	if ds.client == nil {
		return nil
	}

	return ds.client.Close()
}

func (ds *gcdatastore) Delete(ctx context.Context, k *datastore.Key) (err error) {
	return ds.client.Delete(ctx, k)
}

func (ds *gcdatastore) Get(ctx context.Context, k *datastore.Key, dest interface{}) (err error) {
	return ds.client.Get(ctx, k, dest)
}

func (ds *gcdatastore) GetAll(ctx context.Context, q *datastore.Query, dest interface{}) (keys []*datastore.Key, err error) {
	return ds.client.GetAll(ctx, q, dest)
}

func (ds *gcdatastore) Put(ctx context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error) {
	return ds.client.Put(ctx, k, v)
}
