/*
Package inmemorydb provides an implementation of github.com/bugcenter/helpscot/store's StringStorer interface
as an in-memory data store relying on a wrapping StringStorer for actual persistence.

The main use-case for the inmemorydb is to shield the real StringStorer implementation from receiving too many calls.
Restoring the tag snapshot reads every document on startup and a remote store such as datastoredb makes that slow.
Reads are served from memory while writes go through to the wrapped storer.

Requirements for the Google Cloud Datastore integration:
  - A valid project id with datastore mode enabled
  - Google Cloud Credentials (typically in the form of a json file with credentials from https://console.cloud.google.com/apis/credentials/serviceaccountkey)

Example code:

	import (
		"github.com/bugcenter/helpscot/plugins"
		"github.com/bugcenter/helpscot/store/datastoredb"
		"github.com/bugcenter/helpscot/store/inmemorydb"
		"google.golang.org/api/option"
	)

	func main() {
		// Create your persistent storer first
		persistentStorer, err := datastoredb.New(plugins.TaggerPluginName, "bugcenter", option.WithCredentialsFile(*gcloudCredentialsFile))
		if err != nil {
			log.Fatalf("Opening [%s] db failed: %s", plugins.TaggerPluginName, err.Error())
		}

		// Create the inmemorydb
		tagsStorer, err := inmemorydb.New(persistentStorer)
		if err != nil {
			log.Fatalf("Opening creating in-memory db wrapper: %s", err.Error())
		}

		// The tagger closes the storer when closed
		closer, tagger, err := plugins.NewTagger(pluginConfig, tagsStorer)

		// Run your instance
		...
	}
*/
package inmemorydb
