/*
Package datastoredb provides a store.StringStorer backed by the Google Cloud Datastore. It lets
the tag catalogue snapshot survive restarts of a bot running without a local disk.

Requirements:
  - A project id with datastore mode enabled
  - Google Cloud credentials, usually a service account json file

Example:

	snapshotStorer, err := datastoredb.New("tagger", "helpscot-prod", option.WithCredentialsFile(credentialsPath))
	if err != nil {
		log.Fatalf("Opening [tagger] datastore failed: %s", err.Error())
	}
	defer snapshotStorer.Close()
*/
package datastoredb
