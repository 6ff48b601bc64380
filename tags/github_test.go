package tags_test

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot/tags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newGitHubServer(t *testing.T) (ts *httptest.Server) {
	mux := http.NewServeMux()

	mux.HandleFunc("/repos/bugcenter/tags/commits", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.Equal(t, "token s3cr3t", r.Header.Get("Authorization"))
		fmt.Fprint(w, `[{"sha": "8c1f2a9d0e"}]`)
	})

	mux.HandleFunc("/repos/bugcenter/tags/contents/src", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "8c1f2a9d0e", r.URL.Query().Get("ref"))
		fmt.Fprint(w, `[
			{"name": "python", "path": "src/python", "type": "dir"},
			{"name": "README.md", "path": "src/README.md", "type": "file"},
			{"name": "discord", "path": "src/discord", "type": "dir"}
		]`)
	})

	mux.HandleFunc("/repos/bugcenter/tags/contents/src/python", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"name": "venv.json", "path": "src/python/venv.json", "type": "file", "download_url": "%[1]s/raw/src/python/venv.json"},
			{"name": "basics.toml", "path": "src/python/basics.toml", "type": "file", "download_url": "%[1]s/raw/src/python/basics.toml"},
			{"name": "notes.txt", "path": "src/python/notes.txt", "type": "file", "download_url": "%[1]s/raw/src/python/notes.txt"},
			{"name": "drafts", "path": "src/python/drafts", "type": "dir"}
		]`, ts.URL)
	})

	mux.HandleFunc("/repos/bugcenter/tags/contents/src/broken", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	mux.HandleFunc("/raw/src/python/basics.toml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, basicsTOML)
	})

	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

func newTestGitHubSource(ts *httptest.Server) *tags.GitHubSource {
	return tags.NewGitHubSource("bugcenter/tags", tags.OptionBaseURL(ts.URL), tags.OptionToken("s3cr3t"), tags.OptionRoot("src"),
		tags.OptionHTTPClient(ts.Client()), tags.OptionRequestsPerSecond(1000))
}

func TestGitHubSourceLatestRevision(t *testing.T) {
	gs := newTestGitHubSource(newGitHubServer(t))

	rev, err := gs.LatestRevision(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8c1f2a9d0e", rev)
}

func TestGitHubSourceCategoriesAreDirectories(t *testing.T) {
	gs := newTestGitHubSource(newGitHubServer(t))

	categories, err := gs.Categories(context.Background(), "8c1f2a9d0e")
	require.NoError(t, err)

	assert.Equal(t, []string{"discord", "python"}, categories)
}

func TestGitHubSourceDocumentsAreSupportedFiles(t *testing.T) {
	ts := newGitHubServer(t)
	gs := newTestGitHubSource(ts)

	refs, err := gs.Documents(context.Background(), "python", "8c1f2a9d0e")
	require.NoError(t, err)

	if assert.Len(t, refs, 2) {
		assert.Equal(t, tags.DocumentRef{Category: "python", Name: "basics.toml", Path: "src/python/basics.toml", DownloadURL: ts.URL + "/raw/src/python/basics.toml"}, refs[0])
		assert.Equal(t, "venv.json", refs[1].Name)
	}

	data, err := gs.Fetch(context.Background(), refs[0])
	require.NoError(t, err)
	assert.Equal(t, basicsTOML, string(data))

	_, err = gs.Fetch(context.Background(), refs[1])
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to fetch [src/python/venv.json]: unexpected status [404]")
	}
}

func TestGitHubSourceListingError(t *testing.T) {
	gs := newTestGitHubSource(newGitHubServer(t))

	_, err := gs.Documents(context.Background(), "broken", "8c1f2a9d0e")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to list documents of [broken] at [8c1f2a9d0e]")
		assert.Contains(t, err.Error(), "unexpected status [403]")
	}
}

func TestGitHubSourceNoCommit(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}))
	defer ts.Close()

	gs := tags.NewGitHubSource("bugcenter/empty", tags.OptionBaseURL(ts.URL))

	_, err := gs.LatestRevision(context.Background())
	assert.EqualError(t, err, "no commit found in [bugcenter/empty]")
}

func TestGitHubSourceHonorsContext(t *testing.T) {
	gs := newTestGitHubSource(newGitHubServer(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gs.LatestRevision(ctx)
	assert.Error(t, err)
}
