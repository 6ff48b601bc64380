package docsearch_test

import (
	"context"
	"fmt"
	"github.com/bugcenter/helpscot/docsearch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
)

const searchResponse = `{
	"count": 2,
	"results": [
		{
			"project": "discordpy", "title": "API Reference", "domain": "https://discordpy.readthedocs.io", "path": "/en/latest/api.html",
			"blocks": [
				{"id": "discord.Client", "title": "Client", "content": "Represents a client connection", "highlights": {"title": [], "content": ["Represents a <span>client</span> connection"]}}
			]
		}
	]
}`

const projectsPage = `<html><body><div id="content"><div class="module-list"><ul>
	<li class="module-item"><p class="module-item-title"><a href="/projects/discordpy/">discordpy (3 results)</a></p></li>
	<li class="module-item"><p class="module-item-title"><a href="/projects/discord-py-slash/">discord-py-slash</a></p></li>
</ul></div></div></body></html>`

func newReadTheDocsServer(t *testing.T) (ts *httptest.Server) {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v2/search/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "client", r.URL.Query().Get("q"))
		assert.Equal(t, "latest", r.URL.Query().Get("version"))

		if r.URL.Query().Get("project") != "discordpy" {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		fmt.Fprint(w, searchResponse)
	})

	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "project", r.URL.Query().Get("type"))
		assert.Equal(t, "discord", r.URL.Query().Get("q"))
		fmt.Fprint(w, projectsPage)
	})

	ts = httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return ts
}

func newTestClient(ts *httptest.Server) *docsearch.Client {
	return docsearch.New(docsearch.OptionBaseURL(ts.URL), docsearch.OptionHTTPClient(ts.Client()))
}

func TestSearch(t *testing.T) {
	c := newTestClient(newReadTheDocsServer(t))

	r, err := c.Search(context.Background(), "discordpy", "client")
	require.NoError(t, err)

	assert.Equal(t, 2, r.Count)
	require.Len(t, r.Results, 1)
	require.Len(t, r.Results[0].Blocks, 1)
	assert.Equal(t, "https://discordpy.readthedocs.io/en/latest/api.html?highlight=client#discord.Client", r.Results[0].URL("client", r.Results[0].Blocks[0].ID))
}

func TestSearchFailure(t *testing.T) {
	c := newTestClient(newReadTheDocsServer(t))

	_, err := c.Search(context.Background(), "unknown", "client")
	assert.EqualError(t, err, "failed to search [client] in [unknown]: unexpected status [404]")
}

func TestProjects(t *testing.T) {
	c := newTestClient(newReadTheDocsServer(t))

	projects, err := c.Projects(context.Background(), "discord")
	require.NoError(t, err)

	assert.Equal(t, []string{"discordpy", "discord-py-slash"}, projects)
}

func TestToMarkdown(t *testing.T) {
	assert.Equal(t, "Represents a *client* connection", docsearch.ToMarkdown("Represents a <span>client</span>\n connection"))
	assert.Equal(t, "plain text", docsearch.ToMarkdown("plain text"))
}
