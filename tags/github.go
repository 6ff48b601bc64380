package tags

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	defaultGitHubAPIURL      = "https://api.github.com"
	defaultRequestsPerSecond = 5
	defaultRequestTimeout    = 30 * time.Second

	contentTypeDir  = "dir"
	contentTypeFile = "file"
)

// DocumentRef references a document of a category at a revision
type DocumentRef struct {
	Category    string
	Name        string
	Path        string
	DownloadURL string
}

// Source is a remote repository of tag documents. Categories and documents are always listed at
// a given revision so that a refresh sees a consistent state of the repository
type Source interface {
	// LatestRevision returns the marker of the latest revision of the repository
	LatestRevision(ctx context.Context) (revision string, err error)

	// Categories returns the category names at a revision
	Categories(ctx context.Context, revision string) (categories []string, err error)

	// Documents returns the documents of a category at a revision
	Documents(ctx context.Context, category string, revision string) (refs []DocumentRef, err error)

	// Fetch returns the raw content of a document
	Fetch(ctx context.Context, ref DocumentRef) (data []byte, err error)
}

// GitHubSource is a Source backed by a GitHub repository where each directory under the root
// path is a category
type GitHubSource struct {
	client     *http.Client
	baseURL    string
	repository string
	root       string
	token      string
	limiter    *rate.Limiter
}

// GitHubOption defines an option for a GitHubSource
type GitHubOption func(*GitHubSource)

// OptionBaseURL sets the base URL of the GitHub API
func OptionBaseURL(baseURL string) func(*GitHubSource) {
	return func(gs *GitHubSource) {
		gs.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// OptionToken sets the token authenticating requests to GitHub
func OptionToken(token string) func(*GitHubSource) {
	return func(gs *GitHubSource) {
		gs.token = token
	}
}

// OptionRoot sets the path of the directory holding the categories
func OptionRoot(root string) func(*GitHubSource) {
	return func(gs *GitHubSource) {
		gs.root = strings.Trim(root, "/")
	}
}

// OptionHTTPClient sets the http client
func OptionHTTPClient(client *http.Client) func(*GitHubSource) {
	return func(gs *GitHubSource) {
		gs.client = client
	}
}

// OptionRequestsPerSecond limits the rate of requests sent to GitHub
func OptionRequestsPerSecond(rps float64) func(*GitHubSource) {
	return func(gs *GitHubSource) {
		gs.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewGitHubSource returns a new GitHubSource for a repository (owner/name)
func NewGitHubSource(repository string, options ...GitHubOption) (gs *GitHubSource) {
	gs = new(GitHubSource)
	gs.repository = repository
	gs.baseURL = defaultGitHubAPIURL
	gs.client = &http.Client{Timeout: defaultRequestTimeout}
	gs.limiter = rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), 1)

	for _, opt := range options {
		opt(gs)
	}

	return gs
}

type commit struct {
	SHA string `json:"sha"`
}

type content struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

// LatestRevision returns the sha of the most recent commit
func (gs *GitHubSource) LatestRevision(ctx context.Context) (revision string, err error) {
	var commits []commit
	if err = gs.getJSON(ctx, fmt.Sprintf("%s/repos/%s/commits?per_page=1", gs.baseURL, gs.repository), &commits); err != nil {
		return "", errors.Wrapf(err, "failed to get latest revision of [%s]", gs.repository)
	}

	if len(commits) == 0 || commits[0].SHA == "" {
		return "", fmt.Errorf("no commit found in [%s]", gs.repository)
	}

	return commits[0].SHA, nil
}

// Categories returns the names of the directories under the root path
func (gs *GitHubSource) Categories(ctx context.Context, revision string) (categories []string, err error) {
	contents, err := gs.listContents(ctx, gs.root, revision)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list categories at [%s]", revision)
	}

	categories = make([]string, 0)
	for _, c := range contents {
		if c.Type == contentTypeDir {
			categories = append(categories, c.Name)
		}
	}

	sort.Strings(categories)
	return categories, nil
}

// Documents returns the supported documents of a category directory, sorted by name
func (gs *GitHubSource) Documents(ctx context.Context, category string, revision string) (refs []DocumentRef, err error) {
	contents, err := gs.listContents(ctx, joinPath(gs.root, category), revision)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list documents of [%s] at [%s]", category, revision)
	}

	refs = make([]DocumentRef, 0)
	for _, c := range contents {
		if c.Type == contentTypeFile && SupportedDocument(c.Name) {
			refs = append(refs, DocumentRef{Category: category, Name: c.Name, Path: c.Path, DownloadURL: c.DownloadURL})
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		return refs[i].Name < refs[j].Name
	})

	return refs, nil
}

// Fetch downloads the raw content of a document
func (gs *GitHubSource) Fetch(ctx context.Context, ref DocumentRef) (data []byte, err error) {
	resp, err := gs.get(ctx, ref.DownloadURL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch [%s]", ref.Path)
	}
	defer resp.Body.Close()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read [%s]", ref.Path)
	}

	return data, nil
}

func (gs *GitHubSource) listContents(ctx context.Context, p string, revision string) (contents []content, err error) {
	u := fmt.Sprintf("%s/repos/%s/contents/%s?ref=%s", gs.baseURL, gs.repository, p, url.QueryEscape(revision))

	err = gs.getJSON(ctx, u, &contents)
	return contents, err
}

func (gs *GitHubSource) getJSON(ctx context.Context, u string, v interface{}) (err error) {
	resp, err := gs.get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err = json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Wrapf(err, "invalid response from [%s]", u)
	}

	return nil
}

// get sends a rate limited GET request and returns the response if its status is 200
func (gs *GitHubSource) get(ctx context.Context, u string) (resp *http.Response, err error) {
	if err = gs.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	if gs.token != "" {
		req.Header.Set("Authorization", "token "+gs.token)
	}

	resp, err = gs.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status [%d] from [%s]", resp.StatusCode, u)
	}

	return resp, nil
}

func joinPath(root string, p string) string {
	if root == "" {
		return p
	}

	return root + "/" + p
}
