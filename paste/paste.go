// Package paste creates and deletes public pastes on GitHub gists
package paste

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/pkg/errors"
	"net/http"
	"strings"
	"time"
)

const (
	defaultGitHubAPIURL   = "https://api.github.com"
	defaultRequestTimeout = 30 * time.Second
)

// ErrNotFound is returned when deleting a paste that doesn't exist (anymore)
var ErrNotFound = errors.New("paste not found")

// Paste is a created paste
type Paste struct {
	ID  string
	URL string
}

// Paster is implemented by any value that can create and delete pastes
type Paster interface {
	Create(ctx context.Context, filename string, content string) (p Paste, err error)
	Delete(ctx context.Context, id string) (err error)
}

// GistClient is a Paster creating public gists
type GistClient struct {
	client  *http.Client
	baseURL string
	token   string
}

// Option defines an option for a GistClient
type Option func(*GistClient)

// OptionBaseURL sets the base URL of the GitHub API
func OptionBaseURL(baseURL string) func(*GistClient) {
	return func(gc *GistClient) {
		gc.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// OptionHTTPClient sets the http client
func OptionHTTPClient(client *http.Client) func(*GistClient) {
	return func(gc *GistClient) {
		gc.client = client
	}
}

// NewGistClient returns a new GistClient authenticated with token
func NewGistClient(token string, options ...Option) (gc *GistClient) {
	gc = new(GistClient)
	gc.token = token
	gc.baseURL = defaultGitHubAPIURL
	gc.client = &http.Client{Timeout: defaultRequestTimeout}

	for _, opt := range options {
		opt(gc)
	}

	return gc
}

type gistFile struct {
	Content string `json:"content"`
}

type gistRequest struct {
	Files  map[string]gistFile `json:"files"`
	Public bool                `json:"public"`
}

type gistResponse struct {
	ID      string `json:"id"`
	HTMLURL string `json:"html_url"`
}

// Create creates a public gist holding a single file
func (gc *GistClient) Create(ctx context.Context, filename string, content string) (p Paste, err error) {
	body, err := json.Marshal(gistRequest{Files: map[string]gistFile{filename: {Content: content}}, Public: true})
	if err != nil {
		return p, err
	}

	resp, err := gc.do(ctx, http.MethodPost, gc.baseURL+"/gists", body)
	if err != nil {
		return p, errors.Wrapf(err, "failed to create gist [%s]", filename)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return p, fmt.Errorf("failed to create gist [%s]: unexpected status [%d]", filename, resp.StatusCode)
	}

	var gr gistResponse
	if err = json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return p, errors.Wrap(err, "invalid gist creation response")
	}

	if gr.HTMLURL == "" {
		return p, fmt.Errorf("failed to create gist [%s]: missing url in response", filename)
	}

	return Paste{ID: gr.ID, URL: gr.HTMLURL}, nil
}

// Delete deletes a gist. It returns ErrNotFound if the gist doesn't exist
func (gc *GistClient) Delete(ctx context.Context, id string) (err error) {
	resp, err := gc.do(ctx, http.MethodDelete, fmt.Sprintf("%s/gists/%s", gc.baseURL, id), nil)
	if err != nil {
		return errors.Wrapf(err, "failed to delete gist [%s]", id)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusOK:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("failed to delete gist [%s]: unexpected status [%d]", id, resp.StatusCode)
	}
}

func (gc *GistClient) do(ctx context.Context, method string, u string, body []byte) (resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+gc.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return gc.client.Do(req)
}
