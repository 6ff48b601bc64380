// Package docsearch searches documentations hosted on readthedocs
package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL        = "https://readthedocs.org"
	defaultRequestTimeout = 15 * time.Second
	defaultVersion        = "latest"

	projectSelector = ".module-list li p.module-item-title > a"
)

// Block is a section of a page matching a search
type Block struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	Highlights Highlights `json:"highlights"`
}

// Highlights hold html fragments of the matching parts of a result, where matches are wrapped in spans
type Highlights struct {
	Title   []string `json:"title"`
	Content []string `json:"content"`
}

// Result is a page matching a search
type Result struct {
	Project string  `json:"project"`
	Title   string  `json:"title"`
	Domain  string  `json:"domain"`
	Path    string  `json:"path"`
	Blocks  []Block `json:"blocks"`
}

// URL returns the link to a result, pointing at the block with blockID when not empty
func (r Result) URL(query string, blockID string) string {
	u := fmt.Sprintf("%s%s?highlight=%s", r.Domain, r.Path, url.QueryEscape(query))
	if blockID != "" {
		u = fmt.Sprintf("%s#%s", u, blockID)
	}

	return u
}

// Results are the results of a search
type Results struct {
	Count   int      `json:"count"`
	Results []Result `json:"results"`
}

// Searcher is implemented by any value that can search documentations and their projects
type Searcher interface {
	Search(ctx context.Context, project string, query string) (r Results, err error)
	Projects(ctx context.Context, term string) (projects []string, err error)
}

// Client is a Searcher backed by readthedocs
type Client struct {
	client  *http.Client
	baseURL string
	version string
}

// Option defines an option for a Client
type Option func(*Client)

// OptionBaseURL sets the base URL of readthedocs
func OptionBaseURL(baseURL string) func(*Client) {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// OptionHTTPClient sets the http client
func OptionHTTPClient(client *http.Client) func(*Client) {
	return func(c *Client) {
		c.client = client
	}
}

// OptionVersion sets the version of documentations to search
func OptionVersion(version string) func(*Client) {
	return func(c *Client) {
		c.version = version
	}
}

// New returns a new Client
func New(options ...Option) (c *Client) {
	c = new(Client)
	c.baseURL = defaultBaseURL
	c.version = defaultVersion
	c.client = &http.Client{Timeout: defaultRequestTimeout}

	for _, opt := range options {
		opt(c)
	}

	return c
}

// Search searches the documentation of a project
func (c *Client) Search(ctx context.Context, project string, query string) (r Results, err error) {
	params := url.Values{"q": {query}, "project": {project}, "version": {c.version}}

	resp, err := c.get(ctx, fmt.Sprintf("%s/api/v2/search/?%s", c.baseURL, params.Encode()))
	if err != nil {
		return r, errors.Wrapf(err, "failed to search [%s] in [%s]", query, project)
	}
	defer resp.Body.Close()

	if err = json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return r, errors.Wrap(err, "invalid search response")
	}

	return r, nil
}

// Projects returns the names of projects matching term, scraped from the project search page
func (c *Client) Projects(ctx context.Context, term string) (projects []string, err error) {
	params := url.Values{"type": {"project"}, "version": {c.version}, "q": {term}}

	resp, err := c.get(ctx, fmt.Sprintf("%s/search/?%s", c.baseURL, params.Encode()))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to search projects matching [%s]", term)
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "invalid project search page")
	}

	projects = make([]string, 0)
	doc.Find(projectSelector).Each(func(i int, s *goquery.Selection) {
		name, _, _ := strings.Cut(s.Text(), " (")
		if name = strings.TrimSpace(name); name != "" {
			projects = append(projects, name)
		}
	})

	return projects, nil
}

func (c *Client) get(ctx context.Context, u string) (resp *http.Response, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err = c.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status [%d]", resp.StatusCode)
	}

	return resp, nil
}

var converter = newConverter()

// newConverter returns a converter of highlights to slack markdown where matches are bold
func newConverter() *md.Converter {
	conv := md.NewConverter("", true, &md.Options{StrongDelimiter: "*", EmDelimiter: "_"})
	conv.AddRules(md.Rule{
		Filter: []string{"span"},
		Replacement: func(content string, selec *goquery.Selection, opt *md.Options) *string {
			if strings.TrimSpace(content) == "" {
				return md.String(content)
			}

			return md.String("*" + content + "*")
		},
	})

	return conv
}

// ToMarkdown converts an html highlight to slack markdown. The fragment is returned as is when it
// can't be converted
func ToMarkdown(fragment string) string {
	markdown, err := converter.ConvertString(fragment)
	if err != nil {
		return fragment
	}

	return strings.Join(strings.Fields(markdown), " ")
}
