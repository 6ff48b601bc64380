// Package sandbox runs code remotely on a Piston code execution engine
package sandbox

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
	defaultPistonURL      = "https://emkc.org/api/v2/piston"
	defaultRequestTimeout = 30 * time.Second
)

// File is a source file of a Request
type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Request describes code to execute
type Request struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Files    []File   `json:"files"`
	Stdin    string   `json:"stdin,omitempty"`
	Args     []string `json:"args,omitempty"`
}

// Run is the outcome of running code
type Run struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code"`
	Signal string `json:"signal"`
}

// Runtime is a language supported by the engine
type Runtime struct {
	Language string   `json:"language"`
	Version  string   `json:"version"`
	Aliases  []string `json:"aliases"`
}

// Executor is implemented by any value that can execute code and list its runtimes
type Executor interface {
	Execute(ctx context.Context, req Request) (run Run, err error)
	Runtimes(ctx context.Context) (runtimes []Runtime, err error)
}

// PistonClient is an Executor backed by the Piston api
type PistonClient struct {
	client  *http.Client
	baseURL string
}

// Option defines an option for a PistonClient
type Option func(*PistonClient)

// OptionBaseURL sets the base URL of the Piston api (i.e. https://emkc.org/api/v2/piston)
func OptionBaseURL(baseURL string) func(*PistonClient) {
	return func(pc *PistonClient) {
		pc.baseURL = strings.TrimSuffix(baseURL, "/")
	}
}

// OptionHTTPClient sets the http client
func OptionHTTPClient(client *http.Client) func(*PistonClient) {
	return func(pc *PistonClient) {
		pc.client = client
	}
}

// NewPistonClient returns a new PistonClient
func NewPistonClient(options ...Option) (pc *PistonClient) {
	pc = new(PistonClient)
	pc.baseURL = defaultPistonURL
	pc.client = &http.Client{Timeout: defaultRequestTimeout}

	for _, opt := range options {
		opt(pc)
	}

	return pc
}

type executeResponse struct {
	Run     Run    `json:"run"`
	Message string `json:"message"`
}

// Execute runs the code of a request. An error is returned when the engine refuses to run it (i.e. an
// unknown language), not when the code itself fails
func (pc *PistonClient) Execute(ctx context.Context, r Request) (run Run, err error) {
	body, err := json.Marshal(r)
	if err != nil {
		return run, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, pc.baseURL+"/execute", bytes.NewReader(body))
	if err != nil {
		return run, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := pc.client.Do(req)
	if err != nil {
		return run, errors.Wrapf(err, "failed to execute [%s] code", r.Language)
	}
	defer resp.Body.Close()

	var er executeResponse
	if err = json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return run, errors.Wrap(err, "invalid execution response")
	}

	if resp.StatusCode != http.StatusOK {
		if er.Message == "" {
			er.Message = "unknown error"
		}

		return run, fmt.Errorf("failed to execute [%s] code: %s", r.Language, er.Message)
	}

	return er.Run, nil
}

// Runtimes returns the languages supported by the engine
func (pc *PistonClient) Runtimes(ctx context.Context) (runtimes []Runtime, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pc.baseURL+"/runtimes", nil)
	if err != nil {
		return nil, err
	}

	resp, err := pc.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runtimes")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list runtimes: unexpected status [%d]", resp.StatusCode)
	}

	if err = json.NewDecoder(resp.Body).Decode(&runtimes); err != nil {
		return nil, errors.Wrap(err, "invalid runtimes response")
	}

	return runtimes, nil
}

// Find returns the runtime of a language, matched by name or alias
func Find(runtimes []Runtime, language string) (r Runtime, ok bool) {
	l := strings.ToLower(language)

	for _, rt := range runtimes {
		if rt.Language == l {
			return rt, true
		}

		for _, a := range rt.Aliases {
			if a == l {
				return rt, true
			}
		}
	}

	return r, false
}
