package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/songdrop/internal/shared"
)

const (
	defaultGitHubAPI = "https://api.github.com"
	rawGitHubHost    = "https://raw.githubusercontent.com"
)

// GitHubStore commits files to a repository through the contents API and serves them from raw.githubusercontent.com.
type GitHubStore struct {
	config     shared.GitHubConfig
	apiURL     string
	rawURL     string
	httpClient *http.Client
}

// NewGitHubStore creates a [GitHubStore]. A nil client uses [http.DefaultClient].
func NewGitHubStore(config shared.GitHubConfig, client *http.Client) *GitHubStore {
	if client == nil {
		client = http.DefaultClient
	}
	if config.Branch == "" {
		config.Branch = "main"
	}
	apiURL := strings.TrimSuffix(config.APIURL, "/")
	if apiURL == "" {
		apiURL = defaultGitHubAPI
	}
	return &GitHubStore{
		config:     config,
		apiURL:     apiURL,
		rawURL:     rawGitHubHost,
		httpClient: client,
	}
}

type contentsRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
}

type deleteRequest struct {
	Message string `json:"message"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch,omitempty"`
}

type contentsFile struct {
	SHA string `json:"sha"`
}

type contentsError struct {
	Message string `json:"message"`
}

// Put implements [Store] by creating the file with a commit on the configured branch.
func (s *GitHubStore) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read upload: %v", shared.ErrStorage, err)
	}

	body, err := json.Marshal(contentsRequest{
		Message: "Add " + name,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  s.config.Branch,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	resp, respBody, err := s.do(ctx, http.MethodPut, s.contentsURL(name), body)
	if err != nil {
		return "", err
	}

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		return s.publicURL(name), nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		return "", fmt.Errorf("%w: %s", ErrExists, name)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("%w: github returned %d: %s", shared.ErrStorage, resp.StatusCode, errorMessage(respBody))
	default:
		return "", fmt.Errorf("github returned %d: %s", resp.StatusCode, errorMessage(respBody))
	}
}

// Delete implements [Store] by looking up the file's blob sha and committing its removal.
func (s *GitHubStore) Delete(ctx context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}

	endpoint := s.contentsURL(name)
	resp, body, err := s.do(ctx, http.MethodGet, endpoint+"?ref="+url.QueryEscape(s.config.Branch), nil)
	if err != nil {
		return err
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: github returned %d: %s", shared.ErrStorage, resp.StatusCode, errorMessage(body))
	}

	var file contentsFile
	if err := json.Unmarshal(body, &file); err != nil || file.SHA == "" {
		return fmt.Errorf("%w: github returned no sha for %s", shared.ErrStorage, name)
	}

	payload, err := json.Marshal(deleteRequest{Message: "Remove " + name, SHA: file.SHA, Branch: s.config.Branch})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, body, err = s.do(ctx, http.MethodDelete, endpoint, payload)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("%w: github returned %d: %s", shared.ErrStorage, resp.StatusCode, errorMessage(body))
	}
	return nil
}

func (s *GitHubStore) contentsURL(name string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.apiURL, s.config.Owner, s.config.Repo, s.filePath(name))
}

// do sends an authenticated contents API request and returns the response with its body read.
func (s *GitHubStore) do(ctx context.Context, method, endpoint string, payload []byte) (*http.Response, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.Token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: request failed: %v", shared.ErrStorage, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return resp, body, nil
}

// Describe implements [Store].
func (s *GitHubStore) Describe() string {
	return fmt.Sprintf("Files stored permanently on GitHub (%s/%s)", s.config.Owner, s.config.Repo)
}

func (s *GitHubStore) filePath(name string) string {
	dir := strings.Trim(s.config.Path, "/")
	if dir == "" {
		return url.PathEscape(name)
	}

	parts := strings.Split(dir, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/") + "/" + url.PathEscape(name)
}

func (s *GitHubStore) publicURL(name string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", s.rawURL, s.config.Owner, s.config.Repo, s.config.Branch, s.filePath(name))
}

func errorMessage(body []byte) string {
	var e contentsError
	if err := json.Unmarshal(body, &e); err == nil && e.Message != "" {
		return e.Message
	}
	return strings.TrimSpace(string(body))
}
