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
	"time"
)

// GitHubConfig configures the remote Git-hosting backend.
type GitHubConfig struct {
	APIBase string // e.g. https://api.github.com; overridable for tests
	Owner   string
	Repo    string
	Branch  string
	Token   string
	// PathPrefix is prepended to every file name (e.g. "public" for
	// question set files). Empty for the root-level collection files.
	PathPrefix string
	// Timeout bounds each API round-trip.
	Timeout time.Duration
}

// GitHub stores collection files as repository contents through the GitHub
// contents API. The blob sha is the version token: a PUT with a stale sha is
// rejected by the API, which surfaces here as ErrConflict.
type GitHub struct {
	cfg    GitHubConfig
	client *http.Client
}

// NewGitHub creates the remote backend. Owner, repo and token are required.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	if cfg.Owner == "" || cfg.Repo == "" || cfg.Token == "" {
		return nil, fmt.Errorf("github backend: owner, repo and token are required")
	}
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &GitHub{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// escapePath escapes each path segment individually, keeping the separators
// literal.
func escapePath(paths ...string) string {
	var parts []string
	for _, p := range paths {
		for _, seg := range strings.Split(p, "/") {
			if seg == "" {
				continue
			}
			parts = append(parts, url.PathEscape(seg))
		}
	}
	return strings.Join(parts, "/")
}

func (g *GitHub) contentsURL(name string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		strings.TrimRight(g.cfg.APIBase, "/"), g.cfg.Owner, g.cfg.Repo,
		escapePath(g.cfg.PathPrefix, name))
}

func (g *GitHub) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
	return g.client.Do(req)
}

// apiMessage extracts the "message" field from a GitHub error body, falling
// back to the raw body text.
func apiMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return strings.TrimSpace(string(body))
}

func (g *GitHub) Read(ctx context.Context, name string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.contentsURL(name)+"?ref="+url.QueryEscape(g.cfg.Branch), nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := g.do(req)
	if err != nil {
		return nil, "", fmt.Errorf("github fetch %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return nil, "", ErrNotExist
	}
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("github fetch %s: status %d: %s", name, resp.StatusCode, apiMessage(body))
	}

	var payload struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, "", fmt.Errorf("github fetch %s: decode: %w", name, err)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("github fetch %s: base64: %w", name, err)
	}
	return decoded, payload.SHA, nil
}

func (g *GitHub) Write(ctx context.Context, name string, data []byte, token string) error {
	payload := map[string]any{
		"message": "chore: update " + name,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  g.cfg.Branch,
	}
	if token != "" {
		payload["sha"] = token
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(name), bytes.NewReader(raw))
	if err != nil {
		return err
	}

	resp, err := g.do(req)
	if err != nil {
		return fmt.Errorf("github update %s: %w", name, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		// The API rejects PUTs whose sha no longer matches the file.
		return fmt.Errorf("github update %s: %s: %w", name, apiMessage(body), ErrConflict)
	default:
		return fmt.Errorf("github update %s: status %d: %s", name, resp.StatusCode, apiMessage(body))
	}
}

// List enumerates the files under the configured path prefix.
func (g *GitHub) List(ctx context.Context) ([]FileInfo, error) {
	listURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		strings.TrimRight(g.cfg.APIBase, "/"), g.cfg.Owner, g.cfg.Repo,
		escapePath(g.cfg.PathPrefix), url.QueryEscape(g.cfg.Branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := g.do(req)
	if err != nil {
		return nil, fmt.Errorf("github list: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github list: status %d: %s", resp.StatusCode, apiMessage(body))
	}

	var entries []struct {
		Name string `json:"name"`
		Size int64  `json:"size"`
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("github list: decode: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		if e.Type != "file" || !strings.HasSuffix(strings.ToLower(e.Name), ".json") {
			continue
		}
		// The contents API does not carry modification times.
		files = append(files, FileInfo{Name: e.Name, Size: e.Size, LastModified: now})
	}
	return files, nil
}
