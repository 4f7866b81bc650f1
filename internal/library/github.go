// Package library moves tool namespaces between the local store and a
// GitHub repository acting as the shared tool library.
package library

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/tsaristov/boop-final-prototype/internal/config"
	"github.com/tsaristov/boop-final-prototype/internal/logging"
)

const toolsPrefix = "tools"

// GitHubClient talks to the GitHub contents API for one library repo.
type GitHubClient struct {
	owner   string
	repo    string
	branch  string
	token   string
	baseURL string
	http    *http.Client
}

func NewGitHubClient(cfg config.LibraryConfig) *GitHubClient {
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	return &GitHubClient{
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  branch,
		token:   cfg.Token,
		baseURL: "https://api.github.com",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// contentEntry is the subset of the contents API payload the library uses.
type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	SHA         string `json:"sha"`
	Content     string `json:"content"`
	Encoding    string `json:"encoding"`
	DownloadURL string `json:"download_url"`
}

// ListTools returns the names of every tool directory in the library.
func (c *GitHubClient) ListTools(ctx context.Context) ([]string, error) {
	entries, err := c.listDir(ctx, toolsPrefix)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.Type == "dir" {
			names = append(names, e.Name)
		}
	}
	return names, nil
}

// FetchFile returns the decoded content of one file in the library.
func (c *GitHubClient) FetchFile(ctx context.Context, path string) ([]byte, error) {
	var entry contentEntry
	if err := c.get(ctx, c.contentsURL(path), &entry); err != nil {
		return nil, err
	}
	return decodeEntry(ctx, c, entry)
}

// Download materializes a remote tool directory under dest.
func (c *GitHubClient) Download(ctx context.Context, name, dest string) error {
	entries, err := c.listDir(ctx, toolsPrefix+"/"+name)
	if err != nil {
		return fmt.Errorf("tool %s not in library: %w", name, err)
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return err
	}

	for _, e := range entries {
		if e.Type != "file" {
			continue
		}
		data, err := decodeEntry(ctx, c, e)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", e.Path, err)
		}
		if err := os.WriteFile(filepath.Join(dest, e.Name), data, 0644); err != nil {
			return err
		}
	}

	logging.Library("downloaded %s (%d files)", name, len(entries))
	return nil
}

// Upload pushes every file of a local tool directory into the library,
// creating or updating as needed.
func (c *GitHubClient) Upload(ctx context.Context, name, dir string) error {
	files, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, f.Name()))
		if err != nil {
			return err
		}
		remote := toolsPrefix + "/" + name + "/" + f.Name()
		if err := c.putFile(ctx, remote, data); err != nil {
			return fmt.Errorf("failed to upload %s: %w", remote, err)
		}
	}

	logging.Library("uploaded %s", name)
	return nil
}

func (c *GitHubClient) listDir(ctx context.Context, path string) ([]contentEntry, error) {
	var entries []contentEntry
	if err := c.get(ctx, c.contentsURL(path), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *GitHubClient) contentsURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", c.baseURL, c.owner, c.repo, path, c.branch)
}

func (c *GitHubClient) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("library request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("not found: %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("library request returned %d: %s", resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// putFile creates or updates one file. Updates need the current blob SHA.
func (c *GitHubClient) putFile(ctx context.Context, path string, data []byte) error {
	var existing contentEntry
	sha := ""
	if err := c.get(ctx, c.contentsURL(path), &existing); err == nil {
		sha = existing.SHA
	}

	payload := map[string]any{
		"message": "Update " + path,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  c.branch,
	}
	if sha != "" {
		payload["sha"] = sha
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.baseURL, c.owner, c.repo, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.auth(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("library upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("library upload returned %d: %s", resp.StatusCode, msg)
	}
	return nil
}

func (c *GitHubClient) auth(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// decodeEntry recovers file bytes from an inline base64 payload, falling
// back to the download URL for large files the API will not inline.
func decodeEntry(ctx context.Context, c *GitHubClient, e contentEntry) ([]byte, error) {
	if e.Encoding == "base64" && e.Content != "" {
		return base64.StdEncoding.DecodeString(compactBase64(e.Content))
	}
	if e.DownloadURL == "" {
		return nil, fmt.Errorf("no content for %s", e.Path)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.DownloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download of %s returned %d", e.Path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// compactBase64 strips the newlines GitHub inserts into inline content.
func compactBase64(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
