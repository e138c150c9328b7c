package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const (
	defaultAPIBase = "https://api.github.com"
	defaultRawBase = "https://raw.githubusercontent.com"

	// DefaultMaxDepth bounds how far DownloadTree descends into
	// subdirectories before pruning.
	DefaultMaxDepth = 5

	requestTimeout = 30 * time.Second
)

var (
	// ErrNotFound means the repository, ref, or path does not exist (or is
	// private and the request was unauthenticated).
	ErrNotFound = errors.New("not found")
	// ErrForbidden usually means the API rate limit was exhausted.
	ErrForbidden = errors.New("access denied")
	// ErrNotADirectory means the location resolves to a file, not a directory.
	ErrNotADirectory = errors.New("path is not a directory")
)

// Entry is one item of a directory listing.
type Entry struct {
	Name string `json:"name"`
	Type string `json:"type"` // "file" or "dir"
}

// Client fetches repository contents through the hosting service's
// contents API and raw download endpoint. The zero value is usable and
// talks to the public service anonymously.
type Client struct {
	// APIBase and RawBase override the service endpoints. Empty means the
	// public defaults.
	APIBase string
	RawBase string
	// Token, if set, authenticates requests and raises the rate limit.
	Token string
	// HTTPClient overrides the default client (30s per-request timeout).
	HTTPClient *http.Client
	Logger     *log.Logger
}

func (c *Client) apiBase() string {
	if c.APIBase != "" {
		return c.APIBase
	}
	return defaultAPIBase
}

func (c *Client) rawBase() string {
	if c.RawBase != "" {
		return c.RawBase
	}
	return defaultRawBase
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: requestTimeout}
}

func (c *Client) logger() *log.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return log.Default()
}

func (c *Client) get(ctx context.Context, url, accept string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	req.Header.Set("User-Agent", "spkg")
	return c.httpClient().Do(req)
}

// ListDirectory fetches the immediate children of loc. The location must
// be a directory; a file yields ErrNotADirectory.
func (c *Client) ListDirectory(ctx context.Context, loc Location) ([]Entry, error) {
	resp, err := c.get(ctx, loc.ContentsURL(c.apiBase()), "application/vnd.github.v3+json")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", loc, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w (check the URL and that the branch exists)", loc, ErrNotFound)
	case http.StatusForbidden:
		return nil, fmt.Errorf("%s: %w (rate limited? authenticate with --token or SPKG_TOKEN)", loc, ErrForbidden)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("listing %s: HTTP %d: %s", loc, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading listing response: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		// The API returns a JSON object (not an array) when the path is a file.
		var single Entry
		if jerr := json.Unmarshal(data, &single); jerr == nil {
			return nil, fmt.Errorf("%s: %w", loc, ErrNotADirectory)
		}
		return nil, fmt.Errorf("decoding listing response: %w", err)
	}
	return entries, nil
}

// DownloadTree downloads every file under loc into destDir, preserving
// the directory structure. Directories nested deeper than maxDepth are
// skipped with a warning. Returns the relative slash-separated paths of
// the files written, in listing order.
func (c *Client) DownloadTree(ctx context.Context, loc Location, destDir string, maxDepth int) ([]string, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	var files []string
	if err := c.downloadDir(ctx, loc, destDir, "", 0, maxDepth, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) downloadDir(ctx context.Context, loc Location, destDir, rel string, depth, maxDepth int, files *[]string) error {
	entries, err := c.ListDirectory(ctx, loc)
	if err != nil {
		return err
	}

	for _, e := range entries {
		childRel := e.Name
		if rel != "" {
			childRel = rel + "/" + e.Name
		}

		switch e.Type {
		case "dir":
			if depth+1 > maxDepth {
				c.logger().Warn("skipping directory beyond depth limit", "dir", childRel, "max_depth", maxDepth)
				continue
			}
			if err := c.downloadDir(ctx, loc.Sub(e.Name), destDir, childRel, depth+1, maxDepth, files); err != nil {
				return err
			}
		case "file":
			dest := filepath.Join(destDir, filepath.FromSlash(childRel))
			if err := c.downloadFile(ctx, loc, e.Name, dest); err != nil {
				return fmt.Errorf("downloading %s: %w", childRel, err)
			}
			c.logger().Debug("downloaded", "file", childRel)
			*files = append(*files, childRel)
		default:
			// Symlinks and submodules are not skill content.
			c.logger().Warn("skipping unsupported entry", "name", childRel, "type", e.Type)
		}
	}
	return nil
}

func (c *Client) downloadFile(ctx context.Context, loc Location, name, dest string) error {
	resp, err := c.get(ctx, loc.RawFileURL(c.rawBase(), name), "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d fetching raw content", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading raw content: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
