package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// fakeHost serves a repository's contents API and raw downloads from maps,
// keyed by repo-relative path.
type fakeHost struct {
	listings map[string][]Entry
	raws     map[string]string
}

func (f *fakeHost) start(t *testing.T) *Client {
	t.Helper()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const prefix = "/repos/acme/tools/contents"
		path := strings.TrimPrefix(strings.TrimPrefix(r.URL.Path, prefix), "/")
		if r.URL.Query().Get("ref") != "main" {
			http.NotFound(w, r)
			return
		}
		entries, ok := f.listings[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(entries)
	}))
	t.Cleanup(api.Close)

	raw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/acme/tools/main/")
		content, ok := f.raws[path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(content))
	}))
	t.Cleanup(raw.Close)

	return &Client{APIBase: api.URL, RawBase: raw.URL}
}

func TestListDirectory(t *testing.T) {
	loc := Location{Owner: "acme", Repo: "tools", Ref: "main"}

	t.Run("lists entries and sends auth headers", func(t *testing.T) {
		var gotAuth, gotAccept string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotAccept = r.Header.Get("Accept")
			json.NewEncoder(w).Encode([]Entry{
				{Name: "SKILL.md", Type: "file"},
				{Name: "scripts", Type: "dir"},
			})
		}))
		defer srv.Close()

		c := &Client{APIBase: srv.URL, Token: "tok123"}
		entries, err := c.ListDirectory(context.Background(), loc)
		if err != nil {
			t.Fatalf("ListDirectory() error = %v", err)
		}
		if len(entries) != 2 || entries[0].Name != "SKILL.md" || entries[1].Type != "dir" {
			t.Errorf("ListDirectory() = %+v", entries)
		}
		if gotAuth != "token tok123" {
			t.Errorf("Authorization = %q, want %q", gotAuth, "token tok123")
		}
		if gotAccept != "application/vnd.github.v3+json" {
			t.Errorf("Accept = %q, want %q", gotAccept, "application/vnd.github.v3+json")
		}
	})

	t.Run("anonymous requests send no auth header", func(t *testing.T) {
		authSet := false
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, authSet = r.Header["Authorization"]
			json.NewEncoder(w).Encode([]Entry{})
		}))
		defer srv.Close()

		c := &Client{APIBase: srv.URL}
		if _, err := c.ListDirectory(context.Background(), loc); err != nil {
			t.Fatalf("ListDirectory() error = %v", err)
		}
		if authSet {
			t.Error("Authorization header sent for anonymous request")
		}
	})

	statusTests := map[string]struct {
		status  int
		body    string
		wantErr error
	}{
		"missing path is ErrNotFound": {
			status:  http.StatusNotFound,
			body:    `{"message":"Not Found"}`,
			wantErr: ErrNotFound,
		},
		"rate limit is ErrForbidden": {
			status:  http.StatusForbidden,
			body:    `{"message":"API rate limit exceeded"}`,
			wantErr: ErrForbidden,
		},
	}
	for name, tc := range statusTests {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := &Client{APIBase: srv.URL}
			_, err := c.ListDirectory(context.Background(), loc)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("ListDirectory() error = %v, want %v", err, tc.wantErr)
			}
		})
	}

	t.Run("file path is ErrNotADirectory", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"name":"SKILL.md","type":"file","content":"LS0t"}`))
		}))
		defer srv.Close()

		c := &Client{APIBase: srv.URL}
		_, err := c.ListDirectory(context.Background(), loc)
		if !errors.Is(err, ErrNotADirectory) {
			t.Errorf("ListDirectory() error = %v, want ErrNotADirectory", err)
		}
	})

	t.Run("server error surfaces the status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("upstream broke"))
		}))
		defer srv.Close()

		c := &Client{APIBase: srv.URL}
		_, err := c.ListDirectory(context.Background(), loc)
		if err == nil || !strings.Contains(err.Error(), "HTTP 502") {
			t.Errorf("ListDirectory() error = %v, want HTTP 502 mention", err)
		}
	})
}

func TestDownloadTree(t *testing.T) {
	host := &fakeHost{
		listings: map[string][]Entry{
			"":               {{Name: "SKILL.md", Type: "file"}, {Name: "scripts", Type: "dir"}},
			"scripts":        {{Name: "run.py", Type: "file"}, {Name: "nested", Type: "dir"}},
			"scripts/nested": {{Name: "deep.txt", Type: "file"}},
		},
		raws: map[string]string{
			"SKILL.md":                "---\nname: demo\ndescription: demo skill\n---\nBody.\n",
			"scripts/run.py":          "print('hi')\n",
			"scripts/nested/deep.txt": "deep\n",
		},
	}
	loc := Location{Owner: "acme", Repo: "tools", Ref: "main"}

	t.Run("downloads the full tree", func(t *testing.T) {
		c := host.start(t)
		dest := t.TempDir()

		files, err := c.DownloadTree(context.Background(), loc, dest, 5)
		if err != nil {
			t.Fatalf("DownloadTree() error = %v", err)
		}

		want := []string{"SKILL.md", "scripts/run.py", "scripts/nested/deep.txt"}
		if !slices.Equal(files, want) {
			t.Errorf("DownloadTree() files = %v, want %v", files, want)
		}
		for rel, content := range host.raws {
			data, err := os.ReadFile(filepath.Join(dest, filepath.FromSlash(rel)))
			if err != nil {
				t.Fatalf("reading %s: %v", rel, err)
			}
			if string(data) != content {
				t.Errorf("%s content = %q, want %q", rel, data, content)
			}
		}
	})

	t.Run("prunes directories beyond max depth", func(t *testing.T) {
		c := host.start(t)
		dest := t.TempDir()

		files, err := c.DownloadTree(context.Background(), loc, dest, 1)
		if err != nil {
			t.Fatalf("DownloadTree() error = %v", err)
		}

		want := []string{"SKILL.md", "scripts/run.py"}
		if !slices.Equal(files, want) {
			t.Errorf("DownloadTree() files = %v, want %v", files, want)
		}
		if _, err := os.Stat(filepath.Join(dest, "scripts", "nested")); !os.IsNotExist(err) {
			t.Error("pruned directory was still created")
		}
	})

	t.Run("empty root yields no files", func(t *testing.T) {
		empty := &fakeHost{listings: map[string][]Entry{"": {}}}
		c := empty.start(t)

		files, err := c.DownloadTree(context.Background(), loc, t.TempDir(), 5)
		if err != nil {
			t.Fatalf("DownloadTree() error = %v", err)
		}
		if len(files) != 0 {
			t.Errorf("DownloadTree() files = %v, want none", files)
		}
	})

	t.Run("listing failure aborts the download", func(t *testing.T) {
		broken := &fakeHost{
			listings: map[string][]Entry{
				"": {{Name: "scripts", Type: "dir"}},
				// "scripts" listing missing: the API will 404.
			},
		}
		c := broken.start(t)

		_, err := c.DownloadTree(context.Background(), loc, t.TempDir(), 5)
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("DownloadTree() error = %v, want ErrNotFound", err)
		}
	})
}
