package community

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rulebook-labs/rulebook/internal/errors"
)

var testIndex = Index{Packs: []Entry{
	{Name: "web-kit", Username: "alice", Repo: "rulebook-packs", Path: "packs/web-kit", Description: "Frontend conventions"},
	{Name: "go-style", Username: "bob", Repo: "go-style", Description: "Idiomatic Go review rules"},
	{Name: "data-eng", Username: "carol", Repo: "pipelines", Description: "Data pipeline memory bank"},
}}

// tarball builds a repository archive with a single top-level directory.
func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	if err := tw.WriteHeader(&tar.Header{Name: "repo-HEAD/", Typeflag: tar.TypeDir, Mode: 0755}); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		hdr := &tar.Header{Name: name, Typeflag: tar.TypeReg, Mode: 0644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func newTestClient(t *testing.T, archive []byte) (*Client, *int) {
	t.Helper()
	indexHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		indexHits++
		_ = json.NewEncoder(w).Encode(testIndex)
	})
	mux.HandleFunc("/archive/alice/rulebook-packs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := New(srv.URL+"/index.json",
		WithHTTPClient(srv.Client()),
		WithCachePath(filepath.Join(t.TempDir(), "index.json")),
		WithArchiveURL(srv.URL+"/archive/{username}/{repo}"),
	)
	return c, &indexHits
}

func TestParseSlug(t *testing.T) {
	tests := []struct {
		raw     string
		want    Slug
		wantErr bool
	}{
		{"alice/repo", Slug{Username: "alice", Repo: "repo"}, false},
		{"alice/repo/packs/web/", Slug{Username: "alice", Repo: "repo", Path: "packs/web"}, false},
		{"alice", Slug{}, true},
		{"/repo", Slug{}, true},
		{"alice/repo/../../etc", Slug{}, true},
	}
	for _, tt := range tests {
		got, err := ParseSlug(tt.raw)
		if tt.wantErr {
			if !errors.IsKind(err, errors.KindInvalid) {
				t.Errorf("ParseSlug(%q) error = %v, want kind %s", tt.raw, err, errors.KindInvalid)
			}
			continue
		}
		if err != nil {
			t.Fatalf("ParseSlug(%q) error: %v", tt.raw, err)
		}
		if got != tt.want {
			t.Errorf("ParseSlug(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestUpdateAndLoadIndex(t *testing.T) {
	c, _ := newTestClient(t, nil)

	empty, err := c.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() before update error: %v", err)
	}
	if len(empty.Packs) != 0 || !empty.IsStale(DefaultMaxAge) {
		t.Errorf("LoadIndex() before update = %+v, want empty stale index", empty)
	}

	if _, err := c.Update(context.Background()); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	idx, err := c.LoadIndex()
	if err != nil {
		t.Fatalf("LoadIndex() error: %v", err)
	}
	if diff := cmp.Diff(testIndex.Packs, idx.Packs); diff != "" {
		t.Errorf("cached packs mismatch (-want +got):\n%s", diff)
	}
	if idx.IsStale(time.Hour) {
		t.Error("freshly updated index should not be stale")
	}
}

func TestSearch(t *testing.T) {
	idx := &testIndex

	tests := []struct {
		query string
		limit int
		want  []string
	}{
		{"", 2, []string{"web-kit", "go-style"}},
		{"", 0, []string{"web-kit", "go-style", "data-eng"}},
		{"go-style", 10, []string{"go-style"}},
		{"pipelines", 10, []string{"data-eng"}},
		{"carol", 10, []string{"data-eng"}},
		{"zzzzzz", 10, nil},
		{"kitfront", 10, nil},
		{"alicefrontend", 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got []string
			for _, e := range idx.Search(tt.query, tt.limit) {
				got = append(got, e.Name)
			}
			if len(tt.want) == 1 {
				if len(got) == 0 || got[0] != tt.want[0] {
					t.Errorf("Search(%q) top result = %v, want %s first", tt.query, got, tt.want[0])
				}
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Search(%q) mismatch (-want +got):\n%s", tt.query, diff)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	c, hits := newTestClient(t, nil)
	ctx := context.Background()

	slug, err := c.Lookup(ctx, "WEB-KIT")
	if err != nil {
		t.Fatalf("Lookup() error: %v", err)
	}
	if slug != "alice/rulebook-packs/packs/web-kit" {
		t.Errorf("Lookup() = %q, want %q", slug, "alice/rulebook-packs/packs/web-kit")
	}
	if *hits != 1 {
		t.Errorf("stale cache should trigger one index download, got %d", *hits)
	}

	if _, err := c.Lookup(ctx, "go-style"); err != nil {
		t.Fatal(err)
	}
	if *hits != 1 {
		t.Errorf("fresh cache should not be refreshed, got %d downloads", *hits)
	}

	if _, err := c.Lookup(ctx, "missing"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("Lookup(missing) error = %v, want kind %s", err, errors.KindNotFound)
	}
}

func TestFetch(t *testing.T) {
	archive := tarball(t, map[string]string{
		"repo-HEAD/README.md":                         "repo readme",
		"repo-HEAD/packs/web-kit/manifest.yaml":       "name: web-kit\n",
		"repo-HEAD/packs/web-kit/rules/01-style.md":   "style",
		"repo-HEAD/packs/web-kit/../../../escape.txt": "nope",
	})
	c, _ := newTestClient(t, archive)

	dir, cleanup, err := c.Fetch(context.Background(), "alice/rulebook-packs/packs/web-kit")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "rules", "01-style.md"))
	if err != nil || string(data) != "style" {
		t.Errorf("rules/01-style.md = %q, %v, want %q", data, err, "style")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(filepath.Dir(filepath.Dir(dir))), "escape.txt")); !os.IsNotExist(err) {
		t.Error("entry escaping the extraction root must be skipped")
	}

	cleanup()
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("cleanup should remove the extraction")
	}
}

func TestFetchErrors(t *testing.T) {
	archive := tarball(t, map[string]string{"repo-HEAD/manifest.yaml": "name: x\n"})
	c, _ := newTestClient(t, archive)
	ctx := context.Background()

	if _, _, err := c.Fetch(ctx, "alice/rulebook-packs/packs/absent"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("missing subpath error = %v, want kind %s", err, errors.KindNotFound)
	}
	if _, _, err := c.Fetch(ctx, "nobody/nothing"); !errors.IsKind(err, errors.KindNotFound) {
		t.Errorf("missing repo error = %v, want kind %s", err, errors.KindNotFound)
	}
	if _, _, err := c.Fetch(ctx, "bad"); !errors.IsKind(err, errors.KindInvalid) {
		t.Errorf("bad slug error = %v, want kind %s", err, errors.KindInvalid)
	}
}
