//go:build integration

package integration_test

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rulebook-labs/rulebook/internal/community"
	"github.com/rulebook-labs/rulebook/internal/project"
	"github.com/rulebook-labs/rulebook/internal/registry"
)

// testEnv holds paths to isolated test directories.
type testEnv struct {
	LibraryDir string // built-in pack library
	CacheDir   string // community index cache
	ProjectDir string // a mock project directory
}

// setupTestEnv creates isolated temp directories and a built-in library
// with a concatenation-friendly pack, a mode pack and a pack with starters.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		LibraryDir: t.TempDir(),
		CacheDir:   t.TempDir(),
		ProjectDir: t.TempDir(),
	}
	t.Setenv("HOME", t.TempDir())

	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/manifest.yaml"), "name: light-spec\nversion: 1.0.0\nsummary: Lightweight workflow rules\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/README.md"), "# light-spec\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/rules/01-rules/01-meta.md"), "meta rules\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/rules/01-rules/02-memory.md"), "memory rules\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/rules/02-rules-architect/01-plan.md"), "plan first\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/memory_starters/docs/product_requirement_docs.md"), "# PRD\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/memory_starters/tasks/tasks_plan.md"), "# Plan\n")
	writeFile(t, filepath.Join(env.LibraryDir, "light-spec/tool_starters/llm_api.py"), "print('hi')\n")

	writeFile(t, filepath.Join(env.LibraryDir, "go-style/manifest.yaml"), "name: go-style\nversion: 0.2.0\nsummary: Go conventions\n")
	writeFile(t, filepath.Join(env.LibraryDir, "go-style/rules/01-rules/03-go.md"), "gofmt everything\n")

	return env
}

func newProject(t *testing.T, env *testEnv, opts ...registry.Option) *project.Project {
	t.Helper()
	p, err := project.New(env.ProjectDir, registry.New(env.LibraryDir, opts...))
	if err != nil {
		t.Fatalf("project.New: %v", err)
	}
	p.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

// startCommunity serves an index listing one pack and the archive holding it.
func startCommunity(t *testing.T, env *testEnv) *community.Client {
	t.Helper()

	index := community.Index{Packs: []community.Entry{{
		Name:        "react-kit",
		Username:    "octo",
		Repo:        "packs",
		Path:        "react-kit",
		Description: "React component rules",
	}}}
	archive := tarball(t, map[string]string{
		"packs-HEAD/react-kit/manifest.yaml":           "name: react-kit\nversion: 3.1.0\n",
		"packs-HEAD/react-kit/rules/01-rules/react.md": "prefer function components\n",
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/index.json", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(index)
	})
	mux.HandleFunc("/archive/octo/packs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return community.New(srv.URL+"/index.json",
		community.WithCachePath(filepath.Join(env.CacheDir, "index.json")),
		community.WithArchiveURL(srv.URL+"/archive/{username}/{repo}"),
	)
}

func tarball(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
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

// writeFile creates a file and all parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating dir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// assertFileExists fails the test if path does not exist.
func assertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

// assertNotExists fails the test if path exists.
func assertNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("expected %s to not exist", path)
	}
}

// assertFileContains fails the test if the file does not contain substr.
func assertFileContains(t *testing.T, path, substr string) {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	if !strings.Contains(string(data), substr) {
		t.Errorf("%s does not contain %q\ncontent:\n%s", path, substr, string(data))
	}
}
