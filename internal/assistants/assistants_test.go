package assistants

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rulebook-labs/rulebook/internal/errors"
)

func writeFile(t *testing.T, root, relPath, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, root, relPath string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// stagedTree writes files into a fresh staging directory.
func stagedTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		writeFile(t, dir, rel, content)
	}
	return dir
}

func mustLookup(t *testing.T, name Name) Spec {
	t.Helper()
	s, ok := Lookup(string(name))
	if !ok {
		t.Fatalf("Lookup(%q) failed", name)
	}
	return s
}

func TestStrategyFor(t *testing.T) {
	tests := []struct {
		name Name
		want Strategy
	}{
		{Cursor, PreserveHierarchy},
		{Windsurf, FlattenAndNumber},
		{Cline, FlattenAndNumber},
		{Roo, ModePartitioned},
		{KiloCode, ModePartitioned},
		{Warp, Concatenate},
		{Copilot, Concatenate},
		{ClaudeCode, Concatenate},
		{Codex, Concatenate},
		{Gemini, Concatenate},
	}
	for _, tt := range tests {
		if got := StrategyFor(mustLookup(t, tt.name)); got != tt.want {
			t.Errorf("StrategyFor(%s) = %s, want %s", tt.name, got, tt.want)
		}
	}
}

func TestEveryStrategyHasRenderer(t *testing.T) {
	for _, s := range All() {
		if _, ok := renderers[StrategyFor(s)]; !ok {
			t.Errorf("no renderer for %s (%s)", s.Name, StrategyFor(s))
		}
	}
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		name Name
		want string
	}{
		{Cursor, ".cursor/rules"},
		{Roo, ".roo"},
		{Warp, "WARP.md"},
		{Copilot, ".github/copilot-instructions.md"},
	}
	for _, tt := range tests {
		if got := mustLookup(t, tt.name).CleanPath(); got != tt.want {
			t.Errorf("CleanPath(%s) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	all, err := Resolve(nil)
	if err != nil || len(all) != len(Names()) {
		t.Fatalf("Resolve(nil) = %d specs, %v, want all", len(all), err)
	}

	got, err := Resolve([]string{"warp", "cursor", "warp"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if len(got) != 2 || got[0].Name != Warp || got[1].Name != Cursor {
		t.Errorf("Resolve() = %v, want [warp cursor]", got)
	}

	if _, err := Resolve([]string{"cursor", "vim"}); !errors.IsKind(err, errors.KindInvalid) {
		t.Errorf("Resolve(unknown) error = %v, want kind %s", err, errors.KindInvalid)
	}
}

func TestConcatenate(t *testing.T) {
	staged := stagedTree(t, map[string]string{
		"02-style.md":     "style body",
		"01-core.md":      "core body",
		"sub/03-extra.md": "extra body",
		".hidden.md":      "secret",
		".drafts/x.md":    "draft",
	})
	project := t.TempDir()

	result, err := Generate(mustLookup(t, Copilot), staged, project)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if diff := cmp.Diff([]string{".github/copilot-instructions.md"}, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}

	want := "# Rule: 01-core.md\n\ncore body" +
		"\n\n---\n\n# Rule: 02-style.md\n\nstyle body" +
		"\n\n---\n\n# Rule: 03-extra.md\n\nextra body"
	if got := readFile(t, project, ".github/copilot-instructions.md"); got != want {
		t.Errorf("output =\n%q\nwant\n%q", got, want)
	}
}

func TestConcatenateEmptyProducesNothing(t *testing.T) {
	project := t.TempDir()

	result, err := Generate(mustLookup(t, Copilot), t.TempDir(), project)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(result.Files) != 0 || len(result.Notices) != 1 {
		t.Errorf("Generate() = %+v, want no files and one notice", result)
	}
	if _, err := os.Stat(filepath.Join(project, ".github")); !os.IsNotExist(err) {
		t.Error("empty staging must not create an output directory")
	}
}

func TestFlattenAndNumberContiguous(t *testing.T) {
	staged := stagedTree(t, map[string]string{
		"10-foo.md": "foo",
		"02-bar.md": "bar one",
		"bar.md":    "bar two",
	})
	project := t.TempDir()

	result, err := Generate(mustLookup(t, Cline), staged, project)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := []string{".clinerules/01-bar", ".clinerules/02-foo", ".clinerules/03-bar"}
	if diff := cmp.Diff(want, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
	if got := readFile(t, project, ".clinerules/01-bar"); got != "bar one" {
		t.Errorf("01-bar = %q, want %q", got, "bar one")
	}
	if got := readFile(t, project, ".clinerules/03-bar"); got != "bar two" {
		t.Errorf("03-bar = %q, want %q", got, "bar two")
	}
}

func TestFlattenAppliesExtension(t *testing.T) {
	staged := stagedTree(t, map[string]string{
		"a/07-first.txt": "1",
		"b/second.md":    "2",
	})
	project := t.TempDir()

	result, err := Generate(mustLookup(t, Windsurf), staged, project)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := []string{".windsurf/rules/01-first.md", ".windsurf/rules/02-second.md"}
	if diff := cmp.Diff(want, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestPreserveHierarchy(t *testing.T) {
	staged := stagedTree(t, map[string]string{
		"01-core.mdc":          "core",
		"lang/go/10-style.mdc": "go",
		".DS_Store":            "junk",
	})
	project := t.TempDir()

	result, err := Generate(mustLookup(t, Cursor), staged, project)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := []string{".cursor/rules/01-core.mdc", ".cursor/rules/lang/go/10-style.mdc"}
	if diff := cmp.Diff(want, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
}

func TestModePartitioned(t *testing.T) {
	staged := stagedTree(t, map[string]string{
		"01-rules/a.md":             "shared",
		"02-rules-architect/b.md":   "architect",
		"03-rules-code/nested/c.md": "code",
		"04-empty/.keep":            "",
		"top-level.md":              "ignored",
	})
	project := t.TempDir()

	result, err := Generate(mustLookup(t, Roo), staged, project)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	want := []string{".roo/rules/a.md", ".roo/rules-architect/b.md", ".roo/rules-code/nested/c.md"}
	if diff := cmp.Diff(want, result.Files); diff != "" {
		t.Errorf("Files mismatch (-want +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(project, ".roo", "empty")); !os.IsNotExist(err) {
		t.Error("a mode without files must be skipped")
	}
	if len(result.Notices) != 0 {
		t.Errorf("Notices = %v, want none", result.Notices)
	}
}

func TestModePartitionedNoModesEmitsNotice(t *testing.T) {
	staged := stagedTree(t, map[string]string{"flat.md": "x"})

	result, err := Generate(mustLookup(t, KiloCode), staged, t.TempDir())
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if len(result.Notices) != 1 || !strings.Contains(result.Notices[0], "Kilo Code") {
		t.Errorf("Notices = %v, want one notice naming the assistant", result.Notices)
	}
}

func TestGenerateReplacesPriorOutput(t *testing.T) {
	project := t.TempDir()
	writeFile(t, project, ".clinerules/99-stale", "old")

	staged := stagedTree(t, map[string]string{"a.md": "a"})
	if _, err := Generate(mustLookup(t, Cline), staged, project); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(project, ".clinerules", "99-stale")); !os.IsNotExist(err) {
		t.Error("prior output must be removed before rendering")
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	staged := stagedTree(t, map[string]string{"01-a.md": "a", "b/02-b.md": "b"})
	project := t.TempDir()

	for _, s := range All() {
		first, err := Generate(s, staged, project)
		if err != nil {
			t.Fatal(err)
		}
		firstContent := map[string]string{}
		for _, f := range first.Files {
			firstContent[f] = readFile(t, project, f)
		}

		second, err := Generate(s, staged, project)
		if err != nil {
			t.Fatal(err)
		}
		secondContent := map[string]string{}
		for _, f := range second.Files {
			secondContent[f] = readFile(t, project, f)
		}
		if diff := cmp.Diff(firstContent, secondContent); diff != "" {
			t.Errorf("%s: second render differs (-first +second):\n%s", s.Name, diff)
		}
	}
}

func TestClean(t *testing.T) {
	project := t.TempDir()
	staged := stagedTree(t, map[string]string{"a.md": "a"})

	for _, name := range []Name{Copilot, Warp, Cursor} {
		if _, err := Generate(mustLookup(t, name), staged, project); err != nil {
			t.Fatal(err)
		}
	}

	for _, name := range []Name{Copilot, Warp, Cursor} {
		removed, err := Clean(mustLookup(t, name), project)
		if err != nil || !removed {
			t.Fatalf("Clean(%s) = %v, %v, want true, nil", name, removed, err)
		}
	}

	if _, err := os.Stat(filepath.Join(project, ".github")); !os.IsNotExist(err) {
		t.Error("empty parent of single-file output should be removed")
	}
	if _, err := os.Stat(filepath.Join(project, ".cursor", "rules")); !os.IsNotExist(err) {
		t.Error("multi-file output should be removed")
	}
	if _, err := os.Stat(project); err != nil {
		t.Error("project root must never be removed")
	}

	removed, err := Clean(mustLookup(t, Gemini), project)
	if err != nil || removed {
		t.Errorf("Clean() with no output = %v, %v, want false, nil", removed, err)
	}
}

func TestCleanKeepsNonEmptyParent(t *testing.T) {
	project := t.TempDir()
	writeFile(t, project, ".github/workflows/ci.yml", "on: push")
	writeFile(t, project, ".github/copilot-instructions.md", "x")

	if _, err := Clean(mustLookup(t, Copilot), project); err != nil {
		t.Fatal(err)
	}
	if got := readFile(t, project, ".github/workflows/ci.yml"); got != "on: push" {
		t.Errorf("unrelated file touched: %q", got)
	}
}

func TestLessPath(t *testing.T) {
	files := []string{"a-b/x.md", "a/x.md", "a/b/c.md", "B.md"}
	want := []string{"B.md", "a/b/c.md", "a/x.md", "a-b/x.md"}

	staged := stagedTree(t, map[string]string{
		"a-b/x.md": "", "a/x.md": "", "a/b/c.md": "", "B.md": "",
	})
	got, err := orderedFiles(staged)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("orderedFiles(%v) mismatch (-want +got):\n%s", files, diff)
	}
}
