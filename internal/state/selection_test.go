package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rulebook-labs/rulebook/internal/errors"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadSelectionMissing(t *testing.T) {
	root := t.TempDir()

	sel, err := LoadSelection(root)
	if err != nil {
		t.Fatalf("LoadSelection() error: %v", err)
	}
	if len(sel.Packs) != 0 || len(sel.Profiles) != 0 {
		t.Errorf("LoadSelection() = %+v, want empty selection", sel)
	}
	if sel.Profiles == nil {
		t.Error("Profiles should be an empty map, not nil")
	}
}

func TestLoadSelectionMalformed(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(DirPath(root), SelectionFile), "{not json")

	_, err := LoadSelection(root)
	if !errors.IsKind(err, errors.KindInvalid) {
		t.Fatalf("LoadSelection() error = %v, want kind %s", err, errors.KindInvalid)
	}
}

func TestLoadSelectionForwardCompatible(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(DirPath(root), SelectionFile), `{
  "packs": [{"name": "light-spec", "version": "1.0.0", "source": "built-in", "pinned": true}],
  "profiles": {"web": null},
  "future_field": {"x": 1}
}`)

	sel, err := LoadSelection(root)
	if err != nil {
		t.Fatalf("LoadSelection() error: %v", err)
	}
	want := []Pack{{Name: "light-spec", Version: "1.0.0", Source: SourceBuiltin}}
	if diff := cmp.Diff(want, sel.Packs); diff != "" {
		t.Errorf("Packs mismatch (-want +got):\n%s", diff)
	}
	if got := sel.Profiles["web"]; got == nil || len(got) != 0 {
		t.Errorf("Profiles[web] = %#v, want empty slice", got)
	}
}

func TestSaveSelectionRoundTrip(t *testing.T) {
	root := t.TempDir()

	sel := NewSelection()
	sel.AddPack(Pack{Name: "a", Version: "1.0.0", Source: SourceBuiltin})
	sel.AddPack(Pack{Name: "b", Version: "0.2.0", Source: SourceCommunity, Slug: "alice/rules"})
	if err := sel.CreateProfile("web"); err != nil {
		t.Fatal(err)
	}
	if err := sel.AddToProfile("b", "web"); err != nil {
		t.Fatal(err)
	}

	if err := SaveSelection(root, sel); err != nil {
		t.Fatalf("SaveSelection() error: %v", err)
	}

	got, err := LoadSelection(root)
	if err != nil {
		t.Fatalf("LoadSelection() error: %v", err)
	}
	if diff := cmp.Diff(sel, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	if got.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", got.SchemaVersion, SchemaVersion)
	}

	entries, err := os.ReadDir(DirPath(root))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != SelectionFile {
		t.Errorf("state dir should hold only %s after save, got %v", SelectionFile, entries)
	}
}

func TestAddPackReplacesInPlace(t *testing.T) {
	sel := NewSelection()
	sel.AddPack(Pack{Name: "a", Version: "1.0.0", Source: SourceBuiltin})
	sel.AddPack(Pack{Name: "b", Version: "1.0.0", Source: SourceBuiltin})
	sel.AddPack(Pack{Name: "a", Version: "2.0.0", Source: SourceBuiltin})

	if diff := cmp.Diff([]string{"a", "b"}, sel.PackNames()); diff != "" {
		t.Errorf("PackNames() mismatch (-want +got):\n%s", diff)
	}
	if p, _ := sel.Pack("a"); p.Version != "2.0.0" {
		t.Errorf("Pack(a).Version = %q, want %q", p.Version, "2.0.0")
	}
}

func TestRemovePackDropsProfileReferences(t *testing.T) {
	sel := NewSelection()
	sel.AddPack(Pack{Name: "a", Source: SourceBuiltin})
	sel.AddPack(Pack{Name: "b", Source: SourceBuiltin})
	_ = sel.CreateProfile("one")
	_ = sel.CreateProfile("two")
	_ = sel.AddToProfile("a", "one")
	_ = sel.AddToProfile("b", "one")
	_ = sel.AddToProfile("a", "two")

	if !sel.RemovePack("a") {
		t.Fatal("RemovePack(a) = false, want true")
	}
	if sel.RemovePack("a") {
		t.Error("second RemovePack(a) = true, want false")
	}

	want := map[string][]string{"one": {"b"}, "two": {}}
	if diff := cmp.Diff(want, sel.Profiles); diff != "" {
		t.Errorf("Profiles mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileOperations(t *testing.T) {
	sel := NewSelection()
	sel.AddPack(Pack{Name: "a", Source: SourceBuiltin})

	tests := []struct {
		name string
		op   func() error
		want errors.Kind
	}{
		{"create", func() error { return sel.CreateProfile("p") }, ""},
		{"create duplicate", func() error { return sel.CreateProfile("p") }, errors.KindConflict},
		{"create empty", func() error { return sel.CreateProfile("") }, errors.KindInvalid},
		{"add installed", func() error { return sel.AddToProfile("a", "p") }, ""},
		{"add again", func() error { return sel.AddToProfile("a", "p") }, ""},
		{"add uninstalled", func() error { return sel.AddToProfile("zzz", "p") }, errors.KindNotFound},
		{"add to missing profile", func() error { return sel.AddToProfile("a", "nope") }, errors.KindNotFound},
		{"remove present", func() error { return sel.RemoveFromProfile("a", "p") }, ""},
		{"remove absent", func() error { return sel.RemoveFromProfile("a", "p") }, errors.KindNotFound},
		{"delete", func() error { return sel.DeleteProfile("p") }, ""},
		{"delete missing", func() error { return sel.DeleteProfile("p") }, errors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.IsKind(err, tt.want) {
				t.Fatalf("error = %v, want kind %s", err, tt.want)
			}
		})
	}
}

func TestAddToProfileKeepsSingleEntry(t *testing.T) {
	sel := NewSelection()
	sel.AddPack(Pack{Name: "a", Source: SourceBuiltin})
	_ = sel.CreateProfile("p")
	_ = sel.AddToProfile("a", "p")
	_ = sel.AddToProfile("a", "p")

	if diff := cmp.Diff([]string{"a"}, sel.Profiles["p"]); diff != "" {
		t.Errorf("Profiles[p] mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileNamesSorted(t *testing.T) {
	sel := NewSelection()
	for _, name := range []string{"web", "api", "mobile"} {
		_ = sel.CreateProfile(name)
	}

	if diff := cmp.Diff([]string{"api", "mobile", "web"}, sel.ProfileNames()); diff != "" {
		t.Errorf("ProfileNames() mismatch (-want +got):\n%s", diff)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}
