package assistants

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Strategy is a rendering layout.
type Strategy int

const (
	Concatenate Strategy = iota
	FlattenAndNumber
	PreserveHierarchy
	ModePartitioned
)

func (s Strategy) String() string {
	switch s {
	case Concatenate:
		return "concatenate"
	case FlattenAndNumber:
		return "flatten-and-number"
	case PreserveHierarchy:
		return "preserve-hierarchy"
	case ModePartitioned:
		return "mode-partitioned"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// StrategyFor derives the strategy from a spec's capability flags.
func StrategyFor(s Spec) Strategy {
	switch {
	case !s.MultiFile:
		return Concatenate
	case s.HasModes:
		return ModePartitioned
	case s.SupportsSubdirectories:
		return PreserveHierarchy
	default:
		return FlattenAndNumber
	}
}

// renderFunc writes the staged tree to target and returns the files it
// wrote. For Concatenate, target is the output file; otherwise it is the
// output directory.
type renderFunc func(spec Spec, staged, target string) ([]string, error)

var renderers = map[Strategy]renderFunc{
	Concatenate:       renderConcatenated,
	FlattenAndNumber:  renderFlattened,
	PreserveHierarchy: renderHierarchy,
	ModePartitioned:   renderModes,
}

const (
	ruleHeader    = "# Rule: %s\n\n"
	ruleSeparator = "\n\n---\n\n"
)

var numericPrefix = regexp.MustCompile(`^\d+-`)

// stripNumericPrefix removes a leading "<digits>-".
func stripNumericPrefix(name string) string {
	return numericPrefix.ReplaceAllString(name, "")
}

func renderConcatenated(_ Spec, staged, target string) ([]string, error) {
	files, err := orderedFiles(staged)
	if err != nil || len(files) == 0 {
		return nil, err
	}

	var b strings.Builder
	for i, rel := range files {
		data, err := os.ReadFile(filepath.Join(staged, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", rel, err)
		}
		fmt.Fprintf(&b, ruleHeader, path.Base(rel))
		b.Write(data)
		if i < len(files)-1 {
			b.WriteString(ruleSeparator)
		}
	}

	if err := writeOutput(target, []byte(b.String()), 0644); err != nil {
		return nil, err
	}
	return []string{target}, nil
}

func renderFlattened(spec Spec, staged, target string) ([]string, error) {
	files, err := orderedFiles(staged)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for i, rel := range files {
		base := path.Base(rel)
		stem := stripNumericPrefix(strings.TrimSuffix(base, path.Ext(base)))
		name := fmt.Sprintf("%02d-%s%s", i+1, stem, spec.Extension)

		dst := filepath.Join(target, name)
		if err := copyOutput(filepath.Join(staged, filepath.FromSlash(rel)), dst); err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}

func renderHierarchy(_ Spec, staged, target string) ([]string, error) {
	files, err := orderedFiles(staged)
	if err != nil {
		return nil, err
	}

	written := make([]string, 0, len(files))
	for _, rel := range files {
		dst := filepath.Join(target, filepath.FromSlash(rel))
		if err := copyOutput(filepath.Join(staged, filepath.FromSlash(rel)), dst); err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}

func renderModes(spec Spec, staged, target string) ([]string, error) {
	entries, err := os.ReadDir(staged)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", staged, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var written []string
	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}
		mode := stripNumericPrefix(entry.Name())
		files, err := renderHierarchy(spec, filepath.Join(staged, entry.Name()), filepath.Join(target, mode))
		written = append(written, files...)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// orderedFiles lists the regular files under root as slash-separated
// relative paths, sorted component by component. Hidden files and
// directories are skipped.
func orderedFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if p == root {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	sort.Slice(files, func(i, j int) bool { return lessPath(files[i], files[j]) })
	return files, nil
}

// lessPath orders slash paths segment by segment, so "a/x" sorts before
// "a-b/x".
func lessPath(a, b string) bool {
	as := strings.Split(a, "/")
	bs := strings.Split(b, "/")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func copyOutput(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", src, err)
	}
	return writeOutput(dst, data, info.Mode().Perm())
}

func writeOutput(dst string, data []byte, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(dst), err)
	}
	if err := os.WriteFile(dst, data, perm); err != nil {
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return nil
}
