package scaffold

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/manifest"
)

const templatesRoot = "templates/pack"

// Data holds all template variables available to pack templates.
type Data struct {
	Name    string // e.g., "go-service"
	Version string // Semver, e.g., "0.1.0"
	Summary string // One-line description
	Author  string // May be empty
	CLIName string
	Year    int
}

// Result holds the outcome of a scaffold generation.
type Result struct {
	OutputDir string
	Files     []string // slash-separated, relative to OutputDir
	Warnings  []string
}

// NewData creates Data with defaults populated.
func NewData(name string) *Data {
	return &Data{
		Name:    name,
		Version: "0.1.0",
		Summary: fmt.Sprintf("Rules for %s", name),
		CLIName: branding.CLIName(),
		Year:    time.Now().Year(),
	}
}

var funcs = template.FuncMap{
	"quote": strconv.Quote,
}

// Generate writes a new pack skeleton into outputDir. The directory may
// exist but must be empty. The generated manifest is validated and any
// issues are reported as warnings.
func Generate(data *Data, outputDir string) (*Result, error) {
	if !manifest.ValidName(data.Name) {
		return nil, errors.Newf(errors.KindInvalid, "invalid pack name %q", data.Name)
	}

	if entries, err := os.ReadDir(outputDir); err == nil && len(entries) > 0 {
		return nil, errors.Newf(errors.KindConflict, "output directory %s is not empty; remove existing files first", outputDir)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "creating output directory")
	}

	result := &Result{OutputDir: outputDir}

	err := fs.WalkDir(scaffoldFS, templatesRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, templatesRoot), "/")
		if rel == "" {
			return nil
		}
		outPath := filepath.Join(outputDir, filepath.FromSlash(strings.TrimSuffix(rel, ".tmpl")))
		if d.IsDir() {
			return os.MkdirAll(outPath, 0755)
		}

		content, err := render(p, data)
		if err != nil {
			return err
		}
		if err := os.WriteFile(outPath, content, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outPath, err)
		}
		result.Files = append(result.Files, strings.TrimSuffix(rel, ".tmpl"))
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "generating pack %q", data.Name)
	}

	// Validate the generated manifest against JSON Schema.
	valResult, valErr := manifest.ValidateFile(filepath.Join(outputDir, manifest.FileName))
	if valErr != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not validate manifest: %v", valErr))
	} else if !valResult.Valid {
		for _, issue := range valResult.Issues {
			msg := issue.Message
			if issue.Path != "" {
				msg = issue.Path + ": " + msg
			}
			result.Warnings = append(result.Warnings, msg)
		}
	}

	return result, nil
}

// render executes a template file. Files without the .tmpl suffix are
// copied verbatim.
func render(name string, data *Data) ([]byte, error) {
	raw, err := fs.ReadFile(scaffoldFS, name)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", name, err)
	}
	if !strings.HasSuffix(name, ".tmpl") {
		return raw, nil
	}

	tmpl, err := template.New(path.Base(name)).Funcs(funcs).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
