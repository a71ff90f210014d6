package community

import (
	"archive/tar"
	"compress/gzip"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rulebook-labs/rulebook/internal/errors"
)

// maxEntrySize caps a single extracted file.
const maxEntrySize = 32 << 20

// Fetch downloads the repository behind slug and extracts it into a
// temporary directory. It returns the pack directory inside the
// extraction and a cleanup func that removes the whole extraction.
func (c *Client) Fetch(ctx context.Context, slug string) (string, func(), error) {
	s, err := ParseSlug(slug)
	if err != nil {
		return "", nil, err
	}

	url := strings.NewReplacer("{username}", s.Username, "{repo}", s.Repo).Replace(c.archiveURL)
	c.log.Debug().Str("slug", slug).Str("url", url).Msg("Fetching community pack")

	body, err := c.get(ctx, url)
	if err != nil {
		return "", nil, fmt.Errorf("fetching %s: %w", slug, err)
	}
	defer body.Close()

	tmp, err := os.MkdirTemp("", "rulebook-pack-*")
	if err != nil {
		return "", nil, errors.Wrap(err, errors.KindIO, "creating temp directory")
	}
	cleanup := func() { os.RemoveAll(tmp) }

	if err := extractTarGz(body, tmp); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("extracting %s: %w", slug, err)
	}

	dir := filepath.Join(tmp, filepath.FromSlash(s.Path))
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		cleanup()
		return "", nil, errors.Newf(errors.KindNotFound, "path %q not found in %s/%s", s.Path, s.Username, s.Repo)
	}
	return dir, cleanup, nil
}

// extractTarGz unpacks r into dest, dropping the single top-level directory
// that repository archives wrap their content in. Entries that would land
// outside dest and anything other than regular files and directories are
// skipped.
func extractTarGz(r io.Reader, dest string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, errors.KindInvalid, "creating gzip reader")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if stderrors.Is(err, tar.ErrInsecurePath) {
			continue
		}
		if err != nil {
			return errors.Wrap(err, errors.KindInvalid, "reading tar entry")
		}

		rel := stripTopLevel(hdr.Name)
		if rel == "" {
			continue
		}
		target := filepath.Join(dest, filepath.FromSlash(rel))
		if !within(dest, target) {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrap(err, errors.KindIO, "creating directory")
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, hdr.Size); err != nil {
				return err
			}
		}
	}
}

func writeEntry(r io.Reader, target string, size int64) error {
	if size > maxEntrySize {
		return errors.Newf(errors.KindInvalid, "%s exceeds %d bytes", filepath.Base(target), maxEntrySize)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrap(err, errors.KindIO, "creating directory")
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return errors.Wrapf(err, errors.KindIO, "creating %s", target)
	}
	if _, err := io.Copy(out, io.LimitReader(r, maxEntrySize)); err != nil {
		out.Close()
		return errors.Wrapf(err, errors.KindIO, "writing %s", target)
	}
	return out.Close()
}

func stripTopLevel(name string) string {
	name = strings.TrimPrefix(filepath.ToSlash(name), "./")
	_, rest, found := strings.Cut(name, "/")
	if !found {
		return ""
	}
	return strings.TrimSuffix(rest, "/")
}

func within(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
