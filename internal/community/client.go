package community

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rulebook-labs/rulebook/internal/branding"
	"github.com/rulebook-labs/rulebook/internal/errors"
	"github.com/rulebook-labs/rulebook/internal/logging"
)

// Client reads the community index and fetches community packs.
type Client struct {
	indexURL   string
	archiveURL string
	cachePath  string
	httpClient *http.Client
	log        zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithCachePath overrides where the index is cached.
func WithCachePath(path string) Option {
	return func(cl *Client) { cl.cachePath = path }
}

// WithArchiveURL overrides the archive URL template. {username} and
// {repo} are substituted per pack.
func WithArchiveURL(tmpl string) Option {
	return func(cl *Client) { cl.archiveURL = tmpl }
}

// WithLogger overrides the client logger.
func WithLogger(l zerolog.Logger) Option {
	return func(cl *Client) { cl.log = l }
}

// New returns a Client for the index at indexURL. When no cache path is
// given the XDG cache location is used.
func New(indexURL string, opts ...Option) *Client {
	c := &Client{
		indexURL:   indexURL,
		archiveURL: branding.ArchiveURL(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		log:        logging.GetLogger("community"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cachePath == "" {
		if path, err := DefaultCachePath(); err == nil {
			c.cachePath = path
		}
	}
	return c
}

// CachePath returns where the index is cached.
func (c *Client) CachePath() string {
	return c.cachePath
}

// Update downloads the index and replaces the cache.
func (c *Client) Update(ctx context.Context) (*Index, error) {
	body, err := c.get(ctx, c.indexURL)
	if err != nil {
		return nil, fmt.Errorf("downloading community index: %w", err)
	}
	defer body.Close()

	var idx Index
	if err := json.NewDecoder(body).Decode(&idx); err != nil {
		return nil, errors.Wrap(err, errors.KindInvalid, "parsing community index")
	}
	idx.FetchedAt = time.Now().UTC()

	if err := saveIndex(c.cachePath, &idx); err != nil {
		return nil, err
	}
	c.log.Info().Int("packs", len(idx.Packs)).Str("cache", c.cachePath).Msg("Community index updated")
	return &idx, nil
}

// LoadIndex returns the cached index, or an empty one when nothing has
// been cached yet.
func (c *Client) LoadIndex() (*Index, error) {
	return loadIndex(c.cachePath)
}

// Lookup returns the slug of the pack named name. The cached index is
// refreshed first when it is stale.
func (c *Client) Lookup(ctx context.Context, name string) (string, error) {
	idx, err := c.LoadIndex()
	if err != nil {
		return "", err
	}
	if idx.IsStale(DefaultMaxAge) {
		if fresh, err := c.Update(ctx); err != nil {
			c.log.Warn().Err(err).Msg("Could not refresh community index, using cache")
		} else {
			idx = fresh
		}
	}

	entry, ok := idx.Find(name)
	if !ok {
		return "", errors.Newf(errors.KindNotFound, "pack %q not found in the built-in library or the community index", name)
	}
	return entry.Slug(), nil
}

func (c *Client) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindInvalid, "creating request for %s", url)
	}
	req.Header.Set("User-Agent", branding.CLIName())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, errors.KindIO, "requesting %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		kind := errors.KindIO
		if resp.StatusCode == http.StatusNotFound {
			kind = errors.KindNotFound
		}
		return nil, errors.Newf(kind, "%s returned status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
