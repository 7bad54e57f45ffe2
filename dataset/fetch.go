package dataset

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/HayesJohnD/juliasilge/pkg/errors"
	"github.com/HayesJohnD/juliasilge/pkg/log"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// HTTP 429 responses. The delay doubles on each retry. Tests override this
// to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const (
	defaultMaxRetries  = 4
	defaultHTTPTimeout = 30 * time.Second
	defaultUserAgent   = "tidylearn/0.1 (https://github.com/HayesJohnD/juliasilge)"
)

// Fetcher downloads datasets named in a manifest, or arbitrary URLs, with
// rate-limit retries and an optional local snapshot cache.
type Fetcher struct {
	client     *http.Client
	userAgent  string
	manifest   *Manifest
	cache      *Cache
	maxRetries int
	force      bool
	logger     log.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient sets the HTTP client used for downloads.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithManifest sets the manifest used to resolve dataset names.
func WithManifest(m *Manifest) FetcherOption {
	return func(f *Fetcher) { f.manifest = m }
}

// WithCache attaches a snapshot cache. Fetches consult the cache before the
// network and store successful downloads.
func WithCache(c *Cache) FetcherOption {
	return func(f *Fetcher) { f.cache = c }
}

// WithMaxRetries sets how many times a 429 response is retried.
func WithMaxRetries(n int) FetcherOption {
	return func(f *Fetcher) { f.maxRetries = n }
}

// WithForce makes every fetch hit the network even when a cached snapshot
// exists. The refetched body still updates the cache.
func WithForce(force bool) FetcherOption {
	return func(f *Fetcher) { f.force = force }
}

// NewFetcher creates a Fetcher resolving names against the default manifest.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: defaultHTTPTimeout},
		userAgent:  defaultUserAgent,
		manifest:   DefaultManifest(),
		maxRetries: defaultMaxRetries,
		logger:     log.GetLoggerWithName("dataset.fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Resolve maps a dataset name to its manifest spec. A string containing a
// scheme separator is treated as a literal URL.
func (f *Fetcher) Resolve(name string) (DatasetSpec, error) {
	if f.manifest != nil {
		if spec, ok := f.manifest.Lookup(name); ok {
			return spec, nil
		}
	}
	if strings.Contains(name, "://") {
		return DatasetSpec{Name: name, URL: name}, nil
	}
	return DatasetSpec{}, errors.NewValidationError("name", "not in the manifest and not a URL", name)
}

// Fetch returns the raw bytes of the named dataset. Cached snapshots are
// served without touching the network unless the Fetcher was built with
// WithForce.
func (f *Fetcher) Fetch(ctx context.Context, name string) ([]byte, error) {
	spec, err := f.Resolve(name)
	if err != nil {
		return nil, err
	}
	logger := f.logger.With(log.DatasetKey, spec.Name, log.URLKey, spec.URL)

	if f.cache != nil && !f.force {
		snap, ok, err := f.cache.Get(ctx, spec.URL)
		if err != nil {
			return nil, errors.Wrapf(err, "cache lookup for dataset %s", spec.Name)
		}
		if ok {
			logger.Debug("serving dataset from cache",
				log.CacheHitKey, true,
				"bytes", len(snap.Body),
			)
			return snap.Body, nil
		}
	}

	start := time.Now()
	resp, err := f.do(ctx, spec.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "fetching dataset %s", spec.Name)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetching dataset %s: HTTP %d from %s", spec.Name, resp.StatusCode, spec.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading dataset %s", spec.Name)
	}

	logger.Info("dataset fetched",
		log.CacheHitKey, false,
		log.DurationMsKey, time.Since(start).Milliseconds(),
		"bytes", len(body),
	)

	if f.cache != nil {
		if _, err := f.cache.Put(ctx, spec.URL, body); err != nil {
			logger.Warn("cache write failed", "reason", err.Error())
		}
	}
	return body, nil
}

// FetchTable fetches the named dataset and parses it as CSV.
func (f *Fetcher) FetchTable(ctx context.Context, name string, opts ...CSVOption) (*Table, error) {
	body, err := f.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	t, err := ReadCSV(bytes.NewReader(body), opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing dataset %s", name)
	}
	return t, nil
}

// do performs the GET request, retrying 429 responses with exponential
// backoff. The delay starts at RetryBaseDelay and doubles per attempt. After
// exhausting retries the last 429 response is returned so the caller can
// inspect it. A context cancelled during a backoff wait returns ctx.Err().
func (f *Fetcher) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/csv")

	for attempt := 0; ; attempt++ {
		resp, err := f.client.Do(req.Clone(ctx))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= f.maxRetries {
			return resp, nil
		}

		// Drain and close the body before retrying.
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		backoff := RetryBaseDelay << attempt
		f.logger.Warn("rate limited, backing off",
			log.URLKey, url,
			"delay", backoff.String(),
			"attempt", attempt+1,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
}
