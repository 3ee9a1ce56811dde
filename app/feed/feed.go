package feed

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/lysyi3m/patreon-rss/app/patreon"
)

type Fetcher interface {
	Fetch(ctx context.Context, q patreon.Query) (*patreon.Response, error)
}

// Store is a best-effort document cache keyed by creator id.
type Store interface {
	Get(key string, maxAge time.Duration) ([]byte, bool)
	Set(key string, data []byte) error
}

// Feed renders one creator's post stream as RSS.
type Feed struct {
	query     patreon.Query
	fetcher   Fetcher
	generator *Generator
	filterer  *Filterer
	config    *Config
}

func NewFeed(fetcher Fetcher, query patreon.Query, generator *Generator) *Feed {
	return &Feed{
		query:     query,
		fetcher:   fetcher,
		generator: generator,
		filterer:  NewFilterer(),
	}
}

func (f *Feed) CreatorID() string {
	return f.query.CreatorID()
}

// WithCreatorID returns a copy of f scoped to another creator.
func (f *Feed) WithCreatorID(id string) *Feed {
	c := *f
	c.query = f.query.WithCreatorID(id)
	return &c
}

// WithConfig returns a copy of f bound to a named feed definition: its
// creator id, filters and item limit.
func (f *Feed) WithConfig(feedConfig *Config) *Feed {
	c := *f
	c.query = f.query.WithCreatorID(feedConfig.CreatorID)
	c.config = feedConfig
	return &c
}

// cacheKey is the creator id, or the feed name for named feeds since their
// filters make the document differ from the creator's plain stream. Named
// feeds and creator feeds therefore need separate stores.
func (f *Feed) cacheKey() string {
	if f.config != nil && f.config.Name != "" {
		return f.config.Name
	}
	return f.CreatorID()
}

func (f *Feed) Data(ctx context.Context) (*patreon.Response, error) {
	resp, err := f.fetcher.Fetch(ctx, f.query)
	if err != nil {
		return nil, err
	}

	if f.config != nil {
		resp.Posts = f.filterer.Run(resp.Posts, f.config)
	}

	return resp, nil
}

// RSS fetches the stream and writes the rendered document to w.
func (f *Feed) RSS(ctx context.Context, w io.Writer) error {
	resp, err := f.Data(ctx)
	if err != nil {
		return err
	}
	return f.generator.Write(w, resp)
}

// CachedRSS serves a document from store when it is younger than maxAge.
// Otherwise it renders a fresh one, tries to store it and writes it to w
// whether or not storing succeeded.
func (f *Feed) CachedRSS(ctx context.Context, w io.Writer, store Store, maxAge time.Duration) error {
	key := f.cacheKey()

	if data, ok := store.Get(key, maxAge); ok {
		slog.Debug("Cache hit", "key", key)
		_, err := w.Write(data)
		return err
	}

	slog.Debug("Cache miss", "key", key)

	var buf bytes.Buffer
	if err := f.RSS(ctx, &buf); err != nil {
		return fmt.Errorf("failed to render feed: %w", err)
	}

	if err := store.Set(key, buf.Bytes()); err != nil {
		slog.Warn("Failed to write cache", "key", key, "error", err)
	}

	_, err := buf.WriteTo(w)
	return err
}
