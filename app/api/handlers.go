package api

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/patreon-rss/app/feed"
)

const rssContentType = "application/rss+xml; charset=utf-8"

// NewHandler wires the HTTP handlers. Ad-hoc creator feeds are cached in
// creators keyed by creator id, named feeds in feeds keyed by feed name;
// the two stores must not share a directory. maxAge and timeout apply to
// ad-hoc creator feeds; named feeds use their own settings.
func NewHandler(baseFeed *feed.Feed, configCache *feed.ConfigCache, creators, feeds feed.Store,
	maxAge, timeout time.Duration) *Handler {
	return &Handler{
		feed:        baseFeed,
		configCache: configCache,
		creators:    creators,
		feeds:       feeds,
		maxAge:      maxAge,
		timeout:     timeout,
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	name := c.Param("name")
	if name == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	feedConfig, ok := h.configCache.Lookup(name)
	if !ok {
		slog.Warn("Feed configuration not found", "feed", name)
		c.Status(http.StatusNotFound)
		return
	}

	if !feedConfig.Settings.Enabled {
		c.Status(http.StatusNotFound)
		return
	}

	maxAge := time.Duration(feedConfig.Settings.MaxAge) * time.Second
	timeout := time.Duration(feedConfig.Settings.Timeout) * time.Second

	h.render(c, h.feed.WithConfig(feedConfig), h.feeds, name, maxAge, timeout)
}

func (h *Handler) GetCreatorFeed(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Status(http.StatusBadRequest)
		return
	}

	h.render(c, h.feed.WithCreatorID(id), h.creators, id, h.maxAge, h.timeout)
}

func (h *Handler) render(c *gin.Context, f *feed.Feed, store feed.Store, name string, maxAge, timeout time.Duration) {
	ctx := c.Request.Context()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var buf bytes.Buffer
	if err := f.CachedRSS(ctx, &buf, store, maxAge); err != nil {
		slog.Error("RSS generation error", "feed", name, "creator_id", f.CreatorID(), "error", err)
		c.Status(http.StatusBadGateway)
		return
	}

	c.Header("X-Feed-Name", name)
	c.Header("X-Feed-Creator", f.CreatorID())
	c.Header("X-Feed-Max-Age", strconv.Itoa(int(maxAge.Seconds())))

	c.Data(http.StatusOK, rssContentType, buf.Bytes())
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp":             time.Now().In(time.Local).Format(time.RFC3339),
		"loaded_configurations": h.configCache.Count(),
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) ListFeeds(c *gin.Context) {
	configs := h.configCache.Configs()

	feeds := make([]map[string]interface{}, 0, len(configs))
	for _, feedConfig := range configs {
		feeds = append(feeds, map[string]interface{}{
			"name":       feedConfig.Name,
			"creator_id": feedConfig.CreatorID,
			"enabled":    feedConfig.Settings.Enabled,
			"max_age":    (time.Duration(feedConfig.Settings.MaxAge) * time.Second).String(),
			"max_items":  feedConfig.Settings.MaxItems,
			"filters":    len(feedConfig.Filters),
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"feeds": feeds,
		"total": len(feeds),
	})
}
