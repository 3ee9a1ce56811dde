package api

import (
	"time"

	"github.com/lysyi3m/patreon-rss/app/feed"
)

type Handler struct {
	feed        *feed.Feed
	configCache *feed.ConfigCache
	creators    feed.Store
	feeds       feed.Store
	maxAge      time.Duration
	timeout     time.Duration
}
