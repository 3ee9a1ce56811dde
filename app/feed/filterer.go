package feed

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/lysyi3m/patreon-rss/app/patreon"
)

var filterFields = map[string]bool{
	"title":     true,
	"content":   true,
	"url":       true,
	"post_type": true,
}

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run drops posts rejected by the configured filters and truncates the
// result to MaxItems. Order is preserved.
func (f *Filterer) Run(posts []patreon.Record, feedConfig *Config) []patreon.Record {
	if len(feedConfig.Filters) == 0 && feedConfig.Settings.MaxItems <= 0 {
		return posts
	}

	kept := make([]patreon.Record, 0, len(posts))
	for _, post := range posts {
		if isFiltered, reason := f.applyFilters(post, feedConfig.Filters); isFiltered {
			slog.Debug("Post filtered", "feed", feedConfig.Name, "url", post.String("url"), "reason", reason)
			continue
		}
		kept = append(kept, post)
	}

	if max := feedConfig.Settings.MaxItems; max > 0 && len(kept) > max {
		kept = kept[:max]
	}

	return kept
}

func (f *Filterer) applyFilters(post patreon.Record, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := post.String(filter.Field)

		for _, exclude := range filter.Excludes {
			if f.matchesFilter(value, exclude) {
				return true, fmt.Sprintf("Excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if f.matchesFilter(value, include) {
					matched = true
					break
				}
			}
			if !matched {
				return true, fmt.Sprintf("Excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return false, ""
}

func (f *Filterer) matchesFilter(value, pattern string) bool {
	return strings.Contains(strings.ToLower(value), strings.ToLower(pattern))
}
