package patreon

import (
	"fmt"
	"net/url"
	"strings"
)

const DefaultAPIURL = "https://api.patreon.com/stream?json-api-version=1.0"

type FieldSet struct {
	Type   string
	Fields []string
}

type Filter struct {
	Key   string
	Value any
}

// Query describes a single stream request. It is a value type; the With*
// methods return modified copies.
type Query struct {
	BaseURL string
	Fields  []FieldSet
	Filters []Filter
}

func NewQuery(creatorID string) Query {
	return Query{
		BaseURL: DefaultAPIURL,
		Fields: []FieldSet{
			{
				Type: "post",
				Fields: []string{
					"post_type",
					"title",
					"content",
					"min_cents_pledged_to_view",
					"published_at",
					"url",
					"post_file",
					"image",
					"thumbnail_url",
					"embed",
				},
			},
			{
				Type:   "user",
				Fields: []string{"image_url", "full_name", "url"},
			},
		},
		Filters: []Filter{
			{Key: "is_by_creator", Value: true},
			{Key: "is_following", Value: false},
			{Key: "creator_id", Value: creatorID},
			{Key: "contains_exclusive_posts", Value: true},
		},
	}
}

func (q Query) WithCreatorID(id string) Query {
	return q.WithFilter("creator_id", id)
}

func (q Query) WithBaseURL(baseURL string) Query {
	q.BaseURL = baseURL
	return q
}

// WithFilter sets key to value, replacing an existing filter in place or
// appending a new one.
func (q Query) WithFilter(key string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)

	for i := range filters {
		if filters[i].Key == key {
			filters[i].Value = value
			q.Filters = filters
			return q
		}
	}

	q.Filters = append(filters, Filter{Key: key, Value: value})
	return q
}

func (q Query) CreatorID() string {
	for _, f := range q.Filters {
		if f.Key == "creator_id" {
			return formatValue(f.Value)
		}
	}
	return ""
}

func (q Query) URL() string {
	var b strings.Builder
	b.WriteString(q.BaseURL)

	for _, set := range q.Fields {
		b.WriteString("&fields[")
		b.WriteString(set.Type)
		b.WriteString("]=")
		b.WriteString(url.PathEscape(strings.Join(set.Fields, ",")))
	}

	for _, f := range q.Filters {
		b.WriteString("&filter[")
		b.WriteString(f.Key)
		b.WriteString("]=")
		b.WriteString(url.QueryEscape(formatValue(f.Value)))
	}

	b.WriteString("&page[cursor]=null")

	return b.String()
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
