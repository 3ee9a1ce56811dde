package feed

import (
	"bytes"
	"html"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/lysyi3m/patreon-rss/app/patreon"
)

const channelTitleSuffix = " Patreon Posts"

type Generator struct {
	location *time.Location
}

func NewGenerator() *Generator {
	return &Generator{location: time.Local}
}

// In sets the time zone pubDate values are rendered in.
func (g *Generator) In(loc *time.Location) *Generator {
	g.location = loc
	return g
}

func (g *Generator) Run(resp *patreon.Response) (string, error) {
	var buf bytes.Buffer
	g.render(&buf, resp)
	return buf.String(), nil
}

func (g *Generator) Write(w io.Writer, resp *patreon.Response) error {
	var buf bytes.Buffer
	g.render(&buf, resp)
	_, err := buf.WriteTo(w)
	return err
}

func (g *Generator) render(buf *bytes.Buffer, resp *patreon.Response) {
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(buf, "title", resp.Campaign.String("creation_name")+channelTitleSuffix, 4)
	g.writeElement(buf, "description", stripTags(resp.Campaign.String("summary")), 4)
	g.writeElement(buf, "link", resp.User.String("url"), 4)

	for _, post := range resp.Posts {
		g.writeItem(buf, post)
	}

	buf.WriteString("  </channel>\n</rss>\n")
}

func (g *Generator) writeItem(buf *bytes.Buffer, post patreon.Record) {
	buf.WriteString("    <item>\n")

	link := post.String("url")
	g.writeElement(buf, "title", post.String("title"), 6)
	g.writeElement(buf, "description", post.String("content"), 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "guid", link, 6)
	g.writeElement(buf, "pubDate", g.formatDate(post.String("published_at")), 6)

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	buf.WriteString(html.EscapeString(sanitizeXML(content)))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// sanitizeXML drops characters XML 1.0 does not allow, such as control
// bytes below 0x20 other than tab and newlines. Invalid UTF-8 becomes U+FFFD.
func sanitizeXML(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == 0x9 || r == 0xA || r == 0xD:
		case r >= 0x20 && r <= 0xD7FF:
		case r >= 0xE000 && r <= 0xFFFD:
		case r >= 0x10000 && r <= 0x10FFFF:
		default:
			return -1
		}
		return r
	}, s)
}

// formatDate renders value as RFC 2822. Values that cannot be parsed fall
// back to the Unix epoch.
func (g *Generator) formatDate(value string) string {
	t := time.Unix(0, 0)
	if value != "" {
		if parsed, err := dateparse.ParseAny(value); err == nil {
			t = parsed
		}
	}
	return t.In(g.location).Format(time.RFC1123Z)
}

func stripTags(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}
