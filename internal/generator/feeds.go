package generator

import (
	"context"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

const (
	defaultFeedLimit = 20

	atomFeedPath = "/feed.xml"
	rssFeedPath  = "/rss.xml"

	atomContentType = "application/atom+xml; charset=utf-8"
	rssContentType  = "application/rss+xml; charset=utf-8"
)

// feedItem is one syndicated entry, shared by the Atom and RSS builders.
// Links are absolute.
type feedItem struct {
	Title       string
	Summary     string
	Link        string
	GUID        string
	Categories  []string
	PublishedAt time.Time
	UpdatedAt   time.Time
}

// writeFeeds emits the site-wide Atom and RSS feeds plus one Atom feed per
// category at feed.xml under the category's archive URL.
func (s *service) writeFeeds(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext) error {
	items := s.feedItems(buildCtx.Site, buildCtx.Posts)

	atom := buildAtomFeed(buildCtx.Site, buildCtx.Site.Title, atomFeedPath, items, buildCtx.GeneratedAt)
	if err := s.writeFeed(ctx, writer, dirCache, strings.TrimPrefix(atomFeedPath, "/"), atom, atomContentType); err != nil {
		return err
	}

	rss := buildRSSFeed(buildCtx.Site, items, buildCtx.GeneratedAt)
	if err := s.writeFeed(ctx, writer, dirCache, strings.TrimPrefix(rssFeedPath, "/"), rss, rssContentType); err != nil {
		return err
	}

	for _, category := range buildCtx.Categories {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		title := category.Name
		if buildCtx.Site.Title != "" {
			title = buildCtx.Site.Title + " / " + category.Name
		}
		selfPath := path.Join(category.URL, "feed.xml")
		categoryAtom := buildAtomFeed(buildCtx.Site, title, "/"+strings.TrimPrefix(selfPath, "/"), s.feedItems(buildCtx.Site, category.Posts), buildCtx.GeneratedAt)
		if err := s.writeFeed(ctx, writer, dirCache, strings.TrimPrefix(selfPath, "/"), categoryAtom, atomContentType); err != nil {
			return err
		}
	}

	s.logger.Debug("generator.feeds_written", "categories", len(buildCtx.Categories))
	return nil
}

func (s *service) writeFeed(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, output, content, contentType string) error {
	if err := ensureDir(ctx, writer, dirCache, path.Dir(output)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        output,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Collection:  collectionFeed,
		ContentType: contentType,
		Checksum:    computeHashFromString(content),
	})
}

// feedItems converts the newest posts into feed entries, capped at the
// configured limit.
func (s *service) feedItems(cfg site.Config, posts []*interfaces.Post) []feedItem {
	limit := s.cfg.FeedLimit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	items := make([]feedItem, 0, limit)
	for _, post := range posts {
		if len(items) >= limit {
			break
		}

		summary := post.Description
		if summary == "" {
			summary = post.Excerpt
		}
		link := cfg.AbsoluteURL(post.URL)
		updated := post.LastModified
		if updated.Before(post.Date) {
			updated = post.Date
		}

		items = append(items, feedItem{
			Title:       post.Title,
			Summary:     normalizeWhitespace(summary),
			Link:        link,
			GUID:        link,
			Categories:  post.Categories,
			PublishedAt: post.Date,
			UpdatedAt:   updated,
		})
	}
	return items
}

// buildAtomFeed renders an Atom 1.0 feed document.
func buildAtomFeed(cfg site.Config, title, selfPath string, items []feedItem, generatedAt time.Time) string {
	feedID := cfg.AbsoluteURL(selfPath)
	homeLink := cfg.AbsoluteURL("/")

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(title)))
	if cfg.Description != "" {
		builder.WriteString(fmt.Sprintf("  <subtitle>%s</subtitle>\n", escapeXML(cfg.Description)))
	}
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(homeLink)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXMLAttr(feedID)))
	if cfg.Author.Name != "" {
		builder.WriteString("  <author>\n")
		builder.WriteString(fmt.Sprintf("    <name>%s</name>\n", escapeXML(cfg.Author.Name)))
		if cfg.Author.Email != "" {
			builder.WriteString(fmt.Sprintf("    <email>%s</email>\n", escapeXML(cfg.Author.Email)))
		}
		builder.WriteString("  </author>\n")
	}

	for _, item := range items {
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf(`    <link rel="alternate" href="%s" />`+"\n", escapeXMLAttr(item.Link)))
		builder.WriteString(fmt.Sprintf("    <published>%s</published>\n", item.PublishedAt.UTC().Format(time.RFC3339)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", item.UpdatedAt.UTC().Format(time.RFC3339)))
		for _, category := range item.Categories {
			builder.WriteString(fmt.Sprintf(`    <category term="%s" />`+"\n", escapeXMLAttr(category)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("    <summary>%s</summary>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("  </entry>\n")
	}

	builder.WriteString("</feed>\n")
	return builder.String()
}

// buildRSSFeed renders an RSS 2.0 feed document.
func buildRSSFeed(cfg site.Config, items []feedItem, generatedAt time.Time) string {
	homeLink := cfg.AbsoluteURL("/")

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<rss version="2.0">` + "\n")
	builder.WriteString("  <channel>\n")
	builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(cfg.Title)))
	builder.WriteString(fmt.Sprintf("    <link>%s</link>\n", escapeXML(homeLink)))
	builder.WriteString(fmt.Sprintf("    <description>%s</description>\n", escapeXML(cfg.Description)))
	builder.WriteString(fmt.Sprintf("    <lastBuildDate>%s</lastBuildDate>\n", generatedAt.UTC().Format(time.RFC1123Z)))

	for _, item := range items {
		builder.WriteString("    <item>\n")
		builder.WriteString(fmt.Sprintf("      <title>%s</title>\n", escapeXML(item.Title)))
		builder.WriteString(fmt.Sprintf("      <link>%s</link>\n", escapeXML(item.Link)))
		builder.WriteString(fmt.Sprintf(`      <guid isPermaLink="true">%s</guid>`+"\n", escapeXML(item.GUID)))
		builder.WriteString(fmt.Sprintf("      <pubDate>%s</pubDate>\n", item.PublishedAt.UTC().Format(time.RFC1123Z)))
		for _, category := range item.Categories {
			builder.WriteString(fmt.Sprintf("      <category>%s</category>\n", escapeXML(category)))
		}
		if item.Summary != "" {
			builder.WriteString(fmt.Sprintf("      <description>%s</description>\n", escapeXML(item.Summary)))
		}
		builder.WriteString("    </item>\n")
	}

	builder.WriteString("  </channel>\n")
	builder.WriteString("</rss>\n")
	return builder.String()
}

// normalizeWhitespace collapses runs of whitespace so markdown excerpts read
// as a single line inside feed summaries.
func normalizeWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}

func escapeXMLAttr(value string) string {
	return html.EscapeString(value)
}
