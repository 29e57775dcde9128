package generator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	sitemapFileName = "sitemap.xml"
	robotsFileName  = "robots.txt"

	sitemapContentType = "application/xml; charset=utf-8"
	robotsContentType  = "text/plain; charset=utf-8"
)

// sitemapEntry is one url element. Location must be absolute.
type sitemapEntry struct {
	Location string
	LastMod  time.Time
}

// writeSitemap emits sitemap.xml covering every document in the build set,
// skipped ones included, plus the archive pages.
func (s *service) writeSitemap(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext, archiveURLs []string) error {
	entries := make([]sitemapEntry, 0, len(buildCtx.Documents)+len(archiveURLs))
	for _, data := range buildCtx.Documents {
		entries = append(entries, sitemapEntry{
			Location: buildCtx.Site.AbsoluteURL(data.URL),
			LastMod:  data.Metadata.LastModified,
		})
	}
	for _, url := range archiveURLs {
		entries = append(entries, sitemapEntry{
			Location: buildCtx.Site.AbsoluteURL(url),
			LastMod:  buildCtx.GeneratedAt,
		})
	}

	content := buildSitemap(entries, buildCtx.GeneratedAt)
	if err := ensureDir(ctx, writer, dirCache, "."); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        sitemapFileName,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Collection:  collectionSitemap,
		ContentType: sitemapContentType,
		Checksum:    computeHashFromString(content),
	})
}

// writeRobots emits robots.txt, advertising the sitemap when one is built.
func (s *service) writeRobots(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext) error {
	content := buildRobots(buildCtx.Site.AbsoluteURL(sitemapFileName), s.cfg.GenerateSitemap)
	if err := ensureDir(ctx, writer, dirCache, "."); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        robotsFileName,
		Content:     strings.NewReader(content),
		Size:        int64(len(content)),
		Collection:  collectionRobots,
		ContentType: robotsContentType,
		Checksum:    computeHashFromString(content),
	})
}

// buildSitemap renders the urlset, deduplicating locations and sorting them
// for stable output. Entries without a modification time fall back to the
// build timestamp.
func buildSitemap(entries []sitemapEntry, fallback time.Time) string {
	seen := make(map[string]struct{}, len(entries))
	unique := make([]sitemapEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Location == "" {
			continue
		}
		if _, ok := seen[entry.Location]; ok {
			continue
		}
		seen[entry.Location] = struct{}{}
		unique = append(unique, entry)
	}
	sort.Slice(unique, func(i, j int) bool {
		return unique[i].Location < unique[j].Location
	})

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, entry := range unique {
		lastMod := entry.LastMod
		if lastMod.IsZero() {
			lastMod = fallback
		}
		builder.WriteString("  <url>\n")
		builder.WriteString(fmt.Sprintf("    <loc>%s</loc>\n", escapeXML(entry.Location)))
		builder.WriteString(fmt.Sprintf("    <lastmod>%s</lastmod>\n", lastMod.UTC().Format(time.RFC3339)))
		builder.WriteString("  </url>\n")
	}
	builder.WriteString("</urlset>\n")
	return builder.String()
}

// buildRobots renders a permissive robots.txt.
func buildRobots(sitemapURL string, includeSitemap bool) string {
	var builder strings.Builder
	builder.WriteString("User-agent: *\n")
	builder.WriteString("Allow: /\n")
	if includeSitemap && sitemapURL != "" {
		builder.WriteString(fmt.Sprintf("Sitemap: %s\n", sitemapURL))
	}
	return builder.String()
}
