package generator

import (
	"strings"
	"testing"
	"time"

	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

func feedTestPosts(n int) []*interfaces.Post {
	posts := make([]*interfaces.Post, 0, n)
	for i := 0; i < n; i++ {
		date := time.Date(2015, time.June, 30-i, 0, 0, 0, 0, time.UTC)
		posts = append(posts, &interfaces.Post{
			Document: interfaces.Document{
				Title:      "Post " + string(rune('A'+i)),
				Date:       date,
				Excerpt:    "Summary for post " + string(rune('A'+i)) + ".",
				Categories: []string{"rails"},
			},
			URL: "/2015/06/post-" + string(rune('a'+i)) + "/",
		})
	}
	return posts
}

func TestFeedItemsCapsAtLimit(t *testing.T) {
	svc := testService(t)
	svc.cfg.FeedLimit = 3

	items := svc.feedItems(generatorSiteConfig(), feedTestPosts(5))
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	if items[0].Title != "Post A" {
		t.Fatalf("first item = %q, want newest", items[0].Title)
	}
	if items[0].Link != "https://brandall10.github.io/2015/06/post-a/" {
		t.Fatalf("link = %q", items[0].Link)
	}
	if items[0].GUID != items[0].Link {
		t.Fatalf("guid %q differs from link %q", items[0].GUID, items[0].Link)
	}
}

func TestFeedItemsPrefersDescription(t *testing.T) {
	svc := testService(t)
	posts := feedTestPosts(1)
	posts[0].Description = "A concise description."
	posts[0].LastModified = posts[0].Date.Add(48 * time.Hour)

	items := svc.feedItems(generatorSiteConfig(), posts)
	if items[0].Summary != "A concise description." {
		t.Fatalf("summary = %q", items[0].Summary)
	}
	if !items[0].UpdatedAt.After(items[0].PublishedAt) {
		t.Fatalf("updated %v not after published %v", items[0].UpdatedAt, items[0].PublishedAt)
	}
}

func TestBuildAtomFeed(t *testing.T) {
	cfg := generatorSiteConfig()
	cfg.Description = "Notes & experiments"
	cfg.Author.Name = "Brian"
	cfg.Author.Email = "brian@example.com"

	generated := time.Date(2015, time.July, 1, 12, 0, 0, 0, time.UTC)
	items := []feedItem{
		{
			Title:       "Routing & Rails",
			Summary:     "All about <resources>.",
			Link:        "https://brandall10.github.io/2015/06/post-a/",
			GUID:        "https://brandall10.github.io/2015/06/post-a/",
			Categories:  []string{"rails"},
			PublishedAt: generated.Add(-24 * time.Hour),
			UpdatedAt:   generated.Add(-24 * time.Hour),
		},
	}

	feed := buildAtomFeed(cfg, cfg.Title, atomFeedPath, items, generated)

	for _, want := range []string{
		`<feed xmlns="http://www.w3.org/2005/Atom">`,
		"<title>Notes on Rails</title>",
		"<subtitle>Notes &amp; experiments</subtitle>",
		"<updated>2015-07-01T12:00:00Z</updated>",
		`<link rel="self" href="https://brandall10.github.io/feed.xml" />`,
		"<name>Brian</name>",
		"<title>Routing &amp; Rails</title>",
		"<summary>All about &lt;resources&gt;.</summary>",
		`<category term="rails" />`,
		"<published>2015-06-30T12:00:00Z</published>",
	} {
		if !strings.Contains(feed, want) {
			t.Fatalf("atom feed missing %q:\n%s", want, feed)
		}
	}
	if strings.Count(feed, "<entry>") != 1 {
		t.Fatalf("entry count wrong:\n%s", feed)
	}
}

func TestBuildRSSFeed(t *testing.T) {
	cfg := generatorSiteConfig()
	cfg.Description = "Notes"

	generated := time.Date(2015, time.July, 1, 12, 0, 0, 0, time.UTC)
	items := []feedItem{
		{
			Title:       "Post A",
			Summary:     "Summary A.",
			Link:        "https://brandall10.github.io/2015/06/post-a/",
			GUID:        "https://brandall10.github.io/2015/06/post-a/",
			PublishedAt: time.Date(2015, time.June, 30, 0, 0, 0, 0, time.UTC),
		},
		{
			Title:       "Post B",
			Link:        "https://brandall10.github.io/2015/06/post-b/",
			GUID:        "https://brandall10.github.io/2015/06/post-b/",
			PublishedAt: time.Date(2015, time.June, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	feed := buildRSSFeed(cfg, items, generated)

	for _, want := range []string{
		`<rss version="2.0">`,
		"<title>Notes on Rails</title>",
		"<link>https://brandall10.github.io/</link>",
		"<lastBuildDate>Wed, 01 Jul 2015 12:00:00 +0000</lastBuildDate>",
		`<guid isPermaLink="true">https://brandall10.github.io/2015/06/post-a/</guid>`,
		"<pubDate>Tue, 30 Jun 2015 00:00:00 +0000</pubDate>",
		"<description>Summary A.</description>",
	} {
		if !strings.Contains(feed, want) {
			t.Fatalf("rss feed missing %q:\n%s", want, feed)
		}
	}
	if strings.Count(feed, "<item>") != 2 {
		t.Fatalf("item count wrong:\n%s", feed)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("  one\n\ttwo   three\n")
	if got != "one two three" {
		t.Fatalf("normalizeWhitespace = %q", got)
	}
}
