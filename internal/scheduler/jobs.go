package scheduler

// Job types the publish worker understands.
const (
	// JobTypePostPublish flips a future-dated post to published when its
	// date arrives.
	JobTypePostPublish = "posts.publish"
	// JobTypeSiteRebuild regenerates the site, typically queued right
	// after a publish.
	JobTypeSiteRebuild = "site.rebuild"
)

// PostPublishJobKey builds the idempotency key for a post publish job.
// Re-enqueueing the same slug replaces the previous schedule.
func PostPublishJobKey(slug string) string {
	return "post:" + slug + ":publish"
}

// SiteRebuildJobKey is the idempotency key for rebuild jobs; only one
// rebuild is ever pending at a time.
const SiteRebuildJobKey = "site:rebuild"
