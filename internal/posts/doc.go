// Package posts discovers the site's source documents and projects them
// into posts, pages, and categories. The loader walks a source filesystem
// and parses front matter; the service layers publish-status filtering,
// permalink expansion, ordering, and validation on top.
package posts
