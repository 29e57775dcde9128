package generator

import (
	"context"
	"fmt"
	"html/template"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/brandall10/brandall10.github.io/internal/layouts"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

const htmlContentType = "text/html; charset=utf-8"

// renderOutcome carries the result of rendering one document, rendered or
// skipped, through the collector.
type renderOutcome struct {
	data     *DocumentData
	html     string
	output   string
	checksum string
	duration time.Duration
	skipped  bool
	err      error
}

// renderDocument turns one document into its final HTML. Incremental builds
// consult the manifest first and skip documents whose dependency hash and
// output path are unchanged.
func (s *service) renderDocument(ctx context.Context, buildCtx *BuildContext, data *DocumentData, manifest *buildManifest, incremental bool) renderOutcome {
	outcome := renderOutcome{data: data}

	select {
	case <-ctx.Done():
		outcome.err = ctx.Err()
		return outcome
	default:
	}

	doc := data.Document()
	output := outputPath(data.URL)

	if incremental && manifest != nil && manifest.shouldSkipDocument(doc.ID, data.Metadata.Hash, output) {
		outcome.skipped = true
		outcome.output = output
		return outcome
	}

	start := s.now()
	html, err := s.renderHTML(ctx, buildCtx, data, nil, "")
	outcome.duration = time.Since(start)
	if err != nil {
		outcome.err = fmt.Errorf("generator: render %s: %w", doc.SourcePath, err)
		return outcome
	}

	outcome.html = html
	outcome.output = output
	outcome.checksum = computeHashFromString(html)
	return outcome
}

// renderHTML runs the document body through the tag processor and the
// markdown renderer, then wraps the result in its layout chain. A nil
// paginator leaves the template's paginator scope empty; urlOverride
// substitutes the page URL when one document renders at several addresses.
func (s *service) renderHTML(ctx context.Context, buildCtx *BuildContext, data *DocumentData, paginator *layouts.Paginator, urlOverride string) (string, error) {
	doc := data.Document()

	body := string(doc.Body)
	if s.deps.Tags != nil && strings.TrimSpace(body) != "" {
		processed, err := s.deps.Tags.Process(ctx, body, s.tagOptions(buildCtx))
		if err != nil {
			return "", err
		}
		body = processed
	}

	rendered, err := s.deps.Markdown.Render([]byte(body))
	if err != nil {
		return "", err
	}

	pageCtx, err := s.pageContext(ctx, buildCtx, data)
	if err != nil {
		return "", err
	}
	if urlOverride != "" {
		pageCtx.URL = urlOverride
	}

	if data.Layout == "" {
		return string(rendered), nil
	}

	layoutCtx := layouts.Context{
		Site:      buildCtx.SiteCtx,
		Page:      pageCtx,
		Content:   template.HTML(rendered),
		Paginator: paginator,
		Theme:     buildCtx.ThemeCtx,
	}
	return s.deps.Layouts.Render(data.Layout, layoutCtx)
}

func (s *service) tagOptions(buildCtx *BuildContext) interfaces.TagProcessOptions {
	return interfaces.TagProcessOptions{
		ResolvePostURL: buildCtx.ResolvePostURL,
		ResolveLink:    buildCtx.ResolveLink,
	}
}

// pageContext assembles the template page scope, wiring post neighbours and
// the rendered excerpt.
func (s *service) pageContext(ctx context.Context, buildCtx *BuildContext, data *DocumentData) (layouts.PageContext, error) {
	var pageCtx layouts.PageContext
	switch {
	case data.Post != nil:
		next := buildCtx.postsBySlug[data.Post.Next]
		previous := buildCtx.postsBySlug[data.Post.Previous]
		pageCtx = layouts.PostContext(data.Post, next, previous)
	case data.Page != nil:
		pageCtx = layouts.PageContextFrom(data.Page)
	default:
		return layouts.PageContext{}, fmt.Errorf("generator: document %s has no content", data.Document().SourcePath)
	}

	excerpt, err := s.renderExcerpt(ctx, buildCtx, data.Document())
	if err != nil {
		return layouts.PageContext{}, err
	}
	pageCtx.Excerpt = excerpt
	pageCtx.Layout = data.Layout
	return pageCtx, nil
}

// renderExcerpt converts the raw markdown excerpt into HTML for template use.
func (s *service) renderExcerpt(ctx context.Context, buildCtx *BuildContext, doc interfaces.Document) (template.HTML, error) {
	raw := strings.TrimSpace(doc.Excerpt)
	if raw == "" {
		return "", nil
	}
	if s.deps.Tags != nil {
		processed, err := s.deps.Tags.Process(ctx, raw, s.tagOptions(buildCtx))
		if err != nil {
			return "", err
		}
		raw = processed
	}
	rendered, err := s.deps.Markdown.Render([]byte(raw))
	if err != nil {
		return "", err
	}
	return template.HTML(rendered), nil
}

// groupDocuments buckets documents by collection so a worker owns a whole
// collection at a time, preserving first-seen order.
func groupDocuments(documents []*DocumentData) [][]*DocumentData {
	byCollection := make(map[interfaces.Collection][]*DocumentData)
	var order []interfaces.Collection
	for _, data := range documents {
		collection := data.Document().Collection
		if _, ok := byCollection[collection]; !ok {
			order = append(order, collection)
		}
		byCollection[collection] = append(byCollection[collection], data)
	}
	groups := make([][]*DocumentData, 0, len(order))
	for _, collection := range order {
		groups = append(groups, byCollection[collection])
	}
	return groups
}

// renderConcurrently fans document groups out to a bounded worker pool and
// funnels every outcome through collect.
func (s *service) renderConcurrently(ctx context.Context, buildCtx *BuildContext, groups [][]*DocumentData, workers int, manifest *buildManifest, incremental bool, collect func(renderOutcome)) {
	jobs := make(chan []*DocumentData)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for group := range jobs {
				for _, data := range group {
					collect(s.renderDocument(ctx, buildCtx, data, manifest, incremental))
				}
			}
		}()
	}

	for _, group := range groups {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			collect(renderOutcome{err: ctx.Err()})
			return
		case jobs <- group:
		}
	}
	close(jobs)
	wg.Wait()
}

// persistDocuments writes rendered documents beneath the output root,
// creating parent directories once per build.
func (s *service) persistDocuments(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, outcomes []renderOutcome, incremental bool) error {
	for i := range outcomes {
		outcome := &outcomes[i]
		if outcome.output == "" {
			continue
		}
		if err := ensureDir(ctx, writer, dirCache, path.Dir(outcome.output)); err != nil {
			return err
		}

		doc := outcome.data.Document()
		metadata := map[string]string{
			"document_id": doc.ID.String(),
			"url":         outcome.data.URL,
			"collection":  string(doc.Collection),
		}
		if outcome.data.Layout != "" {
			metadata["layout"] = outcome.data.Layout
		}
		if incremental {
			metadata["incremental"] = "true"
		}

		req := writeFileRequest{
			Path:        outcome.output,
			Content:     strings.NewReader(outcome.html),
			Size:        int64(len(outcome.html)),
			Collection:  string(doc.Collection),
			ContentType: htmlContentType,
			Checksum:    outcome.checksum,
			Metadata:    metadata,
		}
		if err := writer.WriteFile(ctx, req); err != nil {
			return err
		}
		s.logger.Debug("generator.document_written",
			"source", doc.SourcePath,
			"output", outcome.output,
			"duration", outcome.duration,
		)
	}
	return nil
}
