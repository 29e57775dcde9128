package generator

import (
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/brandall10/brandall10.github.io/internal/layouts"
	"github.com/brandall10/brandall10.github.io/internal/site"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// buildArchives renders the listing pages no single source document owns:
// the paginated home index and one archive per category. Archives are always
// re-rendered because any post change can reorder them. The returned URLs
// feed the sitemap.
func (s *service) buildArchives(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext) ([]string, int, error) {
	homeURLs, err := s.buildHomePages(ctx, writer, dirCache, buildCtx)
	if err != nil {
		return homeURLs, len(homeURLs), err
	}

	categoryURLs, err := s.buildCategoryPages(ctx, writer, dirCache, buildCtx)
	urls := append(homeURLs, categoryURLs...)
	return urls, len(urls), err
}

// buildHomePages renders the home document once per paginator page. Page one
// lands at the document's own URL, later pages at the paginate path.
func (s *service) buildHomePages(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext) ([]string, error) {
	home := buildCtx.Home
	if home == nil {
		return nil, nil
	}

	perPage := buildCtx.Site.Paginate
	if perPage <= 0 {
		return nil, nil
	}
	totalPages := (len(buildCtx.Posts) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	var urls []string
	for page := 1; page <= totalPages; page++ {
		select {
		case <-ctx.Done():
			return urls, ctx.Err()
		default:
		}

		paginator := paginatorFor(buildCtx.Site, buildCtx.Posts, page, perPage, totalPages)
		url := paginateURL(buildCtx.Site, page)
		if page == 1 {
			url = home.URL
		}

		html, err := s.renderHTML(ctx, buildCtx, home, paginator, url)
		if err != nil {
			return urls, fmt.Errorf("generator: render home page %d: %w", page, err)
		}

		if err := s.writeArchive(ctx, writer, dirCache, url, html); err != nil {
			return urls, err
		}
		urls = append(urls, url)
	}

	s.logger.Debug("generator.home_rendered", "pages", totalPages, "per_page", perPage)
	return urls, nil
}

// buildCategoryPages renders one archive per category through the category
// layout. Sites without that layout simply get no category pages.
func (s *service) buildCategoryPages(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext) ([]string, error) {
	if len(buildCtx.Categories) == 0 {
		return nil, nil
	}
	if !s.deps.Layouts.HasLayout(categoryLayout) {
		s.logger.Debug("generator.category_layout_missing", "layout", categoryLayout)
		return nil, nil
	}

	var urls []string
	for _, category := range buildCtx.Categories {
		select {
		case <-ctx.Done():
			return urls, ctx.Err()
		default:
		}

		paginator := &layouts.Paginator{
			Page:       1,
			PerPage:    len(category.Posts),
			TotalPages: 1,
			TotalPosts: len(category.Posts),
			Posts:      category.Posts,
		}
		pageCtx := layouts.PageContext{
			Title:  category.Name,
			URL:    category.URL,
			Layout: categoryLayout,
			Params: map[string]any{
				"category": category.Name,
				"slug":     category.Slug,
			},
		}
		layoutCtx := layouts.Context{
			Site:      buildCtx.SiteCtx,
			Page:      pageCtx,
			Paginator: paginator,
			Theme:     buildCtx.ThemeCtx,
		}

		html, err := s.deps.Layouts.Render(categoryLayout, layoutCtx)
		if err != nil {
			return urls, fmt.Errorf("generator: render category %s: %w", category.Slug, err)
		}

		if err := s.writeArchive(ctx, writer, dirCache, category.URL, html); err != nil {
			return urls, err
		}
		urls = append(urls, category.URL)
	}

	s.logger.Debug("generator.categories_rendered", "count", len(urls))
	return urls, nil
}

func (s *service) writeArchive(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, url, html string) error {
	output := outputPath(url)
	if err := ensureDir(ctx, writer, dirCache, path.Dir(output)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        output,
		Content:     strings.NewReader(html),
		Size:        int64(len(html)),
		Collection:  collectionArchive,
		ContentType: htmlContentType,
		Checksum:    computeHashFromString(html),
		Metadata:    map[string]string{"url": url},
	})
}

// paginateURL expands the configured paginate path for a page number. Page
// one is the site root.
func paginateURL(cfg site.Config, page int) string {
	if page <= 1 {
		return "/"
	}
	pattern := cfg.PaginatePath
	if pattern == "" {
		pattern = site.Default().PaginatePath
	}
	return strings.ReplaceAll(pattern, ":num", strconv.Itoa(page))
}

// paginatorFor slices the post list for one paginator page.
func paginatorFor(cfg site.Config, posts []*interfaces.Post, page, perPage, totalPages int) *layouts.Paginator {
	start := (page - 1) * perPage
	if start > len(posts) {
		start = len(posts)
	}
	end := start + perPage
	if end > len(posts) {
		end = len(posts)
	}

	paginator := &layouts.Paginator{
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		TotalPosts: len(posts),
		Posts:      posts[start:end],
	}
	if page > 1 {
		paginator.PreviousPage = page - 1
		paginator.PreviousURL = paginateURL(cfg, page-1)
	}
	if page < totalPages {
		paginator.NextPage = page + 1
		paginator.NextURL = paginateURL(cfg, page+1)
	}
	return paginator
}
