package generator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
)

// assetCopySummary tallies one copy pass.
type assetCopySummary struct {
	Copied  int
	Skipped int
}

// copyStatic mirrors the source tree's static files into the output,
// preserving their relative paths. Incremental builds skip files whose
// checksum and destination are unchanged in the manifest. Every visited key
// lands in keep so the manifest prune retains skipped assets.
func (s *service) copyStatic(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, manifest *buildManifest, incremental bool, keep map[string]struct{}) (assetCopySummary, error) {
	var summary assetCopySummary
	if s.deps.Loader == nil || s.deps.Source == nil {
		return summary, nil
	}

	files, err := s.deps.Loader.StaticFiles(ctx)
	if err != nil {
		return summary, err
	}

	for _, file := range files {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		data, err := fs.ReadFile(s.deps.Source, file)
		if err != nil {
			return summary, fmt.Errorf("generator: read static %s: %w", file, err)
		}

		key := staticAssetKey(file)
		keep[key] = struct{}{}
		checksum := computeHash(data)

		if incremental && manifest != nil && manifest.shouldSkipAsset(key, checksum, file) {
			summary.Skipped++
			continue
		}

		if err := s.writeAsset(ctx, writer, dirCache, collectionStatic, file, data, checksum, map[string]string{"source": file}); err != nil {
			return summary, err
		}
		manifest.setAsset(manifestAsset{
			Key:      key,
			Source:   file,
			Output:   file,
			Checksum: checksum,
			Size:     int64(len(data)),
			CopiedAt: s.now(),
		})
		summary.Copied++
	}

	s.logger.Debug("generator.static_copied", "copied", summary.Copied, "skipped", summary.Skipped)
	return summary, nil
}

// copyThemeAssets copies the resolved theme's assets beneath
// assets/themes/<name>/.
func (s *service) copyThemeAssets(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, buildCtx *BuildContext, manifest *buildManifest, incremental bool, keep map[string]struct{}) (assetCopySummary, error) {
	var summary assetCopySummary
	if s.deps.Themes == nil || buildCtx.Theme == nil || len(buildCtx.ThemeAssets) == 0 {
		return summary, nil
	}

	theme := buildCtx.Theme
	for _, asset := range buildCtx.ThemeAssets {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		file, err := s.deps.Themes.Open(theme, asset)
		if err != nil {
			return summary, fmt.Errorf("generator: open theme asset %s: %w", asset, err)
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return summary, fmt.Errorf("generator: read theme asset %s: %w", asset, err)
		}

		key := themeAssetKey(theme.Name, asset)
		keep[key] = struct{}{}
		checksum := computeHash(data)
		output := path.Join("assets", "themes", theme.Name, asset)

		if incremental && manifest != nil && manifest.shouldSkipAsset(key, checksum, output) {
			summary.Skipped++
			continue
		}

		metadata := map[string]string{
			"source": asset,
			"theme":  theme.Name,
		}
		if err := s.writeAsset(ctx, writer, dirCache, collectionAsset, output, data, checksum, metadata); err != nil {
			return summary, err
		}
		manifest.setAsset(manifestAsset{
			Key:      key,
			Source:   asset,
			Output:   output,
			Checksum: checksum,
			Size:     int64(len(data)),
			CopiedAt: s.now(),
		})
		summary.Copied++
	}

	s.logger.Debug("generator.theme_assets_copied",
		"theme", theme.Name,
		"copied", summary.Copied,
		"skipped", summary.Skipped,
	)
	return summary, nil
}

func (s *service) writeAsset(ctx context.Context, writer artifactWriter, dirCache map[string]struct{}, collection, output string, data []byte, checksum string, metadata map[string]string) error {
	if err := ensureDir(ctx, writer, dirCache, path.Dir(output)); err != nil {
		return err
	}
	return writer.WriteFile(ctx, writeFileRequest{
		Path:        output,
		Content:     bytes.NewReader(data),
		Size:        int64(len(data)),
		Collection:  collection,
		ContentType: detectAssetContentType(output),
		Checksum:    checksum,
		Metadata:    metadata,
	})
}

// detectAssetContentType maps the common static asset extensions to MIME
// types, octet-stream otherwise.
func detectAssetContentType(name string) string {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "css":
		return "text/css; charset=utf-8"
	case "js", "mjs":
		return "application/javascript"
	case "json":
		return "application/json"
	case "xml":
		return "application/xml; charset=utf-8"
	case "html", "htm":
		return htmlContentType
	case "txt":
		return "text/plain; charset=utf-8"
	case "svg":
		return "image/svg+xml"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "ico":
		return "image/x-icon"
	case "woff":
		return "font/woff"
	case "woff2":
		return "font/woff2"
	default:
		return "application/octet-stream"
	}
}
