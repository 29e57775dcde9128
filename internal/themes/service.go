package themes

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"

	gotheme "github.com/goliatone/go-theme"

	"github.com/brandall10/brandall10.github.io/internal/logging"
	"github.com/brandall10/brandall10.github.io/pkg/interfaces"
)

// Theme is a resolved theme directory: parsed descriptor plus its location
// under the themes root.
type Theme struct {
	Name        string
	Version     string
	Description string
	Author      string
	// Path is the theme's directory relative to the themes root, which for
	// directory-convention themes equals Name.
	Path     string
	Assets   Assets
	Metadata map[string]any
}

// NotFoundError is returned when a theme cannot be located.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// Service resolves themes from a filesystem laid out as one directory per
// theme. It keeps a registry of go-theme manifests so template rendering can
// pick up design tokens and variant data when a theme ships them.
type Service struct {
	fsys           fs.FS
	logger         interfaces.Logger
	defaultTheme   string
	defaultVariant string

	registry *gotheme.MemoryRegistry

	mu        sync.Mutex
	themes    map[string]*Theme
	manifests map[string]*gotheme.Manifest
}

// ServiceOption customises service behaviour.
type ServiceOption func(*Service)

// WithLogger attaches a logger used for structured diagnostics.
func WithLogger(logger interfaces.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDefaults sets the theme and variant used when a selection does not
// name one.
func WithDefaults(theme, variant string) ServiceOption {
	return func(s *Service) {
		s.defaultTheme = strings.TrimSpace(theme)
		s.defaultVariant = strings.TrimSpace(variant)
	}
}

// NewService constructs a theme service over the themes root filesystem.
func NewService(fsys fs.FS, opts ...ServiceOption) *Service {
	s := &Service{
		fsys:      fsys,
		logger:    logging.NoOp(),
		registry:  gotheme.NewRegistry(),
		themes:    map[string]*Theme{},
		manifests: map[string]*gotheme.Manifest{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the named theme. An empty name means the site runs
// unthemed and resolves to nil without error. Themes may omit theme.json;
// the directory name then stands in for the descriptor.
func (s *Service) Resolve(name string) (*Theme, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if theme, ok := s.themes[name]; ok {
		return theme, nil
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Resource: "theme", Key: name}
		}
		return nil, fmt.Errorf("themes: stat %s: %w", name, err)
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Resource: "theme", Key: name}
	}

	manifest, err := LoadManifestFS(s.fsys, path.Join(name, ManifestFileName))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		manifest = &Manifest{Name: name}
		s.logger.Debug("theme.descriptor_missing", "theme", name)
	}

	theme := &Theme{
		Name:        name,
		Version:     strings.TrimSpace(manifest.Version),
		Description: strings.TrimSpace(manifest.Description),
		Author:      strings.TrimSpace(manifest.Author),
		Path:        name,
		Assets:      manifest.Assets,
		Metadata:    manifest.Metadata,
	}
	s.themes[name] = theme
	return theme, nil
}

// List returns every theme directory under the root, resolved, in name
// order.
func (s *Service) List() ([]*Theme, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("themes: read themes root: %w", err)
	}

	var themes []*Theme
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		theme, err := s.Resolve(entry.Name())
		if err != nil {
			return nil, err
		}
		themes = append(themes, theme)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].Name < themes[j].Name })
	return themes, nil
}

// ThemeFS exposes the theme's directory subtree, the filesystem handed to
// the layout engine so a theme's _layouts and _includes layer under the
// site's own.
func (s *Service) ThemeFS(theme *Theme) (fs.FS, error) {
	if theme == nil {
		return nil, fmt.Errorf("themes: theme required")
	}
	sub, err := fs.Sub(s.fsys, theme.Path)
	if err != nil {
		return nil, fmt.Errorf("themes: open %s: %w", theme.Path, err)
	}
	return sub, nil
}

// Selection resolves the go-theme selection for a theme and variant. Themes
// without a loadable go-theme manifest degrade to an unthemed selection (nil)
// rather than failing the build; tokens and variants are an optional layer on
// top of plain layout-and-asset themes.
func (s *Service) Selection(theme *Theme, variant string) (*gotheme.Selection, error) {
	if theme == nil {
		return nil, nil
	}

	if _, err := s.ensureManifest(theme); err != nil {
		s.logger.Warn("theme.selection_unavailable", "theme", theme.Name, "error", err)
		return nil, nil
	}

	selector := gotheme.Selector{
		Registry:       s.registry,
		DefaultTheme:   s.defaultTheme,
		DefaultVariant: s.defaultVariant,
	}

	resolvedVariant := strings.TrimSpace(variant)
	if resolvedVariant == "" {
		resolvedVariant = s.defaultVariant
	}

	selection, err := selector.Select(theme.Name, resolvedVariant)
	if err != nil {
		s.logger.Warn("theme.selection_unavailable", "theme", theme.Name, "variant", resolvedVariant, "error", err)
		return nil, nil
	}
	return selection, nil
}

func (s *Service) ensureManifest(theme *Theme) (*gotheme.Manifest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if manifest, ok := s.manifests[theme.Name]; ok {
		return manifest, nil
	}

	sub, err := fs.Sub(s.fsys, theme.Path)
	if err != nil {
		return nil, fmt.Errorf("themes: open %s: %w", theme.Path, err)
	}
	manifest, err := gotheme.LoadDir(sub, ".")
	if err != nil {
		return nil, fmt.Errorf("themes: load manifest for %s: %w", theme.Name, err)
	}

	normalized := *manifest
	if strings.TrimSpace(normalized.Name) == "" || !strings.EqualFold(normalized.Name, theme.Name) {
		normalized.Name = theme.Name
	}
	if strings.TrimSpace(normalized.Version) == "" {
		normalized.Version = theme.Version
	}

	if err := s.registry.Register(&normalized); err != nil {
		return nil, fmt.Errorf("themes: register manifest: %w", err)
	}
	s.manifests[theme.Name] = &normalized
	return &normalized, nil
}

// Assets lists the asset files a build should copy for the theme, relative
// to the theme root. Selection manifest assets win, then the descriptor's
// asset lists, then whatever lives under the theme's assets directory.
func (s *Service) Assets(theme *Theme, selection *gotheme.Selection) ([]string, error) {
	if theme == nil {
		return nil, nil
	}
	if assets := manifestAssets(selection); len(assets) > 0 {
		return assets, nil
	}
	if assets := descriptorAssets(theme); len(assets) > 0 {
		return assets, nil
	}
	return s.assetsFromDir(theme)
}

// Open returns a theme asset for copying. The asset path must stay inside
// the theme root.
func (s *Service) Open(theme *Theme, asset string) (fs.File, error) {
	if theme == nil {
		return nil, fmt.Errorf("themes: theme required")
	}
	cleaned := path.Clean(strings.TrimPrefix(strings.TrimSpace(asset), "/"))
	if cleaned == "" || cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return nil, fmt.Errorf("themes: asset %q escapes theme root", asset)
	}

	file, err := s.fsys.Open(path.Join(theme.Path, cleaned))
	if err != nil {
		return nil, fmt.Errorf("themes: open asset %s: %w", cleaned, err)
	}
	return file, nil
}

func manifestAssets(selection *gotheme.Selection) []string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}

	assets := selection.Manifest.Assets.Files
	if variant := strings.TrimSpace(selection.Variant); variant != "" {
		if v, ok := selection.Manifest.Variants[variant]; ok && len(v.Assets.Files) > 0 {
			merged := make(map[string]string, len(selection.Manifest.Assets.Files)+len(v.Assets.Files))
			for key, file := range selection.Manifest.Assets.Files {
				merged[key] = file
			}
			for key, file := range v.Assets.Files {
				merged[key] = file
			}
			assets = merged
		}
	}

	seen := map[string]struct{}{}
	var out []string
	for _, asset := range assets {
		asset = strings.TrimPrefix(strings.TrimSpace(asset), "/")
		if asset == "" {
			continue
		}
		if _, ok := seen[asset]; ok {
			continue
		}
		seen[asset] = struct{}{}
		out = append(out, asset)
	}
	sort.Strings(out)
	return out
}

func descriptorAssets(theme *Theme) []string {
	base := strings.TrimSpace(theme.Assets.BasePath)

	var assets []string
	appendAssets := func(list []string) {
		for _, item := range list {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if base != "" {
				assets = append(assets, path.Join(base, item))
			} else {
				assets = append(assets, item)
			}
		}
	}

	appendAssets(theme.Assets.Styles)
	appendAssets(theme.Assets.Scripts)
	appendAssets(theme.Assets.Images)

	return assets
}

// assetsFromDir walks the theme's assets directory, the convention for
// themes that do not enumerate files explicitly.
func (s *Service) assetsFromDir(theme *Theme) ([]string, error) {
	root := path.Join(theme.Path, "assets")
	if _, err := fs.Stat(s.fsys, root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("themes: stat %s: %w", root, err)
	}

	var assets []string
	err := fs.WalkDir(s.fsys, root, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		assets = append(assets, strings.TrimPrefix(p, theme.Path+"/"))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("themes: walk %s: %w", root, err)
	}
	return assets, nil
}
