package themes

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
)

// ManifestFileName is the descriptor a theme directory carries at its root.
const ManifestFileName = "theme.json"

// Manifest mirrors the expected theme.json structure. The same file may also
// carry design-token and variant sections consumed by the go-theme loader;
// those keys are simply ignored here.
type Manifest struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Version     string         `json:"version"`
	Author      string         `json:"author,omitempty"`
	Assets      Assets         `json:"assets,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Assets references the static files a theme ships. Paths are relative to
// the theme root, or to BasePath when one is set.
type Assets struct {
	BasePath string   `json:"base_path,omitempty"`
	Styles   []string `json:"styles,omitempty"`
	Scripts  []string `json:"scripts,omitempty"`
	Images   []string `json:"images,omitempty"`
}

// ParseManifest decodes manifest JSON from a reader.
func ParseManifest(r io.Reader) (*Manifest, error) {
	var manifest Manifest
	if err := json.NewDecoder(r).Decode(&manifest); err != nil {
		return nil, fmt.Errorf("themes: parse manifest: %w", err)
	}
	return &manifest, nil
}

// LoadManifestFS reads and parses a manifest from the given filesystem.
func LoadManifestFS(fsys fs.FS, path string) (*Manifest, error) {
	file, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("themes: open manifest: %w", err)
	}
	defer file.Close()
	return ParseManifest(file)
}
