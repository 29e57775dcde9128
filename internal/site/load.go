package site

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfigName is the conventional configuration filename at the root
// of the site source tree.
const DefaultConfigName = "_config.yml"

// Load reads the configuration file at path. A missing file is not an
// error; the defaults come back instead so a bare checkout still builds.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read site config: %w", err)
	}
	return parse(data)
}

// LoadFS behaves like Load against an fs.FS, which keeps the loader
// testable and lets the engine read embedded or in-memory site trees.
func LoadFS(fsys fs.FS, name string) (Config, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read site config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse site config: %w", err)
	}
	if cfg.Params == nil {
		cfg.Params = map[string]any{}
	}
	return cfg, nil
}
