package generator

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	manifestFileName    = ".site-manifest.json"
	manifestFileVersion = 1
)

// buildManifest records what the last build produced so incremental runs can
// skip documents whose sources did not change. It lives inside the output
// directory; deleting the output tree resets it along with everything else.
type buildManifest struct {
	Version     int
	GeneratedAt time.Time
	ConfigHash  string
	Documents   map[string]manifestDocument
	Assets      map[string]manifestAsset
	Metadata    map[string]json.RawMessage
}

// persistedManifest is the on-disk shape: entries as sorted lists rather
// than maps so the file stays readable and diffs cleanly between builds.
type persistedManifest struct {
	Version     int                        `json:"version"`
	GeneratedAt time.Time                  `json:"generated_at"`
	ConfigHash  string                     `json:"config_hash,omitempty"`
	Documents   []manifestDocument         `json:"documents"`
	Assets      []manifestAsset            `json:"assets"`
	Metadata    map[string]json.RawMessage `json:"metadata,omitempty"`
}

type manifestDocument struct {
	ID           string    `json:"id"`
	Source       string    `json:"source,omitempty"`
	Collection   string    `json:"collection"`
	URL          string    `json:"url"`
	Output       string    `json:"output"`
	Layout       string    `json:"layout,omitempty"`
	Hash         string    `json:"hash"`
	Checksum     string    `json:"checksum"`
	LastModified time.Time `json:"last_modified"`
	RenderedAt   time.Time `json:"rendered_at"`
}

type manifestAsset struct {
	Key      string    `json:"key"`
	Source   string    `json:"source"`
	Output   string    `json:"output"`
	Checksum string    `json:"checksum"`
	Size     int64     `json:"size"`
	CopiedAt time.Time `json:"copied_at"`
}

func newBuildManifest() *buildManifest {
	return &buildManifest{
		Version:   manifestFileVersion,
		Documents: map[string]manifestDocument{},
		Assets:    map[string]manifestAsset{},
		Metadata:  map[string]json.RawMessage{},
	}
}

func parseManifest(data []byte) (*buildManifest, error) {
	if len(data) == 0 {
		return newBuildManifest(), nil
	}
	var persisted persistedManifest
	if err := json.Unmarshal(data, &persisted); err != nil {
		return nil, fmt.Errorf("generator: parse manifest: %w", err)
	}

	manifest := newBuildManifest()
	manifest.GeneratedAt = persisted.GeneratedAt
	manifest.ConfigHash = persisted.ConfigHash
	if persisted.Version != 0 {
		manifest.Version = persisted.Version
	}
	if persisted.Metadata != nil {
		manifest.Metadata = persisted.Metadata
	}
	for _, entry := range persisted.Documents {
		manifest.setDocument(entry)
	}
	for _, entry := range persisted.Assets {
		manifest.setAsset(entry)
	}
	return manifest, nil
}

func (m *buildManifest) marshal() ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	persisted := persistedManifest{
		Version:     m.Version,
		GeneratedAt: m.GeneratedAt,
		ConfigHash:  m.ConfigHash,
		Metadata:    m.Metadata,
	}
	if persisted.Version == 0 {
		persisted.Version = manifestFileVersion
	}
	if len(m.Documents) > 0 {
		persisted.Documents = make([]manifestDocument, 0, len(m.Documents))
		for _, entry := range m.Documents {
			persisted.Documents = append(persisted.Documents, entry)
		}
		sort.Slice(persisted.Documents, func(i, j int) bool {
			if persisted.Documents[i].URL == persisted.Documents[j].URL {
				return persisted.Documents[i].ID < persisted.Documents[j].ID
			}
			return persisted.Documents[i].URL < persisted.Documents[j].URL
		})
	}
	if len(m.Assets) > 0 {
		persisted.Assets = make([]manifestAsset, 0, len(m.Assets))
		for _, entry := range m.Assets {
			persisted.Assets = append(persisted.Assets, entry)
		}
		sort.Slice(persisted.Assets, func(i, j int) bool {
			return persisted.Assets[i].Key < persisted.Assets[j].Key
		})
	}
	return json.MarshalIndent(persisted, "", "  ")
}

func documentKey(id uuid.UUID) string {
	return strings.ToLower(id.String())
}

func staticAssetKey(source string) string {
	return "static::" + strings.TrimSpace(source)
}

func themeAssetKey(theme, asset string) string {
	return "theme::" + strings.ToLower(strings.TrimSpace(theme)) + "::" + strings.TrimSpace(asset)
}

func (m *buildManifest) lookupDocument(id uuid.UUID) (manifestDocument, bool) {
	if m == nil || len(m.Documents) == 0 {
		return manifestDocument{}, false
	}
	entry, ok := m.Documents[documentKey(id)]
	return entry, ok
}

func (m *buildManifest) setDocument(entry manifestDocument) {
	if m == nil {
		return
	}
	if m.Documents == nil {
		m.Documents = map[string]manifestDocument{}
	}
	m.Documents[strings.ToLower(strings.TrimSpace(entry.ID))] = entry
}

// shouldSkipDocument reports whether the document's dependency hash and
// output location both match the previous build, meaning the rendered file
// on disk is still current.
func (m *buildManifest) shouldSkipDocument(id uuid.UUID, hash, output string) bool {
	entry, ok := m.lookupDocument(id)
	if !ok {
		return false
	}
	if entry.Hash == "" || entry.Hash != hash {
		return false
	}
	return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

func (m *buildManifest) lookupAsset(key string) (manifestAsset, bool) {
	if m == nil || len(m.Assets) == 0 {
		return manifestAsset{}, false
	}
	entry, ok := m.Assets[key]
	return entry, ok
}

func (m *buildManifest) setAsset(entry manifestAsset) {
	if m == nil {
		return
	}
	if m.Assets == nil {
		m.Assets = map[string]manifestAsset{}
	}
	m.Assets[entry.Key] = entry
}

func (m *buildManifest) shouldSkipAsset(key, checksum, output string) bool {
	entry, ok := m.lookupAsset(key)
	if !ok {
		return false
	}
	if entry.Checksum == "" || entry.Checksum != checksum {
		return false
	}
	return strings.TrimSpace(entry.Output) == strings.TrimSpace(output)
}

// pruneDocuments drops manifest entries whose key is not in keep, so
// documents deleted from the source tree stop shielding stale outputs.
func (m *buildManifest) pruneDocuments(keep map[string]struct{}) {
	if m == nil || len(m.Documents) == 0 {
		return
	}
	for key := range m.Documents {
		if _, ok := keep[key]; !ok {
			delete(m.Documents, key)
		}
	}
}

func (m *buildManifest) pruneAssets(keep map[string]struct{}) {
	if m == nil || len(m.Assets) == 0 {
		return
	}
	for key := range m.Assets {
		if _, ok := keep[key]; !ok {
			delete(m.Assets, key)
		}
	}
}
