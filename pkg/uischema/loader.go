package uischema

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFS walks the provided filesystem and parses JSON/YAML overlay files.
// When fsys is nil or no overlay files are present, the returned store is
// empty.
func LoadFS(fsys fs.FS) (*Store, error) {
	store := &Store{overlays: make(map[string]Overlay)}
	if fsys == nil {
		return store, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("uischema: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}

		for rawID, raw := range doc.Templates {
			id := strings.TrimSpace(rawID)
			if id == "" {
				return fmt.Errorf("uischema: file %s defines an empty template id", path)
			}
			if _, exists := store.overlays[id]; exists {
				return fmt.Errorf("uischema: duplicate template %q (file %s)", id, path)
			}
			overlay, err := normaliseOverlay(raw, id, path)
			if err != nil {
				return err
			}
			store.overlays[id] = overlay
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}

// Overlay returns the overlay registered for the supplied template id.
func (s *Store) Overlay(templateID string) (Overlay, bool) {
	if s == nil {
		return Overlay{}, false
	}
	overlay, ok := s.overlays[templateID]
	return overlay, ok
}

// Empty reports whether the store holds any overlays.
func (s *Store) Empty() bool {
	return s == nil || len(s.overlays) == 0
}

type documentFile struct {
	Templates map[string]overlayFile `json:"templates" yaml:"templates"`
}

type overlayFile struct {
	Fields map[string]FieldConfig `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("uischema: file %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	return documentFile{}, fmt.Errorf("uischema: parse %s: invalid JSON or YAML", source)
}

func normaliseOverlay(raw overlayFile, id, source string) (Overlay, error) {
	overlay := Overlay{
		TemplateID: id,
		Source:     source,
		Fields:     make(map[string]FieldConfig, len(raw.Fields)),
	}
	for key, cfg := range raw.Fields {
		normalised := NormalizeFieldPath(key)
		if normalised == "" {
			return Overlay{}, fmt.Errorf("uischema: template %q (file %s) field key %q normalises to empty path", id, source, key)
		}
		if _, exists := overlay.Fields[normalised]; exists {
			return Overlay{}, fmt.Errorf("uischema: template %q (file %s) defines duplicate field path %q", id, source, normalised)
		}
		cloned := cloneFieldConfig(cfg)
		cloned.OriginalPath = key
		overlay.Fields[normalised] = cloned
	}
	return overlay, nil
}

func cloneFieldConfig(cfg FieldConfig) FieldConfig {
	out := cfg
	out.Labels = cloneStrings(cfg.Labels)
	out.Descriptions = cloneStrings(cfg.Descriptions)
	out.Annotations = cloneStrings(cfg.Annotations)
	return out
}

func cloneStrings(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
