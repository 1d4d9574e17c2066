// Package artifact provides the structured file capabilities the pipeline
// stages consume: extension-driven reads, JSON/YAML/text writes, and the
// date-suffixed versioned duplicates kept next to every primary artifact.
package artifact

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format identifies how an artifact file is encoded.
type Format string

const (
	// FormatJSON is a JSON-encoded structured document.
	FormatJSON Format = "json"
	// FormatYAML is a YAML-encoded structured document.
	FormatYAML Format = "yaml"
	// FormatRaw is unstructured text (generated source, SQL).
	FormatRaw Format = "raw"
)

// DetectFormat picks the artifact format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatRaw
	}
}

// ReadStructured reads the file at path and decodes it into v according to
// its extension. Raw files cannot be decoded into a structured value.
func ReadStructured(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}

	format := DetectFormat(path)
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, v); err != nil {
			return &ParseError{Path: path, Format: format, Err: err}
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, v); err != nil {
			return &ParseError{Path: path, Format: format, Err: err}
		}
	default:
		return &ParseError{Path: path, Format: format,
			Err: errors.New("raw artifact cannot be decoded into a structured value")}
	}
	return nil
}

// ReadText reads the file at path as raw text.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &IOError{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// WriteStructured encodes v according to the extension of path and writes it.
func WriteStructured(path string, v any) error {
	switch DetectFormat(path) {
	case FormatYAML:
		return WriteYAML(path, v)
	default:
		return WriteJSON(path, v)
	}
}

// WriteJSON writes v as indented JSON.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	return writeFile(path, append(data, '\n'))
}

// WriteYAML writes v as YAML.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return &IOError{Op: "encode", Path: path, Err: err}
	}
	return writeFile(path, data)
}

// WriteText writes raw text.
func WriteText(path, text string) error {
	return writeFile(path, []byte(text))
}

// VersionedPath returns the date-suffixed sibling of path, following the
// <base>_<YYYYMMDD><ext> naming of historical artifact copies.
func VersionedPath(path string, t time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + t.Format("20060102") + ext
}

// WriteDatedCopy duplicates the primary artifact at path into its versioned
// sibling. Versioned copies are immutable history; they are never read back
// by later stages.
func WriteDatedCopy(path string, t time.Time) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &IOError{Op: "read", Path: path, Err: err}
	}
	return writeFile(VersionedPath(path, t), data)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return &IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &IOError{Op: "write", Path: path, Err: err}
	}
	return nil
}
