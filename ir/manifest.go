package ir

import (
	"fmt"
	"regexp"
	"time"
)

// hashPattern matches a hex-encoded 256-bit digest.
var hashPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ManifestFile is one content-addressed entry of a manifest.
type ManifestFile struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	Size int64  `json:"size" yaml:"size"`
	Hash string `json:"hash" yaml:"hash"`
}

// Manifest is the content-addressed listing of a distribution tree. An empty
// file list is valid: it describes an empty artifact root.
type Manifest struct {
	Version     string         `json:"version" yaml:"version"`
	GeneratedAt string         `json:"generatedAt" yaml:"generatedAt"`
	Files       []ManifestFile `json:"files" yaml:"files"`
}

// Validate checks the manifest invariants: a version, an ISO-8601 timestamp,
// and a 64-character hex digest per file.
func (m *Manifest) Validate() error {
	v := &violations{}

	if m.Version == "" {
		v.addf("version", "version is required")
	}
	if m.GeneratedAt == "" {
		v.addf("generatedAt", "generation timestamp is required")
	} else if _, err := time.Parse(time.RFC3339, m.GeneratedAt); err != nil {
		v.addf("generatedAt", "timestamp %q is not ISO-8601", m.GeneratedAt)
	}

	for i, f := range m.Files {
		base := fmt.Sprintf("files[%d]", i)
		if f.Path == "" {
			v.addf(base+".path", "file path is required")
		}
		if !hashPattern.MatchString(f.Hash) {
			v.addf(base+".hash", "hash %q is not a 64-character hex digest", f.Hash)
		}
	}

	return v.err("manifest")
}
