// Package manifest builds the content-addressed distribution of a pipeline
// run: every artifact is copied into the destination tree preserving its
// relative path, hashed after the copy, and listed in a manifest.json at the
// destination root.
package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
)

// ManifestVersion is the manifest schema version written by this builder.
const ManifestVersion = "1.0.0"

// ManifestFileName is the listing written at the destination root.
const ManifestFileName = "manifest.json"

// Builder copies an artifact tree into a distribution root and emits its
// manifest. The zero value is not usable; construct with NewBuilder.
type Builder struct {
	logger *slog.Logger
	now    func() time.Time

	// Version overrides the manifest schema version.
	Version string

	// Ignore holds glob patterns (doublestar syntax, matched against the
	// slash-separated relative path) for files excluded from the
	// distribution. Dated artifact copies are a typical exclusion.
	Ignore []string
}

// NewBuilder creates a manifest builder.
func NewBuilder(logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{logger: logger, now: time.Now, Version: ManifestVersion}
}

// Name returns the stage identifier.
func (b *Builder) Name() string {
	return "artifact_persist"
}

// Run satisfies the stage contract: inputPath is the source artifact root,
// outputPath the distribution root.
func (b *Builder) Run(ctx context.Context, inputPath, outputPath string) error {
	_, err := b.Build(ctx, inputPath, outputPath)
	return err
}

// Build copies every file under srcRoot into dstRoot, hashes the copies and
// writes the manifest into dstRoot. A missing source root is fatal; an empty
// one yields a manifest with zero files.
func (b *Builder) Build(ctx context.Context, srcRoot, dstRoot string) (*ir.Manifest, error) {
	if _, err := os.Stat(srcRoot); err != nil {
		return nil, &artifact.IOError{Op: "stat", Path: srcRoot, Err: err}
	}

	paths, err := b.collect(srcRoot)
	if err != nil {
		return nil, err
	}

	manifest := &ir.Manifest{
		Version:     b.Version,
		GeneratedAt: b.now().UTC().Format(time.RFC3339),
		Files:       []ir.ManifestFile{},
	}

	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entry, err := b.persist(srcRoot, dstRoot, rel)
		if err != nil {
			return nil, err
		}
		manifest.Files = append(manifest.Files, entry)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	b.logger.Info("manifest written",
		slog.Int("files", len(manifest.Files)),
		slog.String("dst", dstRoot))

	if err := artifact.WriteJSON(filepath.Join(dstRoot, ManifestFileName), manifest); err != nil {
		return nil, err
	}
	return manifest, nil
}

// collect walks the source tree and returns the relative paths of every
// regular file, sorted for deterministic manifest ordering.
func (b *Builder) collect(srcRoot string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(srcRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &artifact.IOError{Op: "walk", Path: path, Err: err}
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return &artifact.IOError{Op: "walk", Path: path, Err: err}
		}
		rel = filepath.ToSlash(rel)
		if b.ignored(rel) {
			b.logger.Debug("artifact excluded from distribution", slog.String("path", rel))
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func (b *Builder) ignored(rel string) bool {
	for _, pattern := range b.Ignore {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// persist copies one file into the destination tree and hashes the copied
// bytes. Hashing the copy rather than the source guarantees the manifest
// describes what was actually distributed.
func (b *Builder) persist(srcRoot, dstRoot, rel string) (ir.ManifestFile, error) {
	src := filepath.Join(srcRoot, filepath.FromSlash(rel))
	dst := filepath.Join(dstRoot, filepath.FromSlash(rel))

	data, err := os.ReadFile(src)
	if err != nil {
		return ir.ManifestFile{}, &artifact.IOError{Op: "read", Path: src, Err: err}
	}
	if dir := filepath.Dir(dst); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return ir.ManifestFile{}, &artifact.IOError{Op: "mkdir", Path: dir, Err: err}
		}
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return ir.ManifestFile{}, &artifact.IOError{Op: "write", Path: dst, Err: err}
	}

	copied, err := os.ReadFile(dst)
	if err != nil {
		return ir.ManifestFile{}, &artifact.IOError{Op: "read", Path: dst, Err: err}
	}
	sum := sha256.Sum256(copied)

	return ir.ManifestFile{
		Name: filepath.Base(rel),
		Path: rel,
		Size: int64(len(copied)),
		Hash: hex.EncodeToString(sum[:]),
	}, nil
}
