package manifest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/pedal/artifact"
	"github.com/c360studio/pedal/ir"
)

// writeFixtureTree lays out four files across two nesting levels.
func writeFixtureTree(t *testing.T, root string) {
	t.Helper()
	files := map[string]string{
		"requirements.json":       `{"entities": []}`,
		"oas.yaml":                "openapi: 3.0.0\n",
		"generated/zod.ts":        "export {};\n",
		"generated/migration.sql": "create table t ();\n",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestBuild_FixtureTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFixtureTree(t, src)

	b := NewBuilder(nil)
	manifest, err := b.Build(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, manifest.Files, 4)
	assert.Equal(t, ManifestVersion, manifest.Version)
	assert.NotEmpty(t, manifest.GeneratedAt)

	// Entries are sorted by relative path.
	paths := make([]string, 0, len(manifest.Files))
	for _, f := range manifest.Files {
		paths = append(paths, f.Path)
	}
	assert.Equal(t, []string{
		"generated/migration.sql",
		"generated/zod.ts",
		"oas.yaml",
		"requirements.json",
	}, paths)

	for _, f := range manifest.Files {
		assert.Len(t, f.Hash, 64)

		// The hash is the digest of the copied bytes, not the source.
		copied, err := os.ReadFile(filepath.Join(dst, filepath.FromSlash(f.Path)))
		require.NoError(t, err)
		sum := sha256.Sum256(copied)
		assert.Equal(t, hex.EncodeToString(sum[:]), f.Hash)
		assert.Equal(t, int64(len(copied)), f.Size)
		assert.Equal(t, filepath.Base(f.Path), f.Name)
	}

	// The manifest itself lands at the destination root.
	var onDisk ir.Manifest
	require.NoError(t, artifact.ReadStructured(filepath.Join(dst, ManifestFileName), &onDisk))
	require.NoError(t, onDisk.Validate())
	assert.Len(t, onDisk.Files, 4)
}

func TestBuild_MissingSourceRoot(t *testing.T) {
	b := NewBuilder(nil)
	_, err := b.Build(context.Background(), filepath.Join(t.TempDir(), "absent"), t.TempDir())
	require.Error(t, err)
	assert.True(t, artifact.IsIOError(err))
}

func TestBuild_EmptySourceRoot(t *testing.T) {
	b := NewBuilder(nil)
	manifest, err := b.Build(context.Background(), t.TempDir(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, manifest.Files)
}

func TestBuild_IgnorePatterns(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFixtureTree(t, src)
	require.NoError(t, os.WriteFile(
		filepath.Join(src, "oas_20260314.yaml"), []byte("openapi: 3.0.0\n"), 0644))

	b := NewBuilder(nil)
	b.Ignore = []string{"**/*_[0-9][0-9][0-9][0-9][0-9][0-9][0-9][0-9].*"}

	manifest, err := b.Build(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, manifest.Files, 4, "dated copies stay out of the distribution")
	_, err = os.Stat(filepath.Join(dst, "oas_20260314.yaml"))
	assert.True(t, os.IsNotExist(err))
}
