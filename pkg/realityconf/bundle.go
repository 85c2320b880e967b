package realityconf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File is one artifact produced by a render: the engine config itself or an
// auxiliary file such as the client-info credential bundle.
type File struct {
	Path    string      // relative path inside the installation directory
	Content []byte      // file content (binary-safe)
	Mode    fs.FileMode // unix permissions; secret-bearing files use 0600
}

// Metadata records how and when a bundle was generated.
type Metadata struct {
	Backend       string            // backend name that produced the bundle
	EngineVersion string            // engine version the config was validated against
	Generated     time.Time         // creation timestamp
	Tag           string            // optional generation tag
	Custom        map[string]string // backend-specific extras
}

// Bundle is the complete output of a render operation. Nothing in a bundle
// has touched the filesystem yet; WriteTo deploys it in one pass, and only
// fully validated documents ever become bundles.
type Bundle struct {
	Files    []File
	Metadata Metadata
}

// NewBundle creates an empty bundle stamped with the current time.
func NewBundle(backend, engineVersion string) *Bundle {
	return &Bundle{
		Files: make([]File, 0),
		Metadata: Metadata{
			Backend:       backend,
			EngineVersion: engineVersion,
			Generated:     time.Now(),
			Custom:        make(map[string]string),
		},
	}
}

// Add appends a file to the bundle.
func (b *Bundle) Add(path string, content []byte, mode fs.FileMode) {
	b.Files = append(b.Files, File{Path: path, Content: content, Mode: mode})
}

// WriteTo deploys every file under dir, creating parent directories as
// needed. Paths are confined to dir; a file that would escape it aborts the
// write.
func (b *Bundle) WriteTo(dir string) error {
	if dir == "" {
		return fmt.Errorf("no output directory")
	}
	for _, file := range b.Files {
		if file.Path == "" {
			continue
		}
		rel := strings.TrimPrefix(file.Path, "/")
		rel = strings.TrimPrefix(rel, string(filepath.Separator))
		if rel == "" {
			return fmt.Errorf("invalid bundle file path %q", file.Path)
		}
		target := filepath.Join(dir, filepath.Clean(rel))
		if !strings.HasPrefix(target, filepath.Clean(dir)+string(filepath.Separator)) {
			return fmt.Errorf("bundle file escapes output directory: %q", file.Path)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("create directories for %q: %w", target, err)
		}
		mode := file.Mode
		if mode == 0 {
			mode = 0o644
		}
		if err := os.WriteFile(target, file.Content, mode); err != nil {
			return fmt.Errorf("write bundle file %q: %w", target, err)
		}
	}
	return nil
}
