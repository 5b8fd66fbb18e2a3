package cli

import (
	"os"
	"path/filepath"
)

// Paths locates the per-user rushdb directories under ~/.rushdb.
type Paths struct {
	HomeDir string
}

// NewPaths returns the paths for the current user.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir returns ~/.rushdb.
func (p *Paths) BaseDir() string {
	return filepath.Join(p.HomeDir, DefaultBaseDir)
}

// ConfigFile returns ~/.rushdb/config.yaml.
func (p *Paths) ConfigFile() string {
	return filepath.Join(p.BaseDir(), DefaultConfigFile)
}

// SnapshotDir returns the directory holding snapshot databases for a
// context: ~/.rushdb/snapshots/<context>.
func (p *Paths) SnapshotDir(context string) string {
	return filepath.Join(p.BaseDir(), "snapshots", context)
}

// EnsureDir creates dir and its parents.
func (p *Paths) EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0755)
}
