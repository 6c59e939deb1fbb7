package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the home directory created under the user's home.
	DefaultDirName = ".marginalia"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// LogsDirName holds rotated log files.
	LogsDirName = "logs"

	// DefraDirName is mounted into the DefraDB container as its data dir.
	DefraDirName = "defradb"

	// LogFileName is the default log file name.
	LogFileName = "marginalia.log"
)

// Dir is the marginalia home directory.
type Dir struct {
	path string
}

// New returns the home directory at path, or ~/.marginalia when path is empty.
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}
	return &Dir{path: path}, nil
}

// Path returns the root path.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the default config file path.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// LogsPath returns the log directory.
func (d *Dir) LogsPath() string {
	return filepath.Join(d.path, LogsDirName)
}

// LogFilePath returns the default log file path.
func (d *Dir) LogFilePath() string {
	return filepath.Join(d.LogsPath(), LogFileName)
}

// DefraDataPath returns the DefraDB data directory.
func (d *Dir) DefraDataPath() string {
	return filepath.Join(d.path, DefraDirName)
}

// EnsureExists creates the home directory and its subdirectories.
func (d *Dir) EnsureExists() error {
	for _, p := range []string{d.LogsPath(), d.DefraDataPath()} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
	}
	return nil
}

// Exists reports whether the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists reports whether the config file exists.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
