package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectConfig holds project-level settings loaded from storeresolve.yml.
type ProjectConfig struct {
	ExcludeDirs []string          `yaml:"excludeDirs,omitempty"`
	Aliases     map[string]string `yaml:"aliases,omitempty"`
	IndexPath   string            `yaml:"indexPath,omitempty"`
	Parallelism int               `yaml:"parallelism,omitempty"`
	Verbose     bool              `yaml:"verbose,omitempty"`
	MCPAddr     string            `yaml:"mcpAddr,omitempty"`
}

// FileNames are the config file names Load looks for, in order.
var FileNames = []string{"storeresolve.yml", "storeresolve.yaml"}

// Load attempts to read storeresolve.yml or storeresolve.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if cfg.Parallelism < 0 {
			return nil, fmt.Errorf("parse %s: parallelism must not be negative", name)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}

// ResolvedIndexPath returns IndexPath relative to dir, or "" when unset.
func (c *ProjectConfig) ResolvedIndexPath(dir string) string {
	if c.IndexPath == "" || filepath.IsAbs(c.IndexPath) {
		return c.IndexPath
	}
	return filepath.Join(dir, c.IndexPath)
}
