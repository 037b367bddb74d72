// Package config loads detgeo settings from a TOML file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Detector holds defaults for detector runs.
type Detector struct {
	DefaultVariation string `toml:"default_variation"`
	DefaultID        int    `toml:"default_id"`
	OutputDir        string `toml:"output_dir"`
}

// Placement configures the placement pass.
type Placement struct {
	Root          string  `toml:"root"`
	WorldMaterial string  `toml:"world_material"`
	WorldHalfSize float64 `toml:"world_half_size"`
}

// Render configures tessellation and STL output.
type Render struct {
	MeshCells int    `toml:"mesh_cells"`
	STLPath   string `toml:"stl_path"`
}

// Script bounds script evaluation.
type Script struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Store locates the SQLite database.
type Store struct {
	Path string `toml:"path"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full configuration.
type Config struct {
	Detector  Detector  `toml:"detector"`
	Placement Placement `toml:"placement"`
	Render    Render    `toml:"render"`
	Script    Script    `toml:"script"`
	Store     Store     `toml:"store"`
	Logging   Logging   `toml:"logging"`
}

// EvalTimeout returns the script timeout as a duration.
func (c *Config) EvalTimeout() time.Duration {
	return time.Duration(c.Script.TimeoutSeconds) * time.Second
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return ExpandPath("~/.config/detgeo/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file
// yields the defaults. The returned config has its paths expanded. The
// resolved path and whether it existed are returned alongside.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("detgeo.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
