package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.Detector.DefaultVariation = strings.TrimSpace(c.Detector.DefaultVariation)
	if c.Detector.DefaultVariation == "" {
		c.Detector.DefaultVariation = defaultVariation
	}
	c.Placement.Root = strings.TrimSpace(c.Placement.Root)
	if c.Placement.Root == "" {
		c.Placement.Root = defaultRootMother
	}
	c.Placement.WorldMaterial = strings.TrimSpace(c.Placement.WorldMaterial)
	if c.Placement.WorldMaterial == "" {
		c.Placement.WorldMaterial = defaultWorldMat
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Detector.OutputDir, err = ExpandPath(c.Detector.OutputDir); err != nil {
		return fmt.Errorf("detector.output_dir: %w", err)
	}
	if c.Render.STLPath, err = ExpandPath(c.Render.STLPath); err != nil {
		return fmt.Errorf("render.stl_path: %w", err)
	}
	if strings.TrimSpace(c.Store.Path) == "" {
		c.Store.Path = defaultStorePath
	}
	if c.Store.Path != ":memory:" {
		if c.Store.Path, err = ExpandPath(c.Store.Path); err != nil {
			return fmt.Errorf("store.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
