package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validatePlacement(); err != nil {
		return err
	}
	if c.Render.MeshCells < 8 {
		return fmt.Errorf("render.mesh_cells must be at least 8, got %d", c.Render.MeshCells)
	}
	if c.Script.TimeoutSeconds < 1 {
		return fmt.Errorf("script.timeout_seconds must be at least 1, got %d", c.Script.TimeoutSeconds)
	}
	return c.validateLogging()
}

func (c *Config) validateDetector() error {
	if c.Detector.DefaultID < 1 {
		return fmt.Errorf("detector.default_id must be positive, got %d", c.Detector.DefaultID)
	}
	return nil
}

func (c *Config) validatePlacement() error {
	if c.Placement.WorldHalfSize <= 0 {
		return errors.New("placement.world_half_size must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level)
}
