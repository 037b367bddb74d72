package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chazu/detgeo/pkg/placement"
	"github.com/chazu/detgeo/pkg/sensitive"
	"github.com/chazu/detgeo/pkg/spatial"
	"github.com/chazu/detgeo/pkg/volume"
)

// attachSensitive loads descriptors from a YAML file and adds them to d.
func attachSensitive(d *volume.Detector, path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open sensitive file: %w", err)
	}
	defer f.Close()

	descs, err := sensitive.LoadYAML(f)
	if err != nil {
		return err
	}
	for _, sd := range descs {
		if err := d.AddSensitive(sd); err != nil {
			return err
		}
	}
	return nil
}

func (c *commandContext) placementOptions() []placement.Option {
	h := c.config.Placement.WorldHalfSize
	return []placement.Option{
		placement.WithLogger(c.logger),
		placement.WithWorld(c.config.Placement.WorldMaterial, spatial.Vec(h, h, h)),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func formatVector(v spatial.Vector) string {
	return formatFloat(v.X()) + " " + formatFloat(v.Y()) + " " + formatFloat(v.Z())
}
