package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chazu/detgeo/pkg/spatial"
)

func newRotationCommand() *cobra.Command {
	var unit string
	var passive bool

	cmd := &cobra.Command{
		Use:         "rotation <x> <y> <z>",
		Short:       "Compose x-y-z angles and print the matrix and its decompositions",
		Args:        cobra.ExactArgs(3),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var scale float64
			switch unit {
			case "deg":
				scale = math.Pi / 180
			case "rad":
				scale = 1
			default:
				return fmt.Errorf("unknown unit %q (want deg or rad)", unit)
			}
			var v [3]float64
			for i, a := range args {
				f, err := strconv.ParseFloat(a, 64)
				if err != nil {
					return fmt.Errorf("angle %q: %w", a, err)
				}
				v[i] = f * scale
			}

			angles := spatial.Angles{X: v[0], Y: v[1], Z: v[2]}
			r := spatial.ComposeActive(angles)
			if passive {
				r = spatial.ComposePassive(angles)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, r)
			printAngles(cmd, "active", r.DecomposeActive())
			printAngles(cmd, "passive", r.DecomposePassive())
			return nil
		},
	}

	cmd.Flags().StringVar(&unit, "unit", "deg", "Angle unit: deg or rad")
	cmd.Flags().BoolVar(&passive, "passive", false, "Treat the angles as a passive rotation")
	return cmd
}

func printAngles(cmd *cobra.Command, label string, a spatial.Angles) {
	d := a.Degrees()
	note := ""
	if a.GimbalLock {
		note = " (gimbal lock)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s %s deg%s\n", label, formatFloat(d[0]), formatFloat(d[1]), formatFloat(d[2]), note)
}
