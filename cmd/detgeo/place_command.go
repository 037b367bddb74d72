package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/detgeo/pkg/emit"
	"github.com/chazu/detgeo/pkg/kernel"
	"github.com/chazu/detgeo/pkg/kernel/record"
	"github.com/chazu/detgeo/pkg/kernel/sdfx"
	"github.com/chazu/detgeo/pkg/placement"
	"github.com/chazu/detgeo/pkg/tessellate"
)

func newPlaceCommand(ctx *commandContext) *cobra.Command {
	var root string
	var stlPath string
	var mesh bool

	cmd := &cobra.Command{
		Use:   "place <geometry.txt>...",
		Short: "Validate and place geometry files into a scene",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mother := root
			if mother == "" {
				mother = ctx.config.Placement.Root
			}
			if stlPath == "" {
				stlPath = ctx.config.Render.STLPath
			}
			solid := mesh || stlPath != ""

			jobs := make([]placement.Job, 0, len(args))
			backends := make([]*sdfx.Backend, 0, len(args))
			for _, path := range args {
				det, err := emit.ReadGeometryFile(path)
				if err != nil {
					return err
				}
				var b kernel.Backend
				if solid {
					sb := sdfx.New(sdfx.WithMeshCells(ctx.config.Render.MeshCells))
					backends = append(backends, sb)
					b = sb
				} else {
					b = record.New()
				}
				jobs = append(jobs, placement.Job{Name: det.Name, Tree: det.Tree, Mother: mother, Backend: b})
			}

			results, err := placement.PlaceAll(cmd.Context(), jobs, ctx.placementOptions()...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, res := range results {
				fmt.Fprintf(out, "%s (pass %s)\n", jobs[i].Name, res.PassID)
				fmt.Fprintln(out, renderPlaced(res))
				for _, w := range res.Warnings {
					fmt.Fprintf(out, "warning: %s\n", w)
				}
				if !solid {
					continue
				}
				if mesh {
					meshes, err := tessellate.Tessellate(res, backends[i])
					if err != nil {
						return err
					}
					printMeshes(cmd, meshes)
				}
			}

			if stlPath != "" {
				if len(backends) != 1 {
					return fmt.Errorf("--stl needs exactly one geometry file, got %d", len(backends))
				}
				if err := backends[0].WriteSTL(stlPath); err != nil {
					return err
				}
				ctx.logger.Info("wrote stl", zap.String("path", stlPath))
				fmt.Fprintf(out, "Wrote %s\n", stlPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Mother of the top-level volumes (defaults to placement.root)")
	cmd.Flags().StringVar(&stlPath, "stl", "", "Write the placed scene as STL")
	cmd.Flags().BoolVar(&mesh, "mesh", false, "Tessellate every volume and report triangle counts")
	return cmd
}

func renderPlaced(res *placement.Result) string {
	headers := []string{"Volume", "Mother", "Medium", "World position (cm)", "Placed"}
	rows := make([][]string, 0, len(res.Placed))
	for _, p := range res.Placed {
		rows = append(rows, []string{
			p.Name, p.Mother, p.Medium, formatVector(p.World.Translation), strconv.FormatBool(p.Instantiated),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft})
}

func printMeshes(cmd *cobra.Command, meshes []*kernel.Mesh) {
	out := cmd.OutOrStdout()
	rows := make([][]string, 0, len(meshes))
	for _, m := range meshes {
		rows = append(rows, []string{m.Volume, strconv.Itoa(m.VertexCount()), strconv.Itoa(m.TriangleCount())})
	}
	fmt.Fprintln(out, renderTable([]string{"Volume", "Vertices", "Triangles"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))
	if lo, hi, ok := tessellate.Bounds(meshes); ok {
		fmt.Fprintf(out, "bounds: [%s] .. [%s]\n", formatVector(lo), formatVector(hi))
	}
}
