package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/chazu/detgeo/pkg/emit"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var format string
	var outDir string
	var sensitivePath string
	var variation string
	var id int

	cmd := &cobra.Command{
		Use:   "convert <geometry.txt>",
		Short: "Convert a geometry text file to another representation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			det, err := emit.ReadGeometryFile(args[0])
			if err != nil {
				return err
			}
			if variation != "" {
				det.Variation = variation
			}
			if id > 0 {
				det.ID = id
			}
			if err := attachSensitive(det, sensitivePath); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "txt":
				dir := outDir
				if dir == "" {
					dir = ctx.config.Detector.OutputDir
				}
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
				files, err := emit.WriteFiles(dir, det)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Wrote %s\n", files.Geometry)
				return nil
			case "script":
				return emit.WriteScript(out, det)
			case "rows":
				fmt.Fprintln(out, renderGeometryRows(emit.GeometryRows(det)))
				return nil
			default:
				return fmt.Errorf("unknown format %q (want txt, rows or script)", format)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "script", "Output format: txt, rows or script")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory for txt")
	cmd.Flags().StringVar(&sensitivePath, "sensitive", "", "YAML file with sensitive descriptors")
	cmd.Flags().StringVar(&variation, "variation", "", "Override the variation taken from the file name")
	cmd.Flags().IntVar(&id, "id", 0, "Override the run id")
	return cmd
}

func renderGeometryRows(rows []emit.GeometryRow) string {
	headers := []string{"Name", "Mother", "Type", "Dimensions", "Pos", "Rot", "Material", "Sensitivity", "Copy"}
	data := make([][]string, 0, len(rows))
	for _, r := range rows {
		data = append(data, []string{
			r.Name, r.Mother, r.Type, r.Dimensions, r.Pos, r.Rot, r.Material, r.Sensitivity, strconv.Itoa(r.NCopy),
		})
	}
	return renderTable(headers, data, []columnAlignment{
		alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight,
	})
}
