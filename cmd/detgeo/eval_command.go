package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chazu/detgeo/pkg/emit"
	"github.com/chazu/detgeo/pkg/engine"
	"github.com/chazu/detgeo/pkg/store"
)

func newEvalCommand(ctx *commandContext) *cobra.Command {
	var outDir string
	var sensitivePath string
	var toStore bool
	var nextID bool

	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a geometry script and write the text files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			eng := engine.NewEngine(
				engine.WithLogger(ctx.logger),
				engine.WithDefaults(ctx.config.Detector.DefaultVariation, ctx.config.Detector.DefaultID),
				engine.WithTimeout(ctx.config.EvalTimeout()),
			)
			det, evalErrs, err := eng.Evaluate(string(src))
			if err != nil {
				return err
			}
			if len(evalErrs) > 0 {
				msgs := make([]string, len(evalErrs))
				for i, e := range evalErrs {
					msgs[i] = fmt.Sprintf("%s: %s", args[0], e.Error())
				}
				return errors.New(strings.Join(msgs, "\n"))
			}
			if err := attachSensitive(det, sensitivePath); err != nil {
				return err
			}

			if toStore {
				s, err := store.Open(ctx.config.Store.Path)
				if err != nil {
					return err
				}
				defer s.Close()
				if nextID {
					id, err := s.NextID(cmd.Context(), det.Name, det.Variation)
					if err != nil {
						return err
					}
					det.ID = id
				}
				if err := s.WriteDetector(cmd.Context(), det); err != nil {
					return err
				}
				ctx.logger.Info("stored detector run",
					zap.String("detector", det.Name),
					zap.String("variation", det.Variation),
					zap.Int("id", det.ID))
			}

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

			out := cmd.OutOrStdout()
			det.Summary(out)
			for _, f := range []string{files.Geometry, files.Hits, files.Banks} {
				if f != "" {
					fmt.Fprintf(out, "Wrote %s\n", f)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (defaults to detector.output_dir)")
	cmd.Flags().StringVar(&sensitivePath, "sensitive", "", "YAML file with additional sensitive descriptors")
	cmd.Flags().BoolVar(&toStore, "store", false, "Also write the run to the database")
	cmd.Flags().BoolVar(&nextID, "next-id", false, "Store under the next free run id")
	return cmd
}
