package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chazu/detgeo/pkg/emit"
	"github.com/chazu/detgeo/pkg/store"
)

func newStoreCommand(ctx *commandContext) *cobra.Command {
	storeCmd := &cobra.Command{
		Use:   "store",
		Short: "Read and write detector runs in the database",
	}
	storeCmd.AddCommand(newStoreWriteCommand(ctx))
	storeCmd.AddCommand(newStoreReadCommand(ctx))
	storeCmd.AddCommand(newStoreLatestCommand(ctx))
	return storeCmd
}

func (c *commandContext) withStore(fn func(*store.Store) error) error {
	s, err := store.Open(c.config.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func newStoreWriteCommand(ctx *commandContext) *cobra.Command {
	var sensitivePath string
	var id int
	var nextID bool

	cmd := &cobra.Command{
		Use:   "write <geometry.txt>",
		Short: "Store a geometry text file as a detector run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			det, err := emit.ReadGeometryFile(args[0])
			if err != nil {
				return err
			}
			if err := attachSensitive(det, sensitivePath); err != nil {
				return err
			}
			if id > 0 {
				det.ID = id
			}
			return ctx.withStore(func(s *store.Store) error {
				if nextID {
					n, err := s.NextID(cmd.Context(), det.Name, det.Variation)
					if err != nil {
						return err
					}
					det.ID = n
				}
				if err := s.WriteDetector(cmd.Context(), det); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Stored %s variation %s id %d (%d volumes) in %s\n",
					det.Name, det.Variation, det.ID, det.Tree.Len(), s.Path())
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&sensitivePath, "sensitive", "", "YAML file with sensitive descriptors")
	cmd.Flags().IntVar(&id, "id", 0, "Run id (defaults to 1)")
	cmd.Flags().BoolVar(&nextID, "next-id", false, "Store under the next free run id")
	return cmd
}

func newStoreReadCommand(ctx *commandContext) *cobra.Command {
	var variation string
	var id int
	var format string
	var outDir string

	cmd := &cobra.Command{
		Use:   "read <detector>",
		Short: "Read a stored detector run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if variation == "" {
				variation = ctx.config.Detector.DefaultVariation
			}
			return ctx.withStore(func(s *store.Store) error {
				runID := id
				if runID == 0 {
					latest, err := s.LatestID(cmd.Context(), args[0], variation)
					if err != nil {
						return err
					}
					if latest == 0 {
						return fmt.Errorf("%s variation %s: %w", args[0], variation, store.ErrNotFound)
					}
					runID = latest
				}
				det, err := s.ReadDetector(cmd.Context(), args[0], variation, runID)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				switch format {
				case "rows":
					det.Summary(out)
					fmt.Fprintln(out, renderGeometryRows(emit.GeometryRows(det)))
				case "script":
					return emit.WriteScript(out, det)
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
				default:
					return fmt.Errorf("unknown format %q (want txt, rows or script)", format)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&variation, "variation", "", "Variation (defaults to detector.default_variation)")
	cmd.Flags().IntVar(&id, "id", 0, "Run id (defaults to the latest)")
	cmd.Flags().StringVarP(&format, "format", "f", "rows", "Output format: txt, rows or script")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory for txt")
	return cmd
}

func newStoreLatestCommand(ctx *commandContext) *cobra.Command {
	var variation string

	cmd := &cobra.Command{
		Use:   "latest <detector>",
		Short: "Print the latest stored run id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if variation == "" {
				variation = ctx.config.Detector.DefaultVariation
			}
			return ctx.withStore(func(s *store.Store) error {
				id, err := s.LatestID(cmd.Context(), args[0], variation)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&variation, "variation", "", "Variation (defaults to detector.default_variation)")
	return cmd
}
