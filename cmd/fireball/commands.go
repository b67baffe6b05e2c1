package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taigrr/fireball/internal/host/web"
	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/math3d"
	"github.com/taigrr/fireball/pkg/models"
	"github.com/taigrr/fireball/pkg/render"
	"github.com/taigrr/fireball/pkg/view"
)

// tick is the simulated frame interval for offscreen commands.
const tick = time.Second / 60

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the viewer to browsers",
		Long:  "Serve the viewer over HTTP. Every browser tab gets its own scene, streamed as PNG frames over a websocket.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			srv, err := web.NewServer(cfg, web.Options{FPS: g.fps, Seed: g.seed})
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if watch {
				if g.configPath == "" {
					return fmt.Errorf("--watch needs --config")
				}
				go watchConfig(ctx, g.configPath, srv.Rebuild)
			}
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild open views when the config file changes")
	return cmd
}

func newExportCmd(g *globals) *cobra.Command {
	var ticks, segments int
	var scale float64
	cmd := &cobra.Command{
		Use:   "export <out.glb|out.stl|out.obj>",
		Short: "Export the scene as a 3D model",
		Long:  "Tessellate the scene after the given number of ticks and write it as GLB, STL or OBJ. STL keeps only the triangles.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), cmd.OutOrStdout(), g, args[0], ticks, segments, scale)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 0, "Animation ticks to run before exporting")
	cmd.Flags().IntVar(&segments, "segments", 16, "Maximum segments per marker")
	cmd.Flags().Float64Var(&scale, "scale", 1, "Uniform scale applied to the exported model")
	return cmd
}

func newSnapshotCmd(g *globals) *cobra.Command {
	var ticks int
	var size string
	cmd := &cobra.Command{
		Use:   "snapshot <out.png>",
		Short: "Render one frame to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, h, err := parseSize(size)
			if err != nil {
				return err
			}
			return runSnapshot(cmd.Context(), cmd.OutOrStdout(), g, args[0], ticks, w, h)
		},
	}
	cmd.Flags().IntVar(&ticks, "ticks", 1, "Animation ticks to run before the snapshot")
	cmd.Flags().StringVar(&size, "size", "800x600", "Image size (WxH)")
	return cmd
}

func newInfoCmd(g *globals) *cobra.Command {
	var modelPath string
	var dump bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Display scene or model information",
		Long:  "Display the scene built from the config, or with --model the statistics of an exported model file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if modelPath != "" {
				return runModelInfo(cmd.OutOrStdout(), modelPath)
			}
			if dump {
				return runDump(cmd.OutOrStdout(), g)
			}
			return runInfo(cmd.OutOrStdout(), g)
		},
	}
	cmd.Flags().StringVar(&modelPath, "model", "", "Model file (.glb, .stl, .obj) to inspect")
	cmd.Flags().BoolVar(&dump, "dump", false, "Print the effective config as TOML")
	return cmd
}

// simulate builds a view and runs ticks frames on a width x height
// surface. The returned frame is nil when ticks is zero.
func simulate(ctx context.Context, g *globals, ticks, width, height int) (*view.View, *render.Framebuffer, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	v, err := view.New(cfg, g.viewOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("build scene: %w", err)
	}
	if err := v.Mount(width, height); err != nil {
		return nil, nil, err
	}
	var fb *render.Framebuffer
	start := time.Now()
	for i := range ticks {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		fb, err = v.FrameTick(start.Add(time.Duration(i) * tick))
		if err != nil {
			return nil, nil, err
		}
	}
	return v, fb, nil
}

func runSnapshot(ctx context.Context, out io.Writer, g *globals, path string, ticks, width, height int) error {
	_, fb, err := simulate(ctx, g, max(ticks, 1), width, height)
	if err != nil {
		return err
	}
	if err := fb.SavePNG(path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s (%dx%d)\n", path, width, height)
	return nil
}

func runExport(ctx context.Context, out io.Writer, g *globals, path string, ticks, segments int, scale float64) error {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return fmt.Errorf("invalid scale %v: must be positive", scale)
	}
	v, _, err := simulate(ctx, g, ticks, 1, 1)
	if err != nil {
		return err
	}
	mesh := models.FromGraph(v.Graph(), segments)
	if scale != 1 {
		mesh.Transform(math3d.Scale(math3d.V3(scale, scale, scale)))
	}
	return writeModel(out, mesh, path)
}

func writeModel(out io.Writer, mesh *models.Mesh, path string) error {
	if err := models.Save(mesh, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	fmt.Fprintf(out, "Wrote %s: %d triangles, %d lines, %d materials\n",
		path, mesh.TriangleCount(), mesh.LineCount(), len(mesh.Materials))
	return nil
}

func runInfo(out io.Writer, g *globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	v, err := view.New(cfg, g.viewOptions())
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}
	st := v.Graph().Stats()
	source := "built-in default"
	if g.configPath != "" {
		source = g.configPath
	}

	fmt.Fprintf(out, "Config:       %s\n", source)
	fmt.Fprintf(out, "Layers:       %d (offset %d, delay %d, range %d)\n", cfg.Layers, cfg.Offset, cfg.Delay, cfg.Range)
	fmt.Fprintf(out, "Background:   %s\n", cfg.Background)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Shells:       %d (%d markers)\n", st.Shells, st.Discs)
	fmt.Fprintf(out, "Line sets:    %d (%d segments)\n", st.LineSets, st.Segments)
	fmt.Fprintf(out, "Actives:      %d\n", st.Actives)
	fmt.Fprintf(out, "Core markers: %d\n", st.CoreMarkers)
	fmt.Fprintf(out, "Glow markers: %d\n", st.GlowMarkers)
	fmt.Fprintf(out, "Registry:     %d\n", st.RegistrySize)
	return nil
}

func runDump(out io.Writer, g *globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runModelInfo(out io.Writer, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}
	mesh, err := models.Load(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}
	mesh.CalculateBounds()
	size := mesh.Size()
	center := mesh.Center()
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")

	fmt.Fprintf(out, "File:       %s\n", filepath.Base(path))
	fmt.Fprintf(out, "Format:     %s\n", strings.ToUpper(ext))
	fmt.Fprintf(out, "Size:       %.2f KB\n", float64(info.Size())/1024)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Vertices:   %d\n", mesh.VertexCount())
	fmt.Fprintf(out, "Triangles:  %d\n", mesh.TriangleCount())
	fmt.Fprintf(out, "Lines:      %d\n", mesh.LineCount())
	fmt.Fprintf(out, "Materials:  %d\n", len(mesh.Materials))
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Bounds Min: (%.3f, %.3f, %.3f)\n", mesh.BoundsMin.X, mesh.BoundsMin.Y, mesh.BoundsMin.Z)
	fmt.Fprintf(out, "Bounds Max: (%.3f, %.3f, %.3f)\n", mesh.BoundsMax.X, mesh.BoundsMax.Y, mesh.BoundsMax.Z)
	fmt.Fprintf(out, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
	fmt.Fprintf(out, "Center:     (%.3f, %.3f, %.3f)\n", center.X, center.Y, center.Z)
	return nil
}

// parseSize reads "WxH".
func parseSize(s string) (width, height int, err error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q (want WxH)", s)
	}
	width, err = strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width %q: %w", ws, err)
	}
	height, err = strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height %q: %w", hs, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	return width, height, nil
}
