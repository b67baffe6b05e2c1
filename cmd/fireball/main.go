// fireball - a sphere of particles in your terminal or browser.
//
// Concentric shells of markers orbit the camera while a wave of glow
// layers pulses through the active points. Hover an active point to
// highlight it and click it for details.
//
// Controls (terminal):
//
//	Mouse drag  - Orbit
//	Scroll, +/- - Zoom
//	W/A/S/D     - Orbit
//	R           - Reset camera
//	?           - Toggle HUD overlay
//	Esc         - Close dialog, or quit
//	Q, Ctrl+C   - Quit
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"syscall"

	"fortio.org/log"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/fireball/internal/host/term"
	"github.com/taigrr/fireball/pkg/config"
	"github.com/taigrr/fireball/pkg/view"
)

var (
	version = "dev"
	commit  = ""
)

// globals are the flags shared by every command.
type globals struct {
	configPath string
	seed       int64
	fps        int
	watch      bool
	logFile    string
	debug      bool
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd(),
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	var noHUD bool
	cmd := &cobra.Command{
		Use:   "fireball",
		Short: "Sphere of particles in your terminal",
		Long: `fireball - a sphere of particles in your terminal or browser.

Controls:
  Mouse drag  - Orbit
  Scroll, +/- - Zoom
  W/A/S/D     - Orbit
  R           - Reset camera
  ?           - Toggle HUD overlay
  Esc         - Close dialog, or quit
  Q, Ctrl+C   - Quit`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.setupLogging(cmd.Name() == "fireball")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runViewer(cmd.Context(), g, !noHUD)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Scene config file (.toml, .yaml)")
	pf.Int64Var(&g.seed, "seed", 0, "Random seed for marker jitter (0: time based)")
	pf.IntVar(&g.fps, "fps", 60, "Target FPS")
	pf.StringVar(&g.logFile, "log-file", "", "Write logs to this file")
	pf.BoolVar(&g.debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVarP(&g.watch, "watch", "w", false, "Rebuild the scene when the config file changes")
	cmd.Flags().BoolVar(&noHUD, "no-hud", false, "Start with the HUD hidden")

	cmd.AddCommand(
		newServeCmd(g),
		newExportCmd(g),
		newSnapshotCmd(g),
		newInfoCmd(g),
	)
	return cmd
}

// setupLogging applies --debug and --log-file. The terminal viewer owns the
// screen, so without a log file its logs are dropped.
func (g *globals) setupLogging(fullscreen bool) error {
	if g.debug {
		log.SetLogLevel(log.Debug)
	}
	switch {
	case g.logFile != "":
		f, err := os.OpenFile(g.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		log.SetOutput(f)
	case fullscreen:
		log.SetOutput(io.Discard)
	}
	return nil
}

func (g *globals) loadConfig() (config.Config, error) {
	if g.configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (g *globals) viewOptions() view.Options {
	return view.Options{FPS: g.fps, Seed: g.seed}
}

func runViewer(ctx context.Context, g *globals, showHUD bool) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	v, err := view.New(cfg, g.viewOptions())
	if err != nil {
		return fmt.Errorf("build scene: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := term.Options{FPS: g.fps, ShowHUD: showHUD}
	if g.watch {
		if g.configPath == "" {
			return fmt.Errorf("--watch needs --config")
		}
		rebuilds := make(chan view.Event, 1)
		opts.Events = rebuilds
		go watchConfig(ctx, g.configPath, func(cfg config.Config) {
			select {
			case rebuilds <- view.RebuildEvent{Config: cfg}:
			case <-ctx.Done():
			}
		})
	}
	return term.Run(ctx, v, opts)
}

func watchConfig(ctx context.Context, path string, onChange func(config.Config)) {
	if err := config.Watch(ctx, path, onChange); err != nil {
		log.Errf("watch config: %v", err)
	}
}
