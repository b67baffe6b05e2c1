// Package config holds the scene configuration: shell and active-point
// layout, wave timing, background line sets, colors and camera settings.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidConfiguration is returned for non-positive counts and radii,
// unparsable colors and other values that would break scene construction.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Circle describes one shell of disc markers.
type Circle struct {
	Count  int     `toml:"count" yaml:"count"`
	Radius float64 `toml:"radius" yaml:"radius"`
	Size   float64 `toml:"size" yaml:"size"`
}

// Actives describes the pickable active points.
type Actives struct {
	Count          int     `toml:"count" yaml:"count"`
	Radius         float64 `toml:"radius" yaml:"radius"`
	MaxLayerRadius float64 `toml:"max_layer_radius" yaml:"max_layer_radius"`
}

// LineParameter describes one background line-set layer.
type LineParameter struct {
	Scale   float64 `toml:"scale" yaml:"scale"`
	Color   string  `toml:"color" yaml:"color"`
	Opacity float64 `toml:"opacity" yaml:"opacity"`
	Width   float64 `toml:"width" yaml:"width"`
}

// Config is the full scene configuration.
type Config struct {
	Layers           int `toml:"layers" yaml:"layers"`
	Offset           int `toml:"offset" yaml:"offset"`
	Delay            int `toml:"delay" yaml:"delay"`
	Range            int `toml:"range" yaml:"range"`
	ResolutionCircle int `toml:"resolution_circle" yaml:"resolution_circle"`
	ResolutionActive int `toml:"resolution_active" yaml:"resolution_active"`

	LineParameters    []LineParameter `toml:"line_parameters" yaml:"line_parameters"`
	Circles           []Circle        `toml:"circles" yaml:"circles"`
	Actives           Actives         `toml:"actives" yaml:"actives"`
	Environment       int             `toml:"environment" yaml:"environment"`
	EnvironmentRadius float64         `toml:"environment_radius" yaml:"environment_radius"`

	Background string   `toml:"background" yaml:"background"`
	Palette    []string `toml:"palette" yaml:"palette"`

	CameraZ float64 `toml:"camera_z" yaml:"camera_z"`
	FOV     float64 `toml:"fov" yaml:"fov"` // degrees
	Near    float64 `toml:"near" yaml:"near"`
	Far     float64 `toml:"far" yaml:"far"`

	// OrbitStep is added to the orbit angle every tick.
	OrbitStep float64 `toml:"orbit_step" yaml:"orbit_step"`
	// FrameRateIndependent scales OrbitStep by elapsed time (normalized to
	// 60 FPS) instead of applying it once per tick.
	FrameRateIndependent bool `toml:"frame_rate_independent" yaml:"frame_rate_independent"`
}

// Default returns the stock fireball scene.
func Default() Config {
	return Config{
		Layers:           10,
		Offset:           1,
		Delay:            2,
		Range:            2,
		ResolutionCircle: 30,
		ResolutionActive: 50,
		LineParameters: []LineParameter{
			{Scale: 4.0, Color: "#ffffff", Opacity: 0.25, Width: 1},
			{Scale: 4.5, Color: "#ffffff", Opacity: 0.38, Width: 1},
			{Scale: 5.0, Color: "#aaaaaa", Opacity: 0.25, Width: 2},
			{Scale: 5.5, Color: "#ffffff", Opacity: 0.25, Width: 1},
			{Scale: 6.5, Color: "#ffffff", Opacity: 0.25, Width: 1},
			{Scale: 7.0, Color: "#ffffff", Opacity: 0.125, Width: 1},
		},
		Circles: []Circle{
			{Count: 700, Radius: 177, Size: 10},
			{Count: 400, Radius: 151, Size: 6},
			{Count: 200, Radius: 131, Size: 5},
			{Count: 100, Radius: 101, Size: 3},
		},
		Actives:           Actives{Count: 7, Radius: 175, MaxLayerRadius: 13},
		Environment:       1000,
		EnvironmentRadius: 450,
		Background:        "#320a32",
		Palette:           []string{"#d82d33", "#626261", "#ffffff"},
		CameraZ:           500,
		FOV:               70,
		Near:              1,
		Far:               3000,
		OrbitStep:         0.00002,
	}
}

// LayerCount is the number of glow markers per active point.
func (c Config) LayerCount() int {
	return c.Layers
}

// CoresPerPoint is the number of pickable core markers per active point:
// ceil(MaxLayerRadius / Offset).
func (c Config) CoresPerPoint() int {
	if c.Offset <= 0 {
		return 0
	}
	return int(math.Ceil(c.Actives.MaxLayerRadius / float64(c.Offset)))
}

// RegistrySize is the number of registry entries the builder creates.
// Index 0 of the active layout is not an active point.
func (c Config) RegistrySize() int {
	if c.Actives.Count < 1 {
		return 0
	}
	return (c.Actives.Count - 1) * c.CoresPerPoint()
}

// Validate checks every field and joins all problems into one error. Each
// problem wraps ErrInvalidConfiguration.
func (c Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfiguration}, args...)...))
	}

	if c.Layers <= 0 {
		bad("layers must be positive, got %d", c.Layers)
	}
	if c.Offset <= 0 {
		bad("offset must be positive, got %d", c.Offset)
	}
	if c.Delay <= 0 {
		bad("delay must be positive, got %d", c.Delay)
	}
	if c.Range < 0 || (c.Layers > 0 && c.Range >= c.Layers-1) {
		bad("range must be in [0, layers-1), got %d with %d layers", c.Range, c.Layers)
	}
	if c.ResolutionCircle < 3 {
		bad("resolution_circle must be at least 3, got %d", c.ResolutionCircle)
	}
	if c.ResolutionActive < 3 {
		bad("resolution_active must be at least 3, got %d", c.ResolutionActive)
	}
	if c.Actives.Count < 2 {
		bad("actives.count must be at least 2, got %d", c.Actives.Count)
	}
	if !positive(c.Actives.Radius) {
		bad("actives.radius must be positive, got %v", c.Actives.Radius)
	}
	if !positive(c.Actives.MaxLayerRadius) {
		bad("actives.max_layer_radius must be positive, got %v", c.Actives.MaxLayerRadius)
	}
	for i, circle := range c.Circles {
		if circle.Count <= 0 || !positive(circle.Radius) || !positive(circle.Size) {
			bad("circles[%d] needs positive count, radius and size, got %+v", i, circle)
		}
	}
	if c.Environment < 0 {
		bad("environment must not be negative, got %d", c.Environment)
	}
	if c.Environment > 0 && !positive(c.EnvironmentRadius) {
		bad("environment_radius must be positive, got %v", c.EnvironmentRadius)
	}
	for i, lp := range c.LineParameters {
		if !positive(lp.Scale) || lp.Opacity < 0 || lp.Opacity > 1 {
			bad("line_parameters[%d] needs positive scale and opacity in [0,1], got %+v", i, lp)
		}
		if _, err := ParseColor(lp.Color); err != nil {
			bad("line_parameters[%d].color: %v", i, err)
		}
	}
	if _, err := ParseColor(c.Background); err != nil {
		bad("background: %v", err)
	}
	if len(c.Palette) != 3 {
		bad("palette needs exactly 3 colors, got %d", len(c.Palette))
	}
	for i, p := range c.Palette {
		if _, err := ParseColor(p); err != nil {
			bad("palette[%d]: %v", i, err)
		}
	}
	if !positive(c.CameraZ) {
		bad("camera_z must be positive, got %v", c.CameraZ)
	}
	if c.FOV <= 0 || c.FOV >= 180 {
		bad("fov must be in (0, 180), got %v", c.FOV)
	}
	if !positive(c.Near) || c.Far <= c.Near {
		bad("clip planes need 0 < near < far, got near=%v far=%v", c.Near, c.Far)
	}
	if math.IsNaN(c.OrbitStep) || math.IsInf(c.OrbitStep, 0) {
		bad("orbit_step must be finite")
	}
	return errors.Join(errs...)
}

func positive(f float64) bool {
	return f > 0 && !math.IsInf(f, 0)
}

// ParseColor parses a "#rrggbb" hex color.
func ParseColor(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// PaletteColors returns the parsed marker palette.
func (c Config) PaletteColors() ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(c.Palette))
	for _, p := range c.Palette {
		rgba, err := ParseColor(p)
		if err != nil {
			return nil, fmt.Errorf("%w: palette: %w", ErrInvalidConfiguration, err)
		}
		out = append(out, rgba)
	}
	return out, nil
}

// BackgroundColor returns the parsed background color.
func (c Config) BackgroundColor() (color.RGBA, error) {
	rgba, err := ParseColor(c.Background)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: background: %w", ErrInvalidConfiguration, err)
	}
	return rgba, nil
}
