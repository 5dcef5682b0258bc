package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/lumen/engine/core"
)

type ApplicationConfig struct {
	Name        string `toml:"name"`
	StartPosX   uint32 `toml:"start_pos_x"`
	StartPosY   uint32 `toml:"start_pos_y"`
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`
	AssetDir    string `toml:"asset_dir"`
	WatchAssets bool   `toml:"watch_assets"`
	// Number of workers decoding assets off the render thread.
	DecodeWorkers int `toml:"decode_workers"`
}

/** @brief Fixed capacities of the GPU-resident scene arrays. */
type CapacityConfig struct {
	MaxVertices     uint32 `toml:"max_vertices"`
	MaxIndices      uint32 `toml:"max_indices"`
	MaxDrawCommands uint32 `toml:"max_draw_commands"`
	MaxSubMeshes    uint32 `toml:"max_submeshes"`
	MaxMaterials    uint32 `toml:"max_materials"`
	// Applies to each light kind separately.
	MaxLightsPerType uint32 `toml:"max_lights_per_type"`
}

type RendererConfig struct {
	Capacity CapacityConfig `toml:"capacity"`
	/** @brief Edge size of the square shadow map, independent of the viewport. */
	ShadowMapSize uint32 `toml:"shadow_map_size"`
	/** @brief Size of the G-buffer before the first resize event arrives. */
	GBufferWidth  uint32 `toml:"gbuffer_width"`
	GBufferHeight uint32 `toml:"gbuffer_height"`
	/** @brief Per-call timeout of a fence poll, in nanoseconds. */
	FenceTimeoutNs uint64 `toml:"fence_timeout_ns"`
	/** @brief Multiplier applied to the light-space depth range. */
	ShadowZMult     float32    `toml:"shadow_z_mult"`
	EnvironmentPass bool       `toml:"environment_pass"`
	ClearColor      [4]float32 `toml:"clear_color"`
	// Requests a debug context and logs driver messages.
	GLDebug bool `toml:"gl_debug"`
}

type Config struct {
	LogLevel    string            `toml:"log_level"`
	Application ApplicationConfig `toml:"application"`
	Renderer    RendererConfig    `toml:"renderer"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		Application: ApplicationConfig{
			Name:          "Lumen Deferred Renderer",
			StartPosX:     100,
			StartPosY:     100,
			StartWidth:    1280,
			StartHeight:   720,
			AssetDir:      "assets",
			WatchAssets:   true,
			DecodeWorkers: 2,
		},
		Renderer: RendererConfig{
			Capacity: CapacityConfig{
				MaxVertices:      300000,
				MaxIndices:       500000,
				MaxDrawCommands:  1024,
				MaxSubMeshes:     4096,
				MaxMaterials:     100,
				MaxLightsPerType: 100,
			},
			ShadowMapSize:   2048,
			GBufferWidth:    800,
			GBufferHeight:   800,
			FenceTimeoutNs:  10000000,
			ShadowZMult:     10.0,
			EnvironmentPass: false,
			ClearColor:      [4]float32{0, 0, 0, 1},
		},
	}
}

// Load reads a TOML file on top of the defaults. Keys missing from the file keep
// their default value.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		err = fmt.Errorf("failed to decode config: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	cfg.Validate()
	return cfg, nil
}

// Save writes the configuration as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate replaces unusable values with their defaults, warning for each.
func (c *Config) Validate() {
	def := Default()

	app := &c.Application
	if app.StartWidth == 0 {
		core.LogWarn("start_width must be nonzero. Defaulting to %d.", def.Application.StartWidth)
		app.StartWidth = def.Application.StartWidth
	}
	if app.StartHeight == 0 {
		core.LogWarn("start_height must be nonzero. Defaulting to %d.", def.Application.StartHeight)
		app.StartHeight = def.Application.StartHeight
	}
	if app.DecodeWorkers < 1 {
		core.LogWarn("decode_workers must be a positive number. Defaulting to %d.", def.Application.DecodeWorkers)
		app.DecodeWorkers = def.Application.DecodeWorkers
	}
	if app.AssetDir == "" {
		app.AssetDir = def.Application.AssetDir
	}

	capacity := &c.Renderer.Capacity
	defCap := def.Renderer.Capacity
	nonZero(&capacity.MaxVertices, defCap.MaxVertices, "max_vertices")
	nonZero(&capacity.MaxIndices, defCap.MaxIndices, "max_indices")
	nonZero(&capacity.MaxDrawCommands, defCap.MaxDrawCommands, "max_draw_commands")
	nonZero(&capacity.MaxSubMeshes, defCap.MaxSubMeshes, "max_submeshes")
	nonZero(&capacity.MaxMaterials, defCap.MaxMaterials, "max_materials")
	nonZero(&capacity.MaxLightsPerType, defCap.MaxLightsPerType, "max_lights_per_type")

	r := &c.Renderer
	nonZero(&r.ShadowMapSize, def.Renderer.ShadowMapSize, "shadow_map_size")
	nonZero(&r.GBufferWidth, def.Renderer.GBufferWidth, "gbuffer_width")
	nonZero(&r.GBufferHeight, def.Renderer.GBufferHeight, "gbuffer_height")
	if r.FenceTimeoutNs == 0 {
		core.LogWarn("fence_timeout_ns must be nonzero. Defaulting to %d.", def.Renderer.FenceTimeoutNs)
		r.FenceTimeoutNs = def.Renderer.FenceTimeoutNs
	}
	if r.ShadowZMult <= 0 {
		core.LogWarn("shadow_z_mult must be positive. Defaulting to %.1f.", def.Renderer.ShadowZMult)
		r.ShadowZMult = def.Renderer.ShadowZMult
	}
}

func nonZero(v *uint32, def uint32, key string) {
	if *v == 0 {
		core.LogWarn("%s must be nonzero. Defaulting to %d.", key, def)
		*v = def
	}
}
