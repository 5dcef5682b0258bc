package testbed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine"
	"github.com/spaghettifunk/lumen/engine/config"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer"
	"github.com/spaghettifunk/lumen/engine/resources"
	"github.com/spaghettifunk/lumen/engine/scene"
)

// seconds between material swaps on the first cube
const swapInterval = 3.0

type TestGame struct {
	*engine.Game
}

type gameState struct {
	width  uint32
	height uint32

	cubes     []scene.Entity
	materials []uuid.UUID
	choice    int
	sinceSwap float64
	frames    uint64
}

func NewTestGame(cfg *config.Config, rendererType renderer.RendererType) *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			Config:       cfg,
			RendererType: rendererType,
			State:        &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")

	if g.Scene == nil {
		return fmt.Errorf("the engine did not provide a scene")
	}
	state := g.State.(*gameState)
	s := g.Scene

	s.Camera.SetPosition(mgl32.Vec3{10.5, 5.0, 9.5})
	s.Camera.LookAt(mgl32.Vec3{0, 0, 0})

	materials, err := g.loadMaterials()
	if err != nil {
		return err
	}
	state.materials = materials

	floor, err := s.AddPlane("floor")
	if err != nil {
		return err
	}
	if tc, ok := scene.Get[scene.TransformComponent](s.Registry(), floor); ok {
		tc.SetScale(mgl32.Vec3{20, 1, 20})
	}

	positions := []mgl32.Vec3{{0, 0, 0}, {4, 0, 1}, {-4, 0, -1}}
	for i, p := range positions {
		cube, err := s.AddCube(fmt.Sprintf("cube_%d", i))
		if err != nil {
			return err
		}
		tc, _ := scene.Get[scene.TransformComponent](s.Registry(), cube)
		tc.SetPosition(p)
		if err := s.AssignMaterial(cube, 0, materials[i%len(materials)]); err != nil {
			return err
		}
		state.cubes = append(state.cubes, cube)
	}

	s.AddDirectionalLight(mgl32.Vec3{-0.4, 1, 0.3})
	point := s.AddPointLight()
	if light, ok := scene.Get[scene.LightComponent](s.Registry(), point); ok {
		light.Position = mgl32.Vec3{2, 2.5, 3}
	}
	spot := s.AddSpotLight()
	if light, ok := scene.Get[scene.LightComponent](s.Registry(), spot); ok {
		light.Position = mgl32.Vec3{-4, 4, -1}
		light.InnerRadius, light.OuterRadius = 12, 25
	}

	g.loadEnvironment()
	return nil
}

// loadMaterials reads <asset dir>/materials/*.mat.toml. Without any, three
// colored materials are generated.
func (g *TestGame) loadMaterials() ([]uuid.UUID, error) {
	cache := g.Scene.Cache()
	dir := filepath.Join(g.Config.Application.AssetDir, "materials")
	paths, _ := filepath.Glob(filepath.Join(dir, "*.mat.toml"))

	ids := []uuid.UUID{}
	for _, p := range paths {
		m, err := resources.Load[resources.Material](cache, p)
		if err != nil {
			core.LogWarn("skipping material '%s': %s", p, err)
			continue
		}
		ids = append(ids, m.ID())
	}
	if len(ids) > 0 {
		return ids, nil
	}

	colors := []mgl32.Vec4{{0.8, 0.2, 0.2, 1}, {0.2, 0.7, 0.3, 1}, {0.9, 0.8, 0.3, 1}}
	for i, c := range colors {
		m, err := resources.Create[resources.Material](cache, fmt.Sprintf("generated/material_%d.mat.toml", i))
		if err != nil {
			return nil, err
		}
		m.Color = c
		ids = append(ids, m.ID())
	}
	return ids, nil
}

func (g *TestGame) loadEnvironment() {
	path := filepath.Join(g.Config.Application.AssetDir, "environment", "sky.cube")
	if _, err := os.Stat(path); err != nil {
		return
	}
	env, err := resources.Load[resources.Environment](g.Scene.Cache(), path)
	if err != nil {
		core.LogWarn("no environment: %s", err)
		return
	}
	g.Scene.Environment = env
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	s := g.Scene

	// Perform a small rotation on every cube, degrees per second.
	dt := float32(deltaTime)
	for i, cube := range state.cubes {
		tc, ok := scene.Get[scene.TransformComponent](s.Registry(), cube)
		if !ok {
			continue
		}
		speed := 30 * float32(i+1)
		tc.Rotate(mgl32.Vec3{0, speed * dt, 0})
	}

	// Just swap out the material on the first cube every few seconds.
	state.sinceSwap += deltaTime
	if state.sinceSwap >= swapInterval && len(state.materials) > 1 && len(state.cubes) > 0 {
		state.sinceSwap = 0
		state.choice = (state.choice + 1) % len(state.materials)
		if err := s.AssignMaterial(state.cubes[0], 0, state.materials[state.choice]); err != nil {
			core.LogError("failed to swap material: %s", err)
		}
	}

	state.frames++
	if state.frames%600 == 0 {
		pos := s.Camera.Position
		core.LogDebug("frame %d, camera at [%.2f, %.2f, %.2f]", state.frames, pos.X(), pos.Y(), pos.Z())
	}
	return nil
}

func (g *TestGame) Render(packet *renderer.RenderPacket, deltaTime float64) error {
	packet.DeltaTime = deltaTime
	packet.Scene = g.Scene
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

func (g *TestGame) Shutdown() error {
	core.LogInfo("testbed shutting down")
	return nil
}
