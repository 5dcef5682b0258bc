package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/resources"
)

/**
 * @brief A renderable world: the entity registry, the resources its entities
 * reference, the main camera and an optional environment. The registry and
 * materials dirty flags tell the renderer what must be re-uploaded.
 */
type Scene struct {
	Name        string
	Camera      *Camera
	Environment *resources.Environment

	cache    *resources.Cache
	registry Registry

	registryDirty  bool
	materialsDirty bool
}

func NewScene(name string, cache *resources.Cache, registry Registry, width, height uint32) *Scene {
	camera := NewCamera("Main Camera", mgl32.Vec3{3, 3, 8}, float32(width), float32(height))
	camera.LookAt(mgl32.Vec3{})
	return &Scene{
		Name:           name,
		Camera:         camera,
		cache:          cache,
		registry:       registry,
		registryDirty:  true,
		materialsDirty: true,
	}
}

func (s *Scene) Cache() *resources.Cache { return s.cache }

func (s *Scene) Registry() Registry { return s.registry }

func (s *Scene) IsRegistryDirty() bool { return s.registryDirty }
func (s *Scene) MarkRegistryDirty()    { s.registryDirty = true }
func (s *Scene) ClearRegistryDirty()   { s.registryDirty = false }

func (s *Scene) IsMaterialsDirty() bool { return s.materialsDirty }
func (s *Scene) MarkMaterialsDirty()    { s.materialsDirty = true }
func (s *Scene) ClearMaterialsDirty()   { s.materialsDirty = false }

// CreateEntity adds an entity with an id, a tag and an identity transform.
func (s *Scene) CreateEntity(name string) Entity {
	e := s.registry.CreateEntity()
	s.registry.AddComponent(e, &IDComponent{ID: s.registry.UUID(e)})
	s.registry.AddComponent(e, &TagComponent{Tag: name})
	s.registry.AddComponent(e, NewTransformComponent())
	s.MarkRegistryDirty()
	return e
}

// DestroyEntity removes e and releases the materials its mesh filter used.
func (s *Scene) DestroyEntity(e Entity) {
	if !s.registry.Valid(e) {
		return
	}
	if mf, ok := Get[MeshFilterComponent](s.registry, e); ok {
		for id, indices := range mf.MaterialIDMap {
			for range indices {
				s.cache.Unuse(id)
			}
		}
		s.MarkMaterialsDirty()
	}
	s.registry.DestroyEntity(e)
	s.MarkRegistryDirty()
}

func (s *Scene) SetActive(e Entity, active bool) {
	s.registry.SetActive(e, active)
	s.MarkRegistryDirty()
}

// AddMesh creates an entity rendering the mesh with the given id. Every
// submesh starts with the default material.
func (s *Scene) AddMesh(meshID uuid.UUID, name string) (Entity, error) {
	mesh, ok := resources.GetByUUID[resources.Mesh](s.cache, meshID)
	if !ok {
		err := fmt.Errorf("%w: mesh %s", core.ErrResourceNotFound, meshID)
		core.LogError(err.Error())
		return InvalidEntity, err
	}
	if name == "" {
		name = mesh.Name()
	}
	defaultMaterial := s.cache.Defaults().Material

	e := s.CreateEntity(name)
	mf := NewMeshFilterComponent(mesh.ID())
	for i := range mesh.SubMeshes {
		mf.assign(i, defaultMaterial)
		mf.Names = append(mf.Names, mesh.SubMeshes[i].Name)
		s.cache.Use(defaultMaterial)
	}
	s.registry.AddComponent(e, mf)
	s.MarkMaterialsDirty()
	return e, nil
}

func (s *Scene) AddCube(name string) (Entity, error) {
	return s.AddMesh(s.cache.Defaults().Cube, name)
}

func (s *Scene) AddPlane(name string) (Entity, error) {
	return s.AddMesh(s.cache.Defaults().Plane, name)
}

// AddDirectionalLight adds a white directional light. direction points from
// the scene towards the light.
func (s *Scene) AddDirectionalLight(direction mgl32.Vec3) Entity {
	e := s.CreateEntity("Directional Light")
	light := NewLightComponent()
	light.Type = LightTypeDirectional
	light.Position = direction
	s.registry.AddComponent(e, light)
	return e
}

func (s *Scene) AddSpotLight() Entity {
	e := s.CreateEntity("Spot Light")
	light := NewLightComponent()
	light.Type = LightTypeSpot
	light.Color = mgl32.Vec4{0.8, 0.6, 0.6, 1}
	light.Position = mgl32.Vec3{0, 3, 0}
	s.registry.AddComponent(e, light)
	return e
}

func (s *Scene) AddPointLight() Entity {
	e := s.CreateEntity("Point Light")
	light := NewLightComponent()
	light.Type = LightTypePoint
	light.Color = mgl32.Vec4{0.8, 0.6, 0.6, 1}
	light.Position = mgl32.Vec3{0, 2.5, 2.5}
	s.registry.AddComponent(e, light)
	return e
}

// AssignMaterial moves a submesh of e onto material. The previous material
// loses one reference and the new one gains one.
func (s *Scene) AssignMaterial(e Entity, subMesh int, material uuid.UUID) error {
	mf, ok := Get[MeshFilterComponent](s.registry, e)
	if !ok {
		return fmt.Errorf("%w: entity %d has no mesh filter", core.ErrMissingComponent, e)
	}
	mesh, ok := resources.GetByUUID[resources.Mesh](s.cache, mf.MeshID)
	if !ok {
		return fmt.Errorf("%w: mesh %s", core.ErrResourceNotFound, mf.MeshID)
	}
	if subMesh < 0 || subMesh >= len(mesh.SubMeshes) {
		return fmt.Errorf("%w: %d of %d in %s", core.ErrInvalidSubMesh, subMesh, len(mesh.SubMeshes), mesh.Name())
	}
	if _, ok := resources.GetByUUID[resources.Material](s.cache, material); !ok {
		return fmt.Errorf("%w: material %s", core.ErrResourceNotFound, material)
	}

	previous, assigned := mf.MaterialFor(subMesh)
	if assigned && previous == material {
		return nil
	}
	s.cache.Use(material)
	if assigned {
		mf.unassign(subMesh, previous)
		s.cache.Unuse(previous)
	}
	mf.assign(subMesh, material)

	s.MarkMaterialsDirty()
	s.MarkRegistryDirty()
	return nil
}

// UpdateTransforms rebuilds the model matrix of every changed transform. Model
// matrices live in the batched transform buffer, so a change marks the
// registry dirty.
func (s *Scene) UpdateTransforms() {
	changed := false
	for _, e := range s.registry.View(TypeOf[TransformComponent]()) {
		tc, _ := Get[TransformComponent](s.registry, e)
		if tc.IsDirty {
			tc.Model()
			changed = true
		}
	}
	if changed {
		s.MarkRegistryDirty()
	}
}

// OnResize keeps the camera aspect ratio in sync with the viewport.
func (s *Scene) OnResize(code core.SystemEventCode, sender interface{}, listenerInst interface{}, data core.EventContext) bool {
	if code != core.EVENT_CODE_RESIZED {
		return false
	}
	width, height := data.Data.U32[0], data.Data.U32[1]
	if width == 0 || height == 0 {
		return false
	}
	s.Camera.SetAspectRatio(float32(width), float32(height))
	return false
}

// PrimaryCamera returns the first active entity camera marked primary, falling
// back to the scene camera.
func (s *Scene) PrimaryCamera() *Camera {
	for _, e := range s.registry.View(TypeOf[CameraComponent]()) {
		cc, _ := Get[CameraComponent](s.registry, e)
		if cc.Primary && cc.Camera != nil && s.registry.IsActive(e) {
			return cc.Camera
		}
	}
	return s.Camera
}

// AddCamera adds an entity carrying its own camera, sized like the scene camera.
func (s *Scene) AddCamera(name string, position mgl32.Vec3, primary bool) Entity {
	e := s.CreateEntity(name)
	camera := NewCamera(name, position, s.Camera.Width, s.Camera.Height)
	s.registry.AddComponent(e, &CameraComponent{Camera: camera, Primary: primary})
	return e
}
