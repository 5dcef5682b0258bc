package resources

import (
	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
)

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Mesh resource type (vertices, indices and submeshes). */
	ResourceTypeMesh ResourceType = iota
	/** @brief Material resource type. */
	ResourceTypeMaterial
	/** @brief Image texture resource type. */
	ResourceTypeImageTexture
	/** @brief Cube map environment resource type. */
	ResourceTypeEnvironment
	/** @brief Unknown resource type. */
	ResourceTypeUnknown
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeMesh:
		return "Mesh"
	case ResourceTypeMaterial:
		return "Material"
	case ResourceTypeImageTexture:
		return "ImageTexture"
	case ResourceTypeEnvironment:
		return "Environment"
	default:
		return "Unknown"
	}
}

/** @brief A magic number indicating the file as a lumen binary file. */
const ResourceMagic uint32 = 0xdaaaadd1

/**
 * @brief The header data for binary resource types.
 */
type ResourceHeader struct {
	/** @brief A magic number indicating the file as a lumen binary file. */
	MagicNumber uint32
	/** @brief The resource type. Maps to the enum ResourceType. */
	ResourceType uint8
	/** @brief The format version this resource uses. */
	Version uint8
	/** @brief Reserved for future header data. */
	Reserved uint16
}

// GPU is the part of the GPU layer resources need to own textures.
type GPU interface {
	CreateTexture(desc metadata.TextureDesc) metadata.TextureHandle
	DestroyTexture(h *metadata.TextureHandle)
	CreateCubeMap(faces [6]metadata.TextureDesc) metadata.TextureHandle
	DestroyCubeMap(h *metadata.TextureHandle)
}

// Resource is implemented by every kind stored in the Cache.
type Resource interface {
	// Load reads the resource from path, replacing its current content.
	Load(path string) error
	// Save writes the resource to path.
	Save(path string) error
	Type() ResourceType

	base() *Base
	// duplicate returns a deep copy owning its own GPU objects.
	duplicate() (Resource, error)
	// release frees GPU objects owned by the resource.
	release()
}

// Base carries the identity shared by all resources.
type Base struct {
	id       uuid.UUID
	name     string
	path     string
	refCount int
	cache    *Cache
}

func (b *Base) base() *Base { return b }

func (b *Base) ID() uuid.UUID { return b.id }

func (b *Base) Name() string { return b.name }

func (b *Base) Path() string { return b.path }

func (b *Base) RefCount() int { return b.refCount }

func (b *Base) SetName(name string) { b.name = name }

func (b *Base) gpu() GPU {
	if b.cache == nil {
		return nil
	}
	return b.cache.gpu
}
