package resources

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
)

// Cache owns every loaded resource, keyed by UUID. It is not safe for
// concurrent use: all calls happen on the render thread.
type Cache struct {
	gpu       GPU
	resources map[uuid.UUID]Resource
	// insertion order, so iteration is deterministic
	order    []uuid.UUID
	byPath   map[string]uuid.UUID
	defaults Defaults
}

func NewCache(gpu GPU) *Cache {
	return &Cache{
		gpu:       gpu,
		resources: make(map[uuid.UUID]Resource),
		byPath:    make(map[string]uuid.UUID),
	}
}

// Shutdown releases the GPU objects of every resource and empties the cache.
func (c *Cache) Shutdown() error {
	for i := len(c.order) - 1; i >= 0; i-- {
		if r, ok := c.resources[c.order[i]]; ok {
			r.release()
		}
	}
	c.resources = make(map[uuid.UUID]Resource)
	c.byPath = make(map[string]uuid.UUID)
	c.order = nil
	c.defaults = Defaults{}
	return nil
}

func (c *Cache) Len() int {
	return len(c.resources)
}

// Contains reports whether a resource is cached at path.
func (c *Cache) Contains(path string) bool {
	_, ok := c.byPath[cleanPath(path)]
	return ok
}

// Get returns the resource with the given id, whatever its kind.
func (c *Cache) Get(id uuid.UUID) (Resource, bool) {
	r, ok := c.resources[id]
	return r, ok
}

// Use increments the reference count of the resource.
func (c *Cache) Use(id uuid.UUID) {
	r, ok := c.resources[id]
	if !ok {
		core.LogError("cache Use called with unknown resource %s", id)
		return
	}
	r.base().refCount++
}

// Unuse decrements the reference count of the resource. Dropping below zero is
// a programming error and panics.
func (c *Cache) Unuse(id uuid.UUID) {
	r, ok := c.resources[id]
	if !ok {
		core.LogError("cache Unuse called with unknown resource %s", id)
		return
	}
	b := r.base()
	if b.refCount == 0 {
		panic(fmt.Errorf("%w: %s (%s)", core.ErrNegativeRefCount, b.name, b.id))
	}
	b.refCount--
}

// Reload runs Load again on the resource cached at path.
func (c *Cache) Reload(path string) error {
	id, ok := c.byPath[cleanPath(path)]
	if !ok {
		return fmt.Errorf("%w: %s", core.ErrResourceNotFound, path)
	}
	r := c.resources[id]
	if err := r.Load(r.base().path); err != nil {
		core.LogError("failed to reload %s '%s': %s", r.Type(), path, err)
		return err
	}
	core.LogInfo("reloaded %s '%s'", r.Type(), path)
	return nil
}

func (c *Cache) register(r Resource, path string) {
	b := r.base()
	b.id = uuid.New()
	b.path = cleanPath(path)
	b.name = nameFromPath(b.path)
	b.cache = c
	c.resources[b.id] = r
	c.byPath[b.path] = b.id
	c.order = append(c.order, b.id)
}

func (c *Cache) unregister(r Resource) {
	b := r.base()
	delete(c.resources, b.id)
	delete(c.byPath, b.path)
	for i, id := range c.order {
		if id == b.id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Create makes and registers a new empty resource of kind T. Its name is
// derived from path.
func Create[T any, PT interface {
	*T
	Resource
}](c *Cache, path string) (PT, error) {
	if c.Contains(path) {
		err := fmt.Errorf("%w: %s", core.ErrResourceAlreadyCached, path)
		core.LogError(err.Error())
		return nil, err
	}
	r := PT(new(T))
	c.register(r, path)
	setDefaults(r)
	return r, nil
}

// Load creates a resource of kind T and reads it from path. It fails when the
// path does not exist or a resource is already cached at that path.
func Load[T any, PT interface {
	*T
	Resource
}](c *Cache, path string) (PT, error) {
	if c.Contains(path) {
		err := fmt.Errorf("%w: %s", core.ErrResourceAlreadyCached, path)
		core.LogError(err.Error())
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = fmt.Errorf("%w: %s", core.ErrResourceNotFound, path)
		}
		core.LogError(err.Error())
		return nil, err
	}

	r := PT(new(T))
	c.register(r, path)
	setDefaults(r)
	if err := r.Load(path); err != nil {
		core.LogError("failed to load %s '%s': %s", r.Type(), path, err)
		c.unregister(r)
		r.release()
		return nil, err
	}
	return r, nil
}

func GetByUUID[T any, PT interface {
	*T
	Resource
}](c *Cache, id uuid.UUID) (PT, bool) {
	r, ok := c.resources[id]
	if !ok {
		return nil, false
	}
	typed, ok := r.(PT)
	return typed, ok
}

func GetByPath[T any, PT interface {
	*T
	Resource
}](c *Cache, path string) (PT, bool) {
	id, ok := c.byPath[cleanPath(path)]
	if !ok {
		return nil, false
	}
	return GetByUUID[T, PT](c, id)
}

// GetByName returns the first resource of kind T with the given name.
func GetByName[T any, PT interface {
	*T
	Resource
}](c *Cache, name string) (PT, bool) {
	for _, id := range c.order {
		typed, ok := c.resources[id].(PT)
		if ok && typed.base().name == name {
			return typed, true
		}
	}
	return nil, false
}

// GetByType returns every resource of kind T in insertion order.
func GetByType[T any, PT interface {
	*T
	Resource
}](c *Cache) []PT {
	out := []PT{}
	for _, id := range c.order {
		if typed, ok := c.resources[id].(PT); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Duplicate copies the resource with the given id. The copy gets a new UUID, its
// own GPU objects and a disambiguated path and name.
func Duplicate[T any, PT interface {
	*T
	Resource
}](c *Cache, id uuid.UUID) (PT, error) {
	src, ok := GetByUUID[T, PT](c, id)
	if !ok {
		err := fmt.Errorf("%w: %s", core.ErrResourceNotFound, id)
		core.LogError(err.Error())
		return nil, err
	}
	dup, err := src.duplicate()
	if err != nil {
		core.LogError("failed to duplicate %s '%s': %s", src.Type(), src.base().name, err)
		return nil, err
	}
	typed, ok := dup.(PT)
	if !ok {
		dup.release()
		return nil, core.ErrResourceTypeMismatch
	}

	b := typed.base()
	*b = Base{}
	c.register(typed, c.duplicatePath(src.base().path))
	return typed, nil
}

func (c *Cache) duplicatePath(path string) string {
	dir, file := filepath.Split(path)
	stem, ext, _ := strings.Cut(file, ".")
	if ext != "" {
		ext = "." + ext
	}
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		if !c.Contains(candidate) {
			return candidate
		}
	}
}

func setDefaults(r Resource) {
	if d, ok := r.(interface{ setDefaults() }); ok {
		d.setDefaults()
	}
}

func cleanPath(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// nameFromPath strips the directory and every extension: "a/Rock.mat.toml" is "Rock".
func nameFromPath(path string) string {
	stem, _, _ := strings.Cut(filepath.Base(path), ".")
	return stem
}
