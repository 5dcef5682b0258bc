package scene

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
	"github.com/spaghettifunk/lumen/engine/core"
	"golang.org/x/exp/slices"
)

// Entity is a handle into a Registry. The zero value is never a live entity.
type Entity uint32

const InvalidEntity Entity = 0

/**
 * @brief The entity store the scene and the renderer read from. Components are
 * pointers to structs keyed by their struct type.
 */
type Registry interface {
	CreateEntity() Entity
	DestroyEntity(e Entity)
	Valid(e Entity) bool

	// AddComponent stores c, which must be a pointer to a struct, replacing any
	// component of the same type.
	AddComponent(e Entity, c any)
	GetComponent(e Entity, t reflect.Type) (any, bool)
	RemoveComponent(e Entity, t reflect.Type)
	HasComponent(e Entity, t reflect.Type) bool

	// View returns, in creation order, every entity holding all of the given
	// component types. Inactive entities are included.
	View(types ...reflect.Type) []Entity

	UUID(e Entity) uuid.UUID
	IsActive(e Entity) bool
	SetActive(e Entity, active bool)
}

type entityRecord struct {
	id     uuid.UUID
	active bool
}

// Store is a map backed Registry. It is not safe for concurrent use.
type Store struct {
	next       Entity
	entities   []Entity
	records    map[Entity]*entityRecord
	components map[reflect.Type]map[Entity]any
}

func NewStore() *Store {
	return &Store{
		entities:   []Entity{},
		records:    make(map[Entity]*entityRecord),
		components: make(map[reflect.Type]map[Entity]any),
	}
}

func (s *Store) CreateEntity() Entity {
	s.next++
	e := s.next
	s.entities = append(s.entities, e)
	s.records[e] = &entityRecord{id: uuid.New(), active: true}
	return e
}

func (s *Store) DestroyEntity(e Entity) {
	if !s.Valid(e) {
		return
	}
	for _, byEntity := range s.components {
		delete(byEntity, e)
	}
	delete(s.records, e)
	if i := slices.Index(s.entities, e); i >= 0 {
		s.entities = slices.Delete(s.entities, i, i+1)
	}
}

func (s *Store) Valid(e Entity) bool {
	_, ok := s.records[e]
	return ok
}

func (s *Store) AddComponent(e Entity, c any) {
	s.mustBeValid(e)
	t := reflect.TypeOf(c)
	if t == nil || t.Kind() != reflect.Pointer || t.Elem().Kind() != reflect.Struct {
		panic(fmt.Errorf("expected component to be a pointer to a struct, got %v", t))
	}
	byEntity, ok := s.components[t.Elem()]
	if !ok {
		byEntity = make(map[Entity]any)
		s.components[t.Elem()] = byEntity
	}
	byEntity[e] = c
}

func (s *Store) GetComponent(e Entity, t reflect.Type) (any, bool) {
	c, ok := s.components[componentType(t)][e]
	return c, ok
}

func (s *Store) RemoveComponent(e Entity, t reflect.Type) {
	delete(s.components[componentType(t)], e)
}

func (s *Store) HasComponent(e Entity, t reflect.Type) bool {
	_, ok := s.components[componentType(t)][e]
	return ok
}

func (s *Store) View(types ...reflect.Type) []Entity {
	out := []Entity{}
	for _, e := range s.entities {
		matches := true
		for _, t := range types {
			if !s.HasComponent(e, t) {
				matches = false
				break
			}
		}
		if matches {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) UUID(e Entity) uuid.UUID {
	if r, ok := s.records[e]; ok {
		return r.id
	}
	return uuid.Nil
}

func (s *Store) IsActive(e Entity) bool {
	r, ok := s.records[e]
	return ok && r.active
}

func (s *Store) SetActive(e Entity, active bool) {
	s.mustBeValid(e)
	s.records[e].active = active
}

// Len returns the number of live entities.
func (s *Store) Len() int {
	return len(s.entities)
}

func (s *Store) mustBeValid(e Entity) {
	if !s.Valid(e) {
		panic(fmt.Errorf("%w: %d", core.ErrInvalidEntity, e))
	}
}

func componentType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// TypeOf returns the key a component of type T is stored under.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Get returns the component of type T attached to e.
func Get[T any](r Registry, e Entity) (*T, bool) {
	c, ok := r.GetComponent(e, TypeOf[T]())
	if !ok {
		return nil, false
	}
	typed, ok := c.(*T)
	return typed, ok
}

func Has[T any](r Registry, e Entity) bool {
	return r.HasComponent(e, TypeOf[T]())
}

// Add attaches c to e and returns it.
func Add[T any](r Registry, e Entity, c *T) *T {
	r.AddComponent(e, c)
	return c
}
