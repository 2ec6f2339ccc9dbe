package ecs

import (
	"fmt"
	"iter"
	"reflect"

	"go.uber.org/zap"
)

// Storage is the main ECS storage: an entity table, one store per component
// type and the indices linking them.
//
// Storage is not safe for concurrent use.
type Storage struct {
	entities *Slab[entityRecord]
	registry *ComponentRegistry
	logger   *zap.Logger
}

// NewStorage creates an empty storage.
func NewStorage(opts ...Option) *Storage {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Storage{
		entities: NewSlab[entityRecord](o.entityCapacity),
		registry: NewComponentRegistry(),
		logger:   o.logger,
	}
}

// InsertEntity creates an entity without components.
func (s *Storage) InsertEntity() EntityId {
	return EntityId(s.entities.Insert(newEntityRecord()))
}

// HasEntity checks if id refers to a live entity.
func (s *Storage) HasEntity(id EntityId) bool {
	return s.entities.Has(uint32(id))
}

// EntityCount returns the number of live entities.
func (s *Storage) EntityCount() int {
	return s.entities.Len()
}

// Entities iterates live entities in key order.
func (s *Storage) Entities() iter.Seq[EntityId] {
	return func(yield func(EntityId) bool) {
		for key := range s.entities.Keys() {
			if !yield(EntityId(key)) {
				return
			}
		}
	}
}

// EntityComponents returns the components held by id, oldest slot first.
func (s *Storage) EntityComponents(id EntityId) ([]ComponentId, error) {
	record, ok := s.entities.Get(uint32(id))
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}

	components := make([]ComponentId, 0, record.directory.Len())
	for _, component := range record.directory.All() {
		components = append(components, *component)
	}
	return components, nil
}

// RemoveEntity removes id and every component it holds.
func (s *Storage) RemoveEntity(id EntityId) error {
	record, ok := s.entities.Remove(uint32(id))
	if !ok {
		return fmt.Errorf("%w: %d", ErrEntityNotFound, id)
	}

	for dirSlot, component := range record.directory.All() {
		store, ok := s.registry.get(component.Type)
		if !ok {
			s.integrity("directory entry of unregistered type",
				zap.Uint32("entity", uint32(id)), zap.Stringer("component", *component))
		}

		links, ok := store.Links(component.Slot)
		if !ok || links.owner != id || links.dirSlot != dirSlot {
			s.integrity("directory entry without matching component",
				zap.Uint32("entity", uint32(id)), zap.Stringer("component", *component))
		}
		store.Delete(component.Slot)
	}

	s.logger.Debug("entity removed",
		zap.Uint32("entity", uint32(id)),
		zap.Int("components", record.directory.Len()))
	return nil
}

// HasComponent checks if id refers to a live component.
func (s *Storage) HasComponent(id ComponentId) bool {
	store, ok := s.registry.get(id.Type)
	return ok && store.Has(id.Slot)
}

// GetEntityByComponent returns the entity holding component id.
func (s *Storage) GetEntityByComponent(id ComponentId) (EntityId, error) {
	store, ok := s.registry.get(id.Type)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrComponentNotFound, id)
	}

	links, ok := store.Links(id.Slot)
	if !ok {
		return 0, fmt.Errorf("%w: %v", ErrComponentNotFound, id)
	}
	return links.owner, nil
}

// DeleteComponent removes component id without needing its type.
func (s *Storage) DeleteComponent(id ComponentId) error {
	store, ok := s.registry.get(id.Type)
	if !ok {
		return fmt.Errorf("%w: %v", ErrTypeNotRegistered, id.Type)
	}

	links, ok := store.Delete(id.Slot)
	if !ok {
		return fmt.Errorf("%w: %v", ErrComponentNotFound, id)
	}
	s.unlink(id, links)
	return nil
}

// Clear removes every entity and component. Component types stay registered.
func (s *Storage) Clear() {
	entities := s.entities.Len()
	s.entities.Clear()
	for _, store := range s.registry.all() {
		store.Clear()
	}
	s.logger.Debug("storage cleared", zap.Int("entities", entities))
}

// unlink drops a removed component from its owner's indices.
func (s *Storage) unlink(id ComponentId, links componentLinks) {
	owner, ok := s.entities.Get(uint32(links.owner))
	if !ok {
		s.integrity("component owned by a missing entity",
			zap.Stringer("component", id), zap.Uint32("entity", uint32(links.owner)))
	}
	if !owner.unlink(id, links.dirSlot, links.typeSlot) {
		s.integrity("component missing from its owner's indices",
			zap.Stringer("component", id), zap.Uint32("entity", uint32(links.owner)))
	}
}

// integrity aborts on a broken internal invariant. These are bugs in the
// storage itself, never caller errors.
func (s *Storage) integrity(msg string, fields ...zap.Field) {
	s.logger.Error("integrity check failed: "+msg, fields...)
	panic(fmt.Errorf("%w: %s", ErrIntegrityViolation, msg))
}

// RegisterComponent creates the store for T ahead of its first insert, so
// that iterating T succeeds (empty) instead of reporting ErrTypeNotRegistered.
func RegisterComponent[T any](s *Storage) TypeId {
	_, id, created := registerStorage[T](s.registry)
	if created {
		s.logger.Debug("component type registered",
			zap.Stringer("type", reflect.TypeFor[T]()), zap.Uint64("type_id", uint64(id)))
	}
	return id
}

// InsertComponent attaches value to entity and returns the new component's id.
func InsertComponent[T any](s *Storage, entity EntityId, value T) (ComponentId, error) {
	owner, ok := s.entities.Get(uint32(entity))
	if !ok {
		return ComponentId{}, fmt.Errorf("%w: %d", ErrEntityNotFound, entity)
	}

	store, typeId, created := registerStorage[T](s.registry)
	if created {
		s.logger.Debug("component type registered",
			zap.Stringer("type", store.Type()), zap.Uint64("type_id", uint64(typeId)))
	}

	slot, record := store.Insert(entity, value)
	id := ComponentId{Type: typeId, Slot: slot}
	record.dirSlot, record.typeSlot = owner.link(id)
	return id, nil
}

// GetComponent returns a pointer to component id, valid until it is removed.
func GetComponent[T any](s *Storage, id ComponentId) (*T, error) {
	record, err := lookupRecord[T](s, id)
	if err != nil {
		return nil, err
	}
	return &record.value, nil
}

// ReadComponent returns a copy of component id.
func ReadComponent[T any](s *Storage, id ComponentId) (T, error) {
	record, err := lookupRecord[T](s, id)
	if err != nil {
		var zero T
		return zero, err
	}
	return record.value, nil
}

// RemoveComponent removes component id and returns its value.
func RemoveComponent[T any](s *Storage, id ComponentId) (T, error) {
	var zero T

	store, err := typedStorage[T](s, id)
	if err != nil {
		return zero, err
	}

	record, ok := store.Remove(id.Slot)
	if !ok {
		return zero, fmt.Errorf("%w: %v", ErrComponentNotFound, id)
	}
	s.unlink(id, record.componentLinks)
	return record.value, nil
}

// typedStorage resolves the store for id, checking the type before anything
// is read from it.
func typedStorage[T any](s *Storage, id ComponentId) (*genericComponentStorage[T], error) {
	store, typeId, ok := lookupStorage[T](s.registry)
	if id.Type != typeId {
		return nil, fmt.Errorf("%w: %v requested as %v", ErrTypeMismatch, id, reflect.TypeFor[T]())
	}
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrTypeNotRegistered, reflect.TypeFor[T]())
	}
	return store, nil
}

func lookupRecord[T any](s *Storage, id ComponentId) (*componentRecord[T], error) {
	store, err := typedStorage[T](s, id)
	if err != nil {
		return nil, err
	}

	record, ok := store.Get(id.Slot)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrComponentNotFound, id)
	}
	return record, nil
}
