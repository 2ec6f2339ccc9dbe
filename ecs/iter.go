package ecs

import (
	"fmt"
	"iter"
	"reflect"
)

// Iter iterates every component of type T in slot order. The yielded
// pointers may be written through.
//
// Removing the current component while iterating is fine; components
// inserted during iteration may or may not be visited. Use Commands to defer
// structural changes when that matters.
func Iter[T any](s *Storage) (iter.Seq2[ComponentId, *T], error) {
	store, typeId, ok := lookupStorage[T](s.registry)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrTypeNotRegistered, reflect.TypeFor[T]())
	}

	return func(yield func(ComponentId, *T) bool) {
		for slot, record := range store.slab.All() {
			if !yield(ComponentId{Type: typeId, Slot: slot}, &record.value) {
				return
			}
		}
	}, nil
}

// Values iterates every component of type T without ids.
func Values[T any](s *Storage) (iter.Seq[*T], error) {
	all, err := Iter[T](s)
	if err != nil {
		return nil, err
	}
	return func(yield func(*T) bool) {
		for _, value := range all {
			if !yield(value) {
				return
			}
		}
	}, nil
}

// IterByEntity iterates the components of type T held by entity, in the
// order of its per-type index. An entity holding no T yields nothing.
//
// The slots to visit are collected from the entity's index before the first
// pointer is yielded. Every slot belongs to exactly one component, so the
// yielded pointers never alias each other.
func IterByEntity[T any](s *Storage, entity EntityId) (iter.Seq2[ComponentId, *T], error) {
	if !s.entities.Has(uint32(entity)) {
		return nil, fmt.Errorf("%w: %d", ErrEntityNotFound, entity)
	}

	store, typeId, ok := lookupStorage[T](s.registry)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrTypeNotRegistered, reflect.TypeFor[T]())
	}

	return func(yield func(ComponentId, *T) bool) {
		owner, ok := s.entities.Get(uint32(entity))
		if !ok {
			return
		}
		list, ok := owner.byType.Get(typeId)
		if !ok {
			return
		}

		slots := make([]uint32, 0, list.Len())
		for _, slot := range list.All() {
			slots = append(slots, *slot)
		}

		for _, slot := range slots {
			record, ok := store.Get(slot)
			// Skip components removed by the consumer since the slots were collected.
			if !ok || record.owner != entity {
				continue
			}
			if !yield(ComponentId{Type: typeId, Slot: slot}, &record.value) {
				return
			}
		}
	}, nil
}

// ValuesByEntity iterates the components of type T held by entity without ids.
func ValuesByEntity[T any](s *Storage, entity EntityId) (iter.Seq[*T], error) {
	all, err := IterByEntity[T](s, entity)
	if err != nil {
		return nil, err
	}
	return func(yield func(*T) bool) {
		for _, value := range all {
			if !yield(value) {
				return
			}
		}
	}, nil
}

// Count returns the number of live components of type T.
func Count[T any](s *Storage) int {
	store, _, ok := lookupStorage[T](s.registry)
	if !ok {
		return 0
	}
	return store.Len()
}
