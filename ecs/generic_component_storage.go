package ecs

import (
	"iter"
	"reflect"

	"github.com/kamstrup/intmap"
)

// ComponentRegistry owns one store per component type, keyed by TypeId.
// Stores are created by RegisterComponent or by the first insert of a type
// and are only ever filed under the TypeId of their own value type.
type ComponentRegistry struct {
	stores *intmap.Map[TypeId, iComponentStorage]
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		stores: intmap.New[TypeId, iComponentStorage](16),
	}
}

// registerStorage returns T's store, creating it if needed. created reports
// whether this call created it.
func registerStorage[T any](r *ComponentRegistry) (store *genericComponentStorage[T], id TypeId, created bool) {
	id = TypeIdOf[T]()
	if existing, ok := r.stores.Get(id); ok {
		return existing.(*genericComponentStorage[T]), id, false
	}

	store = &genericComponentStorage[T]{
		typ: reflect.TypeFor[T](),
	}
	r.stores.Put(id, store)
	return store, id, true
}

// lookupStorage returns T's store without creating it.
func lookupStorage[T any](r *ComponentRegistry) (*genericComponentStorage[T], TypeId, bool) {
	id := TypeIdOf[T]()
	existing, ok := r.stores.Get(id)
	if !ok {
		return nil, id, false
	}
	return existing.(*genericComponentStorage[T]), id, true
}

// get returns the type-erased store filed under id.
func (r *ComponentRegistry) get(id TypeId) (iComponentStorage, bool) {
	return r.stores.Get(id)
}

// Len returns the number of registered component types.
func (r *ComponentRegistry) Len() int {
	return r.stores.Len()
}

// all iterates registered stores in no particular order.
func (r *ComponentRegistry) all() iter.Seq2[TypeId, iComponentStorage] {
	return r.stores.All()
}

// componentRecord is a component value plus its back-references.
type componentRecord[T any] struct {
	value T
	componentLinks
}

// genericComponentStorage stores the components of one type `T`.
type genericComponentStorage[T any] struct {
	typ  reflect.Type
	slab Slab[componentRecord[T]]
}

var _ iComponentStorage = (*genericComponentStorage[int])(nil)

func (cs *genericComponentStorage[T]) Type() reflect.Type {
	return cs.typ
}

// Insert stores value for owner. Links other than the owner are filled in
// by the caller through the returned record.
func (cs *genericComponentStorage[T]) Insert(owner EntityId, value T) (uint32, *componentRecord[T]) {
	slot := cs.slab.Insert(componentRecord[T]{
		value:          value,
		componentLinks: componentLinks{owner: owner},
	})
	record, _ := cs.slab.Get(slot)
	return slot, record
}

// Get returns the record at slot.
func (cs *genericComponentStorage[T]) Get(slot uint32) (*componentRecord[T], bool) {
	return cs.slab.Get(slot)
}

// Remove frees slot and returns the record it held.
func (cs *genericComponentStorage[T]) Remove(slot uint32) (componentRecord[T], bool) {
	return cs.slab.Remove(slot)
}

func (cs *genericComponentStorage[T]) Has(slot uint32) bool {
	return cs.slab.Has(slot)
}

func (cs *genericComponentStorage[T]) Links(slot uint32) (componentLinks, bool) {
	record, ok := cs.slab.Get(slot)
	if !ok {
		return componentLinks{}, false
	}
	return record.componentLinks, true
}

func (cs *genericComponentStorage[T]) Delete(slot uint32) (componentLinks, bool) {
	record, ok := cs.slab.Remove(slot)
	if !ok {
		return componentLinks{}, false
	}
	return record.componentLinks, true
}

func (cs *genericComponentStorage[T]) Len() int {
	return cs.slab.Len()
}

func (cs *genericComponentStorage[T]) Clear() {
	cs.slab.Clear()
}

func (cs *genericComponentStorage[T]) Iter() iter.Seq[uint32] {
	return cs.slab.Keys()
}
