package ecs

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// TypeId identifies a component type for the lifetime of the process.
type TypeId uint64

// typeIdCache assigns each reflect.Type its TypeId exactly once. It is shared
// by every Storage so a TypeId means the same type everywhere in the process.
type typeIdCache struct {
	mu    sync.RWMutex
	ids   map[reflect.Type]TypeId
	types map[TypeId]reflect.Type
}

var globalTypeIds = &typeIdCache{
	ids:   make(map[reflect.Type]TypeId),
	types: make(map[TypeId]reflect.Type),
}

// TypeIdOf returns the TypeId of T.
func TypeIdOf[T any]() TypeId {
	return TypeIdFor(reflect.TypeFor[T]())
}

// TypeIdFor returns the TypeId of t.
func TypeIdFor(t reflect.Type) TypeId {
	return globalTypeIds.idFor(t)
}

// typeForId returns the reflect.Type a TypeId was assigned to.
func typeForId(id TypeId) (reflect.Type, bool) {
	return globalTypeIds.typeFor(id)
}

func (c *typeIdCache) idFor(t reflect.Type) TypeId {
	c.mu.RLock()
	id, ok := c.ids[t]
	c.mu.RUnlock()
	if ok {
		return id
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.ids[t]; ok {
		return id
	}

	// Two distinct types can share a qualified name (e.g. unnamed composites of
	// same-named types from different packages), so collisions get re-salted.
	name := qualifiedTypeName(t)
	id = TypeId(xxhash.Sum64String(name))
	for salt := 1; ; salt++ {
		if _, taken := c.types[id]; !taken {
			break
		}
		id = TypeId(xxhash.Sum64String(name + "#" + strconv.Itoa(salt)))
	}

	c.ids[t] = id
	c.types[id] = t
	return id
}

func (c *typeIdCache) typeFor(id TypeId) (reflect.Type, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.types[id]
	return t, ok
}

func qualifiedTypeName(t reflect.Type) string {
	if pkg := t.PkgPath(); pkg != "" && t.Name() != "" {
		return pkg + "." + t.Name()
	}
	return t.String()
}

// String returns the Go type name behind the id, or its number if unknown.
func (id TypeId) String() string {
	if t, ok := typeForId(id); ok {
		return t.String()
	}
	return "TypeId(" + strconv.FormatUint(uint64(id), 10) + ")"
}
