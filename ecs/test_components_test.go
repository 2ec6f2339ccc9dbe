package ecs_test

import (
	"iter"
	"testing"

	"github.com/plus3/tinyecs/ecs"
)

// Common test component types
type Position struct {
	X, Y float32
}

type Velocity struct {
	DX, DY float32
}

type Name struct {
	Value string
}

type Health struct {
	Current int
	Max     int
}

type PlayerController struct{}

// Custom primitive types for testing non-struct components
type Score int32
type Tag string

type TestA string
type TestB string

type Inventory struct {
	Items []string
}

type Target struct {
	Enemy *Name
}

// newTestStorage returns a storage with two entities, the first holding
// int32 components 42 and 63, the second an int32 42 and a unit component.
func newTestStorage() (*ecs.Storage, ecs.EntityId, ecs.EntityId) {
	storage := ecs.NewStorage()

	e0 := storage.InsertEntity()
	e1 := storage.InsertEntity()
	mustInsert(storage, e0, int32(42))
	mustInsert(storage, e0, int32(63))
	mustInsert(storage, e1, int32(42))
	mustInsert(storage, e1, struct{}{})

	return storage, e0, e1
}

func mustInsert[T any](storage *ecs.Storage, entity ecs.EntityId, value T) ecs.ComponentId {
	id, err := ecs.InsertComponent(storage, entity, value)
	if err != nil {
		panic(err)
	}
	return id
}

func collectValues[T any](t testing.TB, seq iter.Seq2[ecs.ComponentId, *T]) []T {
	t.Helper()
	var values []T
	for _, value := range seq {
		values = append(values, *value)
	}
	return values
}
