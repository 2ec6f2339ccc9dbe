package ecs

import (
	"iter"
	"reflect"
)

// componentLinks are the back-references every component record carries:
// its owner and its keys in the owner's directory and per-type list.
type componentLinks struct {
	owner    EntityId
	dirSlot  uint32
	typeSlot uint32
}

// iComponentStorage is the type-erased view of one component type's store.
// It covers everything the storage does without knowing the value type;
// value access goes through the concrete genericComponentStorage[T].
type iComponentStorage interface {
	Type() reflect.Type
	Has(slot uint32) bool
	Links(slot uint32) (componentLinks, bool)
	Delete(slot uint32) (componentLinks, bool)
	Len() int
	Clear()
	Iter() iter.Seq[uint32]
}
