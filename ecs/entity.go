package ecs

import (
	"fmt"

	"github.com/kamstrup/intmap"
)

// EntityId is a slot key in the entity table. Keys carry no generation, so a
// key kept past RemoveEntity refers to whichever entity reuses its slot.
type EntityId uint32

// ComponentId addresses one component: the type's store and the slot in it.
// The same Slot under a different Type is an unrelated component.
type ComponentId struct {
	Type TypeId
	Slot uint32
}

func (c ComponentId) String() string {
	return fmt.Sprintf("%s#%d", c.Type, c.Slot)
}

// entityRecord is an entity's own index of the components it holds.
type entityRecord struct {
	// directory holds every component of the entity; its keys are stored back
	// in the component records as dirSlot.
	directory *Slab[ComponentId]

	// byType holds, per component type, the component slot keys of that type;
	// the keys of each list are stored back as typeSlot.
	byType *intmap.Map[TypeId, *Slab[uint32]]
}

func newEntityRecord() entityRecord {
	return entityRecord{
		directory: NewSlab[ComponentId](0),
		byType:    intmap.New[TypeId, *Slab[uint32]](4),
	}
}

// link appends a component to both indices and returns the keys to store
// back in the component record.
func (e *entityRecord) link(id ComponentId) (dirSlot, typeSlot uint32) {
	dirSlot = e.directory.Insert(id)

	list, ok := e.byType.Get(id.Type)
	if !ok {
		list = NewSlab[uint32](0)
		e.byType.Put(id.Type, list)
	}
	typeSlot = list.Insert(id.Slot)
	return dirSlot, typeSlot
}

// unlink removes a component from both indices using its back-references.
// It reports false when either index disagrees with the record.
func (e *entityRecord) unlink(id ComponentId, dirSlot, typeSlot uint32) bool {
	if entry, ok := e.directory.Get(dirSlot); !ok || *entry != id {
		return false
	}
	list, ok := e.byType.Get(id.Type)
	if !ok {
		return false
	}
	if slot, ok := list.Get(typeSlot); !ok || *slot != id.Slot {
		return false
	}

	e.directory.Remove(dirSlot)
	list.Remove(typeSlot)
	if list.Len() == 0 {
		e.byType.Del(id.Type)
	}
	return true
}
