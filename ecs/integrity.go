package ecs

import "fmt"

// CheckIntegrity walks every record and reports the first broken link
// between entities and components. A nil result means every component is
// owned by a live entity that lists it in both of its indices, and every
// store is filed under its own type.
func (s *Storage) CheckIntegrity() error {
	components := 0
	for typeId, store := range s.registry.all() {
		if got := TypeIdFor(store.Type()); got != typeId {
			return fmt.Errorf("%w: store of %v filed under %v", ErrIntegrityViolation, store.Type(), typeId)
		}

		for slot := range store.Iter() {
			components++
			id := ComponentId{Type: typeId, Slot: slot}
			links, _ := store.Links(slot)

			owner, ok := s.entities.Get(uint32(links.owner))
			if !ok {
				return fmt.Errorf("%w: %v owned by missing entity %d", ErrIntegrityViolation, id, links.owner)
			}
			if entry, ok := owner.directory.Get(links.dirSlot); !ok || *entry != id {
				return fmt.Errorf("%w: %v not in directory of entity %d", ErrIntegrityViolation, id, links.owner)
			}
			list, ok := owner.byType.Get(typeId)
			if !ok {
				return fmt.Errorf("%w: entity %d has no %v list for %v", ErrIntegrityViolation, links.owner, typeId, id)
			}
			if entry, ok := list.Get(links.typeSlot); !ok || *entry != slot {
				return fmt.Errorf("%w: %v not in %v list of entity %d", ErrIntegrityViolation, id, typeId, links.owner)
			}
		}
	}

	indexed := 0
	for key, record := range s.entities.All() {
		indexed += record.directory.Len()

		listed := 0
		for typeId, list := range record.byType.All() {
			if list.Len() == 0 {
				return fmt.Errorf("%w: entity %d keeps an empty %v list", ErrIntegrityViolation, key, typeId)
			}
			listed += list.Len()
		}
		if listed != record.directory.Len() {
			return fmt.Errorf("%w: entity %d lists %d components by type but %d in its directory",
				ErrIntegrityViolation, key, listed, record.directory.Len())
		}
	}

	// Every component points at a distinct directory entry, so equal totals
	// mean no directory entry is stale.
	if indexed != components {
		return fmt.Errorf("%w: %d directory entries for %d components", ErrIntegrityViolation, indexed, components)
	}
	return nil
}
