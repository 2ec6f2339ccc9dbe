package ecs

import (
	"errors"

	"github.com/kamstrup/intmap"
)

// Commands buffers structural changes so they can be requested while
// iterating and applied afterwards.
type Commands struct {
	removeComponents []ComponentId
	removeEntities   []EntityId
	defers           []func(*Storage) error
}

// NewCommands creates an empty command buffer.
func NewCommands() *Commands {
	return &Commands{}
}

// RemoveComponent queues a component removal.
func (c *Commands) RemoveComponent(id ComponentId) {
	c.removeComponents = append(c.removeComponents, id)
}

// RemoveEntity queues an entity removal. Queuing the same entity twice
// removes it once.
func (c *Commands) RemoveEntity(id EntityId) {
	c.removeEntities = append(c.removeEntities, id)
}

// Defer queues a function run after all removals.
func (c *Commands) Defer(fn func(*Storage) error) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.removeComponents) + len(c.removeEntities) + len(c.defers)
}

// Flush applies queued commands to storage and resets the buffer.
// Component removals run first, then entity removals, then deferred
// functions. Every command runs even if an earlier one fails; the failures
// are joined into the returned error.
func (c *Commands) Flush(storage *Storage) error {
	var errs []error

	queued := intmap.NewSet[EntityId](len(c.removeEntities))
	for _, id := range c.removeEntities {
		queued.Add(id)
	}

	for _, id := range c.removeComponents {
		if owner, err := storage.GetEntityByComponent(id); err == nil && queued.Has(owner) {
			// The entity removal below takes the component with it.
			continue
		}
		if err := storage.DeleteComponent(id); err != nil {
			errs = append(errs, err)
		}
	}

	for _, id := range c.removeEntities {
		if !queued.Del(id) {
			continue
		}
		if err := storage.RemoveEntity(id); err != nil {
			errs = append(errs, err)
		}
	}

	for _, fn := range c.defers {
		if err := fn(storage); err != nil {
			errs = append(errs, err)
		}
	}

	clear(c.defers)
	c.removeComponents = c.removeComponents[:0]
	c.removeEntities = c.removeEntities[:0]
	c.defers = c.defers[:0]

	return errors.Join(errs...)
}
