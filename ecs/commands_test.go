package ecs_test

import (
	"errors"
	"testing"

	"github.com/plus3/tinyecs/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsRemoveDuringIteration(t *testing.T) {
	storage := ecs.NewStorage()
	for i := 0; i < 5; i++ {
		entity := storage.InsertEntity()
		mustInsert(storage, entity, Health{Current: i, Max: 4})
		mustInsert(storage, entity, Position{X: float32(i)})
	}

	commands := ecs.NewCommands()
	all, err := ecs.Iter[Health](storage)
	require.NoError(t, err)
	for id, health := range all {
		if health.Current%2 == 0 {
			owner, err := storage.GetEntityByComponent(id)
			require.NoError(t, err)
			commands.RemoveEntity(owner)
		}
	}
	assert.Equal(t, 3, commands.Len())
	assert.Equal(t, 5, storage.EntityCount(), "nothing applied before Flush")

	require.NoError(t, commands.Flush(storage))
	assert.Equal(t, 0, commands.Len())
	assert.Equal(t, 2, storage.EntityCount())
	assert.Equal(t, 2, ecs.Count[Position](storage))
	require.NoError(t, storage.CheckIntegrity())
}

func TestCommandsComponentBeforeEntity(t *testing.T) {
	storage := ecs.NewStorage()
	entity := storage.InsertEntity()
	other := storage.InsertEntity()
	doomed := mustInsert(storage, entity, Name{Value: "doomed"})
	dropped := mustInsert(storage, other, Name{Value: "dropped"})
	kept := mustInsert(storage, other, Name{Value: "kept"})

	commands := ecs.NewCommands()
	commands.RemoveEntity(entity)
	commands.RemoveComponent(doomed)
	commands.RemoveComponent(dropped)
	commands.RemoveEntity(entity)

	require.NoError(t, commands.Flush(storage))

	assert.False(t, storage.HasEntity(entity))
	assert.True(t, storage.HasEntity(other))
	assert.False(t, storage.HasComponent(doomed))
	assert.False(t, storage.HasComponent(dropped))
	assert.True(t, storage.HasComponent(kept))
	require.NoError(t, storage.CheckIntegrity())
}

func TestCommandsDefer(t *testing.T) {
	storage := ecs.NewStorage()
	entity := storage.InsertEntity()
	mustInsert(storage, entity, Score(1))

	var order []string
	commands := ecs.NewCommands()
	commands.Defer(func(s *ecs.Storage) error {
		order = append(order, "defer")
		assert.False(t, s.HasEntity(entity), "removals run first")
		return nil
	})
	commands.RemoveEntity(entity)

	require.NoError(t, commands.Flush(storage))
	assert.Equal(t, []string{"defer"}, order)
}

func TestCommandsJoinErrors(t *testing.T) {
	storage := ecs.NewStorage()
	entity := storage.InsertEntity()
	id := mustInsert(storage, entity, Score(1))
	require.NoError(t, storage.DeleteComponent(id))

	boom := errors.New("boom")
	commands := ecs.NewCommands()
	commands.RemoveComponent(id)
	commands.RemoveEntity(999)
	commands.Defer(func(*ecs.Storage) error { return boom })
	commands.RemoveEntity(entity)

	err := commands.Flush(storage)
	require.Error(t, err)
	assert.ErrorIs(t, err, ecs.ErrComponentNotFound)
	assert.ErrorIs(t, err, ecs.ErrEntityNotFound)
	assert.ErrorIs(t, err, boom)

	// The valid command still ran.
	assert.False(t, storage.HasEntity(entity))

	// The buffer is empty again.
	require.NoError(t, commands.Flush(storage))
}
