package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/plus3/tinyecs/ecs"
)

type Position struct {
	X, Y float64
}

type Velocity struct {
	DX, DY float64
}

type Health struct {
	Current, Max int
}

type Name struct {
	Value string
}

// OpCounts tallies the operations a workload performed.
type OpCounts struct {
	EntityInserts    int64
	EntityRemoves    int64
	ComponentInserts int64
	ComponentRemoves int64
	Reads            int64
	Iterations       int64
}

func (o *OpCounts) add(other OpCounts) {
	o.EntityInserts += other.EntityInserts
	o.EntityRemoves += other.EntityRemoves
	o.ComponentInserts += other.ComponentInserts
	o.ComponentRemoves += other.ComponentRemoves
	o.Reads += other.Reads
	o.Iterations += other.Iterations
}

// ShardResult is what one workload reports once its run ends.
type ShardResult struct {
	Shard   int
	Frames  int64
	Ops     OpCounts
	Samples []time.Duration
	Stats   ecs.StorageStats
}

// Workload drives one Storage with a random mix of structural changes and
// per-frame passes over its components.
type Workload struct {
	shard       int
	storage     *ecs.Storage
	commands    *ecs.Commands
	rng         *rand.Rand
	logger      *zap.Logger
	opsPerFrame int

	live []ecs.EntityId
	ops  OpCounts
}

func NewWorkload(shard int, seed int64, opsPerFrame int, logger *zap.Logger) *Workload {
	return &Workload{
		shard:       shard,
		storage:     ecs.NewStorage(ecs.WithLogger(logger)),
		commands:    ecs.NewCommands(),
		rng:         rand.New(rand.NewSource(seed)),
		logger:      logger,
		opsPerFrame: opsPerFrame,
	}
}

// Populate spawns n entities with one to four random components each.
func (w *Workload) Populate(n int) error {
	for i := 0; i < n; i++ {
		if err := w.spawn(); err != nil {
			return err
		}
	}
	return nil
}

// Run executes frames until ctx is done, then checks the storage's
// integrity and collects its statistics.
func (w *Workload) Run(ctx context.Context) (ShardResult, error) {
	result := ShardResult{Shard: w.shard}

	// At least one frame runs even if ctx is already done.
	for {
		start := time.Now()
		if err := w.Frame(); err != nil {
			return result, fmt.Errorf("shard %d frame %d: %w", w.shard, result.Frames, err)
		}
		result.Samples = append(result.Samples, time.Since(start))
		result.Frames++

		if ctx.Err() != nil {
			break
		}
	}

	if err := w.storage.CheckIntegrity(); err != nil {
		return result, fmt.Errorf("shard %d: %w", w.shard, err)
	}

	result.Ops = w.ops
	result.Stats = w.storage.CollectStats()
	w.logger.Info("shard finished",
		zap.Int64("frames", result.Frames),
		zap.Int("entities", result.Stats.EntityCount),
		zap.Int("components", result.Stats.ComponentCount))
	return result, nil
}

// Frame performs opsPerFrame random operations followed by the movement and
// damage passes.
func (w *Workload) Frame() error {
	for i := 0; i < w.opsPerFrame; i++ {
		if err := w.step(); err != nil {
			return err
		}
	}
	if err := w.move(); err != nil {
		return err
	}
	return w.damage()
}

func (w *Workload) step() error {
	if len(w.live) == 0 {
		return w.spawn()
	}

	switch w.rng.Intn(6) {
	case 0:
		return w.spawn()
	case 1:
		return w.despawn()
	case 2, 3:
		return w.attach(w.randomEntity())
	case 4:
		return w.detach()
	default:
		return w.rename()
	}
}

func (w *Workload) randomEntity() ecs.EntityId {
	return w.live[w.rng.Intn(len(w.live))]
}

func (w *Workload) spawn() error {
	entity := w.storage.InsertEntity()
	w.live = append(w.live, entity)
	w.ops.EntityInserts++

	for n := w.rng.Intn(4) + 1; n > 0; n-- {
		if err := w.attach(entity); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workload) despawn() error {
	i := w.rng.Intn(len(w.live))
	entity := w.live[i]
	w.live[i] = w.live[len(w.live)-1]
	w.live = w.live[:len(w.live)-1]

	if err := w.storage.RemoveEntity(entity); err != nil {
		return err
	}
	w.ops.EntityRemoves++
	return nil
}

func (w *Workload) attach(entity ecs.EntityId) error {
	var err error
	switch w.rng.Intn(4) {
	case 0:
		_, err = ecs.InsertComponent(w.storage, entity, Position{X: w.rng.Float64() * 100, Y: w.rng.Float64() * 100})
	case 1:
		_, err = ecs.InsertComponent(w.storage, entity, Velocity{DX: w.rng.Float64() - 0.5, DY: w.rng.Float64() - 0.5})
	case 2:
		hp := w.rng.Intn(100) + 1
		_, err = ecs.InsertComponent(w.storage, entity, Health{Current: hp, Max: hp})
	default:
		_, err = ecs.InsertComponent(w.storage, entity, Name{Value: fmt.Sprintf("e%d", entity)})
	}
	if err != nil {
		return err
	}
	w.ops.ComponentInserts++
	return nil
}

func (w *Workload) detach() error {
	components, err := w.storage.EntityComponents(w.randomEntity())
	if err != nil {
		return err
	}
	if len(components) == 0 {
		return nil
	}

	if err := w.storage.DeleteComponent(components[w.rng.Intn(len(components))]); err != nil {
		return err
	}
	w.ops.ComponentRemoves++
	return nil
}

func (w *Workload) rename() error {
	entity := w.randomEntity()
	names, err := ecs.IterByEntity[Name](w.storage, entity)
	if err != nil {
		return ignoreUnregistered(err)
	}

	for id := range names {
		name, err := ecs.GetComponent[Name](w.storage, id)
		if err != nil {
			return err
		}
		name.Value = fmt.Sprintf("e%d-%d", entity, w.rng.Intn(1000))
		w.ops.Reads++
	}
	return nil
}

// move adds every Velocity to each Position held by the same entity.
func (w *Workload) move() error {
	velocities, err := ecs.Iter[Velocity](w.storage)
	if err != nil {
		return ignoreUnregistered(err)
	}

	for id, vel := range velocities {
		w.ops.Iterations++
		owner, err := w.storage.GetEntityByComponent(id)
		if err != nil {
			return err
		}
		positions, err := ecs.ValuesByEntity[Position](w.storage, owner)
		if err != nil {
			return ignoreUnregistered(err)
		}
		for pos := range positions {
			pos.X += vel.DX
			pos.Y += vel.DY
		}
	}
	return nil
}

// damage ticks every Health down and removes entities that ran out. The
// removals are deferred to after the pass.
func (w *Workload) damage() error {
	healths, err := ecs.Iter[Health](w.storage)
	if err != nil {
		return ignoreUnregistered(err)
	}

	for id, health := range healths {
		w.ops.Iterations++
		health.Current--
		if health.Current > 0 {
			continue
		}
		owner, err := w.storage.GetEntityByComponent(id)
		if err != nil {
			return err
		}
		w.commands.RemoveEntity(owner)
	}

	if w.commands.Len() == 0 {
		return nil
	}

	before := w.storage.EntityCount()
	if err := w.commands.Flush(w.storage); err != nil {
		return err
	}
	if removed := before - w.storage.EntityCount(); removed > 0 {
		w.ops.EntityRemoves += int64(removed)
		w.live = slices.DeleteFunc(w.live, func(id ecs.EntityId) bool {
			return !w.storage.HasEntity(id)
		})
	}
	return nil
}

func ignoreUnregistered(err error) error {
	if errors.Is(err, ecs.ErrTypeNotRegistered) {
		return nil
	}
	return err
}
