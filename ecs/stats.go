package ecs

import "sort"

// StorageStats is a snapshot of storage occupancy.
type StorageStats struct {
	EntityCount    int
	ComponentCount int
	TypeCount      int
	TypeBreakdown  []TypeStats
}

// TypeStats describes the store of one component type.
type TypeStats struct {
	TypeId         TypeId
	Name           string
	ComponentCount int
}

// CollectStats gathers occupancy statistics, with types sorted by name.
func (s *Storage) CollectStats() StorageStats {
	stats := StorageStats{
		EntityCount:   s.entities.Len(),
		TypeCount:     s.registry.Len(),
		TypeBreakdown: make([]TypeStats, 0, s.registry.Len()),
	}

	for typeId, store := range s.registry.all() {
		stats.ComponentCount += store.Len()
		stats.TypeBreakdown = append(stats.TypeBreakdown, TypeStats{
			TypeId:         typeId,
			Name:           store.Type().String(),
			ComponentCount: store.Len(),
		})
	}

	sort.Slice(stats.TypeBreakdown, func(i, j int) bool {
		return stats.TypeBreakdown[i].Name < stats.TypeBreakdown[j].Name
	})
	return stats
}
