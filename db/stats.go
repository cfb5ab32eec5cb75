package db

import (
	"context"
	"fmt"

	"github.com/amonks/sixdegrees/graph"
)

// Stats summarizes the stored network without loading it into memory.
func (db *DB) Stats(ctx context.Context) (graph.Stats, error) {
	var stats graph.Stats

	var artists int64
	if err := db.WithContext(ctx).
		Table("artists").
		Count(&artists).
		Error; err != nil {
		return stats, fmt.Errorf("error counting artists: %w", err)
	}

	var collaborations int64
	if err := db.WithContext(ctx).
		Table("collaborations").
		Count(&collaborations).
		Error; err != nil {
		return stats, fmt.Errorf("error counting collaborations: %w", err)
	}

	stats.NodeCount = int(artists)
	stats.EdgeCount = int(collaborations)
	if artists > 0 {
		stats.AvgDegree = float64(2*collaborations) / float64(artists)
		if err := db.WithContext(ctx).
			Table("artists").
			Select("max(depth)").
			Scan(&stats.MaxObservedDepth).
			Error; err != nil {
			return stats, fmt.Errorf("error finding deepest artist: %w", err)
		}
	}

	return stats, nil
}
