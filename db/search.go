package db

import (
	"context"
	"fmt"

	"github.com/amonks/sixdegrees/data"
)

// SearchArtists finds stored artists whose names contain the query, most
// popular first.
func (db *DB) SearchArtists(ctx context.Context, query string, limit int) ([]data.Artist, error) {
	var artists []data.Artist
	if err := db.WithContext(ctx).
		Table("artists").
		Where("name like ?", "%"+query+"%").
		Order("popularity desc").
		Limit(limit).
		Find(&artists).
		Error; err != nil {
		return nil, fmt.Errorf("error searching artists for '%s': %w", query, err)
	}
	return artists, nil
}
