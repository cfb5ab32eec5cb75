package db

import (
	"context"
	"fmt"

	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/graph"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SaveGraph writes every artist, collaboration, and song in g, inserting
// rows that are missing and refreshing artist attributes that changed since
// the last save. The whole write happens in one transaction so an
// interrupted save can't leave the file half-updated.
func (db *DB) SaveGraph(ctx context.Context, g *graph.Graph) error {
	artists := g.Artists()
	collaborations := g.Edges()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, artist := range artists {
			if err := tx.
				Clauses(clause.OnConflict{
					Columns: []clause.Column{{Name: "spotify_id"}},
					DoUpdates: clause.AssignmentColumns([]string{
						"name", "image_url", "followers", "popularity",
						"genres", "depth", "expanded",
					}),
				}).
				Create(&artist).
				Error; err != nil {
				return fmt.Errorf("error inserting artist '%s': %w", artist.Name, err)
			}
		}

		for _, collaboration := range collaborations {
			if err := tx.
				Clauses(clause.OnConflict{DoNothing: true}).
				Create(&data.Collaboration{
					Artist1ID: collaboration.Artist1ID,
					Artist2ID: collaboration.Artist2ID,
				}).
				Error; err != nil {
				return fmt.Errorf("error inserting collaboration {'%s' '%s'}: %w",
					collaboration.Artist1ID, collaboration.Artist2ID, err)
			}

			// OnConflict DoNothing doesn't report the surviving row's
			// id, so fetch it before attaching songs.
			var collaborationID int64
			if err := tx.
				Table("collaborations").
				Select("id").
				Where("artist1_id = ? and artist2_id = ?",
					collaboration.Artist1ID, collaboration.Artist2ID).
				Scan(&collaborationID).
				Error; err != nil {
				return fmt.Errorf("error fetching id for collaboration {'%s' '%s'}: %w",
					collaboration.Artist1ID, collaboration.Artist2ID, err)
			}

			for _, title := range collaboration.Songs {
				if err := tx.
					Clauses(clause.OnConflict{DoNothing: true}).
					Create(&data.Song{
						CollaborationID: collaborationID,
						Title:           title,
					}).
					Error; err != nil {
					return fmt.Errorf("error inserting song '%s': %w", title, err)
				}
			}
		}

		return nil
	})
}

// LoadGraph reads the whole saved network back into memory. An empty
// database yields an empty graph.
func (db *DB) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.New()

	var artists []data.Artist
	if err := db.WithContext(ctx).
		Table("artists").
		Find(&artists).
		Error; err != nil {
		return nil, fmt.Errorf("error loading artists: %w", err)
	}
	for _, artist := range artists {
		g.AddArtist(artist)
	}

	var collaborations []data.Collaboration
	if err := db.WithContext(ctx).
		Table("collaborations").
		Find(&collaborations).
		Error; err != nil {
		return nil, fmt.Errorf("error loading collaborations: %w", err)
	}
	for _, collaboration := range collaborations {
		var titles []string
		if err := db.WithContext(ctx).
			Table("songs").
			Where("collaboration_id = ?", collaboration.ID).
			Pluck("title", &titles).
			Error; err != nil {
			return nil, fmt.Errorf("error loading songs for collaboration %d: %w",
				collaboration.ID, err)
		}
		for _, title := range titles {
			g.MergeEdge(collaboration.Artist1ID, collaboration.Artist2ID, title)
		}
	}

	return g, nil
}
