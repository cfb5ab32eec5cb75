// Package resolve turns free-text user input into a canonical artist.
package resolve

import (
	"context"
	"fmt"

	"github.com/amonks/sixdegrees/builder"
	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/graph"
	"github.com/amonks/sixdegrees/spotify"
)

// Artist resolves input against the network first, then the catalog. The
// input can be a spotify id or a name in any case; when several known
// artists share the name, the most popular one wins. A nil catalog limits
// resolution to the network.
func Artist(ctx context.Context, g *graph.Graph, catalog builder.Catalog, input string) (data.Artist, error) {
	if artist, ok := g.Artist(input); ok {
		return artist, nil
	}
	if artist, ok := g.ArtistByName(input); ok {
		return artist, nil
	}

	if catalog == nil {
		return data.Artist{}, fmt.Errorf("no artist '%s' in the network: %w", input, spotify.ErrNotFound)
	}

	artist, err := catalog.SearchArtist(ctx, input)
	if err != nil {
		return data.Artist{}, fmt.Errorf("error resolving '%s': %w", input, err)
	}
	return artist, nil
}
