package pathfind_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/graph"
	"github.com/amonks/sixdegrees/pathfind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpander struct {
	calls []string
	fn    func(artistSpotifyID string) error
}

func (f *fakeExpander) Expand(ctx context.Context, artistSpotifyID string) error {
	f.calls = append(f.calls, artistSpotifyID)
	if f.fn == nil {
		return nil
	}
	return f.fn(artistSpotifyID)
}

func kendrickGraph() *graph.Graph {
	g := graph.New()
	g.AddArtist(data.Artist{SpotifyID: "kendrick", Name: "Kendrick Lamar", Popularity: 95})
	g.AddArtist(data.Artist{SpotifyID: "drake", Name: "Drake", Popularity: 96, Depth: 1})
	g.AddArtist(data.Artist{SpotifyID: "sza", Name: "SZA", Popularity: 90, Depth: 1})
	g.AddArtist(data.Artist{SpotifyID: "travis", Name: "Travis Scott", Popularity: 92, Depth: 2})
	g.MergeEdge("kendrick", "drake", "Poetic Justice")
	g.MergeEdge("kendrick", "sza", "All The Stars")
	g.MergeEdge("kendrick", "sza", "Doves in the Wind")
	g.MergeEdge("sza", "travis", "Love Galore")
	return g
}

func TestOneHop(t *testing.T) {
	finder := pathfind.New(kendrickGraph(), nil)

	path, err := finder.FindPath(t.Context(), "kendrick", "drake")
	require.NoError(t, err)
	assert.Equal(t, 1, path.Degrees())
	require.Len(t, path.Steps, 2)
	assert.Equal(t, "Kendrick Lamar", path.Steps[0].Artist.Name)
	assert.Equal(t, "Drake", path.Steps[1].Artist.Name)
	assert.Nil(t, path.Steps[0].Songs)
	assert.Equal(t, []string{"Poetic Justice"}, path.Steps[1].Songs)
}

func TestTwoHopsWithSongsPerStep(t *testing.T) {
	finder := pathfind.New(kendrickGraph(), nil)

	path, err := finder.FindPath(t.Context(), "travis", "kendrick")
	require.NoError(t, err)
	assert.Equal(t, 2, path.Degrees())
	require.Len(t, path.Steps, 3)
	assert.Equal(t, "travis", path.Steps[0].Artist.SpotifyID)
	assert.Equal(t, "sza", path.Steps[1].Artist.SpotifyID)
	assert.Equal(t, "kendrick", path.Steps[2].Artist.SpotifyID)
	assert.Equal(t, []string{"Love Galore"}, path.Steps[1].Songs)
	assert.Equal(t, []string{"All The Stars", "Doves in the Wind"}, path.Steps[2].Songs)
}

func TestShortestPathWins(t *testing.T) {
	g := kendrickGraph()
	g.MergeEdge("travis", "kendrick", "goosebumps")

	path, err := pathfind.New(g, nil).FindPath(t.Context(), "travis", "kendrick")
	require.NoError(t, err)
	assert.Equal(t, 1, path.Degrees())
	assert.Equal(t, []string{"goosebumps"}, path.Steps[1].Songs)
}

func TestEqualLengthTieBreakIsDeterministic(t *testing.T) {
	g := kendrickGraph()
	g.MergeEdge("travis", "drake", "SICKO MODE")

	// two 2-hop routes exist; neighbors iterate sorted, so drake is
	// discovered before sza every time
	for i := 0; i < 5; i++ {
		path, err := pathfind.New(g, nil).FindPath(t.Context(), "travis", "kendrick")
		require.NoError(t, err)
		require.Equal(t, 2, path.Degrees())
		assert.Equal(t, "drake", path.Steps[1].Artist.SpotifyID)
	}
}

func TestPathLengthIsSymmetric(t *testing.T) {
	finder := pathfind.New(kendrickGraph(), nil)

	forward, err := finder.FindPath(t.Context(), "travis", "kendrick")
	require.NoError(t, err)
	backward, err := finder.FindPath(t.Context(), "kendrick", "travis")
	require.NoError(t, err)
	assert.Equal(t, forward.Degrees(), backward.Degrees())
}

func TestSameArtistIsZeroDegrees(t *testing.T) {
	finder := pathfind.New(kendrickGraph(), nil)

	path, err := finder.FindPath(t.Context(), "kendrick", "kendrick")
	require.NoError(t, err)
	assert.Equal(t, 0, path.Degrees())
	require.Len(t, path.Steps, 1)
	assert.Empty(t, path.Steps[0].Songs)
}

func TestExpandsMissingEndpoint(t *testing.T) {
	g := kendrickGraph()
	exp := &fakeExpander{fn: func(artistSpotifyID string) error {
		g.AddArtist(data.Artist{SpotifyID: "future", Name: "Future"})
		g.MergeEdge("future", "drake", "Life Is Good")
		g.MarkExpanded("future")
		return nil
	}}
	finder := pathfind.New(g, exp)

	path, err := finder.FindPath(t.Context(), "future", "kendrick")
	require.NoError(t, err)
	assert.Equal(t, []string{"future"}, exp.calls)
	assert.Equal(t, 2, path.Degrees())
	assert.Equal(t, []string{"Life Is Good"}, path.Steps[1].Songs)
	assert.Equal(t, []string{"Poetic Justice"}, path.Steps[2].Songs)
}

func TestNoExpansionWhenBothPresent(t *testing.T) {
	exp := &fakeExpander{}
	finder := pathfind.New(kendrickGraph(), exp)

	_, err := finder.FindPath(t.Context(), "travis", "drake")
	require.NoError(t, err)
	assert.Empty(t, exp.calls)
}

func TestExpandedDisconnectedArtistStays(t *testing.T) {
	g := kendrickGraph()
	exp := &fakeExpander{fn: func(artistSpotifyID string) error {
		g.AddArtist(data.Artist{SpotifyID: "hermit", Name: "Hermit"})
		g.MarkExpanded("hermit")
		return nil
	}}
	finder := pathfind.New(g, exp)

	_, err := finder.FindPath(t.Context(), "hermit", "kendrick")
	assert.ErrorIs(t, err, pathfind.ErrNoPath)

	hermit, ok := g.Artist("hermit")
	require.True(t, ok)
	assert.True(t, hermit.Expanded)
}

func TestExpansionFailureSurfaces(t *testing.T) {
	boom := errors.New("upstream says no")
	exp := &fakeExpander{fn: func(string) error { return boom }}
	finder := pathfind.New(kendrickGraph(), exp)

	_, err := finder.FindPath(t.Context(), "nobody", "kendrick")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, pathfind.ErrNoPath)
}

func TestMissingEndpointWithoutExpander(t *testing.T) {
	finder := pathfind.New(kendrickGraph(), nil)

	_, err := finder.FindPath(t.Context(), "nobody", "kendrick")
	assert.ErrorIs(t, err, pathfind.ErrNoPath)
}

func TestDisconnectedComponentsHaveNoPath(t *testing.T) {
	g := kendrickGraph()
	g.AddArtist(data.Artist{SpotifyID: "a", Name: "A"})
	g.AddArtist(data.Artist{SpotifyID: "b", Name: "B"})
	g.MergeEdge("a", "b", "Duet")

	exp := &fakeExpander{}
	_, err := pathfind.New(g, exp).FindPath(t.Context(), "a", "kendrick")
	assert.ErrorIs(t, err, pathfind.ErrNoPath)
	assert.Empty(t, exp.calls)
}

func TestFormat(t *testing.T) {
	finder := pathfind.New(kendrickGraph(), nil)

	path, err := finder.FindPath(t.Context(), "travis", "kendrick")
	require.NoError(t, err)

	got := path.Format()
	assert.Contains(t, got, "2 degrees of separation")
	assert.Contains(t, got, "Travis Scott → SZA → Kendrick Lamar")
	assert.Contains(t, got, "1. Travis Scott & SZA")
	assert.Contains(t, got, "• Love Galore")
	assert.Contains(t, got, "2. SZA & Kendrick Lamar")
	assert.Contains(t, got, "• All The Stars")
	assert.Contains(t, got, "• Doves in the Wind")
}

func TestFormatCapsSongList(t *testing.T) {
	g := graph.New()
	g.AddArtist(data.Artist{SpotifyID: "a", Name: "A"})
	g.AddArtist(data.Artist{SpotifyID: "b", Name: "B"})
	for i := 0; i < 5; i++ {
		g.MergeEdge("a", "b", fmt.Sprintf("Song %d", i))
	}

	path, err := pathfind.New(g, nil).FindPath(t.Context(), "a", "b")
	require.NoError(t, err)

	got := path.Format()
	assert.Contains(t, got, "1 degree of separation")
	assert.Contains(t, got, "Song 2")
	assert.Contains(t, got, "... and 2 more")
	assert.NotContains(t, got, "Song 3")
}
