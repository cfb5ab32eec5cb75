// Package pathfind answers shortest-connection queries over a collaboration
// network, growing the network on demand when a queried artist isn't in it
// yet.
package pathfind

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/graph"
)

// ErrNoPath is returned when two artists aren't connected by anything we
// know about.
var ErrNoPath = errors.New("no known path")

// An Expander grows the network around one artist. builder.Builder
// implements it.
type Expander interface {
	Expand(ctx context.Context, artistSpotifyID string) error
}

type Finder struct {
	g   *graph.Graph
	exp Expander
}

// New returns a Finder over g. A nil expander disables on-demand expansion.
func New(g *graph.Graph, exp Expander) *Finder {
	return &Finder{g: g, exp: exp}
}

// A Step is one artist along a path. Songs connect this step's artist to
// the previous step's; the first step has none.
type Step struct {
	Artist data.Artist
	Songs  []string
}

type Path struct {
	Steps []Step
}

// Degrees counts the hops in the path.
func (p Path) Degrees() int {
	return len(p.Steps) - 1
}

// FindPath reports the shortest chain of collaborations between two
// artists. An endpoint that isn't in the network yet is expanded once
// before the search runs; whether or not a path turns up, the expanded
// artist stays in the network.
func (f *Finder) FindPath(ctx context.Context, fromSpotifyID, toSpotifyID string) (Path, error) {
	for _, artistSpotifyID := range []string{fromSpotifyID, toSpotifyID} {
		if f.g.Has(artistSpotifyID) || f.exp == nil {
			continue
		}
		if err := f.exp.Expand(ctx, artistSpotifyID); err != nil {
			return Path{}, fmt.Errorf("error expanding artist '%s': %w", artistSpotifyID, err)
		}
	}

	ids, ok := f.search(fromSpotifyID, toSpotifyID)
	if !ok {
		return Path{}, fmt.Errorf("no path between '%s' and '%s': %w",
			fromSpotifyID, toSpotifyID, ErrNoPath)
	}
	return f.annotate(ids), nil
}

// search runs unweighted BFS with a predecessor map. Neighbors iterates in
// sorted order, so ties between equal-length paths settle the same way on
// every run of the same graph.
func (f *Finder) search(fromSpotifyID, toSpotifyID string) ([]string, bool) {
	if !f.g.Has(fromSpotifyID) || !f.g.Has(toSpotifyID) {
		return nil, false
	}
	if fromSpotifyID == toSpotifyID {
		return []string{fromSpotifyID}, true
	}

	predecessor := map[string]string{fromSpotifyID: ""}
	queue := []string{fromSpotifyID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, neighbor := range f.g.Neighbors(current) {
			if _, seen := predecessor[neighbor]; seen {
				continue
			}
			predecessor[neighbor] = current
			if neighbor == toSpotifyID {
				var ids []string
				for id := neighbor; id != ""; id = predecessor[id] {
					ids = append(ids, id)
				}
				slices.Reverse(ids)
				return ids, true
			}
			queue = append(queue, neighbor)
		}
	}
	return nil, false
}

func (f *Finder) annotate(ids []string) Path {
	steps := make([]Step, len(ids))
	for i, artistSpotifyID := range ids {
		artist, _ := f.g.Artist(artistSpotifyID)
		steps[i] = Step{Artist: artist}
		if i > 0 {
			steps[i].Songs = f.g.Songs(ids[i-1], artistSpotifyID)
		}
	}
	return Path{Steps: steps}
}

// Format renders the path for humans: a header, the chain of names, then
// each connection with up to three of its songs.
func (p Path) Format() string {
	if len(p.Steps) == 0 {
		return "No path found."
	}

	var b strings.Builder

	degrees := p.Degrees()
	noun := "degrees"
	if degrees == 1 {
		noun = "degree"
	}
	fmt.Fprintf(&b, "%d %s of separation\n\n", degrees, noun)

	names := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		names[i] = step.Artist.Name
	}
	b.WriteString("PATH:\n")
	b.WriteString(strings.Join(names, " → "))
	b.WriteString("\n")

	if degrees == 0 {
		return b.String()
	}

	b.WriteString("\nCONNECTIONS:\n")
	for i := 1; i < len(p.Steps); i++ {
		fmt.Fprintf(&b, "%d. %s & %s\n", i, p.Steps[i-1].Artist.Name, p.Steps[i].Artist.Name)

		songs := p.Steps[i].Songs
		shown := songs
		if len(shown) > 3 {
			shown = shown[:3]
		}
		for _, song := range shown {
			fmt.Fprintf(&b, "   • %s\n", song)
		}
		if rest := len(songs) - len(shown); rest > 0 {
			fmt.Fprintf(&b, "   ... and %d more\n", rest)
		}
	}

	return b.String()
}
