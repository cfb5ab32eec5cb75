// Package graph holds the collaboration network: artists as nodes, and for
// each pair that has recorded together, one undirected edge labeled with
// every song they share.
package graph

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/amonks/sixdegrees/data"
)

type Graph struct {
	mu    sync.RWMutex
	nodes map[string]data.Artist
	adj   map[string]map[string]struct{}
	songs map[[2]string]map[string]struct{}
}

func New() *Graph {
	return &Graph{
		nodes: map[string]data.Artist{},
		adj:   map[string]map[string]struct{}{},
		songs: map[[2]string]map[string]struct{}{},
	}
}

// pair orders two ids so each unordered pair has one key.
func pair(a, b string) [2]string {
	if b < a {
		a, b = b, a
	}
	return [2]string{a, b}
}

// AddArtist upserts a node. A re-add merges attributes rather than
// clobbering them: empty incoming fields keep the stored value, depth keeps
// its minimum, and expansion is never un-marked. Track credits carry only id
// and name, so a credit-discovered node must survive being re-added with
// less detail than a full fetch already gave it.
func (g *Graph) AddArtist(a data.Artist) {
	if a.SpotifyID == "" {
		panic("graph: artist with no spotify id")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	existing, ok := g.nodes[a.SpotifyID]
	if !ok {
		g.nodes[a.SpotifyID] = a
		g.adj[a.SpotifyID] = map[string]struct{}{}
		return
	}

	if a.Name != "" {
		existing.Name = a.Name
	}
	if a.ImageURL != "" {
		existing.ImageURL = a.ImageURL
	}
	if a.Popularity != 0 {
		existing.Popularity = a.Popularity
	}
	if a.Followers != 0 {
		existing.Followers = a.Followers
	}
	if len(a.Genres) > 0 {
		existing.Genres = a.Genres
	}
	if a.Depth < existing.Depth {
		existing.Depth = a.Depth
	}
	existing.Expanded = existing.Expanded || a.Expanded
	g.nodes[a.SpotifyID] = existing
}

// MergeEdge records that a and b share song. Merging is a single critical
// section and a set union, so concurrent merges for the same pair can land
// in any order without losing songs. Both endpoints must already be nodes;
// a self edge, an empty id, or an unknown endpoint is a defect in the
// caller, not a data condition, and panics.
func (g *Graph) MergeEdge(a, b, song string) {
	if a == "" || b == "" {
		panic("graph: merge edge with empty artist id")
	}
	if a == b {
		panic(fmt.Sprintf("graph: self edge on '%s' for song '%s'", a, song))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[a]; !ok {
		panic(fmt.Sprintf("graph: merge edge with unknown artist '%s'", a))
	}
	if _, ok := g.nodes[b]; !ok {
		panic(fmt.Sprintf("graph: merge edge with unknown artist '%s'", b))
	}

	k := pair(a, b)
	set := g.songs[k]
	if set == nil {
		set = map[string]struct{}{}
		g.songs[k] = set
		g.adj[a][b] = struct{}{}
		g.adj[b][a] = struct{}{}
	}
	set[song] = struct{}{}
}

// MarkExpanded records that an artist's discography has been fetched and
// merged, so later builds can skip it.
func (g *Graph) MarkExpanded(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	a, ok := g.nodes[id]
	if !ok {
		panic(fmt.Sprintf("graph: mark unknown artist '%s' expanded", id))
	}
	a.Expanded = true
	g.nodes[id] = a
}

func (g *Graph) Has(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Artist(id string) (data.Artist, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	a, ok := g.nodes[id]
	return a, ok
}

// ArtistByName finds a node by display name, case-insensitively. When
// several nodes share a name, the most popular one wins.
func (g *Graph) ArtistByName(name string) (data.Artist, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var best data.Artist
	var found bool
	for _, a := range g.nodes {
		if !strings.EqualFold(a.Name, name) {
			continue
		}
		if !found || a.Popularity > best.Popularity {
			best, found = a, true
		}
	}
	return best, found
}

// Neighbors returns the ids adjacent to id, sorted. The sort gives BFS a
// stable visit order, so equal-length paths always tie-break the same way
// on a fixed graph.
func (g *Graph) Neighbors(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.adj[id]))
	for other := range g.adj[id] {
		ids = append(ids, other)
	}
	sort.Strings(ids)
	return ids
}

// Songs returns the titles shared by a and b, sorted, or nil if no edge
// exists between them.
func (g *Graph) Songs(a, b string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := g.songs[pair(a, b)]
	if len(set) == 0 {
		return nil
	}
	titles := make([]string, 0, len(set))
	for title := range set {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Artists returns every node, sorted by id.
func (g *Graph) Artists() []data.Artist {
	g.mu.RLock()
	defer g.mu.RUnlock()

	artists := make([]data.Artist, 0, len(g.nodes))
	for _, a := range g.nodes {
		artists = append(artists, a)
	}
	sort.Slice(artists, func(i, j int) bool { return artists[i].SpotifyID < artists[j].SpotifyID })
	return artists
}

// Edges returns every edge with its song set, pairs ordered and songs
// sorted, ready for persistence.
func (g *Graph) Edges() []data.Collaboration {
	g.mu.RLock()
	defer g.mu.RUnlock()

	edges := make([]data.Collaboration, 0, len(g.songs))
	for k, set := range g.songs {
		titles := make([]string, 0, len(set))
		for title := range set {
			titles = append(titles, title)
		}
		sort.Strings(titles)
		edges = append(edges, data.Collaboration{Artist1ID: k[0], Artist2ID: k[1], Songs: titles})
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Artist1ID != edges[j].Artist1ID {
			return edges[i].Artist1ID < edges[j].Artist1ID
		}
		return edges[i].Artist2ID < edges[j].Artist2ID
	})
	return edges
}

type Stats struct {
	NodeCount        int
	EdgeCount        int
	AvgDegree        float64
	MaxObservedDepth int64
}

func (g *Graph) Stats() Stats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	stats := Stats{
		NodeCount: len(g.nodes),
		EdgeCount: len(g.songs),
	}
	if stats.NodeCount > 0 {
		stats.AvgDegree = 2 * float64(stats.EdgeCount) / float64(stats.NodeCount)
	}
	for _, a := range g.nodes {
		if a.Depth > stats.MaxObservedDepth {
			stats.MaxObservedDepth = a.Depth
		}
	}
	return stats
}
