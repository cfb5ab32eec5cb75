// Package builder grows a collaboration network outward from a seed artist,
// one breadth-first frontier at a time.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/amonks/sixdegrees/data"
	"github.com/amonks/sixdegrees/extract"
	"github.com/amonks/sixdegrees/graph"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// A Catalog is the slice of the music catalog the network is built from.
// spotify.Client implements it.
type Catalog interface {
	SearchArtist(ctx context.Context, name string) (data.Artist, error)
	FetchArtist(ctx context.Context, artistSpotifyID string) (data.Artist, error)
	FetchArtistAlbums(ctx context.Context, artistSpotifyID string) ([]data.Album, error)
	FetchAlbumTracks(ctx context.Context, albumSpotifyID string) ([]data.Track, error)
}

type Builder struct {
	catalog Catalog
	g       *graph.Graph

	maxDepth    int64
	concurrency int
	maxAlbums   int
	force       bool
	policy      extract.Policy

	log *log.Logger
}

type Option func(*Builder)

// WithMaxDepth sets how many degrees of separation to build out from the
// seed.
func WithMaxDepth(depth int64) Option {
	return func(b *Builder) { b.maxDepth = depth }
}

// WithConcurrency bounds how many artists are expanded at once.
func WithConcurrency(n int) Option {
	return func(b *Builder) { b.concurrency = n }
}

// WithMaxAlbums caps how many releases are analyzed per artist.
func WithMaxAlbums(n int) Option {
	return func(b *Builder) { b.maxAlbums = n }
}

// WithForce re-fetches artists that are already expanded.
func WithForce() Option {
	return func(b *Builder) { b.force = true }
}

// WithPolicy sets the collaboration extraction policy.
func WithPolicy(policy extract.Policy) Option {
	return func(b *Builder) { b.policy = policy }
}

func WithLogger(logger *log.Logger) Option {
	return func(b *Builder) { b.log = logger }
}

func New(catalog Catalog, g *graph.Graph, opts ...Option) *Builder {
	b := &Builder{
		catalog:     catalog,
		g:           g,
		maxDepth:    2,
		concurrency: 3,
		maxAlbums:   15,
		log:         log.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.policy.Popularity == nil {
		b.policy.Popularity = func(artistSpotifyID string) int64 {
			artist, ok := g.Artist(artistSpotifyID)
			if !ok {
				return 0
			}
			return artist.Popularity
		}
	}
	return b
}

// Build expands the network breadth-first from the seed artist until
// maxDepth frontiers have been processed. An artist that can't be fetched
// is logged and skipped; only cancellation aborts the build.
func (b *Builder) Build(ctx context.Context, seedSpotifyID string) error {
	var mu sync.Mutex
	failed := map[string]bool{}

	visited := map[string]bool{}
	frontier := []string{seedSpotifyID}

	for depth := int64(0); depth < b.maxDepth && len(frontier) > 0; depth++ {
		b.log.Info("expanding frontier", "depth", depth, "artists", len(frontier))

		eg, egctx := errgroup.WithContext(ctx)
		eg.SetLimit(b.concurrency)
		for _, artistSpotifyID := range frontier {
			if visited[artistSpotifyID] {
				continue
			}
			visited[artistSpotifyID] = true

			eg.Go(func() error {
				err := b.expandArtist(egctx, artistSpotifyID, depth)
				if err == nil {
					return nil
				}
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				b.log.Error("skipping artist", "artist", artistSpotifyID, "err", err)
				mu.Lock()
				failed[artistSpotifyID] = true
				mu.Unlock()
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return err
		}

		queued := map[string]bool{}
		var next []string
		for _, artistSpotifyID := range frontier {
			for _, neighbor := range b.g.Neighbors(artistSpotifyID) {
				if visited[neighbor] || queued[neighbor] {
					continue
				}
				queued[neighbor] = true
				next = append(next, neighbor)
			}
		}
		frontier = next
	}

	if len(failed) > 0 {
		b.log.Warn("some artists could not be expanded", "count", len(failed))
	}

	stats := b.g.Stats()
	b.log.Info("network built", "artists", stats.NodeCount, "collaborations", stats.EdgeCount)

	return nil
}

// Expand fetches a single artist's discography and merges its
// collaborations into the network. The artist's recorded depth is kept when
// it is already known; a brand new artist starts a component of its own at
// depth zero.
func (b *Builder) Expand(ctx context.Context, artistSpotifyID string) error {
	var depth int64
	if artist, ok := b.g.Artist(artistSpotifyID); ok {
		depth = artist.Depth
	}
	return b.expandArtist(ctx, artistSpotifyID, depth)
}

func (b *Builder) expandArtist(ctx context.Context, artistSpotifyID string, depth int64) error {
	if artist, ok := b.g.Artist(artistSpotifyID); ok && artist.Expanded && !b.force {
		b.log.Debug("already expanded", "artist", artist.Name)
		return nil
	}

	artist, err := b.catalog.FetchArtist(ctx, artistSpotifyID)
	if err != nil {
		return fmt.Errorf("error fetching artist '%s': %w", artistSpotifyID, err)
	}
	artist.Depth = depth
	b.g.AddArtist(artist)

	albums, err := b.catalog.FetchArtistAlbums(ctx, artistSpotifyID)
	if err != nil {
		return fmt.Errorf("error fetching albums for '%s': %w", artist.Name, err)
	}
	albums = b.prioritize(albums)

	tracks := make(map[string][]data.Track, len(albums))
	for _, album := range albums {
		albumTracks, err := b.catalog.FetchAlbumTracks(ctx, album.SpotifyID)
		if err != nil {
			return fmt.Errorf("error fetching tracks for album '%s': %w", album.Name, err)
		}
		tracks[album.SpotifyID] = albumTracks
	}

	subject := data.Credit{SpotifyID: artist.SpotifyID, Name: artist.Name}
	facts := extract.Extract(subject, albums, tracks, b.policy)
	for _, fact := range facts {
		b.g.AddArtist(data.Artist{
			SpotifyID: fact.Artist.SpotifyID,
			Name:      fact.Artist.Name,
			Depth:     depth + 1,
		})
		b.g.MergeEdge(artist.SpotifyID, fact.Artist.SpotifyID, fact.Song)
	}

	b.g.MarkExpanded(artist.SpotifyID)
	b.log.Info("expanded artist", "artist", artist.Name, "collaborations", len(facts))
	return nil
}

var releasePriority = map[string]int{
	"album":       0,
	"single":      1,
	"compilation": 2,
	"appears_on":  3,
}

// prioritize orders releases studio-albums-first and caps how many get
// analyzed per artist. Within a release type, fully-dated releases come
// before year-only ones, then older before newer.
func (b *Builder) prioritize(albums []data.Album) []data.Album {
	kept := make([]data.Album, 0, len(albums))
	for _, album := range albums {
		if b.policy.PrimaryOnly && album.Guest() {
			continue
		}
		kept = append(kept, album)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		ri, rj := releaseRank(kept[i]), releaseRank(kept[j])
		if ri != rj {
			return ri < rj
		}
		di, dj := kept[i].ReleaseDate, kept[j].ReleaseDate
		if len(di) != len(dj) {
			return len(di) > len(dj)
		}
		return di < dj
	})

	if len(kept) > b.maxAlbums {
		kept = kept[:b.maxAlbums]
	}
	return kept
}

func releaseRank(album data.Album) int {
	group := album.Group
	if group == "" {
		group = album.Type
	}
	if rank, ok := releasePriority[group]; ok {
		return rank
	}
	return 4
}
