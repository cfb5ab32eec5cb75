// Package extract turns one artist's fetched discography into collaboration
// facts. It knows nothing about the graph; it only reads albums and track
// credits and reports who recorded what with the subject.
package extract

import (
	"sort"
	"strings"

	"github.com/amonks/sixdegrees/data"
)

// A Fact records that the subject artist and one other artist share a song.
type Fact struct {
	Artist data.Credit
	Song   string

	// Guest marks facts found on a release where the subject is featured
	// rather than primary. Guest facts rank lower when a build caps
	// breadth; they are never excluded outright.
	Guest bool
}

type Policy struct {
	// PrimaryOnly drops releases where the subject is a guest, so only
	// the subject's own records produce facts.
	PrimaryOnly bool

	// AllTypes lifts the albums-first rule: singles and compilations
	// contribute every pair they name, not just pairs the subject's
	// albums missed.
	AllTypes bool

	// Popularity, when set, settles name collisions between two distinct
	// ids sharing a display name: the more popular id absorbs the other's
	// songs. Without it, the first id seen wins.
	Popularity func(id string) int64
}

// Extract reports the subject's collaborators across albums, with track
// lists keyed by album id. Studio albums are read first; other release
// types only contribute pairs the albums didn't surface, unless the policy
// says otherwise. The subject never appears in the result, whether credited
// by id or by a respelling of its name.
func Extract(subject data.Credit, albums []data.Album, tracks map[string][]data.Track, policy Policy) []Fact {
	var studio, other []data.Album
	for _, album := range albums {
		if policy.PrimaryOnly && album.Guest() {
			continue
		}
		if album.Type == "album" {
			studio = append(studio, album)
		} else {
			other = append(other, album)
		}
	}

	type key struct{ id, song string }
	facts := map[key]Fact{}
	names := map[string]string{}
	var order []string

	collect := func(albums []data.Album, skipPairs map[string]bool) map[string]bool {
		pairs := map[string]bool{}
		for _, album := range albums {
			for _, track := range tracks[album.SpotifyID] {
				if track.Name == "" {
					continue
				}
				for _, credit := range track.Artists {
					if credit.SpotifyID == "" || credit.SpotifyID == subject.SpotifyID {
						continue
					}
					if strings.EqualFold(credit.Name, subject.Name) {
						continue
					}
					if skipPairs != nil && skipPairs[credit.SpotifyID] {
						continue
					}
					pairs[credit.SpotifyID] = true
					if _, ok := names[credit.SpotifyID]; !ok {
						names[credit.SpotifyID] = credit.Name
						order = append(order, credit.SpotifyID)
					}
					k := key{credit.SpotifyID, track.Name}
					if prev, ok := facts[k]; ok {
						prev.Guest = prev.Guest && album.Guest()
						facts[k] = prev
					} else {
						facts[k] = Fact{
							Artist: data.Credit{SpotifyID: credit.SpotifyID, Name: credit.Name},
							Song:   track.Name,
							Guest:  album.Guest(),
						}
					}
				}
			}
		}
		return pairs
	}

	albumPairs := collect(studio, nil)
	if policy.AllTypes {
		collect(other, nil)
	} else {
		collect(other, albumPairs)
	}

	// Two ids sharing a display name are almost always the same artist
	// catalogued twice. Collapse them so the graph doesn't grow phantom
	// nodes.
	canonical := map[string]string{}
	for _, id := range order {
		lower := strings.ToLower(names[id])
		cur, ok := canonical[lower]
		if !ok {
			canonical[lower] = id
			continue
		}
		if policy.Popularity != nil && policy.Popularity(id) > policy.Popularity(cur) {
			canonical[lower] = id
		}
	}

	merged := map[key]Fact{}
	for k, f := range facts {
		id := canonical[strings.ToLower(names[k.id])]
		f.Artist = data.Credit{SpotifyID: id, Name: names[id]}
		nk := key{id, k.song}
		if prev, ok := merged[nk]; ok {
			f.Guest = f.Guest && prev.Guest
		}
		merged[nk] = f
	}

	out := make([]Fact, 0, len(merged))
	for _, f := range merged {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Artist.SpotifyID != out[j].Artist.SpotifyID {
			return out[i].Artist.SpotifyID < out[j].Artist.SpotifyID
		}
		return out[i].Song < out[j].Song
	})
	return out
}
