package data

// Albums are fetched from Spotify while expanding an artist. They exist only
// long enough to pull collaborators out of their track lists; the graph never
// stores them.
type Album struct {
	SpotifyID string
	Name      string

	// Type is one of "album", "single", or "compilation".
	Type string

	// Group is Type plus "appears_on" for releases where the expanded
	// artist is a guest rather than the primary owner.
	Group string

	ImageURL    string
	TotalTracks int64

	ReleaseDate          string
	ReleaseDatePrecision string

	Artists []Credit
}

// Guest reports whether the expanded artist is featured on this album rather
// than owning it.
func (a Album) Guest() bool {
	return a.Group == "appears_on"
}
