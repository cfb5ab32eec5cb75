package data

// A Credit is one artist's appearance on a track or album, as Spotify
// reports it: just an id and a display name.
type Credit struct {
	SpotifyID string
	Name      string
}
