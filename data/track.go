package data

type Track struct {
	SpotifyID  string
	Name       string
	DurationMS int64

	AlbumSpotifyID string
	AlbumName      string
	DiscNumber     int64
	TrackNumber    int64

	Artists []Credit
}
