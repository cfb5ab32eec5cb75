package data

// Artists are found through Spotify's search API or through track credits on
// another artist's discography.
type Artist struct {
	SpotifyID  string
	Name       string
	ImageURL   string
	Followers  int64
	Popularity int64
	Genres     []string `gorm:"serializer:json"`

	// Depth is the number of collaboration hops between this artist and
	// the seed of the build that discovered it.
	Depth int64

	// Expanded means we've fetched this artist's discography and merged
	// its collaborations into the graph. Expanded artists are skipped on
	// later builds unless a re-fetch is forced.
	Expanded bool
}
