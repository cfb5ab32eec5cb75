package data

// A Collaboration is the persisted form of one graph edge. The pair is
// stored in sorted order (Artist1ID < Artist2ID) so each unordered pair maps
// to exactly one row.
type Collaboration struct {
	ID        int64
	Artist1ID string
	Artist2ID string

	Songs []string `gorm:"-"`
}

// A Song is one title attached to a collaboration. The (collaboration, title)
// pair is unique; re-saving a graph never duplicates rows.
type Song struct {
	ID              int64
	CollaborationID int64
	Title           string
}
