package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagCount int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "search the stored network for artists by name",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagCount, "count", 10, "number of artists to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	artists, err := d.SearchArtists(ctx, query, flagCount)
	if err != nil {
		return fmt.Errorf("error in search for '%s': %w", query, err)
	}

	if len(artists) == 0 {
		fmt.Printf("no results for '%s'\n", query)
		return nil
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)

	header := []string{"name", "spotify_id", "popularity", "followers", "depth", "expanded", "genres"}
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	for _, artist := range artists {
		fmt.Fprintln(tw, strings.Join([]string{
			artist.Name,
			artist.SpotifyID,
			fmt.Sprintf("%d", artist.Popularity),
			fmt.Sprintf("%d", artist.Followers),
			fmt.Sprintf("%d", artist.Depth),
			fmt.Sprintf("%t", artist.Expanded),
			strings.Join(artist.Genres, ", "),
		}, "\t"))
	}

	tw.Flush()

	return nil
}
