package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/amonks/sixdegrees/builder"
	"github.com/amonks/sixdegrees/pathfind"
	"github.com/amonks/sixdegrees/resolve"
	"github.com/amonks/sixdegrees/spotify"
	"github.com/spf13/cobra"
)

var (
	flagFrom string
	flagTo   string
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "find the shortest collaboration path between two artists",
	RunE:  runPath,
}

func init() {
	pathCmd.Flags().StringVar(&flagFrom, "from", "", "starting artist name or spotify id")
	pathCmd.Flags().StringVar(&flagTo, "to", "", "target artist name or spotify id")
	pathCmd.MarkFlagRequired("from")
	pathCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(pathCmd)
}

func runPath(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	g, err := d.LoadGraph(ctx)
	if err != nil {
		return err
	}

	spo, cleanup := maybeCatalog()
	defer cleanup()

	// With credentials, unknown endpoints can be fetched on demand.
	var catalog builder.Catalog
	var expander pathfind.Expander
	if spo != nil {
		catalog = spo
		expander = builder.New(spo, g)
	}

	fromArtist, err := resolve.Artist(ctx, g, catalog, flagFrom)
	if errors.Is(err, spotify.ErrNotFound) {
		fmt.Printf("could not find artist: '%s'\n", flagFrom)
		return nil
	} else if err != nil {
		return err
	}

	toArtist, err := resolve.Artist(ctx, g, catalog, flagTo)
	if errors.Is(err, spotify.ErrNotFound) {
		fmt.Printf("could not find artist: '%s'\n", flagTo)
		return nil
	} else if err != nil {
		return err
	}

	grew := !g.Has(fromArtist.SpotifyID) || !g.Has(toArtist.SpotifyID)

	path, err := pathfind.New(g, expander).FindPath(ctx, fromArtist.SpotifyID, toArtist.SpotifyID)

	if grew && spo != nil {
		if saveErr := d.SaveGraph(context.Background(), g); saveErr != nil {
			return fmt.Errorf("error saving network: %w", saveErr)
		}
		fmt.Println("network updated and saved")
	}

	if errors.Is(err, pathfind.ErrNoPath) {
		fmt.Println("No path that we know of.")
		return nil
	} else if errors.Is(err, spotify.ErrNotFound) {
		fmt.Println("could not find artist on spotify")
		return nil
	} else if err != nil {
		return err
	}

	fmt.Println(path.Format())
	return nil
}
