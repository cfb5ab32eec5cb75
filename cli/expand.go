package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amonks/sixdegrees/builder"
	"github.com/amonks/sixdegrees/resolve"
	"github.com/amonks/sixdegrees/spotify"
	"github.com/spf13/cobra"
)

var flagExpandForce bool

var expandCmd = &cobra.Command{
	Use:   "expand [artist]",
	Short: "fetch one artist's collaborations into the network",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExpand,
}

func init() {
	expandCmd.Flags().BoolVar(&flagExpandForce, "force", false, "refetch even if already expanded")
	rootCmd.AddCommand(expandCmd)
}

func runExpand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	query := strings.Join(args, " ")

	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	g, err := d.LoadGraph(ctx)
	if err != nil {
		return err
	}

	catalog, cleanup, err := newCatalog()
	if err != nil {
		return err
	}
	defer cleanup()

	artist, err := resolve.Artist(ctx, g, catalog, query)
	if errors.Is(err, spotify.ErrNotFound) {
		fmt.Printf("could not find artist: '%s'\n", query)
		return nil
	} else if err != nil {
		return err
	}

	opts := []builder.Option{}
	if flagExpandForce {
		opts = append(opts, builder.WithForce())
	}
	if err := builder.New(catalog, g, opts...).Expand(ctx, artist.SpotifyID); err != nil {
		return err
	}

	if err := d.SaveGraph(context.Background(), g); err != nil {
		return fmt.Errorf("error saving network: %w", err)
	}

	fmt.Printf("expanded %s: %d collaborators\n", artist.Name, len(g.Neighbors(artist.SpotifyID)))
	return nil
}
