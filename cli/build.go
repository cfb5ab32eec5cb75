package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/amonks/sixdegrees/builder"
	"github.com/amonks/sixdegrees/extract"
	"github.com/amonks/sixdegrees/resolve"
	"github.com/amonks/sixdegrees/spotify"
	"github.com/spf13/cobra"
)

var (
	flagDepth       int64
	flagConcurrency int
	flagMaxAlbums   int
	flagForce       bool
	flagPrimaryOnly bool
	flagAllTypes    bool
)

var buildCmd = &cobra.Command{
	Use:   "build [artist]",
	Short: "build the collaboration network around an artist",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().Int64Var(&flagDepth, "depth", 2, "how many hops out from the seed to expand")
	buildCmd.Flags().IntVar(&flagConcurrency, "concurrency", 3, "artists expanded at once")
	buildCmd.Flags().IntVar(&flagMaxAlbums, "max-albums", 15, "releases fetched per artist")
	buildCmd.Flags().BoolVar(&flagForce, "force", false, "refetch artists that are already expanded")
	buildCmd.Flags().BoolVar(&flagPrimaryOnly, "primary-only", false, "skip releases where the artist is only a guest")
	buildCmd.Flags().BoolVar(&flagAllTypes, "all-types", false, "take collaborations from every release type, not just albums")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
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

	seed, err := resolve.Artist(ctx, g, catalog, query)
	if errors.Is(err, spotify.ErrNotFound) {
		fmt.Printf("could not find artist: '%s'\n", query)
		return nil
	} else if err != nil {
		return err
	}

	fmt.Printf("building network around %s (%s)\n", seed.Name, seed.SpotifyID)

	opts := []builder.Option{
		builder.WithMaxDepth(flagDepth),
		builder.WithConcurrency(flagConcurrency),
		builder.WithMaxAlbums(flagMaxAlbums),
		builder.WithPolicy(extract.Policy{PrimaryOnly: flagPrimaryOnly, AllTypes: flagAllTypes}),
	}
	if flagForce {
		opts = append(opts, builder.WithForce())
	}

	buildErr := builder.New(catalog, g, opts...).Build(ctx, seed.SpotifyID)

	// keep whatever was learned even when the build was interrupted.
	if err := d.SaveGraph(context.Background(), g); err != nil {
		return fmt.Errorf("error saving network: %w", err)
	}
	if buildErr != nil {
		return buildErr
	}

	stats := g.Stats()
	fmt.Printf("network has %d artists and %d collaborations\n", stats.NodeCount, stats.EdgeCount)
	return nil
}
