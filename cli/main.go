// this program builds a sqlite3 database of artist collaborations from
// spotify and answers six-degrees queries against it.
//
// see db/schema.sql for info about the resulting database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amonks/sixdegrees/cache"
	"github.com/amonks/sixdegrees/db"
	"github.com/amonks/sixdegrees/spotify"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	flagDB      string
	flagCache   string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:           "sixdegrees",
	Short:         "six degrees of separation between music artists",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if flagVerbose {
			log.SetLevel(log.DebugLevel)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "sixdegrees.db", "sqlite database file")
	rootCmd.PersistentFlags().StringVar(&flagCache, "cache", "", "spotify response cache directory; defaults to $SIXDEGREES_CACHE, empty disables caching")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log at debug level")
}

func main() {
	// a missing .env is fine; credentials may come from the environment.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func openDB() (*db.DB, error) {
	return db.Open(flagDB)
}

// newCatalog builds a spotify client from SPOTIFY_CLIENT_ID and
// SPOTIFY_CLIENT_SECRET. The returned cleanup closes the response cache.
func newCatalog() (*spotify.Client, func(), error) {
	clientID := os.Getenv("SPOTIFY_CLIENT_ID")
	clientSecret := os.Getenv("SPOTIFY_CLIENT_SECRET")
	if clientID == "" || clientSecret == "" {
		return nil, nil, errors.New("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}

	// the flag wins over the environment, read here rather than at flag
	// registration so a value loaded from .env is seen.
	cacheDir := flagCache
	if cacheDir == "" {
		cacheDir = os.Getenv("SIXDEGREES_CACHE")
	}

	cleanup := func() {}
	var opts []spotify.Option
	if cacheDir != "" {
		c, err := cache.Open(cacheDir)
		if err != nil {
			return nil, nil, fmt.Errorf("error opening cache '%s': %w", cacheDir, err)
		}
		opts = append(opts, spotify.WithCache(c))
		cleanup = func() { c.Close() }
	}

	return spotify.New(clientID, clientSecret, opts...), cleanup, nil
}

// maybeCatalog is newCatalog for commands that work without spotify
// access; without credentials it returns nil and the command runs
// against the stored network only.
func maybeCatalog() (*spotify.Client, func()) {
	catalog, cleanup, err := newCatalog()
	if err != nil {
		log.Debug("spotify access disabled", "err", err)
		return nil, func() {}
	}
	return catalog, cleanup
}
