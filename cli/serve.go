package main

import (
	"fmt"

	"github.com/amonks/sixdegrees/builder"
	"github.com/amonks/sixdegrees/pathfind"
	"github.com/amonks/sixdegrees/server"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run a web server answering path and search queries",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&flagPort, "port", 9999, "http port")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
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

	var catalog builder.Catalog
	var expander pathfind.Expander
	if spo != nil {
		catalog = spo
		expander = builder.New(spo, g)
	}

	srv := server.New(g, d, pathfind.New(g, expander), catalog)

	addr := fmt.Sprintf(":%d", flagPort)
	log.Info("serving", "addr", addr)
	return srv.Run(ctx, addr)
}
