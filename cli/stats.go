package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "summarize the stored network",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	d, err := openDB()
	if err != nil {
		return err
	}
	defer d.Close()

	stats, err := d.Stats(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("artists:    %d\n", stats.NodeCount)
	fmt.Printf("edges:      %d\n", stats.EdgeCount)
	fmt.Printf("avg degree: %.2f\n", stats.AvgDegree)
	fmt.Printf("max depth:  %d\n", stats.MaxObservedDepth)
	return nil
}
