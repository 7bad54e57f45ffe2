package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HayesJohnD/juliasilge/dataset"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List manifest datasets and their cache status",
	RunE:  runDatasets,
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, args []string) error {
	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	for _, spec := range dataset.DefaultManifest().Datasets {
		status := "not cached"
		if snap, ok, err := cache.Get(cmd.Context(), spec.URL); err != nil {
			return err
		} else if ok {
			status = fmt.Sprintf("cached %d bytes", len(snap.Body))
		}
		fmt.Printf("%-22s %-20s %s\n", spec.Name, status, spec.Description)
	}

	stats, err := cache.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Printf("\nCache: %d snapshots, %d bytes (%s)\n",
		stats.Entries, stats.TotalBytes, viper.GetString("cache_dir"))
	return nil
}
