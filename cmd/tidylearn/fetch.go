package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/HayesJohnD/juliasilge/dataset"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch [name...]",
	Short: "Download datasets into the local cache",
	Long: `Fetch downloads the named manifest datasets, or direct CSV URLs, and
stores snapshots in the local cache. Already cached datasets are skipped
unless --force is given. With no arguments every manifest dataset is
fetched.`,
	RunE: runFetch,
}

func init() {
	fetchCmd.Flags().Bool("force", false, "refetch even when a snapshot is cached")

	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")

	cache, err := openCache()
	if err != nil {
		return err
	}
	defer cache.Close()

	opts := append(clientOptions(false), dataset.WithCache(cache), dataset.WithForce(force))
	fetcher := dataset.NewFetcher(opts...)

	names := args
	if len(names) == 0 {
		names = dataset.DefaultManifest().Names()
	}

	var fetched, skipped, failed int
	for _, name := range names {
		spec, err := fetcher.Resolve(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed:  %s (%v)\n", name, err)
			failed++
			continue
		}
		if !force {
			if snap, ok, _ := cache.Get(cmd.Context(), spec.URL); ok {
				fmt.Printf("cached:  %s (%d bytes)\n", spec.Name, len(snap.Body))
				skipped++
				continue
			}
		}
		body, err := fetcher.Fetch(cmd.Context(), name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed:  %s (%v)\n", name, err)
			failed++
			continue
		}
		fmt.Printf("fetched: %s (%d bytes)\n", spec.Name, len(body))
		fetched++
	}

	fmt.Printf("\nBatch summary: %d fetched, %d cached, %d failed (total: %d)\n",
		fetched, skipped, failed, len(names))
	if failed > 0 {
		return fmt.Errorf("%d dataset(s) failed to fetch", failed)
	}
	return nil
}
