package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HayesJohnD/juliasilge/analysis"
)

var employmentCmd = &cobra.Command{
	Use:   "employment",
	Short: "Cluster occupations by demographic makeup",
	Long: `Employment fetches BLS employment counts, builds demographic share
features per occupation, fits k-means with a fixed seed, sweeps k for an
elbow chart, and writes the charts plus a Markdown report to the output
directory.`,
	RunE: runEmployment,
}

func init() {
	defaults := analysis.DefaultEmploymentConfig()
	employmentCmd.Flags().Int("clusters", defaults.Clusters, "number of clusters to fit")
	employmentCmd.Flags().Int("max-k", defaults.MaxK, "largest k tried in the elbow sweep")
	employmentCmd.Flags().Int64("seed", defaults.Seed, "random seed for clustering")
	employmentCmd.Flags().String("out", "", "output directory (default: out_dir config key)")
	employmentCmd.Flags().Bool("offline", false, "serve datasets from the cache only")

	rootCmd.AddCommand(employmentCmd)
}

func runEmployment(cmd *cobra.Command, args []string) error {
	cfg := analysis.DefaultEmploymentConfig()
	cfg.Clusters, _ = cmd.Flags().GetInt("clusters")
	cfg.MaxK, _ = cmd.Flags().GetInt("max-k")
	cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	cfg.OutDir = outDir(cmd)

	offline, _ := cmd.Flags().GetBool("offline")
	fetcher, cleanup, err := newFetcher(offline)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := analysis.NewEmployment(cfg, fetcher).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("clustered %d occupations into %d groups (inertia %.4g)\n\n",
		result.Assignments.NumRows(), cfg.Clusters, result.Inertia)
	fmt.Print(result.Clusters)
	fmt.Printf("\nreport: %s\n", result.ReportPath)
	return nil
}
