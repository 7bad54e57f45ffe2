package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HayesJohnD/juliasilge/analysis"
)

var papersCmd = &cobra.Command{
	Use:   "papers",
	Short: "Classify NBER working papers from their titles",
	Long: `Papers fetches the NBER working paper catalog, joins papers to their
program categories, and tunes a multiclass lasso over tf-idf title
features with stratified cross-validation. The held-out confusion
matrix, ROC curves, coefficient chart and a Markdown report land in the
output directory.`,
	RunE: runPapers,
}

func init() {
	defaults := analysis.DefaultPapersConfig()
	papersCmd.Flags().Int("max-tokens", defaults.MaxTokens, "tf-idf vocabulary size built from titles")
	papersCmd.Flags().Int("folds", defaults.Folds, "stratified cross-validation folds")
	papersCmd.Flags().Int("levels", defaults.PenaltyLevels, "penalty grid size")
	papersCmd.Flags().Int64("seed", defaults.Seed, "random seed for the split, folds and downsampling")
	papersCmd.Flags().String("out", "", "output directory (default: out_dir config key)")
	papersCmd.Flags().Bool("offline", false, "serve datasets from the cache only")

	rootCmd.AddCommand(papersCmd)
}

func runPapers(cmd *cobra.Command, args []string) error {
	cfg := analysis.DefaultPapersConfig()
	cfg.MaxTokens, _ = cmd.Flags().GetInt("max-tokens")
	cfg.Folds, _ = cmd.Flags().GetInt("folds")
	cfg.PenaltyLevels, _ = cmd.Flags().GetInt("levels")
	cfg.Seed, _ = cmd.Flags().GetInt64("seed")
	cfg.OutDir = outDir(cmd)

	offline, _ := cmd.Flags().GetBool("offline")
	fetcher, cleanup, err := newFetcher(offline)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := analysis.NewPapers(cfg, fetcher).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("best penalty %.4g, held-out accuracy %.4f, macro AUC %.4f\n\n",
		result.BestPenalty, result.TestAccuracy, result.TestMacroAUC)
	fmt.Print(result.Confusion)
	fmt.Printf("\nreport: %s\n", result.ReportPath)
	return nil
}
