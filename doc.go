// Package juliasilge reproduces two tidymodels-style screencasts as Go
// pipelines: k-means clustering of US employment demographics by
// occupation, and multiclass lasso classification of NBER working
// papers from their titles.
//
// The module splits into a data layer, a modeling layer and the studies
// that tie them together.
//
// # Quick Start
//
// Cluster a feature matrix and read the results as tidy tables:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/HayesJohnD/juliasilge/cluster"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 2, []float64{
//	        0.1, 0.2, 0.2, 0.1, 0.0, 0.3,
//	        5.1, 5.0, 5.2, 4.9, 5.0, 5.1,
//	    })
//
//	    km := cluster.NewKMeans(
//	        cluster.WithNClusters(2),
//	        cluster.WithRandomState(42),
//	    )
//	    if err := km.Fit(X, nil); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    tidy, err := km.Tidy("x", "y")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Print(tidy)
//	}
//
// # Packages
//
//   - dataset: CSV tables with dplyr-style verbs, a dataset manifest,
//     an HTTP fetcher and a SQLite snapshot cache
//   - cluster: k-means with tidy, glance and augment summaries plus an
//     elbow sweep
//   - linear: multiclass lasso logistic regression with a tidy
//     coefficient table
//   - feature: tokenization, stopword filtering and tf-idf
//   - preprocessing: label encoding, standardization, downsampling
//   - resample: train/test split, k-fold and stratified k-fold
//   - tune: penalty grid search over resampling folds
//   - metrics: accuracy, confusion matrix, ROC and AUC, silhouette
//   - viz: chart rendering for every study output
//   - analysis: the two end-to-end studies with Markdown reports
//   - cmd/tidylearn: the CLI wrapping fetching, caching and both studies
//
// The studies run from the command line:
//
//	tidylearn fetch
//	tidylearn employment
//	tidylearn papers --folds 10
//
// Every stochastic step takes a seed, so runs are reproducible end to
// end.
package juliasilge
