// Package main is the entry point for the tidylearn CLI. It wraps the
// employment clustering and paper classification studies, dataset
// acquisition and the snapshot cache behind cobra subcommands.
package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/HayesJohnD/juliasilge/dataset"
	"github.com/HayesJohnD/juliasilge/pkg/errors"
	"github.com/HayesJohnD/juliasilge/pkg/log"
)

// version is set at build time via ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "tidylearn",
	Short: "Cluster and classify TidyTuesday datasets",
	Long: `tidylearn reproduces two modeling studies over public TidyTuesday data:
k-means clustering of US employment demographics by occupation, and
multiclass lasso classification of NBER working papers from their
titles. Each study writes tidy result tables, charts and a Markdown
report. Datasets are cached locally so repeated runs work offline.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := viper.GetString("log_level")
		switch level {
		case "debug", "info", "warn", "error":
		default:
			return errors.NewValidationError("log_level", "must be debug, info, warn or error", level)
		}
		log.SetupLogger(level)
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./tidylearn.yaml or ~/.config/tidylearn/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("tidylearn")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "tidylearn"))
		}
	}

	viper.SetDefault("cache_dir", defaultCacheDir())
	viper.SetDefault("out_dir", "out")
	viper.SetDefault("http_timeout", 30*time.Second)
	viper.SetDefault("user_agent", "")
	viper.SetDefault("log_level", "info")

	viper.SetEnvPrefix("TIDYLEARN")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func defaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil {
		return ".tidylearn"
	}
	return filepath.Join(base, "tidylearn")
}

// openCache opens the snapshot database under the configured cache
// directory.
func openCache() (*dataset.Cache, error) {
	return dataset.OpenCache(filepath.Join(viper.GetString("cache_dir"), "snapshots.db"))
}

// offlineTransport fails every request, so only cached snapshots resolve.
type offlineTransport struct{}

func (offlineTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return nil, errors.Newf("offline mode, not cached: %s", req.URL)
}

// clientOptions builds the fetcher options every command shares: the HTTP
// client with the configured timeout and the configured user agent.
func clientOptions(offline bool) []dataset.FetcherOption {
	client := &http.Client{Timeout: viper.GetDuration("http_timeout")}
	if offline {
		client.Transport = offlineTransport{}
	}
	opts := []dataset.FetcherOption{dataset.WithHTTPClient(client)}
	if ua := viper.GetString("user_agent"); ua != "" {
		opts = append(opts, dataset.WithUserAgent(ua))
	}
	return opts
}

// newFetcher wires a fetcher to the snapshot cache. The caller must call
// the returned cleanup once done.
func newFetcher(offline bool) (*dataset.Fetcher, func(), error) {
	cache, err := openCache()
	if err != nil {
		return nil, nil, err
	}
	opts := append(clientOptions(offline), dataset.WithCache(cache))
	return dataset.NewFetcher(opts...), func() { cache.Close() }, nil
}

// outDir resolves the output directory: the --out flag when given, the
// out_dir config key otherwise.
func outDir(cmd *cobra.Command) string {
	if out, _ := cmd.Flags().GetString("out"); out != "" {
		return out
	}
	return viper.GetString("out_dir")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
