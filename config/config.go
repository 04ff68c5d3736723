// Package config resolves run settings from defaults, an optional YAML
// file, LOOKUPBENCH_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/weiihann/lookupbench/harness"
	"github.com/weiihann/lookupbench/report"
)

// EnvPrefix is the prefix of every environment variable read.
const EnvPrefix = "LOOKUPBENCH"

// Keys understood by Load. Flags use the same names with dashes.
const (
	KeyElements      = "elements"
	KeyQueries       = "queries"
	KeyBlocks        = "blocks"
	KeySampleCap     = "sample_cap"
	KeySeed          = "seed"
	KeyProgressEvery = "progress_every"
	KeyOutDir        = "out_dir"
	KeyDBPath        = "db_path"
	KeyMetricsAddr   = "metrics_addr"
	KeyJSON          = "json"
	KeyAlpha         = "alpha"
	KeyHistogramBins = "histogram_bins"
)

// Config is the fully resolved configuration of one invocation.
type Config struct {
	Run harness.Config

	OutDir        string
	DBPath        string
	MetricsAddr   string
	JSON          bool
	Alpha         float64
	HistogramBins int
}

// Defaults reproduces the reference experiment: 7M elements, 4M
// queries in 4 blocks, 1000 representative samples.
func Defaults() Config {
	return Config{
		Run: harness.Config{
			Elements:      7_000_000,
			Queries:       4_000_000,
			Blocks:        4,
			SampleCap:     1000,
			ProgressEvery: 100_000,
		},
		OutDir:        "results",
		Alpha:         report.DefaultAlpha,
		HistogramBins: 20,
	}
}

// AddFlags registers one flag per key on flags, defaulting to Defaults.
func AddFlags(flags *pflag.FlagSet) {
	d := Defaults()

	flags.Int(flagName(KeyElements), d.Run.Elements,
		"Number of elements in both structures")
	flags.Int(flagName(KeyQueries), d.Run.Queries,
		"Total lookups per structure")
	flags.Int(flagName(KeyBlocks), d.Run.Blocks,
		"Number of equal blocks the queries are split into")
	flags.Int(flagName(KeySampleCap), d.Run.SampleCap,
		"Representative samples to keep")
	flags.Int64(flagName(KeySeed), d.Run.Seed,
		"Random seed (0 = use current time)")
	flags.Int(flagName(KeyProgressEvery), d.Run.ProgressEvery,
		"Log progress every N lookups within a block (0 = off)")
	flags.String(flagName(KeyOutDir), d.OutDir,
		"Directory for CSV and text outputs (empty = none)")
	flags.String(flagName(KeyDBPath), d.DBPath,
		"SQLite database recording run history (empty = none)")
	flags.String(flagName(KeyMetricsAddr), d.MetricsAddr,
		"Serve Prometheus metrics on this address during the run")
	flags.Bool(flagName(KeyJSON), d.JSON,
		"Output results as JSON instead of a table")
	flags.Float64(flagName(KeyAlpha), d.Alpha,
		"Significance level for the verdict")
	flags.Int(flagName(KeyHistogramBins), d.HistogramBins,
		"Bins per sample histogram (0 = no histograms)")
}

// Load resolves the configuration. cfgFile may be empty, in which case
// lookupbench.yaml in the working directory is used if present. flags may
// be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()

	d := Defaults()
	v.SetDefault(KeyElements, d.Run.Elements)
	v.SetDefault(KeyQueries, d.Run.Queries)
	v.SetDefault(KeyBlocks, d.Run.Blocks)
	v.SetDefault(KeySampleCap, d.Run.SampleCap)
	v.SetDefault(KeySeed, d.Run.Seed)
	v.SetDefault(KeyProgressEvery, d.Run.ProgressEvery)
	v.SetDefault(KeyOutDir, d.OutDir)
	v.SetDefault(KeyDBPath, d.DBPath)
	v.SetDefault(KeyMetricsAddr, d.MetricsAddr)
	v.SetDefault(KeyJSON, d.JSON)
	v.SetDefault(KeyAlpha, d.Alpha)
	v.SetDefault(KeyHistogramBins, d.HistogramBins)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName("lookupbench")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for _, key := range v.AllKeys() {
			f := flags.Lookup(flagName(key))
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, fmt.Errorf("bind flag %s: %w", f.Name, err)
			}
		}
	}

	cfg := Config{
		Run: harness.Config{
			Elements:      v.GetInt(KeyElements),
			Queries:       v.GetInt(KeyQueries),
			Blocks:        v.GetInt(KeyBlocks),
			SampleCap:     v.GetInt(KeySampleCap),
			Seed:          v.GetInt64(KeySeed),
			ProgressEvery: v.GetInt(KeyProgressEvery),
		},
		OutDir:        v.GetString(KeyOutDir),
		DBPath:        v.GetString(KeyDBPath),
		MetricsAddr:   v.GetString(KeyMetricsAddr),
		JSON:          v.GetBool(KeyJSON),
		Alpha:         v.GetFloat64(KeyAlpha),
		HistogramBins: v.GetInt(KeyHistogramBins),
	}

	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		return Config{}, fmt.Errorf("%w: alpha must be in (0, 1), got %v",
			harness.ErrInvalidConfiguration, cfg.Alpha)
	}
	if cfg.HistogramBins < 0 {
		return Config{}, fmt.Errorf("%w: histogram bins must be >= 0, got %d",
			harness.ErrInvalidConfiguration, cfg.HistogramBins)
	}

	return cfg, nil
}

func flagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}
