// Command phdfits analyzes ESA test bench output: detector exposures,
// accumulated count maps, and pulse-height spectra, all named by the
// bench's filename schemes.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guygrubbs/phd-fits/internal/catalog"
	"github.com/guygrubbs/phd-fits/internal/config"
	"github.com/guygrubbs/phd-fits/internal/version"
)

var (
	// Global flags
	cfgPath string
	dataDir string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "phdfits",
	Short: "ESA test bench data analysis",
	Long: `phdfits catalogs the files an ESA test bench produces, parses the
experimental parameters encoded in their names, and runs the standard
analysis passes over them: comparison suites, impact region detection,
k-factor estimation, resolution surveys, and integrated rate maps.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}
		if dataDir != "" {
			cfg.Paths.DataDir = dataDir
		}
		if verbose {
			cfg.Logging.Level = "debug"
		}
		if cfg.Logging.File == "" && cfg.Paths.LogDir != "" {
			cfg.Logging.File = filepath.Join(cfg.Paths.LogDir, "phdfits.log")
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger, err = cfg.Logging.BuildLogger()
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "phdfits.yaml", "Config file path")
	rootCmd.PersistentFlags().StringVarP(&dataDir, "data", "d", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Emit the catalog as JSON")
	scanCmd.Flags().StringVar(&scanSave, "save", "", "Export the catalog to a JSON file")

	groupsCmd.Flags().StringSliceVar(&groupsBy, "by", []string{"test_type"}, "Parameter names to group by")
	groupsCmd.Flags().IntVar(&groupsMin, "min", 0, "Minimum group size (default from config)")
	groupsCmd.Flags().BoolVar(&groupsJSON, "json", false, "Emit groups as JSON")

	compareCmd.Flags().BoolVar(&compareList, "list", false, "List comparison opportunities without running them")
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Emit outcomes as JSON")

	regionsCmd.Flags().BoolVar(&regionsJSON, "json", false, "Emit regions as JSON")

	kfactorCmd.Flags().BoolVar(&kfactorJSON, "json", false, "Emit the estimate as JSON")

	ratemapCmd.Flags().BoolVar(&ratemapJSON, "json", false, "Emit the map summary as JSON")
	ratemapCmd.Flags().StringVar(&ratemapSave, "save", "", "Write the integrated grid to a text file")

	resolutionCmd.Flags().IntVar(&resolutionMin, "min-voltages", 0, "Minimum distinct voltages per sweep (default 3)")
	resolutionCmd.Flags().BoolVar(&resolutionJSON, "json", false, "Emit series as JSON")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(groupsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(regionsCmd)
	rootCmd.AddCommand(kfactorCmd)
	rootCmd.AddCommand(ratemapCmd)
	rootCmd.AddCommand(resolutionCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// scanCatalog discovers the configured data directory.
func scanCatalog(cmd *cobra.Command) (*catalog.Catalog, error) {
	c := catalog.New(cfg.Paths.DataDir, logger)
	if _, err := c.Discover(cmd.Context()); err != nil {
		return nil, err
	}
	return c, nil
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// resultPath places bare filenames in the configured results directory;
// paths with a directory component are used as given.
func resultPath(p string) (string, error) {
	if filepath.Dir(p) == "." {
		p = filepath.Join(cfg.Paths.ResultsDir, p)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	return p, nil
}
