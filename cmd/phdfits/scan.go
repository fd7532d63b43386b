package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var (
	scanJSON bool
	scanSave string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Discover and summarize the data directory",
	Long: `Scans the data directory for bench output files, parses the parameters
encoded in each filename, and prints a catalog summary.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		if scanSave != "" {
			path, err := resultPath(scanSave)
			if err != nil {
				return err
			}
			if err := c.Save(path); err != nil {
				return err
			}
			fmt.Printf("Catalog written to %s\n", path)
		}

		if scanJSON {
			return printJSON(c.Files())
		}

		s := c.Summarize()
		fmt.Printf("Data directory: %s\n", cfg.Paths.DataDir)
		fmt.Printf("Total files: %d\n", s.TotalFiles)

		fmt.Println("\nBy file type:")
		for _, kind := range sortedCountKeys(s.ByKind) {
			fmt.Printf("  %-10s %d\n", kind, s.ByKind[kind])
		}
		fmt.Println("\nBy test type:")
		for _, tt := range sortedCountKeys(s.ByTestType) {
			fmt.Printf("  %-14s %d\n", tt, s.ByTestType[tt])
		}

		if len(s.BeamEnergies) > 0 {
			fmt.Printf("\nBeam energies (eV): %v\n", s.BeamEnergies)
		}
		if len(s.ESAVoltages) > 0 {
			fmt.Printf("ESA voltages (V): %v\n", s.ESAVoltages)
		}
		if len(s.Timestamps) > 0 {
			first := s.Timestamps[0]
			last := s.Timestamps[len(s.Timestamps)-1]
			fmt.Printf("Time span: %s to %s\n",
				first.Format("2006-01-02 15:04:05"), last.Format("2006-01-02 15:04:05"))
		}

		var withErrors int
		for _, f := range c.Files() {
			if f.HasErrors() {
				withErrors++
			}
		}
		if withErrors > 0 {
			fmt.Printf("\nFiles with problems: %d (see log)\n", withErrors)
		}
		return nil
	},
}

func sortedCountKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
