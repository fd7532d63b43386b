package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/guygrubbs/phd-fits/internal/catalog"
)

var (
	groupsBy   []string
	groupsMin  int
	groupsJSON bool
)

var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Group files by parameter values",
	Long: `Partitions the catalog by one or more parameter names. With several
names the group key is their combination; files missing a parameter group
under "None" for it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := scanCatalog(cmd)
		if err != nil {
			return err
		}

		minSize := groupsMin
		if minSize <= 0 {
			minSize = cfg.Analysis.MinGroupSize
		}

		var groups []catalog.Group
		if len(groupsBy) == 1 {
			groups = c.GroupByParameter(groupsBy[0], minSize)
		} else {
			groups = c.GroupByParameters(groupsBy, minSize)
		}

		if groupsJSON {
			return printJSON(groups)
		}

		if len(groups) == 0 {
			fmt.Println("No groups found")
			return nil
		}
		for _, g := range groups {
			fmt.Printf("%s (%d files)\n", g.Name, len(g.Files))
			fmt.Printf("  %s\n", g.Description)
			for _, f := range g.Files {
				fmt.Printf("    %s\n", f.Base())
			}
		}
		return nil
	},
}
