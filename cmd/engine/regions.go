package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"courtparser-engine/internal/regions"
)

var regionsCmd = &cobra.Command{
	Use:   "regions [name]...",
	Short: "Shows how region names resolve to federal districts.",
	Run: func(cmd *cobra.Command, args []string) {
		tbl := regions.Default()
		if len(args) == 0 {
			for _, d := range tbl.Districts() {
				fmt.Printf("%s (%s)\n", d.Name, d.Abbr)
				for _, r := range d.Regions {
					fmt.Printf("  %s\n", r)
				}
			}
			return
		}
		for _, a := range args {
			fmt.Printf("%s -> %s [%s]\n", a, tbl.Canonical(a), tbl.Resolve(a))
		}
		fmt.Println()
		for _, g := range tbl.Groups(args) {
			fmt.Printf("%s: %s\n", g.District, strings.Join(g.Regions, ", "))
		}
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
