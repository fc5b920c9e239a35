package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"courtparser-engine/internal/scrape/sudact"
)

var (
	sudactQuery string
	sudactBase  string
)

var sudactCmd = &cobra.Command{
	Use:   "sudact --query <text>",
	Short: "Runs one sudact.ru Supreme Court search and prints the cases.",
	RunE: func(cmd *cobra.Command, args []string) error {
		loadEnv()
		s := sudact.New(sudact.Config{BaseURL: sudactBase, Query: sudactQuery})
		cases, err := s.Search(cmd.Context(), sudactQuery)
		if err != nil {
			return err
		}
		for _, c := range cases {
			fmt.Printf("%s | %s | %s\n  %s\n", c.CaseNumber, c.CourtType, c.Subject, c.Link)
		}
		fmt.Printf("%d cases\n", len(cases))
		return nil
	},
}

func init() {
	sudactCmd.Flags().StringVar(&sudactQuery, "query", "", "Search text")
	sudactCmd.Flags().StringVar(&sudactBase, "base-url", sudact.DefaultBaseURL, "sudact.ru base URL")
	_ = sudactCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(sudactCmd)
}
