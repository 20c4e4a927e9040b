package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchPageToken string

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search for songs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchPageToken, "page-token", "", "fetch the page identified by a previous search")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	page := newProvider().Search(context.Background(), query, searchPageToken)

	for i, s := range page.Songs {
		fmt.Printf("%2d. %s - %s  [%s]\n", i+1, s.Title, s.Artist, s.ID)
	}
	if page.NextPageToken != "" {
		fmt.Printf("\nnext page: --page-token %s\n", page.NextPageToken)
	}
	return nil
}
