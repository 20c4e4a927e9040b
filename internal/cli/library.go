package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vannyda/melo/internal/library"
)

var libraryCmd = &cobra.Command{
	Use:   "library",
	Short: "Inspect the saved music library",
}

var libraryFavoritesCmd = &cobra.Command{
	Use:   "favorites",
	Short: "List favorited songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *library.Store) error {
			songs, err := store.Favorites()
			if err != nil {
				return err
			}
			for i, s := range songs {
				fmt.Printf("%2d. %s - %s\n", i+1, s.Title, s.Artist)
			}
			return nil
		})
	},
}

var libraryRecentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently played songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *library.Store) error {
			songs, err := store.RecentPlays()
			if err != nil {
				return err
			}
			for i, s := range songs {
				fmt.Printf("%2d. %s - %s\n", i+1, s.Title, s.Artist)
			}
			return nil
		})
	},
}

var libraryPlaylistsCmd = &cobra.Command{
	Use:   "playlists",
	Short: "List playlists and their songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store *library.Store) error {
			playlists, err := store.Playlists()
			if err != nil {
				return err
			}
			for _, p := range playlists {
				fmt.Printf("%s (%d songs)\n", p.Name, len(p.Songs))
				for _, s := range p.Songs {
					fmt.Printf("    %s - %s\n", s.Title, s.Artist)
				}
			}
			return nil
		})
	},
}

func init() {
	libraryCmd.AddCommand(libraryFavoritesCmd)
	libraryCmd.AddCommand(libraryRecentCmd)
	libraryCmd.AddCommand(libraryPlaylistsCmd)
	rootCmd.AddCommand(libraryCmd)
}

func withStore(fn func(*library.Store) error) error {
	store, err := library.Open()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}
