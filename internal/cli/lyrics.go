package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vannyda/melo/internal/lyrics"
	"github.com/vannyda/melo/internal/song"
)

var lyricsCmd = &cobra.Command{
	Use:   "lyrics <artist> <title>",
	Short: "Fetch lyrics for a song",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := lyrics.NewSource()
		result := src.Fetch(context.Background(), song.Song{Artist: args[0], Title: args[1]}, 0)
		if result.Err != nil {
			return result.Err
		}
		if result.Lyrics == nil {
			return fmt.Errorf("no lyrics found")
		}
		for _, line := range result.Lyrics.Lines {
			fmt.Println(line.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(lyricsCmd)
}
