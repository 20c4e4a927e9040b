package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vannyda/melo/internal/download"
	"github.com/vannyda/melo/internal/ytdlp"
)

var downloadCmd = &cobra.Command{
	Use:   "download <query>",
	Short: "Download a song to the local library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDownload,
}

var downloadsCmd = &cobra.Command{
	Use:   "downloads",
	Short: "List downloaded songs",
	RunE: func(cmd *cobra.Command, args []string) error {
		songs, err := download.New(newYtdlp(), cfg.DownloadDir).List()
		if err != nil {
			return err
		}
		for i, s := range songs {
			fmt.Printf("%2d. %s - %s\n", i+1, s.Title, s.Artist)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(downloadsCmd)
}

func runDownload(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	ctx := context.Background()

	songs := newProvider().Search(ctx, query, "").Songs
	if len(songs) == 0 {
		return fmt.Errorf("no results for %q", query)
	}
	target := songs[0]
	fmt.Printf("Downloading %s - %s\n", target.Title, target.Artist)

	mgr := download.New(newYtdlp(), cfg.DownloadDir)
	path, err := mgr.Download(ctx, target, func(p ytdlp.Progress) {
		if p.Percent != "" {
			fmt.Printf("\r  %s ", p.Percent)
		}
	})
	if err != nil {
		return err
	}
	fmt.Printf("\nSaved to %s\n", path)
	return nil
}
