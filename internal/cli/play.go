package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vannyda/melo/internal/library"
	"github.com/vannyda/melo/internal/playback"
	"github.com/vannyda/melo/internal/player"
	"github.com/vannyda/melo/internal/player/embed"
	"github.com/vannyda/melo/internal/song"
	"github.com/vannyda/melo/internal/sponsorblock"
)

var (
	playEmbed  bool
	playVolume float64
)

var playCmd = &cobra.Command{
	Use:   "play <query>",
	Short: "Search and play a song",
	Long: `Search for a song and play the first match. Playback continues
with queued songs, then related songs, until interrupted.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playEmbed, "embed", false, "play through the embedded web player")
	playCmd.Flags().Float64Var(&playVolume, "volume", 1.0, "volume level (0.0 to 1.0)")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	prov := newProvider()
	songs := prov.Search(context.Background(), query, "").Songs
	if len(songs) == 0 {
		return fmt.Errorf("no results for %q", query)
	}

	return playSongs(songs[0], songs[1:], prov, prov.Exhausted())
}

// playSongs runs an engine on the first song with the rest queued, until
// the user interrupts or playback errors out. A nil exhausted channel is
// simply never selected.
func playSongs(first song.Song, rest []song.Song, related playback.RelatedSource, exhausted <-chan struct{}) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	native := player.NewNative()
	defer native.Close()

	opts := playback.Options{
		Native:        native,
		Desktop:       !playEmbed,
		Resolver:      newResolver(),
		Segments:      sponsorblock.New(),
		Related:       related,
		AudioRelayURL: cfg.AudioRelayURL,
	}

	if playEmbed {
		host := embed.NewHost(cfg.EmbedAddr)
		go func() {
			if err := host.Start(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "embed host: %v\n", err)
			}
		}()
		fmt.Printf("Open %s in a browser to enable the embedded player\n", host.URL())
		opts.Embed = embed.NewBackend(host)
	}

	if store, err := library.Open(); err == nil {
		defer store.Close()
		opts.Log = store
	}

	engine := playback.New(opts)
	defer engine.Close()

	sub := engine.Subscribe()
	engine.SetVolume(playVolume)

	for _, s := range rest {
		engine.AddToQueue(s)
	}
	engine.PlaySong(first)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-sig:
			fmt.Println()
			return nil
		case <-exhausted:
			fmt.Fprintln(os.Stderr, "\nAPI quota exhausted; search and related songs are degraded")
			exhausted = nil
		case ev := <-sub.SongChanged:
			if ev.Current != nil {
				fmt.Printf("\n♪ %s - %s\n", ev.Current.Title, ev.Current.Artist)
			}
		case ev := <-sub.Progressed:
			printProgress(ev.Position, ev.Duration)
		case ev := <-sub.Error:
			fmt.Fprintf(os.Stderr, "\n%s\n", ev.Message)
			return nil
		case <-sub.Done:
			return nil
		}
	}
}

func printProgress(pos, dur time.Duration) {
	if dur > 0 {
		fmt.Printf("\r  %s / %s ", fmtDuration(pos), fmtDuration(dur))
	} else {
		fmt.Printf("\r  %s (live) ", fmtDuration(pos))
	}
}

func fmtDuration(d time.Duration) string {
	d = d.Round(time.Second)
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
