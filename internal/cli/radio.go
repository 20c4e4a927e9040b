package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vannyda/melo/internal/radio"
)

var (
	radioCountry string
	radioLimit   int
	radioPlay    bool
)

var radioCmd = &cobra.Command{
	Use:   "radio [query]",
	Short: "Browse and play internet radio stations",
	Long: `List popular stations, filter by country, or search by name and
tag. With --play the first match starts playing.`,
	RunE: runRadio,
}

func init() {
	radioCmd.Flags().StringVar(&radioCountry, "country", "", "ISO country code filter")
	radioCmd.Flags().IntVar(&radioLimit, "limit", 20, "maximum stations to list")
	radioCmd.Flags().BoolVar(&radioPlay, "play", false, "play the first station")
	rootCmd.AddCommand(radioCmd)
}

func runRadio(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	client := radio.New()

	var stations []radio.Station
	var err error
	switch {
	case len(args) > 0:
		stations, err = client.Search(ctx, strings.Join(args, " "), radioLimit)
	case radioCountry != "":
		stations, err = client.ByCountry(ctx, radioCountry, radioLimit)
	default:
		stations, err = client.Top(ctx, radioLimit)
	}
	if err != nil {
		return err
	}
	if len(stations) == 0 {
		return fmt.Errorf("no stations found")
	}

	if radioPlay {
		return playSongs(stations[0].Song(), nil, nil, nil)
	}

	for i, st := range stations {
		fmt.Printf("%2d. %s (%s)\n", i+1, st.Name, st.Country)
	}
	return nil
}
