package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"R2FM/client"
	"R2FM/config"
	"R2FM/core/catalog"
	"R2FM/core/connectivity"
	"R2FM/core/offline"
	"R2FM/core/player"

	"github.com/spf13/cobra"
)

var playerCmd = &cobra.Command{
	Use:   "player",
	Short: "Run the interactive offline-capable player against a catalog service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()

		store, err := offline.Open(cfg.OfflineCachePath)
		if err != nil {
			return fmt.Errorf("open offline cache: %w", err)
		}
		defer store.Close()

		api := client.New(cfg.APIBaseURL)
		oracle := connectivity.NewOracle(false)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		probe := connectivity.NewProbe(statusSocketURL(cfg.APIBaseURL), oracle)
		go probe.Run(ctx)

		controller := catalog.NewController(api, store, oracle, cfg.PageSize)
		defer controller.Close()

		p := player.NewPlayer(player.NewResolver(store, oracle, api))
		defer p.Stop()

		return runPlayerLoop(ctx, controller, p, oracle)
	},
}

// statusSocketURL derives the ws:// status endpoint from the API base URL.
func statusSocketURL(baseURL string) string {
	return strings.Replace(baseURL, "http", "ws", 1) + "/api/ws/status"
}

func runPlayerLoop(ctx context.Context, controller *catalog.Controller, p *player.Player, oracle *connectivity.Oracle) error {
	fmt.Println("commands: list | more | play <n> | stop | status | quit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "list":
			for i, song := range controller.Songs() {
				fmt.Printf("%3d. %s - %s\n", i+1, song.Artist, song.Title)
			}
		case "more":
			if err := controller.LoadMore(ctx); err != nil {
				fmt.Println("load failed:", err)
			} else if !controller.HasMore() {
				fmt.Println("end of catalog")
			}
		case "play":
			if len(fields) != 2 {
				fmt.Println("usage: play <n>")
				continue
			}
			n, err := strconv.Atoi(fields[1])
			songs := controller.Songs()
			if err != nil || n < 1 || n > len(songs) {
				fmt.Println("no such entry")
				continue
			}
			handle, err := p.Play(ctx, songs[n-1])
			if err != nil {
				fmt.Println("playback failed:", err)
				continue
			}
			fmt.Println("playing from", handle.Path())
		case "stop":
			if err := p.Stop(); err != nil {
				fmt.Println("stop failed:", err)
			}
		case "status":
			fmt.Printf("online=%v hasMore=%v songs=%d\n",
				oracle.IsOnline(), controller.HasMore(), len(controller.Songs()))
		case "quit":
			return nil
		default:
			fmt.Println("unknown command:", fields[0])
		}
	}
}

func init() {
	rootCmd.AddCommand(playerCmd)
}
