package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roolsbot/roolsbot/internal/bot"
	"github.com/roolsbot/roolsbot/internal/sched"
	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/github"
	"github.com/roolsbot/roolsbot/pkg/scrape"
	"github.com/roolsbot/roolsbot/pkg/search"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot console with the background issue poller",
	Long: `Starts the GitHub issue poller and the daily source refresh, then reads
messages from stdin: "/tag ..." runs a command, "?query" runs an inline-style
search, anything else is scanned for issue/commit references.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := github.NewClient(viper.GetString("github.token"), utils.Log)
		cache := github.NewCache(client, sched.TimerScheduler{}, utils.Log)
		cache.SetRepository(viper.GetString("github.owner"), viper.GetString("github.repo"))
		fetcher := scrape.NewFetcher(client, utils.Log)
		service := search.NewService(fetcher, cache, utils.Log)
		b := bot.New(service, cache, viper.GetString("bot.name"), utils.Log)

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		cache.Start(ctx)
		if err := service.Refresh(ctx); err != nil {
			utils.Log.Warnf("Initial source refresh failed, starting with empty collections: %v", err)
		}

		fmt.Println("Ready. Ctrl-D exits.")
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if ctx.Err() != nil {
				break
			}
			handleLine(ctx, b, scanner.Text())
		}
		return scanner.Err()
	},
}

func handleLine(ctx context.Context, b *bot.Bot, line string) {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
	case strings.HasPrefix(line, "?"):
		for _, result := range b.HandleInlineQuery(ctx, strings.TrimPrefix(line, "?")) {
			fmt.Printf("%s — %s\n%s\n", result.Title, result.Description, result.MessageText)
		}
	case strings.HasPrefix(line, "/"):
		name, query, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
		text, _, err := b.HandleCommand(ctx, name, query)
		if err != nil {
			fmt.Println(err)
			return
		}
		fmt.Println(text)
	default:
		for _, reply := range b.HandleFreeText(ctx, line) {
			fmt.Println(reply)
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
