package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roolsbot/roolsbot/internal/sched"
	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/github"
	"github.com/roolsbot/roolsbot/pkg/scrape"
	"github.com/roolsbot/roolsbot/pkg/search"
)

var queryCmd = &cobra.Command{
	Use:   "query <search terms>",
	Short: "Run a one-shot search against all sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, _ := cmd.Flags().GetInt("amount")

		client := github.NewClient(viper.GetString("github.token"), utils.Log)
		cache := github.NewCache(client, sched.TimerScheduler{}, utils.Log)
		cache.SetRepository(viper.GetString("github.owner"), viper.GetString("github.repo"))
		fetcher := scrape.NewFetcher(client, utils.Log)
		service := search.NewService(fetcher, cache, utils.Log)

		ctx := context.Background()
		if err := service.Refresh(ctx); err != nil {
			return err
		}

		for _, result := range service.Search(ctx, strings.Join(args, " "), amount) {
			fmt.Printf("%s\n    %s\n", result.DisplayName(), result.Description())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().IntP("amount", "a", 10, "Maximum number of results to print")
}
