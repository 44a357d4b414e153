package commands

import (
	"context"

	"grocery/scraper/internal/container"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "Stores the subcategories of every grocery category.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *container.Container) error {
			log.Info("Starting category crawl...")
			return app.Service.CrawlCategories(ctx)
		})
	},
}

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "Stores the products of every pending subcategory.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *container.Container) error {
			log.Info("Starting product crawl...")
			return app.Service.CrawlProducts(ctx)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [--keyword <keyword>]",
	Short: "Stores the products of every search results page for a keyword.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *container.Container) error {
			keyword := app.Config.Scraper.SearchKeyword
			log.Infof("Starting search crawl for %q...", keyword)
			return app.Service.CrawlSearch(ctx, keyword)
		})
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Replays products that failed in earlier runs. Requires Redis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, func(ctx context.Context, app *container.Container) error {
			log.Info("Draining retry queue...")
			return app.Service.RetryFailed(ctx)
		})
	},
}

func init() {
	searchCmd.Flags().String("keyword", "", "Search keyword (default scraper.search_keyword)")
	if err := viper.BindPFlag("scraper.search_keyword", searchCmd.Flags().Lookup("keyword")); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(categoriesCmd, productsCmd, searchCmd, retryCmd)
}
