package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/lendbook/internal/config"
	"github.com/jon4hz/lendbook/internal/database"
	"github.com/jon4hz/lendbook/internal/web"
	"github.com/spf13/cobra"
)

const recentEventCount = 5

var dbStatsCmd = &cobra.Command{
	Use:   "db-stats",
	Short: "Show database statistics",
	Long:  `Display statistics about the catalog, the members and the most recent loan events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(rootCmdPersistentFlags.ConfigFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.GetCatalogStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Total Books: %s\n", humanize.Comma(stats.TotalBooks))
		fmt.Printf("Borrowed Books: %s\n", humanize.Comma(stats.BorrowedBooks))
		fmt.Printf("Available Books: %s\n", humanize.Comma(stats.AvailableBooks))
		fmt.Printf("Total Users: %s\n", humanize.Comma(stats.TotalUsers))
		fmt.Printf("Admin Users: %s\n", humanize.Comma(stats.AdminUsers))

		events, total, err := db.GetHistoryEvents(cmd.Context(), 1, recentEventCount)
		if err == nil && len(events) > 0 {
			fmt.Printf("\nRecent Events (%s total):\n", humanize.Comma(total))
			for _, event := range events {
				fmt.Printf("  %s: %s, Book: %q, User: %q\n",
					web.FormatRelativeTime(event.EventTime), web.FormatEventType(string(event.EventType)), event.BookTitle, event.Username)
			}
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbStatsCmd)
}
