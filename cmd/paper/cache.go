package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Veraticus/the-paper-trail/internal/callcache"
	"github.com/Veraticus/the-paper-trail/internal/cli"
	"github.com/Veraticus/the-paper-trail/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the model and OCR call cache",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show cache location and size",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			path := config.DataPath(viper.GetString("cache.path"), "cache.json")
			store := callcache.Open(path, slog.Default())

			var size int64
			if info, err := os.Stat(path); err == nil {
				size = info.Size()
			}

			content := fmt.Sprintf("Path:    %s\nEntries: %d\nSize:    %s\nEnabled: %t",
				store.Path(), store.Len(), formatBytes(size), viper.GetBool("cache.enabled"))
			fmt.Println(cli.RenderBox(cli.FolderIcon+" Call cache", content))
			return nil
		},
	})

	return cmd
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
