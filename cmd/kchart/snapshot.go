package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdy7080/kpop-ranker-sub000/internal/app"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/trending"
)

func cmdSnapshot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage the static trending snapshot",
	}
	cmd.AddCommand(cmdSnapshotBuild())
	return cmd
}

func cmdSnapshotBuild() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Write a snapshot from the live trending feed",
		Long: "Fetches the live trending feed and writes it as the static snapshot. " +
			"Album art already resolved in the existing snapshot is kept for tracks the feed returns without an image.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("out")
			limit, _ := cmd.Flags().GetInt("limit")
			fresh, _ := cmd.Flags().GetBool("fresh")

			return withApp(cmd.Context(), func(a *app.App) error {
				if out == "" {
					out = a.Config.SnapshotPath
				}
				if limit <= 0 {
					limit = a.Config.TrendingLimit
				}

				var previous *models.Snapshot
				if !fresh {
					snap, err := trending.ReadSnapshot(out)
					switch {
					case err == nil:
						previous = snap
					case errors.Is(err, fs.ErrNotExist):
					default:
						slog.Warn("Ignoring unreadable previous snapshot", "path", out, "error", err)
					}
				}

				live, err := a.Backend.Trending(cmd.Context(), limit)
				if err != nil {
					return fmt.Errorf("failed to fetch live trending feed: %w", err)
				}
				if len(live) == 0 {
					return fmt.Errorf("live trending feed is empty; keeping %s", out)
				}

				snap := trending.BuildSnapshot(previous, live, "live", time.Now())
				if err := trending.WriteSnapshot(out, snap); err != nil {
					return err
				}

				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", out)
				fmt.Fprintf(cmd.OutOrStdout(), "Tracks: %d, with images: %d, charts: %d\n",
					snap.Stats.TotalTracks, snap.Stats.WithImages, snap.Stats.Charts)
				return nil
			})
		},
	}

	cmd.Flags().StringP("out", "o", "", "Snapshot path (defaults to SNAPSHOT_PATH)")
	cmd.Flags().Int("limit", 0, "Number of tracks to fetch (defaults to TRENDING_LIMIT)")
	cmd.Flags().Bool("fresh", false, "Do not carry images over from the existing snapshot")
	return cmd
}
