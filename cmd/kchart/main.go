// Command kchart is the operator CLI for the chart service: it resolves
// queries, streams debounced suggestions, builds the trending snapshot and
// lists duplicate candidates.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pdy7080/kpop-ranker-sub000/internal/app"
	"github.com/pdy7080/kpop-ranker-sub000/internal/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "kchart",
		Short:        "K-POP chart service operator tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()

			level := slog.LevelWarn
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				level = slog.LevelDebug
			}
			// stdout carries command output
			slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

			if backendURL, _ := cmd.Flags().GetString("backend"); backendURL != "" {
				return os.Setenv("BACKEND_URL", backendURL)
			}
			return nil
		},
	}

	cmd.PersistentFlags().String("backend", "", "Chart backend base URL (overrides BACKEND_URL)")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output to stderr")

	cmd.AddCommand(cmdResolve(), cmdSuggest(), cmdSnapshot(), cmdDedup())
	return cmd
}

// withApp loads configuration and runs fn against the wired services
func withApp(ctx context.Context, fn func(*app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())
	return fn(a)
}
