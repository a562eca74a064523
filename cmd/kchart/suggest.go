package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdy7080/kpop-ranker-sub000/internal/app"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
	"github.com/pdy7080/kpop-ranker-sub000/internal/suggest"
)

func cmdSuggest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Read successive query states from stdin and print debounced suggestions",
		Long: "Each input line is treated as the current content of the search box. " +
			"Lines arriving within the debounce delay of each other collapse into one lookup.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			delay, _ := cmd.Flags().GetDuration("delay")
			wait, _ := cmd.Flags().GetDuration("wait")

			return withApp(cmd.Context(), func(a *app.App) error {
				if !cmd.Flags().Changed("delay") {
					delay = a.Config.SuggestDebounce
				}
				return runSuggest(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), a.Suggest.GetSuggestions, delay, wait)
			})
		},
	}

	cmd.Flags().Duration("delay", suggest.DefaultDebounce, "Debounce delay (defaults to SUGGEST_DEBOUNCE)")
	cmd.Flags().Duration("wait", 30*time.Second, "How long to wait for the last lookup after input ends")
	return cmd
}

func runSuggest(ctx context.Context, in io.Reader, out io.Writer, fetch suggest.FetchFunc, delay, wait time.Duration) error {
	var (
		mu      sync.Mutex
		printed atomic.Uint64
	)
	debouncer := suggest.NewDebouncer(delay, fetch, func(r suggest.Result) {
		mu.Lock()
		defer mu.Unlock()
		printSuggestions(out, r)
		printed.Store(r.Seq)
	})
	defer debouncer.Stop()

	var last uint64
	lines := bufio.NewScanner(in)
	for lines.Scan() {
		last = debouncer.Submit(ctx, lines.Text())
	}
	if err := lines.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if last == 0 {
		return nil
	}

	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	poll := time.NewTicker(10 * time.Millisecond)
	defer poll.Stop()
	for printed.Load() < last {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("timed out waiting for suggestions")
		case <-poll.C:
		}
	}
	return nil
}

func printSuggestions(out io.Writer, r suggest.Result) {
	fmt.Fprintf(out, "# %q (%d)\n", r.Query, len(r.Suggestions))
	for _, s := range r.Suggestions {
		if s.Kind == models.KindArtist {
			fmt.Fprintf(out, "%4d  artist  %s\n", s.Score, s.Display)
			continue
		}
		fmt.Fprintf(out, "%4d  track   %s\n", s.Score, s.Display)
	}
}
