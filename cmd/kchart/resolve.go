package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdy7080/kpop-ranker-sub000/internal/app"
)

func cmdResolve() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <query>",
		Short: "Print the page a submitted query navigates to",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return withApp(cmd.Context(), func(a *app.App) error {
				route := a.Route.Resolve(cmd.Context(), query)
				out := cmd.OutOrStdout()
				if !route.Navigates() {
					fmt.Fprintln(out, route.Notice)
					return nil
				}
				fmt.Fprintf(out, "%s\t%s\n", route.Kind, route.Path())
				return nil
			})
		},
	}
}
