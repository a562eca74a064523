package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pdy7080/kpop-ranker-sub000/internal/app"
	"github.com/pdy7080/kpop-ranker-sub000/internal/models"
)

func cmdDedup() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dedup",
		Short: "Inspect duplicate candidate groups",
	}
	cmd.AddCommand(cmdDedupList())
	return cmd
}

func cmdDedupList() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print classified duplicate groups and their recommendations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			class, _ := cmd.Flags().GetString("class")
			asJSON, _ := cmd.Flags().GetBool("json")

			return withApp(cmd.Context(), func(a *app.App) error {
				groups, err := a.Dedup.Load(cmd.Context())
				if err != nil {
					return err
				}
				groups = filterGroups(groups, models.Classification(class))

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(groups)
				}
				return printGroups(cmd.OutOrStdout(), groups)
			})
		},
	}

	cmd.Flags().String("class", "", "Only show groups of this classification (clear, review, legitimate)")
	cmd.Flags().Bool("json", false, "Print groups as JSON")
	return cmd
}

func filterGroups(groups []models.DuplicateGroup, class models.Classification) []models.DuplicateGroup {
	if class == "" {
		return groups
	}
	out := make([]models.DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if g.Classification == class {
			out = append(out, g)
		}
	}
	return out
}

func printGroups(w io.Writer, groups []models.DuplicateGroup) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tCLASS\tARTIST\tTRACK\tMEMBERS\tRECOMMENDATION")
	for _, g := range groups {
		rec := "-"
		if g.Recommendation != nil {
			rec = fmt.Sprintf("merge %s into %s", strings.Join(g.Recommendation.SelectedIDs, ","), g.Recommendation.MasterID)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			g.GroupID, g.Classification, g.UnifiedArtist, g.UnifiedTrack, len(g.Members), rec)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d groups\n", len(groups))
	return nil
}
