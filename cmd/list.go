package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Zachdehooge/pothole-dashboard/internal/aggregator"
	"github.com/Zachdehooge/pothole-dashboard/internal/dashboard"
	"github.com/Zachdehooge/pothole-dashboard/internal/generator"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	headingColor = color.New(color.FgCyan, color.Bold)
	countColor   = color.New(color.FgYellow)
)

// addListCmd adds a 'list' subcommand that prints the ranking without writing files
func addListCmd(rootCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the streets and intersections with the most open potholes",
		Run: func(cmd *cobra.Command, args []string) {
			a, err := setup(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			report, err := a.dash.Rank(withRunID(cmd.Context()))
			if err != nil {
				cmd.PrintErrln(fmt.Errorf("failed to rank potholes: %w", err))
				os.Exit(1)
			}

			printRanking(cmd.OutOrStdout(), report)
		},
	}

	rootCmd.AddCommand(listCmd)
}

// addCategoriesCmd adds a 'categories' subcommand to help fix a stale $where filter
func addCategoriesCmd(rootCmd *cobra.Command) {
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List the issue sub-categories known to the portal",
		Run: func(cmd *cobra.Command, args []string) {
			a, err := setup(cmd)
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			categories, err := a.source.FetchCategories(withRunID(cmd.Context()))
			if err != nil {
				cmd.PrintErrln(err)
				os.Exit(1)
			}

			if len(categories) == 0 {
				cmd.Println("No categories returned.")
				return
			}
			for _, c := range categories {
				cmd.Println(c)
			}
		},
	}

	rootCmd.AddCommand(categoriesCmd)
}

func printRanking(w io.Writer, report *dashboard.Report) {
	_, _ = headingColor.Fprintf(w, "Active Potholes: %d\n", report.Total)

	printSection(w, "Streets with Most Potholes", report.Ranking.Streets)
	if len(report.Ranking.Intersections) > 0 {
		printSection(w, "Top Intersections", report.Ranking.Intersections)
	}
}

func printSection(w io.Writer, title string, entries []aggregator.RankedEntry) {
	_, _ = fmt.Fprintln(w)
	_, _ = headingColor.Fprintln(w, title)
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "  none")
		return
	}
	for i, e := range entries {
		_, _ = fmt.Fprintf(w, "%3d. %-40s %s\n", i+1, generator.DisplayName(e.Name), countColor.Sprint(e.Count))
	}
}
