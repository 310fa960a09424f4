package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/j-veylop/authquota/internal/config"
	"github.com/j-veylop/authquota/internal/db"
	"github.com/j-veylop/authquota/internal/models"
	"github.com/j-veylop/authquota/internal/ui/components"
)

const (
	historyChartWidth  = 60
	historyChartHeight = 10
)

var timeRanges = map[string]models.TimeRange{
	"24h": models.TimeRange24Hours,
	"7d":  models.TimeRange7Days,
	"30d": models.TimeRange30Days,
	"all": models.TimeRangeAllTime,
}

type historyOptions struct {
	dbPath    string
	timeRange string
	list      bool
}

func newHistoryCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history [AUTH GROUP]",
		Short: "Show recorded snapshots of one quota group",
		Long: `Plot the recorded remaining percentage of one quota group of one auth file.

Use --list to print every auth file and group with recorded history.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if opts.list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(2)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dbPath, "db", "", "history database path (default from configuration)")
	cmd.Flags().StringVarP(&opts.timeRange, "range", "r", "24h", "time range: 24h, 7d, 30d or all")
	cmd.Flags().BoolVarP(&opts.list, "list", "l", false, "list tracked groups")

	return cmd
}

func runHistory(cmd *cobra.Command, args []string, opts historyOptions) error {
	timeRange, ok := timeRanges[strings.ToLower(opts.timeRange)]
	if !ok {
		return fmt.Errorf("invalid range %q: use 24h, 7d, 30d or all", opts.timeRange)
	}

	path := opts.dbPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		path = cfg.DatabasePath
	}

	database, err := db.New(path)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close() }()

	w := cmd.OutOrStdout()
	if opts.list {
		return printTrackedGroups(w, database)
	}

	authName, groupID := args[0], args[1]
	snapshots, err := database.GetGroupHistory(authName, groupID, timeRange.Since(time.Now()))
	if err != nil {
		return err
	}

	printHistory(w, authName, groupID, timeRange, snapshots)
	return nil
}

func printTrackedGroups(w io.Writer, database *db.DB) error {
	groups, err := database.ListTrackedGroups()
	if err != nil {
		return err
	}
	if len(groups) == 0 {
		fmt.Fprintln(w, "No snapshots recorded yet.")
		return nil
	}

	byAuth := lo.GroupBy(groups, func(g db.TrackedGroup) string { return g.AuthName })
	for _, auth := range lo.Uniq(lo.Map(groups, func(g db.TrackedGroup, _ int) string { return g.AuthName })) {
		fmt.Fprintln(w, auth)
		for _, g := range byAuth[auth] {
			if g.Label != "" && g.Label != g.GroupID {
				fmt.Fprintf(w, "  %s (%s)\n", g.GroupID, g.Label)
			} else {
				fmt.Fprintf(w, "  %s\n", g.GroupID)
			}
		}
	}
	return nil
}

func printHistory(w io.Writer, authName, groupID string, timeRange models.TimeRange, snapshots []models.GroupSnapshot) {
	fmt.Fprintf(w, "%s / %s (%s)\n", authName, groupID, timeRange)

	stats := models.SummarizeHistory(authName, groupID, snapshots)
	if !stats.HasData() {
		fmt.Fprintln(w, "No snapshots recorded in this range.")
		return
	}

	caption := fmt.Sprintf("remaining %% over %d snapshots", stats.DataPoints)
	fmt.Fprintln(w, components.RenderPercentChart(models.Percentages(snapshots), historyChartWidth, historyChartHeight, caption))
	fmt.Fprintf(w, "current %.0f%%  min %.0f%%  max %.0f%%  avg %.0f%%\n",
		stats.Current*100, stats.Min*100, stats.Max*100, stats.Avg*100)
	if stats.Exhaustions > 0 {
		fmt.Fprintf(w, "exhausted %d times, last at %s\n",
			stats.Exhaustions, stats.LastExhaustedAt.Local().Format("2006-01-02 15:04"))
	}
}
