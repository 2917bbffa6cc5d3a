package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"clipflow/internal/queue"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect processed clips",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueHealthCommand(ctx))

	return queueCmd
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracked clips, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := parseStatuses(listStatuses)
			if err != nil {
				return err
			}
			return ctx.withStore(func(store *queue.Store) error {
				clips, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				if len(clips) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No clips tracked")
					return nil
				}
				table := renderTable(
					[]string{"ID", "Clip", "Broadcaster", "Title", "Status", "Created", "Video"},
					buildClipRows(clips),
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (pending, processing, uploaded, failed)")
	return cmd
}

func newQueueHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show clip counts per status and the last poll",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				health, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				table := renderTable(
					[]string{"Status", "Count"},
					buildHealthRows(health),
					[]columnAlignment{alignLeft, alignRight},
				)
				fmt.Fprintln(out, table)

				run, err := store.LastJobRun(cmd.Context(), "poll")
				if err != nil {
					return err
				}
				if run == nil {
					fmt.Fprintln(out, "No polls recorded yet")
					return nil
				}
				fmt.Fprintf(out, "Last poll %s at %s: %d uploaded, %d failed\n",
					run.RunID, run.LastRun.Local().Format(time.RFC3339), run.SuccessCount, run.ErrorCount)
				if run.LastError != "" {
					fmt.Fprintf(out, "Last error: %s\n", run.LastError)
				}
				return nil
			})
		},
	}
}

func parseStatuses(values []string) ([]queue.Status, error) {
	statuses := make([]queue.Status, 0, len(values))
	for _, value := range values {
		status, ok := queue.ParseStatus(value)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", value)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func buildClipRows(clips []*queue.Clip) [][]string {
	rows := make([][]string, 0, len(clips))
	for _, clip := range clips {
		video := clip.TikTokURL
		if video == "" {
			video = clip.TikTokVideoID
		}
		if clip.Status == queue.StatusFailed && clip.ErrorMessage != "" {
			video = truncate(clip.ErrorMessage, 48)
		}
		rows = append(rows, []string{
			strconv.FormatInt(clip.ID, 10),
			clip.ClipID,
			clip.Broadcaster,
			truncate(clip.Title, 40),
			string(clip.Status),
			clip.CreatedAt.Local().Format("2006-01-02 15:04"),
			video,
		})
	}
	return rows
}

func buildHealthRows(health queue.HealthSummary) [][]string {
	return [][]string{
		{"pending", strconv.Itoa(health.Pending)},
		{"processing", strconv.Itoa(health.Processing)},
		{"uploaded", strconv.Itoa(health.Uploaded)},
		{"failed", strconv.Itoa(health.Failed)},
		{"total", strconv.Itoa(health.Total)},
	}
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
