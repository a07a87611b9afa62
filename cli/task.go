package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/amonks/soundscout/config"
	"github.com/amonks/soundscout/data"
	"github.com/amonks/soundscout/db"
	"github.com/amonks/soundscout/subcmd"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func task(ctx context.Context, cfg *config.Config, out io.Writer, args []string) error {
	subcmd := subcmd.New("task", "show a background task, or summarize recent ones")
	subcmd.SetArg("task-id", "string", "task to show; omit for a summary", false)
	recent := subcmd.Int("recent", 10, "number of recent tasks to list in the summary")
	if err := subcmd.Parse(args); err != nil {
		return fmt.Errorf("flag parsing err: %w", err)
	}

	store, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	if id := subcmd.Arg(); id != "" {
		t, err := store.GetTask(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, t)
	}
	return summarizeTasks(ctx, store, out, *recent)
}

var humanPrinter = message.NewPrinter(language.English)

var statuses = []data.TaskStatus{data.TaskPending, data.TaskInProgress, data.TaskCompleted, data.TaskFailed}

func summarizeTasks(ctx context.Context, store *db.DB, out io.Writer, recent int) error {
	counts, err := store.CountTasks(ctx)
	if err != nil {
		return err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	humanPrinter.Fprintf(out, "TASKS\n")
	humanPrinter.Fprintf(out, "  %d\ttotal\n", total)
	for _, status := range statuses {
		if total == 0 {
			humanPrinter.Fprintf(out, "  %d\t%s\n", counts[status], status)
			continue
		}
		humanPrinter.Fprintf(out, "  %d\t%s (%.2f%%)\n", counts[status], status, 100.0*float64(counts[status])/float64(total))
	}
	humanPrinter.Fprintf(out, "\n")

	if recent <= 0 || total == 0 {
		return nil
	}
	tasks, err := store.RecentTasks(ctx, recent)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\n", strings.Join([]string{"task_id", "status", "progress", "created", "target"}, "\t"))
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\n", strings.Join([]string{
			t.TaskID,
			string(t.Status),
			fmt.Sprintf("%.0f%%", 100*t.Progress),
			t.CreatedAt.Format(time.DateTime),
			t.Target,
		}, "\t"))
	}
	return tw.Flush()
}
