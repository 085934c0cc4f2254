package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/quietpress/quill/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit  int    `short:"n" default:"10" help:"How many builds to show"`
	Issues string `help:"Show the issues recorded for one build ID"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root.Config)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return fmt.Errorf("build history is not configured; set history.path in %s", root.Config)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()

	if h.Issues != "" {
		issues, err := store.IssuesFor(ctx, h.Issues)
		if err != nil {
			return err
		}
		if len(issues) == 0 {
			fmt.Printf("no issues recorded for build %s\n", h.Issues)
			return nil
		}
		for _, issue := range issues {
			src := issue.Source
			if src == "" {
				src = "(build)"
			}
			fmt.Printf("[%s] %s %s: %s\n", issue.Severity, issue.Stage, src, issue.Message)
		}
		return nil
	}

	records, err := store.Recent(ctx, h.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no builds recorded yet")
		return nil
	}
	for _, rec := range records {
		fmt.Printf("%s  %s  %-8s  docs=%d emitted=%d assets=%d issues=%d  (%s)\n",
			rec.Finished.Format("2006-01-02 15:04:05"),
			rec.BuildID,
			rec.Outcome,
			rec.Documents, rec.Emitted, rec.Assets, rec.Issues,
			rec.Finished.Sub(rec.Started).Round(time.Millisecond))
	}
	return nil
}
