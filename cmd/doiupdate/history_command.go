package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"doiupdate/internal/journal"
)

type historyJSON struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id,omitempty"`
	DOI        string    `json:"doi"`
	Mode       string    `json:"mode"`
	FromState  string    `json:"from_state"`
	ToState    string    `json:"to_state"`
	Event      string    `json:"event,omitempty"`
	FromURL    string    `json:"from_url"`
	ToURL      string    `json:"to_url"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [doi]",
		Short: "List journaled update attempts, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if !cfg.Journal.Enabled {
				return errors.New("journal is disabled (journal.enabled = false)")
			}
			if limit < 0 {
				return fmt.Errorf("--limit must not be negative, got %d", limit)
			}

			store, err := journal.Open(commandCtx(cmd), cfg.JournalPath())
			if err != nil {
				return fmt.Errorf("open journal: %w", err)
			}
			defer store.Close()

			filter := journal.Filter{Limit: limit}
			if len(args) == 1 {
				filter.DOI = args[0]
			}
			entries, err := store.List(commandCtx(cmd), filter)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				views := make([]historyJSON, 0, len(entries))
				for _, entry := range entries {
					views = append(views, historyView(entry))
				}
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No journal entries")
				return nil
			}
			colorize := shouldColorize(out)
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					entry.RecordedAt.Local().Format("2006-01-02 15:04:05"),
					entry.DOI,
					string(entry.Mode),
					fmt.Sprintf("%s -> %s", displayState(entry.FromState), displayState(entry.ToState)),
					orDash(entry.Event.String()),
					orDash(entry.ToURL),
					colorizeText(string(entry.Outcome), outcomeKind(entry.Outcome), colorize),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Recorded", "DOI", "Mode", "State", "Event", "URL", "Outcome"},
				rows,
				nil,
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of entries (default 50)")
	return cmd
}

func historyView(entry journal.Entry) historyJSON {
	return historyJSON{
		ID:         entry.ID,
		RunID:      entry.RunID,
		DOI:        entry.DOI,
		Mode:       string(entry.Mode),
		FromState:  entry.FromState.String(),
		ToState:    entry.ToState.String(),
		Event:      entry.Event.String(),
		FromURL:    entry.FromURL,
		ToURL:      entry.ToURL,
		Outcome:    string(entry.Outcome),
		Error:      entry.Error,
		RecordedAt: entry.RecordedAt,
	}
}
