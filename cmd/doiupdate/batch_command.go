package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"doiupdate/internal/batch"
	"doiupdate/internal/config"
)

type batchItemJSON struct {
	FileDOI string      `json:"file_doi"`
	Dataset string      `json:"dataset"`
	Status  string      `json:"status"`
	After   *recordJSON `json:"after,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type batchJSON struct {
	RunID   string          `json:"run_id"`
	Items   []batchItemJSON `json:"items"`
	Updated int             `json:"updated"`
	Skipped int             `json:"skipped"`
	Failed  int             `json:"failed"`
}

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var listFile string
	var keepGoing bool
	var credentials []string

	cmd := &cobra.Command{
		Use:   "batch [file-doi...]",
		Short: "Retarget the datasets that own a list of file DOIs",
		Long: "For every file DOI, fetch the parent dataset DOI, move it from findable to\n" +
			"registered, and point its URL at https://doi.org/<dataset>. DOIs are read\n" +
			"from the arguments and from --file (one per line, '-' for stdin).",
		RunE: func(cmd *cobra.Command, args []string) error {
			fileDOIs, err := collectBatchDOIs(cmd.InOrStdin(), args, listFile)
			if err != nil {
				return err
			}
			if len(fileDOIs) == 0 {
				return errors.New("no DOIs given: pass them as arguments or with --file")
			}

			return ctx.withSession(cmd, credentials, func(s *session) error {
				runner := batch.NewRunner(s.updater, batch.Options{
					LockPath:  s.cfg.BatchLockPath(),
					KeepGoing: resolveKeepGoing(cmd, s.cfg, keepGoing),
					Logger:    s.logger,
				})
				summary, runErr := runner.Run(commandCtx(cmd), fileDOIs)
				if errors.Is(runErr, batch.ErrLocked) {
					return runErr
				}
				if ctx.jsonOutput() {
					if err := writeJSON(cmd, batchView(summary)); err != nil {
						return err
					}
					return runErr
				}
				printBatchSummary(cmd.OutOrStdout(), summary)
				return runErr
			})
		},
	}

	cmd.Flags().StringVarP(&listFile, "file", "f", "", "Read file DOIs from this file ('-' for stdin)")
	cmd.Flags().BoolVar(&keepGoing, "keep-going", false, "Continue after a failed DOI (default from batch.keep_going)")
	addCredentialsFlag(cmd, &credentials)
	return cmd
}

func resolveKeepGoing(cmd *cobra.Command, cfg *config.Config, flagValue bool) bool {
	if cmd.Flags().Changed("keep-going") {
		return flagValue
	}
	return cfg.Batch.KeepGoing
}

func collectBatchDOIs(stdin io.Reader, args []string, listFile string) ([]string, error) {
	dois := make([]string, 0, len(args))
	for _, arg := range args {
		if value := strings.TrimSpace(arg); value != "" {
			dois = append(dois, value)
		}
	}
	listFile = strings.TrimSpace(listFile)
	if listFile == "" {
		return dois, nil
	}

	reader := stdin
	if listFile != "-" {
		path, err := config.ExpandPath(listFile)
		if err != nil {
			return nil, fmt.Errorf("resolve --file: %w", err)
		}
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open --file: %w", err)
		}
		defer file.Close()
		reader = file
	}
	fromFile, err := batch.ReadList(reader)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", listFile, err)
	}
	return append(dois, fromFile...), nil
}

func batchView(summary batch.Summary) batchJSON {
	view := batchJSON{
		RunID:   summary.RunID,
		Items:   make([]batchItemJSON, 0, len(summary.Items)),
		Updated: summary.Count(batch.StatusUpdated),
		Skipped: summary.Count(batch.StatusSkipped),
		Failed:  summary.Count(batch.StatusFailed),
	}
	for _, item := range summary.Items {
		entry := batchItemJSON{
			FileDOI: item.FileDOI,
			Dataset: item.Dataset,
			Status:  string(item.Status),
			After:   recordView(item.Result.After),
		}
		if item.Err != nil {
			entry.Error = item.Err.Error()
		}
		view.Items = append(view.Items, entry)
	}
	return view
}

func printBatchSummary(out io.Writer, summary batch.Summary) {
	colorize := shouldColorize(out)
	for _, item := range summary.Items {
		message := item.Dataset
		switch {
		case item.Err != nil:
			message = fmt.Sprintf("%s: %v", item.Dataset, item.Err)
		case item.Result.After != nil:
			message = fmt.Sprintf("%s -> %s", item.Dataset, item.Result.After)
		case item.Status == batch.StatusSkipped:
			message = item.Dataset + " already retargeted"
		}
		fmt.Fprintln(out, renderStatusLine(item.FileDOI, batchStatusKind(item.Status), message, colorize))
	}
	fmt.Fprintf(out, "Run %s: %d updated, %d skipped, %d failed, %d not started\n",
		summary.RunID,
		summary.Count(batch.StatusUpdated),
		summary.Count(batch.StatusSkipped),
		summary.Count(batch.StatusFailed),
		summary.Count(batch.StatusNotStarted),
	)
}
