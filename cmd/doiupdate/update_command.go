package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"doiupdate/internal/doi"
	"doiupdate/internal/updater"
)

type updateJSON struct {
	DOI       string      `json:"doi"`
	Before    *recordJSON `json:"before"`
	After     *recordJSON `json:"after,omitempty"`
	Submitted bool        `json:"submitted"`
	Error     string      `json:"error,omitempty"`
}

func newUpdateCommand(ctx *commandContext) *cobra.Command {
	var stateFlag string
	var urlFlag string
	var credentials []string

	cmd := &cobra.Command{
		Use:   "update <doi>",
		Short: "Change the state and/or URL of a DOI",
		Long: "Fetch the DOI and print it. When --state or --url is given the change is\n" +
			"submitted and the resulting record is printed.\n\n" +
			"States: draft, registered, findable. Allowed moves: draft->registered,\n" +
			"draft->findable, registered->findable, findable->registered.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var changes updater.Changes
			if cmd.Flags().Changed("state") {
				state, err := doi.ParseState(stateFlag)
				if err != nil {
					return fmt.Errorf("--state: %w", err)
				}
				changes.State = &state
			}
			if cmd.Flags().Changed("url") {
				url := urlFlag
				changes.URL = &url
			}

			return ctx.withSession(cmd, credentials, func(s *session) error {
				result, err := s.updater.Update(commandCtx(cmd), args[0], changes)
				if ctx.jsonOutput() && result.Before != nil {
					view := updateJSON{
						DOI:       result.Before.ID(),
						Before:    recordView(result.Before),
						After:     recordView(result.After),
						Submitted: result.Submitted(),
					}
					if err != nil {
						view.Error = err.Error()
					}
					if jsonErr := writeJSON(cmd, view); jsonErr != nil {
						return jsonErr
					}
					return err
				}

				out := cmd.OutOrStdout()
				if result.Before != nil {
					fmt.Fprintf(out, "Current metadata for %s is %s\n", args[0], result.Before)
				}
				if err != nil {
					return explainRemoteError(err, s.cfg.DataCite.BaseURL)
				}
				if result.Submitted() {
					fmt.Fprintf(out, "Updated metadata for %s to %s\n", args[0], result.After)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&stateFlag, "state", "", "Target state (draft, registered, findable)")
	cmd.Flags().StringVar(&urlFlag, "url", "", "Target URL the DOI should resolve to")
	addCredentialsFlag(cmd, &credentials)
	return cmd
}
