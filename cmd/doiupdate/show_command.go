package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var credentials []string

	cmd := &cobra.Command{
		Use:   "show <doi>",
		Short: "Display the registered state and URL of a DOI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(cmd, credentials, func(s *session) error {
				record, err := s.updater.Fetch(commandCtx(cmd), args[0])
				if err != nil {
					return explainRemoteError(err, s.cfg.DataCite.BaseURL)
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, recordView(record))
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderRecordTable(record))
				return nil
			})
		},
	}
	addCredentialsFlag(cmd, &credentials)
	return cmd
}

func explainRemoteError(err error, baseURL string) error {
	if isRemoteNotFound(err) {
		return fmt.Errorf("%w (is the DOI registered at %s?)", err, baseURL)
	}
	return err
}
