package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"doiupdate/internal/doi"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type recordJSON struct {
	DOI   string `json:"doi"`
	State string `json:"state"`
	URL   string `json:"url"`
}

func recordView(record *doi.Record) *recordJSON {
	if record == nil {
		return nil
	}
	return &recordJSON{
		DOI:   record.ID(),
		State: record.CurrentState().String(),
		URL:   record.CurrentURL(),
	}
}
