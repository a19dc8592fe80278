// Package main hosts the doiupdate CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and credentials once, then
// hands each subcommand an updater wired to the DataCite client and the local
// journal. Commands print human-readable output on stdout, or JSON with
// --json; logs always go to stderr.
//
// Keep this package thin: behaviour belongs in the internal packages and is
// surfaced here through flags and output formatting.
package main
