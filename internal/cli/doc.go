// Package cli wires together the Cobra command tree for the reviewctl binary.
//
// It defines the root command and the reviews, stats, trends, property,
// history, approve and version subcommands, builds the backend client from
// configuration, and returns deterministic exit codes for scripting.
package cli
