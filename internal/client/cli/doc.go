// Package cli provides the interactive socialgraph command-line client.
//
// It wires configuration, the HTTP API client, and an interactive REPL.
// Typical flow: register or log in, then manage the follow graph with
// follow/unfollow and inspect profiles and their listings.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
